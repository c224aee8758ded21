package auth

import "strings"

// Admins is a local email allowlist. It is the single admin mechanism:
// the flag it yields is advisory (client-grade), real enforcement would
// belong at the database boundary.
type Admins struct {
	emails map[string]struct{}
}

func NewAdmins(emails []string) *Admins {
	a := &Admins{emails: make(map[string]struct{}, len(emails))}
	for _, e := range emails {
		e = strings.TrimSpace(strings.ToLower(e))
		if e != "" {
			a.emails[e] = struct{}{}
		}
	}
	return a
}

func (a *Admins) IsAdmin(email string) bool {
	_, ok := a.emails[strings.ToLower(strings.TrimSpace(email))]
	return ok
}
