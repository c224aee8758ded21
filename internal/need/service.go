package need

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthenticated   = errors.New("authentication required")
	ErrForbidden         = errors.New("not the owner")
	ErrMissingField      = errors.New("missing required field")
	ErrWrongKind         = errors.New("wrong pin kind")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrBadPosition       = errors.New("invalid coordinates")
)

// Repository is the write/read side of the needs collection the gateway
// talks to. The live feed is a separate capability (see internal/repo);
// the gateway never touches a Store directly, state comes back through
// the change stream.
type Repository interface {
	Get(ctx context.Context, id string) (Need, error)
	Create(ctx context.Context, rec Need) (string, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
}

// Actor is the authenticated identity performing a mutation.
// Admin is advisory, mirrored from the allowlist claim; the zero Actor is
// unauthenticated.
type Actor struct {
	ID    uint64
	Name  string
	Admin bool
}

func (a Actor) authenticated() bool { return a.ID != 0 }

// Service validates and applies state-changing actions against pins.
// All preconditions are checked before any repository call; rejections are
// sentinel errors, never panics.
type Service struct {
	Repo Repository
}

// CreateInput is a pin placement. Detail is the need text for HELP and the
// shop name for SHOP.
type CreateInput struct {
	Kind   string
	Lat    float64
	Lng    float64
	Detail string
	Name   string
	Phone  string
}

func (s *Service) Create(ctx context.Context, actor Actor, in CreateInput) (string, error) {
	if !actor.authenticated() {
		return "", ErrUnauthenticated
	}
	if in.Kind != KindHelp && in.Kind != KindShop {
		in.Kind = KindHelp
	}
	if strings.TrimSpace(in.Phone) == "" {
		return "", fmt.Errorf("%w: phone", ErrMissingField)
	}
	if strings.TrimSpace(in.Detail) == "" {
		if in.Kind == KindShop {
			return "", fmt.Errorf("%w: shop name", ErrMissingField)
		}
		return "", fmt.Errorf("%w: need", ErrMissingField)
	}
	if in.Lat < -90 || in.Lat > 90 || in.Lng < -180 || in.Lng > 180 {
		return "", ErrBadPosition
	}

	rec := Need{
		Kind:      in.Kind,
		Lat:       in.Lat,
		Lng:       in.Lng,
		Detail:    strings.TrimSpace(in.Detail),
		Name:      strings.TrimSpace(in.Name),
		Phone:     strings.TrimSpace(in.Phone),
		OwnerID:   actor.ID,
		CreatedAt: time.Now(),
	}
	if rec.Kind == KindHelp {
		rec.Status = StatusOpen
	} else {
		rec.IsOpen = true
	}

	return s.Repo.Create(ctx, rec)
}

// Accept moves an OPEN help pin to ACCEPTED, recording who is coming.
// Any authenticated user may accept; the repository's last write wins if
// two helpers race.
func (s *Service) Accept(ctx context.Context, actor Actor, id, helperName, helperPhone string) error {
	if !actor.authenticated() {
		return ErrUnauthenticated
	}
	if strings.TrimSpace(helperName) == "" {
		return fmt.Errorf("%w: helper name", ErrMissingField)
	}
	if strings.TrimSpace(helperPhone) == "" {
		return fmt.Errorf("%w: helper phone", ErrMissingField)
	}

	rec, err := s.Repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !rec.IsHelp() {
		return ErrWrongKind
	}
	if rec.OwnerID == actor.ID && !actor.Admin {
		// accepting your own request makes no sense
		return ErrForbidden
	}
	if rec.Status != StatusOpen {
		return ErrInvalidTransition
	}

	return s.Repo.Update(ctx, id, map[string]any{
		"status":       StatusAccepted,
		"helper_name":  strings.TrimSpace(helperName),
		"helper_phone": strings.TrimSpace(helperPhone),
	})
}

// Resolve marks an ACCEPTED help pin as helped. Owner only (admins pass,
// the dashboard resolves other people's pins). RESOLVED is terminal.
func (s *Service) Resolve(ctx context.Context, actor Actor, id string) error {
	if !actor.authenticated() {
		return ErrUnauthenticated
	}

	rec, err := s.Repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !rec.IsHelp() {
		return ErrWrongKind
	}
	if rec.OwnerID != actor.ID && !actor.Admin {
		return ErrForbidden
	}
	if rec.Status == StatusResolved {
		return ErrInvalidTransition
	}

	return s.Repo.Update(ctx, id, map[string]any{"status": StatusResolved})
}

// ToggleOpen flips a shop between open and closed. Owner only.
func (s *Service) ToggleOpen(ctx context.Context, actor Actor, id string) error {
	if !actor.authenticated() {
		return ErrUnauthenticated
	}

	rec, err := s.Repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !rec.IsShop() {
		return ErrWrongKind
	}
	if rec.OwnerID != actor.ID {
		return ErrForbidden
	}

	return s.Repo.Update(ctx, id, map[string]any{"is_open": !rec.IsOpen})
}

// Delete removes a pin. Owner only (admins pass).
func (s *Service) Delete(ctx context.Context, actor Actor, id string) error {
	if !actor.authenticated() {
		return ErrUnauthenticated
	}

	rec, err := s.Repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if rec.OwnerID != actor.ID && !actor.Admin {
		return ErrForbidden
	}

	return s.Repo.Delete(ctx, id)
}
