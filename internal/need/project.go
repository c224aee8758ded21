package need

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Scope selects whose pins a view shows.
const (
	ScopeAll  = "all"
	ScopeMine = "mine"
)

// Sort keys for the projected list.
const (
	SortNewest   = "newest"
	SortOldest   = "oldest"
	SortNameAsc  = "name-asc"
	SortNameDesc = "name-desc"
)

// ViewQuery is the full filter/sort state of one view.
// StatusTab applies to HELP pins only; an empty StatusTab keeps every kind
// (the map "all pins" view). SearchTerm is a case-insensitive substring
// match over name, phone and detail.
type ViewQuery struct {
	Scope      string
	UserID     uint64 // required when Scope is ScopeMine
	StatusTab  string
	SearchTerm string
	SortKey    string
}

// newNameCollator builds the contact-name comparator. A Collator is not
// safe for concurrent use, so each sort gets its own.
func newNameCollator() *collate.Collator {
	return collate.New(language.Thai)
}

// Project derives the visible ordered list from a snapshot and a query.
// Pure: same input, same output; the input slice is never mutated.
// Stages run in fixed order: scope, status tab, search, stable sort.
func Project(records []Need, q ViewQuery) []Need {
	out := make([]Need, 0, len(records))

	term := strings.ToLower(strings.TrimSpace(q.SearchTerm))
	for _, rec := range records {
		if q.Scope == ScopeMine && rec.OwnerID != q.UserID {
			continue
		}
		if q.StatusTab != "" {
			if !rec.IsHelp() || rec.Status != q.StatusTab {
				continue
			}
		}
		if term != "" && !matchesTerm(rec, term) {
			continue
		}
		out = append(out, rec)
	}

	sortRecords(out, q.SortKey)
	return out
}

func matchesTerm(rec Need, term string) bool {
	return strings.Contains(strings.ToLower(rec.Name), term) ||
		strings.Contains(strings.ToLower(rec.Phone), term) ||
		strings.Contains(strings.ToLower(rec.Detail), term)
}

// sortRecords orders in place. sort.SliceStable keeps equal-ranked items in
// their incoming relative order so re-projection never shuffles the view.
// A missing CreatedAt sorts as the zero time, i.e. earliest.
func sortRecords(recs []Need, key string) {
	switch key {
	case SortOldest:
		sort.SliceStable(recs, func(i, j int) bool {
			return recs[i].CreatedAt.Before(recs[j].CreatedAt)
		})
	case SortNameAsc:
		col := newNameCollator()
		sort.SliceStable(recs, func(i, j int) bool {
			return col.CompareString(recs[i].Name, recs[j].Name) < 0
		})
	case SortNameDesc:
		col := newNameCollator()
		sort.SliceStable(recs, func(i, j int) bool {
			return col.CompareString(recs[j].Name, recs[i].Name) < 0
		})
	default: // SortNewest
		sort.SliceStable(recs, func(i, j int) bool {
			return recs[j].CreatedAt.Before(recs[i].CreatedAt)
		})
	}
}
