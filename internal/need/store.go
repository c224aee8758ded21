package need

import "sort"

// ChangeEvent mirrors one notification from the repository's change stream.
// Exactly one of the semantics applies, selected by Op.
type ChangeEvent struct {
	Op     ChangeOp
	Record Need   // Added, Modified
	ID     string // Removed
}

type ChangeOp int

const (
	OpAdded ChangeOp = iota
	OpModified
	OpRemoved
)

func Added(rec Need) ChangeEvent    { return ChangeEvent{Op: OpAdded, Record: rec} }
func Modified(rec Need) ChangeEvent { return ChangeEvent{Op: OpModified, Record: rec} }
func Removed(id string) ChangeEvent { return ChangeEvent{Op: OpRemoved, ID: id} }

// Store is the authoritative in-memory mirror of a live subscription.
// It holds id -> record and nothing else; filtering and ordering live in
// the projector. Apply rules are idempotent because the stream may
// redeliver events after a reconnect.
//
// Store is not self-synchronizing: one view session owns it and feeds it
// from a single goroutine.
type Store struct {
	records  map[string]Need
	order    map[string]int // arrival rank, tie-break for stable projection
	next     int
	onChange func()
}

func NewStore() *Store {
	return &Store{
		records: make(map[string]Need),
		order:   make(map[string]int),
	}
}

// OnChange registers a single flat snapshot-changed callback.
func (s *Store) OnChange(fn func()) { s.onChange = fn }

// ApplyChange folds one stream event into the snapshot.
// Added on a known id overwrites (redelivery), Modified on an unknown id
// inserts (missed initial snapshot), Removed on an unknown id is a no-op.
// It never fails; malformed records are normalized, not rejected.
func (s *Store) ApplyChange(ev ChangeEvent) {
	switch ev.Op {
	case OpAdded, OpModified:
		rec := ev.Record.Normalize()
		if _, ok := s.order[rec.ID]; !ok {
			s.order[rec.ID] = s.next
			s.next++
		}
		s.records[rec.ID] = rec
	case OpRemoved:
		if _, ok := s.records[ev.ID]; !ok {
			return
		}
		delete(s.records, ev.ID)
		delete(s.order, ev.ID)
	}

	if s.onChange != nil {
		s.onChange()
	}
}

// Snapshot returns a copy of the current id -> record mapping.
func (s *Store) Snapshot() map[string]Need {
	out := make(map[string]Need, len(s.records))
	for id, rec := range s.records {
		out[id] = rec
	}
	return out
}

// All returns the records in arrival order. This is the projector's input:
// a deterministic base order keeps equal-ranked items from shuffling when
// the projection re-runs.
func (s *Store) All() []Need {
	out := make([]Need, 0, len(s.records))
	for id := range s.records {
		out = append(out, s.records[id])
	}
	sort.Slice(out, func(i, j int) bool {
		return s.order[out[i].ID] < s.order[out[j].ID]
	})
	return out
}

func (s *Store) Len() int { return len(s.records) }

// Reset drops every record, used when the session swaps subscriptions
// (e.g. scope change needs a different backing query).
func (s *Store) Reset() {
	s.records = make(map[string]Need)
	s.order = make(map[string]int)
	s.next = 0
	if s.onChange != nil {
		s.onChange()
	}
}
