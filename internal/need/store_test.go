package need

import (
	"reflect"
	"testing"
	"time"
)

func helpPin(id string, status string, created int64) Need {
	return Need{
		ID:        id,
		Kind:      KindHelp,
		Status:    status,
		Name:      "contact-" + id,
		Phone:     "081",
		Detail:    "water",
		CreatedAt: time.Unix(created, 0),
	}
}

func TestStoreApplyAddedIsIdempotent(t *testing.T) {
	s := NewStore()
	rec := helpPin("a", StatusOpen, 100)

	s.ApplyChange(Added(rec))
	once := s.Snapshot()

	s.ApplyChange(Added(rec))
	twice := s.Snapshot()

	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("redelivered Added changed the snapshot: %v vs %v", once, twice)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 record, got %d", s.Len())
	}
}

func TestStoreAddedOverwritesExisting(t *testing.T) {
	s := NewStore()
	s.ApplyChange(Added(helpPin("a", StatusOpen, 100)))

	updated := helpPin("a", StatusAccepted, 100)
	s.ApplyChange(Added(updated))

	snap := s.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("expected 1 record, got %d", len(snap))
	}
	if snap["a"].Status != StatusAccepted {
		t.Fatalf("last write should win, got status %q", snap["a"].Status)
	}
}

func TestStoreModifiedUnknownIDInserts(t *testing.T) {
	s := NewStore()
	s.ApplyChange(Modified(helpPin("ghost", StatusOpen, 50)))

	if s.Len() != 1 {
		t.Fatalf("Modified for an unknown id should insert, got %d records", s.Len())
	}
}

func TestStoreRemovedUnknownIDIsNoop(t *testing.T) {
	s := NewStore()
	s.ApplyChange(Added(helpPin("a", StatusOpen, 100)))
	s.ApplyChange(Removed("nope"))

	if s.Len() != 1 {
		t.Fatalf("Removed for an unknown id should be a no-op, got %d records", s.Len())
	}

	s.ApplyChange(Removed("a"))
	if s.Len() != 0 {
		t.Fatalf("expected empty store after removal, got %d", s.Len())
	}
}

func TestStoreNormalizesMalformedRecords(t *testing.T) {
	s := NewStore()
	// no kind, no status: must be accepted and defaulted, never rejected
	s.ApplyChange(Added(Need{ID: "x"}))

	snap := s.Snapshot()
	if snap["x"].Kind != KindHelp || snap["x"].Status != StatusOpen {
		t.Fatalf("expected defaulted HELP/OPEN, got %q/%q", snap["x"].Kind, snap["x"].Status)
	}
}

func TestStoreShopClearsHelperFields(t *testing.T) {
	s := NewStore()
	s.ApplyChange(Added(Need{ID: "s1", Kind: KindShop, Status: StatusAccepted, HelperName: "X"}))

	rec := s.Snapshot()["s1"]
	if rec.Status != "" || rec.HelperName != "" {
		t.Fatalf("shop pin kept help-machine fields: status=%q helper=%q", rec.Status, rec.HelperName)
	}
}

func TestStoreAllKeepsArrivalOrder(t *testing.T) {
	s := NewStore()
	s.ApplyChange(Added(helpPin("b", StatusOpen, 200)))
	s.ApplyChange(Added(helpPin("a", StatusOpen, 100)))
	s.ApplyChange(Added(helpPin("c", StatusOpen, 300)))

	// re-adding must not move "b" to the back
	s.ApplyChange(Added(helpPin("b", StatusAccepted, 200)))

	got := ids(s.All())
	want := []string{"b", "a", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("arrival order changed: got %v want %v", got, want)
	}
}

func TestStoreNotifiesOnChange(t *testing.T) {
	s := NewStore()
	var fired int
	s.OnChange(func() { fired++ })

	s.ApplyChange(Added(helpPin("a", StatusOpen, 100)))
	s.ApplyChange(Removed("a"))

	if fired != 2 {
		t.Fatalf("expected 2 notifications, got %d", fired)
	}
}

func TestStoreSnapshotIsACopy(t *testing.T) {
	s := NewStore()
	s.ApplyChange(Added(helpPin("a", StatusOpen, 100)))

	snap := s.Snapshot()
	delete(snap, "a")

	if s.Len() != 1 {
		t.Fatal("mutating the snapshot leaked into the store")
	}
}

func ids(recs []Need) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}
