package repo

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"floodmap/internal/need"
)

// collector gathers async deliveries from a hub subscription.
type collector struct {
	mu  sync.Mutex
	evs []need.ChangeEvent
}

func (c *collector) fn(ev need.ChangeEvent) {
	c.mu.Lock()
	c.evs = append(c.evs, ev)
	c.mu.Unlock()
}

func (c *collector) wait(t *testing.T, n int) []need.ChangeEvent {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		c.mu.Lock()
		if len(c.evs) >= n {
			out := make([]need.ChangeEvent, len(c.evs))
			copy(out, c.evs)
			c.mu.Unlock()
			return out
		}
		c.mu.Unlock()
		if time.Now().After(deadline) {
			c.mu.Lock()
			got := len(c.evs)
			c.mu.Unlock()
			t.Fatalf("timed out waiting for %d events, have %d", n, got)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.evs)
}

func pin(id string, kind string, owner uint64) need.Need {
	return need.Need{ID: id, Kind: kind, Status: need.StatusOpen, OwnerID: owner, Phone: "081", Detail: "d"}
}

func TestHubFansOutToAllSubscribers(t *testing.T) {
	h := NewHub()
	a, b := &collector{}, &collector{}

	cancelA := h.Subscribe(need.SubFilter{}, a.fn)
	defer cancelA()
	cancelB := h.Subscribe(need.SubFilter{}, b.fn)
	defer cancelB()

	h.Publish(need.Added(pin("n1", need.KindHelp, 1)))

	if evs := a.wait(t, 1); evs[0].Record.ID != "n1" {
		t.Fatalf("subscriber a got %+v", evs[0])
	}
	if evs := b.wait(t, 1); evs[0].Record.ID != "n1" {
		t.Fatalf("subscriber b got %+v", evs[0])
	}
}

func TestHubFiltersByKindAndOwner(t *testing.T) {
	h := NewHub()
	shops, mine := &collector{}, &collector{}

	cancelShops := h.Subscribe(need.SubFilter{Kind: need.KindShop}, shops.fn)
	defer cancelShops()
	cancelMine := h.Subscribe(need.SubFilter{OwnerID: 7}, mine.fn)
	defer cancelMine()

	h.Publish(need.Added(pin("h1", need.KindHelp, 1)))
	h.Publish(need.Added(pin("s1", need.KindShop, 2)))
	h.Publish(need.Added(pin("m1", need.KindHelp, 7)))

	if evs := shops.wait(t, 1); evs[0].Record.ID != "s1" {
		t.Fatalf("kind filter leaked: %+v", evs)
	}
	if evs := mine.wait(t, 1); evs[0].Record.ID != "m1" {
		t.Fatalf("owner filter leaked: %+v", evs)
	}

	time.Sleep(50 * time.Millisecond)
	if shops.count() != 1 || mine.count() != 1 {
		t.Fatalf("filters passed extra events: shops=%d mine=%d", shops.count(), mine.count())
	}
}

func TestHubRemovalPassesEveryFilter(t *testing.T) {
	h := NewHub()
	c := &collector{}

	cancel := h.Subscribe(need.SubFilter{Kind: need.KindShop, OwnerID: 99}, c.fn)
	defer cancel()

	h.Publish(need.Removed("gone"))

	evs := c.wait(t, 1)
	if evs[0].Op != need.OpRemoved || evs[0].ID != "gone" {
		t.Fatalf("got %+v", evs[0])
	}
}

func TestHubCancelStopsDelivery(t *testing.T) {
	h := NewHub()
	c := &collector{}

	cancel := h.Subscribe(need.SubFilter{}, c.fn)
	h.Publish(need.Added(pin("n1", need.KindHelp, 1)))
	c.wait(t, 1)

	cancel()
	cancel() // second call is a no-op

	h.Publish(need.Added(pin("n2", need.KindHelp, 1)))
	time.Sleep(50 * time.Millisecond)

	if c.count() != 1 {
		t.Fatalf("cancelled subscriber still received events: %d", c.count())
	}
}

func TestHubSnapshotReplaysBeforeLiveEvents(t *testing.T) {
	h := NewHub()
	c := &collector{}

	// publish from inside load to simulate a write landing mid-snapshot
	load := func() []need.Need {
		h.Publish(need.Modified(pin("a", need.KindHelp, 1)))
		return []need.Need{pin("a", need.KindHelp, 1), pin("b", need.KindHelp, 1)}
	}

	cancel := h.SubscribeSnapshot(need.SubFilter{}, load, c.fn)
	defer cancel()

	evs := c.wait(t, 3)
	if evs[0].Op != need.OpAdded || evs[0].Record.ID != "a" {
		t.Fatalf("replay out of order: %+v", evs)
	}
	if evs[1].Op != need.OpAdded || evs[1].Record.ID != "b" {
		t.Fatalf("replay out of order: %+v", evs)
	}
	if evs[2].Op != need.OpModified || evs[2].Record.ID != "a" {
		t.Fatalf("staged live event did not follow replay: %+v", evs)
	}
}

func TestHubLargeSnapshotFitsQueue(t *testing.T) {
	h := NewHub()
	c := &collector{}

	big := make([]need.Need, 1000)
	for i := range big {
		big[i] = pin(fmt.Sprintf("n%04d", i), need.KindHelp, 1)
	}

	cancel := h.SubscribeSnapshot(need.SubFilter{}, func() []need.Need { return big }, c.fn)
	defer cancel()

	evs := c.wait(t, 1000)
	if evs[0].Record.ID != "n0000" || evs[999].Record.ID != "n0999" {
		t.Fatalf("snapshot order broken: first=%s last=%s", evs[0].Record.ID, evs[999].Record.ID)
	}
}
