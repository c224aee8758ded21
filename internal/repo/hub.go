package repo

import (
	"log"
	"sync"

	"floodmap/internal/need"
)

// subscriber queue capacity. A slow consumer past this point loses events;
// it will resync on its next subscribe (the stream is at-least-once, not
// lossless).
const subscriberBuffer = 256

// Hub fans repository change events out to live subscribers. Each
// subscriber gets its own buffered channel and pump goroutine, so delivery
// order is consistent per subscriber but independent across them.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*subscriber
}

type subscriber struct {
	filter need.SubFilter
	ch     chan need.ChangeEvent
	done   chan struct{}

	// staged subscriptions collect live events aside until the initial
	// snapshot replay is queued, so replay always precedes anything newer.
	staging bool
	pending []need.ChangeEvent
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]*subscriber)}
}

// Subscribe registers fn for events matching filter. The returned cancel
// stops delivery and releases the pump; it is safe to call twice.
func (h *Hub) Subscribe(filter need.SubFilter, fn func(need.ChangeEvent)) (cancel func()) {
	return h.SubscribeSnapshot(filter, nil, fn)
}

// SubscribeSnapshot registers fn and, if load is non-nil, replays the
// records it returns as Added events before any live event. Writes that
// land while the snapshot is loading are staged and flushed after the
// replay, keeping per-document order intact.
func (h *Hub) SubscribeSnapshot(filter need.SubFilter, load func() []need.Need, fn func(need.ChangeEvent)) (cancel func()) {
	sub := &subscriber{
		filter:  filter,
		done:    make(chan struct{}),
		staging: load != nil,
	}
	if load == nil {
		sub.ch = make(chan need.ChangeEvent, subscriberBuffer)
	}

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = sub
	h.mu.Unlock()

	if load != nil {
		replay := load()
		h.mu.Lock()
		// size the queue so the full snapshot fits ahead of live traffic
		sub.ch = make(chan need.ChangeEvent, len(replay)+len(sub.pending)+subscriberBuffer)
		for _, rec := range replay {
			sub.deliver(need.Added(rec))
		}
		sub.staging = false
		for _, ev := range sub.pending {
			sub.deliver(ev)
		}
		sub.pending = nil
		h.mu.Unlock()
	}

	go func() {
		for {
			select {
			case <-sub.done:
				return
			case ev := <-sub.ch:
				fn(ev)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(sub.done)
		})
	}
}

// deliver enqueues without blocking; the hub lock is held.
func (sub *subscriber) deliver(ev need.ChangeEvent) {
	select {
	case sub.ch <- ev:
	default:
		log.Printf("repo: dropping change event for slow subscriber (op=%d id=%s)", ev.Op, eventID(ev))
	}
}

// Publish delivers one event to every matching subscriber.
func (h *Hub) Publish(ev need.ChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs {
		if !matches(sub.filter, ev) {
			continue
		}
		if sub.staging {
			sub.pending = append(sub.pending, ev)
			continue
		}
		sub.deliver(ev)
	}
}

// matches applies the subscription filter. Removals carry only an id, so
// they pass every filter; the store treats a removal for an id it never
// held as a no-op.
func matches(f need.SubFilter, ev need.ChangeEvent) bool {
	if ev.Op == need.OpRemoved {
		return true
	}
	if f.Kind != "" && ev.Record.Kind != f.Kind {
		return false
	}
	if f.OwnerID != 0 && ev.Record.OwnerID != f.OwnerID {
		return false
	}
	return true
}

func eventID(ev need.ChangeEvent) string {
	if ev.Op == need.OpRemoved {
		return ev.ID
	}
	return ev.Record.ID
}
