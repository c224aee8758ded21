package need

import (
	"sync"
	"testing"
	"time"
)

func TestDebouncerDeliversOnlyLastOfBurst(t *testing.T) {
	var mu sync.Mutex
	var got []string

	d := NewDebouncer(30*time.Millisecond, func(term string) {
		mu.Lock()
		got = append(got, term)
		mu.Unlock()
	})
	defer d.Stop()

	d.Input("a")
	d.Input("ab")
	d.Input("abc")

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != "abc" {
		t.Fatalf("expected single delivery of last term, got %v", got)
	}
}

func TestDebouncerSeparateBursts(t *testing.T) {
	var mu sync.Mutex
	var got []string

	d := NewDebouncer(20*time.Millisecond, func(term string) {
		mu.Lock()
		got = append(got, term)
		mu.Unlock()
	})
	defer d.Stop()

	d.Input("first")
	time.Sleep(60 * time.Millisecond)
	d.Input("second")
	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Fatalf("expected both bursts delivered, got %v", got)
	}
}

func TestDebouncerStopCancelsPending(t *testing.T) {
	var mu sync.Mutex
	fired := false

	d := NewDebouncer(30*time.Millisecond, func(string) {
		mu.Lock()
		fired = true
		mu.Unlock()
	})

	d.Input("doomed")
	d.Stop()

	time.Sleep(80 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if fired {
		t.Fatal("debouncer fired after Stop")
	}
}

func TestDebouncerFlushDeliversImmediately(t *testing.T) {
	var mu sync.Mutex
	var got []string

	d := NewDebouncer(time.Hour, func(term string) {
		mu.Lock()
		got = append(got, term)
		mu.Unlock()
	})
	defer d.Stop()

	d.Input("pending")
	d.Flush("now")

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != "now" {
		t.Fatalf("expected immediate delivery, got %v", got)
	}
}
