package need

import (
	"sync"
	"time"
)

// SubFilter narrows a live subscription. Zero values mean "no constraint".
type SubFilter struct {
	Kind    string
	OwnerID uint64
}

// Feed is the realtime side of the needs repository: a filtered stream of
// change events. The returned cancel must be called when the consumer goes
// away, otherwise the callback keeps mutating a discarded store.
type Feed interface {
	Subscribe(filter SubFilter, fn func(ChangeEvent)) (cancel func())
}

// Session is one live view: a store mirroring a subscription, the current
// query and page state, and the debounced search input. The admin dashboard
// and each websocket map client hold one session apiece; sessions are not
// shared.
type Session struct {
	feed Feed

	mu       sync.Mutex
	store    *Store
	query    ViewQuery
	page     int
	pageSize int
	cancel   func()
	closed   bool

	debounce *Debouncer
	onUpdate func(Page)
}

// NewSession opens a session and its initial subscription.
// onUpdate receives a fresh page after every store or query change.
func NewSession(feed Feed, q ViewQuery, pageSize int, debounce time.Duration, onUpdate func(Page)) *Session {
	if pageSize < 1 {
		pageSize = 1
	}
	s := &Session{
		feed:     feed,
		store:    NewStore(),
		query:    q,
		page:     1,
		pageSize: pageSize,
		onUpdate: onUpdate,
	}
	s.debounce = NewDebouncer(debounce, s.setSearchTerm)
	s.cancel = feed.Subscribe(s.subFilter(q), s.apply)
	return s
}

// apply folds one feed event in and publishes the refreshed page. The
// store is only ever touched under s.mu; the feed delivers from its own
// goroutine.
func (s *Session) apply(ev ChangeEvent) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.store.ApplyChange(ev)
	page := s.currentPageLocked()
	fn := s.onUpdate
	s.mu.Unlock()
	if fn != nil {
		fn(page)
	}
}

// subFilter maps the view scope to the backing subscription. "Mine" narrows
// the feed itself rather than filtering client-side.
func (s *Session) subFilter(q ViewQuery) SubFilter {
	if q.Scope == ScopeMine {
		return SubFilter{OwnerID: q.UserID}
	}
	return SubFilter{}
}

// push recomputes and publishes the current page. Callers hold no lock.
func (s *Session) push() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	page := s.currentPageLocked()
	fn := s.onUpdate
	s.mu.Unlock()
	if fn != nil {
		fn(page)
	}
}

func (s *Session) currentPageLocked() Page {
	ordered := Project(s.store.All(), s.query)
	p := Paginate(ordered, s.pageSize, s.page)
	s.page = p.Page // clamp sticks
	return p
}

// CurrentPage projects and paginates the present snapshot.
func (s *Session) CurrentPage() Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentPageLocked()
}

// SetStatusTab switches the status tab and resets to page 1.
func (s *Session) SetStatusTab(tab string) {
	s.mu.Lock()
	if s.query.StatusTab != tab {
		s.query.StatusTab = tab
		s.page = 1
	}
	s.mu.Unlock()
	s.push()
}

// SetSortKey switches ordering and resets to page 1.
func (s *Session) SetSortKey(key string) {
	s.mu.Lock()
	if s.query.SortKey != key {
		s.query.SortKey = key
		s.page = 1
	}
	s.mu.Unlock()
	s.push()
}

// SetScope switches between "mine" and "all". The backing query changes,
// so the old subscription is cancelled, the store reset, and a new feed
// opened. Page resets to 1.
func (s *Session) SetScope(scope string, userID uint64) {
	s.mu.Lock()
	if s.closed || (s.query.Scope == scope && s.query.UserID == userID) {
		s.mu.Unlock()
		return
	}
	s.query.Scope = scope
	s.query.UserID = userID
	s.page = 1

	old := s.cancel
	s.store.Reset()
	s.cancel = s.feed.Subscribe(s.subFilter(s.query), s.apply)
	s.mu.Unlock()

	if old != nil {
		old()
	}
	s.push()
}

// SearchInput feeds one keystroke into the debouncer. The effective term
// changes only after the quiet period.
func (s *Session) SearchInput(term string) { s.debounce.Input(term) }

func (s *Session) setSearchTerm(term string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.query.SearchTerm != term {
		s.query.SearchTerm = term
		s.page = 1
	}
	s.mu.Unlock()
	s.push()
}

// SetPage navigates. The effective page still clamps against the current
// projection size.
func (s *Session) SetPage(page int) {
	s.mu.Lock()
	s.page = page
	s.mu.Unlock()
	s.push()
}

// SetPageSize changes the slice size and resets to page 1.
func (s *Session) SetPageSize(size int) {
	if size < 1 {
		return
	}
	s.mu.Lock()
	if s.pageSize != size {
		s.pageSize = size
		s.page = 1
	}
	s.mu.Unlock()
	s.push()
}

// Query returns a copy of the effective view query.
func (s *Session) Query() ViewQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Close cancels the subscription and any pending debounced search.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	s.debounce.Stop()
	if cancel != nil {
		cancel()
	}
}
