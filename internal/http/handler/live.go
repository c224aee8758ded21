package handler

import (
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"floodmap/internal/auth"
	"floodmap/internal/need"

	"github.com/gorilla/websocket"
)

// LiveHandler serves the realtime map/dashboard view over a websocket.
// Each connection owns one need.Session; the client steers it with query
// messages and receives the current page after every change, server push
// included.
type LiveHandler struct {
	Feed           need.Feed
	SearchDebounce time.Duration
	DefaultSize    int

	Upgrader websocket.Upgrader
}

// queryMsg is one client instruction. Fields are pointers so a message
// only touches the state it mentions.
type queryMsg struct {
	Scope     *string `json:"scope"`
	StatusTab *string `json:"status_tab"`
	Search    *string `json:"search"`
	SortKey   *string `json:"sort_key"`
	Page      *int    `json:"page"`
	PageSize  *int    `json:"page_size"`
}

func (h *LiveHandler) Serve(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response
		return
	}
	defer conn.Close()

	// writes come from the session's feed goroutine and from this read
	// loop; gorilla allows one concurrent writer only
	var writeMu sync.Mutex
	push := func(p need.Page) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(map[string]any{"type": "page", "page": p}); err != nil {
			log.Printf("live: write failed: %v", err)
		}
	}

	size := h.DefaultSize
	if size < 1 {
		size = 100
	}

	sess := need.NewSession(h.Feed, need.ViewQuery{
		Scope:   need.ScopeAll,
		SortKey: need.SortNewest,
	}, size, h.SearchDebounce, push)
	defer sess.Close()

	for {
		var msg queryMsg
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		h.apply(sess, claims, msg)
	}
}

func (h *LiveHandler) apply(sess *need.Session, claims auth.Claims, msg queryMsg) {
	if msg.Scope != nil {
		scope := strings.ToLower(strings.TrimSpace(*msg.Scope))
		if scope == need.ScopeMine && claims.UserID != 0 {
			sess.SetScope(need.ScopeMine, claims.UserID)
		} else {
			sess.SetScope(need.ScopeAll, 0)
		}
	}
	if msg.StatusTab != nil {
		sess.SetStatusTab(strings.ToUpper(strings.TrimSpace(*msg.StatusTab)))
	}
	if msg.SortKey != nil {
		sess.SetSortKey(strings.ToLower(strings.TrimSpace(*msg.SortKey)))
	}
	if msg.Search != nil {
		sess.SearchInput(*msg.Search)
	}
	if msg.PageSize != nil {
		sess.SetPageSize(*msg.PageSize)
	}
	if msg.Page != nil {
		sess.SetPage(*msg.Page)
	}
}
