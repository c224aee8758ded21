package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"floodmap/internal/auth"
	"floodmap/internal/need"
	"floodmap/internal/repo"
)

type NeedReadHandler struct {
	Repo *repo.Needs
}

// List is the one-shot fallback read path (the landing page and clients
// without a live connection). Cursor-paginated, optional kind/status/mine
// filters and a name-prefix search.
func (h *NeedReadHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f := repo.Filter{
		Kind:   strings.ToUpper(strings.TrimSpace(q.Get("kind"))),
		Status: strings.ToUpper(strings.TrimSpace(q.Get("status"))),
	}
	if q.Get("mine") == "true" {
		claims, _ := auth.ClaimsFromContext(r.Context())
		f.OwnerID = claims.UserID
	}

	limit := 0
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	res, err := h.Repo.Query(r.Context(), repo.QueryOptions{
		Filter:     f,
		NamePrefix: strings.TrimSpace(q.Get("name_prefix")),
		Limit:      limit,
		Cursor:     strings.TrimSpace(q.Get("cursor")),
	})
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"records":     res.Records,
		"next_cursor": res.NextCursor,
		"has_more":    res.HasMore,
	})
}

type statsDTO struct {
	Waiting  int64 `json:"waiting"`
	Accepted int64 `json:"accepted"`
	Resolved int64 `json:"resolved"`
	Helped   int64 `json:"helped"`
}

// Stats backs the landing counters. Aggregate counts first; if those fail,
// one full fetch and a client-side tally; if that fails too, zeros — the
// rest of the page must still render.
func (h *NeedReadHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.countStats(r.Context())
	if err != nil {
		log.Printf("stats aggregate failed, falling back to fetch: %v", err)
		stats, err = h.fetchStats(r.Context())
		if err != nil {
			log.Printf("stats fallback failed: %v", err)
			stats = statsDTO{}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stats)
}

func (h *NeedReadHandler) countStats(ctx context.Context) (statsDTO, error) {
	var out statsDTO
	var err error
	if out.Waiting, err = h.Repo.CountMatching(ctx, repo.Filter{Kind: need.KindHelp, Status: need.StatusOpen}); err != nil {
		return statsDTO{}, err
	}
	if out.Accepted, err = h.Repo.CountMatching(ctx, repo.Filter{Kind: need.KindHelp, Status: need.StatusAccepted}); err != nil {
		return statsDTO{}, err
	}
	if out.Resolved, err = h.Repo.CountMatching(ctx, repo.Filter{Kind: need.KindHelp, Status: need.StatusResolved}); err != nil {
		return statsDTO{}, err
	}
	out.Helped = out.Accepted + out.Resolved
	return out, nil
}

func (h *NeedReadHandler) fetchStats(ctx context.Context) (statsDTO, error) {
	var out statsDTO
	cursor := ""
	for {
		res, err := h.Repo.Query(ctx, repo.QueryOptions{
			Filter: repo.Filter{Kind: need.KindHelp},
			Limit:  200,
			Cursor: cursor,
		})
		if err != nil {
			return statsDTO{}, err
		}
		for _, rec := range res.Records {
			switch rec.Status {
			case need.StatusOpen:
				out.Waiting++
			case need.StatusAccepted:
				out.Accepted++
			case need.StatusResolved:
				out.Resolved++
			}
		}
		if !res.HasMore {
			break
		}
		cursor = res.NextCursor
	}
	out.Helped = out.Accepted + out.Resolved
	return out, nil
}
