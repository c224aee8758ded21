package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"floodmap/internal/auth"
	"floodmap/internal/jobs"
	"floodmap/internal/need"

	"github.com/go-chi/chi/v5"
)

// NeedHandler carries the mutation gateway plus the notification queue.
// Notification enqueue happens here, after a successful accept, so a queue
// failure never rolls back the accept itself.
type NeedHandler struct {
	Svc    *need.Service
	Jobs   *jobs.Repo
	Admins *auth.Admins
}

func (h *NeedHandler) actor(r *http.Request) need.Actor {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return need.Actor{}
	}
	return need.Actor{ID: claims.UserID, Admin: h.Admins.IsAdmin(claims.Email)}
}

type createNeedReq struct {
	Kind   string  `json:"kind"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Detail string  `json:"detail"`
	Name   string  `json:"name"`
	Phone  string  `json:"phone"`
}

func (h *NeedHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createNeedReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	id, err := h.Svc.Create(r.Context(), h.actor(r), need.CreateInput{
		Kind:   req.Kind,
		Lat:    req.Lat,
		Lng:    req.Lng,
		Detail: req.Detail,
		Name:   req.Name,
		Phone:  req.Phone,
	})
	if err != nil {
		writeNeedError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": id})
}

type acceptReq struct {
	HelperName  string `json:"helper_name"`
	HelperPhone string `json:"helper_phone"`
}

func (h *NeedHandler) Accept(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req acceptReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	if err := h.Svc.Accept(r.Context(), h.actor(r), id, req.HelperName, req.HelperPhone); err != nil {
		writeNeedError(w, err)
		return
	}

	// notify the owner that help is on the way; delivery is best-effort
	if rec, err := h.Svc.Repo.Get(r.Context(), id); err == nil {
		if err := h.Jobs.EnqueueAccepted(rec.OwnerID, rec.ID); err != nil {
			log.Printf("enqueue notify failed: %v", err)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *NeedHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Svc.Resolve(r.Context(), h.actor(r), id); err != nil {
		writeNeedError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NeedHandler) ToggleOpen(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Svc.ToggleOpen(r.Context(), h.actor(r), id); err != nil {
		writeNeedError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NeedHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Svc.Delete(r.Context(), h.actor(r), id); err != nil {
		writeNeedError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeNeedError maps gateway rejections to status codes. Validation and
// authorization failures are rejected before any repository write, so the
// body text is specific enough to show next to the action.
func writeNeedError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, need.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, need.ErrUnauthenticated):
		http.Error(w, "authentication required", http.StatusUnauthorized)
	case errors.Is(err, need.ErrForbidden):
		http.Error(w, "not allowed", http.StatusForbidden)
	case errors.Is(err, need.ErrMissingField),
		errors.Is(err, need.ErrBadPosition),
		errors.Is(err, need.ErrWrongKind):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, need.ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "server error", http.StatusInternalServerError)
	}
}
