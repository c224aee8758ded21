package handler

import (
	"encoding/json"
	"net/http"

	"floodmap/internal/auth"
)

type MeHandler struct {
	Admins *auth.Admins
}

func (h *MeHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"user_id":  claims.UserID,
		"email":    claims.Email,
		"is_admin": h.Admins.IsAdmin(claims.Email),
	})
}
