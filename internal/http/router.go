package http

import (
	"net/http"

	"floodmap/internal/auth"
	"floodmap/internal/config"
	"floodmap/internal/http/handler"
	mw "floodmap/internal/http/middleware"
	"floodmap/internal/jobs"
	"floodmap/internal/need"
	"floodmap/internal/repo"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"
)

func NewRouter(cfg config.Config, db *gorm.DB, jwtSvc *auth.JWT, needs *repo.Needs) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	admins := auth.NewAdmins(cfg.AdminEmails)

	ah := &handler.AuthHandler{DB: db, JWT: jwtSvc, Admins: admins}
	r.Post("/auth/register", ah.Register)
	r.Post("/auth/login", ah.Login)

	me := &handler.MeHandler{Admins: admins}
	r.With(auth.RequireAuth(jwtSvc)).Get("/me", me.Me)

	needSvc := &need.Service{Repo: needs}
	needH := &handler.NeedHandler{Svc: needSvc, Jobs: &jobs.Repo{DB: db}, Admins: admins}
	needRead := &handler.NeedReadHandler{Repo: needs}
	live := &handler.LiveHandler{
		Feed:           needs,
		SearchDebounce: cfg.SearchDebounce,
		DefaultSize:    cfg.DefaultPageSize,
	}

	r.Get("/stats", needRead.Stats)

	r.Route("/needs", func(r chi.Router) {
		// viewing is public, identity attaches when a token is sent
		r.With(auth.Optional(jwtSvc)).Get("/", needRead.List)
		r.With(auth.Optional(jwtSvc)).Get("/live", live.Serve)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(jwtSvc))

			r.Post("/", needH.Create)
			r.Post("/{id}/accept", needH.Accept)
			r.Post("/{id}/resolve", needH.Resolve)
			r.Post("/{id}/toggle", needH.ToggleOpen)
			r.Delete("/{id}", needH.Delete)
		})
	})

	return r
}
