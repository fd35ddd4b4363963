// Package httpapi is the HTTP surface: routing, authentication middleware
// and the permission guards that are the authoritative access control for
// the platform. Client-side route gating mirrors these decisions for UX
// only and is never a security boundary.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"soscancer.org/internal/auth"
	"soscancer.org/internal/obs"
	"soscancer.org/internal/rbac"
	"soscancer.org/internal/user"
)

// ReadyProbe checks downstream readiness, e.g. a database ping.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Config tunes the outer middleware chain.
type Config struct {
	Version       string
	RateBurst     int
	RatePerSecond int
}

// API wires handlers, guards and middleware into one http.Handler.
type API struct {
	auth       *auth.Service
	users      user.Repository
	readyProbe ReadyProbe
	cfg        Config
	router     chi.Router
}

// New assembles the router. Login, register, refresh and the probes are
// public; everything else sits behind bearer authentication.
func New(authSvc *auth.Service, users user.Repository, probe ReadyProbe, cfg Config) *API {
	a := &API{
		auth:       authSvc,
		users:      users,
		readyProbe: probe,
		cfg:        cfg,
	}

	r := chi.NewRouter()

	r.Get("/healthz", a.handleHealthz)
	r.Get("/readyz", a.handleReady)
	r.Get("/v1/info", a.handleInfo)
	r.Method(http.MethodGet, "/metrics", obs.Handler())

	r.Route("/v1/auth", func(r chi.Router) {
		r.Post("/login", a.handleLogin)
		r.Post("/register", a.handleRegister)
		r.Post("/refresh", a.handleRefresh)

		r.Group(func(r chi.Router) {
			r.Use(a.authenticate)
			r.Get("/profile", a.handleGetProfile)
			r.Patch("/profile", a.handleUpdateProfile)
		})
	})

	r.Route("/v1/users", func(r chi.Router) {
		r.Use(a.authenticate)
		r.With(a.requirePermissions(rbac.PermViewUsers)).Get("/", a.handleListUsers)
		r.With(a.requirePermissions(rbac.PermCreateUsers)).Post("/", a.handleCreateUser)
		r.With(a.requirePermissions(rbac.PermViewUsers)).Get("/{id}", a.handleGetUser)
		r.With(a.requirePermissions(rbac.PermUpdateUsers)).Patch("/{id}", a.handleUpdateUser)
		r.With(a.requirePermissions(rbac.PermDeleteUsers)).Delete("/{id}", a.handleRemoveUser)
		// Self-service is allowed here; the handler checks ownership.
		r.Post("/{id}/change-password", a.handleChangePassword)
	})

	r.Route("/v1/permissions", func(r chi.Router) {
		r.Use(a.authenticate)
		r.Get("/", a.handleOwnPermissions)
		r.Get("/check/{permission}", a.handleCheckPermission)
		r.Get("/routes", a.handleAccessibleRoutes)
		r.Get("/catalog", a.handlePermissionCatalog)
	})

	r.Route("/v1/agenda", func(r chi.Router) {
		r.Use(a.authenticate)
		r.With(a.requirePermissions(rbac.PermViewAgenda)).Get("/", a.handleAgenda)
		r.With(a.requirePermissions(rbac.PermCreateEvents)).Post("/events", a.handleCreateEvent)
		r.With(a.requirePermissions(rbac.PermViewAgenda)).Get("/events/{id}", a.handleGetEvent)
	})

	a.router = r
	return a
}

// Handler returns the fully wrapped handler for the server.
func (a *API) Handler() http.Handler {
	burst := a.cfg.RateBurst
	perSecond := a.cfg.RatePerSecond
	if burst <= 0 {
		burst = 20
	}
	if perSecond <= 0 {
		perSecond = 10
	}

	var h http.Handler = a.router
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, burst, perSecond)
	h = LoggingJSON(h)
	h = SecurityHeaders(h)
	h = CORS(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "soscancer-api",
		"version": a.cfg.Version,
	})
}

func (a *API) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (a *API) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "soscancer-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.cfg.Version,
	})
}
