package admin

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sagarc03/webroot"
)

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" validate:"min=0"`
}

// Pinger reports whether a dependency is healthy.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HandlerConfig struct {
	CORS CORSConfig
	// Repo serves /access. Nil means the access log is disabled.
	Repo webroot.AccessRepo
	// Checks are run by /healthz, keyed by name.
	Checks map[string]Pinger
}

// Handler serves the read-only admin API.
type Handler struct {
	config HandlerConfig
}

func NewHandler(config HandlerConfig) *Handler {
	return &Handler{config: config}
}

// Router returns the admin routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Get("/healthz", h.handleHealth)
	r.Get("/access", h.handleAccess)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusNotFound, "not_found", "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	})

	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	code := http.StatusOK

	if len(h.config.Checks) > 0 {
		resp.Checks = make(map[string]string, len(h.config.Checks))
	}
	for name, check := range h.config.Checks {
		if err := check.Ping(r.Context()); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	_ = WriteJSON(w, code, resp)
}

func (h *Handler) handleAccess(w http.ResponseWriter, r *http.Request) {
	if h.config.Repo == nil {
		WriteError(w, http.StatusNotFound, "access_log_disabled", "Access log is not enabled")
		return
	}

	params := r.URL.Query()

	var limit int
	if s := params.Get("limit"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed < 1 {
			HandleError(w, fmt.Errorf("%w: limit must be a positive integer", webroot.ErrInvalidInput))
			return
		}
		limit = parsed
	}

	var status webroot.StatusCode
	if s := params.Get("status"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed < 100 || parsed > 599 {
			HandleError(w, fmt.Errorf("%w: status must be a 3-digit code", webroot.ErrInvalidInput))
			return
		}
		status = webroot.StatusCode(parsed)
	}

	result, err := h.config.Repo.List(r.Context(), webroot.AccessQuery{
		ResourcePrefix: params.Get("prefix"),
		Status:         status,
		Limit:          webroot.AccessQuery{Limit: limit}.PageSize(),
		Cursor:         params.Get("cursor"),
	})
	if err != nil {
		HandleError(w, err)
		return
	}

	if result.Items == nil {
		result.Items = []webroot.Exchange{}
	}
	_ = WriteJSON(w, http.StatusOK, result)
}
