package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/inkwell/pkg/auth"
	"github.com/platinummonkey/inkwell/pkg/httputil"
	"github.com/platinummonkey/inkwell/pkg/middleware"
	"github.com/platinummonkey/inkwell/pkg/observability"
	"github.com/platinummonkey/inkwell/pkg/storage"
	"github.com/platinummonkey/inkwell/pkg/storage/objstore"
)

// ServerConfig holds the non-dependency knobs of the API server.
type ServerConfig struct {
	// MaxRequestBytes caps request body size; uploads are the largest bodies.
	MaxRequestBytes int64
}

// Server represents the API server.
type Server struct {
	cfg      ServerConfig
	store    storage.Store
	objects  *objstore.Client
	sessions *auth.Manager
	gate     *middleware.Gate
	rewriter *middleware.Rewriter
	metrics  *observability.Metrics
	logger   *observability.Logger
	router   *mux.Router
}

// NewServer creates the API server and registers all routes. The objects
// client may be nil when no object storage is configured; file routes then
// report 503.
func NewServer(cfg ServerConfig, store storage.Store, objects *objstore.Client, sessions *auth.Manager, rewriter *middleware.Rewriter, metrics *observability.Metrics, logger *observability.Logger) *Server {
	if cfg.MaxRequestBytes <= 0 {
		cfg.MaxRequestBytes = 32 << 20
	}

	s := &Server{
		cfg:      cfg,
		store:    store,
		objects:  objects,
		sessions: sessions,
		gate:     middleware.NewGate(sessions, logger),
		rewriter: rewriter,
		metrics:  metrics,
		logger:   logger,
		router:   mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all the API routes.
func (s *Server) setupRoutes() {
	// Session routes
	s.router.HandleFunc("/api/auth/login", s.login).Methods("POST")
	s.router.HandleFunc("/api/auth/logout", s.logout).Methods("POST")
	s.router.HandleFunc("/api/auth/register", s.register).Methods("POST")
	s.router.HandleFunc("/api/auth/session", s.session).Methods("GET")

	// Article routes
	s.router.HandleFunc("/api/articles", s.createArticle).Methods("POST")
	s.router.HandleFunc("/api/articles", s.listArticles).Methods("GET")
	s.router.HandleFunc("/api/articles/search", s.searchArticles).Methods("GET")
	s.router.HandleFunc("/api/articles/slug/{slug}", s.resolveSlug).Methods("GET")
	s.router.HandleFunc("/api/articles/{id:[0-9]+}", s.getArticle).Methods("GET")
	s.router.HandleFunc("/api/articles/{id:[0-9]+}", s.updateArticle).Methods("PUT")
	s.router.HandleFunc("/api/articles/{id:[0-9]+}", s.deleteArticle).Methods("DELETE")

	// The canonical paths the rewriter targets resolve to the same reads.
	s.router.HandleFunc("/articles", s.listArticles).Methods("GET")
	s.router.HandleFunc("/articles/{id:[0-9]+}", s.getArticle).Methods("GET")

	// Rendered code fields
	s.router.HandleFunc("/api/code/{id:[0-9]+}", s.renderCodeField).Methods("GET")

	// Tag routes
	s.router.HandleFunc("/api/tags", s.listTags).Methods("GET")

	// Settings routes
	s.router.HandleFunc("/api/settings", s.listSettings).Methods("GET")
	s.router.HandleFunc("/api/settings", s.createSetting).Methods("POST")
	s.router.HandleFunc("/api/settings/{key}", s.getSetting).Methods("GET")
	s.router.HandleFunc("/api/settings/{key}", s.updateSetting).Methods("PUT")
	s.router.HandleFunc("/api/settings/{key}", s.deleteSetting).Methods("DELETE")

	// User routes
	s.router.HandleFunc("/api/users", s.listUsers).Methods("GET")
	s.router.HandleFunc("/api/users", s.createUser).Methods("POST")
	s.router.HandleFunc("/api/users/{id:[0-9]+}", s.getUser).Methods("GET")
	s.router.HandleFunc("/api/users/{id:[0-9]+}", s.updateUser).Methods("PUT")
	s.router.HandleFunc("/api/users/{id:[0-9]+}", s.deleteUser).Methods("DELETE")

	// Menu tab routes
	s.router.HandleFunc("/api/menutabs", s.listMenuTabs).Methods("GET")
	s.router.HandleFunc("/api/menutabs", s.createMenuTab).Methods("POST")
	s.router.HandleFunc("/api/menutabs/{id:[0-9]+}", s.updateMenuTab).Methods("PUT")
	s.router.HandleFunc("/api/menutabs/{id:[0-9]+}", s.deleteMenuTab).Methods("DELETE")

	// File routes
	s.router.HandleFunc("/api/files", s.uploadFile).Methods("POST")
	s.router.HandleFunc("/api/files", s.deleteFiles).Methods("DELETE")
	s.router.HandleFunc("/api/files/{name}", s.getFile).Methods("GET")

	s.router.HandleFunc("/healthz", s.healthz).Methods("GET")
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	}
}

// Handler returns the full middleware-wrapped handler. The gate runs before
// the rewriter so slug resolution sees the caller's identity.
func (s *Server) Handler() http.Handler {
	chain := []func(http.Handler) http.Handler{
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(s.logger),
		httputil.RecoveryMiddleware(s.logger),
	}
	if s.metrics != nil {
		chain = append(chain, s.metrics.HTTPMiddleware(s.routeTemplate))
	}
	chain = append(chain,
		httputil.MaxBytesMiddleware(s.cfg.MaxRequestBytes),
		s.gate.Handler,
		s.rewriter.Handler,
	)
	return httputil.Chain(chain...)(s.router)
}

// ServeHTTP implements http.Handler without the middleware chain, which is
// what handler tests exercise.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routeTemplate maps a request to its mux route template for metric labels.
func (s *Server) routeTemplate(r *http.Request) string {
	var match mux.RouteMatch
	if s.router.Match(r, &match) && match.Route != nil {
		if tmpl, err := match.Route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return ""
}

// healthz reports database and object storage health.
func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}

	if err := s.store.HealthCheck(r.Context()); err != nil {
		s.logger.WithError(err).Error("database health check failed")
		status["status"] = "degraded"
		status["database"] = err.Error()
	}
	if s.objects != nil {
		if err := s.objects.HealthCheck(r.Context()); err != nil {
			s.logger.WithError(err).Error("object storage health check failed")
			status["status"] = "degraded"
			status["object_storage"] = err.Error()
		}
	}

	code := http.StatusOK
	if status["status"] != "ok" {
		code = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, code, status)
}
