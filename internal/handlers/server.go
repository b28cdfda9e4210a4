package handlers

import (
	"context"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"time"

	"flicks/internal/config"
	"flicks/internal/core"
	"flicks/internal/state"
	"flicks/internal/utils"
	"flicks/web"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"
)

type Server struct {
	config       *config.Config
	manager      *core.Manager
	sessions     *state.Store
	logger       *utils.Logger
	trusted      []*net.IPNet
	httpServer   *http.Server
	apiHandler   *APIHandler
	pageHandler  *PageHandler
	proxyHandler *ProxyHandler
}

func NewServer(cfg *config.Config, manager *core.Manager, sessions *state.Store, logger *utils.Logger) (*Server, error) {
	controller := state.NewController(manager, logger.Named("state"))

	pages, err := NewPageHandler(controller, logger.Named("pages"))
	if err != nil {
		return nil, err
	}

	trusted, err := utils.ParseTrustedProxies(cfg.Proxy.TrustedProxies)
	if err != nil {
		return nil, err
	}
	limiter := NewIPRateLimiter(rate.Limit(cfg.Proxy.RatePerSecond), cfg.Proxy.Burst)

	return &Server{
		config:       cfg,
		manager:      manager,
		sessions:     sessions,
		logger:       logger,
		trusted:      trusted,
		apiHandler:   NewAPIHandler(manager, controller, sessions, logger.Named("api")),
		pageHandler:  pages,
		proxyHandler: NewProxyHandler(manager.Config, limiter, trusted, manager.InternalToken(), logger.Named("proxy")),
	}, nil
}

// Router builds the full route table.
func (s *Server) Router() http.Handler {
	router := mux.NewRouter()
	router.Use(s.loggingMiddleware)

	router.HandleFunc("/health", s.health).Methods("GET")

	// Same-origin provider proxy, used by production mode
	router.HandleFunc("/api/omdb/", s.proxyHandler.OMDb).Methods("GET")
	router.HandleFunc("/api/youtube/search", s.proxyHandler.YouTube).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(s.sessionMiddleware)

	api.HandleFunc("/state", s.apiHandler.GetState).Methods("GET")
	api.HandleFunc("/genres", s.apiHandler.GetGenres).Methods("GET")
	api.HandleFunc("/genre", s.apiHandler.SelectGenre).Methods("POST")
	api.HandleFunc("/search", s.apiHandler.Search).Methods("GET")
	api.HandleFunc("/search", s.apiHandler.ClearSearch).Methods("DELETE")
	api.HandleFunc("/movies/selected", s.apiHandler.CloseMovie).Methods("DELETE")
	api.HandleFunc("/movies/{id}", s.apiHandler.GetMovie).Methods("GET")
	api.HandleFunc("/favorites", s.apiHandler.GetFavorites).Methods("GET")
	api.HandleFunc("/favorites/{id}", s.apiHandler.ToggleFavorite).Methods("POST")
	api.HandleFunc("/status", s.apiHandler.GetSystemStatus).Methods("GET")
	api.HandleFunc("/notifications/test", s.apiHandler.TestNotifier).Methods("POST")
	api.HandleFunc("/ws", s.apiHandler.StreamState).Methods("GET")

	static, _ := fs.Sub(web.Files, "static")
	router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	// Pages
	pages := router.PathPrefix("/").Subrouter()
	pages.Use(s.sessionMiddleware)

	pages.HandleFunc("/", s.pageHandler.Home).Methods("GET")
	pages.HandleFunc("/favorites", s.pageHandler.Favorites).Methods("GET")
	pages.HandleFunc("/genre", s.pageHandler.SelectGenre).Methods("POST")
	pages.HandleFunc("/search", s.pageHandler.Search).Methods("GET")
	pages.HandleFunc("/search/clear", s.pageHandler.ClearSearch).Methods("POST")
	pages.HandleFunc("/movies/close", s.pageHandler.CloseMovie).Methods("POST")
	pages.HandleFunc("/movies/{id}", s.pageHandler.OpenMovie).Methods("GET")
	pages.HandleFunc("/favorites/{id}/toggle", s.pageHandler.ToggleFavorite).Methods("POST")

	return router
}

// PruneIdle drops idle sessions and proxy limiters; run from the scheduler.
func (s *Server) PruneIdle() {
	now := time.Now()
	removed := s.sessions.Prune(now)
	s.proxyHandler.limiter.Prune(now)
	if removed > 0 {
		s.logger.Info("Pruned idle sessions", "removed", removed, "remaining", s.sessions.Len())
	}
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf(":%d", s.config.App.Port),
		Handler:     s.Router(),
		ReadTimeout: 15 * time.Second,
		// Page actions wait on provider fan-out.
		WriteTimeout: 60 * time.Second,
	}

	s.logger.Info("Starting server", "port", s.config.App.Port, "mode", s.config.App.Mode)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
