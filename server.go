package busalerts

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/theoremus-urban-solutions/bus-proximity-alerts/config"
	"github.com/theoremus-urban-solutions/bus-proximity-alerts/feed"
	"github.com/theoremus-urban-solutions/bus-proximity-alerts/internal/metrics"
	"github.com/theoremus-urban-solutions/bus-proximity-alerts/store"
)

// Server wires the HTTP endpoints to the snapshot cache and the alert
// store. It does not own the matcher; the scheduler drives that
// independently of web traffic.
type Server struct {
	cfg      config.AppConfig
	cache    *feed.SnapshotCache
	alerts   *store.AlertStore
	loc      *time.Location
	validate *validator.Validate
	log      *slog.Logger

	httpSrv *http.Server
}

// NewServer builds a server over the given collaborators.
func NewServer(cfg config.AppConfig, cache *feed.SnapshotCache, alerts *store.AlertStore, loc *time.Location, log *slog.Logger) *Server {
	return &Server{
		cfg:      cfg,
		cache:    cache,
		alerts:   alerts,
		loc:      loc,
		validate: validator.New(),
		log:      log,
	}
}

// Router assembles the route table. Split out from Start so tests can
// drive the handlers through httptest without opening a port.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", s.handleRoot).Methods("GET")
	r.HandleFunc("/api/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/api/v1/positions/{route}", s.handlePositionsByRoute).Methods("GET")
	r.HandleFunc("/api/v1/alerts", s.handleCreateAlert).Methods("POST")
	r.HandleFunc("/api/v1/alerts", s.handleListAlerts).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	origins := s.cfg.Server.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	return cors(handlers.LoggingHandler(os.Stdout, r))
}

// Start launches the listener in the background and returns immediately.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("server error", slog.Any("err", err))
			os.Exit(1)
		}
	}()
	s.log.Info("server listening", slog.String("addr", addr))
}

// WaitForShutdown blocks until SIGINT or SIGTERM, then drains in-flight
// requests with a deadline.
func (s *Server) WaitForShutdown() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	s.log.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			s.log.Error("server shutdown error", slog.Any("err", err))
			return
		}
	}
	s.log.Info("server shut down")
}

type rootResponse struct {
	Service string `json:"service"`
	Status  string `json:"status"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rootResponse{Service: "bus-proximity-alerts", Status: "running"})
}
