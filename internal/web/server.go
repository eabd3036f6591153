package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/resqbites/matcher/internal/maplayer"
	"github.com/resqbites/matcher/internal/store"
	"github.com/resqbites/matcher/internal/web/handlers"
	"github.com/resqbites/matcher/internal/web/middleware"
)

// Server represents the web server
type Server struct {
	config     *Config
	store      *store.Store
	registry   *maplayer.Registry
	httpServer *http.Server
	router     *mux.Router
	handler    http.Handler
}

// NewServer creates a new web server over an already loaded store
func NewServer(config *Config, st *store.Store) (*Server, error) {
	server := &Server{
		config: config,
		store:  st,
	}

	if err := server.setupRoutes(); err != nil {
		return nil, err
	}

	server.httpServer = &http.Server{
		Addr:         config.Addr(),
		Handler:      server.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() error {
	s.router = mux.NewRouter()

	// Convert config for handlers (to avoid import cycle)
	handlerConfig := &handlers.Config{}
	handlerConfig.Features.ExportEnabled = s.config.Features.ExportEnabled
	handlerConfig.Map.Style = s.config.Map.Style
	handlerConfig.Map.Zoom = s.config.Map.Zoom

	scenes := maplayer.NewSceneRenderer()
	s.registry = maplayer.NewRegistry(scenes, maplayer.Options{
		Style: s.config.Map.Style,
		Zoom:  s.config.Map.Zoom,
		Debug: s.config.Debug,
	})

	apiHandler := &handlers.APIHandler{Store: s.store}
	mapsHandler := &handlers.MapsHandler{Store: s.store, Registry: s.registry, Scenes: scenes}
	exportHandler := &handlers.ExportHandler{Store: s.store, Config: handlerConfig}
	pagesHandler, err := handlers.NewPagesHandler(s.store, handlerConfig)
	if err != nil {
		return err
	}

	s.router.HandleFunc("/health", apiHandler.Health).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	// Match data
	api.HandleFunc("/matches", apiHandler.ListMatches).Methods("GET")
	api.HandleFunc("/matches/geojson", mapsHandler.GetGeoJSON).Methods("GET")
	api.HandleFunc("/matches/{donor}/{recipient}", apiHandler.GetMatch).Methods("GET")
	api.HandleFunc("/stats", apiHandler.GetStats).Methods("GET")
	api.HandleFunc("/categories", apiHandler.ListCategories).Methods("GET")
	api.HandleFunc("/export", exportHandler.ExportCSV).Methods("GET")

	// Map sessions
	api.HandleFunc("/map/sessions", mapsHandler.CreateSession).Methods("POST")
	api.HandleFunc("/map/sessions/{container}", mapsHandler.GetSession).Methods("GET")
	api.HandleFunc("/map/sessions/{container}", mapsHandler.DeleteSession).Methods("DELETE")
	api.HandleFunc("/map/sessions/{container}/load", mapsHandler.LoadSession).Methods("POST")

	// Pages
	s.router.HandleFunc("/", pagesHandler.Home).Methods("GET")
	s.router.HandleFunc("/dashboard", pagesHandler.Dashboard).Methods("GET")
	s.router.HandleFunc("/map", pagesHandler.Map).Methods("GET")

	s.router.Use(middleware.RequestLogging())

	// CORS wraps the router so preflight requests never reach route matching
	s.handler = middleware.CORS(s.config.CORS.Origins)(s.router)

	return nil
}

// Handler exposes the routed handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until SIGINT or SIGTERM, then drains connections and tears
// down every mounted map
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is cancelled or the listener fails
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("Starting server on http://%s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		if err := s.registry.Close(); err != nil {
			log.Printf("Map teardown error: %v", err)
		}
		return nil
	})

	err := g.Wait()
	log.Println("Server stopped")
	return err
}
