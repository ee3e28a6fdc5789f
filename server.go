package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/LexiconIndonesia/jobscout-service/common/config"
	"github.com/LexiconIndonesia/jobscout-service/common/db"
	"github.com/LexiconIndonesia/jobscout-service/common/messaging"
	"github.com/LexiconIndonesia/jobscout-service/common/work"
	"github.com/LexiconIndonesia/jobscout-service/configstore"
	"github.com/LexiconIndonesia/jobscout-service/handler"
	"github.com/LexiconIndonesia/jobscout-service/middlewares"
)

type AppHttpServer struct {
	router     *chi.Mux
	cfg        config.Config
	server     *http.Server
	db         *db.DB
	natsClient *messaging.NatsBroker
	store      *configstore.Store
	tracker    *work.RunTracker
}

func NewAppHttpServer(cfg config.Config) (*AppHttpServer, error) {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-KEY"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))

	server := &AppHttpServer{
		router: r,
		cfg:    cfg,
	}
	return server, nil
}

// SetDB sets the database dependency
func (s *AppHttpServer) SetDB(database *db.DB) {
	s.db = database
}

// SetNatsClient sets the NATS client dependency
func (s *AppHttpServer) SetNatsClient(client *messaging.NatsBroker) {
	s.natsClient = client
}

// SetConfigStore sets the selector config store dependency
func (s *AppHttpServer) SetConfigStore(store *configstore.Store) {
	s.store = store
}

// SetRunTracker sets the run tracker dependency
func (s *AppHttpServer) SetRunTracker(tracker *work.RunTracker) {
	s.tracker = tracker
}

func (s *AppHttpServer) setupRoute() {
	r := s.router

	if s.natsClient == nil {
		log.Warn().Msg("NATS client dependency not set")
	}

	// Public health endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","service":"jobscout-service"}`))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(middlewares.ApiKey(s.cfg.Security.BackendApiKey))

		scoutHandler := handler.NewScoutHandler(s.natsClient)
		scrapeHandler := handler.NewScrapeHandler(s.natsClient)
		batchHandler := handler.NewBatchHandler(s.natsClient)
		configHandler := handler.NewConfigHandler(s.store)
		runHandler := handler.NewRunHandler(s.tracker)
		healthHandler := handler.NewHealthHandler(s.db)

		r.Mount("/scout", scoutHandler.Router())
		r.Mount("/scrape", scrapeHandler.Router())
		r.Mount("/batch", batchHandler.Router())
		r.Mount("/configs", configHandler.Router())
		r.Mount("/runs", runHandler.Router())
		r.Mount("/health", healthHandler.Router())
	})
}

func (s *AppHttpServer) start() error {
	r := s.router
	cfg := s.cfg
	log.Info().Msg("Starting up server...")

	s.server = &http.Server{
		Addr:         cfg.Listen.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// stop gracefully shuts down the server
func (s *AppHttpServer) stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
