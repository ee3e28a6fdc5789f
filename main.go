package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/LexiconIndonesia/jobscout-service/common/ai"
	"github.com/LexiconIndonesia/jobscout-service/common/browser"
	"github.com/LexiconIndonesia/jobscout-service/common/config"
	"github.com/LexiconIndonesia/jobscout-service/common/db"
	"github.com/LexiconIndonesia/jobscout-service/common/logger"
	"github.com/LexiconIndonesia/jobscout-service/common/messaging"
	"github.com/LexiconIndonesia/jobscout-service/common/redis"
	"github.com/LexiconIndonesia/jobscout-service/common/storage"
	"github.com/LexiconIndonesia/jobscout-service/common/work"
	"github.com/LexiconIndonesia/jobscout-service/configstore"
	"github.com/LexiconIndonesia/jobscout-service/extractor"
	"github.com/LexiconIndonesia/jobscout-service/orchestrator"
	"github.com/LexiconIndonesia/jobscout-service/scout"
	"github.com/LexiconIndonesia/jobscout-service/sink"
)

func main() {
	// INITIATE CONFIGURATION
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("Error loading .env file, using environment variables")
	}

	cfg := config.DefaultConfig()
	cfg.LoadFromEnv()

	logger.SetupLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// INITIATE SELECTOR CONFIG STORE
	store, err := configstore.New(cfg.Scraper.ConfigPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load selector config store")
	}

	// INITIATE REDIS
	redisClient, err := redis.NewClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	tracker := work.NewRunTracker(redisClient)

	// INITIATE DATABASE (optional, only for the Postgres sink)
	var dbConn *db.DB
	if cfg.PgSql.Enabled {
		dbConn, err = db.SetupDatabase(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to setup database")
		}
		defer dbConn.Close()
	}

	// INITIATE NATS CLIENT
	natsClient, err := messaging.NewNatsBroker(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to setup NATS client")
	}
	defer natsClient.Close()

	// INITIATE MARKUP ARCHIVE (optional)
	var archive storage.StorageService
	if cfg.GCS.Bucket != "" {
		archive, err = storage.NewGCSStorage(ctx, cfg.GCS)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to setup GCS storage")
		}
	}

	// INITIATE AI CLIENT AND BROWSER
	aiClient, err := ai.NewGeminiClient(cfg.AI)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create AI client")
	}

	rodBrowser, err := browser.NewRodBrowser(cfg.Scraper)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to launch browser")
	}
	defer rodBrowser.Close()

	// WIRE THE PIPELINE
	siteScout := scout.New(aiClient, rodBrowser, cfg, archive)
	siteExtractor := extractor.New(rodBrowser, cfg.Scraper)

	sinkFactory := func() sink.Sink {
		sinks := []sink.Sink{
			sink.NewCSVSink(cfg.Scraper.ResultsDir),
			sink.NewJSONSink(cfg.Scraper.DataDir),
		}
		if dbConn != nil {
			sinks = append(sinks, sink.NewPostgresSink(dbConn))
		}
		return sink.NewMultiSink(sinks...)
	}

	orch := orchestrator.New(store, siteScout, siteExtractor, sinkFactory, tracker, cfg.Scraper)

	runner := orchestrator.NewRunner(orch, natsClient, cfg.Scraper.CompaniesPath)
	if err := runner.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start orchestrator runner")
	}
	defer runner.Stop()

	// INITIATE SERVER
	server, err := NewAppHttpServer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create the server")
	}

	server.SetDB(dbConn)
	server.SetNatsClient(natsClient)
	server.SetConfigStore(store)
	server.SetRunTracker(tracker)

	server.setupRoute()

	go func() {
		if err := server.start(); err != nil {
			log.Error().Err(err).Msg("Server error")
			cancel()
		}
	}()

	log.Info().Str("address", cfg.Listen.Addr()).Msg("Server started successfully")

	// Wait for shutdown signal
	<-shutdown
	log.Info().Msg("Shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Server gracefully stopped")
}
