package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sayu/sayu-backend/internal/cache"
	"github.com/sayu/sayu-backend/internal/config"
	"github.com/sayu/sayu-backend/internal/database"
	"github.com/sayu/sayu-backend/internal/event"
	"github.com/sayu/sayu-backend/internal/handler"
	"github.com/sayu/sayu-backend/internal/logger"
	"github.com/sayu/sayu-backend/internal/matching"
	"github.com/sayu/sayu-backend/internal/middleware"
	"github.com/sayu/sayu-backend/internal/quiz"
	"github.com/sayu/sayu-backend/internal/recommend"
	"github.com/sayu/sayu-backend/internal/repository"
	"github.com/sayu/sayu-backend/internal/router"
	"github.com/sayu/sayu-backend/internal/service"
	"github.com/sayu/sayu-backend/internal/validator"
	"github.com/sayu/sayu-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("bank_version", cfg.QuizBankVersion).
		Msg("Starting SAYU Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Load Question Banks & Compatibility Matrix ────────────────────
	catalog, err := quiz.LoadEmbedded()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load question banks")
	}
	if _, ok := catalog.Get(cfg.QuizBankVersion); !ok {
		log.Fatal().Str("bank_version", cfg.QuizBankVersion).Strs("available", catalog.Versions()).
			Msg("Configured question bank version not found")
	}
	matrix, err := matching.DefaultMatrix()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load compatibility matrix")
	}

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Event Broker ──────────────────────────────────────────────────
	events := newPublisher(cfg, rdb, log)
	defer events.Close()

	// ─── Recommendation Cache ──────────────────────────────────────────
	recCache, err := cache.New(cache.Config{
		Type:     cache.Type(cfg.RecommendationCache),
		TTL:      cfg.RecommendationCacheTTL,
		Capacity: cfg.RecommendationCacheCapacity,
	}, rdb)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create recommendation cache")
	}

	// ─── Initialize Repositories ───────────────────────────────────────
	sessionRepo := repository.NewQuizSessionRepository(rdb, cfg.QuizSessionTTL)
	profileRepo := repository.NewProfileRepository(pool)
	vectorRepo := repository.NewVectorRepository(pool, cfg.EmbeddingDim)
	historyRepo := repository.NewHistoryRepository(pool)
	matchRepo := repository.NewMatchRepository(pool)
	signalRepo := repository.NewSignalRepository(pool)
	preferenceRepo := repository.NewPreferenceRepository(rdb, log)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg)
	quizService := service.NewQuizService(
		quiz.NewEngine(catalog), cfg.QuizBankVersion,
		sessionRepo, profileRepo, vectorRepo, recCache, events, log,
	)
	profileService := service.NewProfileService(profileRepo)
	recommendationService := service.NewRecommendationService(
		profileRepo, vectorRepo, historyRepo,
		recommend.NewRanker(recommend.DefaultAdjustments),
		recCache, cfg.RecommendationCacheTTL, log,
	)
	matchService := service.NewMatchService(
		matching.NewEngine(matrix, preferenceRepo, cfg.MaxLearningAdjustment),
		matchRepo, signalRepo, preferenceRepo, events, cfg.MatchRequestTTL, log,
	)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Quiz:    handler.NewQuizHandler(quizService, log),
		Profile: handler.NewProfileHandler(profileService, recommendationService, log),
		Match:   handler.NewMatchHandler(matchService, log),
		WS:      handler.NewWSHandler(quizService, log, cfg.AllowedOrigins),
		System:  handler.NewSystemHandler(pool, rdb, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	archiveWorker := worker.NewQuizArchiveWorker(pool, rdb, log)
	lifecycleWorker := worker.NewMatchLifecycleWorker(matchService, cfg.MatchSweepInterval, log)

	workers.Add(2)
	go func() { defer workers.Done(); archiveWorker.Start(workerCtx) }()
	go func() { defer workers.Done(); lifecycleWorker.Start(workerCtx) }()

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)
	stopCleanup := make(chan struct{})
	go limiter.RunCleanup(stopCleanup)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, limiter, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	close(stopCleanup)

	// 2. Stop background workers and wait for the archive queue to flush.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// newPublisher picks the event broker. An unreachable AMQP broker degrades to
// logging so the API stays up.
func newPublisher(cfg *config.Config, rdb *redis.Client, log zerolog.Logger) event.Publisher {
	switch cfg.EventBroker {
	case "amqp":
		p, err := event.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, log)
		if err != nil {
			log.Error().Err(err).Msg("AMQP unavailable, events will only be logged")
			return event.NewLogPublisher(log)
		}
		return p
	case "redis":
		return event.NewRedisPublisher(rdb, log)
	default:
		log.Warn().Str("broker", cfg.EventBroker).Msg("No event broker configured, events will only be logged")
		return event.NewLogPublisher(log)
	}
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
