package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/EduplannerDev/Eduplanner-sub004/internal/config"
	dbRedis "github.com/EduplannerDev/Eduplanner-sub004/internal/db/redis"
	"github.com/EduplannerDev/Eduplanner-sub004/internal/domain"
	"github.com/EduplannerDev/Eduplanner-sub004/internal/domain/corpus"
	logpkg "github.com/EduplannerDev/Eduplanner-sub004/internal/logger"
	"github.com/EduplannerDev/Eduplanner-sub004/internal/metrics"
	"github.com/EduplannerDev/Eduplanner-sub004/internal/repository/embcache"
	"github.com/EduplannerDev/Eduplanner-sub004/internal/repository/fragments"
	chiTransport "github.com/EduplannerDev/Eduplanner-sub004/internal/transport/chi"
	openaiTransport "github.com/EduplannerDev/Eduplanner-sub004/internal/transport/openai"
	healthuc "github.com/EduplannerDev/Eduplanner-sub004/internal/usecase/health"
	rerankuc "github.com/EduplannerDev/Eduplanner-sub004/internal/usecase/rerank"
	retrievaluc "github.com/EduplannerDev/Eduplanner-sub004/internal/usecase/retrieval"
	"github.com/EduplannerDev/Eduplanner-sub004/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting ragd API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create vector store", zap.Error(err))
	}
	defer store.Close()

	// Wait for the vector store to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Vector store not ready", zap.Error(err))
	}
	logger.Info("Connected to vector store")

	// Register retrieval metrics explicitly (no init())
	metrics.RegisterRetrievalMetrics()

	embedder, baseEmbedder := buildEmbedder(&cfg, store, logger)
	logger.Info("Query embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	generator := openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
		APIKey:      cfg.Generation.APIKey,
		BaseURL:     cfg.Generation.BaseURL,
		Model:       cfg.Generation.Model,
		Temperature: cfg.Generation.Temperature,
		Logger:      logger,
	})

	corpora := make(map[string]corpus.Corpus, len(cfg.Corpora))
	for name, cc := range cfg.Corpora {
		c, err := corpus.New(name, cc.Index, cc.Threshold, cc.Limit)
		if err != nil {
			logger.Fatal("Invalid corpus config", zap.String("corpus", name), zap.Error(err))
		}
		corpora[name] = c
	}
	logger.Info("Corpora configured", zap.Int("count", len(corpora)))

	matcher := fragments.NewRepository(store, logger)

	retrievalSvc := retrievaluc.New(embedder, matcher, corpora, retrievaluc.Options{
		MaxSources:      cfg.Retrieval.MaxSources,
		SnippetMaxChars: cfg.Retrieval.SnippetMaxChars,
		EmbedTimeout:    time.Duration(cfg.Retrieval.EmbedTimeoutSec) * time.Second,
		MatchTimeout:    time.Duration(cfg.Retrieval.MatchTimeoutSec) * time.Second,
	})

	rerankSvc := rerankuc.New(generator, rerankuc.Options{
		MaxCandidates: cfg.Rerank.MaxCandidates,
		Timeout:       time.Duration(cfg.Generation.TimeoutSec) * time.Second,
	})

	healthSvc := healthuc.New(store, baseEmbedder)

	server := chiTransport.NewServer(retrievalSvc, rerankSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instruction.
// The base provider is returned separately for health checks.
func buildEmbedder(cfg *config.Config, store *dbRedis.Store, logger *zap.Logger) (domain.Embedder, *openaiTransport.Embedder) {
	base := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	ttl := time.Duration(cfg.Embedding.CacheTTLHours) * time.Hour
	var embedder domain.Embedder = embcache.NewEmbedder(base, store, cfg.Embedding.Model, ttl, logger)

	// Instruction prefix (outermost, so the cache key includes the instruction)
	if cfg.Embedding.QueryInstruction != "" {
		return domain.NewInstructionEmbedder(embedder, cfg.Embedding.QueryInstruction), base
	}
	return embedder, base
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
