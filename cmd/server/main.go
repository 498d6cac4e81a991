package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"credcheck/config"
	"credcheck/db"
	"credcheck/internal/feedback"
	"credcheck/logger"
	"credcheck/services"

	"go.uber.org/zap"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Logging.Debug)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync()

	ctx := context.Background()
	deps := buildDependencies(ctx, cfg, zl)
	defer deps.close()

	router := setupRouter(cfg, deps)
	port := strconv.Itoa(cfg.Server.Port)
	zl.Info("Server starting", zap.String("port", port), zap.String("project", cfg.Server.ProjectName))

	if err := router.Run(":" + port); err != nil {
		zl.Fatal("Failed to start server", zap.Error(err))
	}
}

// buildDependencies connects every optional backend. A missing or failing
// backend is logged and left nil; the matching feature then degrades.
func buildDependencies(ctx context.Context, cfg *config.Config, zl *zap.Logger) *serverDeps {
	deps := &serverDeps{logger: zl}

	var llm services.LLM
	if cfg.Gemini.ApiKey == "" {
		zl.Warn("GOOGLE_API_KEY not set; fact-checking and image forensics are disabled")
	} else if client, err := services.NewGeminiClient(ctx, cfg.Gemini.ApiKey, cfg.Gemini.Model, cfg.LLMTimeout()); err != nil {
		zl.Error("Failed to initialize Gemini client", zap.Error(err))
	} else {
		llm = client
		zl.Info("Gemini client initialized", zap.String("model", cfg.Gemini.Model))
	}

	modelHTTP := &http.Client{Timeout: cfg.ModelTimeout()}
	var similarity services.SimilarityScorer
	if cfg.Models.SimilarityURL != "" {
		similarity = services.NewCLIPSimilarityClient(cfg.Models.SimilarityURL, cfg.Models.HFToken, modelHTTP)
	} else {
		zl.Warn("Similarity endpoint not configured; image-text coherence will report unprocessable images")
	}

	deps.pipeline = services.NewPipeline(services.Dependencies{
		LLM:              llm,
		Sentiment:        services.NewHFSentimentClient(cfg.Models.SentimentURL, cfg.Models.HFToken, modelHTTP),
		Similarity:       similarity,
		Fetcher:          services.NewHTTPImageFetcher(&http.Client{}, 0),
		FetchTimeout:     cfg.ImageFetchTimeout(),
		CoherenceTimeout: cfg.CoherenceTimeout(),
		Logger:           zl,
	})

	if cfg.Database.URI != "" {
		client, database, err := db.ConnectMongoDB(ctx, cfg.Database.URI)
		if err != nil {
			zl.Error("MongoDB unavailable; votes will not be persisted", zap.Error(err))
		} else {
			zl.Info("Connected to MongoDB", zap.String("database", database.Name()))
			deps.mongo = client
			deps.votes = db.NewVoteStore(database)
			indexCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			if err := deps.votes.EnsureIndexes(indexCtx); err != nil {
				zl.Warn("Failed to ensure vote indexes", zap.Error(err))
			}
			cancel()
		}
	}

	if cfg.Redis.Addr != "" {
		rdb, err := feedback.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			zl.Error("Redis unavailable; vote rate limiting disabled", zap.Error(err))
		} else {
			zl.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
			deps.redis = rdb
			deps.limiter = feedback.NewRateLimiter(rdb, cfg.Limits.VotesPerWindow, cfg.VoteWindow())
			deps.counter = feedback.NewVoteCounter(rdb)
		}
	}

	return deps
}
