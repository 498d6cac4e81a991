package main

import (
	"context"
	"net/http"

	"credcheck/config"
	"credcheck/controllers"
	"credcheck/db"
	"credcheck/internal/feedback"
	"credcheck/middlewares"
	"credcheck/routes"
	"credcheck/services"
	"credcheck/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type serverDeps struct {
	pipeline *services.Pipeline
	votes    *db.VoteStore
	limiter  *feedback.RateLimiter
	counter  *feedback.VoteCounter
	mongo    *mongo.Client
	redis    *redis.Client
	logger   *zap.Logger
}

func (d *serverDeps) close() {
	if d.mongo != nil {
		_ = d.mongo.Disconnect(context.Background())
	}
	if d.redis != nil {
		_ = d.redis.Close()
	}
}

// feedbackController passes only the configured collaborators, so that a
// missing backend reaches the controller as a nil interface.
func (d *serverDeps) feedbackController() *controllers.FeedbackController {
	var (
		repo    controllers.VoteRepository
		limiter controllers.VoteLimiter
		counter controllers.VoteCounter
	)
	if d.votes != nil {
		repo = d.votes
	}
	if d.limiter != nil {
		limiter = d.limiter
	}
	if d.counter != nil {
		counter = d.counter
	}
	return controllers.NewFeedbackController(repo, limiter, counter, d.logger.Named("feedback"))
}

func setupRouter(cfg *config.Config, deps *serverDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middlewares.RequestID(), middlewares.ZapLogger(deps.logger.Named("http")))

	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		deps.logger.Warn("Invalid trusted proxies", zap.Error(err))
	}

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middlewares.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middlewares.RequestIDHeader},
	}
	if len(cfg.CORS.AllowOrigins) == 1 && cfg.CORS.AllowOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORS.AllowOrigins
		corsConfig.AllowCredentials = true
	}
	router.Use(cors.New(corsConfig))
	router.OPTIONS("/*path", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	router.GET("/", controllers.Health(cfg.Server.ProjectName))

	api := router.Group(cfg.Server.APIPrefix)
	{
		analysis := controllers.NewAnalysisController(deps.pipeline, cfg.Limits.MaxUploadBytes, deps.logger.Named("analysis"))
		stream := websocket.AnalysisStreamHandler(deps.pipeline, cfg.Limits.MaxUploadBytes, deps.logger.Named("stream"))
		routes.SetupAnalysisRoutes(api, analysis, stream)
		routes.SetupFeedbackRoutes(api, deps.feedbackController())
	}

	return router
}
