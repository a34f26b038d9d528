// Package api exposes the BotBoard admin API over HTTP using gin. It is a
// thin adapter: request decoding and status codes live here, behavior
// lives in the bot and database packages.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edgard/botboard/internal/bot"
	"github.com/edgard/botboard/internal/config"
	"github.com/edgard/botboard/internal/database"
)

// Server holds the dependencies shared by all handlers.
type Server struct {
	logger *slog.Logger
	cfg    *config.Config
	store  database.Store
	bot    *bot.Service
}

// NewRouter builds the gin engine with every admin route registered.
func NewRouter(log *slog.Logger, cfg *config.Config, store database.Store, svc *bot.Service) *gin.Engine {
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		logger: log.With("component", "api"),
		cfg:    cfg,
		store:  store,
		bot:    svc,
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/healthz", s.health)

	api := router.Group("/api/bot")
	{
		api.GET("/auto-replies", s.listAutoReplies)
		api.POST("/auto-replies", s.createAutoReply)
		api.PUT("/auto-replies", s.updateAutoReply)
		api.DELETE("/auto-replies/:id", s.deleteAutoReply)

		api.POST("/broadcast", s.broadcast)

		api.GET("/channels", s.listChannels)
		api.POST("/channels", s.addChannel)
		api.PUT("/channels", s.updateChannel)
		api.DELETE("/channels/:id", s.deleteChannel)
		api.POST("/channels/post", s.postToChannel)

		api.GET("/scheduled-posts", s.listScheduledPosts)
		api.POST("/scheduled-posts", s.createScheduledPost)
		api.DELETE("/scheduled-posts/:id", s.deleteScheduledPost)

		api.GET("/settings", s.getSettings)
		api.POST("/settings", s.updateSettings)

		api.GET("/users", s.listUsers)
		api.GET("/messages", s.listMessages)
		api.GET("/stats", s.stats)

		api.POST("/toggle", s.toggle)

		api.GET("/webhook", s.webhookProbe)
		api.POST("/webhook", s.webhook)
	}

	return router
}

// requestLogger logs one line per handled request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("Request handled",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *Server) health(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// badRequest and serverError keep the error envelope uniform.
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func serverError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
