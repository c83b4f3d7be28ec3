// Package server exposes the relationship graph over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/weavehq/weave/internal/application/handlers"
	"github.com/weavehq/weave/internal/domain/entities"
	"github.com/weavehq/weave/internal/infrastructure/config"
	"github.com/weavehq/weave/internal/infrastructure/events"
)

// Server wires the application handlers into a gin router.
type Server struct {
	relationships *handlers.RelationshipHandler
	entities      *handlers.EntityHandler
	broadcaster   *events.Broadcaster
	log           *zap.Logger
	cfg           config.ServerConfig
	writeLimiter  *rate.Limiter
}

// New creates a Server. The broadcaster may be nil to disable the event
// stream endpoint.
func New(
	cfg config.ServerConfig,
	relationships *handlers.RelationshipHandler,
	entityHandler *handlers.EntityHandler,
	broadcaster *events.Broadcaster,
	log *zap.Logger,
) *Server {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.WriteRatePerSec > 0 {
		burst := cfg.WriteBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.WriteRatePerSec), burst)
	}

	return &Server{
		relationships: relationships,
		entities:      entityHandler,
		broadcaster:   broadcaster,
		log:           log,
		cfg:           cfg,
		writeLimiter:  limiter,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(s.requestLogger(), gin.Recovery())

	r.GET("/healthz", s.handleHealth)

	api := r.Group("/api/v1")
	{
		writes := api.Group("")
		writes.Use(s.rateLimit())
		writes.POST("/relationships", s.handleAddRelationship)
		writes.DELETE("/relationships/:id", s.handleRemoveRelationship)
		writes.POST("/suggestions/apply", s.handleApplySuggestion)
		writes.POST("/entities/:type", s.handleCreateEntity)

		api.GET("/relationships/:id", s.handleGetRelationship)
		api.GET("/relationships/count", s.handleCountRelationships)
		api.GET("/entities/:type", s.handleListEntities)
		api.GET("/entities/:type/:id", s.handleGetEntity)
		api.GET("/entities/:type/:id/relationships", s.handleListRelationships)
		api.GET("/entities/:type/:id/related", s.handleRelated)
		api.GET("/entities/:type/:id/suggestions", s.handleSuggest)
	}

	if s.broadcaster != nil {
		r.GET("/ws", s.handleEventStream)
	}

	return r
}

// Run serves HTTP until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.log.Info("http server listening", zap.String("addr", s.cfg.Addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}

func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.writeLimiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleAddRelationship(c *gin.Context) {
	var params handlers.AddParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	rel, err := s.relationships.HandleAdd(c.Request.Context(), params)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rel)
}

func (s *Server) handleRemoveRelationship(c *gin.Context) {
	if err := s.relationships.HandleRemove(c.Request.Context(), c.Param("id")); err != nil {
		s.renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleGetRelationship(c *gin.Context) {
	rel, err := s.relationships.HandleGet(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, rel)
}

func (s *Server) handleCountRelationships(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"count": s.relationships.HandleCount(c.Request.Context())})
}

func (s *Server) handleListRelationships(c *gin.Context) {
	result, err := s.relationships.HandleList(c.Request.Context(), c.Param("id"), handlers.ListOptions{
		Type:       c.Query("type"),
		EntityType: c.Query("entity_type"),
	})
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleRelated(c *gin.Context) {
	related, err := s.relationships.HandleRelated(c.Request.Context(), c.Param("id"), c.Query("type"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"related": related, "count": len(related)})
}

func (s *Server) handleSuggest(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	suggestions, err := s.relationships.HandleSuggest(c.Request.Context(), c.Param("type"), c.Param("id"), limit)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions, "count": len(suggestions)})
}

func (s *Server) handleApplySuggestion(c *gin.Context) {
	var suggestion entities.Suggestion
	if err := c.ShouldBindJSON(&suggestion); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	rel, err := s.relationships.HandleApplySuggestion(c.Request.Context(), suggestion)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rel)
}

func (s *Server) handleCreateEntity(c *gin.Context) {
	var fields map[string]string
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	record, err := s.entities.HandleCreate(c.Request.Context(), c.Param("type"), fields)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (s *Server) handleListEntities(c *gin.Context) {
	records, err := s.entities.HandleList(c.Request.Context(), c.Param("type"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	if records == nil {
		records = []entities.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"records": records, "count": len(records)})
}

func (s *Server) handleGetEntity(c *gin.Context) {
	record, err := s.entities.HandleGet(c.Request.Context(), c.Param("type"), c.Param("id"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// renderError maps domain errors to HTTP statuses.
func (s *Server) renderError(c *gin.Context, err error) {
	var validation *entities.ValidationError
	var notFound *entities.EntityNotFoundError

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &notFound), errors.Is(err, handlers.ErrRelationshipNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		s.log.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
