// Package server exposes the advisor over HTTP with gin.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MobiAdvisor-core/server/internal/agent/graph/conversations"
	"github.com/MobiAdvisor-core/server/internal/agent/model"
	"github.com/MobiAdvisor-core/server/internal/catalog"
	"github.com/MobiAdvisor-core/server/internal/orchestrator"
	"github.com/MobiAdvisor-core/server/internal/vector"
	logx "github.com/MobiAdvisor-core/server/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// Advisor is the conversation core behind /api/chat, /api/compare and
// /api/fact-check.
type Advisor interface {
	HandleTurn(ctx context.Context, req orchestrator.TurnRequest) model.GroundedAnswer
	CompareRecords(ctx context.Context, phones []model.Phone) model.Comparison
	FactCheck(ctx context.Context, phoneID int64, claim string) (model.FactCheck, error)
}

// IndexBuilder rebuilds the vector indexes.
type IndexBuilder interface {
	Build(ctx context.Context) (*vector.BuildResult, error)
}

// Config wires the handlers. Indexer and Messages may be nil: index builds
// then answer 503 and conversations are not persisted.
type Config struct {
	Advisor  Advisor
	Catalog  catalog.Catalog
	Indexer  IndexBuilder
	Messages *conversations.MessagesManager
}

type Server struct {
	advisor  Advisor
	catalog  catalog.Catalog
	indexer  IndexBuilder
	messages *conversations.MessagesManager
}

func New(cfg Config) (*Server, error) {
	if cfg.Advisor == nil {
		return nil, fmt.Errorf("server: advisor is required")
	}
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("server: catalog is required")
	}
	return &Server{
		advisor:  cfg.Advisor,
		catalog:  cfg.Catalog,
		indexer:  cfg.Indexer,
		messages: cfg.Messages,
	}, nil
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.POST("/chat", s.handleChat)
		api.POST("/compare", s.handleCompare)
		api.POST("/fact-check", s.handleFactCheck)
		api.GET("/phones", s.handleListPhones)
		api.GET("/phones/:id", s.handleGetPhone)
		api.GET("/filters", s.handleFilters)
		api.POST("/admin/build-index", s.handleBuildIndex)
	}
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logx.Info().Str("addr", addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logx.Info().Msg("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		ev := logx.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			ev = logx.Error()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("http request")
	}
}
