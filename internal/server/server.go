// Package server exposes the devscout service over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/devscout/internal/cache"
	"github.com/spigell/devscout/internal/compare"
	"github.com/spigell/devscout/internal/logger"
	"github.com/spigell/devscout/internal/model"
	"github.com/spigell/devscout/internal/ratelimit"
	"github.com/spigell/devscout/internal/search"
)

const shutdownTimeout = 10 * time.Second

// Service is the part of the devscout facade served over HTTP.
type Service interface {
	AnalyzeProfile(ctx context.Context, username string) (*model.Profile, error)
	MatchJob(ctx context.Context, profile *model.Profile, job string) (*model.MatchVerdict, error)
	BatchCompare(ctx context.Context, usernames []string, job string) (*compare.Result, error)
	SearchCandidates(ctx context.Context, criteria model.SearchCriteria) (*search.Result, error)
	CodeDNA(ctx context.Context, username string) (*model.CodeDNA, error)
	InterviewQuestions(ctx context.Context, username, job string) (*model.InterviewSet, error)
	CacheStatus() cache.Status
	ClearCache(username string)
	RateLimitStatus() ratelimit.State
	SaveAnalysis(ctx context.Context, analysis model.SavedAnalysis) (model.SavedAnalysis, error)
	ListAnalyses(ctx context.Context) ([]model.SavedAnalysis, error)
	GetAnalysis(ctx context.Context, id int64) (model.SavedAnalysis, error)
	DeleteAnalysis(ctx context.Context, id int64) error
}

type Recorder interface {
	HTTPRequest(route string, status int)
}

type Server struct {
	svc     Service
	logger  *zap.Logger
	rec     Recorder
	metrics http.Handler
	engine  *gin.Engine
}

type Option func(*Server)

func WithRecorder(rec Recorder) Option {
	return func(s *Server) { s.rec = rec }
}

// WithMetricsHandler serves h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

func New(svc Service, log *zap.Logger, opts ...Option) *Server {
	s := &Server{
		svc:    svc,
		logger: logger.Component(log, "server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(requestID(), s.logging(), s.recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics))
	}

	api := r.Group("/api")
	api.POST("/analyze-github", s.analyzeProfile)
	api.POST("/match-job", s.matchJob)
	api.POST("/batch-compare", s.batchCompare)
	api.POST("/search-developers", s.searchDevelopers)
	api.POST("/code-dna", s.codeDNA)
	api.POST("/interview-questions", s.interviewQuestions)

	api.GET("/cache", s.cacheStatus)
	api.DELETE("/cache", s.clearCache)
	api.GET("/rate-limit", s.rateLimit)

	api.POST("/analyses", s.saveAnalysis)
	api.GET("/analyses", s.listAnalyses)
	api.GET("/analyses/:id", s.getAnalysis)
	api.DELETE("/analyses/:id", s.deleteAnalysis)

	return r
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
