package server

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/devscout/internal/apperr"
	"github.com/spigell/devscout/internal/model"
)

type errorBody struct {
	Error string `json:"error"`
}

type usernameRequest struct {
	Username string `json:"username"`
}

type matchRequest struct {
	Profile        *model.Profile `json:"profile"`
	Username       string         `json:"username"`
	JobDescription string         `json:"jobDescription"`
}

type batchRequest struct {
	Usernames      []string `json:"usernames"`
	JobDescription string   `json:"jobDescription"`
}

type interviewRequest struct {
	Username       string `json:"username"`
	JobDescription string `json:"jobDescription"`
}

// StatusFor maps an error onto its HTTP status.
func StatusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindRateLimited:
		return http.StatusTooManyRequests
	case apperr.KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := StatusFor(err)
	if wait, ok := apperr.RetryAfter(err); ok {
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
	}

	log := s.requestLogger(c)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
	} else {
		log.Info("request rejected", zap.Int("status", status), zap.Error(err))
	}

	c.AbortWithStatusJSON(status, errorBody{Error: err.Error()})
}

func (s *Server) bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		s.fail(c, apperr.InvalidInput("invalid request body: %v", err))
		return false
	}
	return true
}

func (s *Server) analyzeProfile(c *gin.Context) {
	var req usernameRequest
	if !s.bind(c, &req) {
		return
	}
	profile, err := s.svc.AnalyzeProfile(c.Request.Context(), req.Username)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) matchJob(c *gin.Context) {
	var req matchRequest
	if !s.bind(c, &req) {
		return
	}
	if strings.TrimSpace(req.JobDescription) == "" {
		s.fail(c, apperr.InvalidInput("profile and job description are required"))
		return
	}

	profile := req.Profile
	if profile == nil && strings.TrimSpace(req.Username) != "" {
		var err error
		if profile, err = s.svc.AnalyzeProfile(c.Request.Context(), req.Username); err != nil {
			s.fail(c, err)
			return
		}
	}

	verdict, err := s.svc.MatchJob(c.Request.Context(), profile, req.JobDescription)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, verdict)
}

func (s *Server) batchCompare(c *gin.Context) {
	var req batchRequest
	if !s.bind(c, &req) {
		return
	}
	res, err := s.svc.BatchCompare(c.Request.Context(), req.Usernames, req.JobDescription)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) searchDevelopers(c *gin.Context) {
	var criteria model.SearchCriteria
	if !s.bind(c, &criteria) {
		return
	}
	res, err := s.svc.SearchCandidates(c.Request.Context(), criteria)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) codeDNA(c *gin.Context) {
	var req usernameRequest
	if !s.bind(c, &req) {
		return
	}
	dna, err := s.svc.CodeDNA(c.Request.Context(), req.Username)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dna)
}

func (s *Server) interviewQuestions(c *gin.Context) {
	var req interviewRequest
	if !s.bind(c, &req) {
		return
	}
	set, err := s.svc.InterviewQuestions(c.Request.Context(), req.Username, req.JobDescription)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, set)
}

func (s *Server) cacheStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.CacheStatus())
}

func (s *Server) clearCache(c *gin.Context) {
	username := strings.TrimSpace(c.Query("username"))
	s.svc.ClearCache(username)
	c.JSON(http.StatusOK, gin.H{"cleared": true, "username": username})
}

func (s *Server) rateLimit(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.RateLimitStatus())
}

func (s *Server) saveAnalysis(c *gin.Context) {
	var req model.SavedAnalysis
	if !s.bind(c, &req) {
		return
	}
	saved, err := s.svc.SaveAnalysis(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

func (s *Server) listAnalyses(c *gin.Context) {
	list, err := s.svc.ListAnalyses(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) analysisID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		s.fail(c, apperr.InvalidInput("invalid analysis id %q", c.Param("id")))
		return 0, false
	}
	return id, true
}

func (s *Server) getAnalysis(c *gin.Context) {
	id, ok := s.analysisID(c)
	if !ok {
		return
	}
	analysis, err := s.svc.GetAnalysis(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func (s *Server) deleteAnalysis(c *gin.Context) {
	id, ok := s.analysisID(c)
	if !ok {
		return
	}
	if err := s.svc.DeleteAnalysis(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
