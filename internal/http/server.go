package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/denisok6893-rgb/property-exchange-matching/internal/domain"
	"github.com/denisok6893-rgb/property-exchange-matching/internal/exchange"
	"github.com/denisok6893-rgb/property-exchange-matching/internal/matching"
	"github.com/denisok6893-rgb/property-exchange-matching/internal/metrics"
	"github.com/denisok6893-rgb/property-exchange-matching/internal/storage"
)

const defaultRankLimit = 5

type Server struct {
	engine   *matching.Engine
	exchange *exchange.Service
	repo     storage.Repository
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

type Option func(*Server)

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

func NewServer(engine *matching.Engine, ex *exchange.Service, repo storage.Repository, opts ...Option) *Server {
	s := &Server{
		engine:   engine,
		exchange: ex,
		repo:     repo,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	return s
}

func (s *Server) Routes() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	r.POST("/decide", s.handleDecide)
	r.POST("/rank", s.handleRank)
	r.POST("/exchange/matches", s.handleExchangeMatches)
	r.POST("/exchange/proposal", s.handleExchangeProposal)

	r.GET("/listings", s.handleListingsList)
	r.POST("/listings", s.handleListingsCreate)
	r.GET("/listings/:id", s.handleListingsGet)
	r.DELETE("/listings/:id", s.handleListingsDelete)
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		s.metrics.ObserveRequest(c.Request.Method, route, strconv.Itoa(status))

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", requestID),
		}
		if status >= http.StatusInternalServerError {
			s.logger.Error("request failed", append(fields, zap.Strings("errors", c.Errors.Errors()))...)
			return
		}
		s.logger.Debug("request", fields...)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type DecideRequest struct {
	Requirements domain.Requirements `json:"requirements"`
	Facts        map[string]string   `json:"facts"`
}

type RankRequest struct {
	Requirements domain.Requirements `json:"requirements"`
	Facts        map[string]string   `json:"facts"`
	Limit        int                 `json:"limit"`
}

type RankResponse struct {
	Results []domain.ScoredListing `json:"results"`
}

func (s *Server) handleDecide(c *gin.Context) {
	var req DecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := req.Requirements.ApplyFacts(req.Facts); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	listings, ok := s.loadListings(c)
	if !ok {
		return
	}

	start := time.Now()
	result := s.engine.Decide(listings, req.Requirements)
	s.metrics.ObserveDecision(result.Status, time.Since(start))

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleRank(c *gin.Context) {
	var req RankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := req.Requirements.ApplyFacts(req.Facts); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	limit := req.Limit
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit <= 0 {
		limit = defaultRankLimit
	}

	listings, ok := s.loadListings(c)
	if !ok {
		return
	}

	results := s.engine.Rank(listings, req.Requirements)
	if len(results) > limit {
		results = results[:limit]
	}
	c.JSON(http.StatusOK, RankResponse{Results: results})
}

type ExchangeRequest struct {
	Item      string `json:"item"`
	Value     int64  `json:"value"`
	ListingID string `json:"listing_id,omitempty"`
}

type ExchangeMatchesResponse struct {
	Matches []domain.ExchangeMatch `json:"matches"`
}

func (s *Server) handleExchangeMatches(c *gin.Context) {
	var req ExchangeRequest
	if !bindExchangeRequest(c, &req) {
		return
	}

	listings, ok := s.loadListings(c)
	if !ok {
		return
	}

	matches := s.exchange.FindMatches(req.Item, req.Value, listings)
	s.metrics.ObserveExchangeSearch(len(matches))
	c.JSON(http.StatusOK, ExchangeMatchesResponse{Matches: matches})
}

func (s *Server) handleExchangeProposal(c *gin.Context) {
	var req ExchangeRequest
	if !bindExchangeRequest(c, &req) {
		return
	}
	if req.ListingID == "" {
		writeError(c, http.StatusBadRequest, "listing_id is required")
		return
	}

	l, err := s.repo.Get(c.Request.Context(), req.ListingID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(c, http.StatusNotFound, "not_found")
		return
	}
	if err != nil {
		s.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, s.exchange.BuildProposal(req.Item, req.Value, l))
}

func bindExchangeRequest(c *gin.Context, req *ExchangeRequest) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid JSON")
		return false
	}
	if req.Value < 0 {
		writeError(c, http.StatusBadRequest, "value must be >= 0")
		return false
	}
	return true
}

func (s *Server) loadListings(c *gin.Context) ([]domain.Listing, bool) {
	listings, err := s.repo.All(c.Request.Context())
	if err != nil {
		s.internalError(c, err)
		return nil, false
	}
	return listings, true
}

func (s *Server) internalError(c *gin.Context, err error) {
	_ = c.Error(err)
	writeError(c, http.StatusInternalServerError, "internal error")
}

func writeError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
