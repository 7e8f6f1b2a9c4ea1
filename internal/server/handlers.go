package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MobiAdvisor-core/server/internal/agent/model"
	"github.com/MobiAdvisor-core/server/internal/catalog"
	"github.com/MobiAdvisor-core/server/internal/comparison"
	errx "github.com/MobiAdvisor-core/server/internal/core/error"
	"github.com/MobiAdvisor-core/server/internal/orchestrator"
	logx "github.com/MobiAdvisor-core/server/pkg/logger"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type ChatRequest struct {
	Query          string                   `json:"query"`
	Filters        model.Filters            `json:"filters"`
	History        []model.ConversationTurn `json:"history"`
	ConversationID string                   `json:"conversation_id"`
}

type ChatResponse struct {
	model.GroundedAnswer
	ConversationID string `json:"conversation_id,omitempty"`
}

type CompareRequest struct {
	Phones []model.Phone `json:"phones" binding:"required"`
}

type FactCheckRequest struct {
	PhoneID int64  `json:"phone_id" binding:"required,gt=0"`
	Claim   string `json:"claim" binding:"required"`
}

type PhoneListRequest struct {
	Search     string  `form:"search"`
	Company    string  `form:"company"`
	MinPrice   int     `form:"minPrice" binding:"gte=0"`
	MaxPrice   int     `form:"maxPrice" binding:"gte=0"`
	MinRAM     float64 `form:"minRam" binding:"gte=0"`
	MinBattery int     `form:"minBattery" binding:"gte=0"`
	MinCamera  float64 `form:"minCamera" binding:"gte=0"`
	SortBy     string  `form:"sortBy"`
	Order      string  `form:"order"`
	Limit      int     `form:"limit" binding:"gte=0"`
}

type PhoneListResponse struct {
	Phones []model.Phone `json:"phones"`
	Total  int           `json:"total"`
}

type FiltersResponse struct {
	Companies    []string    `json:"companies"`
	PriceRange   model.Range `json:"priceRange"`
	CameraRange  model.Range `json:"cameraRange"`
	BatteryRange model.Range `json:"batteryRange"`
	RAMRange     model.Range `json:"ramRange"`
	StorageRange model.Range `json:"storageRange"`
}

var sortFields = map[string]catalog.Field{
	"price":   catalog.FieldPrice,
	"rating":  catalog.FieldRating,
	"battery": catalog.FieldBattery,
	"camera":  catalog.FieldBackCamera,
	"ram":     catalog.FieldRAM,
	"storage": catalog.FieldStorage,
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleChat runs one turn. A conversation id without history loads the
// stored turns; the new pair of turns is stored afterwards.
func (s *Server) handleChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request", Details: err.Error()})
		return
	}

	ctx := c.Request.Context()
	conversationID := strings.TrimSpace(req.ConversationID)
	if conversationID == "" && s.messages != nil {
		conversationID = uuid.NewString()
	}
	history := req.History
	if s.messages != nil {
		history = s.messages.LoadTurns(ctx, conversationID, history)
	}

	ans := s.advisor.HandleTurn(ctx, orchestrator.TurnRequest{
		ConversationID: conversationID,
		Query:          req.Query,
		Filters:        req.Filters,
		History:        history,
	})
	if ans.Source == model.SourceInvalidInput {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Query is required", Details: ans.Message})
		return
	}

	if s.messages != nil && len(ans.History) >= 2 {
		if err := s.messages.SaveTurns(ctx, conversationID, ans.History[len(ans.History)-2:]...); err != nil {
			logx.Warn().Err(err).Str("conversation_id", conversationID).Msg("conversation not saved")
		}
	}
	c.JSON(http.StatusOK, ChatResponse{GroundedAnswer: ans, ConversationID: conversationID})
}

// handleCompare accepts full phone payloads or bare ids; bare ids are
// completed from the catalog.
func (s *Server) handleCompare(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request", Details: err.Error()})
		return
	}

	if len(req.Phones) < comparison.MinPhones {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: comparison.ErrTooFewPhones})
		return
	}

	ctx := c.Request.Context()
	phones := make([]model.Phone, 0, len(req.Phones))
	for _, p := range req.Phones {
		if p.ID > 0 && p.ModelName == "" {
			rec, err := s.catalog.GetByID(ctx, p.ID)
			if err != nil {
				s.catalogError(c, err)
				return
			}
			p = *rec
		}
		phones = append(phones, p)
	}

	cmp := s.advisor.CompareRecords(ctx, phones)
	if cmp.Error != "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: cmp.Error})
		return
	}
	c.JSON(http.StatusOK, cmp)
}

func (s *Server) handleFactCheck(c *gin.Context) {
	var req FactCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request", Details: err.Error()})
		return
	}
	res, err := s.advisor.FactCheck(c.Request.Context(), req.PhoneID, strings.TrimSpace(req.Claim))
	if err != nil {
		s.catalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleListPhones(c *gin.Context) {
	var req PhoneListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request", Details: err.Error()})
		return
	}

	q := catalog.FromFilters(model.Filters{
		Company:    req.Company,
		MinPrice:   req.MinPrice,
		MaxPrice:   req.MaxPrice,
		MinRAM:     req.MinRAM,
		MinBattery: req.MinBattery,
		MinCamera:  req.MinCamera,
	})
	if search := strings.TrimSpace(req.Search); search != "" {
		q.Keywords = []string{search}
	}
	field, ok := sortFields[req.SortBy]
	if !ok {
		field = catalog.FieldRating
	}
	if strings.EqualFold(req.Order, "asc") {
		q.OrderBy = []catalog.Order{catalog.Asc(field)}
	} else {
		q.OrderBy = []catalog.Order{catalog.Desc(field)}
	}
	q.Limit = req.Limit
	if q.Limit == 0 {
		q.Limit = defaultListLimit
	}
	q.Limit = min(q.Limit, maxListLimit)

	ctx := c.Request.Context()
	phones, err := s.catalog.Find(ctx, q)
	if err != nil {
		s.catalogError(c, err)
		return
	}
	stats, err := s.catalog.Aggregate(ctx)
	if err != nil {
		s.catalogError(c, err)
		return
	}
	if phones == nil {
		phones = []model.Phone{}
	}
	c.JSON(http.StatusOK, PhoneListResponse{Phones: phones, Total: stats.Total})
}

func (s *Server) handleGetPhone(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid phone id"})
		return
	}
	p, err := s.catalog.GetByID(c.Request.Context(), id)
	if err != nil {
		s.catalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleFilters(c *gin.Context) {
	ctx := c.Request.Context()
	companies, err := s.catalog.DistinctValues(ctx, catalog.FieldCompany)
	if err != nil {
		s.catalogError(c, err)
		return
	}
	stats, err := s.catalog.Aggregate(ctx)
	if err != nil {
		s.catalogError(c, err)
		return
	}
	if companies == nil {
		companies = []string{}
	}
	c.JSON(http.StatusOK, FiltersResponse{
		Companies:    companies,
		PriceRange:   stats.Price,
		CameraRange:  stats.Camera,
		BatteryRange: stats.Battery,
		RAMRange:     stats.RAM,
		StorageRange: stats.Storage,
	})
}

func (s *Server) handleBuildIndex(c *gin.Context) {
	if s.indexer == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "vector index is not configured"})
		return
	}
	res, err := s.indexer.Build(c.Request.Context())
	if err != nil {
		logx.Error().Err(err).Msg("index build failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Vector index built successfully",
		"details": res,
	})
}

func (s *Server) catalogError(c *gin.Context, err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Phone not found"})
		return
	}
	logx.Error().Err(err).Str("path", c.FullPath()).Msg("catalog request failed")
	c.JSON(errx.StatusOf(err), ErrorResponse{Error: errx.DatabaseErrorMessage})
}
