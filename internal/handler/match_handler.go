package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sayu/sayu-backend/internal/middleware"
	"github.com/sayu/sayu-backend/internal/model"
	"github.com/sayu/sayu-backend/internal/response"
	"github.com/sayu/sayu-backend/internal/service"
	"github.com/sayu/sayu-backend/internal/validator"
)

// MatchHandler serves companion match requests and type compatibility.
type MatchHandler struct {
	matchService *service.MatchService
	log          zerolog.Logger
}

// NewMatchHandler creates a new MatchHandler.
func NewMatchHandler(matchService *service.MatchService, log zerolog.Logger) *MatchHandler {
	return &MatchHandler{
		matchService: matchService,
		log:          log.With().Str("component", "match_handler").Logger(),
	}
}

// CreateRequest godoc
// POST /api/v1/matches
func (h *MatchHandler) CreateRequest(c *gin.Context) {
	var req model.CreateMatchRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	created, err := h.matchService.CreateMatchRequest(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"match_request": created})
}

// FindCandidates godoc
// GET /api/v1/matches/:id/candidates?limit=20
func (h *MatchHandler) FindCandidates(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var q model.CandidateQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	candidates, err := h.matchService.FindCandidates(c.Request.Context(), middleware.UserID(c), requestID, q.Limit)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	if candidates == nil {
		candidates = []model.CandidateMatch{}
	}
	response.Success(c, http.StatusOK, gin.H{"candidates": candidates})
}

// Accept godoc
// POST /api/v1/matches/:id/accept
func (h *MatchHandler) Accept(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.CandidateDecisionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	updated, err := h.matchService.AcceptMatch(c.Request.Context(), middleware.UserID(c), requestID, req.CandidateUserID)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"match_request": updated})
}

// Reject godoc
// POST /api/v1/matches/:id/reject
func (h *MatchHandler) Reject(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.CandidateDecisionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.matchService.RejectMatch(c.Request.Context(), middleware.UserID(c), requestID, req.CandidateUserID); err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "candidate rejected"})
}

// Cancel godoc
// DELETE /api/v1/matches/:id
func (h *MatchHandler) Cancel(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	cancelled, err := h.matchService.CancelMatchRequest(c.Request.Context(), middleware.UserID(c), requestID)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"match_request": cancelled})
}

// Compatibility godoc
// GET /api/v1/compatibility/:host/:candidate
func (h *MatchHandler) Compatibility(c *gin.Context) {
	var q model.CompatibilityQuery
	if fields := validator.BindURI(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.matchService.Compatibility(q.Host, q.Candidate)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"compatibility": result})
}
