package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/sayu/sayu-backend/internal/apperr"
	"github.com/sayu/sayu-backend/internal/middleware"
	"github.com/sayu/sayu-backend/internal/model"
	"github.com/sayu/sayu-backend/internal/response"
	"github.com/sayu/sayu-backend/internal/service"
	"github.com/sayu/sayu-backend/internal/validator"
)

// ProfileHandler serves personality profiles and content recommendations.
type ProfileHandler struct {
	profileService        *service.ProfileService
	recommendationService *service.RecommendationService
	log                   zerolog.Logger
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profileService *service.ProfileService, recommendationService *service.RecommendationService, log zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileService:        profileService,
		recommendationService: recommendationService,
		log:                   log.With().Str("component", "profile_handler").Logger(),
	}
}

// GetProfile godoc
// GET /api/v1/profile
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profile, err := h.profileService.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"profile": profile})
}

// GetRecommendations godoc
// GET /api/v1/recommendations?kind=artwork&limit=20
func (h *ProfileHandler) GetRecommendations(c *gin.Context) {
	var q model.RecommendationQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	list, err := h.recommendationService.GetRecommendations(c.Request.Context(), middleware.UserID(c), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	if list.Items == nil {
		list.Items = []model.Recommendation{}
	}
	response.Success(c, http.StatusOK, gin.H{"recommendations": list})
}

// fail reports a missing profile as NO_PROFILE so clients know to send the user to
// the quiz.
func (h *ProfileHandler) fail(c *gin.Context, err error) {
	if errors.Is(err, apperr.ErrNotFound) {
		response.Fail(c, http.StatusNotFound, response.ErrNoProfile)
		return
	}
	response.Error(c, h.log, err)
}
