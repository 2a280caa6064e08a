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

// QuizHandler serves the quiz session REST endpoints.
type QuizHandler struct {
	quizService *service.QuizService
	log         zerolog.Logger
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(quizService *service.QuizService, log zerolog.Logger) *QuizHandler {
	return &QuizHandler{
		quizService: quizService,
		log:         log.With().Str("component", "quiz_handler").Logger(),
	}
}

// StartQuiz godoc
// POST /api/v1/quiz/sessions
// Starts a quiz, or resumes the caller's in-progress session of the same kind.
func (h *QuizHandler) StartQuiz(c *gin.Context) {
	var req model.StartQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.quizService.StartQuiz(c.Request.Context(), middleware.UserID(c), req.Kind)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}

	status := http.StatusCreated
	if state.Resumed {
		status = http.StatusOK
	}
	response.Success(c, status, gin.H{"session": state})
}

// SubmitAnswer godoc
// POST /api/v1/quiz/sessions/:id/answers
func (h *QuizHandler) SubmitAnswer(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	step, err := h.quizService.SubmitAnswer(c.Request.Context(), middleware.UserID(c), sessionID, req)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"step": step})
}

// GetState godoc
// GET /api/v1/quiz/sessions/:id
// Returns the session's current position so a client can resync.
func (h *QuizHandler) GetState(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	state, err := h.quizService.GetState(c.Request.Context(), middleware.UserID(c), sessionID)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": state})
}

// CompleteQuiz godoc
// POST /api/v1/quiz/sessions/:id/complete
func (h *QuizHandler) CompleteQuiz(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	profile, err := h.quizService.CompleteQuiz(c.Request.Context(), middleware.UserID(c), sessionID)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"profile": profile})
}
