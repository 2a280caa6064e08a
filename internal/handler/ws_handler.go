package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/sayu/sayu-backend/internal/metrics"
	"github.com/sayu/sayu-backend/internal/middleware"
	"github.com/sayu/sayu-backend/internal/model"
	"github.com/sayu/sayu-backend/internal/response"
	"github.com/sayu/sayu-backend/internal/service"
	ws "github.com/sayu/sayu-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams quiz answers over a WebSocket. It drives the same QuizService
// as the REST endpoints, so sequencing rules are identical on both transports.
type WSHandler struct {
	quizService *service.QuizService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(quizService *service.QuizService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		quizService: quizService,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// QuizStream godoc
// WS /ws/v1/quiz/sessions/:id/stream
// Upgrades to WebSocket for answering a quiz session question by question.
func (h *WSHandler) QuizStream(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	// Ownership is checked before upgrading so a foreign session id gets a plain 404.
	state, err := h.quizService.GetState(c.Request.Context(), userID, sessionID)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	metrics.WSConnectionsActive.Inc()
	defer metrics.WSConnectionsActive.Dec()

	wsLog := h.log.With().
		Str("user_id", userID).
		Str("session_id", sessionID.String()).
		Logger()
	wsLog.Info().Msg("Quiz stream connected")

	ws.WriteJSON(conn, ws.EventState, state)

	for {
		var msg ws.Request
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		ctx := c.Request.Context()
		switch msg.Action {
		case ws.ActionAnswer:
			h.handleAnswer(ctx, conn, userID, sessionID, &msg)
		case ws.ActionState:
			h.handleState(ctx, conn, userID, sessionID)
		case ws.ActionComplete:
			if h.handleComplete(ctx, conn, wsLog, userID, sessionID) {
				return
			}
		case ws.ActionPing:
			ws.WriteTyped(conn, ws.Message{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			ws.WriteError(conn, response.ErrInvalidPayload, "unknown action: "+string(msg.Action))
		}
	}
}

func (h *WSHandler) handleAnswer(ctx context.Context, conn *websocket.Conn, userID string, sessionID uuid.UUID, msg *ws.Request) {
	if msg.QuestionID == "" || msg.ChoiceID == "" || msg.TimeSpentMs < 0 {
		ws.WriteError(conn, response.ErrInvalidPayload, "question_id and choice_id are required")
		return
	}

	step, err := h.quizService.SubmitAnswer(ctx, userID, sessionID, model.SubmitAnswerRequest{
		QuestionID:  msg.QuestionID,
		ChoiceID:    msg.ChoiceID,
		TimeSpentMs: msg.TimeSpentMs,
	})
	if err != nil {
		ws.WriteServiceError(conn, err)
		return
	}
	ws.WriteJSON(conn, ws.EventStep, step)
}

func (h *WSHandler) handleState(ctx context.Context, conn *websocket.Conn, userID string, sessionID uuid.UUID) {
	state, err := h.quizService.GetState(ctx, userID, sessionID)
	if err != nil {
		ws.WriteServiceError(conn, err)
		return
	}
	ws.WriteJSON(conn, ws.EventState, state)
}

// handleComplete reports whether the stream is finished. The live session is gone
// after a successful completion.
func (h *WSHandler) handleComplete(ctx context.Context, conn *websocket.Conn, wsLog zerolog.Logger, userID string, sessionID uuid.UUID) bool {
	profile, err := h.quizService.CompleteQuiz(ctx, userID, sessionID)
	if err != nil {
		ws.WriteServiceError(conn, err)
		return false
	}

	wsLog.Info().Str("type_code", string(profile.TypeCode)).Msg("Quiz completed over stream")
	ws.WriteJSON(conn, ws.EventCompleted, profile)
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "quiz completed"),
		time.Now().Add(time.Second))
	return true
}
