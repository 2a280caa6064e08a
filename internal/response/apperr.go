package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/sayu/sayu-backend/internal/apperr"
)

// SequenceHint tells a client where its quiz session actually is.
type SequenceHint struct {
	SessionID          string `json:"session_id"`
	ExpectedQuestionID string `json:"expected_question_id"`
	ExpectedIndex      int    `json:"expected_index"`
}

// Classify maps a service error to an HTTP status and API error code.
func Classify(err error) (int, ErrCode) {
	switch {
	case errors.Is(err, apperr.ErrSequence):
		return http.StatusConflict, ErrQuizSequence
	case errors.Is(err, apperr.ErrIncomplete):
		return http.StatusConflict, ErrQuizIncomplete
	case errors.Is(err, apperr.ErrDuplicate):
		return http.StatusConflict, ErrDuplicateRequest
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict, ErrConflict
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusForbidden, ErrNotHost
	case errors.Is(err, apperr.ErrInvalidType):
		return http.StatusBadRequest, ErrInvalidTypeCode
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest, ErrValidation
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, ErrNotFound
	case errors.Is(err, apperr.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, ErrStoreUnavailable
	default:
		return http.StatusInternalServerError, ErrInternal
	}
}

// Error writes the envelope for a service error. Sequence errors carry a resync
// hint in data; unexpected errors are logged.
func Error(c *gin.Context, log zerolog.Logger, err error) {
	status, code := Classify(err)

	if hint := HintFor(err); hint != nil {
		FailWithData(c, status, code, hint)
		return
	}

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	}
	Fail(c, status, code)
}

// HintFor returns the resync hint carried by a sequence error, or nil.
func HintFor(err error) *SequenceHint {
	var seq *apperr.SequenceError
	if !errors.As(err, &seq) {
		return nil
	}
	return &SequenceHint{
		SessionID:          seq.SessionID,
		ExpectedQuestionID: seq.ExpectedID,
		ExpectedIndex:      seq.ExpectedIndex,
	}
}
