package response

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sayu/sayu-backend/internal/apperr"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   ErrCode
	}{
		{"sequence", &apperr.SequenceError{SessionID: "s"}, http.StatusConflict, ErrQuizSequence},
		{"incomplete", fmt.Errorf("session s: %w", apperr.ErrIncomplete), http.StatusConflict, ErrQuizIncomplete},
		{"duplicate", fmt.Errorf("host h: %w", apperr.ErrDuplicate), http.StatusConflict, ErrDuplicateRequest},
		{"conflict", apperr.Conflict("request is %s", "matched"), http.StatusConflict, ErrConflict},
		{"unauthorized", apperr.Unauthorized("not host"), http.StatusForbidden, ErrNotHost},
		{"invalid type", fmt.Errorf("XXXX: %w", apperr.ErrInvalidType), http.StatusBadRequest, ErrInvalidTypeCode},
		{"validation", apperr.Invalid("bad choice"), http.StatusBadRequest, ErrValidation},
		{"not found", apperr.NotFound("profile", "u1"), http.StatusNotFound, ErrNotFound},
		{"unavailable", apperr.Unavailable("get session", errors.New("dial tcp")), http.StatusServiceUnavailable, ErrStoreUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := Classify(tt.err)
			if status != tt.wantStatus || code != tt.wantCode {
				t.Errorf("Classify() = (%d, %s), want (%d, %s)", status, code, tt.wantStatus, tt.wantCode)
			}
		})
	}
}

func TestErrorCarriesSequenceHint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(ContextKeyRequestID, "req-1")

	Error(c, zerolog.Nop(), &apperr.SequenceError{
		SessionID:     "s1",
		ExpectedIndex: 3,
		ExpectedID:    "ex04",
		SubmittedID:   "ex02",
	})

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}

	var body struct {
		Data     SequenceHint `json:"data"`
		Error    ErrorBody    `json:"error"`
		Metadata Metadata     `json:"metadata"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Error.Code != ErrQuizSequence {
		t.Errorf("code = %s", body.Error.Code)
	}
	if body.Data.ExpectedQuestionID != "ex04" || body.Data.ExpectedIndex != 3 {
		t.Errorf("hint = %+v", body.Data)
	}
	if body.Metadata.RequestID != "req-1" {
		t.Errorf("request id = %q", body.Metadata.RequestID)
	}
}

func TestGetMessageCoversCodes(t *testing.T) {
	codes := []ErrCode{
		ErrTokenRequired, ErrTokenInvalid, ErrTokenExpired, ErrNotHost,
		ErrValidation, ErrInvalidID, ErrInvalidPayload, ErrInvalidTypeCode,
		ErrNotFound, ErrConflict, ErrNoProfile, ErrQuizSequence, ErrQuizIncomplete,
		ErrDuplicateRequest, ErrRateLimited, ErrStoreUnavailable, ErrInternal,
	}
	unknown := GetMessage("SOMETHING_ELSE")
	for _, code := range codes {
		if GetMessage(code) == unknown {
			t.Errorf("no message for %s", code)
		}
	}
}
