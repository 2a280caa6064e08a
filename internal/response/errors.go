package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"
	ErrTokenExpired  ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrNotHost ErrCode = "NOT_HOST"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation      ErrCode = "VALIDATION_ERROR"
	ErrInvalidID       ErrCode = "INVALID_ID"
	ErrInvalidPayload  ErrCode = "INVALID_PAYLOAD"
	ErrInvalidTypeCode ErrCode = "INVALID_TYPE_CODE"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound  ErrCode = "NOT_FOUND"
	ErrConflict  ErrCode = "CONFLICT"
	ErrNoProfile ErrCode = "NO_PROFILE"

	// ─── Quiz ──────────────────────────────────────────────────────────
	ErrQuizSequence   ErrCode = "QUIZ_SEQUENCE"
	ErrQuizIncomplete ErrCode = "QUIZ_INCOMPLETE"

	// ─── Matching ──────────────────────────────────────────────────────
	ErrDuplicateRequest ErrCode = "DUPLICATE_MATCH_REQUEST"

	// ─── System ────────────────────────────────────────────────────────
	ErrRateLimited      ErrCode = "RATE_LIMIT_EXCEEDED"
	ErrStoreUnavailable ErrCode = "STORE_UNAVAILABLE"
	ErrInternal         ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for each error code.
func GetMessage(code ErrCode) string {
	switch code {
	// Authentication
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid."
	case ErrTokenExpired:
		return "Authentication token has expired. Please sign in again."

	// Authorization
	case ErrNotHost:
		return "Only the host of this match request can do that."

	// Validation
	case ErrValidation:
		return "The submitted data is invalid. Check the fields and try again."
	case ErrInvalidID:
		return "The ID format is invalid."
	case ErrInvalidPayload:
		return "The request body is malformed."
	case ErrInvalidTypeCode:
		return "Unknown personality type code."

	// Resources
	case ErrNotFound:
		return "The requested data was not found."
	case ErrConflict:
		return "The request conflicts with the current state of the resource."
	case ErrNoProfile:
		return "Complete the personality quiz first."

	// Quiz
	case ErrQuizSequence:
		return "That answer does not match the current question. Resume from the expected question."
	case ErrQuizIncomplete:
		return "The quiz has unanswered questions."

	// Matching
	case ErrDuplicateRequest:
		return "You already have an open match request for this exhibition."

	// System
	case ErrRateLimited:
		return "Too many requests. Please wait a moment."
	case ErrStoreUnavailable:
		return "A backing store is temporarily unavailable. Please retry."
	case ErrInternal:
		return "An internal server error occurred."

	default:
		return "An unknown error occurred."
	}
}
