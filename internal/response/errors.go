package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrNotVerified        ErrCode = "ACCOUNT_NOT_VERIFIED"
	ErrAlreadyVerified    ErrCode = "ACCOUNT_ALREADY_VERIFIED"
	ErrOTPInvalid         ErrCode = "OTP_INVALID"
	ErrEmailTaken         ErrCode = "EMAIL_TAKEN"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"
	ErrConfigMismatch ErrCode = "CONFIG_MISMATCH"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound     ErrCode = "NOT_FOUND"
	ErrFileNotFound ErrCode = "FILE_NOT_FOUND"
	ErrFileEmpty    ErrCode = "FILE_HAS_NO_QUESTIONS"

	// ─── Generation ────────────────────────────────────────────────────
	ErrNoQuestionsMatched ErrCode = "NO_QUESTIONS_MATCHED"
	ErrEmptyGeneration    ErrCode = "EMPTY_GENERATION"
	ErrSubjectNotFound    ErrCode = "SUBJECT_NOT_FOUND"

	// ─── Upload ────────────────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"
	ErrSheetInvalid    ErrCode = "SHEET_INVALID"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid email or password."
	case ErrSessionInvalidated:
		return "Your session has ended. Please log in again."
	case ErrTokenRequired:
		return "Authentication token required."
	case ErrTokenInvalid:
		return "Authentication token is invalid."
	case ErrNotVerified:
		return "Please verify your account before using this feature."
	case ErrAlreadyVerified:
		return "Account is already verified."
	case ErrOTPInvalid:
		return "OTP is invalid or has expired."
	case ErrEmailTaken:
		return "An account with this email already exists."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."
	case ErrConfigMismatch:
		return "Generation config counts are inconsistent."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrFileNotFound:
		return "File not found."
	case ErrFileEmpty:
		return "Selected file contains no questions. Please upload questions first."

	// ─── Generation ────────────────────────────────────────────────────
	case ErrNoQuestionsMatched:
		return "No questions found matching your criteria in your question bank."
	case ErrEmptyGeneration:
		return "No questions could be selected with the requested distribution. Try loosening the unit or BT level constraints."
	case ErrSubjectNotFound:
		return "Subject not found in your question bank."

	// ─── Upload ────────────────────────────────────────────────────────
	case ErrFileRequired:
		return "File upload is required."
	case ErrUnsupportedFile:
		return "Unsupported file type. Please upload an .xlsx workbook."
	case ErrFileTooLarge:
		return "File size exceeds the limit."
	case ErrSheetInvalid:
		return "Excel file is missing required headers or contains no rows."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
