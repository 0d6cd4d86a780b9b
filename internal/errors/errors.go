package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError represents a single field validation failure
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Predefined error types for the ranking workflow
var (
	// 400 Bad Request
	ErrInvalidRequest    = New(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
	ErrValidationFailed  = New(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed")
	ErrInvalidFileType   = New(http.StatusBadRequest, "INVALID_FILE_TYPE", "File type is not allowed")
	ErrIncompleteWeights = New(http.StatusBadRequest, "INCOMPLETE_WEIGHTS", "Every merged module needs a credit weight before ranking")

	// 404 Not Found
	ErrNotFound        = New(http.StatusNotFound, "NOT_FOUND", "Resource not found")
	ErrSessionNotFound = New(http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found")
	ErrExportNotFound  = New(http.StatusNotFound, "EXPORT_NOT_FOUND", "Export file not found")

	// 409 Conflict
	ErrDuplicateModule = New(http.StatusConflict, "DUPLICATE_MODULE", "Module already merged; re-upload with replace to overwrite")

	// 413 Payload Too Large
	ErrFileTooLarge = New(http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "Uploaded file exceeds the size limit")

	// 422 Unprocessable Entity
	ErrMissingIdentityColumn = New(http.StatusUnprocessableEntity, "MISSING_IDENTITY_COLUMN", "Roster must contain an Index column")
	ErrUnparseableDocument   = New(http.StatusUnprocessableEntity, "UNPARSEABLE_DOCUMENT", "No grade records could be extracted; nothing merged")
	ErrRosterNotLoaded       = New(http.StatusUnprocessableEntity, "ROSTER_NOT_LOADED", "Upload a roster before processing result documents")

	// 500 Internal Server Error
	ErrInternalServer = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
	ErrFileSystem     = New(http.StatusInternalServerError, "FILESYSTEM_ERROR", "File system error")
)

// InvalidRequestWithError creates an invalid request error with details
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format", err.Error())
}

// ErrValidation creates a validation error with field details
func ErrValidation(field, message string) *APIError {
	return NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", ValidationError{
		Field:   field,
		Message: message,
	})
}

// IncompleteWeightsError creates an incomplete-weights error listing the
// module codes that still need a weight.
func IncompleteWeightsError(missing []string) *APIError {
	return NewWithDetails(http.StatusBadRequest, "INCOMPLETE_WEIGHTS",
		"Every merged module needs a credit weight before ranking", missing)
}

// UnparseableDocumentError creates an unparseable-document error with the
// underlying extraction failure attached.
func UnparseableDocumentError(err error) *APIError {
	return NewWithDetails(http.StatusUnprocessableEntity, "UNPARSEABLE_DOCUMENT",
		"No grade records could be extracted; nothing merged", err.Error())
}

// FileSystemError creates a filesystem error
func FileSystemError(operation string, err error) *APIError {
	return NewWithDetails(http.StatusInternalServerError, "FILESYSTEM_ERROR",
		fmt.Sprintf("File system error during %s", operation), err.Error())
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   *APIError `json:"error"`
}

// NewErrorResponse creates a new error response
func NewErrorResponse(err *APIError) *ErrorResponse {
	return &ErrorResponse{
		Success: false,
		Error:   err,
	}
}

// Render implements the render.Renderer interface
func (e *ErrorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return e.Error.Render(w, r)
}

// WriteError writes an error response to the HTTP response writer
func WriteError(w http.ResponseWriter, err *APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	json.NewEncoder(w).Encode(NewErrorResponse(err))
}
