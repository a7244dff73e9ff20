package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/conduit-lang/restbind/internal/orm/model"
	"github.com/conduit-lang/restbind/internal/orm/schema"
	"github.com/conduit-lang/restbind/internal/orm/session"
	"github.com/conduit-lang/restbind/internal/orm/validation"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ValidationErrorResponse represents validation errors
type ValidationErrorResponse struct {
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Code    string              `json:"code"`
	Fields  map[string][]string `json:"fields"`
}

// RenderError picks the status for err and renders it. Invalid parameters
// are 400, field validation failures 422, unknown entities or records 404,
// unique violations 409 and everything else 500. s is used to report
// validation failures under wire names and may be nil.
func RenderError(w http.ResponseWriter, s *schema.EntitySchema, err error) {
	if ve := validation.FromError(s, err); ve != nil {
		RenderValidationError(w, ve)
		return
	}

	var ipe *model.InvalidParameterError
	if errors.As(err, &ipe) {
		RenderErrorWithDetails(w, http.StatusBadRequest, err, map[string]interface{}{
			"parameter": ipe.Param,
		})
		return
	}

	switch {
	case errors.Is(err, schema.ErrUnknownField),
		errors.Is(err, session.ErrUnregisteredEntity),
		errors.Is(err, session.ErrNotFound):
		RenderStatus(w, http.StatusNotFound, err)
	case errors.Is(err, session.ErrUniqueViolation),
		errors.Is(err, session.ErrForeignKeyViolation):
		RenderStatus(w, http.StatusConflict, err)
	default:
		RenderInternalError(w, err)
	}
}

// RenderStatus renders err with the given status
func RenderStatus(w http.ResponseWriter, statusCode int, err error) {
	RenderErrorWithCode(w, statusCode, err, "")
}

// RenderErrorWithCode renders an error with a specific error code
func RenderErrorWithCode(w http.ResponseWriter, statusCode int, err error, code string) {
	// Generate error code from status if not provided
	if code == "" {
		code = errorCodeFromStatus(statusCode)
	}

	RenderJSON(w, statusCode, &ErrorResponse{
		Error:   "error",
		Message: err.Error(),
		Code:    code,
	})
}

// RenderErrorWithDetails renders an error with additional details
func RenderErrorWithDetails(w http.ResponseWriter, statusCode int, err error, details map[string]interface{}) {
	RenderJSON(w, statusCode, &ErrorResponse{
		Error:   "error",
		Message: err.Error(),
		Code:    errorCodeFromStatus(statusCode),
		Details: details,
	})
}

// RenderValidationError renders validation errors
func RenderValidationError(w http.ResponseWriter, validationErr *validation.ValidationErrors) {
	RenderJSON(w, http.StatusUnprocessableEntity, &ValidationErrorResponse{
		Error:   "validation_failed",
		Message: "The request contains invalid data",
		Code:    "validation_error",
		Fields:  validationErr.Fields,
	})
}

// RenderBadRequest renders a 400 Bad Request error
func RenderBadRequest(w http.ResponseWriter, message string) {
	RenderStatus(w, http.StatusBadRequest, fmt.Errorf("%s", message))
}

// RenderNotFound renders a 404 Not Found error
func RenderNotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RenderStatus(w, http.StatusNotFound, fmt.Errorf("%s", message))
}

// RenderMethodNotAllowed renders a 405 Method Not Allowed error
func RenderMethodNotAllowed(w http.ResponseWriter) {
	RenderStatus(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
}

// RenderInternalError renders a 500 Internal Server Error
func RenderInternalError(w http.ResponseWriter, err error) {
	message := "Internal server error"
	if err != nil {
		message = err.Error()
	}
	RenderStatus(w, http.StatusInternalServerError, fmt.Errorf("%s", message))
}

// errorCodeFromStatus maps HTTP status codes to error codes
func errorCodeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusConflict:
		return "conflict"
	case http.StatusRequestEntityTooLarge:
		return "request_too_large"
	case http.StatusUnsupportedMediaType:
		return "unsupported_media_type"
	case http.StatusUnprocessableEntity:
		return "unprocessable_entity"
	case http.StatusInternalServerError:
		return "internal_error"
	case http.StatusServiceUnavailable:
		return "service_unavailable"
	default:
		return "error"
	}
}
