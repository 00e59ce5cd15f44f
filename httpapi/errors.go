package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MrEthical07/sessionauth"
)

// Status tokens carried in the error envelope.
const (
	StatusUnauthenticated   = "UNAUTHENTICATED"
	StatusPermissionDenied  = "PERMISSION_DENIED"
	StatusNotFound          = "NOT_FOUND"
	StatusAlreadyExists     = "ALREADY_EXISTS"
	StatusInvalidArgument   = "INVALID_ARGUMENT"
	StatusResourceExhausted = "RESOURCE_EXHAUSTED"
	StatusInternal          = "INTERNAL"
)

const internalMessage = "Internal server error"

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// WriteError writes the error envelope
//
//	{"error":{"code":<status>,"message":<message>,"status":<token>}}
//
// deriving the token from statusCode.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error: errorDetail{
			Code:    statusCode,
			Message: message,
			Status:  statusToken(statusCode),
		},
	})
}

func statusToken(statusCode int) string {
	switch statusCode {
	case http.StatusUnauthorized:
		return StatusUnauthenticated
	case http.StatusForbidden:
		return StatusPermissionDenied
	case http.StatusNotFound:
		return StatusNotFound
	case http.StatusConflict:
		return StatusAlreadyExists
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return StatusInvalidArgument
	case http.StatusTooManyRequests:
		return StatusResourceExhausted
	default:
		return StatusInternal
	}
}

// ErrorRenderer returns a handler that turns engine errors into the error
// envelope. Domain errors are logged at debug level. Errors without a domain
// kind are logged as errors and answered with a generic 500.
func ErrorRenderer(logger *slog.Logger) func(http.ResponseWriter, *http.Request, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request, err error) {
		var appErr *sessionauth.Error
		if errors.As(err, &appErr) && appErr.Kind != sessionauth.KindInternal {
			args := append([]any{"method", r.Method, "path", r.URL.Path}, appErr.LogArgs()...)
			logger.DebugContext(r.Context(), "request rejected", args...)
			WriteError(w, appErr.Kind.HTTPStatus(), appErr.Detail)
			return
		}

		logger.ErrorContext(r.Context(), "unhandled error",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", sessionauth.RequestIDFromContext(r.Context()),
			"error", err,
		)
		WriteError(w, http.StatusInternalServerError, internalMessage)
	}
}
