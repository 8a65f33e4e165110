package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/cleared-dev/spendview/internal/metrics"
	"github.com/cleared-dev/spendview/internal/tracker"
)

// Error codes returned in ErrorBody.Code.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeInvalidRange = "INVALID_RANGE"
	CodeIngest       = "INGEST_ERROR"
	CodeRateLimit    = "RATE_LIMITED"
	CodeTooLarge     = "UPLOAD_TOO_LARGE"
	CodeNotFound     = "NOT_FOUND"
	CodeInternal     = "INTERNAL_ERROR"
	CodeHTTP         = "HTTP_ERROR"
)

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorResponse is the envelope for every error.
type ErrorResponse struct {
	Error     ErrorBody `json:"error"`
	RequestID string    `json:"request_id,omitempty"`
}

// ingestError marks a pipeline failure caused by uploaded content.
type ingestError struct{ err error }

func (e ingestError) Error() string { return e.err.Error() }
func (e ingestError) Unwrap() error { return e.err }

// ErrorHandler formats errors as ErrorResponse, logs them and counts them.
func ErrorHandler(logger *slog.Logger, m *metrics.Metrics) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := classify(err)

		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request().Context(), level, "request failed",
			"request_id", GetRequestID(c),
			"status", status,
			"code", body.Code,
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"error", err.Error(),
		)
		m.RecordAPIError(c.Path(), strconv.Itoa(status))

		resp := ErrorResponse{Error: body, RequestID: GetRequestID(c)}
		if sendErr := c.JSON(status, resp); sendErr != nil {
			logger.Error("failed to send error response", "request_id", resp.RequestID, "error", sendErr)
		}
	}
}

func classify(err error) (int, ErrorBody) {
	var (
		httpErr   *echo.HTTPError
		validErrs validator.ValidationErrors
		ingestErr ingestError
	)
	switch {
	case errors.As(err, &validErrs):
		fields := make(map[string]string, len(validErrs))
		for _, fe := range validErrs {
			fields[fe.Field()] = validationMessage(fe)
		}
		return http.StatusBadRequest, ErrorBody{Code: CodeValidation, Message: "invalid request", Fields: fields}
	case errors.Is(err, tracker.ErrInvalidRange):
		return http.StatusBadRequest, ErrorBody{Code: CodeInvalidRange, Message: err.Error()}
	case errors.As(err, &ingestErr):
		return http.StatusUnprocessableEntity, ErrorBody{Code: CodeIngest, Message: ingestErr.Error()}
	case errors.As(err, &httpErr):
		return httpErr.Code, ErrorBody{Code: codeForStatus(httpErr.Code), Message: httpMessage(httpErr)}
	default:
		return http.StatusInternalServerError, ErrorBody{Code: CodeInternal, Message: "internal server error"}
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeValidation
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusRequestEntityTooLarge:
		return CodeTooLarge
	case http.StatusTooManyRequests:
		return CodeRateLimit
	case http.StatusInternalServerError:
		return CodeInternal
	default:
		return CodeHTTP
	}
}

func httpMessage(e *echo.HTTPError) string {
	if s, ok := e.Message.(string); ok {
		return s
	}
	return http.StatusText(e.Code)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "failed validation for '" + fe.Tag() + "'"
	}
}
