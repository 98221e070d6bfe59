package web

// errors.go turns errors into JSON responses. The technical error is logged
// with the request ID; the client gets the message, action and code from
// core.MapError.

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/bookfund/internal/core"
	"github.com/JonMunkholm/bookfund/internal/domain"
	"github.com/JonMunkholm/bookfund/internal/importer"
	"github.com/JonMunkholm/bookfund/internal/inventory"
	"github.com/JonMunkholm/bookfund/internal/logging"
)

var (
	errRateLimited   = errors.New("rate limit exceeded")
	errNoFile        = errors.New("no file provided")
	errFileTooLarge  = errors.New("file too large")
	errInvalidNumber = errors.New("invalid number")
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
	// Details lists row errors of a failed import or rejected fields.
	Details []string `json:"details,omitempty"`
}

func newErrorResponse(err error) ErrorResponse {
	msg := core.MapError(err)
	resp := ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}

	var verrs core.ValidationErrors
	if errors.As(err, &verrs) {
		for _, v := range verrs {
			resp.Details = append(resp.Details, v.Error())
		}
	}
	var partial *importer.PartialError
	if errors.As(err, &partial) {
		for _, re := range partial.Errors {
			resp.Details = append(resp.Details, re.Error())
		}
	}
	return resp
}

// statusFor picks the HTTP status for err.
func statusFor(err error) int {
	var (
		structural *importer.StructuralError
		partial    *importer.PartialError
	)
	switch {
	case errors.As(err, &structural), errors.As(err, &partial):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrUnknownKind),
		errors.Is(err, core.ErrNoTemplate),
		errors.Is(err, importer.ErrUnknownBuilding),
		errors.Is(err, domain.ErrTitleNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidRequest),
		errors.Is(err, importer.ErrAcademicYearRequired),
		errors.Is(err, inventory.ErrInvalidCount),
		errors.Is(err, errInvalidNumber),
		errors.Is(err, errNoFile):
		return http.StatusBadRequest
	case errors.Is(err, errFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrNoStock), errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusConflict
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes its mapped JSON body with statusCode.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	resp := newErrorResponse(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", resp.Code,
	}
	if statusCode >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request rejected", attrs...)
	}

	if statusCode == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "30")
	}
	writeJSON(w, statusCode, resp)
}

// fail responds with the status statusFor picks.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	respondError(w, r, err, statusFor(err))
}

// requestID is exposed to clients so support can find the log lines.
func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
