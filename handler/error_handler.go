package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/shopnotes/pkg/logger"
	"github.com/dmitrymomot/shopnotes/svc/plan"
)

// ErrorHandler handles errors from binding, handlers and rendering.
type ErrorHandler func(ctx Context, err error)

// logLevel logs plan refusals at Info and other client errors at Warn.
func logLevel(err error, status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case isPlanRefusal(err):
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}

func isPlanRefusal(err error) bool {
	if _, ok := plan.AsPlanError(err); ok {
		return true
	}
	var ae *plan.PlanAccessError
	return errors.As(err, &ae)
}

// NewErrorHandler logs err and writes it as a JSON envelope.
func NewErrorHandler(log *slog.Logger) ErrorHandler {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(logger.Component("error_handler"))

	return func(ctx Context, err error) {
		WriteError(log, ctx.ResponseWriter(), ctx.Request(), err)
	}
}

// WriteError is NewErrorHandler for plain net/http call sites such as
// middleware.
func WriteError(log *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	detail := ErrorToDetail(err, &status)

	log.LogAttrs(r.Context(), logLevel(err, status), "request error",
		logger.Error(err),
		slog.Int("status_code", status),
		slog.String("code", detail.Code),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	resp := jsonResponse{status: status, body: JSONResponse{Error: detail}}
	if renderErr := resp.Render(w, r); renderErr != nil {
		log.ErrorContext(r.Context(), "failed to render error response", logger.Error(renderErr))
	}
}
