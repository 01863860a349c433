package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/example/sanshin-calendar/internal/application"
	"github.com/example/sanshin-calendar/internal/logging"
)

const codeBadRequest = "bad_request"

var errBadRequestBody = errors.New("invalid request body")

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError writes the localized message for code.
func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, code string, err error) {
	if err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err, "error_kind", code)
	}
	r.writeJSON(ctx, w, status, errorResponse{Error: code, Message: errorMessage(ctx, code)})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, "unexpected", errors.New("unknown error"))
		return
	}

	code := application.ErrorKind(err)
	resp := errorResponse{Error: code, Message: errorMessage(ctx, code)}

	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		resp.Fields = localizeValidationErrors(LanguageFromContext(ctx), vErr)
	}
	r.writeJSON(ctx, w, statusForKind(code), resp)
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	return logging.FromContextOr(ctx, r.logger)
}

func statusForKind(code string) int {
	switch code {
	case "validation":
		return http.StatusUnprocessableEntity
	case "unauthorized", "invalid_credentials":
		return http.StatusUnauthorized
	case "forbidden":
		return http.StatusForbidden
	case "not_found":
		return http.StatusNotFound
	case "full", "already_registered", "admin_not_configured":
		return http.StatusConflict
	case "store_unavailable":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func localizeValidationErrors(lang string, vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateFieldMessage(lang, msg)
	}
	return translated
}

type errorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}
