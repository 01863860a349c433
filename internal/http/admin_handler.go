package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/sanshin-calendar/internal/application"
	"github.com/example/sanshin-calendar/internal/calendar"
)

type adminService interface {
	Login(ctx context.Context, password string) (application.AdminToken, error)
	UpdatePassword(ctx context.Context, params application.UpdatePasswordParams) error
}

type maintenanceService interface {
	ExpireSessions(ctx context.Context, before time.Time) (application.ExpireResult, error)
	RepairIntegrity(ctx context.Context) (int, error)
	MigrateLegacyIDs(ctx context.Context) (application.MigrationReport, error)
}

// AdminHandler covers login, password changes and the maintenance jobs.
type AdminHandler struct {
	admin       adminService
	maintenance maintenanceService
	retention   time.Duration
	now         func() time.Time
	responder   responder
	logger      *slog.Logger
}

// AdminHandlerConfig wires the admin endpoints. Retention is the default
// cutoff age for the expire job.
type AdminHandlerConfig struct {
	Admin       adminService
	Maintenance maintenanceService
	Retention   time.Duration
	Now         func() time.Time
	Logger      *slog.Logger
}

func NewAdminHandler(cfg AdminHandlerConfig) *AdminHandler {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	base := defaultLogger(cfg.Logger)
	return &AdminHandler{
		admin:       cfg.Admin,
		maintenance: cfg.Maintenance,
		retention:   cfg.Retention,
		now:         now,
		responder:   newResponder(base),
		logger:      base,
	}
}

func (h *AdminHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AdminHandler", operation, attrs...)
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.admin == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Login", "error_kind", codeBadRequest).ErrorContext(r.Context(), "failed to decode login", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, codeBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Login")
	token, err := h.admin.Login(r.Context(), req.Password)
	if err != nil {
		logger.WarnContext(r.Context(), "admin login rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "admin logged in")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, loginResponse{
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (h *AdminHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.admin == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req updatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "UpdatePassword", "error_kind", codeBadRequest).ErrorContext(r.Context(), "failed to decode password update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, codeBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "UpdatePassword")
	err := h.admin.UpdatePassword(r.Context(), application.UpdatePasswordParams{
		NewPassword:  req.NewPassword,
		Confirmation: req.Confirmation,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "password update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "admin password updated")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Prune drops registrations whose target no longer exists.
func (h *AdminHandler) Prune(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.maintenance == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "Prune")
	removed, err := h.maintenance.RepairIntegrity(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "prune failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("removed", removed).InfoContext(r.Context(), "orphaned registrations pruned")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, pruneResponse{Removed: removed})
}

// Expire removes sessions dated before the cutoff. An empty body uses the
// configured retention window.
func (h *AdminHandler) Expire(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.maintenance == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req expireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.log(r.Context(), "Expire", "error_kind", codeBadRequest).ErrorContext(r.Context(), "failed to decode expire request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, codeBadRequest, errBadRequestBody)
		return
	}

	before := h.now().Add(-h.retention)
	if value := strings.TrimSpace(req.Before); value != "" {
		date, err := calendar.ParseDate(value)
		if err != nil {
			h.log(r.Context(), "Expire", "before", value).WarnContext(r.Context(), "invalid cutoff date", "error", err)
			h.responder.handleServiceError(r.Context(), w, &application.ValidationError{
				FieldErrors: map[string]string{"before": "must be a calendar date in YYYY-MM-DD format"},
			})
			return
		}
		before = time.Date(date.Year, time.Month(date.Month), date.Day, 0, 0, 0, 0, time.UTC)
	}

	logger := h.log(r.Context(), "Expire", "before", calendar.DateOf(before))
	result, err := h.maintenance.ExpireSessions(r.Context(), before)
	if err != nil {
		logger.ErrorContext(r.Context(), "expire failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("sessions", result.Sessions, "registrations", result.Registrations).InfoContext(r.Context(), "expired sessions removed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, expireResponse{
		Before:        calendar.DateOf(before),
		Sessions:      result.Sessions,
		Registrations: result.Registrations,
	})
}

// MigrateIDs rewrites legacy short ids into the dated form.
func (h *AdminHandler) MigrateIDs(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.maintenance == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "MigrateIDs")
	report, err := h.maintenance.MigrateLegacyIDs(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "id migration failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("sessions", report.Sessions, "classes", report.Classes, "registrations", report.Registrations).
		InfoContext(r.Context(), "legacy ids migrated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, migrateResponse{
		Sessions:      report.Sessions,
		Classes:       report.Classes,
		Registrations: report.Registrations,
		Mapping:       report.Mapping,
	})
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
}

type updatePasswordRequest struct {
	NewPassword  string `json:"newPassword"`
	Confirmation string `json:"confirmation"`
}

type pruneResponse struct {
	Removed int `json:"removed"`
}

type expireRequest struct {
	Before string `json:"before"`
}

type expireResponse struct {
	Before        string `json:"before"`
	Sessions      int    `json:"sessions"`
	Registrations int    `json:"registrations"`
}

type migrateResponse struct {
	Sessions      int               `json:"sessions"`
	Classes       int               `json:"classes"`
	Registrations int               `json:"registrations"`
	Mapping       map[string]string `json:"mapping,omitempty"`
}
