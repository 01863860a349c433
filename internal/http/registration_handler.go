package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/sanshin-calendar/internal/application"
	"github.com/example/sanshin-calendar/internal/calendar"
)

type registrationService interface {
	Submit(ctx context.Context, params application.SubmitRegistrationParams) (calendar.Registration, error)
	Cancel(ctx context.Context, params application.CancelRegistrationParams) error
	Identity(ctx context.Context, clientID string) (application.Identity, error)
	ForgetIdentity(ctx context.Context, clientID string) error
}

// RegistrationHandler serves signups, cancellations and the remembered identity.
type RegistrationHandler struct {
	service   registrationService
	responder responder
	logger    *slog.Logger
}

func NewRegistrationHandler(service registrationService, logger *slog.Logger) *RegistrationHandler {
	base := defaultLogger(logger)
	return &RegistrationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *RegistrationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "RegistrationHandler", operation, attrs...)
}

func (h *RegistrationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req submitRegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Submit", "error_kind", codeBadRequest).ErrorContext(r.Context(), "failed to decode registration", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, codeBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Submit", "target_id", req.TargetID)
	registration, err := h.service.Submit(r.Context(), application.SubmitRegistrationParams{
		TargetID: strings.TrimSpace(req.TargetID),
		Name:     req.Name,
		Email:    req.Email,
		Color:    req.Color,
		ClientID: ClientIDFromContext(r.Context()),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "registration failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("registration_id", registration.ID).InfoContext(r.Context(), "registration created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, registrationResponse{Registration: toRegistrationDTO(registration)})
}

// Cancel accepts ?email=; without it the identity remembered for the device is used.
func (h *RegistrationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	registrationID, ok := PathIDFromContext(r.Context())
	if !ok || strings.TrimSpace(registrationID) == "" {
		h.log(r.Context(), "Cancel", "error_kind", codeBadRequest).ErrorContext(r.Context(), "missing registration id for cancel")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, codeBadRequest, nil)
		return
	}

	logger := h.log(r.Context(), "Cancel", "registration_id", registrationID)
	err := h.service.Cancel(r.Context(), application.CancelRegistrationParams{
		RegistrationID: registrationID,
		RequesterEmail: r.URL.Query().Get("email"),
		ClientID:       ClientIDFromContext(r.Context()),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "cancel failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "registration cancelled")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *RegistrationHandler) Identity(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "Identity")
	identity, err := h.service.Identity(r.Context(), ClientIDFromContext(r.Context()))
	if err != nil {
		logger.InfoContext(r.Context(), "identity unavailable", "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, identityDTO{
		Name:  identity.Name,
		Email: identity.Email,
		Color: identity.Color,
	})
}

func (h *RegistrationHandler) ForgetIdentity(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "ForgetIdentity")
	if err := h.service.ForgetIdentity(r.Context(), ClientIDFromContext(r.Context())); err != nil {
		logger.ErrorContext(r.Context(), "forget identity failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "identity forgotten")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type submitRegistrationRequest struct {
	TargetID string `json:"targetId"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Color    string `json:"color"`
}

type registrationResponse struct {
	Registration registrationDTO `json:"registration"`
}

type identityDTO struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Color string `json:"color"`
}
