package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/sanshin-calendar/internal/application"
	"github.com/example/sanshin-calendar/internal/calendar"
)

type calendarService interface {
	Sessions(ctx context.Context) ([]calendar.SessionWithRegistrations, error)
	Month(ctx context.Context, year, month int) ([]calendar.SessionWithRegistrations, error)
}

// CalendarHandler serves the public merged views.
type CalendarHandler struct {
	service   calendarService
	now       func() time.Time
	responder responder
	logger    *slog.Logger
}

func NewCalendarHandler(service calendarService, now func() time.Time, logger *slog.Logger) *CalendarHandler {
	if now == nil {
		now = time.Now
	}
	base := defaultLogger(logger)
	return &CalendarHandler{service: service, now: now, responder: newResponder(base), logger: base}
}

func (h *CalendarHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "CalendarHandler", operation, attrs...)
}

func (h *CalendarHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "Sessions")
	views, err := h.service.Sessions(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "session list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(views)).InfoContext(r.Context(), "sessions listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, sessionViewsResponse{Sessions: toSessionViewDTOs(views)})
}

// Month serves ?year=&month=, defaulting to the current month. Non-numeric
// values fall through to the service range validation.
func (h *CalendarHandler) Month(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	now := h.now()
	year := queryInt(r, "year", now.Year())
	month := queryInt(r, "month", int(now.Month()))
	logger := h.log(r.Context(), "Month", "year", year, "month", month)

	views, err := h.service.Month(r.Context(), year, month)
	if err != nil {
		logger.ErrorContext(r.Context(), "month view failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(views)).InfoContext(r.Context(), "month listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, monthResponse{
		Year:     year,
		Month:    month,
		Sessions: toSessionViewDTOs(views),
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return value
}

type sessionViewsResponse struct {
	Sessions []sessionViewDTO `json:"sessions"`
}

type monthResponse struct {
	Year     int              `json:"year"`
	Month    int              `json:"month"`
	Sessions []sessionViewDTO `json:"sessions"`
}

type sessionViewDTO struct {
	sessionDTO
	Classes            []classViewDTO    `json:"classes"`
	EventRegistrations []registrationDTO `json:"eventRegistrations,omitempty"`
}

type classViewDTO struct {
	classDTO
	Registrations []registrationDTO `json:"registrations"`
}

// registrationDTO is the public form; emails are left out of shared views.
type registrationDTO struct {
	ID        string `json:"id"`
	SessionID string `json:"sessionId"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Color     string `json:"color"`
	Timestamp int64  `json:"timestamp"`
}

func toSessionViewDTOs(views []calendar.SessionWithRegistrations) []sessionViewDTO {
	out := make([]sessionViewDTO, 0, len(views))
	for _, view := range views {
		dto := sessionViewDTO{sessionDTO: toSessionDTO(view.Session)}
		dto.Classes = make([]classViewDTO, 0, len(view.Slots))
		for _, slot := range view.Slots {
			dto.Classes = append(dto.Classes, classViewDTO{
				classDTO:      toClassDTO(slot.ClassSlot),
				Registrations: toPublicRegistrationDTOs(slot.Registrations),
			})
		}
		if view.IsSpecialEvent {
			dto.EventRegistrations = toPublicRegistrationDTOs(view.EventRegistrations)
		}
		out = append(out, dto)
	}
	return out
}

func toPublicRegistrationDTOs(registrations []calendar.Registration) []registrationDTO {
	out := make([]registrationDTO, 0, len(registrations))
	for _, reg := range registrations {
		dto := toRegistrationDTO(reg)
		dto.Email = ""
		out = append(out, dto)
	}
	return out
}

func toRegistrationDTO(reg calendar.Registration) registrationDTO {
	return registrationDTO{
		ID:        reg.ID,
		SessionID: reg.SessionID,
		Name:      reg.Name,
		Email:     reg.Email,
		Color:     reg.Color,
		Timestamp: reg.Timestamp,
	}
}
