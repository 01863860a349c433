package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/sanshin-calendar/internal/application"
	"github.com/example/sanshin-calendar/internal/calendar"
)

type sessionService interface {
	ListSessions(ctx context.Context) ([]calendar.Session, error)
	ReplaceSessions(ctx context.Context, inputs []application.SessionInput) ([]calendar.Session, error)
	CreateSession(ctx context.Context, input application.SessionInput) (calendar.Session, error)
	UpdateSession(ctx context.Context, id string, input application.SessionInput) (calendar.Session, error)
	DeleteSession(ctx context.Context, id string) error
	CreateSeries(ctx context.Context, input application.SeriesInput) ([]calendar.Session, error)
}

// SessionHandler exposes the admin session editor.
type SessionHandler struct {
	service   sessionService
	responder responder
	logger    *slog.Logger
}

func NewSessionHandler(service sessionService, logger *slog.Logger) *SessionHandler {
	base := defaultLogger(logger)
	return &SessionHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *SessionHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "SessionHandler", operation, attrs...)
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "List")
	sessions, err := h.service.ListSessions(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "session list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(sessions)).InfoContext(r.Context(), "sessions listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listSessionsResponse{Sessions: toSessionDTOs(sessions)})
}

// Replace writes the whole caller-supplied collection.
func (h *SessionHandler) Replace(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req replaceSessionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Replace", "error_kind", codeBadRequest).ErrorContext(r.Context(), "failed to decode sessions", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, codeBadRequest, errBadRequestBody)
		return
	}

	inputs := make([]application.SessionInput, 0, len(req.Sessions))
	for _, session := range req.Sessions {
		inputs = append(inputs, session.toInput())
	}
	logger := h.log(r.Context(), "Replace", "count", len(inputs))

	sessions, err := h.service.ReplaceSessions(r.Context(), inputs)
	if err != nil {
		logger.ErrorContext(r.Context(), "session replace failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "sessions replaced")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listSessionsResponse{Sessions: toSessionDTOs(sessions)})
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", codeBadRequest).ErrorContext(r.Context(), "failed to decode session", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, codeBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "date", req.Date)
	session, err := h.service.CreateSession(r.Context(), req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "session creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("session_id", session.ID).InfoContext(r.Context(), "session created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, sessionResponse{Session: toSessionDTO(session)})
}

func (h *SessionHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sessionID, ok := PathIDFromContext(r.Context())
	if !ok || strings.TrimSpace(sessionID) == "" {
		h.log(r.Context(), "Update", "error_kind", codeBadRequest).ErrorContext(r.Context(), "missing session id for update")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, codeBadRequest, nil)
		return
	}

	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "session_id", sessionID, "error_kind", codeBadRequest).ErrorContext(r.Context(), "failed to decode session update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, codeBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "session_id", sessionID)
	session, err := h.service.UpdateSession(r.Context(), sessionID, req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "session update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "session updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, sessionResponse{Session: toSessionDTO(session)})
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sessionID, ok := PathIDFromContext(r.Context())
	if !ok || strings.TrimSpace(sessionID) == "" {
		h.log(r.Context(), "Delete", "error_kind", codeBadRequest).ErrorContext(r.Context(), "missing session id for delete")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, codeBadRequest, nil)
		return
	}

	logger := h.log(r.Context(), "Delete", "session_id", sessionID)
	if err := h.service.DeleteSession(r.Context(), sessionID); err != nil {
		logger.ErrorContext(r.Context(), "session delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "session deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// CreateSeries repeats a template session over a weekly or biweekly rule.
func (h *SessionHandler) CreateSeries(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req seriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "CreateSeries", "error_kind", codeBadRequest).ErrorContext(r.Context(), "failed to decode series", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, codeBadRequest, errBadRequestBody)
		return
	}

	input, ok := req.toInput()
	if !ok {
		h.responder.handleServiceError(r.Context(), w, &application.ValidationError{
			FieldErrors: map[string]string{"weekdays": "must name days of the week"},
		})
		return
	}

	logger := h.log(r.Context(), "CreateSeries", "starts_on", input.Template.Date, "ends_on", input.EndsOn)
	sessions, err := h.service.CreateSeries(r.Context(), input)
	if err != nil {
		logger.ErrorContext(r.Context(), "series creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(sessions)).InfoContext(r.Context(), "series created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, listSessionsResponse{Sessions: toSessionDTOs(sessions)})
}

type seriesRequest struct {
	Template      sessionRequest `json:"template"`
	EndsOn        string         `json:"endsOn"`
	IntervalWeeks int            `json:"intervalWeeks"`
	Weekdays      []string       `json:"weekdays"`
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

func (r seriesRequest) toInput() (application.SeriesInput, bool) {
	valid := true
	weekdays := make([]time.Weekday, 0, len(r.Weekdays))
	for _, name := range r.Weekdays {
		key := strings.ToLower(strings.TrimSpace(name))
		if len(key) > 3 {
			key = key[:3]
		}
		day, ok := weekdayNames[key]
		if !ok {
			valid = false
			continue
		}
		weekdays = append(weekdays, day)
	}
	return application.SeriesInput{
		Template:      r.Template.toInput(),
		EndsOn:        strings.TrimSpace(r.EndsOn),
		IntervalWeeks: r.IntervalWeeks,
		Weekdays:      weekdays,
	}, valid
}

type replaceSessionsRequest struct {
	Sessions []sessionRequest `json:"sessions"`
}

type sessionRequest struct {
	ID                   string         `json:"id"`
	Date                 string         `json:"date"`
	Location             string         `json:"location"`
	IsSpecialEvent       bool           `json:"isSpecialEvent"`
	Classes              []classRequest `json:"classes"`
	EventTitle           string         `json:"eventTitle"`
	EventDescription     string         `json:"eventDescription"`
	EventStartTime       string         `json:"eventStartTime"`
	EventEndTime         string         `json:"eventEndTime"`
	EventMaxParticipants int            `json:"eventMaxParticipants"`
}

type classRequest struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	StartTime       string `json:"startTime"`
	Duration        int    `json:"duration"`
	MaxParticipants int    `json:"maxParticipants"`
	Instructor      string `json:"instructor"`
}

func (r sessionRequest) toInput() application.SessionInput {
	classes := make([]application.ClassInput, 0, len(r.Classes))
	for _, class := range r.Classes {
		classes = append(classes, application.ClassInput{
			ID:              strings.TrimSpace(class.ID),
			Type:            strings.TrimSpace(class.Type),
			StartTime:       strings.TrimSpace(class.StartTime),
			Duration:        class.Duration,
			MaxParticipants: class.MaxParticipants,
			Instructor:      strings.TrimSpace(class.Instructor),
		})
	}
	return application.SessionInput{
		ID:                   strings.TrimSpace(r.ID),
		Date:                 strings.TrimSpace(r.Date),
		Location:             strings.TrimSpace(r.Location),
		IsSpecialEvent:       r.IsSpecialEvent,
		Classes:              classes,
		EventTitle:           strings.TrimSpace(r.EventTitle),
		EventDescription:     strings.TrimSpace(r.EventDescription),
		EventStartTime:       strings.TrimSpace(r.EventStartTime),
		EventEndTime:         strings.TrimSpace(r.EventEndTime),
		EventMaxParticipants: r.EventMaxParticipants,
	}
}

type sessionResponse struct {
	Session sessionDTO `json:"session"`
}

type listSessionsResponse struct {
	Sessions []sessionDTO `json:"sessions"`
}

type sessionDTO struct {
	ID                   string     `json:"id"`
	Date                 string     `json:"date"`
	Location             string     `json:"location"`
	IsSpecialEvent       bool       `json:"isSpecialEvent"`
	Classes              []classDTO `json:"classes"`
	EventTitle           string     `json:"eventTitle,omitempty"`
	EventDescription     string     `json:"eventDescription,omitempty"`
	EventStartTime       string     `json:"eventStartTime,omitempty"`
	EventEndTime         string     `json:"eventEndTime,omitempty"`
	EventMaxParticipants int        `json:"eventMaxParticipants,omitempty"`
}

type classDTO struct {
	ID              string `json:"id"`
	Date            string `json:"date"`
	Type            string `json:"type"`
	StartTime       string `json:"startTime"`
	Duration        int    `json:"duration"`
	MaxParticipants int    `json:"maxParticipants"`
	Instructor      string `json:"instructor,omitempty"`
}

func toSessionDTOs(sessions []calendar.Session) []sessionDTO {
	out := make([]sessionDTO, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, toSessionDTO(session))
	}
	return out
}

func toSessionDTO(session calendar.Session) sessionDTO {
	classes := make([]classDTO, 0, len(session.Classes))
	for _, class := range session.Classes {
		classes = append(classes, toClassDTO(class))
	}
	dto := sessionDTO{
		ID:             session.ID,
		Date:           session.Date,
		Location:       session.Location,
		IsSpecialEvent: session.IsSpecialEvent,
		Classes:        classes,
	}
	if session.IsSpecialEvent {
		dto.EventTitle = session.EventTitle
		dto.EventDescription = session.EventDescription
		dto.EventStartTime = session.EventStartTime
		dto.EventEndTime = session.EventEndTime
		dto.EventMaxParticipants = session.EventCapacity()
	}
	return dto
}

func toClassDTO(class calendar.ClassSlot) classDTO {
	return classDTO{
		ID:              class.ID,
		Date:            class.Date,
		Type:            string(class.Type),
		StartTime:       class.StartTime,
		Duration:        class.Duration,
		MaxParticipants: class.MaxParticipants,
		Instructor:      class.Instructor,
	}
}
