package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/example/sanshin-calendar/internal/application"
	"github.com/example/sanshin-calendar/internal/logging"
)

// ClientCookieName holds the random per-device id that keys the remembered identity.
const ClientCookieName = "calendar_client"

const clientCookieMaxAge = 365 * 24 * 60 * 60

var errMissingAdminToken = errors.New("missing bearer token")

// AdminTokenValidator checks admin bearer tokens.
type AdminTokenValidator interface {
	ValidateToken(ctx context.Context, token string) (application.AdminPrincipal, error)
}

// RequireAdmin rejects requests without a valid admin bearer token.
func RequireAdmin(validator AdminTokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responder.writeError(r.Context(), w, http.StatusUnauthorized, "unauthorized", errMissingAdminToken)
				return
			}

			principal, err := validator.ValidateToken(r.Context(), token)
			if err != nil {
				responder.loggerFor(r.Context()).WarnContext(r.Context(), "admin token rejected", "error", err, "error_kind", application.ErrorKind(err))
				responder.handleServiceError(r.Context(), w, err)
				return
			}

			ctx := ContextWithAdmin(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < len("Bearer ") || !strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[len("Bearer "):])
}

// ClientIdentity makes sure every request carries a client id, issuing the
// cookie on first contact. Malformed cookie values are replaced.
func ClientIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := ""
		if cookie, err := r.Cookie(ClientCookieName); err == nil {
			if parsed, err := uuid.Parse(cookie.Value); err == nil {
				clientID = parsed.String()
			}
		}
		if clientID == "" {
			clientID = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     ClientCookieName,
				Value:    clientID,
				Path:     "/",
				MaxAge:   clientCookieMaxAge,
				HttpOnly: true,
				Secure:   r.TLS != nil,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(ContextWithClientID(r.Context(), clientID)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := logging.ContextWithLogger(r.Context(), logger)
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(recorder, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "status", recorder.status, "duration", time.Since(start))
		})
	}
}
