package http

import (
	"context"

	"github.com/example/sanshin-calendar/internal/application"
)

type contextKey string

const (
	adminContextKey    contextKey = "admin"
	clientIDContextKey contextKey = "client_id"
	pathIDContextKey   contextKey = "path_id"
	languageContextKey contextKey = "language"
)

// ContextWithAdmin returns a derived context containing the validated admin token.
func ContextWithAdmin(ctx context.Context, principal application.AdminPrincipal) context.Context {
	return context.WithValue(ctx, adminContextKey, principal)
}

// AdminFromContext extracts the validated admin token from context if available.
func AdminFromContext(ctx context.Context) (application.AdminPrincipal, bool) {
	principal, ok := ctx.Value(adminContextKey).(application.AdminPrincipal)
	return principal, ok
}

// ContextWithClientID attaches the device identifier taken from the client cookie.
func ContextWithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDContextKey, clientID)
}

// ClientIDFromContext returns the device identifier, or "" outside ClientIdentity.
func ClientIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(clientIDContextKey).(string)
	return id
}

// ContextWithPathID injects the identifier resolved from the request path.
func ContextWithPathID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, pathIDContextKey, id)
}

// PathIDFromContext extracts an identifier previously associated with the context.
func PathIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(pathIDContextKey).(string)
	return id, ok
}

func ContextWithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, languageContextKey, lang)
}

// LanguageFromContext returns en, ja, or zh; en when Localize did not run.
func LanguageFromContext(ctx context.Context) string {
	if lang, ok := ctx.Value(languageContextKey).(string); ok && lang != "" {
		return lang
	}
	return langEnglish
}
