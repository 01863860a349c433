package bootstrap

import (
	"log/slog"
	"net/http"
	"time"

	httptransport "github.com/example/sanshin-calendar/internal/http"
)

// HandlerOptions tune the HTTP surface.
type HandlerOptions struct {
	// Retention is the default age cutoff for the expire job.
	Retention time.Duration
	Now       func() time.Time
}

// NewHandler mounts every service on the router with request logging, the
// client cookie and the admin gate.
func NewHandler(services Services, opts HandlerOptions, logger *slog.Logger) http.Handler {
	return httptransport.NewRouter(httptransport.RouterConfig{
		Calendar:      httptransport.NewCalendarHandler(services.Calendar, opts.Now, logger),
		Registrations: httptransport.NewRegistrationHandler(services.Registrations, logger),
		Sessions:      httptransport.NewSessionHandler(services.Sessions, logger),
		Admin: httptransport.NewAdminHandler(httptransport.AdminHandlerConfig{
			Admin:       services.Admin,
			Maintenance: services.Sessions,
			Retention:   opts.Retention,
			Now:         opts.Now,
			Logger:      logger,
		}),
		AdminGate:  httptransport.RequireAdmin(services.Admin, logger),
		Middleware: []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})
}

// Handler serves the app with its configured retention window.
func (a *App) Handler(logger *slog.Logger) http.Handler {
	return NewHandler(a.Services, HandlerOptions{Retention: a.Config.Retention}, logger)
}
