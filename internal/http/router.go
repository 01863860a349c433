package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Calendar      *CalendarHandler
	Registrations *RegistrationHandler
	Sessions      *SessionHandler
	Admin         *AdminHandler
	// AdminGate guards every /admin route except login. Without it the admin
	// routes are not mounted.
	AdminGate  func(http.Handler) http.Handler
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.Calendar != nil {
		mux.HandleFunc("/calendar", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Calendar.Sessions(w, r)
		})
		mux.HandleFunc("/calendar/month", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Calendar.Month(w, r)
		})
	}

	if cfg.Registrations != nil {
		mux.HandleFunc("/registrations", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Registrations.Submit(w, r)
		})
		mux.HandleFunc("/registrations/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/registrations/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}
			cfg.Registrations.Cancel(w, r.WithContext(ContextWithPathID(r.Context(), id)))
		})
		mux.HandleFunc("/identity", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Registrations.Identity(w, r)
			case http.MethodDelete:
				cfg.Registrations.ForgetIdentity(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodDelete)
			}
		})
	}

	if cfg.Admin != nil {
		mux.HandleFunc("/admin/login", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Admin.Login(w, r)
		})
	}

	if cfg.AdminGate != nil {
		gated := func(handler http.HandlerFunc) http.Handler {
			return cfg.AdminGate(handler)
		}

		if cfg.Admin != nil {
			mux.Handle("/admin/password", gated(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPut {
					methodNotAllowed(w, http.MethodPut)
					return
				}
				cfg.Admin.UpdatePassword(w, r)
			}))
			mux.Handle("/admin/maintenance/", gated(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				switch strings.TrimPrefix(r.URL.Path, "/admin/maintenance/") {
				case "prune":
					cfg.Admin.Prune(w, r)
				case "expire":
					cfg.Admin.Expire(w, r)
				case "migrate-ids":
					cfg.Admin.MigrateIDs(w, r)
				default:
					http.NotFound(w, r)
				}
			}))
		}

		if cfg.Sessions != nil {
			mux.Handle("/admin/sessions", gated(func(w http.ResponseWriter, r *http.Request) {
				switch r.Method {
				case http.MethodGet:
					cfg.Sessions.List(w, r)
				case http.MethodPut:
					cfg.Sessions.Replace(w, r)
				case http.MethodPost:
					cfg.Sessions.Create(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodPost)
				}
			}))
			mux.Handle("/admin/sessions/series", gated(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				cfg.Sessions.CreateSeries(w, r)
			}))
			mux.Handle("/admin/sessions/", gated(func(w http.ResponseWriter, r *http.Request) {
				id := strings.TrimPrefix(r.URL.Path, "/admin/sessions/")
				if id == "" {
					http.NotFound(w, r)
					return
				}
				r = r.WithContext(ContextWithPathID(r.Context(), id))
				switch r.Method {
				case http.MethodPut:
					cfg.Sessions.Update(w, r)
				case http.MethodDelete:
					cfg.Sessions.Delete(w, r)
				default:
					methodNotAllowed(w, http.MethodPut, http.MethodDelete)
				}
			}))
		}
	}

	var handler http.Handler = ClientIdentity(Localize(mux))
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
