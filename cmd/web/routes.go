package main

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/AdamBeresnev/funnyjoke/internal/config"
	"github.com/AdamBeresnev/funnyjoke/internal/httputil"
	"github.com/AdamBeresnev/funnyjoke/internal/middleware"
	"github.com/AdamBeresnev/funnyjoke/internal/service"
	"github.com/AdamBeresnev/funnyjoke/internal/session"
	"github.com/AdamBeresnev/funnyjoke/views"
	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/markbates/goth/gothic"
)

type application struct {
	cfg       *config.Config
	sessions  *scs.SessionManager
	users     *service.UserService
	deletion  *service.DeletionService
	providers []string // enabled goth providers
}

func newRouter(app *application) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	// Serve static files
	fileServer := http.FileServer(http.Dir("./static"))
	r.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	// Facebook calls this server to server, no session needed
	r.Post("/facebook/data-deletion", app.handleDataDeletion)

	r.Group(func(r chi.Router) {
		r.Use(app.sessions.LoadAndSave)
		r.Use(middleware.LoadAuthenticatedUser(app.sessions, app.users))

		r.NotFound(app.notFound)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			if views.GetUser(r.Context()) != nil {
				http.Redirect(w, r, "/profile", http.StatusFound)
				return
			}
			http.Redirect(w, r, "/login", http.StatusFound)
		})

		r.Get("/login", app.authPage(views.LoginPage))
		r.Post("/login", app.handleLogin)
		r.Get("/register", app.authPage(views.RegisterPage))
		r.Post("/register", app.handleRegister)

		r.Post("/logout", func(w http.ResponseWriter, r *http.Request) {
			if userID, ok := middleware.GetUserIDFromContext(r.Context()); ok {
				slog.Info("user signed out", "userID", userID)
			}
			if err := app.sessions.Destroy(r.Context()); err != nil {
				httputil.InternalServerError(w, "Failed to destroy session", err)
				return
			}
			if httputil.WantsJSON(r) {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
		})

		r.Get("/auth/{provider}", func(w http.ResponseWriter, r *http.Request) {
			provider := chi.URLParam(r, "provider")
			if !slices.Contains(app.providers, provider) {
				slog.Warn("unknown login provider", "provider", provider)
				app.notFound(w, r)
				return
			}
			if returnTo := httputil.SanitizeReturnTo(r.URL.Query().Get("returnTo"), ""); returnTo != "" {
				app.sessions.Put(r.Context(), session.ReturnToKey, returnTo)
			}
			gothic.BeginAuthHandler(w, gothic.GetContextWithProvider(r, provider))
		})

		// Apple answers with a form post, the others with a redirect
		r.Get("/auth/{provider}/callback", app.handleOAuthCallback)
		r.Post("/auth/{provider}/callback", app.handleOAuthCallback)

		r.Get("/data-deletion", func(w http.ResponseWriter, r *http.Request) {
			app.render(w, r, views.DataDeletionPage())
		})

		r.Get("/facebook/deletion-status/{code}", func(w http.ResponseWriter, r *http.Request) {
			code := chi.URLParam(r, "code")
			failed := r.URL.Query().Get("error") == "1"
			app.render(w, r, views.DeletionStatusPage(code, failed))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Get("/profile", func(w http.ResponseWriter, r *http.Request) {
				user := middleware.GetAuthenticatedUser(r.Context())
				if httputil.WantsJSON(r) {
					httputil.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "user": newUserResponse(user)})
					return
				}
				app.render(w, r, views.ProfilePage(user, session.PopFlash(app.sessions, r.Context())))
			})
		})
	})

	return r
}
