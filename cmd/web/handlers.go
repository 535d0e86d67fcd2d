package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/AdamBeresnev/funnyjoke/internal/apperror"
	"github.com/AdamBeresnev/funnyjoke/internal/httputil"
	"github.com/AdamBeresnev/funnyjoke/internal/service"
	"github.com/AdamBeresnev/funnyjoke/internal/session"
	users "github.com/AdamBeresnev/funnyjoke/internal/user"
	"github.com/AdamBeresnev/funnyjoke/views"
	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/markbates/goth/gothic"
)

const defaultReturnTo = "/profile"

type userResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email"`
	AvatarURL *string   `json:"avatar_url"`
}

func newUserResponse(u *users.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.DisplayName(),
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
	}
}

type credentialsForm struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	ReturnTo string `json:"returnTo"`
}

// readCredentials accepts both JSON bodies and url-encoded forms.
func readCredentials(w http.ResponseWriter, r *http.Request) (credentialsForm, error) {
	var f credentialsForm
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&f); err != nil {
			return f, apperror.Invalid("Invalid request body", err)
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return f, apperror.Invalid("Invalid form data", err)
		}
		f = credentialsForm{
			Name:     r.PostForm.Get("name"),
			Email:    r.PostForm.Get("email"),
			Password: r.PostForm.Get("password"),
			ReturnTo: r.PostForm.Get("returnTo"),
		}
	}
	f.ReturnTo = httputil.SanitizeReturnTo(f.ReturnTo, defaultReturnTo)
	return f, nil
}

func (app *application) authPage(page func(views.AuthPageData) templ.Component) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		returnTo := httputil.SanitizeReturnTo(r.URL.Query().Get("returnTo"), "")
		if views.GetUser(r.Context()) != nil {
			http.Redirect(w, r, httputil.SanitizeReturnTo(returnTo, defaultReturnTo), http.StatusFound)
			return
		}
		app.render(w, r, page(views.AuthPageData{
			Error:     session.PopFlash(app.sessions, r.Context()),
			Email:     app.sessions.PopString(r.Context(), session.FormEmailKey),
			Name:      app.sessions.PopString(r.Context(), session.FormNameKey),
			ReturnTo:  returnTo,
			Providers: app.providers,
		}))
	}
}

func (app *application) handleLogin(w http.ResponseWriter, r *http.Request) {
	form, err := readCredentials(w, r)
	if err != nil {
		app.authFailure(w, r, "/login", form, err)
		return
	}

	user, err := app.users.VerifyLocalCredentials(r.Context(), form.Email, form.Password)
	if err != nil {
		app.authFailure(w, r, "/login", form, err)
		return
	}

	app.signIn(w, r, user, http.StatusOK, form.ReturnTo)
}

func (app *application) handleRegister(w http.ResponseWriter, r *http.Request) {
	form, err := readCredentials(w, r)
	if err != nil {
		app.authFailure(w, r, "/register", form, err)
		return
	}

	user, err := app.users.Register(r.Context(), service.RegisterInput{
		Name:     form.Name,
		Email:    form.Email,
		Password: form.Password,
	})
	if err != nil {
		app.authFailure(w, r, "/register", form, err)
		return
	}

	app.signIn(w, r, user, http.StatusCreated, form.ReturnTo)
}

func (app *application) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	gothUser, err := gothic.CompleteUserAuth(w, gothic.GetContextWithProvider(r, provider))
	if err != nil {
		slog.Warn("oauth callback failed", "provider", provider, "error", err)
		app.sessions.Put(r.Context(), session.FlashKey, "Sign-in failed. Please try again.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err := gothic.Logout(w, r); err != nil {
		slog.Debug("failed to clear oauth state", "error", err)
	}

	user, err := app.users.FindOrCreateUserByProvider(r.Context(), gothUser)
	if err != nil {
		if errors.Is(err, apperror.ErrIntegrity) {
			httputil.Error(w, r, err)
			return
		}
		slog.Warn("social login rejected", "provider", provider, "error", err)
		app.sessions.Put(r.Context(), session.FlashKey, httputil.PublicMessage(err))
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	returnTo := httputil.SanitizeReturnTo(app.sessions.PopString(r.Context(), session.ReturnToKey), defaultReturnTo)
	if err := app.startSession(r, user); err != nil {
		httputil.InternalServerError(w, "Failed to start session", err)
		return
	}
	slog.Info("user signed in", "userID", user.ID, "provider", provider)
	http.Redirect(w, r, returnTo, http.StatusSeeOther)
}

func (app *application) handleDataDeletion(w http.ResponseWriter, r *http.Request) {
	var signed string
	if err := r.ParseForm(); err != nil {
		slog.Warn("unreadable data deletion request", "error", err)
	} else {
		signed = r.PostForm.Get("signed_request")
	}
	httputil.WriteJSON(w, http.StatusOK, app.deletion.ProcessDeletionRequest(r.Context(), signed))
}

// startSession rotates the session token before binding it to user.
func (app *application) startSession(r *http.Request, user *users.User) error {
	if err := app.sessions.RenewToken(r.Context()); err != nil {
		return err
	}
	app.sessions.Put(r.Context(), session.UserIDKey, user.ID.String())
	return nil
}

func (app *application) signIn(w http.ResponseWriter, r *http.Request, user *users.User, status int, returnTo string) {
	if err := app.startSession(r, user); err != nil {
		httputil.Error(w, r, apperror.Integrity("session unavailable", err))
		return
	}

	if httputil.WantsJSON(r) {
		httputil.WriteJSON(w, status, map[string]any{
			"ok":       true,
			"user":     newUserResponse(user),
			"redirect": returnTo,
		})
		return
	}
	http.Redirect(w, r, returnTo, http.StatusSeeOther)
}

// authFailure answers JSON clients directly and sends browsers back to the
// form with a flash message.
func (app *application) authFailure(w http.ResponseWriter, r *http.Request, page string, form credentialsForm, err error) {
	if httputil.WantsJSON(r) || httputil.StatusFor(err) == http.StatusInternalServerError {
		httputil.Error(w, r, err)
		return
	}

	app.sessions.Put(r.Context(), session.FlashKey, httputil.PublicMessage(err))
	// never the password
	if email := strings.TrimSpace(form.Email); email != "" {
		app.sessions.Put(r.Context(), session.FormEmailKey, email)
	}
	if name := strings.TrimSpace(form.Name); name != "" {
		app.sessions.Put(r.Context(), session.FormNameKey, name)
	}
	returnTo := form.ReturnTo
	target := page
	if returnTo != "" && returnTo != defaultReturnTo {
		target += "?returnTo=" + url.QueryEscape(returnTo)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// render writes a page and logs a failed render; the status line is already
// gone by then so nothing else can be sent.
func (app *application) render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	if err := views.Render(w, r, c); err != nil {
		slog.Error("failed to render page", "path", r.URL.Path, "error", err)
	}
}

func (app *application) renderStatus(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	if err := views.RenderStatus(w, r, status, c); err != nil {
		slog.Error("failed to render page", "path", r.URL.Path, "status", status, "error", err)
	}
}

func (app *application) notFound(w http.ResponseWriter, r *http.Request) {
	if httputil.WantsJSON(r) {
		httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorResponse{Error: "Not found"})
		return
	}
	app.renderStatus(w, r, http.StatusNotFound, views.NotFoundPage())
}
