package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/AdamBeresnev/funnyjoke/internal/apperror"
	"github.com/AdamBeresnev/funnyjoke/internal/config"
	"github.com/AdamBeresnev/funnyjoke/internal/httputil"
	"github.com/AdamBeresnev/funnyjoke/internal/session"
	users "github.com/AdamBeresnev/funnyjoke/internal/user"
	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/apple"
	"github.com/markbates/goth/providers/facebook"
	"github.com/markbates/goth/providers/google"
)

const UserIDKey users.ContextKey = "userID"

// appleSecretLifetime stays under Apple's six month limit on client secrets.
const appleSecretLifetime = 150 * 24 * time.Hour

type userLoader interface {
	GetUser(ctx context.Context, id uuid.UUID) (*users.User, error)
}

// InitAuth registers every provider that has credentials configured and
// returns the names of the ones that were enabled.
func InitAuth(cfg *config.Config) []string {
	gothStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	gothStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}
	if cfg.IsProduction() {
		// Apple posts the callback cross-site, Lax would drop the state cookie
		gothStore.Options.SameSite = http.SameSiteNoneMode
	}
	gothic.Store = gothStore

	var providers []goth.Provider
	var enabled []string

	if cfg.Google.Enabled() {
		providers = append(providers, google.New(
			cfg.Google.ClientID,
			cfg.Google.ClientSecret,
			cfg.CallbackURL("/auth/google/callback"),
			"email", "profile",
		))
		enabled = append(enabled, users.Google.String())
	}

	if cfg.Facebook.Enabled() {
		providers = append(providers, facebook.New(
			cfg.Facebook.ClientID,
			cfg.Facebook.ClientSecret,
			cfg.CallbackURL("/auth/facebook/callback"),
			"email", "public_profile",
		))
		enabled = append(enabled, users.Facebook.String())
	}

	if cfg.Apple.Enabled() {
		p, err := newAppleProvider(cfg)
		if err != nil {
			slog.Error("apple sign-in disabled", "error", err)
		} else {
			providers = append(providers, p)
			enabled = append(enabled, users.Apple.String())
		}
	}

	if len(providers) == 0 {
		slog.Warn("no OAuth providers configured; only local login is available")
		return nil
	}

	goth.UseProviders(providers...)
	slog.Info("goth providers initialized", "providers", enabled)
	return enabled
}

func newAppleProvider(cfg *config.Config) (goth.Provider, error) {
	now := time.Now()
	exp := now.Add(appleSecretLifetime)
	secret, err := apple.MakeSecret(apple.SecretParams{
		PKCS8PrivateKey: cfg.Apple.PrivateKey,
		TeamId:          cfg.Apple.TeamID,
		KeyId:           cfg.Apple.KeyID,
		ClientId:        cfg.Apple.ClientID,
		Iat:             int(now.Unix()),
		Exp:             int(exp.Unix()),
	})
	if err != nil {
		return nil, err
	}
	return apple.New(
		cfg.Apple.ClientID,
		*secret,
		cfg.CallbackURL("/auth/apple/callback"),
		nil,
		apple.ScopeName, apple.ScopeEmail,
	), nil
}

// LoadAuthenticatedUser puts the session user into the request context when
// there is one. Stale or malformed session ids are dropped; store failures
// fail the request and keep the session intact.
func LoadAuthenticatedUser(sessionManager *scs.SessionManager, loader userLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userIDStr := sessionManager.GetString(r.Context(), session.UserIDKey)
			if userIDStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := uuid.Parse(userIDStr)
			if err != nil {
				sessionManager.Remove(r.Context(), session.UserIDKey)
				next.ServeHTTP(w, r)
				return
			}

			user, err := loader.GetUser(r.Context(), userID)
			if errors.Is(err, apperror.ErrNotFound) {
				slog.Warn("session user no longer exists", "userID", userIDStr)
				sessionManager.Remove(r.Context(), session.UserIDKey)
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				httputil.Error(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			ctx = context.WithValue(ctx, users.UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth must run after LoadAuthenticatedUser. Browsers navigating with
// GET are sent to the login page, everything else gets a 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetAuthenticatedUser(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}

		if r.Method == http.MethodGet && !httputil.WantsJSON(r) {
			http.Redirect(w, r, httputil.LoginURL(r.URL.RequestURI()), http.StatusFound)
			return
		}
		if httputil.WantsJSON(r) {
			httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "Authentication required"})
			return
		}
		http.Error(w, "Authentication required", http.StatusUnauthorized)
	})
}

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	val := ctx.Value(UserIDKey)
	if val == nil {
		return uuid.Nil, false
	}

	id, ok := val.(uuid.UUID)
	return id, ok
}

func GetAuthenticatedUser(ctx context.Context) *users.User {
	val := ctx.Value(users.UserKey)
	if val == nil {
		return nil
	}
	user, ok := val.(*users.User)
	if !ok {
		return nil
	}
	return user
}
