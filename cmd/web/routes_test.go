package main

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/AdamBeresnev/funnyjoke/internal/config"
	"github.com/AdamBeresnev/funnyjoke/internal/httputil"
	"github.com/AdamBeresnev/funnyjoke/internal/service"
	"github.com/AdamBeresnev/funnyjoke/internal/session"
	"github.com/AdamBeresnev/funnyjoke/internal/store"
	users "github.com/AdamBeresnev/funnyjoke/internal/user"
	"github.com/AdamBeresnev/funnyjoke/internal/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testAppSecret = "fb-app-secret"

type testServer struct {
	*httptest.Server
	client *http.Client
	store  *store.MemoryUserStore
}

func newTestServer(t *testing.T, seed ...users.User) *testServer {
	t.Helper()

	cfg := &config.Config{
		Env:           "test",
		Port:          "8080",
		BaseURL:       "https://funnyjoke.example",
		SessionSecret: "test-secret",
		SessionStore:  "memory",
		UserStore:     "memory",
		Facebook:      config.OAuthClient{ClientID: "fb-app", ClientSecret: testAppSecret},
	}
	sm, err := session.New(cfg, session.Backends{})
	require.NoError(t, err)

	repo := store.NewMemoryUserStore(seed...)
	app := &application{
		cfg:      cfg,
		sessions: sm,
		users:    service.NewUserService(repo, service.NewPasswordHasher(bcrypt.MinCost)),
		deletion: service.NewDeletionService(repo, service.DeletionConfig{
			AppSecret: testAppSecret,
			BaseURL:   cfg.PublicURL(),
			MaxAge:    24 * time.Hour,
		}),
	}

	srv := httptest.NewServer(newRouter(app))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testServer{Server: srv, client: client, store: repo}
}

func (s *testServer) postForm(t *testing.T, path string, form url.Values, accept string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, s.URL+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	resp, err := s.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (s *testServer) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := s.client.Get(s.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func signRequest(t *testing.T, payload any) string {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	encoded := base64.RawURLEncoding.EncodeToString(body)
	mac := hmac.New(sha256.New, []byte(testAppSecret))
	mac.Write([]byte(encoded))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil)) + "." + encoded
}

func TestDataDeletionWebhook(t *testing.T) {
	linked := users.User{
		ID:         uuid.Must(uuid.NewV7()),
		Email:      utils.Ptr("fb@example.com"),
		FacebookID: utils.Ptr("10001"),
		CreatedAt:  time.Now(),
	}
	srv := newTestServer(t, linked)

	t.Run("deletes the linked user", func(t *testing.T) {
		signed := signRequest(t, map[string]any{
			"algorithm": "HMAC-SHA256",
			"issued_at": time.Now().Unix(),
			"user_id":   "10001",
		})
		resp := srv.postForm(t, "/facebook/data-deletion", url.Values{"signed_request": {signed}}, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.DeletionResult
		decodeJSON(t, resp, &result)
		assert.Len(t, result.ConfirmationCode, 32)
		assert.Equal(t, "https://funnyjoke.example/facebook/deletion-status/"+result.ConfirmationCode, result.URL)
		assert.Zero(t, srv.store.Len())
	})

	t.Run("bad signature still answers 200", func(t *testing.T) {
		resp := srv.postForm(t, "/facebook/data-deletion", url.Values{"signed_request": {"abc.def"}}, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.DeletionResult
		decodeJSON(t, resp, &result)
		assert.NotEmpty(t, result.ConfirmationCode)
		assert.True(t, strings.HasSuffix(result.URL, result.ConfirmationCode+"?error=1"))
	})

	t.Run("missing field", func(t *testing.T) {
		resp := srv.postForm(t, "/facebook/data-deletion", url.Values{}, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("codes are fresh", func(t *testing.T) {
		var a, b service.DeletionResult
		decodeJSON(t, srv.postForm(t, "/facebook/data-deletion", url.Values{}, ""), &a)
		decodeJSON(t, srv.postForm(t, "/facebook/data-deletion", url.Values{}, ""), &b)
		assert.NotEqual(t, a.ConfirmationCode, b.ConfirmationCode)
	})

	t.Run("status page", func(t *testing.T) {
		resp := srv.get(t, "/facebook/deletion-status/abc123?error=1")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestRegisterAndLoginJSON(t *testing.T) {
	srv := newTestServer(t)
	form := url.Values{
		"name":     {"Ada Lovelace"},
		"email":    {"Ada@Example.com"},
		"password": {"correct horse"},
	}

	resp := srv.postForm(t, "/register", form, "application/json")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		OK       bool         `json:"ok"`
		User     userResponse `json:"user"`
		Redirect string       `json:"redirect"`
	}
	decodeJSON(t, resp, &created)
	assert.True(t, created.OK)
	assert.Equal(t, "Ada Lovelace", created.User.Name)
	assert.Equal(t, "ada@example.com", utils.OrZero(created.User.Email))
	assert.Equal(t, "/profile", created.Redirect)

	resp = srv.postForm(t, "/register", form, "application/json")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var conflict httputil.ErrorResponse
	decodeJSON(t, resp, &conflict)
	assert.False(t, conflict.OK)
	assert.Equal(t, "An account with that email already exists", conflict.Error)

	wrongPassword := srv.postForm(t, "/login", url.Values{"email": {"ada@example.com"}, "password": {"wrong password"}}, "application/json")
	unknownEmail := srv.postForm(t, "/login", url.Values{"email": {"nobody@example.com"}, "password": {"wrong password"}}, "application/json")
	assert.Equal(t, http.StatusBadRequest, wrongPassword.StatusCode)
	assert.Equal(t, http.StatusBadRequest, unknownEmail.StatusCode)

	var a, b httputil.ErrorResponse
	decodeJSON(t, wrongPassword, &a)
	decodeJSON(t, unknownEmail, &b)
	assert.Equal(t, "Invalid email or password", a.Error)
	assert.Equal(t, a, b)

	resp = srv.postForm(t, "/login", url.Values{"email": {"ada@example.com"}, "password": {"correct horse"}}, "application/json")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLoginFormFlow(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	srv := newTestServer(t, users.User{
		ID:           uuid.Must(uuid.NewV7()),
		Email:        utils.Ptr("grace@example.com"),
		Name:         utils.Ptr("Grace"),
		PasswordHash: utils.Ptr(string(hash)),
		CreatedAt:    time.Now(),
	})

	resp := srv.get(t, "/profile")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login?returnTo=%2Fprofile", resp.Header.Get("Location"))

	resp = srv.postForm(t, "/login", url.Values{
		"email":    {"grace@example.com"},
		"password": {"nope"},
		"returnTo": {"/profile?tab=links"},
	}, "")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login?returnTo=%2Fprofile%3Ftab%3Dlinks", resp.Header.Get("Location"))

	resp = srv.get(t, "/login")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	page, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(page), `value="grace@example.com"`)
	assert.Contains(t, string(page), "Invalid email or password")
	assert.NotContains(t, string(page), "nope")

	// the submitted email is shown once
	resp = srv.get(t, "/login")
	page, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(page), `value="grace@example.com"`)

	resp = srv.postForm(t, "/login", url.Values{
		"email":    {"grace@example.com"},
		"password": {"hunter2hunter2"},
		"returnTo": {"//evil.example/steal"},
	}, "")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/profile", resp.Header.Get("Location"))

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/profile", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "application/json")
	resp, err = srv.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		User userResponse `json:"user"`
	}
	decodeJSON(t, resp, &body)
	assert.Equal(t, "Grace", body.User.Name)

	resp = srv.postForm(t, "/logout", url.Values{}, "")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	resp = srv.get(t, "/profile")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestUnknownProvider(t *testing.T) {
	srv := newTestServer(t)
	resp := srv.get(t, "/auth/myspace")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNotFoundPage(t *testing.T) {
	srv := newTestServer(t)
	resp := srv.get(t, "/no/such/page")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	page, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(page), "Page not found")
}

func TestRegisterFormKeepsValues(t *testing.T) {
	srv := newTestServer(t)
	resp := srv.postForm(t, "/register", url.Values{
		"name":     {"Ada"},
		"email":    {"ada@example.com"},
		"password": {"short"},
	}, "")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/register", resp.Header.Get("Location"))

	resp = srv.get(t, "/register")
	page, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(page), `name="name" maxlength="120" autocomplete="name" value="Ada"`)
	assert.Contains(t, string(page), `value="ada@example.com"`)
	assert.Contains(t, string(page), "Password must be at least 8 characters")
}
