package views

import (
	"bytes"
	"context"
	"testing"
	"time"

	users "github.com/AdamBeresnev/funnyjoke/internal/user"
	"github.com/AdamBeresnev/funnyjoke/internal/utils"
	"github.com/a-h/templ"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, ctx context.Context, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(ctx, &buf))
	return buf.String()
}

func TestLoginPageEscapes(t *testing.T) {
	html := render(t, context.Background(), LoginPage(AuthPageData{
		Error:     `<script>alert("x")</script>`,
		Email:     `a"b@example.com`,
		ReturnTo:  "/profile?tab=1",
		Providers: []string{"google", "apple"},
	}))

	assert.NotContains(t, html, "<script>alert")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.Contains(t, html, `a&#34;b@example.com`)
	assert.Contains(t, html, `href="/auth/google?returnTo=%2Fprofile%3Ftab%3D1"`)
	assert.Contains(t, html, "Sign in with Apple")
	assert.Contains(t, html, `href="/login">Log in</a>`)
}

func TestProfilePageListsLinkedProviders(t *testing.T) {
	user := &users.User{
		ID:         uuid.New(),
		Email:      utils.Ptr("ada@example.com"),
		Name:       utils.Ptr("Ada"),
		FacebookID: utils.Ptr("fb-1"),
		AvatarURL:  utils.Ptr("https://graph.facebook.com/fb-1/picture?width=128&height=128&v=1"),
		CreatedAt:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	ctx := context.WithValue(context.Background(), users.UserKey, user)

	html := render(t, ctx, ProfilePage(user, ""))

	assert.Contains(t, html, "<h1>Ada</h1>")
	assert.Contains(t, html, "<li>Facebook</li>")
	assert.NotContains(t, html, "<li>Google</li>")
	assert.NotContains(t, html, "Email and password")
	assert.Contains(t, html, "picture?width=128&amp;height=128")
	assert.Contains(t, html, "March 1, 2026")
	assert.Contains(t, html, `action="/logout"`)
}

func TestDeletionStatusPage(t *testing.T) {
	ok := render(t, context.Background(), DeletionStatusPage("abc123", false))
	assert.Contains(t, ok, "<code>abc123</code>")
	assert.Contains(t, ok, "has been deleted")

	failed := render(t, context.Background(), DeletionStatusPage("abc123", true))
	assert.Contains(t, failed, "could not process")
}

func TestNotFoundPage(t *testing.T) {
	html := render(t, context.Background(), NotFoundPage())
	assert.Contains(t, html, "Page not found")
	assert.Contains(t, html, `<a href="/login">Log in</a></p>`)
}
