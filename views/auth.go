package views

import (
	"context"
	"net/url"

	"github.com/a-h/templ"
)

type AuthPageData struct {
	Error     string
	Email     string
	Name      string
	ReturnTo  string
	Providers []string
}

var providerLabels = map[string]string{
	"google":   "Continue with Google",
	"facebook": "Continue with Facebook",
	"apple":    "Sign in with Apple",
}

func LoginPage(data AuthPageData) templ.Component {
	return Layout("Log in", component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<section class="card"><h1>Log in</h1>`)
		flash(h, data.Error)
		h.raw(`<form method="post" action="/login">`)
		returnToField(h, data.ReturnTo)
		h.raw(`<label>Email<input type="email" name="email" required autocomplete="email" value="`)
		h.text(data.Email)
		h.raw(`"></label>`)
		h.raw(`<label>Password<input type="password" name="password" required autocomplete="current-password"></label>`)
		h.raw(`<button type="submit">Log in</button></form>`)
		providerButtons(h, data)
		h.raw(`<p>No account yet? <a href="/register">Sign up</a></p></section>`)
	}))
}

func RegisterPage(data AuthPageData) templ.Component {
	return Layout("Sign up", component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<section class="card"><h1>Create an account</h1>`)
		flash(h, data.Error)
		h.raw(`<form method="post" action="/register">`)
		returnToField(h, data.ReturnTo)
		h.raw(`<label>Name<input type="text" name="name" maxlength="120" autocomplete="name" value="`)
		h.text(data.Name)
		h.raw(`"></label>`)
		h.raw(`<label>Email<input type="email" name="email" required autocomplete="email" value="`)
		h.text(data.Email)
		h.raw(`"></label>`)
		h.raw(`<label>Password<input type="password" name="password" required minlength="8" maxlength="72" autocomplete="new-password"></label>`)
		h.raw(`<button type="submit">Sign up</button></form>`)
		providerButtons(h, data)
		h.raw(`<p>Already registered? <a href="/login">Log in</a></p></section>`)
	}))
}

func returnToField(h *htmlWriter, returnTo string) {
	if returnTo == "" {
		return
	}
	h.raw(`<input type="hidden" name="returnTo" value="`)
	h.text(returnTo)
	h.raw(`">`)
}

func providerButtons(h *htmlWriter, data AuthPageData) {
	if len(data.Providers) == 0 {
		return
	}
	h.raw(`<div class="providers">`)
	for _, p := range data.Providers {
		href := "/auth/" + url.PathEscape(p)
		if data.ReturnTo != "" {
			href += "?returnTo=" + url.QueryEscape(data.ReturnTo)
		}
		label, ok := providerLabels[p]
		if !ok {
			label = "Continue with " + p
		}
		h.raw(`<a class="provider provider-`)
		h.text(p)
		h.raw(`" href="`)
		h.text(href)
		h.raw(`">`)
		h.text(label)
		h.raw(`</a>`)
	}
	h.raw(`</div>`)
}
