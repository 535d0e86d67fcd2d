package views

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// htmlWriter remembers the first write error so markup can be emitted
// without checking every call.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

// text writes s HTML-escaped.
func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *htmlWriter) render(ctx context.Context, c templ.Component) {
	if h.err != nil || c == nil {
		return
	}
	h.err = c.Render(ctx, h.w)
}

func component(fn func(ctx context.Context, h *htmlWriter)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		fn(ctx, h)
		return h.err
	})
}

func Layout(title string, body templ.Component) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>`)
		h.text(title)
		h.raw(` | FunnyJoke</title><link rel="stylesheet" href="/static/style.css"></head><body>`)

		h.raw(`<header class="nav"><a href="/" class="brand">FunnyJoke</a><nav>`)
		if user := GetUser(ctx); user != nil {
			h.raw(`<a href="/profile">`)
			h.text(user.DisplayName())
			h.raw(`</a><form method="post" action="/logout" class="inline"><button type="submit">Log out</button></form>`)
		} else {
			h.raw(`<a href="/login">Log in</a><a href="/register">Sign up</a>`)
		}
		h.raw(`</nav></header><main>`)

		h.render(ctx, body)

		h.raw(`</main><footer><a href="/data-deletion">Data deletion</a></footer></body></html>`)
	})
}

func flash(h *htmlWriter, msg string) {
	if msg == "" {
		return
	}
	h.raw(`<p class="flash" role="alert">`)
	h.text(msg)
	h.raw(`</p>`)
}
