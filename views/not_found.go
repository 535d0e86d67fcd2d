package views

import (
	"context"

	"github.com/a-h/templ"
)

func NotFoundPage() templ.Component {
	return Layout("Not found", component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<section class="card"><h1>Page not found</h1>`)
		h.raw(`<p>The page you were looking for does not exist.</p>`)
		if GetUser(ctx) != nil {
			h.raw(`<p><a href="/profile">Back to your profile</a></p>`)
		} else {
			h.raw(`<p><a href="/login">Log in</a></p>`)
		}
		h.raw(`</section>`)
	}))
}
