package views

import (
	"context"

	users "github.com/AdamBeresnev/funnyjoke/internal/user"
	"github.com/AdamBeresnev/funnyjoke/internal/utils"
	"github.com/a-h/templ"
)

func ProfilePage(user *users.User, flashMsg string) templ.Component {
	return Layout("Profile", component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<section class="card profile">`)
		flash(h, flashMsg)
		if avatar := utils.OrZero(user.AvatarURL); avatar != "" {
			h.raw(`<img class="avatar" width="128" height="128" alt="" src="`)
			h.text(avatar)
			h.raw(`">`)
		}
		h.raw(`<h1>`)
		h.text(user.DisplayName())
		h.raw(`</h1><dl>`)
		if email := utils.OrZero(user.Email); email != "" {
			h.raw(`<dt>Email</dt><dd>`)
			h.text(email)
			h.raw(`</dd>`)
		}
		h.raw(`<dt>Member since</dt><dd>`)
		h.text(user.CreatedAt.Format("January 2, 2006"))
		h.raw(`</dd></dl><h2>Sign-in methods</h2><ul class="linked">`)
		if user.PasswordHash != nil {
			h.raw(`<li>Email and password</li>`)
		}
		for _, p := range linkedProviders(user) {
			h.raw(`<li>`)
			h.text(providerName(p))
			h.raw(`</li>`)
		}
		h.raw(`</ul></section>`)
	}))
}
