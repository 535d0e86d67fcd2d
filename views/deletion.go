package views

import (
	"context"

	"github.com/a-h/templ"
)

// DataDeletionPage explains how to remove an account.
func DataDeletionPage() templ.Component {
	return Layout("Data deletion", component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<section class="card"><h1>Deleting your data</h1>`)
		h.raw(`<p>If you signed in with Facebook, remove FunnyJoke from your Facebook settings under `)
		h.raw(`<em>Apps and Websites</em> and choose to delete your activity. Facebook notifies us and `)
		h.raw(`your account is removed automatically. You will receive a confirmation code you can check here.</p>`)
		h.raw(`<p>For accounts created with email, Google or Apple, contact support from the address on the account `)
		h.raw(`and we will delete it.</p></section>`)
	}))
}

func DeletionStatusPage(code string, failed bool) templ.Component {
	return Layout("Deletion status", component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<section class="card"><h1>Deletion request</h1><p>Confirmation code: <code>`)
		h.text(code)
		h.raw(`</code></p>`)
		if failed {
			h.raw(`<p class="flash" role="alert">We could not process this request automatically. `)
			h.raw(`Please contact support and quote the code above.</p>`)
		} else {
			h.raw(`<p>Your data has been deleted. Nothing linked to your Facebook login remains in our records.</p>`)
		}
		h.raw(`</section>`)
	}))
}
