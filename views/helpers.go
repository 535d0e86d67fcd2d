package views

import (
	"context"

	"github.com/AdamBeresnev/funnyjoke/internal/middleware"
	users "github.com/AdamBeresnev/funnyjoke/internal/user"
)

// GetUser returns the signed-in user, or nil for anonymous requests.
func GetUser(ctx context.Context) *users.User {
	return middleware.GetAuthenticatedUser(ctx)
}

func linkedProviders(user *users.User) []users.Provider {
	var linked []users.Provider
	for _, p := range users.SocialProviders {
		if user.ProviderID(p) != nil {
			linked = append(linked, p)
		}
	}
	return linked
}

func providerName(p users.Provider) string {
	switch p {
	case users.Google:
		return "Google"
	case users.Facebook:
		return "Facebook"
	case users.Apple:
		return "Apple"
	}
	return p.String()
}
