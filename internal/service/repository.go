package service

import (
	"context"

	users "github.com/AdamBeresnev/funnyjoke/internal/user"
	"github.com/google/uuid"
)

// UserRepository is the identity store. Implementations live in internal/store and
// must return store.ErrNotFound for missing users and store.ErrEmailTaken when a
// write would break email uniqueness.
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*users.User, error)
	FindByEmail(ctx context.Context, email string) (*users.User, error)
	FindByUsername(ctx context.Context, username string) (*users.User, error)
	FindByProviderID(ctx context.Context, provider users.Provider, providerID string) (*users.User, error)
	Create(ctx context.Context, user *users.User) error
	Update(ctx context.Context, user *users.User) error
	DeleteByProviderID(ctx context.Context, provider users.Provider, providerID string) (int64, error)
}
