package users

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type ContextKey string

const UserKey ContextKey = "user"

const DefaultName = "New User"

type User struct {
	ID           uuid.UUID `db:"id"`
	Email        *string   `db:"email"`
	Username     *string   `db:"username"`
	Name         *string   `db:"name"`
	PasswordHash *string   `db:"password_hash"`
	AvatarURL    *string   `db:"avatar_url"`
	GoogleID     *string   `db:"google_id"`
	FacebookID   *string   `db:"facebook_id"`
	AppleID      *string   `db:"apple_id"`
	CreatedAt    time.Time `db:"created_at"`
}

// HasCredential reports whether the account has at least one way to log in.
func (u *User) HasCredential() bool {
	if u.PasswordHash != nil && *u.PasswordHash != "" {
		return true
	}
	for _, p := range SocialProviders {
		if id := u.ProviderID(p); id != nil && *id != "" {
			return true
		}
	}
	return false
}

func (u *User) DisplayName() string {
	if u.Name != nil && strings.TrimSpace(*u.Name) != "" {
		return *u.Name
	}
	if u.Email != nil {
		return LocalPart(*u.Email)
	}
	return DefaultName
}

// ProviderID returns the subject id linked for p, or nil.
func (u *User) ProviderID(p Provider) *string {
	switch p {
	case Google:
		return u.GoogleID
	case Facebook:
		return u.FacebookID
	case Apple:
		return u.AppleID
	}
	return nil
}

func (u *User) SetProviderID(p Provider, id string) {
	switch p {
	case Google:
		u.GoogleID = &id
	case Facebook:
		u.FacebookID = &id
	case Apple:
		u.AppleID = &id
	}
}

// NormalizeEmail trims and lower-cases an address. Empty input yields "".
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func LocalPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
