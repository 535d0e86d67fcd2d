package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/AdamBeresnev/funnyjoke/internal/apperror"
	"github.com/AdamBeresnev/funnyjoke/internal/store"
	users "github.com/AdamBeresnev/funnyjoke/internal/user"
	"github.com/AdamBeresnev/funnyjoke/internal/utils"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/markbates/goth"
)

const invalidCredentialsMessage = "Invalid email or password"

// ErrInvalidCredentials is the only failure local login reports, whatever the cause.
var ErrInvalidCredentials = &apperror.AppError{Err: apperror.ErrValidation, Message: invalidCredentialsMessage}

var ErrEmailRegistered = apperror.Conflict("An account with that email already exists")

// SocialIdentity is what an OAuth login resolves to before it touches the store.
type SocialIdentity struct {
	Email      string
	Name       string
	AvatarURL  *string
	Provider   users.Provider
	ProviderID string
}

type RegisterInput struct {
	Name     string `validate:"max=120"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8,max=72"`
}

type UserService struct {
	store    UserRepository
	hasher   *PasswordHasher
	validate *validator.Validate
	avatar   AvatarOptions
	now      func() time.Time
}

func NewUserService(store UserRepository, hasher *PasswordHasher) *UserService {
	if hasher == nil {
		hasher = NewPasswordHasher(DefaultBcryptCost)
	}
	return &UserService{
		store:    store,
		hasher:   hasher,
		validate: validator.New(),
		now:      time.Now,
	}
}

// WithAvatarOptions sets the size and cache key used for derived avatars.
func (s *UserService) WithAvatarOptions(opts AvatarOptions) *UserService {
	s.avatar = opts
	return s
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*users.User, error) {
	user, err := s.store.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.NotFound("user", id.String())
	}
	if err != nil {
		return nil, storeFailure(err)
	}
	return user, nil
}

// FindOrCreateUserByProvider resolves a completed goth login to a local user.
func (s *UserService) FindOrCreateUserByProvider(ctx context.Context, gothUser goth.User) (*users.User, error) {
	provider, err := users.ParseProvider(gothUser.Provider)
	if err != nil {
		return nil, apperror.Invalid("Unsupported login provider", err)
	}

	profile := ProfileFromGoth(gothUser)
	return s.UpsertSocialUser(ctx, SocialIdentity{
		Email:      profile.PrimaryEmail(),
		Name:       profile.DisplayName,
		AvatarURL:  DeriveAvatarURL(provider, profile, s.avatar),
		Provider:   provider,
		ProviderID: profile.ID,
	})
}

// UpsertSocialUser finds the account for a social login, linking or creating as needed.
// An email match wins over a provider id match.
func (s *UserService) UpsertSocialUser(ctx context.Context, in SocialIdentity) (*users.User, error) {
	if !in.Provider.IsSocial() {
		return nil, apperror.ValidationFailed("provider", "Unsupported login provider")
	}
	in.ProviderID = strings.TrimSpace(in.ProviderID)
	if in.ProviderID == "" {
		return nil, apperror.ValidationFailed("provider_id", "Login provider returned no account id")
	}
	email := users.NormalizeEmail(in.Email)

	if email != "" {
		user, err := s.store.FindByEmail(ctx, email)
		if err == nil {
			return s.linkByEmail(ctx, user, in)
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, storeFailure(err)
		}
	}

	user, err := s.store.FindByProviderID(ctx, in.Provider, in.ProviderID)
	if err == nil {
		return s.refreshAvatar(ctx, user, in.AvatarURL)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, storeFailure(err)
	}

	user = s.newSocialUser(email, in)
	err = s.store.Create(ctx, user)
	if errors.Is(err, store.ErrEmailTaken) && email != "" {
		// A concurrent first login created the account; link to it instead.
		existing, findErr := s.store.FindByEmail(ctx, email)
		if findErr != nil {
			return nil, storeFailure(findErr)
		}
		return s.linkByEmail(ctx, existing, in)
	}
	if err != nil {
		return nil, storeFailure(err)
	}

	slog.Info("created social user", "user_id", user.ID, "provider", in.Provider.String())
	return user, nil
}

func (s *UserService) linkByEmail(ctx context.Context, user *users.User, in SocialIdentity) (*users.User, error) {
	if utils.StringOrNil(utils.OrZero(user.Name)) == nil {
		if name := utils.StringOrNil(in.Name); name != nil {
			user.Name = name
		}
	}
	if in.AvatarURL != nil {
		user.AvatarURL = utils.Clone(in.AvatarURL)
	}
	user.SetProviderID(in.Provider, in.ProviderID)

	if err := s.store.Update(ctx, user); err != nil {
		return nil, storeFailure(err)
	}
	return user, nil
}

func (s *UserService) refreshAvatar(ctx context.Context, user *users.User, avatar *string) (*users.User, error) {
	if avatar == nil || utils.OrZero(user.AvatarURL) == *avatar {
		return user, nil
	}
	user.AvatarURL = utils.Clone(avatar)
	if err := s.store.Update(ctx, user); err != nil {
		return nil, storeFailure(err)
	}
	return user, nil
}

func (s *UserService) newSocialUser(email string, in SocialIdentity) *users.User {
	user := &users.User{
		ID:        uuid.Must(uuid.NewV7()),
		Name:      utils.StringOrNil(in.Name),
		AvatarURL: utils.Clone(in.AvatarURL),
		CreatedAt: s.now().UTC(),
	}
	if email != "" {
		user.Email = utils.Ptr(email)
		user.Username = utils.Ptr(email)
	}
	if user.Name == nil {
		user.Name = utils.Ptr(defaultName(email))
	}
	user.SetProviderID(in.Provider, in.ProviderID)
	return user
}

// Register creates a local, password-based account.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*users.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = users.NormalizeEmail(in.Email)

	if err := s.validate.Struct(in); err != nil {
		return nil, registerValidationError(err)
	}

	_, err := s.store.FindByEmail(ctx, in.Email)
	if err == nil {
		return nil, ErrEmailRegistered
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, storeFailure(err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperror.Invalid("Password must be 72 bytes or fewer", err)
	}

	name := in.Name
	if name == "" {
		name = defaultName(in.Email)
	}
	user := &users.User{
		ID:           uuid.Must(uuid.NewV7()),
		Email:        utils.Ptr(in.Email),
		Username:     utils.Ptr(in.Email),
		Name:         utils.Ptr(name),
		PasswordHash: utils.Ptr(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			return nil, ErrEmailRegistered
		}
		return nil, storeFailure(err)
	}

	slog.Info("registered local user", "user_id", user.ID)
	return user, nil
}

// VerifyLocalCredentials checks an email/password pair. Unknown accounts,
// social-only accounts and wrong passwords all yield ErrInvalidCredentials.
func (s *UserService) VerifyLocalCredentials(ctx context.Context, email, password string) (*users.User, error) {
	email = users.NormalizeEmail(email)
	if email == "" {
		s.hasher.burn(password)
		return nil, ErrInvalidCredentials
	}

	user, err := s.findByEmailOrUsername(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		s.hasher.burn(password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, storeFailure(err)
	}

	hash := utils.OrZero(user.PasswordHash)
	if hash == "" {
		s.hasher.burn(password)
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Verify(hash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// findByEmailOrUsername falls back to username for accounts created before emails were stored.
func (s *UserService) findByEmailOrUsername(ctx context.Context, email string) (*users.User, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return s.store.FindByUsername(ctx, email)
	}
	return user, err
}

func defaultName(email string) string {
	if email != "" {
		if local := users.LocalPart(email); local != "" {
			return local
		}
	}
	return users.DefaultName
}

func storeFailure(err error) error {
	return apperror.Integrity("user store unavailable", err)
}

func registerValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.Invalid("Invalid registration details", err)
	}

	fe := verrs[0]
	switch fe.Field() {
	case "Email":
		if fe.Tag() == "required" {
			return apperror.ValidationFailed("email", "Email and password are required")
		}
		return apperror.ValidationFailed("email", "Please enter a valid email address")
	case "Password":
		switch fe.Tag() {
		case "required":
			return apperror.ValidationFailed("password", "Email and password are required")
		case "max":
			return apperror.ValidationFailed("password", "Password must be 72 bytes or fewer")
		}
		return apperror.ValidationFailed("password", "Password must be at least 8 characters")
	case "Name":
		return apperror.ValidationFailed("name", "Name is too long")
	}
	return apperror.ValidationFailed(strings.ToLower(fe.Field()), fmt.Sprintf("Invalid %s", strings.ToLower(fe.Field())))
}
