package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	users "github.com/AdamBeresnev/funnyjoke/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

type UserStore struct {
	db *sqlx.DB
}

const (
	getUserQuery           = "SELECT * FROM users WHERE id = ?"
	getUserByEmailQuery    = "SELECT * FROM users WHERE email = ?"
	getUserByUsernameQuery = "SELECT * FROM users WHERE username = ? ORDER BY created_at LIMIT 1"
	getUserByProviderQuery = "SELECT * FROM users WHERE %s = ? ORDER BY created_at LIMIT 1"
	deleteByProviderQuery  = "DELETE FROM users WHERE %s = ?"
	createUserQuery        = `
		INSERT INTO users (id, email, username, name, password_hash, avatar_url, google_id, facebook_id, apple_id, created_at) VALUES
		(:id, :email, :username, :name, :password_hash, :avatar_url, :google_id, :facebook_id, :apple_id, :created_at)
	`
	updateUserQuery = `
		UPDATE users SET
		email = :email,
		username = :username,
		name = :name,
		password_hash = :password_hash,
		avatar_url = :avatar_url,
		google_id = :google_id,
		facebook_id = :facebook_id,
		apple_id = :apple_id
		WHERE id = :id
	`
)

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*users.User, error) {
	return s.get(ctx, getUserQuery, id)
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*users.User, error) {
	return s.get(ctx, getUserByEmailQuery, email)
}

func (s *UserStore) FindByUsername(ctx context.Context, username string) (*users.User, error) {
	return s.get(ctx, getUserByUsernameQuery, username)
}

func (s *UserStore) FindByProviderID(ctx context.Context, provider users.Provider, providerID string) (*users.User, error) {
	column := provider.IDColumn()
	if column == "" {
		return nil, fmt.Errorf("store: provider %s has no id column", provider)
	}
	return s.get(ctx, fmt.Sprintf(getUserByProviderQuery, column), providerID)
}

func (s *UserStore) Create(ctx context.Context, user *users.User) error {
	if _, err := s.db.NamedExecContext(ctx, createUserQuery, user); err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (s *UserStore) Update(ctx context.Context, user *users.User) error {
	res, err := s.db.NamedExecContext(ctx, updateUserQuery, user)
	if err != nil {
		return mapWriteError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *UserStore) DeleteByProviderID(ctx context.Context, provider users.Provider, providerID string) (int64, error) {
	column := provider.IDColumn()
	if column == "" {
		return 0, fmt.Errorf("store: provider %s has no id column", provider)
	}
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(deleteByProviderQuery, column), providerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *UserStore) get(ctx context.Context, query string, args ...any) (*users.User, error) {
	var user users.User
	err := s.db.GetContext(ctx, &user, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func mapWriteError(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return ErrEmailTaken
	}
	return err
}
