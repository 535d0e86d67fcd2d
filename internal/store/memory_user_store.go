package store

import (
	"context"
	"fmt"
	"sync"

	users "github.com/AdamBeresnev/funnyjoke/internal/user"
	"github.com/AdamBeresnev/funnyjoke/internal/utils"
	"github.com/google/uuid"
)

// MemoryUserStore keeps users in process memory. Records are copied on the way
// in and out, so callers never share state with the store.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*users.User
}

func NewMemoryUserStore(seed ...users.User) *MemoryUserStore {
	s := &MemoryUserStore{users: make(map[uuid.UUID]*users.User, len(seed))}
	for i := range seed {
		s.users[seed[i].ID] = cloneUser(&seed[i])
	}
	return s
}

func (s *MemoryUserStore) FindByID(_ context.Context, id uuid.UUID) (*users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u, ok := s.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, ErrNotFound
}

func (s *MemoryUserStore) FindByEmail(_ context.Context, email string) (*users.User, error) {
	return s.find(func(u *users.User) bool {
		return u.Email != nil && *u.Email == email
	})
}

func (s *MemoryUserStore) FindByUsername(_ context.Context, username string) (*users.User, error) {
	return s.find(func(u *users.User) bool {
		return u.Username != nil && *u.Username == username
	})
}

func (s *MemoryUserStore) FindByProviderID(_ context.Context, provider users.Provider, providerID string) (*users.User, error) {
	if !provider.IsSocial() {
		return nil, fmt.Errorf("store: provider %s has no id column", provider)
	}
	return s.find(func(u *users.User) bool {
		id := u.ProviderID(provider)
		return id != nil && *id == providerID
	})
}

func (s *MemoryUserStore) Create(_ context.Context, user *users.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return fmt.Errorf("store: duplicate user id %s", user.ID)
	}
	if s.emailTakenLocked(user.Email, user.ID) {
		return ErrEmailTaken
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (s *MemoryUserStore) Update(_ context.Context, user *users.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if !ok {
		return ErrNotFound
	}
	if s.emailTakenLocked(user.Email, user.ID) {
		return ErrEmailTaken
	}
	updated := cloneUser(user)
	updated.CreatedAt = existing.CreatedAt
	s.users[user.ID] = updated
	return nil
}

func (s *MemoryUserStore) DeleteByProviderID(_ context.Context, provider users.Provider, providerID string) (int64, error) {
	if !provider.IsSocial() {
		return 0, fmt.Errorf("store: provider %s has no id column", provider)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, u := range s.users {
		if pid := u.ProviderID(provider); pid != nil && *pid == providerID {
			delete(s.users, id)
			n++
		}
	}
	return n, nil
}

// Len is the number of stored users.
func (s *MemoryUserStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

func (s *MemoryUserStore) find(match func(*users.User) bool) (*users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *users.User
	for _, u := range s.users {
		if !match(u) {
			continue
		}
		if found == nil || u.CreatedAt.Before(found.CreatedAt) {
			found = u
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return cloneUser(found), nil
}

func (s *MemoryUserStore) emailTakenLocked(email *string, self uuid.UUID) bool {
	if email == nil {
		return false
	}
	for id, u := range s.users {
		if id != self && u.Email != nil && *u.Email == *email {
			return true
		}
	}
	return false
}

func cloneUser(u *users.User) *users.User {
	c := *u
	c.Email = utils.Clone(u.Email)
	c.Username = utils.Clone(u.Username)
	c.Name = utils.Clone(u.Name)
	c.PasswordHash = utils.Clone(u.PasswordHash)
	c.AvatarURL = utils.Clone(u.AvatarURL)
	c.GoogleID = utils.Clone(u.GoogleID)
	c.FacebookID = utils.Clone(u.FacebookID)
	c.AppleID = utils.Clone(u.AppleID)
	return &c
}
