package service

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/AdamBeresnev/funnyjoke/internal/apperror"
	users "github.com/AdamBeresnev/funnyjoke/internal/user"
	"github.com/google/uuid"
)

const deletionStatusPath = "/facebook/deletion-status/"

type userDeleter interface {
	DeleteByProviderID(ctx context.Context, provider users.Provider, providerID string) (int64, error)
}

type DeletionConfig struct {
	AppSecret string
	BaseURL   string        // public origin used in status URLs
	MaxAge    time.Duration // signed_request freshness window
}

// DeletionResult is the body Facebook expects from the data deletion callback.
type DeletionResult struct {
	URL              string `json:"url"`
	ConfirmationCode string `json:"confirmation_code"`
}

type DeletionService struct {
	store   userDeleter
	cfg     DeletionConfig
	now     func() time.Time
	newCode func() string
}

func NewDeletionService(store userDeleter, cfg DeletionConfig) *DeletionService {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &DeletionService{
		store:   store,
		cfg:     cfg,
		now:     time.Now,
		newCode: newConfirmationCode,
	}
}

// ProcessDeletionRequest verifies signedRequest and removes the linked Facebook
// account. It always returns a fresh confirmation code; failures are only logged.
func (s *DeletionService) ProcessDeletionRequest(ctx context.Context, signedRequest string) DeletionResult {
	code := s.newCode()

	deleted, err := s.process(ctx, signedRequest)
	if err != nil {
		slog.Error("facebook data deletion failed", "confirmation_code", code, "error", err)
		return DeletionResult{URL: s.statusURL(code, true), ConfirmationCode: code}
	}

	slog.Info("facebook data deletion processed", "confirmation_code", code, "deleted", deleted)
	return DeletionResult{URL: s.statusURL(code, false), ConfirmationCode: code}
}

func (s *DeletionService) process(ctx context.Context, signedRequest string) (int64, error) {
	if strings.TrimSpace(signedRequest) == "" {
		return 0, apperror.ValidationFailed("signed_request", "signed_request missing")
	}

	req, err := ParseSignedRequest(signedRequest, s.cfg.AppSecret, s.now(), s.cfg.MaxAge)
	if err != nil {
		return 0, err
	}

	n, err := s.store.DeleteByProviderID(ctx, users.Facebook, string(req.UserID))
	if err != nil {
		return 0, storeFailure(err)
	}
	return n, nil
}

func (s *DeletionService) statusURL(code string, failed bool) string {
	u := s.cfg.BaseURL + deletionStatusPath + url.PathEscape(code)
	if failed {
		u += "?error=1"
	}
	return u
}

func newConfirmationCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
