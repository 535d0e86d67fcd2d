package service

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/AdamBeresnev/funnyjoke/internal/apperror"
)

const (
	SignedRequestAlgorithm     = "HMAC-SHA256"
	DefaultSignedRequestMaxAge = 24 * time.Hour
	signedRequestClockSkew     = 5 * time.Minute
)

var (
	ErrMalformedSignedRequest = errors.New("malformed signed_request")
	ErrBadSignature           = errors.New("bad signed_request signature")
	ErrUnsupportedAlgorithm   = errors.New("unsupported signed_request algorithm")
	ErrStaleSignedRequest     = errors.New("stale signed_request")
)

// SignedRequest is the verified payload of a Facebook signed_request.
type SignedRequest struct {
	Algorithm string    `json:"algorithm"`
	IssuedAt  int64     `json:"issued_at"`
	UserID    SubjectID `json:"user_id"`
}

// SubjectID is a provider user id. It decodes from a JSON string or number.
type SubjectID string

func (s *SubjectID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = SubjectID(strings.TrimSpace(str))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("user_id must be a string or number: %w", err)
	}
	if _, err := strconv.ParseUint(num.String(), 10, 64); err != nil {
		return fmt.Errorf("user_id must be an integer: %w", err)
	}
	*s = SubjectID(num.String())
	return nil
}

// ParseSignedRequest verifies "<signature>.<payload>" with appSecret and decodes the
// payload. issued_at, when present, must be within maxAge of now.
func ParseSignedRequest(signedRequest, appSecret string, now time.Time, maxAge time.Duration) (*SignedRequest, error) {
	if appSecret == "" {
		return nil, apperror.Integrity("facebook app secret is not configured", nil)
	}
	if maxAge <= 0 {
		maxAge = DefaultSignedRequestMaxAge
	}

	encodedSig, encodedPayload, _ := strings.Cut(strings.TrimSpace(signedRequest), ".")
	if encodedSig == "" || encodedPayload == "" {
		return nil, apperror.Invalid("Malformed signed_request", ErrMalformedSignedRequest)
	}

	sig, err := decodeBase64URL(encodedSig)
	if err != nil {
		return nil, apperror.Invalid("Malformed signed_request", fmt.Errorf("%w: signature: %v", ErrMalformedSignedRequest, err))
	}
	payload, err := decodeBase64URL(encodedPayload)
	if err != nil {
		return nil, apperror.Invalid("Malformed signed_request", fmt.Errorf("%w: payload: %v", ErrMalformedSignedRequest, err))
	}

	// The MAC covers the payload as sent, still base64url encoded.
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write([]byte(encodedPayload))
	if !hmac.Equal(sig, mac.Sum(nil)) {
		return nil, apperror.Invalid("Bad signature", ErrBadSignature)
	}

	var req SignedRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, apperror.Invalid("Malformed signed_request", fmt.Errorf("%w: %v", ErrMalformedSignedRequest, err))
	}
	if req.UserID == "" {
		return nil, apperror.Invalid("user_id missing in signed_request", ErrMalformedSignedRequest)
	}
	if req.Algorithm != "" && !strings.EqualFold(req.Algorithm, SignedRequestAlgorithm) {
		return nil, apperror.Invalid("Unsupported algorithm", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, req.Algorithm))
	}
	if req.IssuedAt != 0 {
		issued := time.Unix(req.IssuedAt, 0)
		if now.Sub(issued) > maxAge || issued.Sub(now) > signedRequestClockSkew {
			return nil, apperror.Invalid("Stale signed_request", fmt.Errorf("%w: issued_at=%d", ErrStaleSignedRequest, req.IssuedAt))
		}
	}
	return &req, nil
}

// decodeBase64URL decodes base64url with or without padding.
func decodeBase64URL(s string) ([]byte, error) {
	s = strings.NewReplacer("-", "+", "_", "/").Replace(strings.TrimRight(s, "="))
	if pad := len(s) % 4; pad != 0 {
		s += strings.Repeat("=", 4-pad)
	}
	return base64.StdEncoding.DecodeString(s)
}
