package users

import (
	"fmt"
	"strings"
)

type Provider int

const (
	Local Provider = iota
	Google
	Facebook
	Apple
)

// SocialProviders lists the OAuth issuers, in the order accounts are linked.
var SocialProviders = []Provider{Google, Facebook, Apple}

func ParseProvider(s string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "local":
		return Local, nil
	case "google":
		return Google, nil
	case "facebook":
		return Facebook, nil
	case "apple":
		return Apple, nil
	}
	return Local, fmt.Errorf("unknown provider %q", s)
}

func (p Provider) String() string {
	switch p {
	case Local:
		return "local"
	case Google:
		return "google"
	case Facebook:
		return "facebook"
	case Apple:
		return "apple"
	}
	return fmt.Sprintf("provider(%d)", int(p))
}

// IDColumn is the column (and document field) holding the provider subject id.
// Local has none and returns "".
func (p Provider) IDColumn() string {
	switch p {
	case Google:
		return "google_id"
	case Facebook:
		return "facebook_id"
	case Apple:
		return "apple_id"
	}
	return ""
}

func (p Provider) IsSocial() bool {
	return p.IDColumn() != ""
}
