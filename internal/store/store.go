package store

import "errors"

var (
	ErrNotFound   = errors.New("store: user not found")
	ErrEmailTaken = errors.New("store: email already registered")
)
