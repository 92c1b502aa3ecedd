package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrExpired         = errors.New("result expired")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrProviderFailure = errors.New("provider failure")
)
