package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrNoManifest      = errors.New("no manifest found")
	ErrInvalidManifest = errors.New("invalid manifest")
	ErrMissingAPIKey   = errors.New("no xAI API key configured")
	ErrPageOutOfRange  = errors.New("page index out of range")
)
