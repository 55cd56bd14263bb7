package errors

import "errors"

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidRole   = errors.New("invalid role")
	ErrGrantNotFound = errors.New("role grant not found")
)
