package app

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNoResults    = errors.New("no results generated")
)
