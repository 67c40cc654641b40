package store

import "errors"

var (
	ErrNotFound        = errors.New("store: record not found")
	ErrInvalidArgument = errors.New("store: invalid argument")
)
