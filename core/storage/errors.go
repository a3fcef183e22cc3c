package storage

import "errors"

var (
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrInvalidStoreType = errors.New("invalid store type")
	ErrClosed           = errors.New("store closed")
)
