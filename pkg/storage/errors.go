package storage

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidKey is returned for empty keys or keys that cannot be used as
	// a file name.
	ErrInvalidKey = errors.New("storage: invalid key")
	// ErrUnknownDriver is returned by Open for unsupported drivers.
	ErrUnknownDriver = errors.New("storage: unknown driver")
	// ErrUnknownFormat is returned when no codec matches a format name.
	ErrUnknownFormat = errors.New("storage: unknown format")
)

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: key must not be empty", ErrInvalidKey)
	}
	return nil
}
