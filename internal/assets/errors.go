package assets

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
)

var (
	// ErrNotFound reports an absent asset id.
	ErrNotFound = errors.New("asset not found")
	// ErrUnsupportedExtension rejects uploads outside the accepted extensions.
	ErrUnsupportedExtension = errors.New("unsupported audio file extension")

	errEmptyPayload = errors.New("file is empty")
)

// SizeLimitError is returned when a file exceeds the configured per-file ceiling.
// Both sizes count raw source bytes.
type SizeLimitError struct {
	Name        string
	LimitBytes  int64
	ActualBytes int64
}

func (e *SizeLimitError) Error() string {
	if e == nil {
		return ""
	}
	size := humanize.IBytes(uint64(e.ActualBytes))
	limit := humanize.IBytes(uint64(e.LimitBytes))
	if e.Name != "" {
		return fmt.Sprintf("%s is %s, exceeds the %s limit", e.Name, size, limit)
	}
	return fmt.Sprintf("file is %s, exceeds the %s limit", size, limit)
}

// DecodeError reports unreadable or malformed audio bytes.
type DecodeError struct {
	Name string
	Err  error
}

func (e *DecodeError) Error() string {
	if e == nil {
		return ""
	}
	if e.Name != "" {
		return fmt.Sprintf("decode %s: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("decode audio: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// MigrationError describes one legacy row that could not be converted.
type MigrationError struct {
	LegacyID string
	Err      error
}

func (e *MigrationError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("migrate legacy asset %s: %v", e.LegacyID, e.Err)
}

func (e *MigrationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
