package track

import (
	"errors"
	"fmt"
)

// ErrMissingData matches every *MissingDataError.
var ErrMissingData = errors.New("aircraft missing data")

// MissingDataError reports a snapshot that lacks a field needed to create or
// extend a track.
type MissingDataError struct {
	Hex   string
	Field string
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("aircraft %s is missing %s", e.Hex, e.Field)
}

func (e *MissingDataError) Is(target error) bool {
	return target == ErrMissingData
}

func missing(hex, field string) error {
	return &MissingDataError{Hex: hex, Field: field}
}
