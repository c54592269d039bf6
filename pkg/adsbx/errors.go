package adsbx

import "fmt"

// DecodeError is a batch that could not be read, decompressed or parsed.
type DecodeError struct {
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("error reading %s: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ConcurrencyError means the parallel decode machinery itself failed. It is
// always fatal.
type ConcurrencyError struct {
	Source string
	Err    error
}

func (e *ConcurrencyError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("parallel decode failed: %v", e.Err)
	}
	return fmt.Sprintf("parallel decode failed on %s: %v", e.Source, e.Err)
}

func (e *ConcurrencyError) Unwrap() error { return e.Err }
