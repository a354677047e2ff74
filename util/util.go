// Package util contains misc internal utilities.
package util

import (
	"strings"
	"time"
)

// MultiError is several errors reported as one.  errors.Is and errors.As
// look through it to each of its members.
type MultiError []error

func (m MultiError) Error() string {
	s := make([]string, len(m))
	for i, err := range m {
		s[i] = err.Error()
	}
	return strings.Join(s, "\n")
}

// Unwrap returns the member errors
func (m MultiError) Unwrap() []error {
	return []error(m)
}

// MergeErrors converts a slice of errors into one error, dropping nils.
// It returns nil if every error is nil and the error itself if only one isn't.
func MergeErrors(errs []error) error {
	var out MultiError
	for _, err := range errs {
		if err != nil {
			out = append(out, err)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return out
}

// DurationToMicros converts a duration to a floating point number of microseconds
func DurationToMicros(d time.Duration) float64 {
	return float64(d) / float64(time.Microsecond)
}
