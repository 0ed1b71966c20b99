package window

import (
	"errors"
	"fmt"
)

// invalidRangeError signals a caller bug: a negative offset or start > stop.
type invalidRangeError struct{ start, stop int }

func (e invalidRangeError) Error() string {
	return fmt.Sprintf("invalid range [%d, %d)", e.start, e.stop)
}

// ErrInvalidRange constructs the error RequestRange returns on misuse.
func ErrInvalidRange(start, stop int) error { return invalidRangeError{start: start, stop: stop} }

// IsInvalidRange reports whether err is a range misuse error.
func IsInvalidRange(err error) bool {
	var e invalidRangeError
	return errors.As(err, &e)
}

// closedError is returned by operations on a closed Loader.
type closedError struct{}

func (closedError) Error() string { return "loader closed" }

// IsClosed reports whether err indicates use after Close.
func IsClosed(err error) bool {
	var e closedError
	return errors.As(err, &e)
}

// malformedPageError marks a response that cannot be merged.
type malformedPageError struct{ msg string }

func (e malformedPageError) Error() string { return "malformed page: " + e.msg }

// ErrMalformedPage constructs a malformed page error. Fetchers return it when
// a response lacks members, offset or totalCount.
func ErrMalformedPage(format string, a ...any) error {
	return malformedPageError{msg: fmt.Sprintf(format, a...)}
}

// IsMalformedPage reports whether err indicates an unusable response.
func IsMalformedPage(err error) bool {
	var e malformedPageError
	return errors.As(err, &e)
}

// configError reports an unusable Config.
type configError struct{ msg string }

func (e configError) Error() string { return "loader config: " + e.msg }

// IsConfigError reports whether err came from New rejecting its Config.
func IsConfigError(err error) bool {
	var e configError
	return errors.As(err, &e)
}
