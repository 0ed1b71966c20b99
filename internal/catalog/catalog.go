// Package catalog holds the server side of the "things" hierarchy: every
// thing has attributes and named collection properties whose members are
// served one window at a time.
package catalog

import (
	"errors"

	"sqwerl/pkg/types"
)

// Catalog is the read-only view the HTTP layer serves.
type Catalog interface {
	// Root is the id of the top-level thing.
	Root() string
	// Thing returns the thing with id.
	Thing(id string) (types.Thing, error)
	// Properties lists the collection property names of a thing.
	Properties(id string) []string
	// Size returns the member count of a collection property.
	Size(id, property string) (int, error)
	// Members returns up to limit members of property starting at offset,
	// plus the collection size. An offset past the end yields no members.
	Members(id, property string, offset, limit int) ([]types.Item, int, error)
	// Ready reports whether the catalog can serve requests.
	Ready() bool
}

// notFoundError signals a missing thing or collection property (404).
type notFoundError struct{ what, id string }

func (e notFoundError) Error() string { return e.what + " not found: " + e.id }

// ErrNotFound constructs a not-found error for kind what (thing, property).
func ErrNotFound(what, id string) error { return notFoundError{what: what, id: id} }

// IsNotFound reports whether err indicates a missing thing or property.
func IsNotFound(err error) bool {
	var e notFoundError
	return errors.As(err, &e)
}

// invalidWindowError signals a negative offset or a non-positive limit (400).
type invalidWindowError struct{ msg string }

func (e invalidWindowError) Error() string { return e.msg }

// IsInvalidWindow reports whether err came from bad offset/limit values.
func IsInvalidWindow(err error) bool {
	var e invalidWindowError
	return errors.As(err, &e)
}

func checkWindow(offset, limit int) error {
	if offset < 0 {
		return invalidWindowError{msg: "offset must be >= 0"}
	}
	if limit <= 0 {
		return invalidWindowError{msg: "limit must be > 0"}
	}
	return nil
}

// span clamps [offset, offset+limit) to [0, total).
func span(offset, limit, total int) (int, int) {
	if offset >= total {
		return total, total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return offset, end
}
