package services

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound means the cart did not resolve, either because the id is
	// malformed or because no such cart exists. UpdateQuantity also returns
	// it when the cart holds no line for the product.
	ErrNotFound = errors.New("cart not found")
	// ErrInvalidInput means a product id or a required quantity was malformed.
	ErrInvalidInput = errors.New("invalid input")
	// ErrProductNotFound means a well-formed product id is absent from the
	// catalog, or from the cart on removal.
	ErrProductNotFound = errors.New("product not found")
)

// Error carries a caller-facing message for one of the sentinel errors.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

func newError(kind error, format string, args ...any) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}
