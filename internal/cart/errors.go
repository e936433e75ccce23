package cart

import (
	"errors"
	"fmt"
)

// Kind classifies why a cart operation was rejected.
type Kind string

const (
	KindStockInsufficient Kind = "stock_insufficient"
	KindRemoteFailure     Kind = "remote_failure"
	KindNotFoundLocally   Kind = "not_found_locally"
	KindInvalidQuantity   Kind = "invalid_quantity"
	KindStorageFailure    Kind = "storage_failure"
)

// User-facing messages sent to the notifier.
const (
	MsgOutOfStock     = "requested quantity out of stock"
	MsgAddFailed      = "error adding product"
	MsgRemoveFailed   = "error removing product"
	MsgQuantityFailed = "error changing product quantity"
)

// Error is returned by every rejected operation. The cart is unchanged when it is returned.
type Error struct {
	kind    Kind
	message string
	cause   error
}

func newError(kind Kind, message string, cause error) *Error {
	return &Error{kind: kind, message: message, cause: cause}
}

func (e *Error) Kind() Kind {
	return e.kind
}

// Message is the text shown to the shopper.
func (e *Error) Message() string {
	return e.message
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// KindOf extracts the Kind of err, or "" when err is not a cart error.
func KindOf(err error) Kind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.kind
	}
	return ""
}
