// Package errors defines the typed errors resolvers hand to the GraphQL
// executor. Each carries a machine-readable code in its extensions.
package errors

import (
	stderrors "errors"
	"fmt"

	"bookshelf/internal/store"
)

const defaultPublicMessage = "request failed"

// Kind classifies a resolver error.
type Kind string

const (
	KindValidation Kind = "VALIDATION_ERROR"
	KindNotFound   Kind = "NOT_FOUND"
	KindStore      Kind = "STORE_ERROR"
)

// Error is returned from resolvers. Message is sent to clients; Cause is not.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Extensions is picked up by graphql-go when formatting the error.
func (e *Error) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": string(e.Kind)}
}

func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Store wraps a backend failure behind an opaque public message.
func Store(message string, cause error) *Error {
	return &Error{Kind: KindStore, Message: fallbackMessage(message), Cause: cause}
}

// FromStore maps a store error: ErrNotFound becomes NotFound with
// notFoundMessage, anything else a StoreError with storeMessage.
func FromStore(err error, notFoundMessage, storeMessage string) *Error {
	if store.IsNotFound(err) {
		return &Error{Kind: KindNotFound, Message: fallbackMessage(notFoundMessage), Cause: err}
	}
	return Store(storeMessage, err)
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func fallbackMessage(message string) string {
	if message == "" {
		return defaultPublicMessage
	}
	return message
}
