package types

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	ErrUnreachable       ErrorKind = "unreachable"
	ErrParse             ErrorKind = "parse"
	ErrAlignment         ErrorKind = "alignment"
	ErrAttributeNotFound ErrorKind = "attribute_not_found"
	ErrCanceled          ErrorKind = "canceled"
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

type NotFoundError struct {
	Kind SourceKind
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s source %d not found", e.Kind, e.ID)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// SourceError is a fetch-time failure confined to a single source.
type SourceError struct {
	URL     string
	Kind    ErrorKind
	Err     error
	Details map[string]interface{}
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s error for %s: %v", e.Kind, e.URL, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

func NewSourceError(kind ErrorKind, url string, err error) *SourceError {
	return &SourceError{
		URL:     url,
		Kind:    kind,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

func (e *SourceError) WithDetail(key string, value interface{}) *SourceError {
	e.Details[key] = value
	return e
}

func AsSourceError(err error) (*SourceError, bool) {
	var se *SourceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

func IsSourceError(err error) bool {
	_, ok := AsSourceError(err)
	return ok
}
