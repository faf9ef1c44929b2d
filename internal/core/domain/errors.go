package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrItemNotFound       = errors.New("item not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrForbidden          = errors.New("access forbidden")
	ErrUnauthorized       = errors.New("session is not authorized")
	ErrNotAuthenticated   = errors.New("not logged in")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrVerificationState  = errors.New("phone verification step out of order")
	ErrResourceMissing    = errors.New("resource not available")
)

// ErrorKind separates failures where no response arrived from failures the
// server reported.
type ErrorKind int

const (
	KindNetwork ErrorKind = iota + 1
	KindHTTP
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindHTTP:
		return "http"
	default:
		return "unknown"
	}
}

// RequestError is the single error kind returned by the resource client.
type RequestError struct {
	Kind    ErrorKind
	Method  string
	Path    string
	Status  int    // zero for KindNetwork
	Message string // server-provided message, if any
	Details any    // server-provided details, if any
	Err     error  // underlying transport error for KindNetwork
}

func (e *RequestError) Error() string {
	if e.Kind == KindNetwork {
		return fmt.Sprintf("%s %s: network error: %v", e.Method, e.Path, e.Err)
	}
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s %s: http %d: %s", e.Method, e.Path, e.Status, msg)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Is maps HTTP statuses onto the matching sentinel errors.
func (e *RequestError) Is(target error) bool {
	if e.Kind != KindHTTP {
		return false
	}
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	}
	return false
}

// IsNetwork reports whether err is a RequestError without a server response.
func IsNetwork(err error) bool {
	var re *RequestError
	return errors.As(err, &re) && re.Kind == KindNetwork
}

// HTTPStatus returns the status carried by err, or 0.
func HTTPStatus(err error) int {
	var re *RequestError
	if errors.As(err, &re) && re.Kind == KindHTTP {
		return re.Status
	}
	return 0
}

// FieldError is a single failed client-side check.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError is returned before any request is issued.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// ValidateID rejects identifiers that cannot address a resource. Ids are
// opaque to the client; only blank ids and path separators are refused.
func ValidateID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return NewValidationError(field, field+" is required")
	}
	if strings.ContainsAny(id, "/?#") || id != strings.TrimSpace(id) {
		return NewValidationError(field, field+" must be a valid id")
	}
	return nil
}

// UserMessage converts err into the one-line notification shown to the user.
func UserMessage(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	switch {
	case errors.Is(err, ErrUserNotFound):
		return "User not found."
	case errors.Is(err, ErrItemNotFound):
		return "Item not found."
	}
	var re *RequestError
	if errors.As(err, &re) {
		switch {
		case re.Kind == KindNetwork:
			return "Unable to reach the server. Check your connection and try again."
		case re.Status == http.StatusUnauthorized:
			return "Your session has expired. Please log in again."
		case re.Status == http.StatusForbidden:
			return "You are not allowed to do that."
		case re.Message != "":
			return re.Message
		default:
			return fmt.Sprintf("Request failed (%d %s).", re.Status, http.StatusText(re.Status))
		}
	}
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return "Please log in first."
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password."
	case errors.Is(err, ErrInvalidTransition):
		return "This item is no longer pending."
	case errors.Is(err, ErrForbidden):
		return "You are not allowed to do that."
	case err == nil:
		return ""
	}
	return err.Error()
}
