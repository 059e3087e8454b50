package document

import (
	"errors"
	"fmt"
)

// Sentinels matched by errors.Is against the typed errors below.
var (
	ErrRetrieval         = errors.New("document retrieval failed")
	ErrDecode            = errors.New("document decode failed")
	ErrMalformedDocument = errors.New("malformed document")
)

// RetrievalError reports a transport or IO failure while reading a document.
type RetrievalError struct {
	Locator    string
	StatusCode int // set for HTTP responses outside 2xx
	Err        error
}

func (e *RetrievalError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("retrieve %q: unexpected status %d", e.Locator, e.StatusCode)
	}
	return fmt.Sprintf("retrieve %q: %v", e.Locator, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

func (e *RetrievalError) Is(target error) bool { return target == ErrRetrieval }

// DecodeError reports text that is not valid YAML (or JSON).
type DecodeError struct {
	Locator string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %q: %v", e.Locator, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// MalformedDocumentError reports a decoded document whose shape cannot be
// used, for example a "paths" entry that is a string instead of a mapping.
type MalformedDocumentError struct {
	// Location is a dot separated path into the document, e.g. "paths./pets.get".
	Location string
	Reason   string
	Line     int
}

func (e *MalformedDocumentError) Error() string {
	loc := e.Location
	if loc == "" {
		loc = "document"
	}
	if e.Line > 0 {
		return fmt.Sprintf("malformed document at %s (line %d): %s", loc, e.Line, e.Reason)
	}
	return fmt.Sprintf("malformed document at %s: %s", loc, e.Reason)
}

func (e *MalformedDocumentError) Is(target error) bool { return target == ErrMalformedDocument }

// Malformed builds a MalformedDocumentError.
func Malformed(location, reason string, line int) error {
	return &MalformedDocumentError{Location: location, Reason: reason, Line: line}
}
