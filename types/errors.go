package types

import (
	"errors"
	"sort"
	"strings"
)

// ErrNotFound is returned for lookups of an unknown record identity.
var ErrNotFound = errors.New("record not found")

// ErrRejected covers bad credentials and unknown principals alike, so a
// caller cannot tell "no such user" from "wrong password".
var ErrRejected = errors.New("invalid username or password")

// DecodeError means the log envelope of a submission was malformed
// (bad base64 padding or alphabet, unknown encoding marker). Nothing is
// persisted when decoding fails.
type DecodeError struct {
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	return "decode " + e.Field + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ValidationError enumerates every offending field of a submission,
// one message per field, form-style.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "invalid submission: " + strings.Join(parts, "; ")
}

// StorageError means the persistence layer failed the request. It is
// fatal to the request and never retried here; the caller resubmits.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "storage: " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }
