package jannotate

import (
	"errors"
	"fmt"
)

// ErrorCode enumerates the ways an annotation pass can fail.
type ErrorCode int

const (
	// OK means no error.
	OK ErrorCode = iota
	// IncorrectInputFormat means the root value is not an object.
	IncorrectInputFormat
	// InternalFatalError means traversal met a value of unsupported shape.
	InternalFatalError
	// DifferentArrayItemTypes means the items of an array have different types.
	DifferentArrayItemTypes
	// NullsInArray means an array contains a null.
	NullsInArray
	// BoolsInArray means an array contains a boolean.
	BoolsInArray
)

// WholeDocument is the entity reported for errors concerning the root value.
const WholeDocument = "Whole document"

var (
	ErrIncorrectInputFormat    = errors.New("incorrect input format")
	ErrInternalFatal           = errors.New("internal fatal error")
	ErrDifferentArrayItemTypes = errors.New("different array item types")
	ErrNullsInArray            = errors.New("nulls in array")
	ErrBoolsInArray            = errors.New("bools in array")
)

var errorCodes = []struct {
	name string
	err  error
}{
	OK:                      {"OK", nil},
	IncorrectInputFormat:    {"IncorrectInputFormat", ErrIncorrectInputFormat},
	InternalFatalError:      {"InternalFatalError", ErrInternalFatal},
	DifferentArrayItemTypes: {"DifferentArrayItemTypes", ErrDifferentArrayItemTypes},
	NullsInArray:            {"NullsInArray", ErrNullsInArray},
	BoolsInArray:            {"BoolsInArray", ErrBoolsInArray},
}

func (c ErrorCode) valid() bool { return c >= 0 && int(c) < len(errorCodes) }

func (c ErrorCode) String() string {
	if !c.valid() {
		return fmt.Sprintf("ErrorCode(%d)", int(c))
	}
	return errorCodes[c].name
}

// ParseErrorCode returns the code with the given taxonomy name, e.g.
// "NullsInArray".
func ParseErrorCode(name string) (ErrorCode, error) {
	for c, ec := range errorCodes {
		if ec.name == name {
			return ErrorCode(c), nil
		}
	}
	return OK, fmt.Errorf("unknown error code %q", name)
}

// ErrorResult is the outcome of an annotation pass: an error code and the path
// of the offending entity.
type ErrorResult struct {
	Code   ErrorCode
	Entity string
}

// OK reports whether the pass succeeded.
func (r ErrorResult) OK() bool { return r.Code == OK }

// Message renders a human readable description of the failure.
func (r ErrorResult) Message() string {
	return fmt.Sprintf("Error occurred. Problematic entity: %q", r.Entity)
}

// Err returns nil for a successful result, or an error wrapping the sentinel
// error of the code.
func (r ErrorResult) Err() error {
	if r.OK() {
		return nil
	}
	if !r.Code.valid() {
		return fmt.Errorf("%s at %q", r.Code, r.Entity)
	}
	return fmt.Errorf("%w at %q", errorCodes[r.Code].err, r.Entity)
}
