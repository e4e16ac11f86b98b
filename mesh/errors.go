package mesh

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the readers and the Builder. Failures detected
// while decoding wrap one of these, so callers can test with errors.Is.
var (
	ErrUnsupportedVersion    = errors.New("unsupported mesh format version")
	ErrMalformedHeader       = errors.New("malformed mesh format header")
	ErrMalformedSection      = errors.New("malformed section")
	ErrTruncatedSection      = errors.New("truncated section")
	ErrDuplicateTag          = errors.New("duplicate tag")
	ErrDanglingNodeReference = errors.New("dangling node reference")
	ErrUnknownElementType    = errors.New("unknown element type")
)

// ParseError locates a failure in the input stream.
type ParseError struct {
	Section string // Section name without the leading '$', empty outside a section
	Offset  int64  // Byte offset in the stream where the failure was detected
	Err     error
}

func (e *ParseError) Error() string {
	if e.Section == "" {
		return fmt.Sprintf("msh: offset %d: %v", e.Offset, e.Err)
	}
	return fmt.Sprintf("msh: $%s at offset %d: %v", e.Section, e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
