package sigfile

import (
	"errors"
	"fmt"
)

// FormatErrorKind categorises signature database decode failures
type FormatErrorKind int

const (
	// KindBadMagic indicates the file does not start with IDASGN
	KindBadMagic FormatErrorKind = iota
	// KindUnsupportedVersion indicates a version the fixup chain cannot normalise
	KindUnsupportedVersion
	// KindOversizedNode indicates a tree node declaring more than MaxNodeBytes bytes
	KindOversizedNode
	// KindTruncated indicates a read past the end of the data
	KindTruncated
	// KindDecompression indicates the compressed tree could not be inflated
	KindDecompression
	// KindNameTooLong indicates a leaf symbol exceeding MaxNameLength
	KindNameTooLong
)

// String returns a human-readable name for the error kind
func (k FormatErrorKind) String() string {
	switch k {
	case KindBadMagic:
		return "Bad Magic"
	case KindUnsupportedVersion:
		return "Unsupported Version"
	case KindOversizedNode:
		return "Oversized Node"
	case KindTruncated:
		return "Truncated Data"
	case KindDecompression:
		return "Decompression Error"
	case KindNameTooLong:
		return "Name Too Long"
	default:
		return fmt.Sprintf("FormatErrorKind(%d)", int(k))
	}
}

// ErrUnsupportedVersion is wrapped by every KindUnsupportedVersion error.
var ErrUnsupportedVersion = errors.New("unsupported signature version")

// FormatError is returned for any failure while decoding a signature database.
// A decode that fails never exposes a partial tree.
type FormatError struct {
	Kind    FormatErrorKind
	Offset  int // position in the (possibly decompressed) stream, -1 if unknown
	Message string
	Err     error
}

// Error implements the error interface
func (e *FormatError) Error() string {
	msg := e.Kind.String()
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Offset >= 0 {
		msg = fmt.Sprintf("%s (offset 0x%x)", msg, e.Offset)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *FormatError) Unwrap() error {
	return e.Err
}

func newFormatError(kind FormatErrorKind, offset int, format string, args ...any) *FormatError {
	return &FormatError{Kind: kind, Offset: offset, Message: fmt.Sprintf(format, args...)}
}

// NewTruncatedError creates an error for a read of want bytes at offset.
func NewTruncatedError(offset, want int) *FormatError {
	return newFormatError(KindTruncated, offset, "need %d byte(s)", want)
}

// NewDecompressionError wraps an inflate failure.
func NewDecompressionError(err error) *FormatError {
	return &FormatError{Kind: KindDecompression, Offset: -1, Message: "failed to inflate tree", Err: err}
}

// IsFormatError reports whether err is a FormatError of the given kind.
func IsFormatError(err error, kind FormatErrorKind) bool {
	var fe *FormatError
	if errors.As(err, &fe) {
		return fe.Kind == kind
	}
	return false
}

// IsTruncatedError checks if an error is a truncation error
func IsTruncatedError(err error) bool {
	return IsFormatError(err, KindTruncated)
}

// IsBadMagicError checks if an error is a bad magic error
func IsBadMagicError(err error) bool {
	return IsFormatError(err, KindBadMagic)
}
