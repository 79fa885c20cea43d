package sigmake

import (
	"fmt"

	"github.com/muurk/sigknife/internal/descriptor"
)

// Code size limits for a single generated signature.
const (
	MinCodeSize = 1
	MaxCodeSize = 64 * 1024
)

// Batch window defaults.
const (
	DefaultBatchMinLength = 10
	DefaultBatchMaxLength = 50
)

// Options controls the operand wildcard policy and post-processing.
type Options struct {
	// TrimSignatures drops trailing wildcards.
	TrimSignatures bool
	// DisableWildcards keeps every byte of every instruction.
	DisableWildcards bool
	// ShortestSignatures shortens the signature while it stays unique.
	ShortestSignatures bool
	// IncludeShortJumps keeps short jumps (under 5 bytes) fully concrete.
	IncludeShortJumps bool
	// IncludeMemReferences keeps all immediates and displacements.
	IncludeMemReferences bool
	// IncludeRelAddresses allows RIP-relative displacements to be kept.
	IncludeRelAddresses bool

	// Style is the textual encoding used for output.
	Style descriptor.Style

	// MinLength and MaxLength bound the batch window in bytes.
	MinLength int
	MaxLength int
}

// DefaultOptions returns the policy used when no settings file exists.
func DefaultOptions() Options {
	return Options{
		TrimSignatures:      true,
		IncludeShortJumps:   true,
		IncludeRelAddresses: true,
		Style:               descriptor.StyleIDA,
		MinLength:           DefaultBatchMinLength,
		MaxLength:           DefaultBatchMaxLength,
	}
}

// Validate checks the batch window bounds.
func (o Options) Validate() error {
	if o.MinLength < MinCodeSize {
		return fmt.Errorf("minimum length %d must be at least %d", o.MinLength, MinCodeSize)
	}
	if o.MaxLength > MaxCodeSize {
		return fmt.Errorf("maximum length %d exceeds %d", o.MaxLength, MaxCodeSize)
	}
	if o.MinLength > o.MaxLength {
		return fmt.Errorf("minimum length %d exceeds maximum length %d", o.MinLength, o.MaxLength)
	}
	return nil
}
