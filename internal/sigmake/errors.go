package sigmake

import "errors"

var (
	// ErrAmbiguous means the signature matches more than once.
	ErrAmbiguous = errors.New("signature is not unique")
	// ErrNotFound means the signature does not match at all.
	ErrNotFound = errors.New("signature not found")
	// ErrNoUniqueSignature means the batch window reached its maximum
	// length without becoming unique.
	ErrNoUniqueSignature = errors.New("unable to find a unique signature within the maximum length")
	// ErrInvalidRange is returned for empty or oversized address ranges.
	ErrInvalidRange = errors.New("invalid code range")
)
