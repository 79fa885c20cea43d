package descriptor

import (
	"errors"
	"fmt"
	"strings"
)

// MaxLength is the largest descriptor New will allocate (64 KiB of code).
const MaxLength = 0x10000

var (
	// ErrInvalidLength is returned when allocating zero or more than MaxLength entries.
	ErrInvalidLength = errors.New("invalid descriptor length")
	// ErrUnsupported is returned by encodings that are deliberately not implemented.
	ErrUnsupported = errors.New("unsupported operation")
	// ErrMalformed is returned when textual input cannot be decoded.
	ErrMalformed = errors.New("malformed signature text")
)

// Entry is one position of a signature.
type Entry struct {
	Value    byte
	Wildcard bool
}

// Descriptor is an ordered byte/wildcard sequence.
type Descriptor struct {
	entries []Entry
}

// ScanFunc counts how many times a descriptor matches in the caller's target.
type ScanFunc func(d *Descriptor) int

// New allocates a descriptor of count zero-valued concrete entries.
func New(count int) (*Descriptor, error) {
	if count <= 0 || count > MaxLength {
		return nil, fmt.Errorf("%w: %d (must be 1..%d)", ErrInvalidLength, count, MaxLength)
	}
	return &Descriptor{entries: make([]Entry, count)}, nil
}

// FromEntries builds a descriptor from a copy of entries.
func FromEntries(entries []Entry) (*Descriptor, error) {
	d, err := New(len(entries))
	if err != nil {
		return nil, err
	}
	copy(d.entries, entries)
	return d, nil
}

// FromBytes builds a fully concrete descriptor from data.
func FromBytes(data []byte) (*Descriptor, error) {
	d, err := New(len(data))
	if err != nil {
		return nil, err
	}
	for i, b := range data {
		d.entries[i].Value = b
	}
	return d, nil
}

// Len returns the number of entries.
func (d *Descriptor) Len() int {
	return len(d.entries)
}

// At returns the entry at index i.
func (d *Descriptor) At(i int) Entry {
	return d.entries[i]
}

// Set stores a concrete byte at index i.
func (d *Descriptor) Set(i int, value byte) {
	d.entries[i] = Entry{Value: value}
}

// SetWildcard marks index i as a wildcard.
func (d *Descriptor) SetWildcard(i int) {
	d.entries[i] = Entry{Wildcard: true}
}

// Entries returns a copy of the entries.
func (d *Descriptor) Entries() []Entry {
	out := make([]Entry, len(d.entries))
	copy(out, d.entries)
	return out
}

// Clone returns an independent copy.
func (d *Descriptor) Clone() *Descriptor {
	return &Descriptor{entries: d.Entries()}
}

// Equal reports whether both descriptors have identical entries. Wildcard
// values are ignored.
func (d *Descriptor) Equal(other *Descriptor) bool {
	if d == nil || other == nil {
		return d == other
	}
	if len(d.entries) != len(other.entries) {
		return false
	}
	for i, e := range d.entries {
		o := other.entries[i]
		if e.Wildcard != o.Wildcard {
			return false
		}
		if !e.Wildcard && e.Value != o.Value {
			return false
		}
	}
	return true
}

// Wildcards returns the number of wildcard entries.
func (d *Descriptor) Wildcards() int {
	n := 0
	for _, e := range d.entries {
		if e.Wildcard {
			n++
		}
	}
	return n
}

// MatchAt reports whether the descriptor matches buf starting at off.
func (d *Descriptor) MatchAt(buf []byte, off int) bool {
	if off < 0 || off+len(d.entries) > len(buf) {
		return false
	}
	for i, e := range d.entries {
		if !e.Wildcard && buf[off+i] != e.Value {
			return false
		}
	}
	return true
}

// Trim removes the trailing run of wildcards. A descriptor consisting only of
// wildcards keeps a single entry.
func (d *Descriptor) Trim() {
	n := len(d.entries)
	for n > 1 && d.entries[n-1].Wildcard {
		n--
	}
	d.entries = d.entries[:n]
}

// Shorten drops trailing entries while scan still reports a unique match.
// When a shorter candidate becomes ambiguous (scan > 1) the previous length is
// restored. The length never drops below one.
func (d *Descriptor) Shorten(scan ScanFunc) {
	for len(d.entries) > 1 {
		prev := len(d.entries)
		d.entries = d.entries[:prev-1]
		if scan(d) > 1 {
			d.entries = d.entries[:prev]
			return
		}
	}
}

// String returns the IDA style rendering.
func (d *Descriptor) String() string {
	return d.ToIDA()
}

func (d *Descriptor) tokens(wildcard string) string {
	var sb strings.Builder
	sb.Grow(len(d.entries) * 3)
	for i, e := range d.entries {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if e.Wildcard {
			sb.WriteString(wildcard)
		} else {
			fmt.Fprintf(&sb, "%02X", e.Value)
		}
	}
	return sb.String()
}
