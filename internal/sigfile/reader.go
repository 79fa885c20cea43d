package sigfile

// Reader is a bounds-checked cursor over signature database bytes.
type Reader struct {
	data []byte
	pos  int
}

// NewReader returns a Reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Pos returns the current offset.
func (r *Reader) Pos() int { return r.pos }

// Len returns the number of unread bytes.
func (r *Reader) Len() int { return len(r.data) - r.pos }

// Seek moves the cursor to an absolute offset.
func (r *Reader) Seek(pos int) error {
	if pos < 0 || pos > len(r.data) {
		return newFormatError(KindTruncated, pos, "seek outside data of %d bytes", len(r.data))
	}
	r.pos = pos
	return nil
}

// Byte reads one byte.
func (r *Reader) Byte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, NewTruncatedError(r.pos, 1)
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// Bytes reads n bytes. The returned slice aliases the underlying data.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if n < 0 || n > r.Len() {
		return nil, NewTruncatedError(r.pos, n)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Word reads a big-endian 16-bit value.
func (r *Reader) Word() (uint32, error) {
	hi, err := r.Byte()
	if err != nil {
		return 0, err
	}
	lo, err := r.Byte()
	if err != nil {
		return 0, err
	}
	return uint32(hi)<<8 + uint32(lo), nil
}

// Bitshift reads the 1-2 byte variable-length integer used for counts and
// deltas: a set high bit means the low seven bits are the high byte of a
// 15-bit value.
func (r *Reader) Bitshift() (uint32, error) {
	v, err := r.Byte()
	if err != nil {
		return 0, err
	}
	if v&0x80 == 0 {
		return uint32(v), nil
	}
	lo, err := r.Byte()
	if err != nil {
		return 0, err
	}
	return uint32(v&0x7F)<<8 + uint32(lo), nil
}

// RelocBits reads the 1-4 tier integer used for relocation bitmasks of nodes
// with 16 or more bytes. The tier is selected by the leading bits of the
// first byte:
//
//	0xxxxxxx                      7 bits
//	10xxxxxx b                    14 bits
//	110xxxxx b w                  29 bits
//	111xxxxx w w                  32 bits big-endian, first byte payload ignored
func (r *Reader) RelocBits() (uint32, error) {
	v, err := r.Byte()
	if err != nil {
		return 0, err
	}

	switch {
	case v&0x80 != 0x80:
		return uint32(v), nil

	case v&0xC0 != 0xC0:
		lo, err := r.Byte()
		if err != nil {
			return 0, err
		}
		return uint32(v&0x7F)<<8 + uint32(lo), nil

	case v&0xE0 != 0xE0:
		b, err := r.Byte()
		if err != nil {
			return 0, err
		}
		upper := uint32(v&0x3F)<<8 + uint32(b)
		lower, err := r.Word()
		if err != nil {
			return 0, err
		}
		return lower + upper<<16, nil

	default:
		// the two words are taken in file order, upper first
		upper, err := r.Word()
		if err != nil {
			return 0, err
		}
		lower, err := r.Word()
		if err != nil {
			return 0, err
		}
		return upper<<16 + lower, nil
	}
}
