package descriptor

import (
	"fmt"
	"strconv"
	"strings"
)

// Style selects a textual signature encoding.
type Style int

const (
	StyleCode Style = iota
	StyleIDA
	StylePEiD
	StyleCRC
)

// String returns the lowercase style name used in settings and flags.
func (s Style) String() string {
	switch s {
	case StyleCode:
		return "code"
	case StyleIDA:
		return "ida"
	case StylePEiD:
		return "peid"
	case StyleCRC:
		return "crc"
	default:
		return fmt.Sprintf("Style(%d)", int(s))
	}
}

// ParseStyle converts a style name (case insensitive) into a Style.
func ParseStyle(name string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "code", "c":
		return StyleCode, nil
	case "ida", "":
		return StyleIDA, nil
	case "peid":
		return StylePEiD, nil
	case "crc":
		return StyleCRC, nil
	default:
		return 0, fmt.Errorf("unknown signature style %q (want code, ida, peid or crc)", name)
	}
}

// ToCode renders the descriptor as a \xHH data string and an x/? mask.
func (d *Descriptor) ToCode() (data, mask string) {
	var db, mb strings.Builder
	db.Grow(len(d.entries) * 4)
	mb.Grow(len(d.entries))
	for _, e := range d.entries {
		if e.Wildcard {
			db.WriteString(`\x00`)
			mb.WriteByte('?')
			continue
		}
		fmt.Fprintf(&db, `\x%02X`, e.Value)
		mb.WriteByte('x')
	}
	return db.String(), mb.String()
}

// ToIDA renders space separated hex tokens with '?' wildcards.
func (d *Descriptor) ToIDA() string {
	return d.tokens("?")
}

// ToPEiD renders space separated hex tokens with "??" wildcards.
func (d *Descriptor) ToPEiD() string {
	return d.tokens("??")
}

// ToCRC is not implemented.
func (d *Descriptor) ToCRC() (string, error) {
	return "", fmt.Errorf("crc signature style: %w", ErrUnsupported)
}

// Format renders the descriptor in the given style. Code style is returned as
// "data mask".
func (d *Descriptor) Format(style Style) (string, error) {
	switch style {
	case StyleCode:
		data, mask := d.ToCode()
		return data + " " + mask, nil
	case StyleIDA:
		return d.ToIDA(), nil
	case StylePEiD:
		return d.ToPEiD(), nil
	case StyleCRC:
		return d.ToCRC()
	default:
		return "", fmt.Errorf("unknown signature style %d", int(style))
	}
}

// Parse decodes text produced by Format.
func Parse(style Style, text string) (*Descriptor, error) {
	switch style {
	case StyleCode:
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: code style needs data and mask, got %d fields", ErrMalformed, len(fields))
		}
		return FromCode(fields[0], fields[1])
	case StyleIDA:
		return FromIDA(text)
	case StylePEiD:
		return FromPEiD(text)
	case StyleCRC:
		return nil, fmt.Errorf("crc signature style: %w", ErrUnsupported)
	default:
		return nil, fmt.Errorf("unknown signature style %d", int(style))
	}
}

// FromCode parses a \xHH data string with its x/? mask.
func FromCode(data, mask string) (*Descriptor, error) {
	if len(data) != len(mask)*4 {
		return nil, fmt.Errorf("%w: data length %d does not match mask length %d", ErrMalformed, len(data), len(mask))
	}
	d, err := New(len(mask))
	if err != nil {
		return nil, err
	}
	for i := 0; i < len(mask); i++ {
		chunk := data[i*4 : i*4+4]
		if chunk[0] != '\\' || (chunk[1] != 'x' && chunk[1] != 'X') {
			return nil, fmt.Errorf("%w: expected \\x escape at byte %d, got %q", ErrMalformed, i, chunk)
		}
		switch mask[i] {
		case '?':
			d.SetWildcard(i)
		case 'x', 'X':
			v, err := strconv.ParseUint(chunk[2:], 16, 8)
			if err != nil {
				return nil, fmt.Errorf("%w: bad hex %q at byte %d", ErrMalformed, chunk[2:], i)
			}
			d.Set(i, byte(v))
		default:
			return nil, fmt.Errorf("%w: mask character %q at %d", ErrMalformed, mask[i], i)
		}
	}
	return d, nil
}

// FromIDA parses space separated hex tokens where '?' is a wildcard.
func FromIDA(text string) (*Descriptor, error) {
	tokens := strings.Fields(text)
	d, err := New(len(tokens))
	if err != nil {
		return nil, err
	}
	for i, tok := range tokens {
		if tok == "?" {
			d.SetWildcard(i)
			continue
		}
		if len(tok) != 2 {
			return nil, fmt.Errorf("%w: token %q at %d", ErrMalformed, tok, i)
		}
		v, err := strconv.ParseUint(tok, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("%w: bad hex %q at %d", ErrMalformed, tok, i)
		}
		d.Set(i, byte(v))
	}
	return d, nil
}

// FromPEiD parses PEiD style text by collapsing "??" wildcards to IDA style.
func FromPEiD(text string) (*Descriptor, error) {
	return FromIDA(strings.ReplaceAll(text, "??", "?"))
}
