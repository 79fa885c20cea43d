// Package descriptor implements the canonical in-memory signature representation.
//
// A Descriptor is an ordered sequence of entries, each either a concrete byte
// value or a wildcard that matches any byte. Descriptors are produced by the
// code signature generator, parsed from user input, and rendered to the
// textual encodings understood by common reverse engineering tools.
//
// # Textual Encodings
//
// Four encodings exist, selected with a Style:
//   - Code: a C string of \xHH escapes plus a parallel mask of 'x' (concrete)
//     and '?' (wildcard), e.g. "\x55\x8B\x00" / "xx?"
//   - IDA: space separated hex tokens, '?' for a wildcard, e.g. "55 8B ?"
//   - PEiD: identical to IDA but wildcards are written as "??"
//   - CRC: reserved; formatting returns ErrUnsupported
//
// Every encoding except CRC round-trips losslessly:
//
//	data, mask := d.ToCode()
//	back, err := descriptor.FromCode(data, mask)
//	// back.Equal(d) == true
//
// # Minimisation
//
// Trim drops trailing wildcards, which never contribute to a match. Shorten
// drops trailing entries one at a time while a caller supplied scan reports the
// signature as still unique, keeping the last unique length.
package descriptor
