// Package sigfile decodes IDA FLIRT style signature databases (.sig files).
//
// A database consists of a packed little-endian header, a name string and a
// bit-packed signature tree that is usually deflate compressed. The package
// only reads this format; it never writes it.
//
// # File Layout
//
//	0x00  magic "IDASGN"
//	0x06  version (4..7 accepted, normalised to 7)
//	0x07  processor id
//	0x08  file types (u32)
//	0x0C  OS types (u16)
//	0x0E  application types (u16, 0x100 = 32-bit, 0x200 = 64-bit)
//	0x10  feature flags (0x10 = compressed)
//	0x12  module count for v5 and older (u16)
//	0x22  name length
//	0x25  module count (u32, v6+)
//	....  name, then the (compressed) tree
//
// Versions 4 and 5 have shorter headers, so the name starts 6 or 4 bytes
// earlier. Versions 8 and newer are rejected with ErrUnsupportedVersion.
//
// # Tree Encoding
//
// Each node starts with a child count ("bitshift" integer: one byte, or two
// when the high bit is set). A non-zero count is followed by that many child
// records: a byte length (at most 32), a relocation bitmask (bitshift for
// lengths below 16, the 4-tier RelocBits integer otherwise) and the literal
// bytes of every non-relocated position, then the child's own subtree. A zero
// count marks a leaf container holding CRC groups of symbol names.
//
// The decoded tree is stored in an arena (Tree.Nodes, Tree.Leaves) addressed
// by index. Matching state lives in the matcher package so a decoded Tree is
// never mutated and can be shared.
//
// # Usage
//
//	db, err := sigfile.Load("vc64rtf.sig")
//	if err != nil {
//	    return err
//	}
//	if !db.Supports(64) {
//	    return fmt.Errorf("%s has no 64-bit signatures", db.Name)
//	}
//
// # Errors
//
// Every decode failure is a *FormatError whose Kind identifies the cause
// (bad magic, unsupported version, oversized node, truncation, inflate
// failure). Decode errors never leave a partially built tree behind.
package sigfile
