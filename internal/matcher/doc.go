// Package matcher applies a decoded signature tree to a memory image.
//
// Matching starts at the tree root and compares node prefixes against the
// buffer. Relocated positions match any byte. Children are tried in file
// order and the first child whose subtree produces a leaf wins; a child whose
// leaves all fail causes the next sibling to be tried. Leaves are verified
// with CRC16 over the bytes following the prefix and are consumed on match,
// so each signature is reported at most once until Reset is called.
//
//	m := matcher.New(db.Tree)
//	for _, r := range m.Scan(image, base) {
//	    fmt.Printf("0x%x %s\n", r.Address, r.Symbol)
//	}
package matcher
