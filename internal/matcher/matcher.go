package matcher

import (
	"github.com/muurk/sigknife/internal/logging"
	"github.com/muurk/sigknife/internal/sigfile"
)

// Match is the outcome of a successful MatchAt.
type Match struct {
	Length int // prefix bytes plus the leaf CRC window
	Symbol string
	Leaf   int // index into Tree.Leaves
}

// Result is one recognised symbol in a scanned buffer.
type Result struct {
	Address uint64
	Symbol  string
	Length  int
}

// Matcher holds per-scan leaf consumption state for a tree. The tree itself
// is not modified. A Matcher is not safe for concurrent use.
type Matcher struct {
	tree *sigfile.Tree
	used []bool
}

// New creates a matcher with every leaf available.
func New(tree *sigfile.Tree) *Matcher {
	return &Matcher{tree: tree, used: make([]bool, len(tree.Leaves))}
}

// Reset makes all consumed leaves available again.
func (m *Matcher) Reset() {
	clear(m.used)
}

// Remaining returns the number of leaves not yet consumed.
func (m *Matcher) Remaining() int {
	n := 0
	for _, u := range m.used {
		if !u {
			n++
		}
	}
	return n
}

// MatchAt tries to recognise a signature starting at buf[pos]. On success the
// matched leaf is consumed.
func (m *Matcher) MatchAt(buf []byte, pos int) (Match, bool) {
	if pos < 0 || pos >= len(buf) || len(m.tree.Nodes) == 0 {
		return Match{}, false
	}
	return m.matchNode(buf, pos, 0, sigfile.Root)
}

func (m *Matcher) matchNode(buf []byte, pos, consumed, index int) (Match, bool) {
	node := m.tree.Node(index)

	if !node.IsLeafContainer() {
		for _, c := range node.Children {
			child := m.tree.Node(c)
			if !matchSlots(child.Slots, buf, pos) {
				continue
			}
			n := len(child.Slots)
			if res, ok := m.matchNode(buf, pos+n, consumed+n, c); ok {
				return res, true
			}
		}
		return Match{}, false
	}

	for _, li := range node.Leaves {
		if m.used[li] {
			continue
		}
		leaf := &m.tree.Leaves[li]
		if leaf.CRC16 != 0 {
			end := pos + int(leaf.CRCLength)
			if end > len(buf) || sigfile.CRC16(buf[pos:end]) != leaf.CRC16 {
				continue
			}
		}
		m.used[li] = true
		return Match{Length: consumed + int(leaf.CRCLength), Symbol: leaf.Symbol, Leaf: li}, true
	}
	return Match{}, false
}

func matchSlots(slots []sigfile.Slot, buf []byte, pos int) bool {
	if pos+len(slots) > len(buf) {
		return false
	}
	for i, s := range slots {
		if !s.Relocation && buf[pos+i] != s.Value {
			return false
		}
	}
	return true
}

// Scan walks buf from the start, reporting every recognised symbol. After a
// match the cursor skips the matched bytes, otherwise it advances by one, so
// matches never overlap. base is added to buffer offsets to form addresses.
func (m *Matcher) Scan(buf []byte, base uint64) []Result {
	var results []Result
	for pos := 0; pos < len(buf); {
		res, ok := m.MatchAt(buf, pos)
		if !ok {
			pos++
			continue
		}
		addr := base + uint64(pos)
		logging.LogMatch(addr, res.Symbol, res.Length)
		results = append(results, Result{Address: addr, Symbol: res.Symbol, Length: res.Length})
		pos += max(res.Length, 1)
	}
	return results
}
