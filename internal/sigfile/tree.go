package sigfile

import (
	"fmt"
	"strings"
)

// Slot is one byte position of a node prefix.
type Slot struct {
	Value      byte
	Relocation bool // position varies between binaries and is never compared
}

// Node is an arena entry. A node has either children or leaves, never both.
type Node struct {
	Slots    []Slot
	Children []int // indexes into Tree.Nodes, in file order
	Leaves   []int // indexes into Tree.Leaves, in file order
}

// IsLeafContainer reports whether the node terminates a signature path.
func (n *Node) IsLeafContainer() bool {
	return len(n.Children) == 0
}

// Pattern renders the node prefix in IDA style with ".." for relocations.
func (n *Node) Pattern() string {
	parts := make([]string, len(n.Slots))
	for i, s := range n.Slots {
		if s.Relocation {
			parts[i] = ".."
		} else {
			parts[i] = fmt.Sprintf("%02X", s.Value)
		}
	}
	return strings.Join(parts, " ")
}

// Leaf maps a matched prefix to a symbol.
type Leaf struct {
	Symbol string
	// CRCLength is the number of bytes after the prefix covered by CRC.
	// It is also added to the consumed length of a match.
	CRCLength uint8
	CRC16     uint16
	// Offset is the symbol offset within the function (cumulative delta).
	Offset uint32
	// FunctionLength is the total length of the module the leaf belongs to.
	FunctionLength uint32
}

// Tree is the decoded signature tree. Nodes[0] is the root, which has no
// slots.
type Tree struct {
	Nodes  []Node
	Leaves []Leaf
}

// Root is the arena index of the root node.
const Root = 0

// Node returns the node at index i.
func (t *Tree) Node(i int) *Node {
	return &t.Nodes[i]
}

// Depth returns the longest root-to-leaf path in nodes.
func (t *Tree) Depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		best := 0
		for _, c := range t.Nodes[i].Children {
			if d := walk(c); d > best {
				best = d
			}
		}
		return best + 1
	}
	if len(t.Nodes) == 0 {
		return 0
	}
	return walk(Root)
}

func (t *Tree) addNode(slots []Slot) int {
	t.Nodes = append(t.Nodes, Node{Slots: slots})
	return len(t.Nodes) - 1
}

// treeBuilder decodes the bit-packed tree into an arena.
type treeBuilder struct {
	r    *Reader
	tree *Tree
}

func (b *treeBuilder) build(node int) error {
	count, err := b.r.Bitshift()
	if err != nil {
		return err
	}
	if count > 0 {
		return b.buildInternal(node, int(count))
	}
	return b.buildLeaves(node)
}

func (b *treeBuilder) buildInternal(parent int, count int) error {
	for i := 0; i < count; i++ {
		start := b.r.Pos()
		n, err := b.r.Byte()
		if err != nil {
			return err
		}
		if n > MaxNodeBytes {
			return newFormatError(KindOversizedNode, start, "node declares %d bytes (max %d)", n, MaxNodeBytes)
		}

		var relocs uint32
		if n >= 16 {
			relocs, err = b.r.RelocBits()
		} else {
			relocs, err = b.r.Bitshift()
		}
		if err != nil {
			return err
		}

		slots := make([]Slot, n)
		var bit uint32
		if n > 0 {
			bit = 1 << (n - 1)
		}
		for j := range slots {
			if relocs&bit != 0 {
				slots[j].Relocation = true
			} else {
				v, err := b.r.Byte()
				if err != nil {
					return err
				}
				slots[j].Value = v
			}
			bit >>= 1
		}

		child := b.tree.addNode(slots)
		if err := b.build(child); err != nil {
			return err
		}
		b.tree.Nodes[parent].Children = append(b.tree.Nodes[parent].Children, child)
	}
	return nil
}

func (b *treeBuilder) buildLeaves(node int) error {
	var flags byte
	for {
		blockLen, err := b.r.Byte()
		if err != nil {
			return err
		}
		crc, err := b.r.Word()
		if err != nil {
			return err
		}

		for {
			total, err := b.r.Bitshift()
			if err != nil {
				return err
			}

			var offset uint32
			for {
				delta, err := b.r.Bitshift()
				if err != nil {
					return err
				}
				var name string
				name, flags, err = b.readName()
				if err != nil {
					return err
				}
				offset += delta

				b.tree.Leaves = append(b.tree.Leaves, Leaf{
					Symbol:         name,
					CRCLength:      blockLen,
					CRC16:          uint16(crc),
					Offset:         offset,
					FunctionLength: total,
				})
				b.tree.Nodes[node].Leaves = append(b.tree.Nodes[node].Leaves, len(b.tree.Leaves)-1)

				if flags&0x01 == 0 {
					break
				}
			}

			if flags&0x02 != 0 {
				if _, err := b.r.Bitshift(); err != nil {
					return err
				}
				if _, err := b.r.Byte(); err != nil {
					return err
				}
			}

			if flags&0x04 != 0 {
				if err := b.skipReference(); err != nil {
					return err
				}
			}

			if flags&0x08 == 0 {
				break
			}
		}

		if flags&0x10 == 0 {
			return nil
		}
	}
}

// readName reads printable name bytes until a byte below 0x20, which is
// returned as the record flags.
func (b *treeBuilder) readName() (string, byte, error) {
	start := b.r.Pos()
	flags, err := b.r.Byte()
	if err != nil {
		return "", 0, err
	}

	var sb strings.Builder
	for i := 0; ; i++ {
		if i >= MaxNameLength {
			return "", 0, newFormatError(KindNameTooLong, start, "symbol name exceeds %d bytes", MaxNameLength)
		}
		if flags < 0x20 {
			flags, err = b.r.Byte()
			if err != nil {
				return "", 0, err
			}
		}
		if flags < 0x20 {
			return sb.String(), flags, nil
		}
		sb.WriteByte(flags)
		flags = 0
	}
}

// skipReference consumes a referenced-name record. The referenced names are
// not used for matching.
func (b *treeBuilder) skipReference() error {
	if _, err := b.r.Bitshift(); err != nil {
		return err
	}
	n, err := b.r.Byte()
	if err != nil {
		return err
	}
	length := uint32(n)
	if length == 0 {
		if length, err = b.r.Bitshift(); err != nil {
			return err
		}
	}
	_, err = b.r.Bytes(int(length))
	return err
}
