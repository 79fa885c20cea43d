package sigmake

import (
	"fmt"

	"github.com/muurk/sigknife/internal/disasm"
)

// memImage is an in-memory module.
type memImage struct {
	base uint64
	data []byte
}

func (m *memImage) ReadBytes(addr uint64, n int) ([]byte, error) {
	if addr < m.base || addr+uint64(n) > m.base+uint64(len(m.data)) {
		return nil, fmt.Errorf("read 0x%x+%d outside image", addr, n)
	}
	off := addr - m.base
	out := make([]byte, n)
	copy(out, m.data[off:off+uint64(n)])
	return out, nil
}

func (m *memImage) Bounds() (uint64, uint64) {
	return m.base, uint64(len(m.data))
}

// lengthDecoder reports fixed instruction lengths per address (default 1)
// with no operands, so every byte is significant.
type lengthDecoder map[uint64]int

func (l lengthDecoder) Decode(code []byte, address uint64) (disasm.Instruction, error) {
	n := l[address]
	if n == 0 {
		n = 1
	}
	if n > len(code) {
		return disasm.Instruction{}, disasm.ErrDecode
	}
	return disasm.Instruction{Address: address, Length: n}, nil
}
