package disasm

import (
	"errors"
	"fmt"
)

// ErrDecode is returned when no instruction can be decoded at an offset.
var ErrDecode = errors.New("failed to decode instruction")

// OperandKind classifies one instruction operand.
type OperandKind int

const (
	OperandNone OperandKind = iota
	OperandReg
	OperandImm
	OperandMem
	OperandPC  // relative branch target
	OperandPTR // far pointer
)

// String returns a short operand kind name
func (k OperandKind) String() string {
	switch k {
	case OperandNone:
		return "none"
	case OperandReg:
		return "reg"
	case OperandImm:
		return "imm"
	case OperandMem:
		return "mem"
	case OperandPC:
		return "pc"
	case OperandPTR:
		return "ptr"
	default:
		return fmt.Sprintf("OperandKind(%d)", int(k))
	}
}

// FlowKind classifies control flow.
type FlowKind int

const (
	FlowNone FlowKind = iota
	FlowJump
	FlowCondJump
	FlowCall
	FlowReturn
)

// Operand is one decoded operand.
type Operand struct {
	Kind OperandKind
	// Size is the encoded width in bits of the immediate or displacement
	// (0 when the operand has none).
	Size        int
	Value       int64 // immediate, displacement or relative offset
	RIPRelative bool
}

// Instruction is a decoded instruction.
type Instruction struct {
	Address   uint64
	Length    int
	PrefixLen int
	// OpcodeEnd is the byte count of prefixes plus opcode. Everything after
	// it (ModRM, SIB, displacement, immediates) encodes operands.
	OpcodeEnd int
	// DispSize and ImmSize are the encoded byte counts of the displacement
	// and of immediates (including relative branch offsets).
	DispSize int
	ImmSize  int
	Operands []Operand
	Flow     FlowKind
	Text     string
}

// IsBranch reports whether the instruction is a jump of either kind.
func (i Instruction) IsBranch() bool {
	return i.Flow == FlowJump || i.Flow == FlowCondJump
}

// Decoder decodes one instruction from the start of code, located at address.
type Decoder interface {
	Decode(code []byte, address uint64) (Instruction, error)
}

// DecodeRange decodes instructions sequentially until at least length bytes
// are covered or code runs out.
func DecodeRange(d Decoder, code []byte, address uint64, length int) ([]Instruction, error) {
	var out []Instruction
	for off := 0; off < length && off < len(code); {
		inst, err := d.Decode(code[off:], address+uint64(off))
		if err != nil {
			return out, fmt.Errorf("at 0x%x: %w", address+uint64(off), err)
		}
		out = append(out, inst)
		off += inst.Length
	}
	return out, nil
}
