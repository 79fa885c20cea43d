package disasm

import (
	"fmt"

	"golang.org/x/arch/x86/x86asm"
)

// X86 decodes x86 and x86-64 machine code with x86asm.
type X86 struct {
	mode int
}

// NewX86 returns a decoder for the given mode (16, 32 or 64).
func NewX86(mode int) (*X86, error) {
	switch mode {
	case 16, 32, 64:
		return &X86{mode: mode}, nil
	default:
		return nil, fmt.Errorf("unsupported x86 mode %d (want 16, 32 or 64)", mode)
	}
}

// Mode returns the decoding mode in bits.
func (d *X86) Mode() int { return d.mode }

// valueField identifies which operand value a trailing byte encodes.
type valueField int

const (
	fieldNone valueField = iota
	fieldDisp
	fieldImm
)

// Decode implements Decoder.
func (d *X86) Decode(code []byte, address uint64) (Instruction, error) {
	// ENDBR64/ENDBR32 (f3 0f 1e fa/fb) are not known to x86asm
	if len(code) >= 4 && code[0] == 0xF3 && code[1] == 0x0F && code[2] == 0x1E && (code[3] == 0xFA || code[3] == 0xFB) {
		text := "endbr64"
		if code[3] == 0xFB {
			text = "endbr32"
		}
		return Instruction{Address: address, Length: 4, PrefixLen: 1, OpcodeEnd: 4, Text: text}, nil
	}

	inst, err := x86asm.Decode(code, d.mode)
	if err != nil {
		return Instruction{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	out := Instruction{
		Address:   address,
		Length:    inst.Len,
		PrefixLen: prefixLen(inst),
		OpcodeEnd: opcodeEnd(code[:inst.Len], d.mode),
		Flow:      flowOf(inst.Op),
		Text:      x86asm.IntelSyntax(inst, address, nil),
	}
	out.DispSize, out.ImmSize = d.valueBytes(code[:inst.Len], inst)

	for _, arg := range inst.Args {
		if arg == nil {
			break
		}
		out.Operands = append(out.Operands, classify(inst.Op, arg, out.DispSize, out.ImmSize))
	}
	return out, nil
}

// valueBytes counts trailing displacement and immediate bytes by flipping
// each byte from the end and re-decoding.
func (d *X86) valueBytes(raw []byte, inst x86asm.Inst) (disp, imm int) {
	buf := make([]byte, len(raw))
	copy(buf, raw)

	for i := len(raw) - 1; i > 0; i-- {
		buf[i] ^= 0xFF
		alt, err := x86asm.Decode(buf, d.mode)
		buf[i] = raw[i]
		if err != nil {
			break
		}

		switch changedField(inst, alt) {
		case fieldDisp:
			disp++
		case fieldImm:
			if disp > 0 {
				// immediates never precede the displacement
				return disp, imm
			}
			imm++
		default:
			return disp, imm
		}
	}
	return disp, imm
}

// changedField reports which value differs between two decodings that
// otherwise have the same shape.
func changedField(a, b x86asm.Inst) valueField {
	if a.Op != b.Op || a.Len != b.Len || a.Prefix != b.Prefix {
		return fieldNone
	}

	changed := fieldNone
	for i := range a.Args {
		x, y := a.Args[i], b.Args[i]
		if x == nil || y == nil {
			if x != y {
				return fieldNone
			}
			break
		}

		switch xv := x.(type) {
		case x86asm.Reg:
			if yv, ok := y.(x86asm.Reg); !ok || xv != yv {
				return fieldNone
			}
		case x86asm.Mem:
			yv, ok := y.(x86asm.Mem)
			if !ok || xv.Segment != yv.Segment || xv.Base != yv.Base || xv.Scale != yv.Scale || xv.Index != yv.Index {
				return fieldNone
			}
			if xv.Disp != yv.Disp && changed == fieldNone {
				changed = fieldDisp
			}
		case x86asm.Imm:
			yv, ok := y.(x86asm.Imm)
			if !ok {
				return fieldNone
			}
			if xv != yv && changed == fieldNone {
				changed = fieldImm
			}
		case x86asm.Rel:
			yv, ok := y.(x86asm.Rel)
			if !ok {
				return fieldNone
			}
			if xv != yv && changed == fieldNone {
				changed = fieldImm
			}
		default:
			return fieldNone
		}
	}
	return changed
}

func classify(op x86asm.Op, arg x86asm.Arg, dispBytes, immBytes int) Operand {
	switch a := arg.(type) {
	case x86asm.Reg:
		return Operand{Kind: OperandReg}
	case x86asm.Mem:
		return Operand{
			Kind:        OperandMem,
			Size:        dispBytes * 8,
			Value:       a.Disp,
			RIPRelative: a.Base == x86asm.RIP,
		}
	case x86asm.Imm:
		if op == x86asm.LJMP || op == x86asm.LCALL {
			return Operand{Kind: OperandPTR, Size: immBytes * 8, Value: int64(a)}
		}
		return Operand{Kind: OperandImm, Size: immBytes * 8, Value: int64(a)}
	case x86asm.Rel:
		return Operand{Kind: OperandPC, Size: immBytes * 8, Value: int64(a)}
	default:
		return Operand{Kind: OperandNone}
	}
}

func prefixLen(inst x86asm.Inst) int {
	n := 0
	for _, p := range inst.Prefix {
		if p == 0 {
			break
		}
		if p&x86asm.PrefixImplicit != 0 {
			continue
		}
		n++
	}
	return n
}

// opcodeEnd skips legacy, REX and VEX prefixes and the opcode bytes of raw.
func opcodeEnd(raw []byte, mode int) int {
	i := 0
	for i < len(raw) && isLegacyPrefix(raw[i]) {
		i++
	}
	if mode == 64 && i < len(raw) && raw[i]&0xF0 == 0x40 {
		i++
	}
	if i >= len(raw) {
		return len(raw)
	}

	n := 1
	switch raw[i] {
	case 0x0F:
		n = 2
		if i+1 < len(raw) && (raw[i+1] == 0x38 || raw[i+1] == 0x3A) {
			n = 3
		}
	case 0xC4, 0xC5:
		// outside 64-bit mode these are LES/LDS unless ModRM.mod is 3
		if mode == 64 || (i+1 < len(raw) && raw[i+1]>>6 == 3) {
			n = 4
			if raw[i] == 0xC5 {
				n = 3
			}
		}
	}
	return min(i+n, len(raw))
}

func isLegacyPrefix(b byte) bool {
	switch b {
	case 0xF0, 0xF2, 0xF3, 0x2E, 0x36, 0x3E, 0x26, 0x64, 0x65, 0x66, 0x67:
		return true
	}
	return false
}

func flowOf(op x86asm.Op) FlowKind {
	switch op {
	case x86asm.JMP, x86asm.LJMP:
		return FlowJump
	case x86asm.JA, x86asm.JAE, x86asm.JB, x86asm.JBE, x86asm.JE, x86asm.JG, x86asm.JGE,
		x86asm.JL, x86asm.JLE, x86asm.JNE, x86asm.JNO, x86asm.JNP, x86asm.JNS, x86asm.JO,
		x86asm.JP, x86asm.JS, x86asm.JCXZ, x86asm.JECXZ, x86asm.JRCXZ,
		x86asm.LOOP, x86asm.LOOPE, x86asm.LOOPNE:
		return FlowCondJump
	case x86asm.CALL, x86asm.LCALL:
		return FlowCall
	case x86asm.RET, x86asm.LRET:
		return FlowReturn
	default:
		return FlowNone
	}
}
