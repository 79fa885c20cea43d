package sigmake

import "github.com/muurk/sigknife/internal/disasm"

// largeDispLimit is the largest 32-bit displacement still treated as a
// structure offset rather than an address.
const largeDispLimit = 0x10000

// SignificantBytes returns how many leading bytes of inst are kept concrete.
// An instruction with an unstable operand keeps only its prefixes and opcode;
// every operand encoding byte after them becomes a wildcard.
func SignificantBytes(inst disasm.Instruction, opts Options) int {
	if opts.DisableWildcards {
		return inst.Length
	}
	if inst.IsBranch() && opts.IncludeShortJumps && inst.Length-inst.PrefixLen < 5 {
		return inst.Length
	}
	if operandsStable(inst, opts) {
		return inst.Length
	}
	return inst.OpcodeEnd
}

// operandsStable reports whether no operand encodes a value that is likely to
// change between builds.
func operandsStable(inst disasm.Instruction, opts Options) bool {
	for _, op := range inst.Operands {
		switch op.Kind {
		case disasm.OperandNone, disasm.OperandReg:
			continue

		case disasm.OperandImm:
			if opts.IncludeMemReferences || op.Size < 32 {
				continue
			}
			return false

		case disasm.OperandMem:
			if op.RIPRelative && !opts.IncludeRelAddresses {
				return false
			}
			if opts.IncludeMemReferences || op.Size < 32 {
				continue
			}
			if op.Value <= largeDispLimit {
				continue
			}
			return false

		case disasm.OperandPC, disasm.OperandPTR:
			return false

		default:
			return false
		}
	}
	return true
}
