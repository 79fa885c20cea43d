// Package disasm describes decoded instructions in the terms the signature
// generator needs: total length, how many trailing bytes hold displacement,
// immediate or relative values, and what kind of operands the instruction has.
//
// X86 implements Decoder on top of golang.org/x/arch/x86/x86asm. x86asm does
// not report where operand values are encoded, so X86 locates them by
// flipping each trailing byte and re-decoding: a byte belongs to a value when
// the instruction keeps its shape (mnemonic, length, registers, addressing
// form) and only an immediate, displacement or branch offset changes.
package disasm
