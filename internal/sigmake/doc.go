// Package sigmake generates code signatures from disassembled instructions.
//
// For every instruction the generator decides which bytes identify the code
// and which are incidental. Prefix and opcode bytes are always kept. When the
// operand policy in Options says an operand is likely to differ between builds
// (absolute addresses, large displacements, relative call targets), every
// byte after the opcode becomes a wildcard, ModRM and SIB included.
//
// # Uniqueness
//
// MultiPatternScan searches a memory image for a descriptor and returns every
// non-overlapping match, capped at MaxScanResults. A signature is usable when
// matches exactly once and that match is its own address. Scanning skips
// overlapping matches, so inside a repeated run an earlier match can hide the
// target; a lone match elsewhere therefore counts as ambiguous too. Generate
// reports ErrAmbiguous and Batch grows the window by one more instruction.
//
// # Batch Generation
//
// Batch processes a list of addresses concurrently with an errgroup bounded
// by GOMAXPROCS. Each candidate starts at Options.MinLength bytes and grows one
// instruction at a time until its signature is unique or Options.MaxLength is
// exceeded. Results are collected in a mutex guarded map keyed by address.
//
//	gen := sigmake.New(decoder, sigmake.DefaultOptions())
//	results, err := gen.Batch(ctx, img, addrs, nil)
//	for _, r := range results {
//	    fmt.Printf("0x%x %s\n", r.Address, r.Descriptor)
//	}
package sigmake
