package sigmake

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/muurk/sigknife/internal/descriptor"
	"github.com/muurk/sigknife/internal/disasm"
	"github.com/muurk/sigknife/internal/logging"
)

// maxInstructionLength is the longest x86 instruction encoding.
const maxInstructionLength = 15

// Memory is a snapshot of a loaded module. ReadBytes returns a private copy.
type Memory interface {
	ReadBytes(address uint64, length int) ([]byte, error)
	Bounds() (base uint64, size uint64)
}

// Signature is a generated descriptor and how often it matched.
type Signature struct {
	Address    uint64
	Descriptor *descriptor.Descriptor
	// CodeLength is the number of instruction bytes the descriptor was
	// built from, before trimming or shortening.
	CodeLength int
	Matches    int
}

// Format renders the descriptor in the given style.
func (s *Signature) Format(style descriptor.Style) (string, error) {
	return s.Descriptor.Format(style)
}

// Generator turns instruction ranges into descriptors.
type Generator struct {
	decoder disasm.Decoder
	opts    Options
}

// New creates a generator using decoder and the given policy.
func New(decoder disasm.Decoder, opts Options) *Generator {
	return &Generator{decoder: decoder, opts: opts}
}

// Options returns the generator policy.
func (g *Generator) Options() Options {
	return g.opts
}

// piece is one decoded instruction, or a single undecodable byte.
type piece struct {
	length      int
	significant int
}

func (g *Generator) nextPiece(code []byte, address uint64) piece {
	inst, err := g.decoder.Decode(code, address)
	if err != nil || inst.Length <= 0 || inst.Length > len(code) {
		logging.Debug("Treating undecodable byte as literal",
			zap.String("address", fmt.Sprintf("0x%x", address)),
			zap.Error(err),
		)
		return piece{length: 1, significant: 1}
	}
	return piece{length: inst.Length, significant: SignificantBytes(inst, g.opts)}
}

// decode appends pieces until at least target bytes of code are covered.
func (g *Generator) decode(code []byte, address uint64, pieces []piece, covered, target int) ([]piece, int) {
	for covered < target && covered < len(code) {
		p := g.nextPiece(code[covered:], address+uint64(covered))
		pieces = append(pieces, p)
		covered += p.length
	}
	return pieces, covered
}

func build(code []byte, pieces []piece) (*descriptor.Descriptor, error) {
	total := 0
	for _, p := range pieces {
		total += p.length
	}
	d, err := descriptor.New(total)
	if err != nil {
		return nil, err
	}

	off := 0
	for _, p := range pieces {
		for i := 0; i < p.length; i++ {
			if i < p.significant {
				d.Set(off+i, code[off+i])
			} else {
				d.SetWildcard(off + i)
			}
		}
		off += p.length
	}
	return d, nil
}

// FromRange builds a descriptor for the instructions covering the first
// length bytes of code, which is located at address. The last instruction may
// extend past length; code should hold enough bytes for it.
func (g *Generator) FromRange(code []byte, address uint64, length int) (*descriptor.Descriptor, error) {
	if length < MinCodeSize || length > MaxCodeSize || length > len(code) {
		return nil, fmt.Errorf("%w: %d bytes (have %d, limit %d)", ErrInvalidRange, length, len(code), MaxCodeSize)
	}
	pieces, _ := g.decode(code, address, nil, 0, length)
	return build(code, pieces)
}

// finish applies trimming and shortening according to the options. addr is
// where d was taken from.
func (g *Generator) finish(d *descriptor.Descriptor, module []byte, base, addr uint64) {
	if g.opts.TrimSignatures {
		d.Trim()
	}
	if g.opts.ShortestSignatures {
		d.Shorten(targetCount(module, base, addr))
	}
}

// Generate creates a signature for [start, end) in mem and tests it against
// the whole module. The signature is returned together with ErrAmbiguous or
// ErrNotFound when it does not match exactly once.
func (g *Generator) Generate(mem Memory, start, end uint64) (*Signature, error) {
	base, size := mem.Bounds()
	if end <= start || start < base || end > base+size || end-start > MaxCodeSize {
		return nil, fmt.Errorf("%w: 0x%x-0x%x outside module 0x%x-0x%x", ErrInvalidRange, start, end, base, base+size)
	}
	length := int(end - start)

	window := min(uint64(length+maxInstructionLength), base+size-start)
	code, err := mem.ReadBytes(start, int(window))
	if err != nil {
		return nil, fmt.Errorf("failed to read code at 0x%x: %w", start, err)
	}
	module, err := mem.ReadBytes(base, int(size))
	if err != nil {
		return nil, fmt.Errorf("failed to read module: %w", err)
	}

	d, err := g.FromRange(code, start, length)
	if err != nil {
		return nil, err
	}
	codeLen := d.Len()
	g.finish(d, module, base, start)

	hits, unique := uniqueAt(d, module, base, start)
	sig := &Signature{
		Address:    start,
		Descriptor: d,
		CodeLength: codeLen,
		Matches:    len(hits),
	}
	logging.LogRawBytes("signature window", code[:codeLen])

	switch {
	case len(hits) == 0:
		return sig, ErrNotFound
	case !unique && len(hits) == 1:
		return sig, fmt.Errorf("%w: only visible match is 0x%x", ErrAmbiguous, hits[0])
	case !unique:
		return sig, fmt.Errorf("%w: %d matches", ErrAmbiguous, sig.Matches)
	}
	return sig, nil
}
