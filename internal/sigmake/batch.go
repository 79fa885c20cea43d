package sigmake

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/muurk/sigknife/internal/logging"
)

// BatchResult is the outcome for one candidate address.
type BatchResult struct {
	Address   uint64
	Signature *Signature // nil when Err is set
	Err       error
}

// ProgressFunc is called once per finished candidate. Calls are serialised.
type ProgressFunc func(done, total int, result BatchResult)

// Batch generates a unique signature for every address in addrs. Candidates
// are processed concurrently and independently; the returned slice is sorted
// by address. Per-candidate failures are reported in BatchResult.Err, the
// returned error is only set for failures affecting the whole batch.
func (g *Generator) Batch(ctx context.Context, mem Memory, addrs []uint64, progress ProgressFunc) ([]BatchResult, error) {
	if err := g.opts.Validate(); err != nil {
		return nil, err
	}

	base, size := mem.Bounds()
	module, err := mem.ReadBytes(base, int(size))
	if err != nil {
		return nil, fmt.Errorf("failed to read module: %w", err)
	}

	var (
		mu      sync.Mutex
		results = make(map[uint64]BatchResult, len(addrs))
		done    int
	)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))

	for _, addr := range addrs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			res := g.batchOne(mem, module, base, size, addr)
			matches := 0
			length := 0
			if res.Signature != nil {
				matches = res.Signature.Matches
				length = res.Signature.Descriptor.Len()
			}
			logging.LogBatchResult(addr, length, matches, res.Err)

			mu.Lock()
			results[addr] = res
			done++
			if progress != nil {
				progress(done, len(addrs), res)
			}
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	keys := make([]uint64, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]BatchResult, 0, len(keys))
	for _, k := range keys {
		out = append(out, results[k])
	}
	return out, nil
}

// batchOne grows the window at addr one instruction at a time until the
// signature matches exactly once, at addr.
func (g *Generator) batchOne(mem Memory, module []byte, base, size, addr uint64) BatchResult {
	res := BatchResult{Address: addr}
	if addr < base || addr >= base+size {
		res.Err = fmt.Errorf("%w: 0x%x outside module 0x%x-0x%x", ErrInvalidRange, addr, base, base+size)
		return res
	}

	window := min(uint64(g.opts.MaxLength+maxInstructionLength), base+size-addr)
	code, err := mem.ReadBytes(addr, int(window))
	if err != nil {
		res.Err = fmt.Errorf("failed to read code at 0x%x: %w", addr, err)
		return res
	}

	var pieces []piece
	covered := 0
	target := g.opts.MinLength
	for {
		pieces, covered = g.decode(code, addr, pieces, covered, target)

		d, err := build(code, pieces)
		if err != nil {
			res.Err = err
			return res
		}
		if g.opts.TrimSignatures {
			d.Trim()
		}

		hits, unique := uniqueAt(d, module, base, addr)
		switch {
		case len(hits) == 0:
			res.Err = ErrNotFound
			return res

		case unique:
			if g.opts.ShortestSignatures {
				d.Shorten(targetCount(module, base, addr))
			}
			res.Signature = &Signature{Address: addr, Descriptor: d, CodeLength: covered, Matches: 1}
			return res

		case covered >= g.opts.MaxLength || covered >= len(code):
			res.Err = fmt.Errorf("%w: %d matches at %d bytes", ErrNoUniqueSignature, len(hits), covered)
			return res
		}

		target = covered + 1
	}
}
