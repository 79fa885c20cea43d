package sigmake

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

func batchOptions() Options {
	opts := DefaultOptions()
	opts.MinLength = 10
	opts.MaxLength = 50
	return opts
}

func TestBatchGrowsUntilUnique(t *testing.T) {
	const base = 0x1000
	prefix := []byte{0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x18, 0x19}

	// The 10 byte prefix appears twice; the 11th byte tells them apart.
	module := append([]byte{}, prefix...)
	module = append(module, 0xAA, 0x00, 0x00, 0x00, 0x00, 0x00)
	module = append(module, prefix...)
	module = append(module, 0xBB, 0x00, 0x00, 0x00, 0x00, 0x00)
	img := &memImage{base: base, data: module}

	// three instructions of 5, 5 and 1 bytes at the first copy
	dec := lengthDecoder{base: 5, base + 5: 5, base + 10: 1}

	var (
		mu       sync.Mutex
		progress []int
	)
	results, err := New(dec, batchOptions()).Batch(context.Background(), img, []uint64{base + 16, base}, func(done, total int, _ BatchResult) {
		mu.Lock()
		defer mu.Unlock()
		if total != 2 {
			t.Errorf("progress total = %d, want 2", total)
		}
		progress = append(progress, done)
	})
	if err != nil {
		t.Fatalf("Batch() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Batch() returned %d results, want 2", len(results))
	}
	if len(progress) != 2 || progress[1] != 2 {
		t.Errorf("progress calls = %v", progress)
	}

	first := results[0]
	if first.Address != base || first.Err != nil {
		t.Fatalf("results[0] = %+v", first)
	}
	if first.Signature.CodeLength != 11 || first.Signature.Descriptor.Len() != 11 {
		t.Errorf("signature length = %d (code %d), want 11", first.Signature.Descriptor.Len(), first.Signature.CodeLength)
	}
	if got := MultiPatternScan(first.Signature.Descriptor, module, base); len(got) != 1 || got[0] != base {
		t.Errorf("signature matches at %x, want only 0x%x", got, base)
	}
	if got := first.Signature.Descriptor.ToIDA(); got != "10 11 12 13 14 15 16 17 18 19 AA" {
		t.Errorf("signature = %q", got)
	}

	second := results[1]
	if second.Address != base+16 || second.Err != nil || second.Signature.Descriptor.Len() != 11 {
		t.Errorf("results[1] = %+v", second)
	}
}

func TestBatchNoUniqueSignature(t *testing.T) {
	module := make([]byte, 300)
	for i := 0; i < 32; i++ {
		module[i] = byte(i + 1)
	}
	img := &memImage{base: 0, data: module}

	results, err := New(lengthDecoder{}, batchOptions()).Batch(context.Background(), img, []uint64{100, 0, 0x1000}, nil)
	if err != nil {
		t.Fatalf("Batch() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Batch() returned %d results, want 3", len(results))
	}

	if results[0].Address != 0 || results[0].Err != nil {
		t.Errorf("results[0] = %+v, want unique signature", results[0])
	}
	if !errors.Is(results[1].Err, ErrNoUniqueSignature) || results[1].Signature != nil {
		t.Errorf("results[1].Err = %v, want ErrNoUniqueSignature", results[1].Err)
	}
	if !errors.Is(results[2].Err, ErrInvalidRange) {
		t.Errorf("results[2].Err = %v, want ErrInvalidRange", results[2].Err)
	}
}

func TestBatchTargetInsideRepeatedRun(t *testing.T) {
	// 01..09, then 22 int3 bytes from 9 to 30, then 11 22
	module := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09}
	for i := 0; i < 22; i++ {
		module = append(module, 0xCC)
	}
	module = append(module, 0x11, 0x22)
	img := &memImage{base: 0, data: module}

	// Up to 21 bytes the scan reports a lone match at 9, which hides the
	// target at 10. Only the 0x11 after the run pins the signature to 10.
	want := strings.Repeat("CC ", 21) + "11"

	for _, shortest := range []bool{false, true} {
		opts := batchOptions()
		opts.ShortestSignatures = shortest

		results, err := New(lengthDecoder{}, opts).Batch(context.Background(), img, []uint64{10}, nil)
		if err != nil {
			t.Fatalf("Batch() error = %v", err)
		}
		res := results[0]
		if res.Err != nil {
			t.Fatalf("shortest=%v: results[0].Err = %v", shortest, res.Err)
		}
		if got := res.Signature.Descriptor.ToIDA(); got != want {
			t.Errorf("shortest=%v: signature = %q, want %q", shortest, got, want)
		}
		if got := MultiPatternScan(res.Signature.Descriptor, module, 0); len(got) != 1 || got[0] != 10 {
			t.Errorf("shortest=%v: signature matches at %v, want only 0xa", shortest, got)
		}
	}
}

func TestBatchInvalidOptions(t *testing.T) {
	opts := batchOptions()
	opts.MinLength = 0
	img := &memImage{data: []byte{0x90}}
	if _, err := New(lengthDecoder{}, opts).Batch(context.Background(), img, []uint64{0}, nil); err == nil {
		t.Error("Batch() error = nil for invalid options")
	}
}

func TestBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	img := &memImage{data: make([]byte, 64)}
	_, err := New(lengthDecoder{}, batchOptions()).Batch(ctx, img, []uint64{0, 1, 2}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Batch() error = %v, want context.Canceled", err)
	}
}
