package sigmake

import (
	"slices"
	"testing"

	"github.com/muurk/sigknife/internal/descriptor"
)

func mustIDA(t *testing.T, text string) *descriptor.Descriptor {
	t.Helper()
	d, err := descriptor.FromIDA(text)
	if err != nil {
		t.Fatalf("FromIDA(%q) error = %v", text, err)
	}
	return d
}

func TestMultiPatternScan(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		buf     []byte
		base    uint64
		want    []uint64
	}{
		{
			name:    "wildcard middle non-overlapping",
			pattern: "90 ? 90",
			buf:     []byte{0x90, 0x00, 0x90, 0x90, 0xFF, 0x90},
			want:    []uint64{0, 3},
		},
		{
			name:    "overlapping candidates skipped",
			pattern: "90 90",
			buf:     []byte{0x90, 0x90, 0x90},
			want:    []uint64{0},
		},
		{
			name:    "base added",
			pattern: "C3",
			buf:     []byte{0x00, 0xC3, 0x00, 0xC3},
			base:    0x401000,
			want:    []uint64{0x401001, 0x401003},
		},
		{
			name:    "leading wildcard",
			pattern: "? 8B EC",
			buf:     []byte{0x55, 0x8B, 0xEC, 0x00, 0x8B, 0xEC},
			want:    []uint64{0},
		},
		{
			name:    "match at end",
			pattern: "EC C3",
			buf:     []byte{0x00, 0x00, 0xEC, 0xC3},
			want:    []uint64{2},
		},
		{
			name:    "no match",
			pattern: "CC CC",
			buf:     []byte{0xCC, 0x00, 0xCC},
		},
		{
			name:    "pattern longer than buffer",
			pattern: "90 90 90",
			buf:     []byte{0x90, 0x90},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MultiPatternScan(mustIDA(t, tt.pattern), tt.buf, tt.base)
			if !slices.Equal(got, tt.want) {
				t.Errorf("MultiPatternScan() = %x, want %x", got, tt.want)
			}
		})
	}
}

func TestMultiPatternScanCap(t *testing.T) {
	buf := make([]byte, 3*MaxScanResults)
	got := MultiPatternScan(mustIDA(t, "?"), buf, 0)
	if len(got) != MaxScanResults {
		t.Errorf("MultiPatternScan() returned %d results, want %d", len(got), MaxScanResults)
	}
	if CountMatches(mustIDA(t, "00 00"), buf) != MaxScanResults {
		t.Errorf("CountMatches() not capped")
	}
}

func TestIndex(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		buf     []byte
		want    int
	}{
		{name: "first of several", pattern: "90 ? 90", buf: []byte{0x00, 0x90, 0x01, 0x90, 0x90, 0x02, 0x90}, want: 1},
		{name: "leading wildcard", pattern: "? C3", buf: []byte{0x55, 0x90, 0xC3}, want: 1},
		{name: "false start skipped", pattern: "55 8B", buf: []byte{0x55, 0x89, 0x55, 0x8B}, want: 2},
		{name: "absent", pattern: "CC CC", buf: []byte{0xCC, 0x90, 0xCC}, want: -1},
		{name: "longer than buffer", pattern: "90 90 90", buf: []byte{0x90, 0x90}, want: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Index(mustIDA(t, tt.pattern), tt.buf); got != tt.want {
				t.Errorf("Index() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestUniqueAt(t *testing.T) {
	// a run of five CC bytes starting at 0x101
	buf := []byte{0x90, 0xCC, 0xCC, 0xCC, 0xCC, 0xCC, 0x90}
	d := mustIDA(t, "CC CC CC")

	hits, unique := uniqueAt(d, buf, 0x100, 0x102)
	if unique || len(hits) != 1 || hits[0] != 0x101 {
		t.Errorf("uniqueAt(0x102) = %v, %v, want [0x101], false", hits, unique)
	}
	if _, unique := uniqueAt(d, buf, 0x100, 0x101); !unique {
		t.Error("uniqueAt(0x101) = false, want true")
	}

	count := targetCount(buf, 0x100, 0x102)
	if got := count(d); got != 2 {
		t.Errorf("targetCount() = %d for a hidden target, want 2", got)
	}
	if got := targetCount(buf, 0x100, 0x101)(d); got != 1 {
		t.Errorf("targetCount() = %d for the visible target, want 1", got)
	}
}
