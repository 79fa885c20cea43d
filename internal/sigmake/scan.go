package sigmake

import (
	"bytes"

	"github.com/muurk/sigknife/internal/descriptor"
)

// MaxScanResults bounds MultiPatternScan on degenerate patterns.
const MaxScanResults = 10000

// MultiPatternScan returns the addresses (base + offset) of every
// non-overlapping match of d in buf, scanning from the start. At most
// MaxScanResults addresses are returned.
func MultiPatternScan(d *descriptor.Descriptor, buf []byte, base uint64) []uint64 {
	var out []uint64
	for off := 0; ; off += d.Len() {
		off = nextMatch(d, buf, off)
		if off < 0 {
			return out
		}
		out = append(out, base+uint64(off))
		if len(out) >= MaxScanResults {
			return out
		}
	}
}

// Index returns the offset of the first match of d in buf, or -1.
func Index(d *descriptor.Descriptor, buf []byte) int {
	return nextMatch(d, buf, 0)
}

// nextMatch returns the offset of the first match at or after off, or -1.
func nextMatch(d *descriptor.Descriptor, buf []byte, off int) int {
	n := d.Len()
	if n == 0 || n > len(buf) {
		return -1
	}

	first := d.At(0)
	for off+n <= len(buf) {
		if !first.Wildcard {
			i := bytes.IndexByte(buf[off:len(buf)-n+1], first.Value)
			if i < 0 {
				return -1
			}
			off += i
		}
		if d.MatchAt(buf, off) {
			return off
		}
		off++
	}
	return -1
}

// CountMatches returns len(MultiPatternScan(d, buf, 0)).
func CountMatches(d *descriptor.Descriptor, buf []byte) int {
	return len(MultiPatternScan(d, buf, 0))
}

// uniqueAt reports whether addr is the only match of d in buf, returning the
// matches found.
func uniqueAt(d *descriptor.Descriptor, buf []byte, base, addr uint64) ([]uint64, bool) {
	hits := MultiPatternScan(d, buf, base)
	return hits, len(hits) == 1 && hits[0] == addr
}

// targetCount counts matches of a candidate in buf for Descriptor.Shorten. A
// lone match away from addr counts as two so the target stays identified.
func targetCount(buf []byte, base, addr uint64) descriptor.ScanFunc {
	return func(c *descriptor.Descriptor) int {
		hits, unique := uniqueAt(c, buf, base, addr)
		if len(hits) == 1 && !unique {
			return 2
		}
		return len(hits)
	}
}
