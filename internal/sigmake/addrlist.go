package sigmake

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseAddressList reads one hexadecimal address per line. A "0x" prefix is
// optional, "//" starts a comment and blank lines are ignored. Duplicate
// addresses are dropped, keeping the first occurrence.
func ParseAddressList(r io.Reader) ([]uint64, error) {
	var out []uint64
	seen := make(map[uint64]bool)

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.Index(text, "//"); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		hex := strings.TrimPrefix(strings.TrimPrefix(text, "0x"), "0X")
		addr, err := strconv.ParseUint(hex, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid address %q: %w", line, text, err)
		}
		if seen[addr] {
			continue
		}
		seen[addr] = true
		out = append(out, addr)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read address list: %w", err)
	}
	return out, nil
}
