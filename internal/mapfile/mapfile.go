package mapfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// HeaderSegmentSize is the size of the implicit PE header segment.
const HeaderSegmentSize = 0x1000

// ErrNoSymbols is returned when a file has no "Address" section.
var ErrNoSymbols = errors.New("no symbol section found")

// Segment is a module segment.
type Segment struct {
	ID     int
	Name   string
	Class  string
	Start  uint64
	Length uint64
}

// Symbol is a named SEGMENT:OFFSET location.
type Symbol struct {
	Name    string
	Segment int
	Offset  uint64
}

// File is a parsed MAP file.
type File struct {
	Segments []Segment
	Symbols  []Symbol
}

// Load parses the MAP file at path.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open map file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

type section int

const (
	sectionNone section = iota
	sectionSegments
	sectionSymbols
	sectionDone
)

// Parse reads a MAP file.
func Parse(r io.Reader) (*File, error) {
	m := &File{}
	var (
		state      section
		total      uint64
		sawSymbols bool
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())

		switch {
		case !sawSymbols && len(m.Segments) == 0 && strings.HasPrefix(line, "Start"):
			m.Segments = append(m.Segments, Segment{Name: "PE_HEADER", Class: "DATA", Length: HeaderSegmentSize})
			total = HeaderSegmentSize
			state = sectionSegments
			continue
		case strings.HasPrefix(line, "Address") || strings.HasPrefix(line, "Static symbols"):
			sawSymbols = true
			state = sectionSymbols
			continue
		}

		if line == "" || state == sectionNone || state == sectionDone {
			continue
		}
		if !strings.ContainsAny(line, ":;") {
			state = sectionDone
			continue
		}

		switch state {
		case sectionSegments:
			seg, ok := parseSegment(line)
			if !ok {
				state = sectionDone
				continue
			}
			if seg.Length == 0 {
				continue
			}
			seg.Start += total
			total += seg.Length
			m.Segments = append(m.Segments, seg)
		case sectionSymbols:
			sym, ok := parseSymbol(line)
			if !ok {
				state = sectionDone
				continue
			}
			m.Symbols = append(m.Symbols, sym)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read map file: %w", err)
	}
	if !sawSymbols {
		return nil, ErrNoSymbols
	}
	return m, nil
}

// parseSegment reads "0001:00000000 000000030H .init CODE".
func parseSegment(line string) (Segment, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Segment{}, false
	}
	id, off, ok := splitAddress(fields[0])
	if !ok {
		return Segment{}, false
	}
	length, err := strconv.ParseUint(strings.TrimSuffix(strings.TrimSuffix(fields[1], "H"), "h"), 16, 64)
	if err != nil {
		return Segment{}, false
	}
	seg := Segment{ID: id, Start: off, Length: length}
	if len(fields) > 2 {
		seg.Name = fields[2]
	}
	if len(fields) > 3 {
		seg.Class = fields[3]
	}
	return seg, true
}

// parseSymbol reads "0001:00000027       _pre_c_init    00401027 f  obj".
func parseSymbol(line string) (Symbol, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Symbol{}, false
	}
	id, off, ok := splitAddress(fields[0])
	if !ok {
		return Symbol{}, false
	}
	return Symbol{Name: fields[1], Segment: id, Offset: off}, true
}

func splitAddress(s string) (int, uint64, bool) {
	seg, off, found := strings.Cut(s, ":")
	if !found {
		return 0, 0, false
	}
	id, err := strconv.ParseUint(seg, 16, 32)
	if err != nil {
		return 0, 0, false
	}
	o, err := strconv.ParseUint(off, 16, 64)
	if err != nil {
		return 0, 0, false
	}
	return int(id), o, true
}

// SegmentStart returns the module relative start of segment id, or 0 when
// the segment is unknown.
func (m *File) SegmentStart(id int) uint64 {
	for _, s := range m.Segments {
		if s.ID == id {
			return s.Start
		}
	}
	return 0
}

// Resolve returns the module relative offset of sym.
func (m *File) Resolve(sym Symbol) uint64 {
	return m.SegmentStart(sym.Segment) + sym.Offset
}

// Label is a symbol placed at a virtual address.
type Label struct {
	Address uint64
	Name    string
}

// Labels resolves every symbol against a module base.
func (m *File) Labels(base uint64) []Label {
	out := make([]Label, 0, len(m.Symbols))
	for _, s := range m.Symbols {
		out = append(out, Label{Address: base + m.Resolve(s), Name: s.Name})
	}
	return out
}
