package difffile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrMalformed is returned for unparseable patch lines.
	ErrMalformed = errors.New("malformed patch line")
	// ErrMismatch is returned when a patch's old byte differs from the target.
	ErrMismatch = errors.New("original byte mismatch")
)

// Patch replaces Old with New at a file offset.
type Patch struct {
	Offset uint64
	Old    byte
	New    byte
}

// File is a parsed DIF file.
type File struct {
	Description string
	Module      string
	Patches     []Patch
}

// Load parses the DIF file at path.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dif file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a DIF file.
func Parse(r io.Reader) (*File, error) {
	d := &File{}
	sc := bufio.NewScanner(r)
	for line := 0; sc.Scan(); line++ {
		text := strings.TrimRight(sc.Text(), "\r")
		switch line {
		case 0:
			d.Description = text
			continue
		case 1:
			continue
		case 2:
			d.Module = strings.TrimSpace(text)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		p, err := parsePatch(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}
		d.Patches = append(d.Patches, p)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dif file: %w", err)
	}
	return d, nil
}

func parsePatch(text string) (Patch, error) {
	off, rest, found := strings.Cut(text, ":")
	if !found {
		return Patch{}, fmt.Errorf("%w: %q", ErrMalformed, text)
	}
	fields := strings.Fields(rest)
	if len(fields) != 2 {
		return Patch{}, fmt.Errorf("%w: %q", ErrMalformed, text)
	}
	offset, err := strconv.ParseUint(strings.TrimSpace(off), 16, 64)
	if err != nil {
		return Patch{}, fmt.Errorf("%w: bad offset %q", ErrMalformed, off)
	}
	oldByte, err := strconv.ParseUint(fields[0], 16, 8)
	if err != nil {
		return Patch{}, fmt.Errorf("%w: bad byte %q", ErrMalformed, fields[0])
	}
	newByte, err := strconv.ParseUint(fields[1], 16, 8)
	if err != nil {
		return Patch{}, fmt.Errorf("%w: bad byte %q", ErrMalformed, fields[1])
	}
	return Patch{Offset: offset, Old: byte(oldByte), New: byte(newByte)}, nil
}

// Write emits d in DIF format.
func (d *File) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s\n\n%s\n", strings.TrimRight(d.Description, "\r\n"), d.Module)
	for _, p := range d.Patches {
		fmt.Fprintf(bw, "%08x: %02X %02X\n", p.Offset, p.Old, p.New)
	}
	return bw.Flush()
}

// Save writes d to path.
func (d *File) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dif file: %w", err)
	}
	if err := d.Write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write dif file: %w", err)
	}
	return f.Close()
}

// Apply patches data in place. Patches whose old byte does not match are
// still applied and reported in the returned error.
func (d *File) Apply(data []byte) (int, error) {
	var errs []error
	applied := 0
	for _, p := range d.Patches {
		if p.Offset >= uint64(len(data)) {
			errs = append(errs, fmt.Errorf("offset 0x%x outside file", p.Offset))
			continue
		}
		if data[p.Offset] != p.Old {
			errs = append(errs, fmt.Errorf("%w at 0x%x: expected 0x%02X, found 0x%02X", ErrMismatch, p.Offset, p.Old, data[p.Offset]))
		}
		data[p.Offset] = p.New
		applied++
	}
	return applied, errors.Join(errs...)
}

// Diff builds the patches that turn original into patched. Bytes past the end
// of either slice are ignored.
func Diff(module string, original, patched []byte) *File {
	d := &File{Description: "This difference file was created by sigknife", Module: module}
	n := min(len(original), len(patched))
	for i := 0; i < n; i++ {
		if original[i] != patched[i] {
			d.Patches = append(d.Patches, Patch{Offset: uint64(i), Old: original[i], New: patched[i]})
		}
	}
	return d
}

// Sort orders patches by offset.
func (d *File) Sort() {
	sort.Slice(d.Patches, func(i, j int) bool { return d.Patches[i].Offset < d.Patches[j].Offset })
}
