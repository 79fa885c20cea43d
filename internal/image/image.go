package image

import (
	"bytes"
	"debug/elf"
	"errors"
	"fmt"
	"os"
)

// BadAddress is returned by address translations that fail.
const BadAddress = ^uint64(0)

// ErrOutOfBounds is returned for reads outside the image.
var ErrOutOfBounds = errors.New("address outside image")

// Format identifies how an image was loaded.
type Format string

const (
	FormatRaw Format = "raw"
	FormatELF Format = "elf"
	FormatPE  Format = "pe"
)

// Image is a module snapshot.
type Image struct {
	Name   string
	Format Format
	Base   uint64
	Entry  uint64
	// Bits is the code bitness (32 or 64)
	Bits int

	data     []byte
	sections []section
}

// section maps a file range to a virtual range (PE only).
type section struct {
	name       string
	fileOffset uint32
	fileSize   uint32
	rva        uint32
}

// New wraps data as an image at base.
func New(name string, base uint64, data []byte, bits int) *Image {
	return &Image{Name: name, Format: FormatRaw, Base: base, Entry: base, Bits: bits, data: data}
}

// Bounds returns the base address and size.
func (img *Image) Bounds() (uint64, uint64) {
	return img.Base, uint64(len(img.data))
}

// Size returns the image size in bytes.
func (img *Image) Size() int {
	return len(img.data)
}

// Data returns the image bytes. Callers must not modify them.
func (img *Image) Data() []byte {
	return img.data
}

// Contains reports whether address lies inside the image.
func (img *Image) Contains(address uint64) bool {
	return address >= img.Base && address-img.Base < uint64(len(img.data))
}

// ReadBytes returns a copy of length bytes at address.
func (img *Image) ReadBytes(address uint64, length int) ([]byte, error) {
	if length < 0 || !img.Contains(address) || address-img.Base+uint64(length) > uint64(len(img.data)) {
		return nil, fmt.Errorf("%w: 0x%x+0x%x (image 0x%x-0x%x)", ErrOutOfBounds, address, length, img.Base, img.Base+uint64(len(img.data)))
	}
	off := address - img.Base
	out := make([]byte, length)
	copy(out, img.data[off:off+uint64(length)])
	return out, nil
}

// FileOffsetToVA translates a file offset into a virtual address. Raw images
// map offsets linearly; ELF images cannot translate and return BadAddress.
func (img *Image) FileOffsetToVA(offset uint64) uint64 {
	switch img.Format {
	case FormatRaw:
		if offset < uint64(len(img.data)) {
			return img.Base + offset
		}
	case FormatPE:
		for _, s := range img.sections {
			if offset >= uint64(s.fileOffset) && offset < uint64(s.fileOffset)+uint64(s.fileSize) {
				return img.Base + uint64(s.rva) + (offset - uint64(s.fileOffset))
			}
		}
	}
	return BadAddress
}

// LoadOptions control how files are interpreted.
type LoadOptions struct {
	// Base is used for raw images.
	Base uint64
	// Bits is used for raw images (default 64).
	Bits int
	// Raw skips format detection.
	Raw bool
}

// Load reads path and builds an image, detecting PE and ELF files.
func Load(path string, opts LoadOptions) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return Parse(path, data, opts)
}

// Parse builds an image from file contents.
func Parse(name string, data []byte, opts LoadOptions) (*Image, error) {
	if !opts.Raw {
		switch {
		case bytes.HasPrefix(data, []byte(elf.ELFMAG)):
			return parseELF(name, data)
		case bytes.HasPrefix(data, []byte("MZ")):
			return parsePE(name, data)
		}
	}
	bits := opts.Bits
	if bits == 0 {
		bits = 64
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image %s is empty", name)
	}
	return New(name, opts.Base, data, bits), nil
}

func parseELF(name string, data []byte) (*Image, error) {
	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ELF file: %w", err)
	}
	defer f.Close()

	text := f.Section(".text")
	if text == nil {
		return nil, fmt.Errorf("no .text section found")
	}
	code, err := text.Data()
	if err != nil {
		return nil, fmt.Errorf("failed to read .text section: %w", err)
	}

	bits := 64
	if f.Class == elf.ELFCLASS32 {
		bits = 32
	}
	return &Image{
		Name:   name,
		Format: FormatELF,
		Base:   text.Addr,
		Entry:  f.Entry,
		Bits:   bits,
		data:   code,
	}, nil
}
