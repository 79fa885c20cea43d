package image

import (
	"bytes"
	"debug/pe"
	"fmt"
)

// maxMappedImage bounds SizeOfImage for mapped PE files.
const maxMappedImage = 1 << 30

func parsePE(name string, data []byte) (*Image, error) {
	f, err := pe.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse PE file: %w", err)
	}
	defer f.Close()

	var (
		imageBase   uint64
		sizeOfImage uint32
		headerSize  uint32
		entry       uint32
		bits        int
	)
	switch oh := f.OptionalHeader.(type) {
	case *pe.OptionalHeader32:
		imageBase, sizeOfImage, headerSize, entry, bits = uint64(oh.ImageBase), oh.SizeOfImage, oh.SizeOfHeaders, oh.AddressOfEntryPoint, 32
	case *pe.OptionalHeader64:
		imageBase, sizeOfImage, headerSize, entry, bits = oh.ImageBase, oh.SizeOfImage, oh.SizeOfHeaders, oh.AddressOfEntryPoint, 64
	default:
		return nil, fmt.Errorf("PE file has no optional header")
	}
	if sizeOfImage == 0 || sizeOfImage > maxMappedImage {
		return nil, fmt.Errorf("invalid SizeOfImage 0x%x", sizeOfImage)
	}

	mapped := make([]byte, sizeOfImage)
	copy(mapped, data[:min(int(headerSize), len(data), len(mapped))])

	img := &Image{
		Name:   name,
		Format: FormatPE,
		Base:   imageBase,
		Entry:  imageBase + uint64(entry),
		Bits:   bits,
	}
	img.sections = append(img.sections, section{name: "HEADER", fileOffset: 0, fileSize: headerSize, rva: 0})

	for _, s := range f.Sections {
		raw, err := s.Data()
		if err != nil {
			return nil, fmt.Errorf("failed to read section %s: %w", s.Name, err)
		}
		if uint64(s.VirtualAddress) >= uint64(len(mapped)) {
			continue
		}
		size := len(raw)
		if s.VirtualSize != 0 && int(s.VirtualSize) < size {
			size = int(s.VirtualSize)
		}
		copy(mapped[s.VirtualAddress:], raw[:size])
		img.sections = append(img.sections, section{
			name:       s.Name,
			fileOffset: s.Offset,
			fileSize:   s.Size,
			rva:        s.VirtualAddress,
		})
	}
	img.data = mapped
	return img, nil
}
