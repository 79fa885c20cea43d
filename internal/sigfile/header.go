package sigfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

// Header constants
const (
	Magic      = "IDASGN"
	HeaderSize = 0x29

	// VersionNewest is the only version accepted after fixup
	VersionNewest = 7

	MaxNodeBytes  = 32
	MaxNameLength = 1024
)

// Feature flags stored in Header.Features
const (
	FeatureStartup       = 0x01
	FeatureUseCType      = 0x02
	FeatureUse2ByteCType = 0x04
	FeatureUseAltCType   = 0x08
	FeatureCompressed    = 0x10
)

// Application type bits stored in Header.AppTypes
const (
	AppType32Bit = 0x0100
	AppType64Bit = 0x0200
)

// Header is the packed little-endian header at the start of every database.
type Header struct {
	Magic          [6]byte
	Version        uint8
	Processor      uint8
	FileTypes      uint32
	OSTypes        uint16
	AppTypes       uint16
	Features       uint8
	Pad            uint8
	OldModuleCount uint16
	CTypeCRC       uint16
	CTypeName      [12]byte
	NameLength     uint8
	AltCTypeCRC    uint16
	ModuleCount    uint32
}

// Compressed reports whether the tree following the name is deflated.
func (h *Header) Compressed() bool {
	return h.Features&FeatureCompressed != 0
}

// CTypeNameString returns the NUL-terminated ctype name.
func (h *Header) CTypeNameString() string {
	name := h.CTypeName[:]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	return string(name)
}

// FeatureNames lists the set feature flags.
func (h *Header) FeatureNames() []string {
	var names []string
	for _, f := range []struct {
		bit  uint8
		name string
	}{
		{FeatureStartup, "startup"},
		{FeatureUseCType, "ctype"},
		{FeatureUse2ByteCType, "2byte-ctype"},
		{FeatureUseAltCType, "alt-ctype"},
		{FeatureCompressed, "compressed"},
	} {
		if h.Features&f.bit != 0 {
			names = append(names, f.name)
		}
	}
	return names
}

// String returns a compact description for log output.
func (h *Header) String() string {
	return fmt.Sprintf("Header{version=%d, processor=%d, app_types=0x%04x, features=[%s], modules=%d}",
		h.Version, h.Processor, h.AppTypes, strings.Join(h.FeatureNames(), ","), h.ModuleCount)
}

// Fixup records how ParseHeader normalised an older header.
type Fixup struct {
	OriginalVersion uint8
	Legacy          bool // pre-v7 layout
	NameOffset      int  // where the database name begins
}

// ParseHeader decodes the fixed header and normalises its version.
func ParseHeader(data []byte) (Header, Fixup, error) {
	var h Header
	if len(data) < HeaderSize {
		return h, Fixup{}, NewTruncatedError(0, HeaderSize)
	}
	if err := binary.Read(bytes.NewReader(data[:HeaderSize]), binary.LittleEndian, &h); err != nil {
		return h, Fixup{}, fmt.Errorf("failed to read header: %w", err)
	}
	if string(h.Magic[:]) != Magic {
		return h, Fixup{}, newFormatError(KindBadMagic, 0, "got %q", h.Magic[:])
	}

	fix := Fixup{OriginalVersion: h.Version}
	fix.NameOffset, fix.Legacy = fixupVersion(&h, HeaderSize)
	if h.Version != VersionNewest {
		return h, fix, &FormatError{
			Kind:    KindUnsupportedVersion,
			Offset:  6,
			Message: fmt.Sprintf("version %d", fix.OriginalVersion),
			Err:     ErrUnsupportedVersion,
		}
	}
	return h, fix, nil
}

// fixupVersion normalises older headers in place. Each older layout is
// shorter than its successor, so the name starts earlier in the file.
func fixupVersion(h *Header, pos int) (int, bool) {
	legacy := false
	switch h.Version {
	case 4:
		pos -= 2
		fallthrough
	case 5:
		pos -= 4
		h.ModuleCount = uint32(h.OldModuleCount)
		fallthrough
	case 6:
		legacy = true
		h.Version = VersionNewest
	}
	return pos, legacy
}
