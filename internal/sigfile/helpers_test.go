package sigfile

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"encoding/binary"
	"testing"
)

// buildHeader returns a header of the length used by the given version
// followed by the name.
func buildHeader(version, features byte, appTypes uint16, name string) []byte {
	h := make([]byte, HeaderSize)
	copy(h, Magic)
	h[6] = version
	binary.LittleEndian.PutUint16(h[0x0E:], appTypes)
	h[0x10] = features
	binary.LittleEndian.PutUint16(h[0x12:], 3)
	h[0x22] = byte(len(name))
	binary.LittleEndian.PutUint32(h[0x25:], 7)

	switch version {
	case 4:
		h = h[:HeaderSize-6]
	case 5:
		h = h[:HeaderSize-4]
	}
	return append(h, name...)
}

// leafBlock encodes a single-name leaf container.
func leafBlock(name string, blockLen byte, crc uint16) []byte {
	b := []byte{0x00, blockLen, byte(crc >> 8), byte(crc), 0x01, 0x00}
	b = append(b, name...)
	return append(b, 0x00)
}

// twoBranchTree is a root with children AA -> "alpha" and BB -> "beta".
func twoBranchTree() []byte {
	tree := []byte{0x02}
	tree = append(tree, 0x01, 0x00, 0xAA)
	tree = append(tree, leafBlock("alpha", 0, 0)...)
	tree = append(tree, 0x01, 0x00, 0xBB)
	tree = append(tree, leafBlock("beta", 0, 0)...)
	return tree
}

func zlibCompress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}
	return buf.Bytes()
}

func flateCompress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		t.Fatalf("flate writer: %v", err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("flate write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("flate close: %v", err)
	}
	return buf.Bytes()
}
