package sigfile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseTwoBranchTree(t *testing.T) {
	data := append(buildHeader(7, 0, AppType32Bit|AppType64Bit, "demo"), twoBranchTree()...)

	db, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if db.Name != "demo" {
		t.Errorf("Name = %q, want demo", db.Name)
	}
	if !db.Supports(32) || !db.Supports(64) || db.Supports(16) {
		t.Errorf("Supports() mismatch for app types 0x%x", db.Header.AppTypes)
	}

	root := db.Tree.Node(Root)
	if len(root.Slots) != 0 || len(root.Children) != 2 {
		t.Fatalf("root = %+v, want 2 children and no slots", root)
	}

	wantPattern := []string{"AA", "BB"}
	wantSymbol := []string{"alpha", "beta"}
	for i, c := range root.Children {
		child := db.Tree.Node(c)
		if got := child.Pattern(); got != wantPattern[i] {
			t.Errorf("child %d pattern = %q, want %q", i, got, wantPattern[i])
		}
		if !child.IsLeafContainer() || len(child.Leaves) != 1 {
			t.Fatalf("child %d = %+v, want one leaf", i, child)
		}
		if got := db.Tree.Leaves[child.Leaves[0]].Symbol; got != wantSymbol[i] {
			t.Errorf("child %d symbol = %q, want %q", i, got, wantSymbol[i])
		}
	}

	stats := db.Stats()
	if stats.Nodes != 3 || stats.Leaves != 2 || stats.Depth != 1 {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestParseRelocations(t *testing.T) {
	tree := []byte{0x02}
	// 3 bytes, middle relocated (mask 0b010)
	tree = append(tree, 0x03, 0x02, 0x11, 0x33)
	tree = append(tree, leafBlock("short", 0, 0)...)
	// 16 bytes, last relocated via RelocBits tier 1
	tree = append(tree, 0x10, 0x01)
	for i := 0; i < 15; i++ {
		tree = append(tree, byte(i))
	}
	tree = append(tree, leafBlock("long", 0, 0)...)

	db, err := Parse(append(buildHeader(7, 0, AppType32Bit, ""), tree...))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	root := db.Tree.Node(Root)
	if got := db.Tree.Node(root.Children[0]).Pattern(); got != "11 .. 33" {
		t.Errorf("short pattern = %q", got)
	}
	long := db.Tree.Node(root.Children[1])
	if len(long.Slots) != 16 || !long.Slots[15].Relocation || long.Slots[14].Value != 14 {
		t.Errorf("long pattern = %q", long.Pattern())
	}
}

func TestParseLeafFlags(t *testing.T) {
	tree := []byte{0x00}
	tree = append(tree, 0x02, 0x12, 0x34) // block len 2, crc 0x1234
	tree = append(tree, 0x10)             // total length
	tree = append(tree, 0x00, 'o', 'n', 'e', 0x01)
	tree = append(tree, 0x04, 't', 'w', 'o', 0x02|0x04|0x08)
	tree = append(tree, 0x05, 0x06)                     // 0x02 record
	tree = append(tree, 0x01, 0x03, 'r', 'e', 'f')      // 0x04 record
	tree = append(tree, 0x20, 0x00, 't', 'h', 'r', 'e', 'e', 0x10)
	tree = append(tree, 0x00, 0x00, 0x00, 0x01, 0x00, 'f', 'o', 'u', 'r', 0x00)

	db, err := Parse(append(buildHeader(7, 0, AppType32Bit, ""), tree...))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := []Leaf{
		{Symbol: "one", CRCLength: 2, CRC16: 0x1234, Offset: 0, FunctionLength: 0x10},
		{Symbol: "two", CRCLength: 2, CRC16: 0x1234, Offset: 4, FunctionLength: 0x10},
		{Symbol: "three", CRCLength: 2, CRC16: 0x1234, Offset: 0, FunctionLength: 0x20},
		{Symbol: "four", CRCLength: 0, CRC16: 0, Offset: 0, FunctionLength: 1},
	}
	if len(db.Tree.Leaves) != len(want) {
		t.Fatalf("got %d leaves, want %d: %+v", len(db.Tree.Leaves), len(want), db.Tree.Leaves)
	}
	for i, w := range want {
		if db.Tree.Leaves[i] != w {
			t.Errorf("leaf %d = %+v, want %+v", i, db.Tree.Leaves[i], w)
		}
	}
}

func TestParseNameWithLeadingFlag(t *testing.T) {
	tree := []byte{0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 'n', 'e', 'g', 0x00}
	db, err := Parse(append(buildHeader(7, 0, AppType32Bit, ""), tree...))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := db.Tree.Leaves[0].Symbol; got != "neg" {
		t.Errorf("Symbol = %q, want neg", got)
	}
}

func TestParseCompressed(t *testing.T) {
	tests := []struct {
		name     string
		compress func(*testing.T, []byte) []byte
	}{
		{name: "zlib", compress: zlibCompress},
		{name: "raw deflate", compress: flateCompress},
	}

	// large enough to force the inflate buffer to grow
	tree := []byte{0x00, 0x00, 0x00, 0x00, 0x01, 0x00}
	for i := 0; i < 1000; i++ {
		tree = append(tree, 'a')
	}
	tree = append(tree, 0x00)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := append(buildHeader(7, FeatureCompressed, AppType32Bit, "packed"), tt.compress(t, tree)...)
			db, err := Parse(data)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if len(db.Tree.Leaves) != 1 || len(db.Tree.Leaves[0].Symbol) != 1000 {
				t.Errorf("unexpected leaves: %d", len(db.Tree.Leaves))
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		kind FormatErrorKind
	}{
		{
			name: "oversized node",
			data: append(buildHeader(7, 0, 0, ""), 0x01, 33, 0x00),
			kind: KindOversizedNode,
		},
		{
			name: "truncated name",
			data: buildHeader(7, 0, 0, "abc")[:HeaderSize+1],
			kind: KindTruncated,
		},
		{
			name: "truncated tree",
			data: append(buildHeader(7, 0, 0, ""), twoBranchTree()[:8]...),
			kind: KindTruncated,
		},
		{
			name: "empty tree",
			data: buildHeader(7, 0, 0, ""),
			kind: KindTruncated,
		},
		{
			name: "corrupt deflate",
			data: append(buildHeader(7, FeatureCompressed, 0, ""), 0xFF, 0xFF, 0xFF),
			kind: KindDecompression,
		},
		{
			name: "empty deflate",
			data: buildHeader(7, FeatureCompressed, 0, ""),
			kind: KindDecompression,
		},
		{
			name: "unsupported version",
			data: append(buildHeader(9, 0, 0, ""), twoBranchTree()...),
			kind: KindUnsupportedVersion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := Parse(tt.data)
			if err == nil {
				t.Fatal("Parse() error = nil")
			}
			if db != nil {
				t.Error("Parse() returned a database alongside an error")
			}
			if !IsFormatError(err, tt.kind) {
				t.Errorf("Parse() error = %v, want kind %v", err, tt.kind)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.sig")
	data := append(buildHeader(5, 0, AppType32Bit, "old"), twoBranchTree()...)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	db, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if db.OriginalVersion != 5 || !db.Legacy || db.Name != "old" {
		t.Errorf("Load() = version %d legacy %v name %q", db.OriginalVersion, db.Legacy, db.Name)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.sig")); err == nil {
		t.Error("Load() of missing file succeeded")
	}
}
