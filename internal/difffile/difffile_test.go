package difffile

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

const sampleDif = "This difference file was created by IDA\r\n\r\ntarget.exe\r\n00000401: 74 EB\r\n00000A10: 90 CC\r\n"

func TestParse(t *testing.T) {
	d, err := Parse(strings.NewReader(sampleDif))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if d.Description != "This difference file was created by IDA" {
		t.Errorf("Description = %q", d.Description)
	}
	if d.Module != "target.exe" {
		t.Errorf("Module = %q", d.Module)
	}
	want := []Patch{{0x401, 0x74, 0xEB}, {0xA10, 0x90, 0xCC}}
	if len(d.Patches) != len(want) {
		t.Fatalf("got %d patches", len(d.Patches))
	}
	for i := range want {
		if d.Patches[i] != want[i] {
			t.Errorf("patch %d = %+v, want %+v", i, d.Patches[i], want[i])
		}
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"no colon", "00000401 74 EB"},
		{"one byte", "00000401: 74"},
		{"bad offset", "zz: 74 EB"},
		{"bad byte", "00000401: 7G EB"},
		{"wide byte", "00000401: 174 EB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader("desc\n\nmod.dll\n" + tt.line + "\n"))
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("Parse() error = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestWriteRoundTrip(t *testing.T) {
	d := &File{
		Description: "patched",
		Module:      "app.exe",
		Patches:     []Patch{{0x10, 0x00, 0x01}, {0x1234, 0xAB, 0xCD}},
	}
	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	want := "patched\n\napp.exe\n00000010: 00 01\n00001234: AB CD\n"
	if buf.String() != want {
		t.Errorf("Write() = %q, want %q", buf.String(), want)
	}

	back, err := Parse(&buf)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if back.Module != d.Module || len(back.Patches) != 2 || back.Patches[1] != d.Patches[1] {
		t.Errorf("round trip = %+v", back)
	}
}

func TestApply(t *testing.T) {
	data := []byte{0x00, 0x74, 0x90, 0x90}
	d := &File{Patches: []Patch{{1, 0x74, 0xEB}, {2, 0x00, 0xCC}, {9, 0x00, 0x00}}}

	n, err := d.Apply(data)
	if n != 2 {
		t.Errorf("Apply() applied %d, want 2", n)
	}
	if !errors.Is(err, ErrMismatch) {
		t.Errorf("Apply() error = %v, want ErrMismatch", err)
	}
	if !bytes.Equal(data, []byte{0x00, 0xEB, 0xCC, 0x90}) {
		t.Errorf("data = % X", data)
	}
}

func TestDiff(t *testing.T) {
	d := Diff("a.bin", []byte{1, 2, 3, 4}, []byte{1, 9, 3, 8, 5})
	want := []Patch{{1, 2, 9}, {3, 4, 8}}
	if len(d.Patches) != 2 || d.Patches[0] != want[0] || d.Patches[1] != want[1] {
		t.Errorf("Diff() = %+v, want %+v", d.Patches, want)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.dif")
	d := &File{Description: "d", Module: "m", Patches: []Patch{{3, 1, 2}, {1, 4, 5}}}
	d.Sort()
	if err := d.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if back.Patches[0].Offset != 1 || back.Patches[1].Offset != 3 {
		t.Errorf("Load() patches = %+v", back.Patches)
	}
}
