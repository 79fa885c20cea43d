package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/muurk/sigknife/internal/descriptor"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if !strings.Contains(configDir, "sigknife") {
		t.Errorf("GetConfigDir() = %v, should contain 'sigknife'", configDir)
	}

	switch runtime.GOOS {
	case "darwin", "linux":
		if os.Getenv("XDG_CONFIG_HOME") == "" && !strings.Contains(configDir, ".config") {
			t.Errorf("Unix config dir should contain '.config', got: %v", configDir)
		}
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv(PathEnvVar, "")
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if filepath.Base(configPath) != "settings.yaml" {
		t.Errorf("GetConfigPath() should end with 'settings.yaml', got: %v", configPath)
	}

	t.Setenv(PathEnvVar, "/tmp/custom.yaml")
	if got, _ := GetConfigPath(); got != "/tmp/custom.yaml" {
		t.Errorf("GetConfigPath() with %s = %v", PathEnvVar, got)
	}

	SetPath("/tmp/flag.yaml")
	defer SetPath("")
	if got, _ := GetConfigPath(); got != "/tmp/flag.yaml" {
		t.Errorf("GetConfigPath() with SetPath = %v", got)
	}
}

func TestDefaults(t *testing.T) {
	s := Defaults()
	if s.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", s.Version, CurrentVersion)
	}
	if !s.TrimSignatures || s.DisableWildcards || s.ShortestSignatures {
		t.Errorf("unexpected post-processing defaults: %+v", s)
	}
	if !s.IncludeShortJumps || s.IncludeMemReferences || !s.IncludeRelAddresses {
		t.Errorf("unexpected wildcard defaults: %+v", s)
	}
	if s.LastType != "ida" || s.Batch.MinLength != 10 || s.Batch.MaxLength != 50 {
		t.Errorf("unexpected style/batch defaults: %+v", s)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Defaults().Validate() error = %v", err)
	}
}

func TestGeneratorOptions(t *testing.T) {
	s := Defaults()
	s.LastType = "peid"
	s.IncludeMemReferences = true
	s.Batch.MaxLength = 80

	opts := s.GeneratorOptions()
	if opts.Style != descriptor.StylePEiD {
		t.Errorf("Style = %v, want peid", opts.Style)
	}
	if !opts.IncludeMemReferences || opts.MaxLength != 80 || opts.MinLength != 10 {
		t.Errorf("GeneratorOptions() = %+v", opts)
	}

	s.LastType = "bogus"
	if got := s.GeneratorOptions().Style; got != descriptor.StyleIDA {
		t.Errorf("Style with bad last_type = %v, want ida", got)
	}
}

func TestSet(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		want    string
		wantErr bool
	}{
		{"bool", "shortest_signatures", "true", "true", false},
		{"bool case insensitive key", "TRIM_SIGNATURES", "false", "false", false},
		{"style", "last_type", "PEiD", "peid", false},
		{"int", "batch.max_length", "64", "64", false},
		{"bad bool", "disable_wildcards", "maybe", "", true},
		{"bad style", "last_type", "hex", "", true},
		{"bad int", "batch.min_length", "ten", "", true},
		{"min above max", "batch.min_length", "60", "", true},
		{"max too large", "batch.max_length", "70000", "", true},
		{"unknown key", "colour", "red", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Defaults()
			before := *s
			err := s.Set(tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Set() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if *s != before {
					t.Errorf("Set() modified settings on error: %+v", s)
				}
				return
			}
			got, err := s.Get(tt.key)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Get(%s) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestKeys(t *testing.T) {
	keys := Keys()
	if len(keys) != 9 {
		t.Errorf("Keys() returned %d keys: %v", len(keys), keys)
	}
	for i := 1; i < len(keys); i++ {
		if keys[i-1] > keys[i] {
			t.Errorf("Keys() not sorted: %v", keys)
		}
	}
}

func TestLoadFileMissing(t *testing.T) {
	s, err := LoadFile(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if *s != *Defaults() {
		t.Errorf("LoadFile(missing) = %+v, want defaults", s)
	}
}

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")

	s := Defaults()
	if err := s.Set("last_type", "code"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("include_mem_references", "true"); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveFile(path); err != nil {
		t.Fatalf("SaveFile() error = %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# sigknife settings") {
		t.Errorf("missing header comment:\n%s", data)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if *loaded != *s {
		t.Errorf("LoadFile() = %+v, want %+v", loaded, s)
	}
}

func TestLoadFilePartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("version: 1\nshortest_signatures: true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	s, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if !s.ShortestSignatures || !s.TrimSignatures || s.Batch.MaxLength != 50 {
		t.Errorf("partial file did not keep defaults: %+v", s)
	}
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "version: [1\n"},
		{"wrong version", "version: 2\n"},
		{"bad style", "version: 1\nlast_type: hex\n"},
		{"bad window", "version: 1\nbatch:\n  min_length: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "settings.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadFile(path); err == nil {
				t.Error("LoadFile() succeeded, want error")
			}
		})
	}
}

func TestLoadGlobal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	SetPath(path)
	defer SetPath("")

	s := Defaults()
	s.ShortestSignatures = true
	if err := s.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := Reload()
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if !got.ShortestSignatures {
		t.Error("Reload() did not read saved settings")
	}
	again, _ := Load()
	if again != got {
		t.Error("Load() returned a different instance")
	}
}
