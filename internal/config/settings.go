package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/muurk/sigknife/internal/descriptor"
	"github.com/muurk/sigknife/internal/sigmake"
)

// CurrentVersion is the settings file format version.
const CurrentVersion = 1

// Settings is the persisted user configuration.
type Settings struct {
	Version int `yaml:"version"`

	TrimSignatures       bool `yaml:"trim_signatures"`
	DisableWildcards     bool `yaml:"disable_wildcards"`
	ShortestSignatures   bool `yaml:"shortest_signatures"`
	IncludeShortJumps    bool `yaml:"include_short_jumps"`
	IncludeMemReferences bool `yaml:"include_mem_references"`
	IncludeRelAddresses  bool `yaml:"include_rel_addresses"`

	// LastType is the output style used when none is given
	LastType string `yaml:"last_type"`

	Batch BatchSettings `yaml:"batch"`
}

// BatchSettings bounds the batch signature window in bytes.
type BatchSettings struct {
	MinLength int `yaml:"min_length"`
	MaxLength int `yaml:"max_length"`
}

// Defaults returns the settings used when no file exists.
func Defaults() *Settings {
	opts := sigmake.DefaultOptions()
	return &Settings{
		Version:              CurrentVersion,
		TrimSignatures:       opts.TrimSignatures,
		DisableWildcards:     opts.DisableWildcards,
		ShortestSignatures:   opts.ShortestSignatures,
		IncludeShortJumps:    opts.IncludeShortJumps,
		IncludeMemReferences: opts.IncludeMemReferences,
		IncludeRelAddresses:  opts.IncludeRelAddresses,
		LastType:             opts.Style.String(),
		Batch: BatchSettings{
			MinLength: opts.MinLength,
			MaxLength: opts.MaxLength,
		},
	}
}

// Validate checks the style name and batch bounds.
func (s *Settings) Validate() error {
	if _, err := descriptor.ParseStyle(s.LastType); err != nil {
		return fmt.Errorf("invalid last_type: %w", err)
	}
	return s.GeneratorOptions().Validate()
}

// GeneratorOptions converts the settings into generator options. An invalid
// style falls back to IDA.
func (s *Settings) GeneratorOptions() sigmake.Options {
	style, err := descriptor.ParseStyle(s.LastType)
	if err != nil {
		style = descriptor.StyleIDA
	}
	return sigmake.Options{
		TrimSignatures:       s.TrimSignatures,
		DisableWildcards:     s.DisableWildcards,
		ShortestSignatures:   s.ShortestSignatures,
		IncludeShortJumps:    s.IncludeShortJumps,
		IncludeMemReferences: s.IncludeMemReferences,
		IncludeRelAddresses:  s.IncludeRelAddresses,
		Style:                style,
		MinLength:            s.Batch.MinLength,
		MaxLength:            s.Batch.MaxLength,
	}
}

// field binds a dotted key to a settings value.
type field struct {
	get func(s *Settings) string
	set func(s *Settings, v string) error
}

func boolField(p func(s *Settings) *bool) field {
	return field{
		get: func(s *Settings) string { return strconv.FormatBool(*p(s)) },
		set: func(s *Settings, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("expected true or false, got %q", v)
			}
			*p(s) = b
			return nil
		},
	}
}

func intField(p func(s *Settings) *int) field {
	return field{
		get: func(s *Settings) string { return strconv.Itoa(*p(s)) },
		set: func(s *Settings, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("expected an integer, got %q", v)
			}
			*p(s) = n
			return nil
		},
	}
}

var fields = map[string]field{
	"trim_signatures":        boolField(func(s *Settings) *bool { return &s.TrimSignatures }),
	"disable_wildcards":      boolField(func(s *Settings) *bool { return &s.DisableWildcards }),
	"shortest_signatures":    boolField(func(s *Settings) *bool { return &s.ShortestSignatures }),
	"include_short_jumps":    boolField(func(s *Settings) *bool { return &s.IncludeShortJumps }),
	"include_mem_references": boolField(func(s *Settings) *bool { return &s.IncludeMemReferences }),
	"include_rel_addresses":  boolField(func(s *Settings) *bool { return &s.IncludeRelAddresses }),
	"batch.min_length":       intField(func(s *Settings) *int { return &s.Batch.MinLength }),
	"batch.max_length":       intField(func(s *Settings) *int { return &s.Batch.MaxLength }),
	"last_type": {
		get: func(s *Settings) string { return s.LastType },
		set: func(s *Settings, v string) error {
			style, err := descriptor.ParseStyle(v)
			if err != nil {
				return err
			}
			s.LastType = style.String()
			return nil
		},
	},
}

// Keys returns every settable key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the string value of key.
func (s *Settings) Get(key string) (string, error) {
	f, ok := fields[strings.ToLower(key)]
	if !ok {
		return "", fmt.Errorf("unknown setting %q", key)
	}
	return f.get(s), nil
}

// Set parses value into key. The settings are left unchanged when the result
// would not validate.
func (s *Settings) Set(key, value string) error {
	f, ok := fields[strings.ToLower(key)]
	if !ok {
		return fmt.Errorf("unknown setting %q", key)
	}
	next := *s
	if err := f.set(&next, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	if err := next.Validate(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	*s = next
	return nil
}
