// Package config persists user settings for the sigknife tool.
//
// Settings are stored as YAML and control how signatures are generated:
// which operand bytes are wildcarded, how results are post-processed, the
// output style and the batch window.
//
// # Configuration File Location
//
// The settings file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/sigknife/settings.yaml or $HOME/.config/sigknife/settings.yaml
//   - macOS: $HOME/.config/sigknife/settings.yaml
//   - Windows: %LOCALAPPDATA%\sigknife\settings.yaml
//
// The SIGKNIFE_CONFIG environment variable or SetPath overrides the location.
//
// # Usage Example
//
//	settings, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	gen := sigmake.New(decoder, settings.GeneratorOptions())
//
//	if err := settings.Set("last_type", "peid"); err != nil {
//	    log.Fatal(err)
//	}
//	if err := settings.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global settings use sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
