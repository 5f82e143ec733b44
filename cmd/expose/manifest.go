package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"expose/internal/expose"
)

const manifestName = "expose.toml"

// manifest is the optional project file. Its [check] section supplies
// language-mode defaults for every fixture; CLI flags still win.
type manifest struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
	Check manifestCheck `toml:"check"`
}

type manifestCheck struct {
	LegacyInference         *bool   `toml:"legacy_inference"`
	LegacyWarnings          *string `toml:"legacy_warnings"`
	AttrRequiresForeignRoot *bool   `toml:"attr_requires_foreign_root"`
	InteropDisabled         *bool   `toml:"interop_disabled"`
}

// findManifest walks from dir toward the filesystem root looking for
// expose.toml and returns the first hit.
func findManifest(dir string) (string, bool) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for {
		candidate := filepath.Join(dir, manifestName)
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func loadManifest(path string) (manifest, error) {
	var m manifest
	data, err := os.ReadFile(path) // #nosec G304 -- project file discovered by walking up
	if err != nil {
		return m, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return m, nil
}

// langOverrides converts manifest toggles into checker overrides.
func (m manifest) langOverrides() (*expose.LangOverrides, error) {
	o := &expose.LangOverrides{
		LegacyInference:         m.Check.LegacyInference,
		AttrRequiresForeignRoot: m.Check.AttrRequiresForeignRoot,
	}
	if m.Check.InteropDisabled != nil {
		enabled := !*m.Check.InteropDisabled
		o.InteropEnabled = &enabled
	}
	if m.Check.LegacyWarnings != nil {
		mode, err := parseWarningMode(*m.Check.LegacyWarnings)
		if err != nil {
			return nil, err
		}
		o.LegacyWarnings = &mode
	}
	return o, nil
}

func parseWarningMode(value string) (expose.LegacyWarningMode, error) {
	switch value {
	case "none":
		return expose.LegacyWarnNone, nil
	case "minimal":
		return expose.LegacyWarnMinimal, nil
	case "complete":
		return expose.LegacyWarnComplete, nil
	default:
		return 0, fmt.Errorf("invalid legacy_warnings value %q (expected none|minimal|complete)", value)
	}
}
