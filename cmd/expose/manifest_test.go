package main

import (
	"os"
	"path/filepath"
	"testing"

	"expose/internal/expose"
)

func TestFindManifestWalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "fixtures", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	want := filepath.Join(root, manifestName)
	if err := os.WriteFile(want, []byte("[package]\nname = \"app\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, ok := findManifest(nested)
	if !ok || got != want {
		t.Fatalf("findManifest = %q, %v; want %q", got, ok, want)
	}
}

func TestManifestLangOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, manifestName)
	content := `
[package]
name = "app"

[check]
legacy_inference = true
legacy_warnings = "complete"
interop_disabled = true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	m, err := loadManifest(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Package.Name != "app" {
		t.Fatalf("package name %q", m.Package.Name)
	}
	o, err := m.langOverrides()
	if err != nil {
		t.Fatalf("overrides: %v", err)
	}
	if o.LegacyInference == nil || !*o.LegacyInference {
		t.Fatalf("legacy_inference not carried: %+v", o)
	}
	if o.LegacyWarnings == nil || *o.LegacyWarnings != expose.LegacyWarnComplete {
		t.Fatalf("legacy_warnings not carried: %+v", o)
	}
	if o.InteropEnabled == nil || *o.InteropEnabled {
		t.Fatalf("interop_disabled not inverted: %+v", o)
	}
	if o.AttrRequiresForeignRoot != nil {
		t.Fatalf("unset toggle materialized: %+v", o)
	}
}

func TestManifestRejectsBadWarningMode(t *testing.T) {
	var m manifest
	bad := "loud"
	m.Check.LegacyWarnings = &bad
	if _, err := m.langOverrides(); err == nil {
		t.Fatalf("invalid legacy_warnings accepted")
	}
}
