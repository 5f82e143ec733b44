// Package graphio loads declaration-graph fixtures from TOML manifests: the
// module's types and declarations, plus the language-mode switches the check
// should run under.
package graphio

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"expose/internal/source"
)

// Manifest is the root of a declaration-graph fixture.
type Manifest struct {
	Module  string        `toml:"module"`
	Options Options       `toml:"options"`
	Types   []TypeEntry   `toml:"types"`
	Decls   []DeclEntry   `toml:"decls"`
	Bridges []BridgeEntry `toml:"bridges"`
}

// Options selects the language mode for the check.
type Options struct {
	LegacyInference bool   `toml:"legacy_inference"`
	LegacyWarnings  string `toml:"legacy_warnings"` // none | minimal | complete
	NativeRootAttr  bool   `toml:"attr_requires_foreign_root"`
	InteropDisabled bool   `toml:"interop_disabled"`
}

// TypeEntry declares a standalone nominal type: structs and enums that have
// no interesting declaration of their own but appear in signatures.
type TypeEntry struct {
	Name string `toml:"name"`
	Kind string `toml:"kind"` // struct | enum
}

// BridgeEntry registers a native-to-foreign conversion.
type BridgeEntry struct {
	Type   string `toml:"type"`
	Kind   string `toml:"kind"` // value | static | error
	Target string `toml:"target"`
}

// ParamEntry is one parameter of a function-like declaration.
type ParamEntry struct {
	Label    string `toml:"label"`
	Type     string `toml:"type"`
	Variadic bool   `toml:"variadic"`
	InOut    bool   `toml:"inout"`
}

// DeclEntry is one declaration. Which fields apply depends on Kind; the
// loader diagnoses contradictions instead of guessing.
type DeclEntry struct {
	ID     string `toml:"id"` // reference key; defaults to Name
	Name   string `toml:"name"`
	Kind   string `toml:"kind"`
	Parent string `toml:"parent"`
	Access string `toml:"access"`

	Attrs    []string `toml:"attrs"`
	Implicit bool     `toml:"implicit"`
	Invalid  bool     `toml:"invalid"`
	Operator bool     `toml:"operator"`

	Superclass  string `toml:"superclass"`
	Generics    bool   `toml:"generics"`
	Foreign     bool   `toml:"foreign"`
	ForeignKind string `toml:"foreign_kind"` // ref_counted | runtime_only

	Extends     string `toml:"extends"`
	Constrained bool   `toml:"constrained"`

	Params   []ParamEntry `toml:"params"`
	Result   string       `toml:"result"`
	Throws   bool         `toml:"throws"`
	Static   bool         `toml:"static"`
	Failable bool         `toml:"failable"`
	Accessor string       `toml:"accessor"` // get | set | willset | didset | address
	Storage  string       `toml:"storage"`

	Type       string `toml:"type"`
	RefStorage bool   `toml:"ref_storage"`

	Index   string `toml:"index"`
	Element string `toml:"element"`

	Override  string   `toml:"override"`
	Witnesses []string `toml:"witnesses"`
}

// ReadManifest loads and decodes a fixture file, registering it in the file
// set so diagnostics can point into it.
func ReadManifest(fs *source.FileSet, path string) (*Manifest, source.FileID, error) {
	fid, err := fs.Load(path)
	if err != nil {
		return nil, 0, err
	}
	m, err := decodeManifest(fs, fid, path)
	return m, fid, err
}

// ReadManifestBytes decodes an in-memory fixture (tests, stdin).
func ReadManifestBytes(fs *source.FileSet, name string, content []byte) (*Manifest, source.FileID, error) {
	fid := fs.AddVirtual(name, content)
	m, err := decodeManifest(fs, fid, name)
	return m, fid, err
}

func decodeManifest(fs *source.FileSet, fid source.FileID, path string) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(fs.Get(fid).Content, &m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if m.Module == "" {
		m.Module = "main"
	}
	return &m, nil
}
