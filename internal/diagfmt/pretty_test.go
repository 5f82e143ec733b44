package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"expose/internal/diag"
	"expose/internal/source"
)

func sampleBag(t *testing.T) (*diag.Bag, *source.FileSet, source.FileID) {
	t.Helper()
	fs := source.NewFileSet()
	content := []byte("line one\nattr exposed broken\nline three\n")
	fid := fs.Add("widget.xg.toml", content, 0)

	bag := diag.NewBag(8)
	d := diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.ExpVariadicParam,
		Message:  "method cannot be exposed because it has a variadic parameter",
		Primary:  source.Span{File: fid, Start: 14, End: 21},
		Notes: []diag.Note{
			{Span: source.Span{File: fid, Start: 9, End: 13}, Msg: "declared here"},
		},
	}
	d = d.WithFix("remove the attribute", diag.FixEdit{
		Span: source.Span{File: fid, Start: 9, End: 13},
	})
	bag.Add(d)
	return bag, fs, fid
}

func TestPrettyOutput(t *testing.T) {
	bag, fs, _ := sampleBag(t)
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{ShowNotes: true, ShowFixes: true})
	out := buf.String()

	for _, want := range []string{
		"widget.xg.toml:2:6: ERROR XG4001: method cannot be exposed",
		"attr exposed broken",
		"^~~~~~",
		"NOTE: declared here",
		"help: remove the attribute",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("escape codes without color enabled:\n%s", out)
	}
}

func TestPrettyBasenamePaths(t *testing.T) {
	fs := source.NewFileSet()
	fid := fs.Add("deep/nested/widget.xg.toml", []byte("x\n"), 0)
	bag := diag.NewBag(1)
	bag.Add(diag.Diagnostic{
		Severity: diag.SevWarning,
		Code:     diag.ExpDynamicDeprecated,
		Message:  "deprecated",
		Primary:  source.Span{File: fid, Start: 0, End: 1},
	})

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	if !strings.HasPrefix(buf.String(), "widget.xg.toml:1:1:") {
		t.Fatalf("basename mode kept the directory:\n%s", buf.String())
	}
}

func TestJSONOutput(t *testing.T) {
	bag, fs, _ := sampleBag(t)
	var buf bytes.Buffer
	err := JSON(&buf, bag, fs, JSONOpts{
		IncludePositions: true,
		IncludeNotes:     true,
		IncludeFixes:     true,
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if out.Count != 1 || len(out.Diagnostics) != 1 {
		t.Fatalf("count %d, diagnostics %d", out.Count, len(out.Diagnostics))
	}
	d := out.Diagnostics[0]
	if d.Code != "XG4001" || d.Severity != "ERROR" {
		t.Fatalf("header fields: %+v", d)
	}
	if d.Location.Line != 2 || d.Location.Col != 6 {
		t.Fatalf("position: %+v", d.Location)
	}
	if len(d.Notes) != 1 || len(d.Fixes) != 1 {
		t.Fatalf("notes %d fixes %d", len(d.Notes), len(d.Fixes))
	}
}

func TestJSONMaxTruncates(t *testing.T) {
	fs := source.NewFileSet()
	fid := fs.Add("many.xg.toml", []byte("abc\n"), 0)
	bag := diag.NewBag(8)
	for i := range 5 {
		bag.Add(diag.Diagnostic{
			Severity: diag.SevError,
			Code:     diag.ExpOperator,
			Message:  "op",
			Primary:  source.Span{File: fid, Start: uint32(i % 3), End: uint32(i%3) + 1},
		})
	}
	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{Max: 2})
	if out.Count != 2 {
		t.Fatalf("truncation ignored: %d", out.Count)
	}
}
