package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"expose/internal/diag"
	"expose/internal/expose"
)

const widgetFixture = `
module = "app"

[[decls]]
id = "Widget"
name = "Widget"
kind = "class"
superclass = "ObjectRoot"

[[decls]]
id = "Widget.title"
name = "title"
kind = "var"
parent = "Widget"
type = "foreign.ObjectRoot?"
attrs = ["exposed"]

[[decls]]
id = "Widget.reload"
name = "reload"
kind = "func"
parent = "Widget"
result = "Void"
attrs = ["exposed"]
`

const brokenFixture = `
module = "app"

[[decls]]
id = "Gadget"
name = "Gadget"
kind = "class"
superclass = "ObjectRoot"

[[decls]]
id = "Gadget.update"
name = "update"
kind = "func"
parent = "Gadget"
result = "Void"
attrs = ["exposed"]

  [[decls.params]]
  label = "with"
  type = "Int"
  inout = true
`

func TestCheckBytesExposesMembers(t *testing.T) {
	r, err := CheckBytes("widget.xg.toml", []byte(widgetFixture))
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if r.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", r.Bag.Items())
	}
	if r.Stats.Declarations != 3 || r.Stats.Exposed != 3 {
		t.Fatalf("stats %+v", r.Stats)
	}
	if r.FromCache {
		t.Fatalf("fresh result claims cache origin")
	}
	if r.Hash.IsZero() {
		t.Fatalf("result missing content digest")
	}
}

func TestCheckBytesReportsBadSignatures(t *testing.T) {
	r, err := CheckBytes("gadget.xg.toml", []byte(brokenFixture))
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !r.HasErrors() {
		t.Fatalf("inout parameter accepted")
	}
	found := false
	for _, d := range r.Bag.Items() {
		if d.Code == diag.ExpInOutParam {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing inout diagnostic: %+v", r.Bag.Items())
	}
}

func TestCheckBytesWithOverrides(t *testing.T) {
	fixture := `
module = "app"

[[decls]]
id = "Base"
name = "Base"
kind = "class"
attrs = ["exposed"]

[[decls]]
id = "Marked"
name = "Marked"
kind = "class"
superclass = "Base"
attrs = ["exposed"]
`
	disabled := false
	lang := &expose.LangOverrides{InteropEnabled: &disabled}
	r, err := CheckBytesWith("marked.xg.toml", []byte(fixture), lang)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	found := false
	for _, d := range r.Bag.Items() {
		if d.Code == diag.ExpInteropDisabled {
			found = true
		}
	}
	if !found {
		t.Fatalf("interop override ignored: %+v", r.Bag.Items())
	}

	if sig := langSignature(lang); sig == nil {
		t.Fatalf("set override produced no cache-key signature")
	}
	if sig := langSignature(&expose.LangOverrides{}); sig != nil {
		t.Fatalf("empty override changed the cache key")
	}
	if sig := langSignature(nil); sig != nil {
		t.Fatalf("nil override changed the cache key")
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	r, err := CheckBytes("gadget.xg.toml", []byte(brokenFixture))
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	key := HashBytes([]byte(brokenFixture))
	if err := cache.Put(key, r); err != nil {
		t.Fatalf("put: %v", err)
	}

	fs := r.Files
	fid := fs.Add("gadget.xg.toml", []byte(brokenFixture), 0)
	restored, hit, err := cache.Get(key, fs, fid)
	if err != nil || !hit {
		t.Fatalf("get: hit=%v err=%v", hit, err)
	}
	if !restored.FromCache {
		t.Fatalf("restored result not marked as cached")
	}
	if got, want := len(restored.Bag.Items()), len(r.Bag.Items()); got != want {
		t.Fatalf("restored %d diagnostics, want %d", got, want)
	}
	for i, d := range restored.Bag.Items() {
		orig := r.Bag.Items()[i]
		if d.Code != orig.Code || d.Message != orig.Message {
			t.Fatalf("diagnostic %d changed across the cache: %+v vs %+v", i, d, orig)
		}
		if d.Primary.File != fid {
			t.Fatalf("diagnostic %d not rebound to the new file", i)
		}
	}
	if restored.Stats != r.Stats {
		t.Fatalf("stats changed across the cache: %+v vs %+v", restored.Stats, r.Stats)
	}

	if _, hit, err := cache.Get(HashBytes([]byte("other")), fs, fid); err != nil || hit {
		t.Fatalf("unexpected hit for unknown key: hit=%v err=%v", hit, err)
	}
}

func TestCheckFilesParallel(t *testing.T) {
	dir := t.TempDir()
	paths := make([]string, 0, 2)
	for name, fixture := range map[string]string{
		"widget.xg.toml": widgetFixture,
		"gadget.xg.toml": brokenFixture,
	} {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(fixture), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		paths = append(paths, p)
	}

	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}

	events := make(chan Event, 64)
	drained := make(chan struct{})
	seen := map[string]bool{}
	go func() {
		for ev := range events {
			if ev.Status == StatusDone || ev.Status == StatusError {
				seen[ev.File] = true
			}
		}
		close(drained)
	}()

	results, err := CheckFiles(context.Background(), paths, Options{
		Jobs:   2,
		Cache:  cache,
		Events: events,
	})
	if err != nil {
		t.Fatalf("check files: %v", err)
	}
	<-drained
	if len(results) != len(paths) {
		t.Fatalf("got %d results for %d paths", len(results), len(paths))
	}
	for i, r := range results {
		if r.Path != paths[i] {
			t.Fatalf("result %d out of order: %s", i, r.Path)
		}
		if r.FromCache {
			t.Fatalf("first run hit the cache for %s", r.Path)
		}
		if !seen[r.Path] {
			t.Fatalf("no terminal event for %s", r.Path)
		}
	}

	// Second run with identical content comes entirely from the cache.
	again, err := CheckFiles(context.Background(), paths, Options{Jobs: 2, Cache: cache})
	if err != nil {
		t.Fatalf("cached run: %v", err)
	}
	for _, r := range again {
		if !r.FromCache {
			t.Fatalf("unchanged fixture %s rechecked", r.Path)
		}
	}

	if _, err := CheckFiles(context.Background(), []string{filepath.Join(dir, "missing.xg.toml")}, Options{}); err == nil {
		t.Fatalf("missing file accepted")
	}
}
