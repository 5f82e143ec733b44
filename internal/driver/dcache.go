package driver

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"expose/internal/diag"
	"expose/internal/source"
)

// Increment when the payload format changes; stale entries are ignored.
const diskCacheSchemaVersion uint16 = 1

// DiskCache stores finished check results keyed by fixture content digest.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DiskPayload is the serialized form of a check result. Spans are stored as
// raw offsets and rebound to the freshly loaded file on restore.
type DiskPayload struct {
	Schema uint16

	Path         string
	Declarations int
	Exposed      int

	Diags []cachedDiag
}

type cachedDiag struct {
	Severity uint8
	Code     uint16
	Message  string
	Start    uint32
	End      uint32
	Notes    []cachedNote
	Fixes    []cachedFix
}

type cachedNote struct {
	Message string
	Start   uint32
	End     uint32
}

type cachedFix struct {
	Title string
	Edits []cachedEdit
}

type cachedEdit struct {
	Start   uint32
	End     uint32
	NewText string
}

// OpenDiskCache initializes a disk cache at the user cache location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// OpenDiskCacheAt initializes a disk cache rooted at an explicit directory.
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key Digest) string {
	return filepath.Join(c.dir, "checks", key.String()+".mp")
}

// Put serializes a result into the cache. Writes go through a temp file and
// an atomic rename.
func (c *DiskCache) Put(key Digest, r *Result) error {
	if c == nil || r == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(resultToPayload(r)); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get restores a cached result, rebinding its spans to fid. The bool reports
// a usable hit; schema mismatches read as misses.
func (c *DiskCache) Get(key Digest, fs *source.FileSet, fid source.FileID) (*Result, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var payload DiskPayload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return nil, false, err
	}
	if payload.Schema != diskCacheSchemaVersion {
		return nil, false, nil
	}
	return payloadToResult(&payload, key, fs, fid), true, nil
}

// DropAll invalidates the whole cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	return os.RemoveAll(old)
}

func resultToPayload(r *Result) *DiskPayload {
	payload := &DiskPayload{
		Schema:       diskCacheSchemaVersion,
		Path:         r.Path,
		Declarations: r.Stats.Declarations,
		Exposed:      r.Stats.Exposed,
	}
	for _, d := range r.Bag.Items() {
		cd := cachedDiag{
			Severity: uint8(d.Severity),
			Code:     uint16(d.Code),
			Message:  d.Message,
			Start:    d.Primary.Start,
			End:      d.Primary.End,
		}
		for _, n := range d.Notes {
			cd.Notes = append(cd.Notes, cachedNote{
				Message: n.Msg, Start: n.Span.Start, End: n.Span.End,
			})
		}
		for _, fx := range d.Fixes {
			cf := cachedFix{Title: fx.Title}
			for _, e := range fx.Edits {
				cf.Edits = append(cf.Edits, cachedEdit{
					Start: e.Span.Start, End: e.Span.End, NewText: e.NewText,
				})
			}
			cd.Fixes = append(cd.Fixes, cf)
		}
		payload.Diags = append(payload.Diags, cd)
	}
	return payload
}

func payloadToResult(p *DiskPayload, key Digest, fs *source.FileSet, fid source.FileID) *Result {
	bag := diag.NewBag(maxDiagnostics)
	for _, cd := range p.Diags {
		d := diag.Diagnostic{
			Severity: diag.Severity(cd.Severity),
			Code:     diag.Code(cd.Code),
			Message:  cd.Message,
			Primary:  source.Span{File: fid, Start: cd.Start, End: cd.End},
		}
		for _, n := range cd.Notes {
			d.Notes = append(d.Notes, diag.Note{
				Span: source.Span{File: fid, Start: n.Start, End: n.End},
				Msg:  n.Message,
			})
		}
		for _, cf := range cd.Fixes {
			fx := diag.Fix{Title: cf.Title}
			for _, e := range cf.Edits {
				fx.Edits = append(fx.Edits, diag.FixEdit{
					Span:    source.Span{File: fid, Start: e.Start, End: e.End},
					NewText: e.NewText,
				})
			}
			d.Fixes = append(d.Fixes, fx)
		}
		bag.Add(d)
	}
	return &Result{
		Path:      p.Path,
		Hash:      key,
		Bag:       bag,
		Stats:     Stats{Declarations: p.Declarations, Exposed: p.Exposed},
		Files:     fs,
		FromCache: true,
	}
}
