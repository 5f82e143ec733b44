package driver

import (
	"context"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"expose/internal/expose"
	"expose/internal/source"
)

// Stage identifies which phase of a fixture's check an event describes.
type Stage uint8

const (
	StageLoad Stage = iota
	StageCheck
)

// Status is the lifecycle of one stage.
type Status uint8

const (
	StatusQueued Status = iota
	StatusWorking
	StatusDone
	StatusError
)

// Event is a progress notification for interactive frontends.
type Event struct {
	File   string
	Stage  Stage
	Status Status
	Cached bool
}

// Options configures a multi-file check run.
type Options struct {
	// Jobs bounds concurrent fixture checks; <= 0 means GOMAXPROCS.
	Jobs int
	// Cache, when non-nil, short-circuits unchanged fixtures.
	Cache *DiskCache
	// Lang layers manifest or flag settings over fixture options.
	Lang *expose.LangOverrides
	// Events, when non-nil, receives progress notifications. The channel is
	// closed when the run finishes.
	Events chan<- Event
}

// CheckFiles checks fixtures concurrently. Results come back in input order
// regardless of completion order. The returned error is the first hard
// failure (unreadable file, cache corruption); diagnostics are not errors.
func CheckFiles(ctx context.Context, paths []string, opts Options) ([]*Result, error) {
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	emit := func(ev Event) {
		if opts.Events != nil {
			opts.Events <- ev
		}
	}
	defer func() {
		if opts.Events != nil {
			close(opts.Events)
		}
	}()

	for _, path := range paths {
		emit(Event{File: path, Stage: StageLoad, Status: StatusQueued})
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	results := make([]*Result, len(paths))

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := checkOne(path, opts, emit)
			if err != nil {
				emit(Event{File: path, Stage: StageCheck, Status: StatusError})
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// checkOne loads, hashes and checks a single fixture, consulting the cache
// before doing the real work. Language overrides participate in the cache
// key so a mode switch never reuses stale results.
func checkOne(path string, opts Options, emit func(Event)) (*Result, error) {
	emit(Event{File: path, Stage: StageLoad, Status: StatusWorking})
	content, err := os.ReadFile(path) // #nosec G304 -- user-supplied input path
	if err != nil {
		return nil, err
	}
	key := HashBytes(content)
	if sig := langSignature(opts.Lang); sig != nil {
		key = HashBytes(append(key[:], sig...))
	}

	fs := source.NewFileSet()
	fid := fs.Add(path, content, 0)

	if opts.Cache != nil {
		if r, hit, err := opts.Cache.Get(key, fs, fid); err == nil && hit {
			emit(Event{File: path, Stage: StageCheck, Status: StatusDone, Cached: true})
			return r, nil
		}
	}

	emit(Event{File: path, Stage: StageCheck, Status: StatusWorking})
	r, err := CheckBytesWith(path, content, opts.Lang)
	if err != nil {
		return nil, err
	}
	r.Path = path
	r.Hash = key

	if opts.Cache != nil {
		// Best effort: a failed write never fails the check.
		_ = opts.Cache.Put(key, r)
	}
	status := StatusDone
	if r.HasErrors() {
		status = StatusError
	}
	emit(Event{File: path, Stage: StageCheck, Status: status})
	return r, nil
}
