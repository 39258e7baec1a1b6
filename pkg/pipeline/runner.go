package pipeline

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/wheelpeek/pkg/archive"
	"github.com/matzehuels/wheelpeek/pkg/errors"
	"github.com/matzehuels/wheelpeek/pkg/integrations/pypi"
	"github.com/matzehuels/wheelpeek/pkg/observability"
	"github.com/matzehuels/wheelpeek/pkg/python"
	"github.com/matzehuels/wheelpeek/pkg/rangeio"
)

// Runner executes the extraction pipeline.
// Both CLI and API use it so references resolve the same way everywhere.
//
// The Runner holds only shared resources (HTTP client, index client, cache,
// logger); every reference gets its own byte source and archive reader.
// Multiple goroutines can safely use the same Runner.
type Runner struct {
	Index  *pypi.Client
	Logger *log.Logger
	opts   Options
}

// NewRunner validates opts and builds a runner around its shared resources.
func NewRunner(opts Options) (*Runner, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	index := pypi.NewClient(pypi.Options{
		IndexURL:   opts.IndexURL,
		HTTP:       opts.HTTP,
		Cache:      opts.Cache,
		TTL:        opts.CacheTTL,
		Attempts:   opts.Attempts,
		RetryDelay: opts.RetryDelay,
		Hooks:      opts.Hooks,
	})
	return &Runner{Index: index, Logger: opts.Logger, opts: opts}, nil
}

// Extract runs every reference concurrently and returns results in input
// order. The first failure cancels the remaining references and is returned
// alone; no partial result is produced.
func (r *Runner) Extract(ctx context.Context, refs []python.Reference) (Result, error) {
	g, gctx := errgroup.WithContext(ctx)
	if r.opts.Concurrency > 0 {
		g.SetLimit(r.opts.Concurrency)
	}

	out := make([]Extraction, len(refs))
	for i, ref := range refs {
		g.Go(func() error {
			e, err := r.ExtractOne(gctx, ref)
			if err != nil {
				return err
			}
			out[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	return Result{Extractions: out}, nil
}

// ExtractOne resolves a single reference and returns its marker lines.
// A missing marker yields an empty line list, not an error.
func (r *Runner) ExtractOne(ctx context.Context, ref python.Reference) (e Extraction, err error) {
	start := time.Now()
	r.opts.Hooks.Extract.OnExtractStart(ctx, ref.String())
	defer func() {
		r.opts.Hooks.Extract.OnExtractComplete(ctx, ref.String(), len(e.Lines), time.Since(start), err)
	}()

	counter := &observability.TransferCounter{}
	a, err := r.openArchive(ctx, ref, counter)
	if err != nil {
		return Extraction{}, annotate(ref, err)
	}
	defer a.Close()

	lines := []string{}
	entry, found := a.Reader.Find(archive.HasSuffix(r.opts.Marker))
	if found {
		text, err := a.Reader.ReadText(entry)
		if err != nil {
			return Extraction{}, annotate(ref, err)
		}
		lines = archive.SplitLines(text)
	}

	r.Logger.Debug("extracted marker",
		"ref", ref.String(),
		"source", a.Location,
		"entries", len(a.Reader.Entries()),
		"found", found,
		"lines", len(lines),
		"bytes", counter.Bytes(),
		"requests", counter.Requests(),
		"duration", time.Since(start))

	return Extraction{Name: a.Name, Ref: ref.String(), Source: a.Location, Lines: lines}, nil
}

// Resolve selects the wheel a requirement refers to without touching it.
func (r *Runner) Resolve(ctx context.Context, req python.Requirement) (*pypi.Candidate, error) {
	candidate, err := r.resolve(ctx, req)
	if err != nil {
		return nil, annotate(req, err)
	}
	return candidate, nil
}

func (r *Runner) resolve(ctx context.Context, req python.Requirement) (*pypi.Candidate, error) {
	project, err := r.Index.FetchProject(ctx, req.Name, r.opts.Refresh)
	if err != nil {
		return nil, err
	}
	candidate, err := pypi.SelectWheel(project, req.Constraint)
	if err != nil {
		return nil, err
	}
	r.Logger.Debug("resolved wheel",
		"ref", req.String(),
		"version", candidate.Wheel.Version.String(),
		"url", candidate.File.URL)
	return candidate, nil
}

// Archive is an opened wheel with its central directory loaded.
type Archive struct {
	Name      string          // Normalized package name
	Location  string          // URL or local path
	Candidate *pypi.Candidate // Selected index file; nil for local paths
	Reader    *archive.Reader
	src       rangeio.Source
}

// Close releases the byte source.
func (a *Archive) Close() error { return a.src.Close() }

// OpenArchive resolves ref and reads the archive's central directory.
// The caller must Close the returned archive.
func (r *Runner) OpenArchive(ctx context.Context, ref python.Reference) (*Archive, error) {
	a, err := r.openArchive(ctx, ref, nil)
	if err != nil {
		return nil, annotate(ref, err)
	}
	return a, nil
}

func (r *Runner) openArchive(ctx context.Context, ref python.Reference, counter *observability.TransferCounter) (*Archive, error) {
	a := &Archive{Name: ref.Key()}

	switch ref := ref.(type) {
	case python.Requirement:
		candidate, err := r.resolve(ctx, ref)
		if err != nil {
			return nil, err
		}
		hooks := r.opts.Hooks.HTTP
		if counter != nil {
			hooks = observability.MultiHTTPHooks{hooks, counter}
		}
		src, err := rangeio.OpenHTTP(ctx, r.opts.HTTP, candidate.File.URL, rangeio.HTTPOptions{
			Attempts:   r.opts.Attempts,
			RetryDelay: r.opts.RetryDelay,
			Hooks:      hooks,
		})
		if err != nil {
			return nil, err
		}
		a.Location, a.Candidate, a.src = candidate.File.URL, candidate, src

	case python.LocalPath:
		src, err := rangeio.OpenFile(r.opts.Fs, string(ref))
		if err != nil {
			return nil, err
		}
		a.Location, a.src = string(ref), src

	default:
		return nil, errors.New(errors.ErrCodeInternal, "unknown reference type %T", ref)
	}

	reader, err := archive.NewReader(a.src)
	if err != nil {
		a.src.Close()
		return nil, err
	}
	a.Reader = reader
	return a, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.opts.Cache != nil {
		return r.opts.Cache.Close()
	}
	return nil
}

// annotate prefixes a coded error's message with the reference that caused
// it, keeping its code and cause. Other errors (cancellation) pass through.
func annotate(ref python.Reference, err error) error {
	var e *errors.Error
	if !stderrors.As(err, &e) || strings.Contains(e.Message, ref.String()) {
		return err
	}
	return &errors.Error{Code: e.Code, Message: ref.String() + ": " + e.Message, Cause: e.Cause}
}
