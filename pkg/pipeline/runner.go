package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/blik/pkg/cache"
	"github.com/matzehuels/blik/pkg/dataset"
	blikio "github.com/matzehuels/blik/pkg/io"
)

// Runner encapsulates pipeline execution with caching.
// Both the CLI and the layer server use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → depict pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result, err := r.Load(ctx, opts)
	if err != nil {
		return nil, err
	}

	depictStart := time.Now()
	scene, err := r.Depict(ctx, result.DataSet, opts)
	if err != nil {
		return nil, fmt.Errorf("depict: %w", err)
	}
	result.Scene = scene
	result.Stats.Layers = scene.Len()
	result.Stats.DepictTime = time.Since(depictStart)

	r.Logger.Info("depicted data set",
		"layers", scene.Len(),
		"visible", len(scene.Visible()),
		"duration", result.Stats.DepictTime)

	return result, nil
}

// Load reads every input and collects the resulting blocks in a DataSet.
// Unless opts.Strict is set, files no reader understands are skipped and
// listed in Result.Failed.
func (r *Runner) Load(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLoad(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	start := time.Now()
	ds, err := dataset.New()
	if err != nil {
		return nil, err
	}
	result := &Result{DataSet: ds}

	for _, path := range opts.Paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		recs, hit, err := r.ParseWithCacheInfo(ctx, path, opts)
		if err != nil {
			if opts.Strict {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
			r.Logger.Warn("skipping unreadable file", "path", path, "err", err)
			result.Failed = append(result.Failed, blikio.Failure{Path: path, Err: err})
			continue
		}
		if hit {
			result.CacheInfo.RecordHits++
		} else {
			result.CacheInfo.RecordMisses++
		}
		recs = applyOverrides(recs, opts)
		blocks, err := Group(recs)
		if err != nil {
			if opts.Strict {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
			r.Logger.Warn("skipping unconvertible file", "path", path, "err", err)
			result.Failed = append(result.Failed, blikio.Failure{Path: path, Err: err})
			continue
		}
		if err := ds.Extend(blocks...); err != nil {
			return nil, err
		}
		result.Stats.Files++
		result.Stats.Records += len(recs)
		r.Logger.Debug("read file", "path", path, "records", len(recs), "cached", hit)
	}

	result.Stats.Blocks = ds.Len()
	result.Stats.Volumes = len(ds.Volumes())
	result.Stats.LoadTime = time.Since(start)

	r.Logger.Info("loaded data set",
		"files", result.Stats.Files,
		"blocks", result.Stats.Blocks,
		"volumes", result.Stats.Volumes,
		"skipped", len(result.Failed),
		"duration", result.Stats.LoadTime)

	return result, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
