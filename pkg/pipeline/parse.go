package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"slices"
	"time"

	"github.com/matzehuels/blik/pkg/block"
	"github.com/matzehuels/blik/pkg/cache"
	"github.com/matzehuels/blik/pkg/errors"
	blikio "github.com/matzehuels/blik/pkg/io"
	"github.com/matzehuels/blik/pkg/observability"
)

const recordsKeyType = "records"

// ParseWithCacheInfo reads the records of one file, using the cache unless
// opts.Refresh is set, and reports whether they came from the cache.
func (r *Runner) ParseWithCacheInfo(ctx context.Context, path string, opts Options) ([]blikio.Record, bool, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, false, err
	}
	start := time.Now()
	observability.Pipeline().OnReadStart(ctx, path)

	info, err := os.Stat(path)
	if err != nil {
		err = errors.Wrap(errors.ErrCodeInvalidPath, err, "stat %s", path)
		observability.Pipeline().OnReadComplete(ctx, path, 0, time.Since(start), err)
		return nil, false, err
	}
	cacheKey := r.Keyer.RecordsKey(path, info.Size(), info.ModTime(), opts.RecordsKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var recs []blikio.Record
			if err := json.Unmarshal(data, &recs); err == nil {
				observability.Cache().OnCacheHit(ctx, recordsKeyType)
				observability.Pipeline().OnReadComplete(ctx, path, len(recs), time.Since(start), nil)
				return recs, true, nil // Cache hit
			}
		}
		observability.Cache().OnCacheMiss(ctx, recordsKeyType)
	}

	recs, err := opts.Dispatcher.Read(path, opts.Strict)
	observability.Pipeline().OnReadComplete(ctx, path, len(recs), time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	// Images are read again on demand rather than duplicated into the cache.
	if cacheable(recs) {
		if data, err := json.Marshal(recs); err == nil {
			if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLRecords); err == nil {
				observability.Cache().OnCacheSet(ctx, recordsKeyType, len(data))
			} else {
				opts.Logger.Debug("cache write failed", "path", path, "err", err)
			}
		}
	}
	return recs, false, nil // Cache miss
}

// Parse is a convenience wrapper that calls ParseWithCacheInfo and discards the cache hit info.
func (r *Runner) Parse(ctx context.Context, path string, opts Options) ([]blikio.Record, error) {
	recs, _, err := r.ParseWithCacheInfo(ctx, path, opts)
	return recs, err
}

func cacheable(recs []blikio.Record) bool {
	for _, rec := range recs {
		if rec.Image != nil {
			return false
		}
	}
	return true
}

// applyOverrides replaces record metadata with the values forced in opts.
// Table records of one file that end up in the same volume are merged so
// they become a single block.
func applyOverrides(recs []blikio.Record, opts Options) []blikio.Record {
	for i := range recs {
		if opts.PixelSize > 0 {
			recs[i].Meta.PixelSize = opts.PixelSize
		}
		if opts.Volume != "" {
			recs[i].Meta.Volume = opts.Volume
		}
	}
	if opts.Volume == "" {
		return recs
	}
	out := recs[:0:0]
	merged := make(map[string]int)
	for _, rec := range recs {
		if rec.Image != nil {
			out = append(out, rec)
			continue
		}
		key := rec.Format + "\x00" + rec.Meta.Source
		i, ok := merged[key]
		if !ok || !sameColumns(out[i], rec) {
			merged[key] = len(out)
			out = append(out, rec)
			continue
		}
		for name, col := range rec.Columns {
			out[i].Columns[name] = append(out[i].Columns[name], col...)
		}
		for name, col := range rec.Strings {
			out[i].Strings[name] = append(out[i].Strings[name], col...)
		}
	}
	return out
}

func sameColumns(a, b blikio.Record) bool {
	return slices.Equal(a.Names(), b.Names()) && len(a.Columns) == len(b.Columns)
}

// Group converts records into blocks.
func Group(recs []blikio.Record) ([]block.Block, error) {
	var out []block.Block
	for _, rec := range recs {
		blocks, err := blikio.ToBlocks(rec)
		if err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "convert %s", rec.Meta.Source)
		}
		out = append(out, blocks...)
	}
	return out, nil
}
