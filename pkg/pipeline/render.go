package pipeline

import (
	"bytes"
	"context"
	"os"
	"time"

	"github.com/matzehuels/blik/pkg/block"
	"github.com/matzehuels/blik/pkg/cache"
	"github.com/matzehuels/blik/pkg/dataset"
	"github.com/matzehuels/blik/pkg/depict"
	blikio "github.com/matzehuels/blik/pkg/io"
	"github.com/matzehuels/blik/pkg/observability"
)

const sceneKeyType = "scene"

// Registry returns the default adapters with the vector length from opts.
func Registry(opts Options) *depict.Registry {
	r := depict.DefaultRegistry()
	oriented := depict.OrientedAdapter{VectorLength: opts.VectorLength}
	r.Register(block.KindParticle, oriented)
	r.Register(block.KindOrientedPoint, oriented)
	return r
}

// Depict renders every block of ds into a new Scene showing opts.Show.
func (r *Runner) Depict(ctx context.Context, ds *dataset.DataSet, opts Options) (*depict.Scene, error) {
	scene, _, err := r.DepictWithManager(ctx, ds, opts)
	return scene, err
}

// DepictWithManager is like Depict and also returns the manager holding the
// live depictors, for callers that keep editing the blocks.
func (r *Runner) DepictWithManager(ctx context.Context, ds *dataset.DataSet, opts Options) (*depict.Scene, *depict.Manager, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForDepict(); err != nil {
		return nil, nil, err
	}
	start := time.Now()
	observability.Pipeline().OnDepictStart(ctx, opts.Show, ds.Len())

	scene := depict.NewScene()
	scene.ShowVolume(opts.Show)
	m := depict.NewManager(scene, Registry(opts), opts.Logger)
	err := m.DepictAll(ds.Blocks(), false)
	observability.Pipeline().OnDepictComplete(ctx, opts.Show, scene.Len(), time.Since(start), err)
	if err != nil {
		return nil, nil, err
	}
	return scene, m, nil
}

// SceneJSONWithCacheInfo runs the pipeline and returns the layer JSON of the
// result. The JSON is cached under the identity of every input file, so a
// changed file yields a fresh scene.
func (r *Runner) SceneJSONWithCacheInfo(ctx context.Context, opts Options) ([]byte, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	inputs, err := r.inputsHash(opts)
	if err != nil {
		return nil, false, err
	}
	cacheKey := r.Keyer.SceneKey(inputs, opts.SceneKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, sceneKeyType)
			return data, true, nil // Cache hit
		}
		observability.Cache().OnCacheMiss(ctx, sceneKeyType)
	}

	res, err := r.Execute(ctx, opts)
	if err != nil {
		return nil, false, err
	}
	var buf bytes.Buffer
	if err := blikio.WriteJSON(res.Scene.Layers(), res.Scene.Volume(), &buf); err != nil {
		return nil, false, err
	}
	if err := r.Cache.Set(ctx, cacheKey, buf.Bytes(), cache.TTLScene); err == nil {
		observability.Cache().OnCacheSet(ctx, sceneKeyType, buf.Len())
	}
	return buf.Bytes(), false, nil // Cache miss
}

// inputsHash identifies the input files and the load options applied to them.
func (r *Runner) inputsHash(opts Options) (string, error) {
	type input struct {
		Path string
		Size int64
		Mod  int64
	}
	ids := struct {
		Inputs    []input
		PixelSize float64
		Volume    string
		Strict    bool
	}{PixelSize: opts.PixelSize, Volume: opts.Volume, Strict: opts.Strict}
	for _, p := range opts.Paths {
		info, err := os.Stat(p)
		if err != nil {
			// Missing inputs are reported by the load itself.
			ids.Inputs = append(ids.Inputs, input{Path: p})
			continue
		}
		ids.Inputs = append(ids.Inputs, input{Path: p, Size: info.Size(), Mod: info.ModTime().UnixNano()})
	}
	return cache.HashValue(ids)
}
