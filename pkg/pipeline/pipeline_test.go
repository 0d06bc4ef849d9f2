package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/blik/pkg/cache"
	"github.com/matzehuels/blik/pkg/errors"
)

const particlesSTAR = `
data_optics

loop_
_rlnOpticsGroup #1
_rlnImagePixelSize #2
1 2.0

data_particles

loop_
_rlnCoordinateX #1
_rlnCoordinateY #2
_rlnCoordinateZ #3
_rlnAngleRot #4
_rlnAngleTilt #5
_rlnAnglePsi #6
_rlnMicrographName #7
_rlnOpticsGroup #8
10 20 30 0 0 0 TS_01 1
11 21 31 0 0 0 TS_01 1
12 22 32 30 90 10 TS_02 1
`

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, nil)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestValidatePaths(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		code  errors.Code
	}{
		{"valid", []string{"a.star", "b.tbl"}, ""},
		{"none", nil, errors.ErrCodeInvalidInput},
		{"empty path", []string{"a.star", ""}, errors.ErrCodeInvalidPath},
		{"control character", []string{"a\x00.star"}, errors.ErrCodeInvalidPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePaths(tt.paths)
			if tt.code == "" {
				if err != nil {
					t.Errorf("ValidatePaths() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("ValidatePaths() = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestValidatePixelSize(t *testing.T) {
	for _, v := range []float64{0, 1.35} {
		if err := ValidatePixelSize(v); err != nil {
			t.Errorf("ValidatePixelSize(%g) = %v", v, err)
		}
	}
	if err := ValidatePixelSize(-1); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("ValidatePixelSize(-1) = %v, want INVALID_INPUT", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Paths: []string{"a.star"}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("valid options should pass: %v", err)
	}
	if opts.VectorLength != DefaultVectorLength {
		t.Errorf("VectorLength = %g, want %g", opts.VectorLength, DefaultVectorLength)
	}
	if opts.Dispatcher == nil {
		t.Error("Dispatcher should default to the built-in readers")
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discarding logger")
	}

	// Idempotent
	opts.VectorLength = 3
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.VectorLength != 3 {
		t.Error("second call changed VectorLength")
	}
}

func TestOptionsValidateForDepict(t *testing.T) {
	opts := Options{VectorLength: -1}
	if err := opts.ValidateForDepict(); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("negative vector length: got %v", err)
	}
	opts = Options{Show: "TS\x01"}
	if err := opts.ValidateForDepict(); !errors.Is(err, errors.ErrCodeInvalidName) {
		t.Errorf("control character in volume: got %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeInput(t, dir, "particles.star", particlesSTAR)
	r := newTestRunner(t)
	ctx := context.Background()

	res, err := r.Load(ctx, Options{Paths: []string{path}})
	if err != nil {
		t.Fatal(err)
	}
	want := Stats{Files: 1, Records: 2, Blocks: 2, Volumes: 2}
	got := res.Stats
	got.LoadTime = 0
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Stats mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"TS_01", "TS_02"}, res.DataSet.Volumes()); diff != "" {
		t.Errorf("Volumes mismatch (-want +got):\n%s", diff)
	}
	if res.CacheInfo != (CacheInfo{RecordMisses: 1}) {
		t.Errorf("first load CacheInfo = %+v", res.CacheInfo)
	}

	// The second load reads the records from the cache.
	res2, err := r.Load(ctx, Options{Paths: []string{path}})
	if err != nil {
		t.Fatal(err)
	}
	if res2.CacheInfo != (CacheInfo{RecordHits: 1}) {
		t.Errorf("second load CacheInfo = %+v", res2.CacheInfo)
	}
	if res2.DataSet.Len() != res.DataSet.Len() {
		t.Errorf("cached load has %d blocks, want %d", res2.DataSet.Len(), res.DataSet.Len())
	}
	if res2.DataSet.At(0).Len() != 2 {
		t.Errorf("cached TS_01 block has %d particles, want 2", res2.DataSet.At(0).Len())
	}

	// Refresh skips the cache.
	res3, err := r.Load(ctx, Options{Paths: []string{path}, Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if res3.CacheInfo.RecordHits != 0 {
		t.Errorf("refresh load CacheInfo = %+v", res3.CacheInfo)
	}
}

func TestLoadUnreadable(t *testing.T) {
	dir := t.TempDir()
	good := writeInput(t, dir, "particles.star", particlesSTAR)
	bad := writeInput(t, dir, "broken.star", "this is not a star file\n")

	t.Run("lenient", func(t *testing.T) {
		r := newTestRunner(t)
		res, err := r.Load(context.Background(), Options{Paths: []string{bad, good}})
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Failed) != 1 || res.Failed[0].Path != bad {
			t.Fatalf("Failed = %+v, want %s", res.Failed, bad)
		}
		if res.Stats.Files != 1 || res.Stats.Blocks != 2 {
			t.Errorf("Stats = %+v", res.Stats)
		}
	})

	t.Run("strict", func(t *testing.T) {
		r := newTestRunner(t)
		_, err := r.Load(context.Background(), Options{Paths: []string{good, bad}, Strict: true})
		var perr *errors.ParseError
		if !errors.As(err, &perr) {
			t.Fatalf("Load() = %v, want a parse error", err)
		}
	})

	shifted := writeInput(t, dir, "shifted.star", `
data_particles

loop_
_rlnCoordinateX #1
_rlnCoordinateY #2
_rlnCoordinateZ #3
_rlnOriginXAngst #4
_rlnMicrographName #5
1 2 3 4.0 TS_03
`)

	t.Run("lenient unconvertible", func(t *testing.T) {
		r := newTestRunner(t)
		res, err := r.Load(context.Background(), Options{Paths: []string{good, shifted}})
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Failed) != 1 || res.Failed[0].Path != shifted {
			t.Fatalf("Failed = %+v, want %s", res.Failed, shifted)
		}
		if !errors.Is(res.Failed[0].Err, errors.ErrCodeMissingMetadata) {
			t.Errorf("Failed[0].Err = %v, want MISSING_METADATA", res.Failed[0].Err)
		}
		if res.Stats.Files != 1 || res.Stats.Blocks != 2 {
			t.Errorf("Stats = %+v", res.Stats)
		}
	})

	t.Run("strict unconvertible", func(t *testing.T) {
		r := newTestRunner(t)
		_, err := r.Load(context.Background(), Options{Paths: []string{good, shifted}, Strict: true})
		if !errors.Is(err, errors.ErrCodeMissingMetadata) {
			t.Errorf("Load() = %v, want MISSING_METADATA", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		r := newTestRunner(t)
		_, err := r.Load(context.Background(), Options{Paths: []string{filepath.Join(dir, "absent.star")}, Strict: true})
		if !errors.Is(err, errors.ErrCodeInvalidPath) {
			t.Errorf("Load() = %v, want INVALID_PATH", err)
		}
	})
}

func TestLoadOverrides(t *testing.T) {
	path := writeInput(t, t.TempDir(), "particles.star", particlesSTAR)
	r := newTestRunner(t)

	res, err := r.Load(context.Background(), Options{Paths: []string{path}, Volume: "merged", PixelSize: 5})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"merged"}, res.DataSet.Volumes()); diff != "" {
		t.Errorf("Volumes mismatch (-want +got):\n%s", diff)
	}
	for _, b := range res.DataSet.Blocks() {
		if ps := b.Identity().Spatial().PixelSize(); ps != [3]float64{5, 5, 5} {
			t.Errorf("%s: pixel size %v, want 5", b.Identity().Name(), ps)
		}
	}
}

func TestLoadCanceled(t *testing.T) {
	path := writeInput(t, t.TempDir(), "particles.star", particlesSTAR)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newTestRunner(t).Load(ctx, Options{Paths: []string{path}}); err != context.Canceled {
		t.Errorf("Load() = %v, want context.Canceled", err)
	}
}

func TestExecute(t *testing.T) {
	path := writeInput(t, t.TempDir(), "particles.star", particlesSTAR)
	r := newTestRunner(t)

	res, err := r.Execute(context.Background(), Options{Paths: []string{path}, Show: "TS_02"})
	if err != nil {
		t.Fatal(err)
	}
	// Each particle block yields a points layer and a vectors layer.
	if res.Stats.Layers != 4 || res.Scene.Len() != 4 {
		t.Fatalf("layers = %d, want 4", res.Stats.Layers)
	}
	visible := res.Scene.Visible()
	if len(visible) != 2 {
		t.Fatalf("visible layers = %d, want 2", len(visible))
	}
	for _, l := range visible {
		if l.Volume != "TS_02" {
			t.Errorf("layer %q from volume %q is visible", l.Name, l.Volume)
		}
	}
}

func TestSceneJSON(t *testing.T) {
	path := writeInput(t, t.TempDir(), "particles.star", particlesSTAR)
	r := newTestRunner(t)
	ctx := context.Background()
	opts := Options{Paths: []string{path}, Show: "TS_01"}

	data, hit, err := r.SceneJSONWithCacheInfo(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("first call reported a cache hit")
	}
	var doc struct {
		Volume string            `json:"volume"`
		Layers []json.RawMessage `json:"layers"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if doc.Volume != "TS_01" || len(doc.Layers) != 4 {
		t.Errorf("volume %q with %d layers", doc.Volume, len(doc.Layers))
	}

	cached, hit, err := r.SceneJSONWithCacheInfo(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Error("second call missed the cache")
	}
	if string(cached) != string(data) {
		t.Error("cached scene differs from the rendered one")
	}
}

func TestRegistryVectorLength(t *testing.T) {
	path := writeInput(t, t.TempDir(), "particles.star", particlesSTAR)
	r := newTestRunner(t)
	res, err := r.Execute(context.Background(), Options{Paths: []string{path}, VectorLength: 4})
	if err != nil {
		t.Fatal(err)
	}
	vectors := res.Scene.Layers()[1]
	if got := vectors.Attrs.Style["length"]; got != 4.0 {
		t.Errorf("vector length = %v, want 4", got)
	}
}

func TestLoadVolumeOverrideMerges(t *testing.T) {
	path := writeInput(t, t.TempDir(), "particles.star", particlesSTAR)
	res, err := newTestRunner(t).Load(context.Background(), Options{Paths: []string{path}, Volume: "merged"})
	if err != nil {
		t.Fatal(err)
	}
	if res.DataSet.Len() != 1 {
		t.Fatalf("blocks = %d, want 1", res.DataSet.Len())
	}
	if n := res.DataSet.At(0).Len(); n != 3 {
		t.Errorf("merged block has %d particles, want 3", n)
	}
}
