// Package pipeline provides the load → group → depict pipeline for blik.
//
// This package implements the steps shared by every entry point (the CLI
// commands and the layer server): read particle and image files, turn their
// records into datablocks collected in a DataSet, and depict the data set
// into a Scene. Parsed records are cached so repeated runs over the same files
// skip parsing.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Parse: read every input with the reader dispatcher, optionally cached
//  2. Group: convert records into blocks and collect them by volume
//  3. Depict: project the blocks onto layers of a Scene
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Paths: []string{"run_data.star", "tomo.fits"},
//	    Show:  "TS_01",
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	layers := result.Scene.Visible()
//
// Run individual stages:
//
//	// Load only
//	result, err := runner.Load(ctx, opts)
//
//	// Depict an existing data set
//	scene, err := runner.Depict(ctx, ds, opts)
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/blik/pkg/cache"
	"github.com/matzehuels/blik/pkg/dataset"
	"github.com/matzehuels/blik/pkg/depict"
	"github.com/matzehuels/blik/pkg/errors"
	blikio "github.com/matzehuels/blik/pkg/io"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

// DefaultVectorLength is the displayed length of orientation vectors.
const DefaultVectorLength = depict.DefaultVectorLength

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for server requests.
type Options struct {
	// Load options
	Paths     []string `json:"paths"`
	Strict    bool     `json:"strict,omitempty"`     // Fail on the first unreadable file
	PixelSize float64  `json:"pixel_size,omitempty"` // Overrides the pixel size read from files
	Volume    string   `json:"volume,omitempty"`     // Overrides the volume read from files
	Refresh   bool     `json:"refresh,omitempty"`    // Ignore cached records

	// Depict options
	Show         string  `json:"show,omitempty"` // Volume to show; empty shows all
	VectorLength float64 `json:"vector_length,omitempty"`

	// Runtime options (not serialized)
	Logger     *log.Logger         `json:"-"`
	Dispatcher *blikio.Dispatcher `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// DataSet holds every block read from the inputs.
	DataSet *dataset.DataSet

	// Scene is the depiction of DataSet. It is nil after Load alone.
	Scene *depict.Scene

	// Failed lists inputs skipped in non-strict mode.
	Failed []blikio.Failure

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which inputs came from the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Files      int
	Records    int
	Blocks     int
	Volumes    int
	Layers     int
	LoadTime   time.Duration
	DepictTime time.Duration
}

// CacheInfo tracks cache use while loading.
type CacheInfo struct {
	RecordHits   int // Files whose records came from the cache
	RecordMisses int // Files that were parsed
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidatePaths checks that at least one path is given and every path is valid.
func ValidatePaths(paths []string) error {
	if len(paths) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "at least one input path is required")
	}
	for _, p := range paths {
		if err := errors.ValidatePath(p); err != nil {
			return err
		}
	}
	return nil
}

// ValidatePixelSize checks that a pixel size override is not negative.
func ValidatePixelSize(v float64) error {
	if v < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "pixel size must not be negative, got %g", v)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForDepict(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks required fields for loading.
func (o *Options) ValidateForLoad() error {
	if err := ValidatePaths(o.Paths); err != nil {
		return err
	}
	if err := ValidatePixelSize(o.PixelSize); err != nil {
		return err
	}
	if err := errors.ValidateName(o.Volume); err != nil {
		return fmt.Errorf("volume override: %w", err)
	}
	if o.Dispatcher == nil {
		o.Dispatcher = blikio.DefaultDispatcher()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetDepictDefaults sets default values for depiction.
func (o *Options) SetDepictDefaults() {
	if o.VectorLength == 0 {
		o.VectorLength = DefaultVectorLength
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForDepict validates and sets defaults for depiction.
func (o *Options) ValidateForDepict() error {
	o.SetDepictDefaults()
	if o.VectorLength < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "vector length must not be negative, got %g", o.VectorLength)
	}
	return errors.ValidateName(o.Show)
}

// RecordsKeyOpts returns cache key options for parsed records.
func (o *Options) RecordsKeyOpts() cache.RecordsKeyOpts {
	return cache.RecordsKeyOpts{Strict: o.Strict}
}

// SceneKeyOpts returns cache key options for exported scenes.
func (o *Options) SceneKeyOpts() cache.SceneKeyOpts {
	return cache.SceneKeyOpts{Volume: o.Show, VectorLength: o.VectorLength}
}
