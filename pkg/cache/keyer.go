package cache

import "time"

// RecordsKeyOpts are the reader settings that change what a file parses to.
type RecordsKeyOpts struct {
	Strict bool `json:"strict,omitempty"`
}

// SceneKeyOpts are the depiction settings that change a scene's layers.
type SceneKeyOpts struct {
	Volume       string  `json:"volume,omitempty"`
	VectorLength float64 `json:"vector_length,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	// RecordsKey identifies the parsed records of one file version.
	RecordsKey(path string, size int64, modTime time.Time, opts RecordsKeyOpts) string
	// SceneKey identifies the layers depicted from a set of inputs.
	SceneKey(inputsHash string, opts SceneKeyOpts) string
}

// DefaultKeyer hashes every key component.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// RecordsKey returns "records:" followed by a hash of the file identity.
func (DefaultKeyer) RecordsKey(path string, size int64, modTime time.Time, opts RecordsKeyOpts) string {
	return hashKey("records", path, size, modTime.UTC().UnixNano(), opts)
}

// SceneKey returns "scene:" followed by a hash of the inputs and options.
func (DefaultKeyer) SceneKey(inputsHash string, opts SceneKeyOpts) string {
	return hashKey("scene", inputsHash, opts)
}

// Entry lifetimes used by the pipeline.
const (
	// TTLRecords bounds how long parsed records are kept. Keys already change
	// when a file changes; the TTL only limits cache growth.
	TTLRecords = 7 * 24 * time.Hour

	// TTLScene bounds how long exported layer JSON is kept.
	TTLScene = 24 * time.Hour
)
