package cache

import "time"

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation. This is
// useful when several projects share one Redis instance.
//
// Example usage:
//
//	projectKeyer := NewScopedKeyer(NewDefaultKeyer(), "project:ribosomes:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// RecordsKey generates a prefixed key for parsed records.
func (k *ScopedKeyer) RecordsKey(path string, size int64, modTime time.Time, opts RecordsKeyOpts) string {
	return k.prefix + k.inner.RecordsKey(path, size, modTime, opts)
}

// SceneKey generates a prefixed key for depicted scenes.
func (k *ScopedKeyer) SceneKey(inputsHash string, opts SceneKeyOpts) string {
	return k.prefix + k.inner.SceneKey(inputsHash, opts)
}
