package io

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/matzehuels/blik/pkg/errors"
)

// Dispatcher picks readers by file extension. Several readers may claim one
// extension; they are tried in registration order.
type Dispatcher struct {
	mu      sync.RWMutex
	readers []Reader
}

// NewDispatcher returns a dispatcher trying readers in the given order.
func NewDispatcher(readers ...Reader) *Dispatcher {
	return &Dispatcher{readers: append([]Reader(nil), readers...)}
}

// DefaultDispatcher knows STAR, Dynamo table, box and FITS files.
func DefaultDispatcher() *Dispatcher {
	return NewDispatcher(STARReader{}, TBLReader{}, BOXReader{}, FITSReader{})
}

// Register appends r to the candidates of its extensions.
func (d *Dispatcher) Register(r Reader) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.readers = append(d.readers, r)
}

// Candidates returns the readers claiming the extension of path.
func (d *Dispatcher) Candidates(path string) []Reader {
	ext := strings.ToLower(filepath.Ext(path))
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []Reader
	for _, r := range d.readers {
		for _, e := range r.Extensions() {
			if e == ext {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// Extensions returns every extension some reader claims, in registration
// order and without duplicates.
func (d *Dispatcher) Extensions() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	seen := map[string]bool{}
	var out []string
	for _, r := range d.readers {
		for _, e := range r.Extensions() {
			if !seen[e] {
				seen[e] = true
				out = append(out, e)
			}
		}
	}
	return out
}

// Read tries each candidate reader for path. A *errors.ParseError moves on to
// the next candidate; it is returned only when every candidate fails, or at
// once in strict mode. Any other error is returned immediately.
func (d *Dispatcher) Read(path string, strict bool) ([]Record, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	candidates := d.Candidates(path)
	if len(candidates) == 0 {
		return nil, errors.New(errors.ErrCodeUnsupported, "no reader for %q files (%s)", filepath.Ext(path), path)
	}
	var last error
	for _, r := range candidates {
		recs, err := r.Read(path)
		if err == nil {
			return recs, nil
		}
		var perr *errors.ParseError
		if !errors.As(err, &perr) || strict {
			return nil, err
		}
		last = err
	}
	return nil, last
}

// Failure is a file ReadMany skipped.
type Failure struct {
	Path string
	Err  error
}

// Result is the outcome of ReadMany.
type Result struct {
	Records []Record
	Failed  []Failure
}

// ReadMany reads every path. Unless strict, unreadable files are skipped and
// reported in Failed; in strict mode the first failure is returned.
func (d *Dispatcher) ReadMany(paths []string, strict bool) (Result, error) {
	var res Result
	for _, p := range paths {
		recs, err := d.Read(p, strict)
		if err != nil {
			if strict {
				return res, err
			}
			res.Failed = append(res.Failed, Failure{Path: p, Err: err})
			continue
		}
		res.Records = append(res.Records, recs...)
	}
	return res, nil
}
