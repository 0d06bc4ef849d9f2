package io

import (
	"sort"

	"github.com/matzehuels/blik/pkg/block"
)

// Format names used by readers, writers and [Record.Format].
const (
	FormatSTAR = "star"
	FormatTBL  = "tbl"
	FormatBOX  = "box"
	FormatFITS = "fits"
)

// Meta is the metadata a reader infers from a file.
type Meta struct {
	// PixelSize in the file's unit (Angstrom for STAR), zero when unknown.
	PixelSize float64 `json:"pixel_size,omitempty"`
	// Source is the path the record was read from.
	Source string `json:"source"`
	// Volume is the micrograph or tomogram the rows belong to.
	Volume string `json:"volume,omitempty"`
}

// Record is one table (or image) read from a file. Rows of one record share a
// volume; readers split files covering several volumes into several records.
type Record struct {
	Format  string               `json:"format"`
	Columns map[string][]float64 `json:"columns,omitempty"`
	Strings map[string][]string  `json:"strings,omitempty"`
	Image   *block.Voxels        `json:"image,omitempty"`
	Meta    Meta                 `json:"meta"`
}

// Len returns the number of rows, or the first image extent for images.
func (r Record) Len() int {
	if r.Image != nil {
		if len(r.Image.Shape) == 0 {
			return 0
		}
		return r.Image.Shape[0]
	}
	for _, c := range r.Columns {
		return len(c)
	}
	for _, c := range r.Strings {
		return len(c)
	}
	return 0
}

// Names returns every column name, numeric and string, sorted.
func (r Record) Names() []string {
	names := make([]string, 0, len(r.Columns)+len(r.Strings))
	for k := range r.Columns {
		names = append(names, k)
	}
	for k := range r.Strings {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Reader parses one file format.
type Reader interface {
	// Format returns the format name, e.g. "star".
	Format() string
	// Extensions lists the file extensions the reader is a candidate for,
	// lower case with the leading dot.
	Extensions() []string
	// Read returns the records in path. Content that is not in the reader's
	// format yields a *errors.ParseError.
	Read(path string) ([]Record, error)
}

// Writer serializes a block to one file format.
type Writer interface {
	Format() string
	Extensions() []string
	// Write stores b at path. Blocks lacking metadata the format requires
	// are refused with MISSING_METADATA before anything is written.
	Write(b block.Block, path string) error
}
