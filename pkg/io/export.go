package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/blik/pkg/block"
	"github.com/matzehuels/blik/pkg/depict"
	"github.com/matzehuels/blik/pkg/errors"
)

// DefaultWriters returns the writers for every supported output format.
func DefaultWriters() []Writer {
	return []Writer{STARWriter{}, TBLWriter{}, FITSWriter{}}
}

// WriterFor returns the writer claiming the extension of path.
func WriterFor(path string, writers []Writer) (Writer, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, w := range writers {
		for _, e := range w.Extensions() {
			if e == ext {
				return w, nil
			}
		}
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "no writer for %q files (%s)", ext, path)
}

// Write stores b at path with the default writer for its extension.
func Write(b block.Block, path string) error {
	w, err := WriterFor(path, DefaultWriters())
	if err != nil {
		return err
	}
	return w.Write(b, path)
}

// scene is the JSON document written by WriteJSON.
type scene struct {
	Volume string         `json:"volume,omitempty"`
	Layers []depict.Layer `json:"layers"`
}

// WriteJSON encodes layer descriptors as JSON and writes them to w. volume
// records the volume shown when the layers were captured.
func WriteJSON(layers []depict.Layer, volume string, w io.Writer) error {
	if layers == nil {
		layers = []depict.Layer{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(scene{Volume: volume, Layers: layers}); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes the layers of s to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(s *depict.Scene, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(s.Layers(), s.Volume(), f)
}
