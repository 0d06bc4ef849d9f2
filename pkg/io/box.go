package io

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/matzehuels/blik/pkg/errors"
)

// boxColumns names the columns of an EMAN2 or crYOLO box file.
var boxColumns = []string{"x", "y", "width", "height", "confidence"}

// BOXReader reads 2-D particle picks from box files. Each file covers one
// micrograph, whose name is the file stem.
type BOXReader struct{}

func (BOXReader) Format() string       { return FormatBOX }
func (BOXReader) Extensions() []string { return []string{".box"} }

func (BOXReader) Read(path string) ([]Record, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path)
	}
	defer f.Close()

	var cols [][]float64
	sc := bufio.NewScanner(f)
	for line := 1; sc.Scan(); line++ {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if cols == nil {
			if len(fields) < 4 {
				return nil, &errors.ParseError{Format: FormatBOX, Path: path, Cause: fmt.Errorf("line %d: need x y width height", line)}
			}
			cols = make([][]float64, min(len(fields), len(boxColumns)))
		}
		if len(fields) < len(cols) {
			return nil, &errors.ParseError{Format: FormatBOX, Path: path, Cause: fmt.Errorf("line %d: %d columns, expected %d", line, len(fields), len(cols))}
		}
		for j := range cols {
			v, err := strconv.ParseFloat(fields[j], 64)
			if err != nil {
				return nil, &errors.ParseError{Format: FormatBOX, Path: path, Cause: fmt.Errorf("line %d column %d: %w", line, j+1, err)}
			}
			cols[j] = append(cols[j], v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &errors.ParseError{Format: FormatBOX, Path: path, Cause: err}
	}
	if cols == nil {
		return nil, &errors.ParseError{Format: FormatBOX, Path: path, Cause: fmt.Errorf("no picks")}
	}
	rec := Record{
		Format:  FormatBOX,
		Columns: make(map[string][]float64, len(cols)),
		Meta:    Meta{Source: path, Volume: stem(path)},
	}
	for j, c := range cols {
		rec.Columns[boxColumns[j]] = c
	}
	return []Record{rec}, nil
}

// stem returns the file name of path without directory and extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
