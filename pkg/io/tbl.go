package io

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/matzehuels/blik/pkg/block"
	"github.com/matzehuels/blik/pkg/errors"
)

// tblColumns names the leading columns of a Dynamo table. Further columns are
// named colNN.
var tblColumns = []string{
	"tag", "aligned", "averaged", "dx", "dy", "dz", "tdrot", "tilt", "narot",
	"cc", "cc2", "cpu", "ftype", "ymintilt", "ymaxtilt", "xmintilt", "xmaxtilt",
	"fs1", "fs2", "tomo", "reg", "class", "annotation", "x", "y", "z",
	"dshift", "daxis", "dnarot", "dcc", "otag", "npar", "ref", "sref", "apix",
}

// tblMinColumns is the column count up to and including z.
const tblMinColumns = 26

const tblTomo = 19

func tblName(j int) string {
	if j < len(tblColumns) {
		return tblColumns[j]
	}
	return fmt.Sprintf("col%d", j+1)
}

func tblIndex(name string) int {
	for i, c := range tblColumns {
		if c == name {
			return i
		}
	}
	return -1
}

// TBLReader reads Dynamo particle tables. Rows are split into one record per
// value of the tomo column.
type TBLReader struct{}

func (TBLReader) Format() string       { return FormatTBL }
func (TBLReader) Extensions() []string { return []string{".tbl"} }

func (TBLReader) Read(path string) ([]Record, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path)
	}
	defer f.Close()

	var rows [][]float64
	width := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for line := 1; sc.Scan(); line++ {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if width == 0 {
			width = len(fields)
			if width < tblMinColumns {
				return nil, &errors.ParseError{Format: FormatTBL, Path: path, Cause: fmt.Errorf("line %d: %d columns, need at least %d", line, width, tblMinColumns)}
			}
		}
		if len(fields) != width {
			return nil, &errors.ParseError{Format: FormatTBL, Path: path, Cause: fmt.Errorf("line %d: %d columns, expected %d", line, len(fields), width)}
		}
		row := make([]float64, width)
		for j, s := range fields {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, &errors.ParseError{Format: FormatTBL, Path: path, Cause: fmt.Errorf("line %d column %d: %w", line, j+1, err)}
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, &errors.ParseError{Format: FormatTBL, Path: path, Cause: err}
	}
	if len(rows) == 0 {
		return nil, &errors.ParseError{Format: FormatTBL, Path: path, Cause: fmt.Errorf("no rows")}
	}

	var (
		order  []float64
		groups = map[float64][][]float64{}
	)
	for _, row := range rows {
		t := row[tblTomo]
		if _, ok := groups[t]; !ok {
			order = append(order, t)
		}
		groups[t] = append(groups[t], row)
	}
	records := make([]Record, 0, len(order))
	for _, t := range order {
		g := groups[t]
		rec := Record{
			Format:  FormatTBL,
			Columns: make(map[string][]float64, width),
			Meta:    Meta{Source: path, Volume: formatFloat(t)},
		}
		for j := 0; j < width; j++ {
			col := make([]float64, len(g))
			for i, row := range g {
				col[i] = row[j]
			}
			rec.Columns[tblName(j)] = col
		}
		records = append(records, rec)
	}
	return records, nil
}

// TBLWriter writes particle sets as Dynamo tables. The tomo column comes from
// a "tomo" property or, failing that, from an integer volume tag.
type TBLWriter struct{}

func (TBLWriter) Format() string       { return FormatTBL }
func (TBLWriter) Extensions() []string { return []string{".tbl"} }

func (TBLWriter) Write(b block.Block, path string) error {
	p, err := particlesOf(b)
	if err != nil {
		return err
	}
	props := p.Properties()
	tomo, err := tblTomoColumn(b, props)
	if err != nil {
		return err
	}
	if err := errors.ValidatePath(path); err != nil {
		return err
	}
	euler, err := p.Orientations().Euler(block.ConventionDynamo)
	if err != nil {
		return err
	}

	n := p.Len()
	width := tblMinColumns
	cols := map[int][]float64{}
	for _, name := range props.Names() {
		j := tblIndex(name)
		if j < 0 || tblReserved[name] {
			continue
		}
		vals, err := props.Float(name)
		if err != nil {
			continue
		}
		cols[j] = vals
		if j+1 > width {
			width = j + 1
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", path)
	}
	defer f.Close()
	bw := bufio.NewWriter(f)
	xyz := p.Positions().Spatial()
	fields := make([]string, width)
	for i := 0; i < n; i++ {
		for j := range fields {
			fields[j] = "0"
			if c, ok := cols[j]; ok {
				fields[j] = formatFloat(c[i])
			}
		}
		if _, ok := cols[0]; !ok {
			fields[0] = strconv.Itoa(i + 1)
		}
		if _, ok := cols[1]; !ok {
			fields[1] = "1"
		}
		if _, ok := cols[2]; !ok {
			fields[2] = "1"
		}
		fields[6], fields[7], fields[8] = formatFloat(euler[i][0]), formatFloat(euler[i][1]), formatFloat(euler[i][2])
		fields[tblTomo] = formatFloat(tomo[i])
		fields[23], fields[24], fields[25] = formatFloat(xyz[i][0]), formatFloat(xyz[i][1]), formatFloat(xyz[i][2])
		fmt.Fprintln(bw, strings.Join(fields, " "))
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	return nil
}

// tblReserved lists the columns the writer derives from the block itself.
var tblReserved = map[string]bool{
	"dx": true, "dy": true, "dz": true,
	"tdrot": true, "tilt": true, "narot": true,
	"tomo": true, "x": true, "y": true, "z": true,
}

func tblTomoColumn(b block.Block, props *block.PropertyBlock) ([]float64, error) {
	n := b.Len()
	if props.Has("tomo") {
		if vals, err := props.Float("tomo"); err == nil {
			return vals, nil
		}
	}
	volume, err := requireVolume(b, FormatTBL)
	if err != nil {
		return nil, err
	}
	t, err := strconv.ParseFloat(volume, 64)
	if err != nil || t != math.Trunc(t) {
		return nil, errors.New(errors.ErrCodeMissingMetadata, "volume %q is not a tomogram number and no tomo property is set", volume)
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = t
	}
	return out, nil
}
