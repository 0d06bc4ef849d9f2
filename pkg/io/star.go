package io

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/matzehuels/blik/pkg/block"
	"github.com/matzehuels/blik/pkg/errors"
)

// RELION column names used by the STAR reader and writer.
const (
	starX            = "rlnCoordinateX"
	starY            = "rlnCoordinateY"
	starZ            = "rlnCoordinateZ"
	starRot          = "rlnAngleRot"
	starTilt         = "rlnAngleTilt"
	starPsi          = "rlnAnglePsi"
	starOriginX      = "rlnOriginX"
	starOriginY      = "rlnOriginY"
	starOriginZ      = "rlnOriginZ"
	starOriginXAngst = "rlnOriginXAngst"
	starOriginYAngst = "rlnOriginYAngst"
	starOriginZAngst = "rlnOriginZAngst"
	starMicrograph   = "rlnMicrographName"
	starTomo         = "rlnTomoName"
	starOpticsGroup  = "rlnOpticsGroup"
	starImagePixel   = "rlnImagePixelSize"
	starPixel        = "rlnPixelSize"
	starDetector     = "rlnDetectorPixelSize"
	starMagnify      = "rlnMagnification"
)

// starTable is one data_ block of a STAR file. Tables without a loop_ keep
// their values in pairs.
type starTable struct {
	name    string
	columns []string
	rows    [][]string
	pairs   map[string]string
}

func (t *starTable) column(name string) int {
	for i, c := range t.columns {
		if c == name {
			return i
		}
	}
	return -1
}

// parseSTAR splits a STAR document into its data blocks.
func parseSTAR(r io.Reader) ([]*starTable, error) {
	var (
		tables []*starTable
		cur    *starTable
		inLoop bool
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		switch {
		case text == "" || strings.HasPrefix(text, "#"):
			continue
		case strings.HasPrefix(text, "data_"):
			cur = &starTable{name: strings.TrimPrefix(text, "data_"), pairs: map[string]string{}}
			tables = append(tables, cur)
			inLoop = false
		case cur == nil:
			return nil, fmt.Errorf("line %d: content before the first data_ block", line)
		case text == "loop_":
			inLoop = true
		case strings.HasPrefix(text, "_"):
			fields := strings.Fields(text)
			name := strings.TrimPrefix(fields[0], "_")
			if inLoop && len(cur.rows) == 0 {
				cur.columns = append(cur.columns, name)
				continue
			}
			if len(fields) < 2 {
				return nil, fmt.Errorf("line %d: %s has no value", line, name)
			}
			cur.pairs[name] = fields[1]
			inLoop = false
		case inLoop && len(cur.columns) > 0:
			fields := strings.Fields(text)
			if len(fields) != len(cur.columns) {
				return nil, fmt.Errorf("line %d: %d values for %d columns", line, len(fields), len(cur.columns))
			}
			cur.rows = append(cur.rows, fields)
		default:
			return nil, fmt.Errorf("line %d: unexpected %q", line, text)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("no data_ block")
	}
	return tables, nil
}

// STARReader reads RELION 3.0 and 3.1 particle STAR files. Files listing
// several micrographs or tomograms yield one record per volume.
type STARReader struct{}

func (STARReader) Format() string       { return FormatSTAR }
func (STARReader) Extensions() []string { return []string{".star"} }

func (r STARReader) Read(path string) ([]Record, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path)
	}
	defer f.Close()

	tables, err := parseSTAR(f)
	if err != nil {
		return nil, &errors.ParseError{Format: FormatSTAR, Path: path, Cause: err}
	}
	var particles, optics *starTable
	for _, t := range tables {
		switch {
		case t.name == "optics":
			optics = t
		case particles == nil && t.column(starX) >= 0:
			particles = t
		}
	}
	if particles == nil {
		return nil, &errors.ParseError{Format: FormatSTAR, Path: path, Cause: fmt.Errorf("no table with %s", starX)}
	}
	pixel, err := opticsPixelSizes(optics)
	if err != nil {
		return nil, &errors.ParseError{Format: FormatSTAR, Path: path, Cause: err}
	}
	return splitByVolume(particles, pixel, path)
}

// opticsPixelSizes maps optics group numbers to their image pixel size.
func opticsPixelSizes(t *starTable) (map[string]float64, error) {
	out := map[string]float64{}
	if t == nil {
		return out, nil
	}
	g, p := t.column(starOpticsGroup), t.column(starImagePixel)
	if g < 0 || p < 0 {
		return out, nil
	}
	for _, row := range t.rows {
		v, err := strconv.ParseFloat(row[p], 64)
		if err != nil {
			return nil, fmt.Errorf("optics group %s: %w", row[g], err)
		}
		out[row[g]] = v
	}
	return out, nil
}

// rowPixelSize resolves the pixel size of row i from the optics table or, for
// RELION 3.0 files, from per-row pixel size columns.
func rowPixelSize(t *starTable, row []string, optics map[string]float64) float64 {
	if g := t.column(starOpticsGroup); g >= 0 {
		if v, ok := optics[row[g]]; ok {
			return v
		}
	}
	if c := t.column(starPixel); c >= 0 {
		if v, err := strconv.ParseFloat(row[c], 64); err == nil {
			return v
		}
	}
	det, mag := t.column(starDetector), t.column(starMagnify)
	if det >= 0 && mag >= 0 {
		d, err1 := strconv.ParseFloat(row[det], 64)
		m, err2 := strconv.ParseFloat(row[mag], 64)
		if err1 == nil && err2 == nil && m != 0 {
			return d * 1e4 / m
		}
	}
	return 0
}

func splitByVolume(t *starTable, optics map[string]float64, path string) ([]Record, error) {
	vol := t.column(starMicrograph)
	if vol < 0 {
		vol = t.column(starTomo)
	}
	var (
		order  []string
		groups = map[string][][]string{}
	)
	for _, row := range t.rows {
		key := ""
		if vol >= 0 {
			key = row[vol]
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], row)
	}
	if len(order) == 0 {
		return nil, &errors.ParseError{Format: FormatSTAR, Path: path, Cause: fmt.Errorf("particle table is empty")}
	}

	records := make([]Record, 0, len(order))
	for _, key := range order {
		rows := groups[key]
		rec := Record{
			Format:  FormatSTAR,
			Columns: map[string][]float64{},
			Strings: map[string][]string{},
			Meta:    Meta{Source: path, Volume: key, PixelSize: rowPixelSize(t, rows[0], optics)},
		}
		for j, name := range t.columns {
			if j == vol {
				rec.Strings[name] = columnStrings(rows, j)
				continue
			}
			if nums, ok := columnFloats(rows, j); ok {
				rec.Columns[name] = nums
			} else {
				rec.Strings[name] = columnStrings(rows, j)
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func columnStrings(rows [][]string, j int) []string {
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = row[j]
	}
	return out
}

func columnFloats(rows [][]string, j int) ([]float64, bool) {
	out := make([]float64, len(rows))
	for i, row := range rows {
		v, err := strconv.ParseFloat(row[j], 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

// STARWriter writes particle sets as RELION 3.1 STAR files with a single
// optics group. Shifts are already folded into positions, so origins are
// written as zero.
type STARWriter struct{}

func (STARWriter) Format() string       { return FormatSTAR }
func (STARWriter) Extensions() []string { return []string{".star"} }

func (w STARWriter) Write(b block.Block, path string) error {
	p, err := particlesOf(b)
	if err != nil {
		return err
	}
	volume, err := requireVolume(b, FormatSTAR)
	if err != nil {
		return err
	}
	if err := errors.ValidatePath(path); err != nil {
		return err
	}
	pixel, ok := p.Identity().Spatial().IsotropicPixelSize()
	if !ok {
		return errors.New(errors.ErrCodeMissingMetadata, "star files need an isotropic pixel size, got %v", p.Identity().Spatial().PixelSize())
	}
	euler, err := p.Orientations().Euler(block.ConventionRELION)
	if err != nil {
		return err
	}
	props := p.Properties()
	extra := make([]string, 0, len(props.Names()))
	for _, name := range props.Names() {
		if !reservedSTAR[name] {
			extra = append(extra, name)
		}
	}
	for _, name := range extra {
		if name == "" || strings.ContainsAny(name, " \t\n") {
			return errors.New(errors.ErrCodeInvalidInput, "property name %q cannot be a star column label", name)
		}
		if kind, _ := props.ColumnKind(name); kind == block.ColumnString {
			vals, _ := props.Strings(name)
			for _, v := range vals {
				if v == "" || strings.ContainsAny(v, " \t\n") {
					return errors.New(errors.ErrCodeInvalidInput, "property %s value %q cannot be stored in a star file", name, v)
				}
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", path)
	}
	defer f.Close()
	bw := bufio.NewWriter(f)

	fmt.Fprint(bw, "\n# version 30001\n\ndata_optics\n\nloop_\n")
	fmt.Fprintf(bw, "_%s #1\n_%s #2\n", starOpticsGroup, starImagePixel)
	fmt.Fprintf(bw, "1 %s\n\n\n# version 30001\n\ndata_particles\n\nloop_\n", formatFloat(pixel))

	header := []string{starX, starY, starZ, starRot, starTilt, starPsi, starOriginXAngst, starOriginYAngst, starOriginZAngst, starMicrograph, starOpticsGroup}
	header = append(header, extra...)
	for i, name := range header {
		fmt.Fprintf(bw, "_%s #%d\n", name, i+1)
	}
	xyz := p.Positions().Spatial()
	for i := range xyz {
		fields := []string{
			formatFloat(xyz[i][0]), formatFloat(xyz[i][1]), formatFloat(xyz[i][2]),
			formatFloat(euler[i][0]), formatFloat(euler[i][1]), formatFloat(euler[i][2]),
			"0", "0", "0", volume, "1",
		}
		row := props.Row(i)
		for _, name := range extra {
			fields = append(fields, formatValue(row[name]))
		}
		fmt.Fprintln(bw, strings.Join(fields, " "))
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	return nil
}

// reservedSTAR lists the columns the writer produces itself.
var reservedSTAR = map[string]bool{
	starX: true, starY: true, starZ: true,
	starRot: true, starTilt: true, starPsi: true,
	starOriginX: true, starOriginY: true, starOriginZ: true,
	starOriginXAngst: true, starOriginYAngst: true, starOriginZAngst: true,
	starMicrograph: true, starTomo: true, starOpticsGroup: true,
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func formatValue(v any) string {
	switch x := v.(type) {
	case float64:
		return formatFloat(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case string:
		return x
	}
	return fmt.Sprint(v)
}

// particlesOf returns b as a particle set. Oriented points are promoted.
func particlesOf(b block.Block) (*block.ParticleBlock, error) {
	switch v := b.(type) {
	case *block.ParticleBlock:
		return v, nil
	case *block.OrientedPointBlock:
		return v.Particles()
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "cannot write %s blocks as particles", b.Kind())
}

// requireVolume returns the volume tag of b or a MISSING_METADATA error.
func requireVolume(b block.Block, format string) (string, error) {
	v := b.Identity().Volume()
	if v == "" || v == block.OmniVolume {
		return "", errors.New(errors.ErrCodeMissingMetadata, "%s block %q has no volume; %s files need one to identify particles", b.Kind(), b.Identity().Name(), format)
	}
	if strings.ContainsAny(v, " \t\n") {
		return "", errors.New(errors.ErrCodeInvalidInput, "volume %q contains whitespace", v)
	}
	return v, nil
}
