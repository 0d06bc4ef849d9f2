package block

import (
	"github.com/matzehuels/blik/pkg/errors"
)

// PointBlock holds n points in d ≥ 3 dimensions. The last three columns are
// spatial and stored in the identity's dims order; any leading columns are
// non-spatial indices (e.g. time or class) and are preserved untouched.
type PointBlock struct {
	base
	m matrix
}

// NewPointBlock validates data and returns an owner block.
//
// Empty input yields shape (0, 3), a 1-D []float64 yields a single row, and
// rows with fewer than three columns are zero-padded on the trailing axis.
func NewPointBlock(data any, opts ...Option) (*PointBlock, error) {
	m, err := coercePoints(KindPoint, data)
	if err != nil {
		return nil, err
	}
	id, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return &PointBlock{base: base{id: id}, m: m}, nil
}

// Kind returns KindPoint.
func (p *PointBlock) Kind() Kind { return KindPoint }

// Len returns the number of points.
func (p *PointBlock) Len() int { return p.m.n }

// Dims returns the number of columns (≥ 3).
func (p *PointBlock) Dims() int { return p.m.d }

// Shape returns (n, d).
func (p *PointBlock) Shape() (int, int) { return p.m.n, p.m.d }

// Data returns a copy of the points as rows.
func (p *PointBlock) Data() [][]float64 { return p.m.rows() }

// Row returns a copy of row i.
func (p *PointBlock) Row(i int) []float64 { return append([]float64(nil), p.m.row(i)...) }

// At returns the value at row i, column j.
func (p *PointBlock) At(i, j int) float64 { return p.m.data[i*p.m.d+j] }

// SetData replaces the points after re-validating them and notifies observers.
// Views and composite members reject replacements that change the row count.
func (p *PointBlock) SetData(data any) error {
	m, err := coercePoints(KindPoint, data)
	if err != nil {
		return err
	}
	if err := p.guardResize("resize point data", p.m.n, m.n); err != nil {
		return err
	}
	if p.view && m.d != p.m.d {
		return &errors.ImmutableViewError{Op: "change point dimensionality"}
	}
	p.m = m
	p.Update()
	return nil
}

// Set overwrites row i in place and notifies observers.
func (p *PointBlock) Set(i int, row []float64) error {
	if i < 0 || i >= p.m.n {
		return errors.New(errors.ErrCodeInvalidInput, "index %d out of range for length %d", i, p.m.n)
	}
	if len(row) != p.m.d {
		return errors.Validation(string(KindPoint), errors.KindShape, "row has %d columns, expected %d", len(row), p.m.d)
	}
	copy(p.m.row(i), row)
	p.Update()
	return nil
}

// SetSpatial replaces the x, y, z coordinates of every point and notifies
// observers. Leading non-spatial columns are kept for existing rows and zero
// for new ones.
func (p *PointBlock) SetSpatial(xyz [][3]float64) error {
	m := matrix{data: make([]float64, len(xyz)*p.m.d), n: len(xyz), d: p.m.d}
	cx, cy, cz := p.spatialColumn('x'), p.spatialColumn('y'), p.spatialColumn('z')
	for i, v := range xyz {
		row := m.row(i)
		if i < p.m.n {
			copy(row, p.m.row(i))
		}
		row[cx], row[cy], row[cz] = v[0], v[1], v[2]
	}
	return p.SetData(m)
}

// spatialColumn returns the storage column of axis 'x', 'y' or 'z'.
func (p *PointBlock) spatialColumn(axis byte) int {
	return p.m.d - 3 + p.id.spatial.axisColumn(axis)
}

// X returns the x coordinate of every point.
func (p *PointBlock) X() []float64 { return p.m.column(p.spatialColumn('x')) }

// Y returns the y coordinate of every point.
func (p *PointBlock) Y() []float64 { return p.m.column(p.spatialColumn('y')) }

// Z returns the z coordinate of every point.
func (p *PointBlock) Z() []float64 { return p.m.column(p.spatialColumn('z')) }

// Spatial returns the x, y, z coordinates of every point regardless of storage
// order or leading non-spatial columns.
func (p *PointBlock) Spatial() [][3]float64 {
	cx, cy, cz := p.spatialColumn('x'), p.spatialColumn('y'), p.spatialColumn('z')
	out := make([][3]float64, p.m.n)
	for i := range out {
		r := p.m.row(i)
		out[i] = [3]float64{r[cx], r[cy], r[cz]}
	}
	return out
}

// Center returns the mean x, y, z of the points, or the origin when empty.
func (p *PointBlock) Center() [3]float64 {
	var c [3]float64
	if p.m.n == 0 {
		return c
	}
	for _, xyz := range p.Spatial() {
		for k := range c {
			c[k] += xyz[k]
		}
	}
	for k := range c {
		c[k] /= float64(p.m.n)
	}
	return c
}

// Slice returns a view holding a copy of the selected rows.
func (p *PointBlock) Slice(sel Selector) (*PointBlock, error) {
	idx, err := sel.indices(p.m.n)
	if err != nil {
		return nil, err
	}
	return p.take(idx), nil
}

func (p *PointBlock) take(idx []int) *PointBlock {
	return &PointBlock{base: base{id: p.id, view: true}, m: p.m.take(idx)}
}

// View returns a view aliasing the owner's array: in-place edits through
// either are visible in both.
func (p *PointBlock) View() *PointBlock {
	return &PointBlock{base: base{id: p.id, view: true}, m: p.m}
}

// Copy returns an independent owner with a cloned identity and data.
func (p *PointBlock) Copy() *PointBlock {
	return &PointBlock{base: base{id: p.id.Clone()}, m: p.m.clone()}
}

// Append adds the rows of other to the end of p.
func (p *PointBlock) Append(other *PointBlock) error {
	if p.view {
		return &errors.ImmutableViewError{Op: "append to point view"}
	}
	if other.m.d != p.m.d {
		return errors.Validation(string(KindPoint), errors.KindShape, "cannot append %d-d points to %d-d points", other.m.d, p.m.d)
	}
	if err := p.guardResize("append points", p.m.n, p.m.n+other.m.n); err != nil {
		return err
	}
	p.appendRows(other.m)
	p.Update()
	return nil
}

func (p *PointBlock) appendRows(m matrix) {
	p.m = matrix{data: append(p.m.clone().data, m.data...), n: p.m.n + m.n, d: p.m.d}
}
