package block

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/matzehuels/blik/pkg/errors"
)

// ColumnKind is the scalar type of a property column.
type ColumnKind int

const (
	ColumnFloat ColumnKind = iota
	ColumnInt
	ColumnString
)

func (k ColumnKind) String() string {
	switch k {
	case ColumnFloat:
		return "float"
	case ColumnInt:
		return "int"
	case ColumnString:
		return "string"
	}
	return "unknown"
}

type column struct {
	kind ColumnKind
	f    []float64
	i    []int64
	s    []string
}

func (c *column) take(idx []int) *column {
	out := &column{kind: c.kind}
	switch c.kind {
	case ColumnFloat:
		out.f = make([]float64, len(idx))
		for k, i := range idx {
			out.f[k] = c.f[i]
		}
	case ColumnInt:
		out.i = make([]int64, len(idx))
		for k, i := range idx {
			out.i[k] = c.i[i]
		}
	case ColumnString:
		out.s = make([]string, len(idx))
		for k, i := range idx {
			out.s[k] = c.s[i]
		}
	}
	return out
}

func (c *column) clone() *column {
	return &column{
		kind: c.kind,
		f:    append([]float64(nil), c.f...),
		i:    append([]int64(nil), c.i...),
		s:    append([]string(nil), c.s...),
	}
}

func (c *column) value(i int) any {
	switch c.kind {
	case ColumnInt:
		return c.i[i]
	case ColumnString:
		return c.s[i]
	}
	return c.f[i]
}

// PropertyBlock is a table of n rows and named scalar columns. Rows align
// index-wise with the points or orientations of the owning composite; column
// order is insignificant and iteration is sorted by name.
type PropertyBlock struct {
	base
	cols map[string]*column
	n    int

	// constraint is installed by a composite whose field the table is; every
	// replacement of the columns must satisfy it.
	constraint func(*PropertyBlock) error
}

// admit checks a candidate set of columns against the owning composite.
func (p *PropertyBlock) admit(cols map[string]*column, n int) error {
	if p.constraint == nil {
		return nil
	}
	return p.constraint(&PropertyBlock{cols: cols, n: n})
}

// NewPropertyBlock builds a table from named columns. Accepted column types
// are []float64, []float32, []int, []int32, []int64 and []string. All columns
// must have the same length.
func NewPropertyBlock(data map[string]any, opts ...Option) (*PropertyBlock, error) {
	cols, n, err := coerceColumns(data)
	if err != nil {
		return nil, err
	}
	id, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return &PropertyBlock{base: base{id: id}, cols: cols, n: n}, nil
}

// NewEmptyProperties returns a table of n rows and no columns.
func NewEmptyProperties(n int, opts ...Option) (*PropertyBlock, error) {
	if n < 0 {
		return nil, errors.Validation(string(KindProperty), errors.KindShape, "negative row count %d", n)
	}
	id, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return &PropertyBlock{base: base{id: id}, cols: map[string]*column{}, n: n}, nil
}

func coerceColumns(data map[string]any) (map[string]*column, int, error) {
	cols := make(map[string]*column, len(data))
	n := -1
	for _, name := range sortedKeys(data) {
		c, err := coerceColumn(name, data[name])
		if err != nil {
			return nil, 0, err
		}
		l := c.len()
		if n >= 0 && l != n {
			return nil, 0, errors.Validation(string(KindProperty), errors.KindShape, "column %q has length %d, expected %d", name, l, n)
		}
		n = l
		cols[name] = c
	}
	return cols, max(n, 0), nil
}

func coerceColumn(name string, v any) (*column, error) {
	if err := errors.ValidateName(name); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, errors.Validation(string(KindProperty), errors.KindShape, "column name cannot be empty")
	}
	switch x := v.(type) {
	case []float64:
		return &column{kind: ColumnFloat, f: append([]float64(nil), x...)}, nil
	case []float32:
		f := make([]float64, len(x))
		for i, e := range x {
			f[i] = float64(e)
		}
		return &column{kind: ColumnFloat, f: f}, nil
	case []int:
		out := make([]int64, len(x))
		for i, e := range x {
			out[i] = int64(e)
		}
		return &column{kind: ColumnInt, i: out}, nil
	case []int32:
		out := make([]int64, len(x))
		for i, e := range x {
			out[i] = int64(e)
		}
		return &column{kind: ColumnInt, i: out}, nil
	case []int64:
		return &column{kind: ColumnInt, i: append([]int64(nil), x...)}, nil
	case []string:
		return &column{kind: ColumnString, s: append([]string(nil), x...)}, nil
	}
	return nil, errors.Validation(string(KindProperty), errors.KindDType, "column %q has unsupported type %T", name, v)
}

func (c *column) len() int {
	switch c.kind {
	case ColumnInt:
		return len(c.i)
	case ColumnString:
		return len(c.s)
	}
	return len(c.f)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Kind returns KindProperty.
func (p *PropertyBlock) Kind() Kind { return KindProperty }

// Len returns the number of rows.
func (p *PropertyBlock) Len() int { return p.n }

// Names returns the column names, sorted.
func (p *PropertyBlock) Names() []string { return sortedKeys(p.cols) }

// Has reports whether the named column exists.
func (p *PropertyBlock) Has(name string) bool {
	_, ok := p.cols[name]
	return ok
}

// ColumnKind returns the type of the named column.
func (p *PropertyBlock) ColumnKind(name string) (ColumnKind, error) {
	c, err := p.col(name)
	if err != nil {
		return 0, err
	}
	return c.kind, nil
}

func (p *PropertyBlock) col(name string) (*column, error) {
	c, ok := p.cols[name]
	if !ok {
		return nil, errors.NotFound("column " + name)
	}
	return c, nil
}

// Float returns a copy of a numeric column as float64.
func (p *PropertyBlock) Float(name string) ([]float64, error) {
	c, err := p.col(name)
	if err != nil {
		return nil, err
	}
	switch c.kind {
	case ColumnFloat:
		return append([]float64(nil), c.f...), nil
	case ColumnInt:
		out := make([]float64, len(c.i))
		for i, v := range c.i {
			out[i] = float64(v)
		}
		return out, nil
	}
	return nil, errors.Validation(string(KindProperty), errors.KindDType, "column %q is not numeric", name)
}

// Int returns a copy of an integer column.
func (p *PropertyBlock) Int(name string) ([]int64, error) {
	c, err := p.col(name)
	if err != nil {
		return nil, err
	}
	if c.kind != ColumnInt {
		return nil, errors.Validation(string(KindProperty), errors.KindDType, "column %q is %s, not int", name, c.kind)
	}
	return append([]int64(nil), c.i...), nil
}

// Strings returns a copy of a string column.
func (p *PropertyBlock) Strings(name string) ([]string, error) {
	c, err := p.col(name)
	if err != nil {
		return nil, err
	}
	if c.kind != ColumnString {
		return nil, errors.Validation(string(KindProperty), errors.KindDType, "column %q is %s, not string", name, c.kind)
	}
	return append([]string(nil), c.s...), nil
}

// Column returns a copy of the named column as []float64, []int64 or []string.
func (p *PropertyBlock) Column(name string) (any, error) {
	c, err := p.col(name)
	if err != nil {
		return nil, err
	}
	switch c.kind {
	case ColumnInt:
		return append([]int64(nil), c.i...), nil
	case ColumnString:
		return append([]string(nil), c.s...), nil
	}
	return append([]float64(nil), c.f...), nil
}

// Row returns the values of row i keyed by column name.
func (p *PropertyBlock) Row(i int) map[string]any {
	out := make(map[string]any, len(p.cols))
	for name, c := range p.cols {
		out[name] = c.value(i)
	}
	return out
}

// SetColumn adds or replaces a column of the table's length.
func (p *PropertyBlock) SetColumn(name string, values any) error {
	c, err := coerceColumn(name, values)
	if err != nil {
		return err
	}
	if c.len() != p.n {
		return errors.Validation(string(KindProperty), errors.KindShape, "column %q has length %d, expected %d", name, c.len(), p.n)
	}
	if p.view {
		return &errors.ImmutableViewError{Op: "set column on property view"}
	}
	cols := make(map[string]*column, len(p.cols)+1)
	for k, v := range p.cols {
		cols[k] = v
	}
	cols[name] = c
	if err := p.admit(cols, p.n); err != nil {
		return err
	}
	p.cols[name] = c
	p.Update()
	return nil
}

// Drop removes a column.
func (p *PropertyBlock) Drop(name string) error {
	if p.view {
		return &errors.ImmutableViewError{Op: "drop column on property view"}
	}
	if _, err := p.col(name); err != nil {
		return err
	}
	cols := make(map[string]*column, len(p.cols))
	for k, v := range p.cols {
		if k != name {
			cols[k] = v
		}
	}
	if err := p.admit(cols, p.n); err != nil {
		return err
	}
	delete(p.cols, name)
	p.Update()
	return nil
}

// SetData replaces every column after re-validating and notifies observers.
func (p *PropertyBlock) SetData(data map[string]any) error {
	cols, n, err := coerceColumns(data)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		n = p.n
	}
	if err := p.guardResize("resize property data", p.n, n); err != nil {
		return err
	}
	if err := p.admit(cols, n); err != nil {
		return err
	}
	p.cols, p.n = cols, n
	p.Update()
	return nil
}

// Slice returns a view holding a copy of the selected rows.
func (p *PropertyBlock) Slice(sel Selector) (*PropertyBlock, error) {
	idx, err := sel.indices(p.n)
	if err != nil {
		return nil, err
	}
	return p.take(idx), nil
}

func (p *PropertyBlock) take(idx []int) *PropertyBlock {
	cols := make(map[string]*column, len(p.cols))
	for name, c := range p.cols {
		cols[name] = c.take(idx)
	}
	return &PropertyBlock{base: base{id: p.id, view: true}, cols: cols, n: len(idx)}
}

// View returns a view sharing the owner's columns.
func (p *PropertyBlock) View() *PropertyBlock {
	return &PropertyBlock{base: base{id: p.id, view: true}, cols: p.cols, n: p.n}
}

// Copy returns an independent owner with a cloned identity and data.
func (p *PropertyBlock) Copy() *PropertyBlock {
	return &PropertyBlock{base: base{id: p.id.Clone()}, cols: p.cloneCols(), n: p.n}
}

func (p *PropertyBlock) cloneCols() map[string]*column {
	cols := make(map[string]*column, len(p.cols))
	for name, c := range p.cols {
		cols[name] = c.clone()
	}
	return cols
}

// Append adds the rows of other. Both tables must have the same columns with
// the same kinds.
func (p *PropertyBlock) Append(other *PropertyBlock) error {
	if p.view {
		return &errors.ImmutableViewError{Op: "append to property view"}
	}
	if err := p.compatible(other); err != nil {
		return err
	}
	if err := p.guardResize("append properties", p.n, p.n+other.n); err != nil {
		return err
	}
	p.appendRows(other)
	p.Update()
	return nil
}

func (p *PropertyBlock) compatible(other *PropertyBlock) error {
	if len(p.cols) != len(other.cols) {
		return errors.Validation(string(KindProperty), errors.KindShape, "cannot append table with columns %v to %v", other.Names(), p.Names())
	}
	for name, c := range p.cols {
		o, ok := other.cols[name]
		if !ok || o.kind != c.kind {
			return errors.Validation(string(KindProperty), errors.KindShape, "cannot append table with columns %v to %v", other.Names(), p.Names())
		}
	}
	return nil
}

func (p *PropertyBlock) appendRows(other *PropertyBlock) {
	cols := p.cloneCols()
	for name, c := range cols {
		o := other.cols[name]
		c.f = append(c.f, o.f...)
		c.i = append(c.i, o.i...)
		c.s = append(c.s, o.s...)
	}
	p.cols = cols
	p.n += other.n
}

// ColumnSummary describes one numeric column.
type ColumnSummary struct {
	Name      string
	Mean, Std float64
	Min, Max  float64
}

// Summary returns statistics of every numeric column, sorted by name.
// Statistics of an empty table are NaN.
func (p *PropertyBlock) Summary() []ColumnSummary {
	var out []ColumnSummary
	for _, name := range p.Names() {
		if p.cols[name].kind == ColumnString {
			continue
		}
		v, _ := p.Float(name)
		s := ColumnSummary{Name: name, Mean: math.NaN(), Std: math.NaN(), Min: math.NaN(), Max: math.NaN()}
		if len(v) > 0 {
			s.Mean, s.Std = stat.MeanStdDev(v, nil)
			s.Min, s.Max = floats.Min(v), floats.Max(v)
		}
		out = append(out, s)
	}
	return out
}
