package block

import (
	"github.com/matzehuels/blik/pkg/errors"
)

// OrientationBlock holds n 3×3 rotation matrices in the canonical convention
// (see [Convention]). Orthonormality is not checked.
type OrientationBlock struct {
	base
	m []float64 // n*9, row-major per matrix
	n int
}

// NewOrientationBlock validates data and returns an owner block.
//
// Accepted inputs are nil, [][3][3]float64, [][2][2]float64 and nested
// [][][]float64 whose matrices are all 2×2 or all 3×3. A 2×2 matrix is
// embedded top-left of the 3×3 identity.
func NewOrientationBlock(data any, opts ...Option) (*OrientationBlock, error) {
	m, n, err := coerceOrientations(data)
	if err != nil {
		return nil, err
	}
	id, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return &OrientationBlock{base: base{id: id}, m: m, n: n}, nil
}

// IdentityOrientations returns n identity matrices.
func IdentityOrientations(n int, opts ...Option) (*OrientationBlock, error) {
	ms := make([][3][3]float64, n)
	for i := range ms {
		ms[i] = Identity3
	}
	return NewOrientationBlock(ms, opts...)
}

// NewOrientationBlockFromEuler converts angle triplets in degrees.
func NewOrientationBlockFromEuler(conv Convention, angles [][3]float64, opts ...Option) (*OrientationBlock, error) {
	ms := make([][3][3]float64, len(angles))
	for i, a := range angles {
		m, err := FromEuler(conv, a)
		if err != nil {
			return nil, err
		}
		ms[i] = m
	}
	return NewOrientationBlock(ms, opts...)
}

func coerceOrientations(data any) ([]float64, int, error) {
	var ms [][3][3]float64
	switch v := data.(type) {
	case nil:
	case [][3][3]float64:
		ms = v
	case [][2][2]float64:
		ms = make([][3][3]float64, len(v))
		for i, s := range v {
			ms[i] = embed2(s[0][0], s[0][1], s[1][0], s[1][1])
		}
	case [][][]float64:
		var err error
		if ms, err = coerceNested(v); err != nil {
			return nil, 0, err
		}
	default:
		return nil, 0, errors.Validation(string(KindOrientation), errors.KindDType, "unsupported orientation data type %T", data)
	}
	out := make([]float64, 0, len(ms)*9)
	for _, m := range ms {
		for _, r := range m {
			out = append(out, r[:]...)
		}
	}
	return out, len(ms), nil
}

func coerceNested(v [][][]float64) ([][3][3]float64, error) {
	ms := make([][3][3]float64, len(v))
	size := -1
	for i, m := range v {
		if size < 0 {
			size = len(m)
		}
		if len(m) != size || (size != 2 && size != 3) {
			return nil, errors.Validation(string(KindOrientation), errors.KindShape, "matrix %d has %d rows, expected 2 or 3 consistently", i, len(m))
		}
		for r, row := range m {
			if len(row) != size {
				return nil, errors.Validation(string(KindOrientation), errors.KindShape, "matrix %d row %d has %d columns, expected %d", i, r, len(row), size)
			}
		}
		if size == 2 {
			ms[i] = embed2(m[0][0], m[0][1], m[1][0], m[1][1])
			continue
		}
		for r := 0; r < 3; r++ {
			copy(ms[i][r][:], m[r])
		}
	}
	return ms, nil
}

func embed2(a, b, c, d float64) [3][3]float64 {
	return [3][3]float64{{a, b, 0}, {c, d, 0}, {0, 0, 1}}
}

// Kind returns KindOrientation.
func (o *OrientationBlock) Kind() Kind { return KindOrientation }

// Len returns the number of matrices.
func (o *OrientationBlock) Len() int { return o.n }

// Matrix returns a copy of matrix i.
func (o *OrientationBlock) Matrix(i int) [3][3]float64 {
	var m [3][3]float64
	s := o.m[i*9 : (i+1)*9]
	for r := 0; r < 3; r++ {
		copy(m[r][:], s[r*3:(r+1)*3])
	}
	return m
}

// Matrices returns a copy of every matrix.
func (o *OrientationBlock) Matrices() [][3][3]float64 {
	out := make([][3][3]float64, o.n)
	for i := range out {
		out[i] = o.Matrix(i)
	}
	return out
}

// Vectors returns, for each matrix, the image of the particle's unit axis
// ('x', 'y' or 'z') in the tomogram frame.
func (o *OrientationBlock) Vectors(axis byte) ([][3]float64, error) {
	col := int(axis - 'x')
	if col < 0 || col > 2 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "axis must be x, y or z, got %q", axis)
	}
	out := make([][3]float64, o.n)
	for i := range out {
		s := o.m[i*9:]
		out[i] = [3]float64{s[col], s[3+col], s[6+col]}
	}
	return out, nil
}

// Euler returns the angles in degrees of every matrix under conv.
func (o *OrientationBlock) Euler(conv Convention) ([][3]float64, error) {
	out := make([][3]float64, o.n)
	for i := range out {
		a, err := ToEuler(conv, o.Matrix(i))
		if err != nil {
			return nil, err
		}
		out[i] = a
	}
	return out, nil
}

// Set overwrites matrix i in place and notifies observers.
func (o *OrientationBlock) Set(i int, m [3][3]float64) error {
	if i < 0 || i >= o.n {
		return errors.New(errors.ErrCodeInvalidInput, "index %d out of range for length %d", i, o.n)
	}
	for r := 0; r < 3; r++ {
		copy(o.m[i*9+r*3:], m[r][:])
	}
	o.Update()
	return nil
}

// SetData replaces every matrix after re-validating and notifies observers.
func (o *OrientationBlock) SetData(data any) error {
	m, n, err := coerceOrientations(data)
	if err != nil {
		return err
	}
	if err := o.guardResize("resize orientation data", o.n, n); err != nil {
		return err
	}
	o.m, o.n = m, n
	o.Update()
	return nil
}

// Slice returns a view holding a copy of the selected matrices.
func (o *OrientationBlock) Slice(sel Selector) (*OrientationBlock, error) {
	idx, err := sel.indices(o.n)
	if err != nil {
		return nil, err
	}
	return o.take(idx), nil
}

func (o *OrientationBlock) take(idx []int) *OrientationBlock {
	out := make([]float64, 0, len(idx)*9)
	for _, i := range idx {
		out = append(out, o.m[i*9:(i+1)*9]...)
	}
	return &OrientationBlock{base: base{id: o.id, view: true}, m: out, n: len(idx)}
}

// View returns a view aliasing the owner's array.
func (o *OrientationBlock) View() *OrientationBlock {
	return &OrientationBlock{base: base{id: o.id, view: true}, m: o.m, n: o.n}
}

// Copy returns an independent owner with a cloned identity and data.
func (o *OrientationBlock) Copy() *OrientationBlock {
	return &OrientationBlock{base: base{id: o.id.Clone()}, m: append([]float64(nil), o.m...), n: o.n}
}

// Append adds the matrices of other to the end of o.
func (o *OrientationBlock) Append(other *OrientationBlock) error {
	if o.view {
		return &errors.ImmutableViewError{Op: "append to orientation view"}
	}
	if err := o.guardResize("append orientations", o.n, o.n+other.n); err != nil {
		return err
	}
	o.appendRows(other)
	o.Update()
	return nil
}

func (o *OrientationBlock) appendRows(other *OrientationBlock) {
	o.m = append(append([]float64(nil), o.m...), other.m...)
	o.n += other.n
}
