package block

import (
	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/blik/pkg/errors"
)

// TransformOptions declares the fields of a TransformBlock.
type TransformOptions struct {
	Shifts    *PointBlock
	Rotations *OrientationBlock

	ShiftsData    any
	RotationsData any
}

// TransformBlock holds rigid transforms x' = R·x + s, one per row. A
// single-row transform applies to every particle.
type TransformBlock struct {
	composite
	shifts    *PointBlock
	rotations *OrientationBlock
}

// NewTransformBlock builds a transform set. Missing rotations default to the
// identity.
func NewTransformBlock(o TransformOptions, opts ...Option) (*TransformBlock, error) {
	shifts, err := ownPoints(o.Shifts, o.ShiftsData)
	if err != nil {
		return nil, err
	}
	rots, err := ownOrientations(o.Rotations, o.RotationsData, shifts.Len())
	if err != nil {
		return nil, err
	}
	if err := checkLengths(KindTransform,
		namedLen{"shifts", shifts.Len()},
		namedLen{"rotations", rots.Len()},
	); err != nil {
		return nil, err
	}
	if err := checkFree(&shifts.base, &rots.base); err != nil {
		return nil, err
	}
	id, err := newCompositeIdentity(identityOf(o.Shifts), opts)
	if err != nil {
		return nil, err
	}
	t := &TransformBlock{composite: composite{id: id, kind: KindTransform}}
	t.assemble(shifts, rots)
	return t, nil
}

func (t *TransformBlock) assemble(shifts *PointBlock, rots *OrientationBlock) {
	t.shifts, t.rotations = shifts, rots
	t.adopt("shifts", &shifts.base)
	t.adopt("rotations", &rots.base)
}

func (t *TransformBlock) Kind() Kind                   { return KindTransform }
func (t *TransformBlock) Len() int                     { return t.shifts.Len() }
func (t *TransformBlock) Shifts() *PointBlock          { return t.shifts }
func (t *TransformBlock) Rotations() *OrientationBlock { return t.rotations }

// Check verifies that both fields have the same length.
func (t *TransformBlock) Check() error {
	return checkLengths(KindTransform,
		namedLen{"shifts", t.shifts.Len()},
		namedLen{"rotations", t.rotations.Len()},
	)
}

// Inverse returns the transforms x = Rᵀ·x' - Rᵀ·s as a new owner.
func (t *TransformBlock) Inverse() (*TransformBlock, error) {
	n := t.Len()
	shifts := make([][3]float64, n)
	rots := make([][3][3]float64, n)
	s := t.shifts.Spatial()
	for i := 0; i < n; i++ {
		rt := Transpose(t.rotations.Matrix(i))
		v := apply(rt, s[i])
		shifts[i] = [3]float64{-v[0], -v[1], -v[2]}
		rots[i] = rt
	}
	return NewTransformBlock(TransformOptions{ShiftsData: reorder(shifts, t.id.spatial), RotationsData: rots}, WithIdentity(t.id.Clone()))
}

// Apply returns a new particle set with every position mapped through the
// transform and every orientation pre-multiplied by its rotation. The
// transform must have one row or as many rows as p.
func (t *TransformBlock) Apply(p *ParticleBlock) (*ParticleBlock, error) {
	n := p.Len()
	if t.Len() != 1 && t.Len() != n {
		return nil, &errors.ShapeMismatchError{Block: string(KindTransform), Field: "shifts", Len: t.Len(), Want: n}
	}
	out := p.Copy()
	pos := out.positions
	shifts := t.shifts.Spatial()
	xyz := pos.Spatial()
	cx, cy, cz := pos.spatialColumn('x'), pos.spatialColumn('y'), pos.spatialColumn('z')
	for i := 0; i < n; i++ {
		k := i
		if t.Len() == 1 {
			k = 0
		}
		r := t.rotations.Matrix(k)
		v := apply(r, xyz[i])
		row := pos.m.row(i)
		row[cx], row[cy], row[cz] = v[0]+shifts[k][0], v[1]+shifts[k][1], v[2]+shifts[k][2]
		m := Compose(r, out.orientations.Matrix(i))
		for a := 0; a < 3; a++ {
			copy(out.orientations.m[i*9+a*3:], m[a][:])
		}
	}
	return out, nil
}

// apply returns m·v.
func apply(m [3][3]float64, v [3]float64) [3]float64 {
	var out mat.VecDense
	out.MulVec(denseOf(m), mat.NewVecDense(3, []float64{v[0], v[1], v[2]}))
	return [3]float64{out.AtVec(0), out.AtVec(1), out.AtVec(2)}
}
