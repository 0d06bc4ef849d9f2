package block

import (
	"math"

	"github.com/matzehuels/blik/pkg/errors"
)

// DipoleOptions declares the fields of a DipoleBlock.
type DipoleOptions struct {
	Startpoints *PointBlock
	Endpoints   *PointBlock

	StartpointsData any
	EndpointsData   any
}

// DipoleBlock pairs start and end points of identical shape.
type DipoleBlock struct {
	composite
	start *PointBlock
	end   *PointBlock
}

// NewDipoleBlock builds a dipole set.
func NewDipoleBlock(o DipoleOptions, opts ...Option) (*DipoleBlock, error) {
	start, err := ownPoints(o.Startpoints, o.StartpointsData)
	if err != nil {
		return nil, err
	}
	end, err := ownPoints(o.Endpoints, o.EndpointsData)
	if err != nil {
		return nil, err
	}
	if err := checkLengths(KindDipole,
		namedLen{"startpoints", start.Len()},
		namedLen{"endpoints", end.Len()},
	); err != nil {
		return nil, err
	}
	if start.Dims() != end.Dims() {
		return nil, &errors.ShapeMismatchError{Block: string(KindDipole), Field: "endpoints", Len: end.Dims(), Want: start.Dims()}
	}
	if err := checkFree(&start.base, &end.base); err != nil {
		return nil, err
	}
	id, err := newCompositeIdentity(identityOf(o.Startpoints), opts)
	if err != nil {
		return nil, err
	}
	d := &DipoleBlock{composite: composite{id: id, kind: KindDipole}}
	d.assemble(start, end)
	return d, nil
}

func (d *DipoleBlock) assemble(start, end *PointBlock) {
	d.start, d.end = start, end
	d.adopt("startpoints", &start.base)
	d.adopt("endpoints", &end.base)
}

func (d *DipoleBlock) Kind() Kind { return KindDipole }
func (d *DipoleBlock) Len() int   { return d.start.Len() }

// Check verifies that both fields have the same length.
func (d *DipoleBlock) Check() error {
	return checkLengths(KindDipole,
		namedLen{"startpoints", d.start.Len()},
		namedLen{"endpoints", d.end.Len()},
	)
}

func (d *DipoleBlock) Startpoints() *PointBlock { return d.start }
func (d *DipoleBlock) Endpoints() *PointBlock   { return d.end }

// Vectors returns end minus start in x, y, z for every dipole.
func (d *DipoleBlock) Vectors() [][3]float64 {
	s, e := d.start.Spatial(), d.end.Spatial()
	out := make([][3]float64, len(s))
	for i := range out {
		out[i] = [3]float64{e[i][0] - s[i][0], e[i][1] - s[i][1], e[i][2] - s[i][2]}
	}
	return out
}

// Lengths returns the length of every dipole in pixels.
func (d *DipoleBlock) Lengths() []float64 {
	vs := d.Vectors()
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	}
	return out
}

// Slice applies sel to both fields and returns a view.
func (d *DipoleBlock) Slice(sel Selector) (*DipoleBlock, error) {
	idx, err := sel.indices(d.Len())
	if err != nil {
		return nil, err
	}
	v := &DipoleBlock{composite: composite{id: d.id, kind: KindDipole, view: true}}
	v.assemble(d.start.take(idx), d.end.take(idx))
	return v, nil
}

// View returns a view aliasing both fields.
func (d *DipoleBlock) View() *DipoleBlock {
	v := &DipoleBlock{composite: composite{id: d.id, kind: KindDipole, view: true}}
	v.assemble(d.start.View(), d.end.View())
	return v
}

// Append adds the dipoles of other to both fields at once.
func (d *DipoleBlock) Append(other *DipoleBlock) error {
	if err := checkAppend(d.start, other.start); err != nil {
		return err
	}
	return d.coordinate("append to dipole view", func() error {
		if err := d.start.Append(other.start); err != nil {
			return err
		}
		return d.end.Append(other.end)
	})
}
