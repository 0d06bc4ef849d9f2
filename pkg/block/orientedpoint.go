package block

// OrientedPointOptions declares the fields of an OrientedPointBlock.
type OrientedPointOptions struct {
	Positions    *PointBlock
	Orientations *OrientationBlock

	PositionsData    any
	OrientationsData any
}

// OrientedPointBlock is a particle set without properties.
type OrientedPointBlock struct {
	composite
	positions    *PointBlock
	orientations *OrientationBlock
}

// NewOrientedPointBlock builds an oriented point set. Missing orientations
// default to the identity.
func NewOrientedPointBlock(o OrientedPointOptions, opts ...Option) (*OrientedPointBlock, error) {
	pos, err := ownPoints(o.Positions, o.PositionsData)
	if err != nil {
		return nil, err
	}
	ori, err := ownOrientations(o.Orientations, o.OrientationsData, pos.Len())
	if err != nil {
		return nil, err
	}
	if err := checkLengths(KindOrientedPoint,
		namedLen{"positions", pos.Len()},
		namedLen{"orientations", ori.Len()},
	); err != nil {
		return nil, err
	}
	if err := checkFree(&pos.base, &ori.base); err != nil {
		return nil, err
	}
	id, err := newCompositeIdentity(identityOf(o.Positions), opts)
	if err != nil {
		return nil, err
	}
	b := &OrientedPointBlock{composite: composite{id: id, kind: KindOrientedPoint}}
	b.assemble(pos, ori)
	return b, nil
}

func (b *OrientedPointBlock) assemble(pos *PointBlock, ori *OrientationBlock) {
	b.positions, b.orientations = pos, ori
	b.adopt("positions", &pos.base)
	b.adopt("orientations", &ori.base)
}

func (b *OrientedPointBlock) Kind() Kind { return KindOrientedPoint }
func (b *OrientedPointBlock) Len() int   { return b.positions.Len() }

// Check verifies that both fields have the same length.
func (b *OrientedPointBlock) Check() error {
	return checkLengths(KindOrientedPoint,
		namedLen{"positions", b.positions.Len()},
		namedLen{"orientations", b.orientations.Len()},
	)
}

func (b *OrientedPointBlock) Positions() *PointBlock          { return b.positions }
func (b *OrientedPointBlock) Orientations() *OrientationBlock { return b.orientations }

// Slice applies sel to both fields and returns a view.
func (b *OrientedPointBlock) Slice(sel Selector) (*OrientedPointBlock, error) {
	idx, err := sel.indices(b.Len())
	if err != nil {
		return nil, err
	}
	v := &OrientedPointBlock{composite: composite{id: b.id, kind: KindOrientedPoint, view: true}}
	v.assemble(b.positions.take(idx), b.orientations.take(idx))
	return v, nil
}

// View returns a view aliasing both fields.
func (b *OrientedPointBlock) View() *OrientedPointBlock {
	v := &OrientedPointBlock{composite: composite{id: b.id, kind: KindOrientedPoint, view: true}}
	v.assemble(b.positions.View(), b.orientations.View())
	return v
}

// Append adds the points of other to both fields at once.
func (b *OrientedPointBlock) Append(other *OrientedPointBlock) error {
	if err := checkAppend(b.positions, other.positions); err != nil {
		return err
	}
	return b.coordinate("append to oriented point view", func() error {
		if err := b.positions.Append(other.positions); err != nil {
			return err
		}
		return b.orientations.Append(other.orientations)
	})
}

// Particles promotes the set to a ParticleBlock with an empty property table.
// The result is independent of b.
func (b *OrientedPointBlock) Particles() (*ParticleBlock, error) {
	return NewParticleBlock(ParticleOptions{
		Positions:    &PointBlock{base: base{id: b.id.Clone()}, m: b.positions.m.clone()},
		Orientations: &OrientationBlock{m: append([]float64(nil), b.orientations.m...), n: b.orientations.n},
	})
}
