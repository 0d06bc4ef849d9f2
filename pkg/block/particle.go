package block

// ParticleOptions declares the fields of a ParticleBlock. Each field is either
// a prebuilt block or raw data passed to that block's constructor; a prebuilt
// block takes precedence.
type ParticleOptions struct {
	Positions    *PointBlock
	Orientations *OrientationBlock
	Properties   *PropertyBlock

	PositionsData    any
	OrientationsData any
	PropertiesData   map[string]any
}

// ParticleBlock is a set of particles: positions, orientations and per-particle
// properties of equal length under one identity.
type ParticleBlock struct {
	composite
	positions    *PointBlock
	orientations *OrientationBlock
	properties   *PropertyBlock
}

// NewParticleBlock builds a particle set. Missing orientations default to the
// identity and missing properties to an empty table. Prebuilt sub-blocks are
// adopted: from then on they share the particle set's identity.
func NewParticleBlock(o ParticleOptions, opts ...Option) (*ParticleBlock, error) {
	pos, err := ownPoints(o.Positions, o.PositionsData)
	if err != nil {
		return nil, err
	}
	ori, err := ownOrientations(o.Orientations, o.OrientationsData, pos.Len())
	if err != nil {
		return nil, err
	}
	props, err := ownProperties(o.Properties, o.PropertiesData, pos.Len())
	if err != nil {
		return nil, err
	}
	if err := checkLengths(KindParticle,
		namedLen{"positions", pos.Len()},
		namedLen{"orientations", ori.Len()},
		namedLen{"properties", props.Len()},
	); err != nil {
		return nil, err
	}
	if err := checkFree(&pos.base, &ori.base, &props.base); err != nil {
		return nil, err
	}
	id, err := newCompositeIdentity(identityOf(o.Positions), opts)
	if err != nil {
		return nil, err
	}
	p := &ParticleBlock{composite: composite{id: id, kind: KindParticle}}
	p.assemble(pos, ori, props)
	return p, nil
}

func (p *ParticleBlock) assemble(pos *PointBlock, ori *OrientationBlock, props *PropertyBlock) {
	p.positions, p.orientations, p.properties = pos, ori, props
	p.adopt("positions", &pos.base)
	p.adopt("orientations", &ori.base)
	p.adopt("properties", &props.base)
}

// Kind returns KindParticle.
func (p *ParticleBlock) Kind() Kind { return KindParticle }

// Len returns the number of particles.
func (p *ParticleBlock) Len() int { return p.positions.Len() }

// Check verifies that every field has the same length.
func (p *ParticleBlock) Check() error {
	return checkLengths(KindParticle,
		namedLen{"positions", p.positions.Len()},
		namedLen{"orientations", p.orientations.Len()},
		namedLen{"properties", p.properties.Len()},
	)
}

// Positions returns the positions field.
func (p *ParticleBlock) Positions() *PointBlock { return p.positions }

// Orientations returns the orientations field.
func (p *ParticleBlock) Orientations() *OrientationBlock { return p.orientations }

// Properties returns the properties field.
func (p *ParticleBlock) Properties() *PropertyBlock { return p.properties }

// Slice applies sel to every field and returns a view.
func (p *ParticleBlock) Slice(sel Selector) (*ParticleBlock, error) {
	idx, err := sel.indices(p.Len())
	if err != nil {
		return nil, err
	}
	v := &ParticleBlock{composite: composite{id: p.id, kind: KindParticle, view: true}}
	v.assemble(p.positions.take(idx), p.orientations.take(idx), p.properties.take(idx))
	return v, nil
}

// View returns a view aliasing every field.
func (p *ParticleBlock) View() *ParticleBlock {
	v := &ParticleBlock{composite: composite{id: p.id, kind: KindParticle, view: true}}
	v.assemble(p.positions.View(), p.orientations.View(), p.properties.View())
	return v
}

// Copy returns an independent owner with a cloned identity and data.
func (p *ParticleBlock) Copy() *ParticleBlock {
	c := &ParticleBlock{composite: composite{id: p.id.Clone(), kind: KindParticle}}
	c.assemble(
		&PointBlock{m: p.positions.m.clone()},
		&OrientationBlock{m: append([]float64(nil), p.orientations.m...), n: p.orientations.n},
		&PropertyBlock{cols: p.properties.cloneCols(), n: p.properties.n},
	)
	return c
}

// Append adds the particles of other, growing every field together and
// notifying observers once.
func (p *ParticleBlock) Append(other *ParticleBlock) error {
	if err := checkAppend(p.positions, other.positions); err != nil {
		return err
	}
	if err := p.properties.compatible(other.properties); err != nil {
		return err
	}
	return p.coordinate("append to particle view", func() error {
		if err := p.positions.Append(other.positions); err != nil {
			return err
		}
		if err := p.orientations.Append(other.orientations); err != nil {
			return err
		}
		return p.properties.Append(other.properties)
	})
}
