package block

import (
	"github.com/matzehuels/blik/pkg/errors"
)

// composite carries the state shared by every MultiBlock: the identity all
// sub-blocks hold and the membership records that stop a single sub-block
// from being resized on its own.
type composite struct {
	id      *Identity
	kind    Kind
	view    bool
	members []*membership
}

func (c *composite) Identity() *Identity { return c.id }
func (c *composite) IsView() bool        { return c.view }

// Update notifies observers once for the whole composite.
func (c *composite) Update() { c.id.Notify() }

// Name returns the shared name.
func (c *composite) Name() string { return c.id.Name() }

// Volume returns the shared volume tag.
func (c *composite) Volume() string { return c.id.Volume() }

// adopt makes b a field of the composite. Callers check [checkFree] first.
func (c *composite) adopt(field string, b *base) {
	b.id = c.id
	if c.view {
		return
	}
	m := &membership{composite: c.kind, field: field}
	b.member = m
	c.members = append(c.members, m)
}

// checkFree rejects sub-blocks that already belong to another composite.
func checkFree(bs ...*base) error {
	for _, b := range bs {
		if b.member != nil {
			return errors.New(errors.ErrCodeInvalidInput, "block is already the %s of a %s", b.member.field, b.member.composite)
		}
	}
	return nil
}

// coordinate runs fn with every field allowed to change length and with
// notifications coalesced into one.
func (c *composite) coordinate(op string, fn func() error) error {
	if c.view {
		return &errors.ImmutableViewError{Op: op}
	}
	for _, m := range c.members {
		m.coordinated = true
	}
	defer func() {
		for _, m := range c.members {
			m.coordinated = false
		}
	}()
	return c.id.Batch(fn)
}

// newCompositeIdentity resolves the identity of a new composite. A prebuilt
// primary block lends its identity unless the options name one.
func newCompositeIdentity(primary *Identity, opts []Option) (*Identity, error) {
	if primary != nil {
		opts = append([]Option{WithIdentity(primary)}, opts...)
	}
	return newConfig(opts)
}

// namedLen is one field length for checkLengths.
type namedLen struct {
	field string
	n     int
}

// checkLengths reports the first field whose length differs from the first.
func checkLengths(kind Kind, fields ...namedLen) error {
	if len(fields) == 0 {
		return nil
	}
	want := fields[0].n
	for _, f := range fields[1:] {
		if f.n != want {
			return &errors.ShapeMismatchError{Block: string(kind), Field: f.field, Len: f.n, Want: want}
		}
	}
	return nil
}

// ownPoints returns p ready to be adopted, or builds one from data.
func ownPoints(p *PointBlock, data any) (*PointBlock, error) {
	switch {
	case p == nil:
		return NewPointBlock(data)
	case p.view:
		return p.Copy(), nil
	}
	return p, nil
}

func ownOrientations(o *OrientationBlock, data any, n int) (*OrientationBlock, error) {
	switch {
	case o == nil && data == nil:
		return IdentityOrientations(n)
	case o == nil:
		return NewOrientationBlock(data)
	case o.view:
		return o.Copy(), nil
	}
	return o, nil
}

func ownProperties(p *PropertyBlock, data map[string]any, n int) (*PropertyBlock, error) {
	switch {
	case p == nil && len(data) == 0:
		return NewEmptyProperties(n)
	case p == nil:
		return NewPropertyBlock(data)
	case p.view:
		return p.Copy(), nil
	}
	return p, nil
}

func identityOf(p *PointBlock) *Identity {
	if p == nil || p.view {
		return nil
	}
	return p.id
}

// checkAppend validates that the points of other can be appended to p.
func checkAppend(p, other *PointBlock) error {
	if other.m.d != p.m.d {
		return errors.Validation(string(KindPoint), errors.KindShape, "cannot append %d-d points to %d-d points", other.m.d, p.m.d)
	}
	return nil
}
