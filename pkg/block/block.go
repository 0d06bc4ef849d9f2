package block

import (
	"github.com/matzehuels/blik/pkg/errors"
)

// Kind identifies the concrete type of a block.
type Kind string

// Block kinds.
const (
	KindPoint         Kind = "point"
	KindOrientation   Kind = "orientation"
	KindProperty      Kind = "property"
	KindLine          Kind = "line"
	KindImage         Kind = "image"
	KindParticle      Kind = "particle"
	KindOrientedPoint Kind = "orientedpoint"
	KindMesh          Kind = "mesh"
	KindDipole        Kind = "dipole"
	KindTransform     Kind = "transform"
)

// Kinds lists every block kind.
var Kinds = []Kind{
	KindPoint, KindOrientation, KindProperty, KindLine, KindImage,
	KindParticle, KindOrientedPoint, KindMesh, KindDipole, KindTransform,
}

// Valid reports whether k is a known block kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Block is implemented by every datablock.
type Block interface {
	// Identity returns the shared identity record.
	Identity() *Identity
	// Kind returns the block kind.
	Kind() Kind
	// Len returns the number of rows.
	Len() int
	// IsView reports whether the block was derived from an owner by slicing or View.
	IsView() bool
	// Update notifies observers that the block's data changed.
	Update()
}

// base carries the identity pointer and view flag embedded by all blocks.
type base struct {
	id   *Identity
	view bool

	// member is set when the block is a field of a composite; growing or
	// shrinking it outside a coordinated composite operation is rejected.
	member *membership
}

type membership struct {
	composite Kind
	field     string
	// coordinated is true while the composite replaces all fields together.
	coordinated bool
}

func (b *base) Identity() *Identity { return b.id }
func (b *base) IsView() bool        { return b.view }
func (b *base) Update()             { b.id.Notify() }

// Name returns the shared name.
func (b *base) Name() string { return b.id.Name() }

// Volume returns the shared volume tag.
func (b *base) Volume() string { return b.id.Volume() }

// guardResize rejects length changes on views and on composite members.
func (b *base) guardResize(op string, oldLen, newLen int) error {
	if oldLen == newLen {
		return nil
	}
	if b.view {
		return &errors.ImmutableViewError{Op: op}
	}
	if b.member != nil && !b.member.coordinated {
		return &errors.ShapeMismatchError{Block: string(b.member.composite), Field: b.member.field, Len: newLen, Want: oldLen}
	}
	return nil
}

// Option configures the identity of a newly constructed block.
type Option func(*config)

type config struct {
	id        *Identity
	name      string
	volume    string
	source    string
	pixelSize []float64
	dimsOrder string
}

// WithName sets the block name.
func WithName(name string) Option { return func(c *config) { c.name = name } }

// WithVolume sets the volume tag.
func WithVolume(volume string) Option { return func(c *config) { c.volume = volume } }

// WithSource records the source file path.
func WithSource(path string) Option { return func(c *config) { c.source = path } }

// WithPixelSize sets 1 or 3 pixel size values.
func WithPixelSize(values ...float64) Option {
	return func(c *config) { c.pixelSize = values }
}

// WithDimsOrder sets the storage order of the spatial columns.
func WithDimsOrder(order string) Option { return func(c *config) { c.dimsOrder = order } }

// WithIdentity makes the new block share an existing identity. Other options
// given alongside it are applied to that shared record.
func WithIdentity(id *Identity) Option { return func(c *config) { c.id = id } }

// newConfig resolves the options into an identity record.
func newConfig(opts []Option) (*Identity, error) {
	var c config
	for _, opt := range opts {
		opt(&c)
	}
	id := c.id
	if id == nil {
		id = NewIdentity("")
	}
	if c.name != "" {
		if err := id.SetName(c.name); err != nil {
			return nil, err
		}
	}
	if c.volume != "" {
		if err := id.SetVolume(c.volume); err != nil {
			return nil, err
		}
	}
	if c.source != "" {
		id.SetSource(c.source)
	}
	if c.pixelSize != nil {
		if err := id.spatial.SetPixelSize(c.pixelSize...); err != nil {
			return nil, err
		}
	}
	if c.dimsOrder != "" {
		if err := id.spatial.SetDimsOrder(c.dimsOrder); err != nil {
			return nil, err
		}
	}
	return id, nil
}
