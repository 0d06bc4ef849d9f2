package depict

import (
	"fmt"
	"sync"

	"github.com/matzehuels/blik/pkg/block"
	"github.com/matzehuels/blik/pkg/errors"
)

// Edit is a change made in the viewer to one layer of a depiction.
type Edit struct {
	// Layer is the position of the edited layer in the adapter's output.
	Layer int
	// Data is the new layer data, in the form the layer kind prescribes.
	Data any
}

// Adapter projects one block kind onto layers and writes viewer edits back.
type Adapter interface {
	// Layers returns the current display descriptors of b.
	Layers(b block.Block) ([]Layer, error)
	// Apply writes an edit back into b. Implementations update b through its
	// setters so observers are notified.
	Apply(b block.Block, e Edit) error
}

// Registry maps block kinds to adapters.
type Registry struct {
	mu       sync.RWMutex
	adapters map[block.Kind]Adapter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[block.Kind]Adapter)}
}

// DefaultRegistry returns a registry covering every depictable block kind.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(block.KindPoint, PointAdapter{})
	r.Register(block.KindLine, LineAdapter{})
	r.Register(block.KindParticle, OrientedAdapter{VectorLength: DefaultVectorLength})
	r.Register(block.KindOrientedPoint, OrientedAdapter{VectorLength: DefaultVectorLength})
	r.Register(block.KindMesh, MeshAdapter{})
	r.Register(block.KindDipole, DipoleAdapter{})
	r.Register(block.KindImage, ImageAdapter{})
	return r
}

// Register sets the adapter for kind, replacing any previous one.
func (r *Registry) Register(kind block.Kind, a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[kind] = a
}

// Lookup returns the adapter for kind.
func (r *Registry) Lookup(kind block.Kind) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[kind]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupported, "no depiction for %s blocks", kind)
	}
	return a, nil
}

func wrongBlock(want string, b block.Block) error {
	return errors.New(errors.ErrCodeInvalidInput, "adapter expects %s, got %s", want, b.Kind())
}

func wrongData(kind LayerKind, data any) error {
	return errors.New(errors.ErrCodeInvalidInput, "%s layer edit has data of type %T", kind, data)
}

func checkLayer(e Edit, n int) error {
	if e.Layer < 0 || e.Layer >= n {
		return errors.New(errors.ErrCodeInvalidInput, "edit targets layer %d of %d", e.Layer, n)
	}
	return nil
}

// PointAdapter depicts a PointBlock as a points layer.
type PointAdapter struct{}

func (PointAdapter) Layers(b block.Block) ([]Layer, error) {
	p, ok := b.(*block.PointBlock)
	if !ok {
		return nil, wrongBlock("points", b)
	}
	return []Layer{baseLayer(b, LayerPoints, ToZYX(p.Spatial()))}, nil
}

func (PointAdapter) Apply(b block.Block, e Edit) error {
	p, ok := b.(*block.PointBlock)
	if !ok {
		return wrongBlock("points", b)
	}
	if err := checkLayer(e, 1); err != nil {
		return err
	}
	zyx, ok := e.Data.([][3]float64)
	if !ok {
		return wrongData(LayerPoints, e.Data)
	}
	return p.SetSpatial(FromZYX(zyx))
}

// LineAdapter depicts a LineBlock as a single-path shapes layer.
type LineAdapter struct{}

func (LineAdapter) Layers(b block.Block) ([]Layer, error) {
	l, ok := b.(*block.LineBlock)
	if !ok {
		return nil, wrongBlock("line", b)
	}
	layer := baseLayer(b, LayerShapes, [][][3]float64{ToZYX(l.Spatial())})
	layer.Attrs.Style["shape_type"] = "path"
	return []Layer{layer}, nil
}

func (LineAdapter) Apply(b block.Block, e Edit) error {
	l, ok := b.(*block.LineBlock)
	if !ok {
		return wrongBlock("line", b)
	}
	if err := checkLayer(e, 1); err != nil {
		return err
	}
	paths, ok := e.Data.([][][3]float64)
	if !ok || len(paths) != 1 {
		return wrongData(LayerShapes, e.Data)
	}
	return l.SetSpatial(FromZYX(paths[0]))
}

// DefaultVectorLength is the displayed length of orientation vectors in pixels.
const DefaultVectorLength = 10.0

// oriented is implemented by ParticleBlock and OrientedPointBlock.
type oriented interface {
	block.Block
	Positions() *block.PointBlock
	Orientations() *block.OrientationBlock
}

// OrientedAdapter depicts particles and oriented points as a points layer and
// a vectors layer showing each particle's z axis.
type OrientedAdapter struct {
	VectorLength float64
}

func (a OrientedAdapter) Layers(b block.Block) ([]Layer, error) {
	o, ok := b.(oriented)
	if !ok {
		return nil, wrongBlock("particles", b)
	}
	pos := o.Positions().Spatial()
	axes, err := o.Orientations().Vectors('z')
	if err != nil {
		return nil, err
	}
	vecs := make([][2][3]float64, len(pos))
	for i := range pos {
		dir := [3]float64{axes[i][0] * a.VectorLength, axes[i][1] * a.VectorLength, axes[i][2] * a.VectorLength}
		vecs[i] = [2][3]float64{reverse3(pos[i]), reverse3(dir)}
	}
	points := baseLayer(b, LayerPoints, ToZYX(pos))
	vectors := baseLayer(b, LayerVectors, vecs)
	vectors.Name = fmt.Sprintf("%s - orientations", points.Name)
	vectors.Attrs.Style["length"] = a.VectorLength
	return []Layer{points, vectors}, nil
}

// Apply accepts edits of the points layer. Moving particles is allowed; adding
// or removing them is rejected by the composite.
func (a OrientedAdapter) Apply(b block.Block, e Edit) error {
	o, ok := b.(oriented)
	if !ok {
		return wrongBlock("particles", b)
	}
	if err := checkLayer(e, 2); err != nil {
		return err
	}
	if e.Layer != 0 {
		return errors.New(errors.ErrCodeUnsupported, "orientation vectors are read-only")
	}
	zyx, ok := e.Data.([][3]float64)
	if !ok {
		return wrongData(LayerPoints, e.Data)
	}
	return o.Positions().SetSpatial(FromZYX(zyx))
}

// MeshAdapter depicts a MeshBlock as a surface layer.
type MeshAdapter struct{}

func (MeshAdapter) Layers(b block.Block) ([]Layer, error) {
	m, ok := b.(*block.MeshBlock)
	if !ok {
		return nil, wrongBlock("mesh", b)
	}
	if err := m.Check(); err != nil {
		return nil, err
	}
	return []Layer{baseLayer(b, LayerSurface, Surface{
		Vertices: ToZYX(m.Vertices().Spatial()),
		Faces:    m.Faces(),
	})}, nil
}

func (MeshAdapter) Apply(b block.Block, e Edit) error {
	m, ok := b.(*block.MeshBlock)
	if !ok {
		return wrongBlock("mesh", b)
	}
	if err := checkLayer(e, 1); err != nil {
		return err
	}
	s, ok := e.Data.(Surface)
	if !ok {
		return wrongData(LayerSurface, e.Data)
	}
	return m.SetMesh(FromZYX(s.Vertices), s.Faces)
}

// DipoleAdapter depicts a DipoleBlock as a vectors layer. It is read-only.
type DipoleAdapter struct{}

func (DipoleAdapter) Layers(b block.Block) ([]Layer, error) {
	d, ok := b.(*block.DipoleBlock)
	if !ok {
		return nil, wrongBlock("dipoles", b)
	}
	start, vecs := d.Startpoints().Spatial(), d.Vectors()
	data := make([][2][3]float64, len(start))
	for i := range start {
		data[i] = [2][3]float64{reverse3(start[i]), reverse3(vecs[i])}
	}
	return []Layer{baseLayer(b, LayerVectors, data)}, nil
}

func (DipoleAdapter) Apply(block.Block, Edit) error {
	return errors.New(errors.ErrCodeUnsupported, "dipole layers are read-only")
}

// ImageAdapter depicts an ImageBlock as an image layer with contrast limits
// taken from the intensity range.
type ImageAdapter struct{}

func (ImageAdapter) Layers(b block.Block) ([]Layer, error) {
	im, ok := b.(*block.ImageBlock)
	if !ok {
		return nil, wrongBlock("image", b)
	}
	v, err := im.Voxels()
	if err != nil {
		return nil, err
	}
	st, err := im.Stats()
	if err != nil {
		return nil, err
	}
	layer := baseLayer(b, LayerImage, v)
	layer.Attrs.Style["colormap"] = "gray"
	layer.Attrs.Style["contrast_limits"] = [2]float64{st.Min, st.Max}
	return []Layer{layer}, nil
}

func (ImageAdapter) Apply(b block.Block, e Edit) error {
	im, ok := b.(*block.ImageBlock)
	if !ok {
		return wrongBlock("image", b)
	}
	if err := checkLayer(e, 1); err != nil {
		return err
	}
	v, ok := e.Data.(block.Voxels)
	if !ok {
		return wrongData(LayerImage, e.Data)
	}
	return im.SetData(v)
}
