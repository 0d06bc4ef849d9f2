package block

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/matzehuels/blik/pkg/errors"
)

// Voxels is a dense n-dimensional float32 array in row-major order. The last
// three axes of a 3-D or higher array are z, y, x.
type Voxels struct {
	Shape []int
	Data  []float32
}

// Size returns the product of the shape.
func (v Voxels) Size() int {
	if len(v.Shape) == 0 {
		return 0
	}
	n := 1
	for _, s := range v.Shape {
		n *= s
	}
	return n
}

func (v Voxels) validate() error {
	for _, s := range v.Shape {
		if s < 0 {
			return errors.Validation(string(KindImage), errors.KindShape, "negative extent in shape %v", v.Shape)
		}
	}
	if v.Size() == 0 {
		return errors.Validation(string(KindImage), errors.KindEmpty, "image has no voxels (shape %v)", v.Shape)
	}
	if len(v.Data) != v.Size() {
		return errors.Validation(string(KindImage), errors.KindShape, "shape %v needs %d voxels, got %d", v.Shape, v.Size(), len(v.Data))
	}
	return nil
}

// stride is the number of voxels in one step along the first axis.
func (v Voxels) stride() int {
	if len(v.Shape) == 0 || v.Shape[0] == 0 {
		return 0
	}
	return v.Size() / v.Shape[0]
}

func (v Voxels) clone() Voxels {
	return Voxels{Shape: append([]int(nil), v.Shape...), Data: append([]float32(nil), v.Data...)}
}

// ImageBlock holds voxel data that may be loaded lazily.
type ImageBlock struct {
	base
	data *Lazy[Voxels]
}

// NewImageBlock validates v and returns an owner block.
func NewImageBlock(v Voxels, opts ...Option) (*ImageBlock, error) {
	if err := v.validate(); err != nil {
		return nil, err
	}
	id, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return &ImageBlock{base: base{id: id}, data: Ready(v)}, nil
}

// NewLazyImageBlock defers reading voxels until first access. The loaded
// voxels are validated on resolution.
func NewLazyImageBlock(load func() (Voxels, error), opts ...Option) (*ImageBlock, error) {
	id, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return &ImageBlock{base: base{id: id}, data: NewLazy(func() (Voxels, error) {
		v, err := load()
		if err != nil {
			return Voxels{}, err
		}
		return v, v.validate()
	})}, nil
}

// Kind returns KindImage.
func (im *ImageBlock) Kind() Kind { return KindImage }

// Resolve loads the voxels if needed.
func (im *ImageBlock) Resolve() error {
	_, err := im.data.Resolve()
	return err
}

// Loaded reports whether the voxels are in memory.
func (im *ImageBlock) Loaded() bool { return im.data.Resolved() }

// Voxels returns the voxel array, loading it if needed. The array is shared;
// callers must not modify it without calling Update.
func (im *ImageBlock) Voxels() (Voxels, error) { return im.data.Resolve() }

// Len returns the extent of the first axis, or 0 if the voxels cannot be loaded.
func (im *ImageBlock) Len() int {
	v, err := im.data.Resolve()
	if err != nil {
		return 0
	}
	return v.Shape[0]
}

// Shape returns the image shape, loading the voxels if needed.
func (im *ImageBlock) Shape() ([]int, error) {
	v, err := im.data.Resolve()
	if err != nil {
		return nil, err
	}
	return append([]int(nil), v.Shape...), nil
}

// SetData replaces the voxels after validation and notifies observers.
func (im *ImageBlock) SetData(v Voxels) error {
	if err := v.validate(); err != nil {
		return err
	}
	if err := im.guardResize("resize image", im.Len(), v.Shape[0]); err != nil {
		return err
	}
	im.data = Ready(v)
	im.Update()
	return nil
}

// Slice returns a view holding a copy of the selected planes along the first axis.
func (im *ImageBlock) Slice(sel Selector) (*ImageBlock, error) {
	v, err := im.data.Resolve()
	if err != nil {
		return nil, err
	}
	idx, err := sel.indices(v.Shape[0])
	if err != nil {
		return nil, err
	}
	st := v.stride()
	out := Voxels{Shape: append([]int{len(idx)}, v.Shape[1:]...), Data: make([]float32, 0, len(idx)*st)}
	for _, i := range idx {
		out.Data = append(out.Data, v.Data[i*st:(i+1)*st]...)
	}
	return &ImageBlock{base: base{id: im.id, view: true}, data: Ready(out)}, nil
}

// View returns a view sharing the owner's loader and voxels.
func (im *ImageBlock) View() *ImageBlock {
	return &ImageBlock{base: base{id: im.id, view: true}, data: im.data}
}

// Copy loads the voxels and returns an independent owner.
func (im *ImageBlock) Copy() (*ImageBlock, error) {
	v, err := im.data.Resolve()
	if err != nil {
		return nil, err
	}
	return &ImageBlock{base: base{id: im.id.Clone()}, data: Ready(v.clone())}, nil
}

// ImageStats summarises voxel intensities.
type ImageStats struct {
	Min, Max  float64
	Mean, Std float64
}

// Stats loads the voxels and returns intensity statistics.
func (im *ImageBlock) Stats() (ImageStats, error) {
	v, err := im.data.Resolve()
	if err != nil {
		return ImageStats{}, err
	}
	f := make([]float64, len(v.Data))
	for i, x := range v.Data {
		f[i] = float64(x)
	}
	var s ImageStats
	s.Min, s.Max = floats.Min(f), floats.Max(f)
	s.Mean, s.Std = stat.PopMeanStdDev(f, nil)
	return s, nil
}
