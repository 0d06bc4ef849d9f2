package depict

import (
	"github.com/matzehuels/blik/pkg/block"
)

// LayerKind is the closed set of layer types a viewer must understand.
type LayerKind string

const (
	LayerPoints  LayerKind = "points"
	LayerVectors LayerKind = "vectors"
	LayerImage   LayerKind = "image"
	LayerShapes  LayerKind = "shapes"
	LayerSurface LayerKind = "surface"
)

// Layer is a renderer-agnostic display descriptor. All coordinates in Data are
// in zyx order.
//
// Data holds, per kind:
//   - points: [][3]float64 positions
//   - vectors: [][2][3]float64 (origin, direction) pairs
//   - image: [block.Voxels]
//   - shapes: [][][3]float64 paths
//   - surface: [Surface]
type Layer struct {
	Name   string    `json:"name"`
	Kind   LayerKind `json:"kind"`
	Volume string    `json:"volume,omitempty"`
	Data   any       `json:"data"`
	Attrs  Attrs     `json:"attrs"`
}

// Attrs are display attributes of a layer.
type Attrs struct {
	// Scale is the pixel size in zyx order.
	Scale   [3]float64     `json:"scale"`
	Visible bool           `json:"visible"`
	Style   map[string]any `json:"style,omitempty"`
}

// Surface is the data of a surface layer.
type Surface struct {
	Vertices [][3]float64 `json:"vertices"`
	Faces    [][3]int     `json:"faces"`
}

// Len returns the number of elements in the layer's data.
func (l Layer) Len() int {
	switch d := l.Data.(type) {
	case [][3]float64:
		return len(d)
	case [][2][3]float64:
		return len(d)
	case [][][3]float64:
		return len(d)
	case Surface:
		return len(d.Vertices)
	case block.Voxels:
		if len(d.Shape) == 0 {
			return 0
		}
		return d.Shape[0]
	}
	return 0
}

// ToZYX reverses every xyz triplet into zyx order.
func ToZYX(xyz [][3]float64) [][3]float64 {
	out := make([][3]float64, len(xyz))
	for i, p := range xyz {
		out[i] = [3]float64{p[2], p[1], p[0]}
	}
	return out
}

// FromZYX reverses every zyx triplet into xyz order.
func FromZYX(zyx [][3]float64) [][3]float64 { return ToZYX(zyx) }

func reverse3(v [3]float64) [3]float64 { return [3]float64{v[2], v[1], v[0]} }

// baseLayer fills the attributes shared by every layer of b.
func baseLayer(b block.Block, kind LayerKind, data any) Layer {
	id := b.Identity()
	return Layer{
		Name:   id.Name(),
		Kind:   kind,
		Volume: id.Volume(),
		Data:   data,
		Attrs: Attrs{
			Scale:   reverse3(id.Spatial().PixelSize()),
			Visible: true,
			Style:   map[string]any{},
		},
	}
}
