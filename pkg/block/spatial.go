package block

import (
	"github.com/matzehuels/blik/pkg/errors"
)

// DefaultDimsOrder is the storage order of the spatial columns.
const DefaultDimsOrder = "xyz"

// Spatial holds the pixel size and spatial dimension order shared by all blocks
// of one identity.
type Spatial struct {
	pixelSize [3]float64
	dimsOrder string
}

// DefaultSpatial returns unit pixel size with xyz order.
func DefaultSpatial() *Spatial {
	return &Spatial{pixelSize: [3]float64{1, 1, 1}, dimsOrder: DefaultDimsOrder}
}

// NewSpatial creates spatial attributes from 0, 1 or 3 pixel size values.
// A single value is broadcast to all axes. Zero values coerce to 1.
func NewSpatial(pixelSize ...float64) (*Spatial, error) {
	s := DefaultSpatial()
	if err := s.SetPixelSize(pixelSize...); err != nil {
		return nil, err
	}
	return s, nil
}

// PixelSize returns the per-axis pixel size in x, y, z order.
func (s *Spatial) PixelSize() [3]float64 { return s.pixelSize }

// SetPixelSize replaces the pixel size. See [NewSpatial] for accepted inputs.
func (s *Spatial) SetPixelSize(values ...float64) error {
	var ps [3]float64
	switch len(values) {
	case 0:
		ps = [3]float64{1, 1, 1}
	case 1:
		ps = [3]float64{values[0], values[0], values[0]}
	case 3:
		copy(ps[:], values)
	default:
		return errors.Validation("spatial", errors.KindShape, "pixel size must have 1 or 3 values, got %d", len(values))
	}
	for i, v := range ps {
		if v < 0 {
			return errors.Validation("spatial", errors.KindShape, "pixel size must be positive, got %g", v)
		}
		if v == 0 {
			ps[i] = 1
		}
	}
	s.pixelSize = ps
	return nil
}

// IsotropicPixelSize returns the pixel size if all axes agree, and false otherwise.
func (s *Spatial) IsotropicPixelSize() (float64, bool) {
	p := s.pixelSize
	return p[0], p[0] == p[1] && p[1] == p[2]
}

// DimsOrder returns the axis names of the spatial columns in storage order.
func (s *Spatial) DimsOrder() string { return s.dimsOrder }

// SetDimsOrder sets the storage order of the spatial columns.
func (s *Spatial) SetDimsOrder(order string) error {
	if err := errors.ValidateDimsOrder(order); err != nil {
		return err
	}
	s.dimsOrder = order
	return nil
}

// axisColumn returns the column offset (0..2) of the named axis within the
// spatial columns.
func (s *Spatial) axisColumn(axis byte) int {
	for i := 0; i < len(s.dimsOrder); i++ {
		if s.dimsOrder[i] == axis {
			return i
		}
	}
	return int(axis - 'x')
}
