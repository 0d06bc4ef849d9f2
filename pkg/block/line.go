package block

import (
	"math"

	"github.com/matzehuels/blik/pkg/errors"
)

// LineBlock is an ordered polyline of vertices.
type LineBlock struct {
	PointBlock
}

// NewLineBlock validates vertices like [NewPointBlock].
func NewLineBlock(data any, opts ...Option) (*LineBlock, error) {
	p, err := NewPointBlock(data, opts...)
	if err != nil {
		return nil, err
	}
	return &LineBlock{PointBlock: *p}, nil
}

// Kind returns KindLine.
func (l *LineBlock) Kind() Kind { return KindLine }

// Length returns the summed segment length in physical units.
func (l *LineBlock) Length() float64 {
	ps := l.id.spatial.PixelSize()
	pts := l.Spatial()
	var total float64
	for i := 1; i < len(pts); i++ {
		var sq float64
		for k := 0; k < 3; k++ {
			d := (pts[i][k] - pts[i-1][k]) * ps[k]
			sq += d * d
		}
		total += math.Sqrt(sq)
	}
	return total
}

// Resample returns a new line with vertices spaced every spacing pixels along
// the original path, by linear interpolation. The last vertex is always kept
// and leading non-spatial columns are dropped.
func (l *LineBlock) Resample(spacing float64) (*LineBlock, error) {
	if spacing <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "spacing must be positive, got %g", spacing)
	}
	pts := l.Spatial()
	if len(pts) < 2 {
		return l.Copy(), nil
	}
	out := [][3]float64{pts[0]}
	carry := 0.0
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		seg := dist(a, b)
		t := spacing - carry
		for ; t <= seg; t += spacing {
			f := t / seg
			out = append(out, [3]float64{a[0] + f*(b[0]-a[0]), a[1] + f*(b[1]-a[1]), a[2] + f*(b[2]-a[2])})
		}
		carry = seg - (t - spacing)
	}
	if last := pts[len(pts)-1]; dist(out[len(out)-1], last) > 1e-9 {
		out = append(out, last)
	}
	return NewLineBlock(reorder(out, l.id.spatial), WithIdentity(l.id.Clone()))
}

// Copy returns an independent owner with a cloned identity and data.
func (l *LineBlock) Copy() *LineBlock {
	return &LineBlock{PointBlock: *l.PointBlock.Copy()}
}

// Slice returns a view holding a copy of the selected vertices.
func (l *LineBlock) Slice(sel Selector) (*LineBlock, error) {
	p, err := l.PointBlock.Slice(sel)
	if err != nil {
		return nil, err
	}
	return &LineBlock{PointBlock: *p}, nil
}

func dist(a, b [3]float64) float64 {
	return math.Sqrt((a[0]-b[0])*(a[0]-b[0]) + (a[1]-b[1])*(a[1]-b[1]) + (a[2]-b[2])*(a[2]-b[2]))
}

// reorder converts xyz triplets into rows in the storage order of s.
func reorder(xyz [][3]float64, s *Spatial) [][]float64 {
	rows := make([][]float64, len(xyz))
	for i, p := range xyz {
		r := make([]float64, 3)
		for axis := byte('x'); axis <= 'z'; axis++ {
			r[s.axisColumn(axis)] = p[axis-'x']
		}
		rows[i] = r
	}
	return rows
}
