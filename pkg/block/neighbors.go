package block

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// Neighbor is one result of a nearest-neighbour query.
type Neighbor struct {
	Index    int     // row in the queried block
	Distance float64 // euclidean distance in pixels
}

// Neighbors returns the k points closest to q (x, y, z), nearest first.
func (p *PointBlock) Neighbors(q [3]float64, k int) []Neighbor {
	if p.m.n == 0 || k <= 0 {
		return nil
	}
	tree := kdtree.New(newIndexedPoints(p.Spatial()), false)
	keep := kdtree.NewNKeeper(k)
	tree.NearestSet(keep, indexedPoint{coords: q, index: -1})
	return collect(keep.Heap)
}

// WithinRadius returns every point within r of q, nearest first.
func (p *PointBlock) WithinRadius(q [3]float64, r float64) []Neighbor {
	if p.m.n == 0 || r < 0 {
		return nil
	}
	tree := kdtree.New(newIndexedPoints(p.Spatial()), false)
	keep := kdtree.NewDistKeeper(r * r)
	tree.NearestSet(keep, indexedPoint{coords: q, index: -1})
	return collect(keep.Heap)
}

func collect(heap kdtree.Heap) []Neighbor {
	out := make([]Neighbor, 0, len(heap))
	for _, c := range heap {
		pt, ok := c.Comparable.(indexedPoint)
		if !ok {
			continue
		}
		out = append(out, Neighbor{Index: pt.index, Distance: math.Sqrt(c.Dist)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance == out[j].Distance {
			return out[i].Index < out[j].Index
		}
		return out[i].Distance < out[j].Distance
	})
	return out
}

// indexedPoint is a kdtree.Comparable that remembers its row.
type indexedPoint struct {
	coords [3]float64
	index  int
}

func (p indexedPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(indexedPoint)
	return p.coords[d] - q.coords[d]
}

func (p indexedPoint) Dims() int { return 3 }

// Distance returns the squared euclidean distance, as kdtree keepers expect.
func (p indexedPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(indexedPoint)
	var sum float64
	for i := range p.coords {
		d := p.coords[i] - q.coords[i]
		sum += d * d
	}
	return sum
}

// indexedPoints implements kdtree.Interface.
type indexedPoints []indexedPoint

func newIndexedPoints(xyz [][3]float64) indexedPoints {
	pts := make(indexedPoints, len(xyz))
	for i, c := range xyz {
		pts[i] = indexedPoint{coords: c, index: i}
	}
	return pts
}

func (p indexedPoints) Index(i int) kdtree.Comparable { return p[i] }
func (p indexedPoints) Len() int                      { return len(p) }
func (p indexedPoints) Slice(start, end int) kdtree.Interface {
	return p[start:end]
}
func (p indexedPoints) Pivot(d kdtree.Dim) int {
	return pointPlane{points: p, dim: d}.Pivot()
}

// pointPlane sorts points along one dimension for median partitioning.
type pointPlane struct {
	points indexedPoints
	dim    kdtree.Dim
}

func (p pointPlane) Len() int { return len(p.points) }
func (p pointPlane) Less(i, j int) bool {
	return p.points[i].coords[p.dim] < p.points[j].coords[p.dim]
}
func (p pointPlane) Swap(i, j int) { p.points[i], p.points[j] = p.points[j], p.points[i] }
func (p pointPlane) Slice(start, end int) kdtree.SortSlicer {
	p.points = p.points[start:end]
	return p
}
func (p pointPlane) Pivot() int {
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}
