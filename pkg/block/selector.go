package block

import (
	"github.com/matzehuels/blik/pkg/errors"
)

// Selector picks rows out of a block of length n.
type Selector interface {
	indices(n int) ([]int, error)
}

// Index selects a single row. Negative values count from the end.
type Index int

// Range selects rows [Start, Stop). Out-of-range bounds are clamped; a zero Stop
// with a zero Start selects everything.
type Range struct {
	Start, Stop int
}

// Mask selects rows whose entry is true. Its length must equal the block length.
type Mask []bool

// Indices selects rows by explicit position, in the given order.
type Indices []int

// All selects every row.
type All struct{}

func (i Index) indices(n int) ([]int, error) {
	idx := int(i)
	if idx < 0 {
		idx += n
	}
	if idx < 0 || idx >= n {
		return nil, errors.New(errors.ErrCodeInvalidInput, "index %d out of range for length %d", int(i), n)
	}
	return []int{idx}, nil
}

func (r Range) indices(n int) ([]int, error) {
	start, stop := r.Start, r.Stop
	if start == 0 && stop == 0 {
		stop = n
	}
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	start = max(0, min(start, n))
	stop = max(start, min(stop, n))
	out := make([]int, 0, stop-start)
	for i := start; i < stop; i++ {
		out = append(out, i)
	}
	return out, nil
}

func (m Mask) indices(n int) ([]int, error) {
	if len(m) != n {
		return nil, errors.Validation("mask", errors.KindShape, "mask has length %d, block has %d rows", len(m), n)
	}
	var out []int
	for i, keep := range m {
		if keep {
			out = append(out, i)
		}
	}
	return out, nil
}

func (ix Indices) indices(n int) ([]int, error) {
	out := make([]int, len(ix))
	for i, v := range ix {
		one, err := Index(v).indices(n)
		if err != nil {
			return nil, err
		}
		out[i] = one[0]
	}
	return out, nil
}

func (All) indices(n int) ([]int, error) {
	return Range{}.indices(n)
}

// Count returns how many rows sel picks from a block of length n.
func Count(sel Selector, n int) (int, error) {
	idx, err := sel.indices(n)
	return len(idx), err
}

// Resolve returns the rows sel picks from a block of length n, in selection order.
func Resolve(sel Selector, n int) ([]int, error) {
	return sel.indices(n)
}
