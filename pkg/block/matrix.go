package block

import (
	"github.com/matzehuels/blik/pkg/errors"
)

// matrix is a dense row-major n×d float64 array.
type matrix struct {
	data []float64
	n, d int
}

func (m matrix) row(i int) []float64 {
	return m.data[i*m.d : (i+1)*m.d]
}

func (m matrix) rows() [][]float64 {
	out := make([][]float64, m.n)
	for i := range out {
		out[i] = append([]float64(nil), m.row(i)...)
	}
	return out
}

func (m matrix) column(j int) []float64 {
	out := make([]float64, m.n)
	for i := range out {
		out[i] = m.data[i*m.d+j]
	}
	return out
}

// take copies the selected rows into a new matrix.
func (m matrix) take(idx []int) matrix {
	out := matrix{data: make([]float64, 0, len(idx)*m.d), n: len(idx), d: m.d}
	for _, i := range idx {
		out.data = append(out.data, m.row(i)...)
	}
	return out
}

func (m matrix) clone() matrix {
	return matrix{data: append([]float64(nil), m.data...), n: m.n, d: m.d}
}

// coercePoints converts array-like input into an n×d matrix with d ≥ 3.
//
// Accepted inputs: nil, [][]float64, [][]float32, [][]int, [][3]float64,
// [][2]float64 and 1-D []float64 (a single point).
func coercePoints(kind Kind, data any) (matrix, error) {
	var rows [][]float64
	switch v := data.(type) {
	case nil:
	case matrix:
		return padSpatial(v), nil
	case [][]float64:
		rows = v
	case []float64:
		if len(v) > 0 {
			rows = [][]float64{v}
		}
	case [][]float32:
		rows = make([][]float64, len(v))
		for i, r := range v {
			rows[i] = make([]float64, len(r))
			for j, x := range r {
				rows[i][j] = float64(x)
			}
		}
	case [][]int:
		rows = make([][]float64, len(v))
		for i, r := range v {
			rows[i] = make([]float64, len(r))
			for j, x := range r {
				rows[i][j] = float64(x)
			}
		}
	case [][3]float64:
		rows = make([][]float64, len(v))
		for i := range v {
			rows[i] = v[i][:]
		}
	case [][2]float64:
		rows = make([][]float64, len(v))
		for i := range v {
			rows[i] = v[i][:]
		}
	default:
		return matrix{}, errors.Validation(string(kind), errors.KindDType, "unsupported point data type %T", data)
	}

	if len(rows) == 0 {
		return matrix{data: []float64{}, n: 0, d: 3}, nil
	}
	d := len(rows[0])
	m := matrix{data: make([]float64, 0, len(rows)*d), n: len(rows), d: d}
	for i, r := range rows {
		if len(r) != d {
			return matrix{}, errors.Validation(string(kind), errors.KindShape, "row %d has %d columns, expected %d", i, len(r), d)
		}
		m.data = append(m.data, r...)
	}
	return padSpatial(m), nil
}

// padSpatial zero-pads the trailing axis up to three columns.
func padSpatial(m matrix) matrix {
	if m.d >= 3 {
		return m
	}
	out := matrix{data: make([]float64, m.n*3), n: m.n, d: 3}
	for i := 0; i < m.n; i++ {
		copy(out.data[i*3:], m.row(i))
	}
	return out
}
