package block

import (
	"math"
	"testing"

	"github.com/matzehuels/blik/pkg/errors"
)

const tol = 1e-9

func matClose(a, b [3][3]float64) bool {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(a[i][j]-b[i][j]) > tol {
				return false
			}
		}
	}
	return true
}

func TestOrientationEmbeds2x2(t *testing.T) {
	o, err := NewOrientationBlock([][2][2]float64{{{0, -1}, {1, 0}}})
	if err != nil {
		t.Fatal(err)
	}
	want := [3][3]float64{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}}
	if got := o.Matrix(0); got != want {
		t.Errorf("Matrix(0) = %v, want %v", got, want)
	}

	nested, err := NewOrientationBlock([][][]float64{{{2, 3}, {4, 5}}})
	if err != nil {
		t.Fatal(err)
	}
	if got := nested.Matrix(0); got[2][2] != 1 || got[0][0] != 2 || got[1][1] != 5 || got[0][2] != 0 {
		t.Errorf("nested 2x2 embedding = %v", got)
	}
}

func TestOrientationErrors(t *testing.T) {
	tests := []struct {
		name string
		data any
		code errors.Code
	}{
		{"4x4", [][][]float64{{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1}}}, errors.ErrCodeInvalidShape},
		{"non-square", [][][]float64{{{1, 0, 0}, {0, 1, 0}}}, errors.ErrCodeInvalidShape},
		{"mixed sizes", [][][]float64{{{1, 0}, {0, 1}}, {{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}}, errors.ErrCodeInvalidShape},
		{"dtype", []float64{1, 2}, errors.ErrCodeInvalidDType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOrientationBlock(tt.data)
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestOrientationVectors(t *testing.T) {
	// 90° about z maps the particle x axis onto the tomogram y axis.
	m, err := FromEuler(ConventionDynamo, [3]float64{90, 0, 0})
	if err != nil {
		t.Fatal(err)
	}
	o, _ := NewOrientationBlock([][3][3]float64{m})
	vs, err := o.Vectors('x')
	if err != nil {
		t.Fatal(err)
	}
	if v := vs[0]; math.Abs(v[0]) > tol || math.Abs(v[1]-1) > tol || math.Abs(v[2]) > tol {
		t.Errorf("Vectors('x') = %v, want [0 1 0]", v)
	}
	if _, err := o.Vectors('w'); err == nil {
		t.Error("Vectors('w') should fail")
	}
}

func TestEulerRoundTrip(t *testing.T) {
	angles := [][3]float64{
		{10, 20, 30},
		{-45, 90, 135},
		{170, 5, -60},
		{0, 120, 0},
	}
	for _, conv := range []Convention{ConventionRELION, ConventionDynamo} {
		t.Run(string(conv), func(t *testing.T) {
			for _, a := range angles {
				m, err := FromEuler(conv, a)
				if err != nil {
					t.Fatal(err)
				}
				back, err := ToEuler(conv, m)
				if err != nil {
					t.Fatal(err)
				}
				m2, _ := FromEuler(conv, back)
				if !matClose(m, m2) {
					t.Errorf("%v -> %v does not reproduce the matrix", a, back)
				}
				for k := range a {
					if math.Abs(a[k]-back[k]) > 1e-6 {
						t.Errorf("%v -> %v", a, back)
						break
					}
				}
			}
		})
	}
}

func TestEulerGimbalLock(t *testing.T) {
	for _, conv := range []Convention{ConventionRELION, ConventionDynamo} {
		for _, tilt := range []float64{0, 180} {
			m, _ := FromEuler(conv, [3]float64{30, tilt, 40})
			back, err := ToEuler(conv, m)
			if err != nil {
				t.Fatal(err)
			}
			if back[2] != 0 {
				t.Errorf("%s tilt=%v: third angle = %v, want 0", conv, tilt, back[2])
			}
			m2, _ := FromEuler(conv, back)
			if !matClose(m, m2) {
				t.Errorf("%s tilt=%v: %v does not reproduce the matrix", conv, tilt, back)
			}
		}
	}
}

func TestRELIONIsTransposeOfZYZ(t *testing.T) {
	m, _ := FromEuler(ConventionRELION, [3]float64{0, 90, 0})
	// Ry(90)ᵀ maps the particle z axis onto -x.
	got := apply(m, [3]float64{0, 0, 1})
	if math.Abs(got[0]+1) > tol || math.Abs(got[1]) > tol || math.Abs(got[2]) > tol {
		t.Errorf("M·z = %v, want [-1 0 0]", got)
	}
}

func TestUnknownConvention(t *testing.T) {
	if _, err := FromEuler("eman", [3]float64{}); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("FromEuler: %v, want UNSUPPORTED", err)
	}
}

func TestOrientationSliceAppend(t *testing.T) {
	o, _ := IdentityOrientations(3)
	s, err := o.Slice(Range{Start: 1, Stop: 3})
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 2 {
		t.Errorf("slice Len() = %d, want 2", s.Len())
	}
	if err := s.Append(o); !errors.Is(err, errors.ErrCodeImmutableView) {
		t.Errorf("Append on slice: %v, want IMMUTABLE_VIEW", err)
	}
	if err := o.Append(o.Copy()); err != nil {
		t.Fatal(err)
	}
	if o.Len() != 6 {
		t.Errorf("Len() = %d, want 6", o.Len())
	}
}

func TestNewOrientationBlockFromEuler(t *testing.T) {
	o, err := NewOrientationBlockFromEuler(ConventionRELION, [][3]float64{{10, 20, 30}, {0, 0, 0}})
	if err != nil {
		t.Fatal(err)
	}
	if !matClose(o.Matrix(1), Identity3) {
		t.Errorf("zero angles should give identity, got %v", o.Matrix(1))
	}
	eul, err := o.Euler(ConventionRELION)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(eul[0][1]-20) > 1e-6 {
		t.Errorf("tilt = %v, want 20", eul[0][1])
	}
}
