package block

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/blik/pkg/errors"
)

// Convention names an Euler angle convention used by an external file format.
//
// The canonical form of an orientation in this package is a matrix M with
// M·v_particle = v_tomogram, acting on column vectors with right-handed active
// rotations. Every convention below is an explicit, tested conversion to and
// from that form.
type Convention string

const (
	// ConventionRELION is intrinsic ZYZ (rlnAngleRot, rlnAngleTilt, rlnAnglePsi).
	// RELION angles rotate the tomogram onto the reference, so
	// M = (Rz(rot)·Ry(tilt)·Rz(psi))ᵀ.
	ConventionRELION Convention = "relion"

	// ConventionDynamo is intrinsic ZXZ (tdrot, tilt, narot) with
	// M = Rz(tdrot)·Rx(tilt)·Rz(narot).
	ConventionDynamo Convention = "dynamo"
)

// gimbalEps is the tolerance on |cos(second angle)| treated as gimbal lock.
const gimbalEps = 1e-9

var (
	axisX = r3.Vec{X: 1}
	axisY = r3.Vec{Y: 1}
	axisZ = r3.Vec{Z: 1}
)

// Identity3 is the 3×3 identity matrix.
var Identity3 = [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

// rotationAbout returns the active rotation by deg degrees about axis.
func rotationAbout(axis r3.Vec, deg float64) [3][3]float64 {
	rot := r3.NewRotation(deg*math.Pi/180, axis)
	var m [3][3]float64
	for j, e := range []r3.Vec{axisX, axisY, axisZ} {
		c := rot.Rotate(e)
		m[0][j], m[1][j], m[2][j] = c.X, c.Y, c.Z
	}
	return m
}

// Compose returns the matrix product ms[0]·ms[1]·…·ms[k].
func Compose(ms ...[3][3]float64) [3][3]float64 {
	acc := denseOf(Identity3)
	for _, m := range ms {
		var next mat.Dense
		next.Mul(acc, denseOf(m))
		acc = &next
	}
	return arrayOf(acc)
}

// Transpose returns mᵀ, the inverse of a rotation matrix.
func Transpose(m [3][3]float64) [3][3]float64 {
	return arrayOf(denseOf(m).T())
}

func denseOf(m [3][3]float64) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		m[0][0], m[0][1], m[0][2],
		m[1][0], m[1][1], m[1][2],
		m[2][0], m[2][1], m[2][2],
	})
}

func arrayOf(a mat.Matrix) [3][3]float64 {
	var m [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i][j] = a.At(i, j)
		}
	}
	return m
}

// FromEuler converts angles in degrees to the canonical matrix.
func FromEuler(conv Convention, angles [3]float64) ([3][3]float64, error) {
	a, b, c := angles[0], angles[1], angles[2]
	switch conv {
	case ConventionRELION:
		return Transpose(Compose(rotationAbout(axisZ, a), rotationAbout(axisY, b), rotationAbout(axisZ, c))), nil
	case ConventionDynamo:
		return Compose(rotationAbout(axisZ, a), rotationAbout(axisX, b), rotationAbout(axisZ, c)), nil
	default:
		return [3][3]float64{}, errors.New(errors.ErrCodeUnsupported, "unknown euler convention %q", conv)
	}
}

// ToEuler converts a canonical matrix to angles in degrees. In gimbal lock the
// third angle is set to zero.
func ToEuler(conv Convention, m [3][3]float64) ([3]float64, error) {
	switch conv {
	case ConventionRELION:
		return decomposeZYZ(Transpose(m)), nil
	case ConventionDynamo:
		return decomposeZXZ(m), nil
	default:
		return [3]float64{}, errors.New(errors.ErrCodeUnsupported, "unknown euler convention %q", conv)
	}
}

// decomposeZYZ inverts M = Rz(a)·Ry(b)·Rz(c).
func decomposeZYZ(m [3][3]float64) [3]float64 {
	cb := clamp(m[2][2])
	b := math.Acos(cb)
	var a, c float64
	switch {
	case math.Abs(cb-1) < gimbalEps:
		a = math.Atan2(m[1][0], m[0][0])
	case math.Abs(cb+1) < gimbalEps:
		a = math.Atan2(-m[1][0], -m[0][0])
	default:
		a = math.Atan2(m[1][2], m[0][2])
		c = math.Atan2(m[2][1], -m[2][0])
	}
	return [3]float64{degrees(a), degrees(b), degrees(c)}
}

// decomposeZXZ inverts M = Rz(a)·Rx(b)·Rz(c).
func decomposeZXZ(m [3][3]float64) [3]float64 {
	cb := clamp(m[2][2])
	b := math.Acos(cb)
	var a, c float64
	if math.Abs(math.Abs(cb)-1) < gimbalEps {
		a = math.Atan2(m[1][0], m[0][0])
	} else {
		a = math.Atan2(m[0][2], -m[1][2])
		c = math.Atan2(m[2][0], m[2][1])
	}
	return [3]float64{degrees(a), degrees(b), degrees(c)}
}

func clamp(v float64) float64 { return math.Max(-1, math.Min(1, v)) }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
