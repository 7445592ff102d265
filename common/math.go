package common

import (
	"cmp"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 is a world-space point or vector. [(x, y, z)]
type Vec3 = mgl64.Vec3

type IT interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// / Returns the square of the value.
// / @param[in]		a	The value.
// / @return The square of the value.
func Sqr[T IT](a T) T {
	return a * a
}

func Sqrt(x float64) float64 {
	return math.Sqrt(x)
}

// / Returns the absolute value.
// / @param[in]		a	The value.
// / @return The absolute value of the specified value.
func Abs[T IT](a T) T {
	if a < 0 {
		return -a
	}
	return a
}

// / Clamps the value to the specified range.
// / @param[in]		value			The value to clamp.
// / @param[in]		minInclusive	The minimum permitted return value.
// / @param[in]		maxInclusive	The maximum permitted return value.
// / @return The value, clamped to the specified range.
func Clamp[T cmp.Ordered](value, minInclusive, maxInclusive T) T {
	if value < minInclusive {
		return minInclusive
	}
	if value > maxInclusive {
		return maxInclusive
	}
	return value
}

// Vmin selects the per-component minimum of two vectors.
func Vmin(a, b Vec3) Vec3 {
	return Vec3{min(a[0], b[0]), min(a[1], b[1]), min(a[2], b[2])}
}

// Vmax selects the per-component maximum of two vectors.
func Vmax(a, b Vec3) Vec3 {
	return Vec3{max(a[0], b[0]), max(a[1], b[1]), max(a[2], b[2])}
}

// VsafeNormalize2D squashes v onto the xz-plane and normalizes it when its
// magnitude is not vanishingly small.
func VsafeNormalize2D(v Vec3) Vec3 {
	v[1] = 0
	sqMag := Sqr(v[0]) + Sqr(v[2])
	if sqMag > Epsilon {
		inv := 1.0 / Sqrt(sqMag)
		v[0] *= inv
		v[2] *= inv
	}
	return v
}

const Epsilon = 1e-6

// / Gets the standard width (x-axis) offset for the specified direction.
// / @param[in]		direction		The direction. [Limits: 0 <= value < 4]
// / @return The width offset to apply to the current cell position to move in the direction.
func GetDirOffsetX(direction int) int {
	offset := [4]int{-1, 0, 1, 0}
	return offset[direction&0x03]
}

// / Gets the standard height (z-axis) offset for the specified direction.
// / @param[in]		direction		The direction. [Limits: 0 <= value < 4]
// / @return The height offset to apply to the current cell position to move in the direction.
func GetDirOffsetY(direction int) int {
	offset := [4]int{0, 1, 0, -1}
	return offset[direction&0x03]
}

// PointInPoly reports whether point lies inside the polygon, using the
// xz-plane projection only.
func PointInPoly(verts []Vec3, point Vec3) bool {
	inPoly := false
	for i, j := 0, len(verts)-1; i < len(verts); j, i = i, i+1 {
		vi := verts[i]
		vj := verts[j]
		if (vi[2] > point[2]) == (vj[2] > point[2]) {
			continue
		}
		if point[0] >= (vj[0]-vi[0])*(point[2]-vi[2])/(vj[2]-vi[2])+vi[0] {
			continue
		}
		inPoly = !inPoly
	}
	return inPoly
}
