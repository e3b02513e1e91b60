// Package hyper provides coordinates and the distance metric for the
// Poincaré-disk model of hyperbolic space.
//
// Points are stored in polar form (radius r, angle θ). Distances between
// points follow the hyperbolic law of cosines, which makes radially distant
// pairs far more expensive to connect than Euclidean intuition suggests:
// a threshold graph over such points develops dense local neighborhoods plus
// rare long-range shortcuts, the topology this project wants for synthetic
// metropolitan road networks.
//
// Sampling is area-uniform. The hyperbolic area element grows as sinh(r), so
// radii are drawn through the inverse CDF of that density rather than
// uniformly; drawing r uniformly would overcrowd the disk center.
package hyper

import (
	"errors"
	"math"
	"math/rand/v2"
)

// ErrRadiusBound is returned by [SamplePoint] when the radius bound is not a
// positive finite number.
var ErrRadiusBound = errors.New("radius bound must be positive and finite")

// Point is a location in the Poincaré disk, polar form.
// R is the hyperbolic radial coordinate, Theta the angle in [0, 2π).
type Point struct {
	R     float64 `json:"r" bson:"r"`
	Theta float64 `json:"theta" bson:"theta"`
}

// XY projects the point onto Cartesian plot coordinates.
// The projection is for rendering only; distances must always go through
// [Distance], never through Euclidean math on these values.
func (p Point) XY() (x, y float64) {
	return p.R * math.Cos(p.Theta), p.R * math.Sin(p.Theta)
}

// SamplePoint draws one area-uniform point from the hyperbolic disk of the
// given radius bound using the caller's seeded RNG.
//
// The radial coordinate is drawn via the inverse CDF of the sinh(r) density
// restricted to [0, bound):
//
//	r = acosh(1 + u·(cosh(bound) − 1)),  u ~ U[0, 1)
//
// and θ uniformly in [0, 2π). The RNG is consumed exactly twice (r first,
// then θ), so generation stays reproducible for a fixed seed.
func SamplePoint(rng *rand.Rand, bound float64) (Point, error) {
	if !(bound > 0) || math.IsInf(bound, 1) {
		return Point{}, ErrRadiusBound
	}
	u := rng.Float64()
	r := math.Acosh(1 + u*(math.Cosh(bound)-1))
	theta := 2 * math.Pi * rng.Float64()
	return Point{R: r, Theta: theta}, nil
}

// Distance returns the hyperbolic distance between two points via the
// hyperbolic law of cosines:
//
//	cosh(d) = cosh(r1)·cosh(r2) − sinh(r1)·sinh(r2)·cos(θ1 − θ2)
//
// The cosh argument is clamped to 1 before acosh: for identical or
// near-identical points floating error can push it fractionally below 1,
// which is a legitimate zero-distance outcome, not an error. The result is
// symmetric, non-negative, zero iff the points coincide, and satisfies the
// triangle inequality.
func Distance(a, b Point) float64 {
	if a == b {
		return 0
	}
	coshD := math.Cosh(a.R)*math.Cosh(b.R) - math.Sinh(a.R)*math.Sinh(b.R)*math.Cos(a.Theta-b.Theta)
	if coshD < 1 {
		coshD = 1
	}
	return math.Acosh(coshD)
}
