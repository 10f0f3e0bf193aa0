package trilateration

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/samirrijal/pinpoint/internal/core/domain"
)

// Solve returns the single point consistent with all three circles.
//
// A local basis is built with its origin at a's centre, ex pointing at b and
// ey towards c. The third circle is folded into the y coordinate directly, so
// the result is unique. Radii are not checked for consistency: circles with
// no common point still produce a well defined answer.
func Solve(a, b, c domain.Circle) (domain.PlanarPoint, error) {
	pa, pb, pc := vec(a.Center), vec(b.Center), vec(c.Center)

	ab := r2.Sub(pb, pa)
	d := r2.Norm(ab)
	if d == 0 {
		return domain.PlanarPoint{}, domain.ErrDegenerateBaseline
	}
	ex := unit(ab, d)

	ac := r2.Sub(pc, pa)
	i := r2.Dot(ex, ac)
	perp := r2.Sub(ac, r2.Scale(i, ex))
	j := r2.Norm(perp)
	if j == 0 {
		return domain.PlanarPoint{}, domain.ErrDegenerateConfiguration
	}
	ey := unit(perp, j)

	ra, rb, rc := a.Radius, b.Radius, c.Radius
	x := (ra*ra - rb*rb + d*d) / (2 * d)
	y := (ra*ra - rc*rc + i*i + j*j - 2*i*x) / (2 * j)

	res := r2.Add(pa, r2.Add(r2.Scale(x, ex), r2.Scale(y, ey)))
	return domain.PlanarPoint{X: res.X, Y: res.Y}, nil
}

// unit divides v by its norm n. Axis-aligned directions come out exact, so
// a third point on the baseline leaves j == 0.
func unit(v r2.Vec, n float64) r2.Vec {
	return r2.Vec{X: v.X / n, Y: v.Y / n}
}

func vec(p domain.PlanarPoint) r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}
