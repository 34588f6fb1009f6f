// Package collision implements axis-aligned bounding box math and
// simple swept collision resolution against solid blocks, the
// vector/AABB concern named in SPEC_FULL.md's domain-stack table.
package collision

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/go-mclib/server/internal/world"
)

// AABB is an axis-aligned bounding box in world space.
type AABB struct {
	Min, Max mgl64.Vec3
}

// New builds an AABB from two corner points, normalizing min/max
// per-axis so callers don't have to order them.
func New(a, b mgl64.Vec3) AABB {
	return AABB{
		Min: mgl64.Vec3{min(a[0], b[0]), min(a[1], b[1]), min(a[2], b[2])},
		Max: mgl64.Vec3{max(a[0], b[0]), max(a[1], b[1]), max(a[2], b[2])},
	}
}

// UnitBlock returns the full-cube AABB occupying block position p.
func UnitBlock(p world.BlockPos) AABB {
	return AABB{
		Min: mgl64.Vec3{float64(p.X), float64(p.Y), float64(p.Z)},
		Max: mgl64.Vec3{float64(p.X + 1), float64(p.Y + 1), float64(p.Z + 1)},
	}
}

// Grow returns a box expanded by d on every axis (negative d shrinks).
func (a AABB) Grow(d float64) AABB {
	return AABB{
		Min: a.Min.Sub(mgl64.Vec3{d, d, d}),
		Max: a.Max.Add(mgl64.Vec3{d, d, d}),
	}
}

// Translate returns a box offset by delta.
func (a AABB) Translate(delta mgl64.Vec3) AABB {
	return AABB{Min: a.Min.Add(delta), Max: a.Max.Add(delta)}
}

// Intersects reports whether the two boxes overlap on every axis.
func (a AABB) Intersects(b AABB) bool {
	return a.Min[0] < b.Max[0] && a.Max[0] > b.Min[0] &&
		a.Min[1] < b.Max[1] && a.Max[1] > b.Min[1] &&
		a.Min[2] < b.Max[2] && a.Max[2] > b.Min[2]
}

// axis selects one component of a mgl64.Vec3 by index (0=x, 1=y, 2=z).
func axis(v mgl64.Vec3, i int) float64 { return v[i] }

// SweepAxis computes the maximum fraction of `delta` (a motion purely
// along one axis, delta[otherAxes]==0) that `moving` can travel before
// it would start overlapping `blocker` on that axis, clamped to the
// input delta. It assumes moving and blocker already overlap on the
// other two axes (callers test those independently, matching Notchian
// per-axis sweep-and-resolve movement).
func SweepAxis(moving, blocker AABB, delta mgl64.Vec3, ax int) float64 {
	d := axis(delta, ax)
	if d == 0 {
		return 0
	}
	if d > 0 {
		gap := axis(blocker.Min, ax) - axis(moving.Max, ax)
		if gap < 0 {
			return 0
		}
		if gap < d {
			return gap
		}
		return d
	}
	gap := axis(blocker.Max, ax) - axis(moving.Min, ax)
	if gap > 0 {
		return 0
	}
	if gap > d {
		return gap
	}
	return d
}

// ResolveAxis clamps motion along axis ax to the nearest blocking box in
// blockers, returning the allowed distance travelled (same sign as
// delta[ax], magnitude <= |delta[ax]|) and whether any blocker clipped
// it.
func ResolveAxis(moving AABB, blockers []AABB, delta mgl64.Vec3, ax int) (allowed float64, blocked bool) {
	allowed = axis(delta, ax)
	if allowed == 0 {
		return 0, false
	}
	moved := moving.Translate(scaleAxis(delta, ax, 1))
	for _, b := range blockers {
		// Only blocks the moving box already overlaps on the other two
		// axes can clip this axis's motion.
		test := moved
		if !overlapsOtherAxes(test, b, ax) {
			continue
		}
		d := SweepAxis(moving, b, scaleAxis(delta, ax, 1), ax)
		if allowed > 0 && d < allowed {
			allowed = d
			blocked = true
		} else if allowed < 0 && d > allowed {
			allowed = d
			blocked = true
		}
	}
	return allowed, blocked
}

func scaleAxis(v mgl64.Vec3, ax int, scale float64) mgl64.Vec3 {
	out := mgl64.Vec3{}
	out[ax] = v[ax] * scale
	return out
}

func overlapsOtherAxes(a, b AABB, skip int) bool {
	for i := 0; i < 3; i++ {
		if i == skip {
			continue
		}
		if !(a.Min[i] < b.Max[i] && a.Max[i] > b.Min[i]) {
			return false
		}
	}
	return true
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
