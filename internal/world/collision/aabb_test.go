package collision

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/go-mclib/server/internal/world"
)

func TestIntersectsDetectsOverlap(t *testing.T) {
	a := UnitBlock(world.BlockPos{X: 0, Y: 0, Z: 0})
	b := UnitBlock(world.BlockPos{X: 0, Y: 0, Z: 0})
	if !a.Intersects(b) {
		t.Fatal("identical unit blocks must intersect")
	}
	c := UnitBlock(world.BlockPos{X: 5, Y: 0, Z: 0})
	if a.Intersects(c) {
		t.Fatal("disjoint blocks must not intersect")
	}
}

func TestResolveAxisStopsAtSolidFloor(t *testing.T) {
	player := New(mgl64.Vec3{0.2, 1, 0.2}, mgl64.Vec3{0.8, 2, 0.8}) // standing just above a block top
	floor := UnitBlock(world.BlockPos{X: 0, Y: 0, Z: 0})

	delta := mgl64.Vec3{0, -2, 0} // falling fast
	allowed, blocked := ResolveAxis(player, []AABB{floor}, delta, 1)
	if !blocked {
		t.Fatal("expected floor to block the fall")
	}
	if allowed != 0 {
		t.Fatalf("allowed = %v, want 0 (already resting on floor top)", allowed)
	}
}

func TestResolveAxisAllowsFreeMotion(t *testing.T) {
	player := New(mgl64.Vec3{10, 10, 10}, mgl64.Vec3{10.6, 11.8, 10.6})
	floor := UnitBlock(world.BlockPos{X: 0, Y: 0, Z: 0})

	delta := mgl64.Vec3{0, -1, 0}
	allowed, blocked := ResolveAxis(player, []AABB{floor}, delta, 1)
	if blocked {
		t.Fatal("far-away block should not block motion")
	}
	if allowed != -1 {
		t.Fatalf("allowed = %v, want -1 (unobstructed)", allowed)
	}
}

func TestGrowExpandsEveryAxis(t *testing.T) {
	b := New(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1}).Grow(0.5)
	want := AABB{Min: mgl64.Vec3{-0.5, -0.5, -0.5}, Max: mgl64.Vec3{1.5, 1.5, 1.5}}
	if b != want {
		t.Fatalf("Grow = %+v, want %+v", b, want)
	}
}
