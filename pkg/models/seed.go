package models

import (
	"math"

	"github.com/taigrr/icosphere/pkg/math3d"
)

// SeedRadius is the circumradius of the seed icosahedron. Every vertex the
// generator produces lies at this distance from the origin.
var SeedRadius = math.Sqrt(5) / 2

// Seed vertex layout.
const (
	seedRingSize   = 5
	seedUpperRing  = 0
	seedLowerRing  = 5
	seedTopApex    = 10
	seedBottomApex = 11

	SeedVertexCount   = 12
	SeedTriangleCount = 20
	SeedEdgeCount     = 30
)

// Seed returns the 12 vertices and 20 triangles of the seed icosahedron.
//
// The upper ring sits at z=+0.5 starting at angle 0, the lower ring at z=-0.5
// rotated by half a step, both with radius 1. The apexes sit at z=±√5/2 so all
// twelve points share the circumradius SeedRadius. Triangles wind so that
// -((v2-v0) × (v1-v0)) points away from the origin.
func Seed() ([]math3d.Vec3, []uint32) {
	vertices := make([]math3d.Vec3, 0, SeedVertexCount)

	step := 2 * math.Pi / seedRingSize
	for i := range seedRingSize {
		angle := float64(i) * step
		vertices = append(vertices, math3d.V3(math.Cos(angle), math.Sin(angle), 0.5))
	}
	for i := range seedRingSize {
		angle := step/2 + float64(i)*step
		vertices = append(vertices, math3d.V3(math.Cos(angle), math.Sin(angle), -0.5))
	}
	vertices = append(vertices,
		math3d.V3(0, 0, SeedRadius),
		math3d.V3(0, 0, -SeedRadius),
	)

	indexes := make([]uint32, 0, SeedTriangleCount*3)
	for i := 1; i <= seedRingSize; i++ {
		a := uint32(i - 1)
		b := uint32(i % seedRingSize)
		indexes = append(indexes,
			// upper ring edge down to the lower ring
			seedUpperRing+b, seedUpperRing+a, seedLowerRing+a,
			// upper ring edge up to the top apex
			seedTopApex, seedUpperRing+a, seedUpperRing+b,
			// diagonal strip between the rings
			seedUpperRing+b, seedLowerRing+a, seedLowerRing+b,
			// lower ring edge down to the bottom apex
			seedLowerRing+b, seedLowerRing+a, seedBottomApex,
		)
	}

	return vertices, indexes
}
