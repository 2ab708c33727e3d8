package models

import (
	"fmt"

	"github.com/taigrr/icosphere/pkg/math3d"
)

// FaceNormal returns the outward unit normal of triangle (v0, v1, v2),
// -normalize((v2-v0) × (v1-v0)). A zero-area triangle returns ErrDegenerate.
func FaceNormal(v0, v1, v2 math3d.Vec3) (math3d.Vec3, error) {
	edge1 := v2.Sub(v0)
	edge2 := v1.Sub(v0)
	cross := edge1.Cross(edge2)

	l := cross.Len()
	if l == 0 || !cross.IsFinite() {
		return math3d.Vec3{}, ErrDegenerate
	}
	return cross.Normalize().Negate(), nil
}

// vertexTriangles builds the vertex -> incident triangle index.
func vertexTriangles(indexes []uint32, vertexCount int) [][]uint32 {
	links := make([][]uint32, vertexCount)
	for i, idx := range indexes {
		links[idx] = append(links[idx], uint32(i/3))
	}
	return links
}

// ComputeNormals returns one normal per vertex and one per face.
//
// Vertex normals are the arithmetic mean of the incident face normals and
// are not renormalized, so they are shorter than 1 wherever the incident
// faces disagree.
func ComputeNormals(vertices []math3d.Vec3, indexes []uint32) (vertexNormals, faceNormals []math3d.Vec3, err error) {
	if err := checkIndexes(indexes, len(vertices)); err != nil {
		return nil, nil, err
	}

	faceNormals = make([]math3d.Vec3, len(indexes)/3)
	for t := range faceNormals {
		base := t * 3
		n, err := FaceNormal(
			vertices[indexes[base]],
			vertices[indexes[base+1]],
			vertices[indexes[base+2]],
		)
		if err != nil {
			return nil, nil, fmt.Errorf("face %d: %w", t, err)
		}
		faceNormals[t] = n
	}

	links := vertexTriangles(indexes, len(vertices))
	vertexNormals = make([]math3d.Vec3, len(vertices))
	for v, tris := range links {
		if len(tris) == 0 {
			return nil, nil, fmt.Errorf("vertex %d: %w", v, ErrOrphanVertex)
		}
		sum := math3d.Zero3()
		for _, t := range tris {
			sum = sum.Add(faceNormals[t])
		}
		vertexNormals[v] = sum.Div(float64(len(tris)))
	}

	return vertexNormals, faceNormals, nil
}
