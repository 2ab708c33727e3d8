// Package render prepares mesh data for an external renderer.
//
// Drawing itself is left to the renderer; this package only guarantees that
// what it hands over is complete and consistent.
package render

import (
	"fmt"

	"github.com/taigrr/icosphere/pkg/models"
)

// Stride is the number of float32 components per vertex attribute.
const Stride = 3

// Buffers holds contiguous vertex attributes and indexes for an indexed
// triangle draw call. Positions and Normals are xyz-interleaved per vertex.
//
// Buffers is a snapshot: it does not change when the source mesh is
// subdivided again.
type Buffers struct {
	Positions []float32
	Normals   []float32
	Indices   []uint32
}

// NewBuffers validates m and copies it into GPU-friendly buffers.
func NewBuffers(m models.Mesh) (*Buffers, error) {
	if err := models.ValidateMesh(m); err != nil {
		return nil, fmt.Errorf("render buffers: %w", err)
	}

	vertices := m.GetVertices()
	normals := m.GetNormals()
	b := &Buffers{
		Positions: make([]float32, 0, len(vertices)*Stride),
		Normals:   make([]float32, 0, len(normals)*Stride),
		Indices:   make([]uint32, len(m.GetIndexes())),
	}
	for i, v := range vertices {
		n := normals[i]
		b.Positions = append(b.Positions, float32(v.X), float32(v.Y), float32(v.Z))
		b.Normals = append(b.Normals, float32(n.X), float32(n.Y), float32(n.Z))
	}
	copy(b.Indices, m.GetIndexes())
	return b, nil
}

// VertexCount returns the number of vertices.
func (b *Buffers) VertexCount() int {
	return len(b.Positions) / Stride
}

// IndexCount returns the number of indexes.
func (b *Buffers) IndexCount() int {
	return len(b.Indices)
}

// TriangleCount returns the number of triangles.
func (b *Buffers) TriangleCount() int {
	return len(b.Indices) / 3
}

// Triangle returns the vertex indices for triangle i.
func (b *Buffers) Triangle(i int) [3]uint32 {
	return [3]uint32{b.Indices[i*3], b.Indices[i*3+1], b.Indices[i*3+2]}
}

// Vertex returns the position and normal of vertex i.
func (b *Buffers) Vertex(i int) (pos, normal [3]float32) {
	o := i * Stride
	copy(pos[:], b.Positions[o:o+Stride])
	copy(normal[:], b.Normals[o:o+Stride])
	return pos, normal
}

// SizeBytes returns the total size of all buffers in bytes.
func (b *Buffers) SizeBytes() int {
	return 4 * (len(b.Positions) + len(b.Normals) + len(b.Indices))
}
