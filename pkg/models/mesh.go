// Package models builds geodesic sphere meshes and exports them as STL.
package models

import (
	"fmt"
	"math"

	"fortio.org/log"
	"github.com/taigrr/icosphere/pkg/math3d"
)

// Mesh is the read-only query interface shared by exporters and renderers.
// The returned slices are the live buffers; callers must not modify them and
// must not hold them across a mutation of the producer.
type Mesh interface {
	GetVertices() []math3d.Vec3
	GetNormals() []math3d.Vec3
	GetIndexes() []uint32
	GetFaceNormals() []math3d.Vec3
}

// Icosphere is a geodesic sphere built by subdividing the seed icosahedron.
type Icosphere struct {
	Name string

	// Options for subsequent IncreaseApproximation calls.
	Keying    MidpointKeying
	Tolerance float64
	OnPass    func(pass, total int) // called after each completed pass

	vertices    []math3d.Vec3
	indexes     []uint32
	normals     []math3d.Vec3
	faceNormals []math3d.Vec3
	passes      int
}

// NewIcosphere creates the seed icosahedron with its normals computed.
func NewIcosphere(name string) *Icosphere {
	vertices, indexes := Seed()
	normals, faceNormals, err := ComputeNormals(vertices, indexes)
	if err != nil {
		panic(fmt.Sprintf("seed icosahedron: %v", err))
	}
	return &Icosphere{
		Name:        name,
		Keying:      KeyByEdge,
		Tolerance:   DefaultTolerance,
		vertices:    vertices,
		indexes:     indexes,
		normals:     normals,
		faceNormals: faceNormals,
	}
}

// GetVertices returns the vertex positions.
func (s *Icosphere) GetVertices() []math3d.Vec3 {
	return s.vertices
}

// GetNormals returns the per-vertex normals.
func (s *Icosphere) GetNormals() []math3d.Vec3 {
	return s.normals
}

// GetIndexes returns the flat triangle index buffer.
func (s *Icosphere) GetIndexes() []uint32 {
	return s.indexes
}

// GetFaceNormals returns one unit normal per triangle.
func (s *Icosphere) GetFaceNormals() []math3d.Vec3 {
	return s.faceNormals
}

// IncreaseApproximation runs the given number of subdivision passes, then
// recomputes all normals once. Zero passes only recomputes the normals.
//
// Every pass works on fresh buffers and the result is committed only when
// all passes and the normal computation succeed, so on error the mesh keeps
// its previous state and previously returned slices stay valid.
func (s *Icosphere) IncreaseApproximation(passes int) error {
	if passes < 0 {
		return fmt.Errorf("increase approximation by %d: %w", passes, ErrNegativePasses)
	}

	opts := SubdivideOptions{
		Keying:    s.Keying,
		Tolerance: s.Tolerance,
		Radius:    SeedRadius,
	}
	vertices, indexes := s.vertices, s.indexes
	for p := 1; p <= passes; p++ {
		var err error
		vertices, indexes, err = Subdivide(vertices, indexes, opts)
		if err != nil {
			return fmt.Errorf("subdivision pass %d/%d: %w", p, passes, err)
		}
		log.LogVf("%s: pass %d/%d: %d vertices, %d triangles", s.Name, p, passes, len(vertices), len(indexes)/3)
		if s.OnPass != nil {
			s.OnPass(p, passes)
		}
	}

	normals, faceNormals, err := ComputeNormals(vertices, indexes)
	if err != nil {
		return fmt.Errorf("compute normals: %w", err)
	}

	s.vertices = vertices
	s.indexes = indexes
	s.normals = normals
	s.faceNormals = faceNormals
	s.passes += passes
	return nil
}

// Passes returns the total number of subdivision passes applied so far.
func (s *Icosphere) Passes() int {
	return s.passes
}

// TriangleCount returns the number of triangles.
func (s *Icosphere) TriangleCount() int {
	return len(s.indexes) / 3
}

// VertexCount returns the number of vertices.
func (s *Icosphere) VertexCount() int {
	return len(s.vertices)
}

// EdgeCount returns the number of distinct edges.
func (s *Icosphere) EdgeCount() int {
	return EdgeCount(s.indexes)
}

// EulerCharacteristic returns V - E + F, which is 2 for a closed sphere.
func (s *Icosphere) EulerCharacteristic() int {
	return s.VertexCount() - s.EdgeCount() + s.TriangleCount()
}

// Bounds returns the axis-aligned bounding box.
func (s *Icosphere) Bounds() (minV, maxV math3d.Vec3) {
	if len(s.vertices) == 0 {
		return math3d.Zero3(), math3d.Zero3()
	}
	minV, maxV = s.vertices[0], s.vertices[0]
	for _, v := range s.vertices[1:] {
		minV = minV.Min(v)
		maxV = maxV.Max(v)
	}
	return minV, maxV
}

// MaxRadiusError returns the largest deviation of any vertex from SeedRadius.
func (s *Icosphere) MaxRadiusError() float64 {
	worst := 0.0
	for _, v := range s.vertices {
		worst = math.Max(worst, math.Abs(v.Len()-SeedRadius))
	}
	return worst
}

// Validate checks the buffers for internal consistency.
func (s *Icosphere) Validate() error {
	return ValidateMesh(s)
}

// Clone creates a deep copy of the mesh. OnPass is not copied.
func (s *Icosphere) Clone() *Icosphere {
	clone := &Icosphere{
		Name:        s.Name,
		Keying:      s.Keying,
		Tolerance:   s.Tolerance,
		vertices:    make([]math3d.Vec3, len(s.vertices)),
		indexes:     make([]uint32, len(s.indexes)),
		normals:     make([]math3d.Vec3, len(s.normals)),
		faceNormals: make([]math3d.Vec3, len(s.faceNormals)),
		passes:      s.passes,
	}
	copy(clone.vertices, s.vertices)
	copy(clone.indexes, s.indexes)
	copy(clone.normals, s.normals)
	copy(clone.faceNormals, s.faceNormals)
	return clone
}

// ValidateMesh verifies that a mesh can be handed to an exporter or renderer:
// the index buffer is well formed and in range, there is one face normal per
// triangle and one normal per vertex, and no attribute is NaN or infinite.
func ValidateMesh(m Mesh) error {
	vertices := m.GetVertices()
	indexes := m.GetIndexes()
	if err := checkIndexes(indexes, len(vertices)); err != nil {
		return err
	}
	if n := len(m.GetFaceNormals()); n*3 != len(indexes) {
		return fmt.Errorf("%d face normals for %d triangles: %w", n, len(indexes)/3, ErrInconsistentMesh)
	}
	if n := len(m.GetNormals()); n != len(vertices) {
		return fmt.Errorf("%d vertex normals for %d vertices: %w", n, len(vertices), ErrInconsistentMesh)
	}
	for i, v := range vertices {
		if !v.IsFinite() {
			return fmt.Errorf("vertex %d is %v: %w", i, v, ErrInconsistentMesh)
		}
	}
	for i, n := range m.GetFaceNormals() {
		if !n.IsFinite() {
			return fmt.Errorf("face normal %d is %v: %w", i, n, ErrInconsistentMesh)
		}
	}
	return nil
}
