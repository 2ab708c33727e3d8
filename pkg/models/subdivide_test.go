package models

import (
	"errors"
	"math"
	"testing"

	"github.com/taigrr/icosphere/pkg/math3d"
)

func subdivideSeed(t *testing.T, passes int, opts SubdivideOptions) ([]math3d.Vec3, []uint32) {
	t.Helper()
	vertices, indexes := Seed()
	for p := range passes {
		var err error
		vertices, indexes, err = Subdivide(vertices, indexes, opts)
		if err != nil {
			t.Fatalf("pass %d: Subdivide: %v", p+1, err)
		}
	}
	return vertices, indexes
}

func TestSubdivideOnePass(t *testing.T) {
	vertices, indexes := subdivideSeed(t, 1, SubdivideOptions{})
	if len(vertices) != 42 {
		t.Errorf("vertex count = %d, want 42", len(vertices))
	}
	if len(indexes) != 80*3 {
		t.Errorf("triangle count = %d, want 80", len(indexes)/3)
	}
}

func TestSubdivideCounts(t *testing.T) {
	for p := 0; p <= 4; p++ {
		vertices, indexes := subdivideSeed(t, p, SubdivideOptions{})

		if got, want := len(indexes)/3, ExpectedTriangles(p); got != want {
			t.Errorf("P=%d: triangles = %d, want %d", p, got, want)
		}
		if len(indexes)%3 != 0 {
			t.Errorf("P=%d: index count %d not a multiple of 3", p, len(indexes))
		}
		if got, want := len(vertices), ExpectedVertices(p); got != want {
			t.Errorf("P=%d: vertices = %d, want %d", p, got, want)
		}
		edges := EdgeCount(indexes)
		if want := ExpectedEdges(p); edges != want {
			t.Errorf("P=%d: edges = %d, want %d", p, edges, want)
		}
		if euler := len(vertices) - edges + len(indexes)/3; euler != 2 {
			t.Errorf("P=%d: Euler characteristic = %d, want 2", p, euler)
		}
	}
}

func TestSubdivideGrowthEqualsEdgeCount(t *testing.T) {
	vertices, indexes := Seed()
	for p := 1; p <= 3; p++ {
		edges := EdgeCount(indexes)
		next, nextIdx, err := Subdivide(vertices, indexes, SubdivideOptions{})
		if err != nil {
			t.Fatalf("Subdivide: %v", err)
		}
		if grown := len(next) - len(vertices); grown != edges {
			t.Errorf("pass %d: vertex growth = %d, want %d (edge count)", p, grown, edges)
		}
		if len(nextIdx) != 4*len(indexes) {
			t.Errorf("pass %d: index count = %d, want %d", p, len(nextIdx), 4*len(indexes))
		}
		vertices, indexes = next, nextIdx
	}
}

func TestSubdivideProjectsOntoSphere(t *testing.T) {
	vertices, _ := subdivideSeed(t, 4, SubdivideOptions{})
	for i, v := range vertices {
		if d := math.Abs(v.Len() - SeedRadius); d > 1e-12 {
			t.Fatalf("vertex %d at radius %v, off by %g", i, v.Len(), d)
		}
	}
}

func TestSubdivideNoDuplicateVertices(t *testing.T) {
	for _, keying := range []MidpointKeying{KeyByEdge, KeyByPosition} {
		t.Run(keying.String(), func(t *testing.T) {
			vertices, _ := subdivideSeed(t, 3, SubdivideOptions{Keying: keying, Tolerance: DefaultTolerance})
			seen := make(map[quantizedKey]int)
			for i, v := range vertices {
				key := quantizePosition(v, 1e-9)
				if j, ok := seen[key]; ok {
					t.Fatalf("vertices %d and %d share position %v", j, i, v)
				}
				seen[key] = i
			}
			if len(seen) != ExpectedVertices(3) {
				t.Errorf("distinct positions = %d, want %d", len(seen), ExpectedVertices(3))
			}
		})
	}
}

func TestSubdivideSharedEdgeUsesSameMidpoint(t *testing.T) {
	vertices, indexes := Seed()
	// Triangles 0 (1,0,5) and 1 (10,0,1) share edge 0-1 in opposite directions.
	_, out, err := Subdivide(vertices, indexes, SubdivideOptions{})
	if err != nil {
		t.Fatalf("Subdivide: %v", err)
	}
	// Edge 1->0 is the first edge of triangle 0; edge 0->1 the second of triangle 1.
	if out[0] != out[3+1] {
		t.Errorf("shared edge midpoints differ: %d vs %d", out[0], out[4])
	}
}

func TestSubdivideKeyingsAgree(t *testing.T) {
	for p := 1; p <= 4; p++ {
		ve, ie := subdivideSeed(t, p, SubdivideOptions{Keying: KeyByEdge})
		vp, ip := subdivideSeed(t, p, SubdivideOptions{Keying: KeyByPosition, Tolerance: DefaultTolerance})
		if len(ve) != len(vp) || len(ie) != len(ip) {
			t.Fatalf("P=%d: sizes differ: edge %d/%d, position %d/%d", p, len(ve), len(ie), len(vp), len(ip))
		}
		for i := range ie {
			if ie[i] != ip[i] {
				t.Fatalf("P=%d: index %d differs: %d vs %d", p, i, ie[i], ip[i])
			}
		}
		for i := range ve {
			if ve[i] != vp[i] {
				t.Fatalf("P=%d: vertex %d differs: %v vs %v", p, i, ve[i], vp[i])
			}
		}
	}
}

func TestSubdivideLayout(t *testing.T) {
	r := SeedRadius
	vertices := []math3d.Vec3{
		math3d.V3(r, 0, 0),
		math3d.V3(0, r, 0),
		math3d.V3(0, 0, r),
	}
	indexes := []uint32{0, 1, 2}

	outV, outI, err := Subdivide(vertices, indexes, SubdivideOptions{})
	if err != nil {
		t.Fatalf("Subdivide: %v", err)
	}
	want := []uint32{
		3, 4, 5, // center
		0, 3, 5, // corner at v0
		1, 4, 3, // corner at v1
		2, 5, 4, // corner at v2
	}
	if len(outI) != len(want) {
		t.Fatalf("indexes = %v, want %v", outI, want)
	}
	for i := range want {
		if outI[i] != want[i] {
			t.Fatalf("indexes = %v, want %v", outI, want)
		}
	}
	if len(outV) != 6 {
		t.Fatalf("vertex count = %d, want 6", len(outV))
	}
	wantMid := math3d.V3(1, 1, 0).Normalize().Scale(r)
	if !outV[3].ApproxEqual(wantMid, 1e-12) {
		t.Errorf("midpoint 0-1 = %v, want %v", outV[3], wantMid)
	}

	// Winding is preserved: every child normal agrees with the parent's.
	parent, _ := FaceNormal(vertices[0], vertices[1], vertices[2])
	for c := 0; c < len(outI); c += 3 {
		n, err := FaceNormal(outV[outI[c]], outV[outI[c+1]], outV[outI[c+2]])
		if err != nil {
			t.Fatalf("child %d: %v", c/3, err)
		}
		if n.Dot(parent) <= 0 {
			t.Errorf("child %d normal %v flips parent %v", c/3, n, parent)
		}
	}
}

func TestSubdivideLeavesInputUntouched(t *testing.T) {
	vertices, indexes := Seed()
	origV := append([]math3d.Vec3(nil), vertices...)
	origI := append([]uint32(nil), indexes...)

	if _, _, err := Subdivide(vertices, indexes, SubdivideOptions{}); err != nil {
		t.Fatalf("Subdivide: %v", err)
	}
	for i := range origV {
		if vertices[i] != origV[i] {
			t.Fatalf("vertex %d modified", i)
		}
	}
	for i := range origI {
		if indexes[i] != origI[i] {
			t.Fatalf("index %d modified", i)
		}
	}
}

func TestSubdivideCustomRadius(t *testing.T) {
	vertices, indexes := Seed()
	out, _, err := Subdivide(vertices, indexes, SubdivideOptions{Radius: 3})
	if err != nil {
		t.Fatalf("Subdivide: %v", err)
	}
	for _, v := range out[SeedVertexCount:] {
		if math.Abs(v.Len()-3) > 1e-12 {
			t.Fatalf("new vertex radius = %v, want 3", v.Len())
		}
	}
}

func TestSubdivideErrors(t *testing.T) {
	square := []math3d.Vec3{
		math3d.V3(1, 0, 0),
		math3d.V3(0, 1, 0),
		math3d.V3(0, 0, 1),
		math3d.V3(0, 0, -1),
		math3d.V3(1, 1, 1),
	}
	tests := []struct {
		name     string
		vertices []math3d.Vec3
		indexes  []uint32
		opts     SubdivideOptions
		want     error
	}{
		{"not a multiple of 3", square, []uint32{0, 1, 2, 3}, SubdivideOptions{}, ErrMalformedIndexes},
		{"index out of range", square, []uint32{0, 1, 9}, SubdivideOptions{}, ErrIndexOutOfRange},
		{"three triangles on one edge", square, []uint32{0, 1, 2, 1, 0, 3, 0, 1, 4}, SubdivideOptions{}, ErrNonManifoldEdge},
		{
			"midpoint at origin",
			[]math3d.Vec3{math3d.V3(1, 0, 0), math3d.V3(-1, 0, 0), math3d.V3(0, 1, 0)},
			[]uint32{0, 1, 2},
			SubdivideOptions{},
			ErrDegenerate,
		},
		{"coarse tolerance merges edges", square, []uint32{0, 1, 2, 1, 0, 3}, SubdivideOptions{Keying: KeyByPosition, Tolerance: 100}, ErrNonManifoldEdge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Subdivide(tt.vertices, tt.indexes, tt.opts)
			if !errors.Is(err, tt.want) {
				t.Errorf("Subdivide error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseMidpointKeying(t *testing.T) {
	tests := []struct {
		in      string
		want    MidpointKeying
		wantErr bool
	}{
		{"", KeyByEdge, false},
		{"edge", KeyByEdge, false},
		{"Position", KeyByPosition, false},
		{"pos", KeyByPosition, false},
		{"float", KeyByEdge, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMidpointKeying(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMidpointKeying(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMidpointKeying(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestExpectedCounts(t *testing.T) {
	tests := []struct {
		p                  int
		tris, verts, edges int
	}{
		{0, 20, 12, 30},
		{1, 80, 42, 120},
		{2, 320, 162, 480},
		{3, 1280, 642, 1920},
	}
	for _, tt := range tests {
		if got := ExpectedTriangles(tt.p); got != tt.tris {
			t.Errorf("ExpectedTriangles(%d) = %d, want %d", tt.p, got, tt.tris)
		}
		if got := ExpectedVertices(tt.p); got != tt.verts {
			t.Errorf("ExpectedVertices(%d) = %d, want %d", tt.p, got, tt.verts)
		}
		if got := ExpectedEdges(tt.p); got != tt.edges {
			t.Errorf("ExpectedEdges(%d) = %d, want %d", tt.p, got, tt.edges)
		}
	}
}
