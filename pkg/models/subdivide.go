package models

import (
	"fmt"
	"math"
	"strings"

	"github.com/taigrr/icosphere/pkg/math3d"
)

// MidpointKeying selects how the midpoints created during a subdivision pass
// are matched between the two triangles sharing an edge.
type MidpointKeying int

const (
	// KeyByEdge keys midpoints by the unordered pair of endpoint indices.
	// Matching is exact.
	KeyByEdge MidpointKeying = iota
	// KeyByPosition keys midpoints by their raw (unprojected) position,
	// quantized to Tolerance.
	KeyByPosition
)

// DefaultTolerance is the position tolerance used by KeyByPosition.
const DefaultTolerance = 1e-6

func (k MidpointKeying) String() string {
	switch k {
	case KeyByEdge:
		return "edge"
	case KeyByPosition:
		return "position"
	default:
		return fmt.Sprintf("MidpointKeying(%d)", int(k))
	}
}

// ParseMidpointKeying parses "edge" or "position".
func ParseMidpointKeying(s string) (MidpointKeying, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "edge":
		return KeyByEdge, nil
	case "position", "pos":
		return KeyByPosition, nil
	default:
		return KeyByEdge, fmt.Errorf("unknown midpoint keying %q (use edge or position)", s)
	}
}

// SubdivideOptions controls a single subdivision pass.
type SubdivideOptions struct {
	Keying    MidpointKeying
	Tolerance float64 // KeyByPosition only; 0 selects an almost exact match
	Radius    float64 // projection radius; 0 means SeedRadius
}

// edgeKey identifies an edge independently of its direction.
type edgeKey struct {
	a, b uint32
}

func makeEdgeKey(a, b uint32) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// quantizedKey creates a hashable key from a position by quantizing to a grid.
type quantizedKey struct {
	x, y, z int64
}

func quantizePosition(pos math3d.Vec3, tolerance float64) quantizedKey {
	if tolerance <= 0 {
		tolerance = 1e-12
	}
	scale := 1.0 / tolerance
	return quantizedKey{
		x: int64(math.Round(pos.X * scale)),
		y: int64(math.Round(pos.Y * scale)),
		z: int64(math.Round(pos.Z * scale)),
	}
}

// midpointKey holds exactly one of its fields, depending on the keying.
type midpointKey struct {
	edge edgeKey
	pos  quantizedKey
}

type midpointEntry struct {
	index uint32
	uses  int
}

// midpointCache lives for one pass and has a single writer.
type midpointCache struct {
	keying    MidpointKeying
	tolerance float64
	entries   map[midpointKey]*midpointEntry
}

func newMidpointCache(opts SubdivideOptions, edgeHint int) *midpointCache {
	return &midpointCache{
		keying:    opts.Keying,
		tolerance: opts.Tolerance,
		entries:   make(map[midpointKey]*midpointEntry, edgeHint),
	}
}

func (c *midpointCache) key(a, b uint32, mid math3d.Vec3) midpointKey {
	if c.keying == KeyByPosition {
		return midpointKey{pos: quantizePosition(mid, c.tolerance)}
	}
	return midpointKey{edge: makeEdgeKey(a, b)}
}

// checkIndexes verifies the index buffer shape and bounds.
func checkIndexes(indexes []uint32, vertexCount int) error {
	if len(indexes)%3 != 0 {
		return fmt.Errorf("%d indexes: %w", len(indexes), ErrMalformedIndexes)
	}
	for i, idx := range indexes {
		if int(idx) >= vertexCount {
			return fmt.Errorf("triangle %d references vertex %d of %d: %w", i/3, idx, vertexCount, ErrIndexOutOfRange)
		}
	}
	return nil
}

// Subdivide splits every triangle into four and returns new vertex and index
// buffers. The inputs are only read.
//
// Triangle k of the output keeps slot k and becomes the center child built
// from the three edge midpoints. The three corner children of every input
// triangle follow all centers, in input order, each made of one original
// corner and its two adjacent midpoints. Winding is preserved. Midpoints are
// projected onto the sphere of opts.Radius and shared between the two
// triangles of an edge, so a closed input of T triangles and E edges yields
// 4T triangles and V+E vertices.
func Subdivide(vertices []math3d.Vec3, indexes []uint32, opts SubdivideOptions) ([]math3d.Vec3, []uint32, error) {
	if err := checkIndexes(indexes, len(vertices)); err != nil {
		return nil, nil, err
	}
	radius := opts.Radius
	if radius == 0 {
		radius = SeedRadius
	}

	triCount := len(indexes) / 3
	edgeHint := triCount * 3 / 2

	outVertices := make([]math3d.Vec3, len(vertices), len(vertices)+edgeHint)
	copy(outVertices, vertices)
	outIndexes := make([]uint32, len(indexes), len(indexes)*4)

	cache := newMidpointCache(opts, edgeHint)

	for t := range triCount {
		base := t * 3
		old := [3]uint32{indexes[base], indexes[base+1], indexes[base+2]}

		var mids [3]uint32
		for i := range 3 {
			a, b := old[i], old[(i+1)%3]
			mid := vertices[a].Midpoint(vertices[b])
			key := cache.key(a, b, mid)

			if entry, ok := cache.entries[key]; ok {
				entry.uses++
				if entry.uses > 2 {
					return nil, nil, fmt.Errorf("edge %d-%d in triangle %d: %w", a, b, t, ErrNonManifoldEdge)
				}
				mids[i] = entry.index
				continue
			}

			l := mid.Len()
			if l == 0 {
				return nil, nil, fmt.Errorf("midpoint of edge %d-%d is at the origin: %w", a, b, ErrDegenerate)
			}
			if uint64(len(outVertices)) >= math.MaxUint32 {
				return nil, nil, ErrTooManyVertices
			}
			idx := uint32(len(outVertices))
			outVertices = append(outVertices, mid.Scale(radius/l))
			cache.entries[key] = &midpointEntry{index: idx, uses: 1}
			mids[i] = idx
		}

		outIndexes[base] = mids[0]
		outIndexes[base+1] = mids[1]
		outIndexes[base+2] = mids[2]
		for i := range 3 {
			outIndexes = append(outIndexes, old[i], mids[i], mids[(i+2)%3])
		}
	}

	return outVertices, outIndexes, nil
}

// EdgeCount returns the number of distinct undirected edges in an index buffer.
func EdgeCount(indexes []uint32) int {
	edges := make(map[edgeKey]struct{}, len(indexes)/2)
	for t := 0; t+2 < len(indexes); t += 3 {
		edges[makeEdgeKey(indexes[t], indexes[t+1])] = struct{}{}
		edges[makeEdgeKey(indexes[t+1], indexes[t+2])] = struct{}{}
		edges[makeEdgeKey(indexes[t+2], indexes[t])] = struct{}{}
	}
	return len(edges)
}

// ExpectedTriangles returns the triangle count after p passes on the seed.
func ExpectedTriangles(p int) int {
	return SeedTriangleCount << (2 * p)
}

// ExpectedEdges returns the edge count after p passes on the seed.
func ExpectedEdges(p int) int {
	return SeedEdgeCount << (2 * p)
}

// ExpectedVertices returns the vertex count after p passes on the seed.
func ExpectedVertices(p int) int {
	return (10 << (2 * p)) + 2
}
