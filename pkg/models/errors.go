package models

import "errors"

var (
	// ErrNegativePasses is returned when a negative pass count is requested.
	ErrNegativePasses = errors.New("pass count must not be negative")
	// ErrMalformedIndexes is returned when the index buffer length is not a multiple of 3.
	ErrMalformedIndexes = errors.New("index count is not a multiple of 3")
	// ErrIndexOutOfRange is returned when a triangle references a missing vertex.
	ErrIndexOutOfRange = errors.New("triangle index out of range")
	// ErrNonManifoldEdge is returned when an edge is shared by more than two triangles.
	ErrNonManifoldEdge = errors.New("edge shared by more than two triangles")
	// ErrDegenerate is returned when a zero-length vector would have to be normalized.
	ErrDegenerate = errors.New("degenerate geometry")
	// ErrOrphanVertex is returned when a vertex belongs to no triangle.
	ErrOrphanVertex = errors.New("vertex is not referenced by any triangle")
	// ErrTooManyVertices is returned when a pass would overflow 32-bit indexes.
	ErrTooManyVertices = errors.New("vertex count exceeds 32-bit index range")
	// ErrInconsistentMesh is returned when attribute buffer lengths disagree.
	ErrInconsistentMesh = errors.New("inconsistent mesh buffers")
	// ErrBinarySTL is returned by ReadSTL for binary input.
	ErrBinarySTL = errors.New("binary STL is not supported")
)
