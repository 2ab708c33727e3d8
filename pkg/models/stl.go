package models

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/taigrr/icosphere/pkg/math3d"
)

const (
	// DefaultSolidName is used when an exporter has no solid name.
	DefaultSolidName = "icosphere"
	// DefaultPrecision is the number of significant digits written per number.
	DefaultPrecision = 6
)

// STLExporter writes meshes as ASCII STL.
type STLExporter struct {
	SolidName string // name after solid/endsolid; whitespace becomes '_'
	Precision int    // significant digits per number (default 6)
}

// NewSTLExporter creates an exporter with default settings.
func NewSTLExporter(name string) *STLExporter {
	return &STLExporter{
		SolidName: name,
		Precision: DefaultPrecision,
	}
}

// STLPath returns the file name ExportSTL writes for filename.
func STLPath(filename string) string {
	return filename + ".stl"
}

// ExportSTL writes m to "<filename>.stl" with default settings.
func ExportSTL(m Mesh, filename string) error {
	return NewSTLExporter("").WriteFile(m, filename)
}

func (e *STLExporter) solidName() string {
	name := strings.Join(strings.Fields(e.SolidName), "_")
	if name == "" {
		return DefaultSolidName
	}
	return name
}

func (e *STLExporter) formatFloat(v float64) string {
	p := e.Precision
	if p <= 0 {
		p = DefaultPrecision
	}
	return strconv.FormatFloat(v, 'e', p-1, 64)
}

func (e *STLExporter) writeVec(w *bufio.Writer, v math3d.Vec3) {
	w.WriteString(e.formatFloat(v.X))
	w.WriteByte(' ')
	w.WriteString(e.formatFloat(v.Y))
	w.WriteByte(' ')
	w.WriteString(e.formatFloat(v.Z))
	w.WriteByte('\n')
}

// WriteFile creates or truncates "<filename>.stl" and writes m to it.
// A failed write leaves whatever was already written in place.
func (e *STLExporter) WriteFile(m Mesh, filename string) (err error) {
	if err := ValidateMesh(m); err != nil {
		return fmt.Errorf("export STL: %w", err)
	}
	path := STLPath(filename)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create STL file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close STL file: %w", cerr)
		}
	}()
	return e.Write(f, m)
}

// Write writes m to w as ASCII STL, one facet per triangle.
func (e *STLExporter) Write(w io.Writer, m Mesh) error {
	if err := ValidateMesh(m); err != nil {
		return fmt.Errorf("export STL: %w", err)
	}
	vertices := m.GetVertices()
	indexes := m.GetIndexes()
	faceNormals := m.GetFaceNormals()
	name := e.solidName()

	bw := bufio.NewWriter(w)
	bw.WriteString("solid " + name + "\n")
	for t, n := range faceNormals {
		bw.WriteString("  facet normal ")
		e.writeVec(bw, n)
		bw.WriteString("    outer loop\n")
		for j := range 3 {
			bw.WriteString("      vertex ")
			e.writeVec(bw, vertices[indexes[t*3+j]])
		}
		bw.WriteString("    endloop\n")
		bw.WriteString("  endfacet\n")
	}
	bw.WriteString("endsolid " + name + "\n")

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write STL: %w", err)
	}
	return nil
}

// Facet is one triangle read from an STL file.
type Facet struct {
	Normal   math3d.Vec3
	Vertices [3]math3d.Vec3
}

// Solid is the content of an ASCII STL file.
type Solid struct {
	Name   string
	Facets []Facet
}

// isBinarySTL detects if the data is binary STL format.
// Binary STL starts with 80-byte header, then 4-byte triangle count.
// ASCII STL starts with "solid".
func isBinarySTL(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if !bytes.HasPrefix(trimmed, []byte("solid")) {
		return len(data) >= 84
	}
	if len(data) < 84 {
		return false
	}
	// Some binary writers start the header with "solid" too.
	triCount := binary.LittleEndian.Uint32(data[80:84])
	return uint64(len(data)) == 84+uint64(triCount)*50
}

// ReadSTLFile reads an ASCII STL file from disk.
func ReadSTLFile(path string) (*Solid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read STL file: %w", err)
	}
	return ParseSTL(data)
}

// ReadSTL parses ASCII STL from a reader.
// Note: This reads the entire content into memory to detect format.
func ReadSTL(r io.Reader) (*Solid, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read STL data: %w", err)
	}
	return ParseSTL(data)
}

func parseVec(fields []string, lineNum int, what string) (math3d.Vec3, error) {
	if len(fields) < 3 {
		return math3d.Vec3{}, fmt.Errorf("line %d: %s needs x y z", lineNum, what)
	}
	var c [3]float64
	for i := range c {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return math3d.Vec3{}, fmt.Errorf("line %d: invalid %s %c: %w", lineNum, what, "xyz"[i], err)
		}
		c[i] = v
	}
	return math3d.V3(c[0], c[1], c[2]), nil
}

// ParseSTL parses ASCII STL data. Keywords are case-insensitive.
func ParseSTL(data []byte) (*Solid, error) {
	if isBinarySTL(data) {
		return nil, ErrBinarySTL
	}

	solid := &Solid{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNum := 0

	var current Facet
	var verts int
	inSolid, ended := false, false
	inFacet, inLoop := false, false

	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if ended {
			return nil, fmt.Errorf("line %d: content after endsolid", lineNum)
		}

		switch strings.ToLower(fields[0]) {
		case "solid":
			if inSolid {
				return nil, fmt.Errorf("line %d: nested solid", lineNum)
			}
			inSolid = true
			if len(fields) > 1 {
				solid.Name = fields[1]
			}

		case "facet":
			if !inSolid || inFacet {
				return nil, fmt.Errorf("line %d: unexpected facet", lineNum)
			}
			if len(fields) < 2 || strings.ToLower(fields[1]) != "normal" {
				return nil, fmt.Errorf("line %d: facet without normal", lineNum)
			}
			n, err := parseVec(fields[2:], lineNum, "normal")
			if err != nil {
				return nil, err
			}
			current = Facet{Normal: n}
			verts = 0
			inFacet = true

		case "outer":
			if !inFacet || inLoop || len(fields) < 2 || strings.ToLower(fields[1]) != "loop" {
				return nil, fmt.Errorf("line %d: unexpected outer loop", lineNum)
			}
			inLoop = true

		case "vertex":
			if !inLoop {
				return nil, fmt.Errorf("line %d: vertex outside facet/loop", lineNum)
			}
			if verts == 3 {
				return nil, fmt.Errorf("line %d: more than 3 vertices in facet", lineNum)
			}
			v, err := parseVec(fields[1:], lineNum, "vertex")
			if err != nil {
				return nil, err
			}
			current.Vertices[verts] = v
			verts++

		case "endloop":
			if !inLoop {
				return nil, fmt.Errorf("line %d: endloop outside loop", lineNum)
			}
			inLoop = false

		case "endfacet":
			if !inFacet || inLoop {
				return nil, fmt.Errorf("line %d: unexpected endfacet", lineNum)
			}
			if verts != 3 {
				return nil, fmt.Errorf("line %d: facet has %d vertices, want 3", lineNum, verts)
			}
			solid.Facets = append(solid.Facets, current)
			inFacet = false

		case "endsolid":
			if !inSolid || inFacet {
				return nil, fmt.Errorf("line %d: unexpected endsolid", lineNum)
			}
			ended = true

		default:
			return nil, fmt.Errorf("line %d: unknown keyword %q", lineNum, fields[0])
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ASCII STL: %w", err)
	}
	if !ended {
		return nil, errors.New("missing endsolid")
	}
	return solid, nil
}

// Weld merges facet corners that fall on the same tolerance grid cell and
// returns an indexed vertex list. It is the inverse of the export
// flattening and is used to check exported spheres for cracks.
func (s *Solid) Weld(tolerance float64) ([]math3d.Vec3, []uint32) {
	vertexMap := make(map[quantizedKey]uint32)
	var vertices []math3d.Vec3
	indexes := make([]uint32, 0, len(s.Facets)*3)

	for _, f := range s.Facets {
		for _, pos := range f.Vertices {
			key := quantizePosition(pos, tolerance)
			idx, exists := vertexMap[key]
			if !exists {
				idx = uint32(len(vertices))
				vertices = append(vertices, pos)
				vertexMap[key] = idx
			}
			indexes = append(indexes, idx)
		}
	}
	return vertices, indexes
}
