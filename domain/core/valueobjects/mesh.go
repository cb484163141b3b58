package valueobjects

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"math"
	"strconv"
)

// Mesh is triangulated render geometry produced by tessellating an exact
// B-Rep solid. Vertices and normals are packed xyz triplets.
type Mesh struct {
	Vertices []float32 `json:"vertices"`
	Indices  []uint32  `json:"indices"`
	Normals  []float32 `json:"normals"`
}

// IsEmpty reports whether the mesh has no geometry
func (m *Mesh) IsEmpty() bool {
	return m == nil || len(m.Vertices) == 0
}

// VertexCount returns the number of vertices
func (m *Mesh) VertexCount() int {
	if m == nil {
		return 0
	}
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles
func (m *Mesh) TriangleCount() int {
	if m == nil {
		return 0
	}
	return len(m.Indices) / 3
}

// Clone returns a deep copy of the mesh
func (m *Mesh) Clone() *Mesh {
	if m == nil {
		return nil
	}
	clone := &Mesh{
		Vertices: make([]float32, len(m.Vertices)),
		Indices:  make([]uint32, len(m.Indices)),
		Normals:  make([]float32, len(m.Normals)),
	}
	copy(clone.Vertices, m.Vertices)
	copy(clone.Indices, m.Indices)
	copy(clone.Normals, m.Normals)
	return clone
}

// meshCodecVersion is the current on-disk mesh encoding version.
const meshCodecVersion = 1

// EncodedMesh is the persisted form of a mesh: little-endian binary buffers
// wrapped in base64, tagged with an encoding version so the decoder never has
// to guess at the payload shape.
type EncodedMesh struct {
	Version  int    `json:"version"`
	Vertices string `json:"vertices"`
	Indices  string `json:"indices"`
	Normals  string `json:"normals"`

	// Legacy payloads predate the versioned encoding and carry raw JSON
	// values in whatever shape the old serializer produced.
	LegacyVertices any `json:"legacyVertices,omitempty"`
	LegacyIndices  any `json:"legacyIndices,omitempty"`
	LegacyNormals  any `json:"legacyNormals,omitempty"`
}

// Encode serializes the mesh with the current codec version
func (m *Mesh) Encode() *EncodedMesh {
	if m == nil {
		return nil
	}
	return &EncodedMesh{
		Version:  meshCodecVersion,
		Vertices: encodeFloat32(m.Vertices),
		Indices:  encodeUint32(m.Indices),
		Normals:  encodeFloat32(m.Normals),
	}
}

// Decode reconstructs a mesh from its persisted form. Version 0 payloads
// (anything written before the versioned codec) go through the tolerant
// legacy decoder; corrupt buffers degrade to empty or vertex-length-matched
// buffers rather than failing the load.
func (e *EncodedMesh) Decode() *Mesh {
	if e == nil {
		return nil
	}
	if e.Version >= meshCodecVersion {
		return &Mesh{
			Vertices: decodeFloat32(e.Vertices),
			Indices:  decodeUint32(e.Indices),
			Normals:  decodeFloat32(e.Normals),
		}
	}
	mesh := &Mesh{
		Vertices: ReconstructFloatBuffer(e.LegacyVertices),
		Indices:  ReconstructIndexBuffer(e.LegacyIndices),
		Normals:  ReconstructFloatBuffer(e.LegacyNormals),
	}
	// A mesh without usable normals still renders flat-shaded; match the
	// vertex buffer length so the renderer never indexes past the end.
	if len(mesh.Normals) != len(mesh.Vertices) {
		mesh.Normals = make([]float32, len(mesh.Vertices))
	}
	return mesh
}

func encodeFloat32(values []float32) string {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return base64.StdEncoding.EncodeToString(buf)
}

func encodeUint32(values []uint32) string {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], v)
	}
	return base64.StdEncoding.EncodeToString(buf)
}

func decodeFloat32(encoded string) []float32 {
	buf, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(buf)%4 != 0 {
		return []float32{}
	}
	values := make([]float32, len(buf)/4)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return values
}

func decodeUint32(encoded string) []uint32 {
	buf, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(buf)%4 != 0 {
		return []uint32{}
	}
	values := make([]uint32, len(buf)/4)
	for i := range values {
		values[i] = binary.LittleEndian.Uint32(buf[i*4:])
	}
	return values
}

// ReconstructFloatBuffer rebuilds a float buffer from the three shapes a
// generic JSON round-trip can produce: an already-typed slice, a plain
// array of numbers, or an object keyed by contiguous numeric strings.
// Malformed or gapped input degrades to an empty buffer.
func ReconstructFloatBuffer(raw any) []float32 {
	switch v := raw.(type) {
	case nil:
		return []float32{}
	case []float32:
		out := make([]float32, len(v))
		copy(out, v)
		return out
	case []float64:
		out := make([]float32, len(v))
		for i, f := range v {
			out[i] = float32(f)
		}
		return out
	case []any:
		out := make([]float32, 0, len(v))
		for _, item := range v {
			f, ok := asFloat(item)
			if !ok {
				return []float32{}
			}
			out = append(out, float32(f))
		}
		return out
	case map[string]any:
		out := make([]float32, len(v))
		for i := range out {
			item, present := v[strconv.Itoa(i)]
			if !present {
				// Gapped keys mean the buffer was corrupted in transit.
				return []float32{}
			}
			f, ok := asFloat(item)
			if !ok {
				return []float32{}
			}
			out[i] = float32(f)
		}
		return out
	default:
		return []float32{}
	}
}

// ReconstructIndexBuffer is the index-buffer counterpart of
// ReconstructFloatBuffer.
func ReconstructIndexBuffer(raw any) []uint32 {
	switch v := raw.(type) {
	case nil:
		return []uint32{}
	case []uint32:
		out := make([]uint32, len(v))
		copy(out, v)
		return out
	default:
		floats := ReconstructFloatBuffer(raw)
		out := make([]uint32, len(floats))
		for i, f := range floats {
			if f < 0 {
				return []uint32{}
			}
			out[i] = uint32(f)
		}
		return out
	}
}

func asFloat(item any) (float64, bool) {
	switch n := item.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
