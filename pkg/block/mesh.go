package block

import (
	"github.com/matzehuels/blik/pkg/errors"
)

// Face column names of a mesh's triangle table.
const (
	FaceV0 = "v0"
	FaceV1 = "v1"
	FaceV2 = "v2"
)

// MeshOptions declares the fields of a MeshBlock.
type MeshOptions struct {
	Vertices *PointBlock
	Faces    *PropertyBlock

	VerticesData any
	FacesData    [][3]int
}

// MeshBlock is a triangle mesh: vertices and a table of faces with one row per
// triangle and integer columns v0, v1, v2 indexing into the vertices.
type MeshBlock struct {
	composite
	vertices *PointBlock
	faces    *PropertyBlock
}

// NewMeshBlock builds a mesh. Every face index must address a vertex.
func NewMeshBlock(o MeshOptions, opts ...Option) (*MeshBlock, error) {
	verts, err := ownPoints(o.Vertices, o.VerticesData)
	if err != nil {
		return nil, err
	}
	faces := o.Faces
	switch {
	case faces == nil:
		if faces, err = NewPropertyBlock(faceColumns(o.FacesData)); err != nil {
			return nil, err
		}
	case faces.view:
		faces = faces.Copy()
	}
	if err := checkFaces(faces, verts.Len()); err != nil {
		return nil, err
	}
	if err := checkFree(&verts.base, &faces.base); err != nil {
		return nil, err
	}
	id, err := newCompositeIdentity(identityOf(o.Vertices), opts)
	if err != nil {
		return nil, err
	}
	m := &MeshBlock{composite: composite{id: id, kind: KindMesh}}
	m.assemble(verts, faces)
	return m, nil
}

func (m *MeshBlock) assemble(verts *PointBlock, faces *PropertyBlock) {
	m.vertices, m.faces = verts, faces
	m.adopt("vertices", &verts.base)
	m.adopt("faces", &faces.base)
	faces.constraint = func(t *PropertyBlock) error { return checkFaces(t, m.vertices.Len()) }
}

func faceColumns(faces [][3]int) map[string]any {
	cols := [3][]int64{make([]int64, len(faces)), make([]int64, len(faces)), make([]int64, len(faces))}
	for i, f := range faces {
		for k := range f {
			cols[k][i] = int64(f[k])
		}
	}
	return map[string]any{FaceV0: cols[0], FaceV1: cols[1], FaceV2: cols[2]}
}

func checkFaces(faces *PropertyBlock, nVerts int) error {
	for _, name := range []string{FaceV0, FaceV1, FaceV2} {
		if faces.n == 0 && !faces.Has(name) {
			continue
		}
		idx, err := faces.Int(name)
		if err != nil {
			return errors.Validation(string(KindMesh), errors.KindDType, "faces need integer column %q", name)
		}
		for i, v := range idx {
			if v < 0 || int(v) >= nVerts {
				return errors.Validation(string(KindMesh), errors.KindShape, "face %d references vertex %d of %d", i, v, nVerts)
			}
		}
	}
	return nil
}

// Kind returns KindMesh.
func (m *MeshBlock) Kind() Kind { return KindMesh }

// Len returns the number of vertices.
func (m *MeshBlock) Len() int { return m.vertices.Len() }

// Check verifies that every face index addresses a vertex.
func (m *MeshBlock) Check() error { return checkFaces(m.faces, m.vertices.Len()) }

// Vertices returns the vertices field.
func (m *MeshBlock) Vertices() *PointBlock { return m.vertices }

// FaceTable returns the faces field. Edits to it are rejected when a face
// would address a missing vertex.
func (m *MeshBlock) FaceTable() *PropertyBlock { return m.faces }

// Faces returns the triangles as vertex index triplets.
func (m *MeshBlock) Faces() [][3]int {
	out := make([][3]int, m.faces.Len())
	for k, name := range []string{FaceV0, FaceV1, FaceV2} {
		idx, _ := m.faces.Int(name)
		for i, v := range idx {
			out[i][k] = int(v)
		}
	}
	return out
}

// Slice selects vertices and returns a view. Faces are kept only when all
// three of their vertices are selected, and are renumbered accordingly.
func (m *MeshBlock) Slice(sel Selector) (*MeshBlock, error) {
	idx, err := sel.indices(m.Len())
	if err != nil {
		return nil, err
	}
	remap := make(map[int]int, len(idx))
	for newIdx, old := range idx {
		if _, dup := remap[old]; !dup {
			remap[old] = newIdx
		}
	}
	var kept [][3]int
	var rows []int
	for i, f := range m.Faces() {
		a, okA := remap[f[0]]
		b, okB := remap[f[1]]
		c, okC := remap[f[2]]
		if okA && okB && okC {
			kept = append(kept, [3]int{a, b, c})
			rows = append(rows, i)
		}
	}
	faces := m.faces.take(rows)
	for k, col := range faceColumns(kept) {
		faces.cols[k] = &column{kind: ColumnInt, i: col.([]int64)}
	}
	v := &MeshBlock{composite: composite{id: m.id, kind: KindMesh, view: true}}
	v.assemble(m.vertices.take(idx), faces)
	return v, nil
}

// View returns a view aliasing both fields.
func (m *MeshBlock) View() *MeshBlock {
	v := &MeshBlock{composite: composite{id: m.id, kind: KindMesh, view: true}}
	v.assemble(m.vertices.View(), m.faces.View())
	return v
}

// SetMesh replaces vertices and faces together and notifies observers once.
func (m *MeshBlock) SetMesh(vertices any, faces [][3]int) error {
	verts, err := coercePoints(KindMesh, vertices)
	if err != nil {
		return err
	}
	cols, n, err := coerceColumns(faceColumns(faces))
	if err != nil {
		return err
	}
	if err := checkFaces(&PropertyBlock{cols: cols, n: n}, verts.n); err != nil {
		return err
	}
	return m.coordinate("replace mesh view", func() error {
		if err := m.vertices.SetData(verts); err != nil {
			return err
		}
		return m.faces.SetData(faceColumns(faces))
	})
}
