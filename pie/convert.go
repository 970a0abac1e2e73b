package pie

import (
	"log"
	"math"

	"github.com/pkg/errors"
)

// UpConvertVertex converts a PIE 2 point to PIE 3. Coordinates are exact up
// to 2^24 in magnitude and rounded to the nearest float32 beyond.
func UpConvertVertex(v Pie2Vertex) Pie3Vertex {
	return Pie3Vertex{X: float32(v.X), Y: float32(v.Y), Z: float32(v.Z)}
}

// DownConvertVertex converts a PIE 3 point to PIE 2, truncating toward zero.
func DownConvertVertex(v Pie3Vertex) Pie2Vertex {
	return Pie2Vertex{X: int32(v.X), Y: int32(v.Y), Z: int32(v.Z)}
}

// UpConvertUV rescales texture page pixels to [0,1].
func UpConvertUV(uv Pie2UV) Pie3UV {
	return Pie3UV{U: float32(uv.U) / pie2TexturePage, V: float32(uv.V) / pie2TexturePage}
}

// DownConvertUV rescales a normalized coordinate to texture page pixels.
func DownConvertUV(uv Pie3UV) Pie2UV {
	return Pie2UV{U: toPixel(uv.U), V: toPixel(uv.V)}
}

func toPixel(f float32) uint16 {
	p := math.Round(float64(f) * pie2TexturePage)
	if p < 0 || math.IsNaN(p) {
		return 0
	}
	if p > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(p)
}

func UpConvertConnector(c Pie2Connector) Pie3Connector {
	return Pie3Connector{Pos: UpConvertVertex(c.Pos)}
}

func DownConvertConnector(c Pie3Connector) Pie2Connector {
	return Pie2Connector{Pos: DownConvertVertex(c.Pos)}
}

// UpConvertPolygon converts a PIE 2 polygon to one or more PIE 3 triangles.
// Polygons with more than three indices are fanned around their first index
// keeping the source winding order.
func UpConvertPolygon(p Pie2Polygon) []Pie3Polygon {
	n := len(p.Indices)
	if n < 3 {
		return nil
	}
	tris := make([]Pie3Polygon, 0, n-2)
	for i := 1; i+1 < n; i++ {
		corners := [3]int{0, i, i + 1}
		t := Pie3Polygon{
			Flags:   p.Flags,
			Indices: make([]uint16, 3),
			Anim: TexAnim[Pie3UV]{
				Frames: p.Anim.Frames,
				Rate:   p.Anim.Rate,
				Size:   UpConvertUV(p.Anim.Size),
			},
		}
		for k, c := range corners {
			t.Indices[k] = p.Indices[c]
		}
		if p.UVs != nil {
			t.UVs = make([][]Pie3UV, len(p.UVs))
			for fr, uvs := range p.UVs {
				t.UVs[fr] = make([]Pie3UV, 3)
				for k, c := range corners {
					if c < len(uvs) {
						t.UVs[fr][k] = UpConvertUV(uvs[c])
					}
				}
			}
		}
		tris = append(tris, t)
	}
	return tris
}

// DownConvertPolygon converts a PIE 3 triangle to PIE 2.
func DownConvertPolygon(p Pie3Polygon) (Pie2Polygon, error) {
	if len(p.Indices) != pie3MaxIndices {
		return Pie2Polygon{}, errors.Wrapf(ErrVersionMismatch, "polygon with %d indices", len(p.Indices))
	}
	out := Pie2Polygon{
		Flags:   p.Flags,
		Indices: append([]uint16(nil), p.Indices...),
		Anim: TexAnim[Pie2UV]{
			Frames: p.Anim.Frames,
			Rate:   p.Anim.Rate,
			Size:   DownConvertUV(p.Anim.Size),
		},
	}
	if p.UVs != nil {
		out.UVs = make([][]Pie2UV, len(p.UVs))
		for fr, uvs := range p.UVs {
			out.UVs[fr] = make([]Pie2UV, len(uvs))
			for i, uv := range uvs {
				out.UVs[fr][i] = DownConvertUV(uv)
			}
		}
	}
	return out, nil
}

func copyAnim(a AnimObject) AnimObject {
	a.Frames = append([]AnimFrame(nil), a.Frames...)
	return a
}

// UpConvertLevel converts a PIE 2 level to PIE 3.
func UpConvertLevel(l *Pie2Level) Pie3Level {
	out := Pie3Level{
		Points:         make([]Pie3Vertex, len(l.Points)),
		Normals:        append([]Normal(nil), l.Normals...),
		Polygons:       make([]Pie3Polygon, 0, len(l.Polygons)),
		Connectors:     make([]Pie3Connector, len(l.Connectors)),
		Material:       l.Material,
		VertexShader:   l.VertexShader,
		FragmentShader: l.FragmentShader,
		Anim:           copyAnim(l.Anim),
	}
	for i, p := range l.Points {
		out.Points[i] = UpConvertVertex(p)
	}
	for _, p := range l.Polygons {
		out.Polygons = append(out.Polygons, UpConvertPolygon(p)...)
	}
	for i, c := range l.Connectors {
		out.Connectors[i] = UpConvertConnector(c)
	}
	return out
}

// DownConvertLevel converts a PIE 3 level to PIE 2. Material and shaders
// have no PIE 2 representation and are dropped.
func DownConvertLevel(l *Pie3Level) (Pie2Level, error) {
	out := Pie2Level{
		Points:     make([]Pie2Vertex, len(l.Points)),
		Normals:    append([]Normal(nil), l.Normals...),
		Polygons:   make([]Pie2Polygon, len(l.Polygons)),
		Connectors: make([]Pie2Connector, len(l.Connectors)),
		Material:   DefaultMaterial(),
		Anim:       copyAnim(l.Anim),
	}
	for i, p := range l.Points {
		out.Points[i] = DownConvertVertex(p)
	}
	for i, p := range l.Polygons {
		pp, err := DownConvertPolygon(p)
		if err != nil {
			return Pie2Level{}, errors.Wrapf(err, "polygon %d", i)
		}
		out.Polygons[i] = pp
	}
	for i, c := range l.Connectors {
		out.Connectors[i] = DownConvertConnector(c)
	}
	return out, nil
}

func copyEvents(ev map[int]string) map[int]string {
	if ev == nil {
		return nil
	}
	out := make(map[int]string, len(ev))
	for k, v := range ev {
		out[k] = v
	}
	return out
}

// UpConvertModel converts a PIE 2 model to a new PIE 3 model.
func UpConvertModel(m *Pie2Model) *Pie3Model {
	out := &Pie3Model{
		Type:        m.Type,
		Texture:     m.Texture,
		NormalMap:   m.NormalMap,
		SpecularMap: m.SpecularMap,
		Events:      copyEvents(m.Events),
		Levels:      make([]Pie3Level, len(m.Levels)),
		caps:        m.caps.Intersect(Pie3Caps),
	}
	for i := range m.Levels {
		out.Levels[i] = UpConvertLevel(&m.Levels[i])
	}
	return out
}

// DownConvertModel converts a PIE 3 model to a new PIE 2 model. Events,
// materials and shaders are dropped.
func DownConvertModel(m *Pie3Model) (*Pie2Model, error) {
	out := &Pie2Model{
		Type:        m.Type,
		Texture:     m.Texture,
		NormalMap:   m.NormalMap,
		SpecularMap: m.SpecularMap,
		Levels:      make([]Pie2Level, len(m.Levels)),
		caps:        m.caps.Intersect(Pie2Caps),
	}
	if dropped := m.caps &^ Pie2Caps; dropped != 0 {
		log.Printf("PIE 2 cannot hold %v, dropped", dropped.Directives())
	}
	for i := range m.Levels {
		l, err := DownConvertLevel(&m.Levels[i])
		if err != nil {
			return nil, errors.Wrapf(err, "level %d", i)
		}
		out.Levels[i] = l
	}
	return out, nil
}

// ConvertTo returns doc as a document of the given version. A document that
// already has that version is returned as is.
func ConvertTo(doc Document, version int) (Document, error) {
	if doc.Version() == version {
		return doc, nil
	}
	switch m := doc.(type) {
	case *Pie2Model:
		if version == 3 {
			return UpConvertModel(m), nil
		}
	case *Pie3Model:
		if version == 2 {
			out, err := DownConvertModel(m)
			if err != nil {
				return nil, err
			}
			return out, nil
		}
	}
	return nil, errors.Wrapf(ErrVersionMismatch, "cannot convert PIE %d to %d", doc.Version(), version)
}
