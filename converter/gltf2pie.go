package converter

import (
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/binzume/pieconv/pie"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

type gltfToPie struct {
	*GLTFOption
}

func newGLTFToPie(options *GLTFOption) *gltfToPie {
	return &gltfToPie{GLTFOption: options}
}

// toFloat accepts both in-memory and JSON decoded extras values.
func toFloat(v interface{}) (float32, bool) {
	switch n := v.(type) {
	case float32:
		return n, true
	case float64:
		return float32(n), true
	case uint32:
		return float32(n), true
	case int:
		return float32(n), true
	}
	return 0, false
}

func (c *gltfToPie) convertMaterial(src *gltf.Document, mat *gltf.Material) pie.Material {
	out := pie.DefaultMaterial()
	if extras, ok := mat.Extras.(map[string]interface{}); ok {
		var values []float32
		switch v := extras[extrasMaterial].(type) {
		case []float32:
			values = v
		case []interface{}:
			for _, e := range v {
				if f, ok := toFloat(e); ok {
					values = append(values, f)
				}
			}
		}
		if len(values) == 10 {
			copy(out.Ambient[:], values[0:3])
			copy(out.Diffuse[:], values[3:6])
			copy(out.Specular[:], values[6:9])
			out.Shininess = values[9]
			return out
		}
	}
	if mat.PBRMetallicRoughness != nil {
		col := mat.PBRMetallicRoughness.BaseColorFactorOrDefault()
		copy(out.Diffuse[:], col[:3])
	}
	return out
}

func (c *gltfToPie) textureName(src *gltf.Document, mat *gltf.Material) string {
	if mat == nil || mat.PBRMetallicRoughness == nil || mat.PBRMetallicRoughness.BaseColorTexture == nil {
		return ""
	}
	tex := src.Textures[mat.PBRMetallicRoughness.BaseColorTexture.Index]
	if tex.Source == nil {
		return ""
	}
	img := src.Images[*tex.Source]
	if img.URI != "" && !img.IsEmbeddedResource() {
		return img.URI
	}
	return img.Name
}

func (c *gltfToPie) convertMesh(src *gltf.Document, mesh *gltf.Mesh, level *pie.Pie3Level) error {
	for _, p := range mesh.Primitives {
		if p.Indices == nil || (p.Mode != gltf.PrimitiveTriangles) {
			log.Print("skip primitive: not indexed triangles in ", mesh.Name)
			continue
		}
		a, ok := p.Attributes["POSITION"]
		if !ok {
			continue
		}
		pos, err := modeler.ReadPosition(src, src.Accessors[a], [][3]float32{})
		if err != nil {
			return errors.Wrapf(err, "mesh %q positions", mesh.Name)
		}
		base := len(level.Points)
		if base+len(pos) > math.MaxUint16+1 {
			return errors.Wrapf(pie.ErrArity, "mesh %q: more than %d points", mesh.Name, math.MaxUint16+1)
		}
		for _, v := range pos {
			level.Points = append(level.Points, pie.Pie3Vertex{X: v[0] / c.Scale, Y: v[1] / c.Scale, Z: v[2] / c.Scale})
		}

		var normals [][3]float32
		if a, ok := p.Attributes["NORMAL"]; ok {
			normals, err = modeler.ReadNormal(src, src.Accessors[a], [][3]float32{})
			if err != nil {
				return errors.Wrapf(err, "mesh %q normals", mesh.Name)
			}
		}
		for i := range pos {
			var n pie.Normal
			if i < len(normals) {
				n = pie.Normal{X: normals[i][0], Y: normals[i][1], Z: normals[i][2]}
			}
			level.Normals = append(level.Normals, n)
		}

		var texCoord [][2]float32
		if a, ok := p.Attributes["TEXCOORD_0"]; ok {
			texCoord, err = modeler.ReadTextureCoord(src, src.Accessors[a], [][2]float32{})
			if err != nil {
				return errors.Wrapf(err, "mesh %q texture coordinates", mesh.Name)
			}
		}

		indices, err := modeler.ReadIndices(src, src.Accessors[*p.Indices], []uint32{})
		if err != nil {
			return errors.Wrapf(err, "mesh %q indices", mesh.Name)
		}
		for i := 0; i+2 < len(indices); i += 3 {
			tri := []uint32{indices[i], indices[i+2], indices[i+1]}
			poly := pie.Pie3Polygon{Indices: make([]uint16, 3)}
			for k, v := range tri {
				if int(v) >= len(pos) {
					return errors.Wrapf(pie.ErrArity, "mesh %q: index %d, %d points", mesh.Name, v, len(pos))
				}
				poly.Indices[k] = uint16(base + int(v))
			}
			if len(texCoord) == len(pos) {
				poly.Flags |= pie.FeatureTextured
				uvs := make([]pie.Pie3UV, 3)
				for k, v := range tri {
					uvs[k] = pie.Pie3UV{U: texCoord[v][0], V: texCoord[v][1]}
				}
				poly.UVs = [][]pie.Pie3UV{uvs}
			}
			level.Polygons = append(level.Polygons, poly)
		}
	}
	if len(level.Points) == 0 {
		return errors.Wrapf(pie.ErrArity, "mesh %q has no triangles", mesh.Name)
	}
	return nil
}

func (c *gltfToPie) convertConnectors(src *gltf.Document, node *gltf.Node, level *pie.Pie3Level) {
	for _, child := range node.Children {
		n := src.Nodes[child]
		if !strings.HasPrefix(n.Name, connectorPrefix) {
			continue
		}
		t := n.Translation
		level.Connectors = append(level.Connectors, pie.Pie3Connector{
			Pos: pie.Pie3Vertex{X: t[0] / c.Scale, Y: t[1] / c.Scale, Z: t[2] / c.Scale},
		})
	}
}

func (c *gltfToPie) readExtras(src *gltf.Document, m *pie.Pie3Model) {
	if len(src.Scenes) == 0 {
		return
	}
	extras, ok := src.Scenes[0].Extras.(map[string]interface{})
	if !ok {
		return
	}
	if t, ok := toFloat(extras[extrasType]); ok {
		m.Type = uint32(t)
	}
	switch ev := extras[extrasEvents].(type) {
	case map[string]string:
		for k, v := range ev {
			addEvent(m, k, v)
		}
	case map[string]interface{}:
		for k, v := range ev {
			if s, ok := v.(string); ok {
				addEvent(m, k, s)
			}
		}
	}
}

func addEvent(m *pie.Pie3Model, key, name string) {
	id, err := strconv.Atoi(key)
	if err != nil {
		return
	}
	if m.Events == nil {
		m.Events = map[int]string{}
	}
	m.Events[id] = name
}

func (c *gltfToPie) convert(src *gltf.Document) (*pie.Pie3Model, error) {
	m := &pie.Pie3Model{}
	var caps pie.Caps

	for _, node := range src.Nodes {
		if node.Mesh == nil {
			continue
		}
		mesh := src.Meshes[*node.Mesh]
		level := pie.Pie3Level{Material: pie.DefaultMaterial()}
		if err := c.convertMesh(src, mesh, &level); err != nil {
			return nil, err
		}
		for _, p := range mesh.Primitives {
			if p.Material == nil {
				continue
			}
			mat := src.Materials[*p.Material]
			level.Material = c.convertMaterial(src, mat)
			caps.Set(pie.DirMaterials)
			if m.Texture == "" {
				m.Texture = c.textureName(src, mat)
			}
			if m.NormalMap == "" && mat.NormalTexture != nil && mat.NormalTexture.Index != nil {
				if tex := src.Textures[*mat.NormalTexture.Index]; tex.Source != nil {
					m.NormalMap = src.Images[*tex.Source].URI
				}
			}
			break
		}
		c.convertConnectors(src, node, &level)
		if len(level.Connectors) > 0 {
			caps.Set(pie.DirConnectors)
		}
		caps.Set(pie.DirNormals)
		m.Levels = append(m.Levels, level)
	}
	if len(m.Levels) == 0 {
		return nil, errors.Wrap(pie.ErrArity, "no meshes")
	}

	if m.Texture == "" {
		m.Texture = c.DefaultTexture
	}
	if m.NormalMap != "" {
		caps.Set(pie.DirNormalMap)
	}
	m.SetFeature(pie.FeatureTextured, true)
	c.readExtras(src, m)
	if len(m.Events) > 0 {
		caps.Set(pie.DirEvent)
	}
	if err := m.SetCaps(caps); err != nil {
		return nil, err
	}
	return m, nil
}
