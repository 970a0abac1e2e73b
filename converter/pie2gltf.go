package converter

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/binzume/pieconv/pie"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

type pieToGltf struct {
	*GLTFOption
	*gltf.Document
	textures map[string]*uint32
}

func newPieToGLTF(options *GLTFOption) *pieToGltf {
	return &pieToGltf{
		GLTFOption: options,
		Document:   gltf.NewDocument(),
		textures:   map[string]*uint32{},
	}
}

func mimeType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".jpg" || ext == ".jpeg" {
		return "image/jpeg"
	}
	return "image/png"
}

// addTexture references name by URI, or embeds the file as is.
func (m *pieToGltf) addTexture(name string) (*uint32, error) {
	if id, ok := m.textures[name]; ok {
		return id, nil
	}
	var img uint32
	if m.EmbedTextures {
		f, err := os.Open(filepath.Join(m.TextureDir, name))
		if err != nil {
			return nil, err
		}
		defer f.Close()
		img, err = modeler.WriteImage(m.Document, filepath.Base(name), mimeType(name), f)
		if err != nil {
			return nil, err
		}
		m.Buffers[0].ByteLength = uint32(len(m.Buffers[0].Data))
	} else {
		m.Images = append(m.Images, &gltf.Image{Name: filepath.Base(name), URI: name})
		img = uint32(len(m.Images) - 1)
	}
	m.Textures = append(m.Textures, &gltf.Texture{Sampler: gltf.Index(0), Source: gltf.Index(img)})
	id := gltf.Index(uint32(len(m.Textures) - 1))
	m.textures[name] = id
	return id, nil
}

func (m *pieToGltf) convertMaterial(model *pie.Pie3Model, level int, mat *pie.Material) *gltf.Material {
	var metallic float32 = 0
	var roughness = 1 - mat.Shininess/128
	if roughness < 0 {
		roughness = 0
	}
	mm := &gltf.Material{
		Name: fmt.Sprintf("level%d", level+1),
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float32{mat.Diffuse[0], mat.Diffuse[1], mat.Diffuse[2], 1},
			MetallicFactor:  &metallic,
			RoughnessFactor: &roughness,
		},
		Extras: map[string]interface{}{extrasMaterial: materialValues(mat)},
	}
	if tex, err := m.addTexture(model.Texture); err == nil {
		mm.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: *tex}
	} else {
		log.Print("Texture read error:", err)
	}
	if model.NormalMap != "" {
		if tex, err := m.addTexture(model.NormalMap); err == nil {
			mm.NormalTexture = &gltf.NormalTexture{Index: tex}
		} else {
			log.Print("Texture read error:", err)
		}
	}
	return mm
}

func materialValues(mat *pie.Material) []float32 {
	v := make([]float32, 0, 10)
	v = append(v, mat.Ambient[:]...)
	v = append(v, mat.Diffuse[:]...)
	v = append(v, mat.Specular[:]...)
	return append(v, mat.Shininess)
}

// smoothNormals averages face normals around each point.
func smoothNormals(l *pie.Pie3Level) []mgl32.Vec3 {
	normals := make([]mgl32.Vec3, len(l.Points))
	vec := func(i uint16) mgl32.Vec3 {
		p := l.Points[i]
		return mgl32.Vec3{p.X, p.Y, p.Z}
	}
	for _, p := range l.Polygons {
		v0, v1, v2 := vec(p.Indices[0]), vec(p.Indices[1]), vec(p.Indices[2])
		n := v1.Sub(v0).Cross(v2.Sub(v0))
		for _, i := range p.Indices {
			normals[i] = normals[i].Add(n)
		}
	}
	for i, n := range normals {
		if n.Len() > 0 {
			normals[i] = n.Normalize()
		}
	}
	return normals
}

type cornerKey struct {
	point uint16
	uv    pie.Pie3UV
}

func (m *pieToGltf) convertLevel(l *pie.Pie3Level, material uint32) *gltf.Mesh {
	var normals []mgl32.Vec3
	if len(l.Normals) == len(l.Points) {
		normals = make([]mgl32.Vec3, len(l.Normals))
		for i, n := range l.Normals {
			normals[i] = mgl32.Vec3{n.X, n.Y, n.Z}
		}
	} else {
		normals = smoothNormals(l)
	}

	var positions, normalArray [][3]float32
	var texcoords [][2]float32
	var indices []uint32
	corners := map[cornerKey]uint32{}
	textured := false
	for _, p := range l.Polygons {
		var tri [3]uint32
		for k, i := range p.Indices {
			key := cornerKey{point: i}
			if p.IsTextured() {
				textured = true
				key.uv = p.UV(k, m.Frame)
			}
			v, ok := corners[key]
			if !ok {
				v = uint32(len(positions))
				corners[key] = v
				pt := l.Points[i]
				positions = append(positions, [3]float32{pt.X * m.Scale, pt.Y * m.Scale, pt.Z * m.Scale})
				normalArray = append(normalArray, normals[i])
				texcoords = append(texcoords, [2]float32{key.uv.U, key.uv.V})
			}
			tri[k] = v
		}
		indices = append(indices, tri[2], tri[1], tri[0])
	}

	attributes := map[string]uint32{
		"POSITION": modeler.WritePosition(m.Document, positions),
		"NORMAL":   modeler.WriteNormal(m.Document, normalArray),
	}
	if textured {
		attributes["TEXCOORD_0"] = modeler.WriteTextureCoord(m.Document, texcoords)
	}
	return &gltf.Mesh{
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(modeler.WriteIndices(m.Document, indices)),
			Attributes: attributes,
			Material:   gltf.Index(material),
		}},
	}
}

func (m *pieToGltf) convert(model *pie.Pie3Model) (*gltf.Document, error) {
	if model.NumLevels() == 0 {
		return nil, errors.Wrap(pie.ErrArity, "model has no levels")
	}
	for i := range model.Levels {
		if err := model.Levels[i].Validate(); err != nil {
			return nil, errors.Wrapf(err, "level %d", i)
		}
	}

	for i := range model.Levels {
		l := &model.Levels[i]
		m.Materials = append(m.Materials, m.convertMaterial(model, i, &l.Material))
		mesh := m.convertLevel(l, uint32(i))
		mesh.Name = fmt.Sprintf("level%d", i+1)
		m.Meshes = append(m.Meshes, mesh)

		node := &gltf.Node{Name: mesh.Name, Mesh: gltf.Index(uint32(len(m.Meshes) - 1))}
		m.Nodes = append(m.Nodes, node)
		nodeIndex := uint32(len(m.Nodes) - 1)
		m.Scenes[0].Nodes = append(m.Scenes[0].Nodes, nodeIndex)

		for ci, c := range l.Connectors {
			pos := mgl32.Vec3{c.Pos.X, c.Pos.Y, c.Pos.Z}.Mul(m.Scale)
			m.Nodes = append(m.Nodes, &gltf.Node{
				Name:        fmt.Sprintf("%s%d", connectorPrefix, ci),
				Translation: [3]float32(pos),
			})
			node.Children = append(node.Children, uint32(len(m.Nodes)-1))
		}
	}

	extras := map[string]interface{}{extrasType: model.Type}
	if len(model.Events) > 0 {
		events := map[string]string{}
		for id, name := range model.Events {
			events[fmt.Sprint(id)] = name
		}
		extras[extrasEvents] = events
	}
	m.Scenes[0].Extras = extras

	if len(m.Textures) > 0 {
		m.Samplers = []*gltf.Sampler{{}}
	}
	return m.Document, nil
}
