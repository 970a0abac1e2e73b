package converter

import (
	"github.com/binzume/pieconv/pie"
	"github.com/qmuntal/gltf"
)

// GLTFOption configures conversion between PIE and glTF.
type GLTFOption struct {
	Scale float32 // Default: 1/128 (one tile is one meter)
	// Frame selects the texture animation frame exported as TEXCOORD_0.
	Frame int
	// TextureDir is used to find textures when EmbedTextures is set.
	TextureDir    string
	EmbedTextures bool
	// DefaultTexture is used on import when the glTF has no base color image.
	DefaultTexture string // Default: page-0.png
}

// GLTFCodec converts PIE 3 models to and from glTF documents.
type GLTFCodec struct {
	*GLTFOption
}

var _ pie.ContainerCodec[*gltf.Document] = (*GLTFCodec)(nil)

const (
	connectorPrefix = "connector"
	extrasType      = "pieType"
	extrasEvents    = "pieEvents"
	extrasMaterial  = "pieMaterial"
)

func NewGLTFCodec(options *GLTFOption) *GLTFCodec {
	if options == nil {
		options = &GLTFOption{}
	}
	if options.Scale == 0 {
		options.Scale = 1.0 / 128
	}
	if options.DefaultTexture == "" {
		options.DefaultTexture = "page-0.png"
	}
	return &GLTFCodec{GLTFOption: options}
}

func (c *GLTFCodec) FromPie3(m *pie.Pie3Model) (*gltf.Document, error) {
	return newPieToGLTF(c.GLTFOption).convert(m)
}

func (c *GLTFCodec) ToPie3(doc *gltf.Document) (*pie.Pie3Model, error) {
	return newGLTFToPie(c.GLTFOption).convert(doc)
}
