package main

import (
	"log"
	"os"

	"github.com/binzume/pieconv/converter"
	"github.com/binzume/pieconv/pie"
	"gopkg.in/yaml.v2"
)

// Profile holds conversion settings shared by several runs.
type Profile struct {
	Version       int     `yaml:"version"`
	Caps          string  `yaml:"caps"`
	Scale         float32 `yaml:"scale"`
	TextureDir    string  `yaml:"texture_dir"`
	EmbedTextures bool    `yaml:"embed_textures"`
}

func loadProfile(path string) (*Profile, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var p Profile
	if err := yaml.NewDecoder(r).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Profile) gltfOption() *converter.GLTFOption {
	return &converter.GLTFOption{
		Scale:         p.Scale,
		TextureDir:    p.TextureDir,
		EmbedTextures: p.EmbedTextures,
	}
}

// caps returns the directives to write for doc, or nil to keep its own.
// Directives the document's version cannot hold are dropped.
func (p *Profile) caps(doc pie.Document) (*pie.Caps, error) {
	if p.Caps == "" {
		return nil, nil
	}
	c, err := pie.ParseCaps(p.Caps)
	if err != nil {
		return nil, err
	}
	conv, err := pie.ConvertCaps(c, doc.Version())
	if err != nil {
		return nil, err
	}
	if conv != c {
		log.Printf("caps %v: PIE %d cannot hold %v", c, doc.Version(), c.Intersect(^conv).Directives())
	}
	return &conv, nil
}
