package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/binzume/pieconv/converter"
	"github.com/binzume/pieconv/pie"
	"github.com/qmuntal/gltf"
)

func loadDocument(input string, opt *converter.GLTFOption, version int) (pie.Document, error) {
	ext := strings.ToLower(filepath.Ext(input))
	if ext == ".glb" || ext == ".gltf" {
		src, err := gltf.Open(input)
		if err != nil {
			return nil, err
		}
		if version == 0 {
			version = 3
		}
		return pie.ImportDocument[*gltf.Document](converter.NewGLTFCodec(opt), src, version)
	}
	return pie.Load(input)
}

func saveDocument(doc pie.Document, output string, opt *converter.GLTFOption, caps *pie.Caps) error {
	ext := strings.ToLower(filepath.Ext(output))
	if ext == ".glb" || ext == ".gltf" {
		gltfdoc, err := pie.ExportDocument[*gltf.Document](converter.NewGLTFCodec(opt), doc)
		if err != nil {
			return err
		}
		if ext == ".glb" {
			return gltf.SaveBinary(gltfdoc, output)
		}
		return gltf.Save(gltfdoc, output)
	} else if ext == ".pie" {
		return pie.Save(doc, output, caps)
	}
	return fmt.Errorf("Unsupported output type: %v", ext)
}
