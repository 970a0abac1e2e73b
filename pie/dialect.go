package pie

import (
	"fmt"
	"strconv"
)

// dialect holds what differs between PIE 2 and PIE 3.
type dialect[V vertex, UV texcoord] struct {
	version int
	caps    Caps

	textureWidth  int
	textureHeight int

	parseVertex  func(fields []string) (V, error)
	formatVertex func(v V) string

	poly *polyFormat[UV]
}

// polyFormat holds the polygon arity and texture coordinate encoding.
type polyFormat[UV texcoord] struct {
	maxIndices int
	// exactArity requires every polygon to have maxIndices indices.
	exactArity bool

	parseUV  func(u, v string) (UV, error)
	formatUV func(uv UV) string
}

const (
	pie2MaxIndices = 16
	pie3MaxIndices = 3

	pie2TexturePage = 256
)

var pie2Dialect = &dialect[Pie2Vertex, Pie2UV]{
	version:       2,
	caps:          Pie2Caps,
	textureWidth:  pie2TexturePage,
	textureHeight: pie2TexturePage,
	parseVertex: func(f []string) (Pie2Vertex, error) {
		var v [3]int
		if err := parseInts(v[:], f); err != nil {
			return Pie2Vertex{}, err
		}
		return Pie2Vertex{X: int32(v[0]), Y: int32(v[1]), Z: int32(v[2])}, nil
	},
	formatVertex: func(v Pie2Vertex) string {
		return fmt.Sprintf("%d %d %d", v.X, v.Y, v.Z)
	},
	poly: pie2PolyFormat,
}

var pie2PolyFormat = &polyFormat[Pie2UV]{
	maxIndices: pie2MaxIndices,
	parseUV: func(u, v string) (Pie2UV, error) {
		uu, err := strconv.ParseUint(u, 10, 16)
		if err != nil {
			return Pie2UV{}, err
		}
		vv, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return Pie2UV{}, err
		}
		return Pie2UV{U: uint16(uu), V: uint16(vv)}, nil
	},
	formatUV: func(uv Pie2UV) string {
		return fmt.Sprintf("%d %d", uv.U, uv.V)
	},
}

var pie3Dialect = &dialect[Pie3Vertex, Pie3UV]{
	version: 3,
	caps:    Pie3Caps,
	parseVertex: func(f []string) (Pie3Vertex, error) {
		var v [3]float32
		if err := parseFloats(v[:], f); err != nil {
			return Pie3Vertex{}, err
		}
		return Pie3Vertex{X: v[0], Y: v[1], Z: v[2]}, nil
	},
	formatVertex: func(v Pie3Vertex) string {
		return formatFloat(v.X) + " " + formatFloat(v.Y) + " " + formatFloat(v.Z)
	},
	poly: pie3PolyFormat,
}

var pie3PolyFormat = &polyFormat[Pie3UV]{
	maxIndices: pie3MaxIndices,
	exactArity: true,
	parseUV: func(u, v string) (Pie3UV, error) {
		uu, err := parseFloat(u)
		if err != nil {
			return Pie3UV{}, err
		}
		vv, err := parseFloat(v)
		if err != nil {
			return Pie3UV{}, err
		}
		return Pie3UV{U: uu, V: vv}, nil
	},
	formatUV: func(uv Pie3UV) string {
		return formatFloat(uv.U) + " " + formatFloat(uv.V)
	},
}

// dialectFor selects the dialect matching the vertex type. Mixing PIE 2 and
// PIE 3 element types in one instantiation is a programming error.
func dialectFor[V vertex, UV texcoord]() *dialect[V, UV] {
	var d interface{}
	var zero V
	switch interface{}(zero).(type) {
	case Pie2Vertex:
		d = pie2Dialect
	case Pie3Vertex:
		d = pie3Dialect
	}
	dd, ok := d.(*dialect[V, UV])
	if !ok {
		panic(fmt.Sprintf("pie: no dialect for %T/%T", zero, *new(UV)))
	}
	return dd
}
