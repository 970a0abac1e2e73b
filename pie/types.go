package pie

// Pie2Vertex is an integer PIE 2 point.
type Pie2Vertex struct {
	X, Y, Z int32
}

// Pie3Vertex is a floating point PIE 3 point.
type Pie3Vertex struct {
	X, Y, Z float32
}

// Pie2UV is a texture coordinate in texture page pixels.
type Pie2UV struct {
	U, V uint16
}

// Pie3UV is a normalized texture coordinate.
type Pie3UV struct {
	U, V float32
}

type Normal struct {
	X, Y, Z float32
}

type vertex interface {
	Pie2Vertex | Pie3Vertex
}

type texcoord interface {
	Pie2UV | Pie3UV
}

// Connector is an attachment point of a level.
type Connector[V vertex] struct {
	Pos V
}

// Material is the per-level lighting material (PIE 3).
type Material struct {
	Ambient   [3]float32
	Diffuse   [3]float32
	Specular  [3]float32
	Shininess float32
}

// DefaultMaterial returns the material used when a level declares none.
func DefaultMaterial() Material {
	return Material{
		Ambient:   [3]float32{1, 1, 1},
		Diffuse:   [3]float32{1, 1, 1},
		Specular:  [3]float32{1, 1, 1},
		Shininess: 10,
	}
}

type (
	Pie2Connector = Connector[Pie2Vertex]
	Pie3Connector = Connector[Pie3Vertex]
	Pie2Polygon   = Polygon[Pie2UV]
	Pie3Polygon   = Polygon[Pie3UV]
	Pie2Level     = Level[Pie2Vertex, Pie2UV]
	Pie3Level     = Level[Pie3Vertex, Pie3UV]
	Pie2Model     = Model[Pie2Vertex, Pie2UV]
	Pie3Model     = Model[Pie3Vertex, Pie3UV]
)
