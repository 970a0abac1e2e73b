package pie

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// Geometry is the read-only view of a level shared by both versions.
type Geometry interface {
	NumPoints() int
	NumNormals() int
	NumPolygons() int
	NumConnectors() int
	IsValid() bool
}

// Level is one mesh of a model.
type Level[V vertex, UV texcoord] struct {
	Points     []V
	Normals    []Normal
	Polygons   []Polygon[UV]
	Connectors []Connector[V]

	Material       Material
	VertexShader   string
	FragmentShader string

	Anim AnimObject
}

func (l *Level[V, UV]) NumPoints() int     { return len(l.Points) }
func (l *Level[V, UV]) NumNormals() int    { return len(l.Normals) }
func (l *Level[V, UV]) NumPolygons() int   { return len(l.Polygons) }
func (l *Level[V, UV]) NumConnectors() int { return len(l.Connectors) }

func (l *Level[V, UV]) IsValid() bool {
	return l.Validate() == nil
}

// Validate checks polygon arity and that every index refers to a point.
// A level without points is valid as long as it has no polygons.
func (l *Level[V, UV]) Validate() error {
	d := dialectFor[V, UV]()
	if len(l.Normals) != 0 && len(l.Normals) != len(l.Points) {
		return errors.Wrapf(ErrArity, "%d normals for %d points", len(l.Normals), len(l.Points))
	}
	for i := range l.Polygons {
		if err := l.checkPolygon(d, i); err != nil {
			return err
		}
	}
	return nil
}

func (l *Level[V, UV]) checkPolygon(d *dialect[V, UV], i int) error {
	p := &l.Polygons[i]
	if err := p.validate(d.poly); err != nil {
		return errors.Wrapf(err, "polygon %d", i)
	}
	for _, idx := range p.Indices {
		if int(idx) >= len(l.Points) {
			return errors.Wrapf(ErrArity, "polygon %d: index %d, %d points", i, idx, len(l.Points))
		}
	}
	return nil
}

func (l *Level[V, UV]) hasShaders() bool {
	return l.VertexShader != "" || l.FragmentShader != ""
}

// levelDefaults holds the model level MATERIALS and SHADERS inherited by
// levels that do not declare their own.
type levelDefaults struct {
	material       Material
	vertexShader   string
	fragmentShader string
}

func newLevelDefaults() levelDefaults {
	return levelDefaults{material: DefaultMaterial()}
}

func (l *Level[V, UV]) reset(def levelDefaults) {
	*l = Level[V, UV]{
		Material:       def.material,
		VertexShader:   def.vertexShader,
		FragmentShader: def.fragmentShader,
	}
}

// maxPoints is the number of points a uint16 polygon index can address.
const maxPoints = 1 << 16

// capHint bounds the capacity preallocated from a declared count, so that a
// bogus count fails on the missing lines instead of on allocation.
func capHint(n int) int {
	if n > 1024 {
		return 1024
	}
	return n
}

func parseMaterial(lr *lineReader, args []string, m *Material) error {
	if len(args) < 10 {
		return lr.errorf("expected 10 values, got %d", len(args))
	}
	var v [10]float32
	if err := parseFloats(v[:], args); err != nil {
		return lr.errorf("%v", err)
	}
	copy(m.Ambient[:], v[0:3])
	copy(m.Diffuse[:], v[3:6])
	copy(m.Specular[:], v[6:9])
	m.Shininess = v[9]
	return nil
}

func parseShaders(lr *lineReader, args []string, vert, frag *string) error {
	// Warzone writes the shader count first.
	if len(args) == 3 && args[0] == "2" {
		args = args[1:]
	}
	if len(args) != 2 {
		return lr.errorf("expected vertex and fragment shader")
	}
	*vert, *frag = args[0], args[1]
	return nil
}

// read parses a level body after its LEVEL line. Optional blocks are only
// looked for when allowed contains them; the blocks found are returned.
// Material and shaders start from def.
func (l *Level[V, UV]) read(lr *lineReader, d *dialect[V, UV], allowed Caps, def levelDefaults) (Caps, error) {
	var seen Caps
	l.reset(def)

	optional := func(dir Directive, handler func(args []string) error) error {
		if !allowed.Test(dir) {
			return nil
		}
		found, err := readDirective(lr, dir.Name(), true, handler)
		if found && err == nil {
			seen.Set(dir)
		}
		return err
	}

	if err := optional(DirMaterials, func(args []string) error {
		return parseMaterial(lr, args, &l.Material)
	}); err != nil {
		return seen, err
	}

	if err := optional(DirShaders, func(args []string) error {
		return parseShaders(lr, args, &l.VertexShader, &l.FragmentShader)
	}); err != nil {
		return seen, err
	}

	if _, err := readDirective(lr, "POINTS", false, func(args []string) error {
		n, err := lr.readCount(args)
		if err != nil {
			return err
		}
		if n > maxPoints {
			return errors.Wrapf(ErrArity, "line %d: %d points, at most %d", lr.line, n, maxPoints)
		}
		l.Points = make([]V, 0, capHint(n))
		for i := 0; i < n; i++ {
			fields, err := lr.nextN(3)
			if err != nil {
				return err
			}
			p, err := d.parseVertex(fields)
			if err != nil {
				return lr.errorf("point %d: %v", i, err)
			}
			l.Points = append(l.Points, p)
		}
		return nil
	}); err != nil {
		return seen, err
	}

	if err := optional(DirNormals, func(args []string) error {
		n, err := lr.readCount(args)
		if err != nil {
			return err
		}
		if n != len(l.Points) {
			return errors.Wrapf(ErrArity, "line %d: %d normals for %d points", lr.line, n, len(l.Points))
		}
		l.Normals = make([]Normal, 0, capHint(n))
		for i := 0; i < n; i++ {
			fields, err := lr.nextN(3)
			if err != nil {
				return err
			}
			var v [3]float32
			if err := parseFloats(v[:], fields); err != nil {
				return lr.errorf("normal %d: %v", i, err)
			}
			l.Normals = append(l.Normals, Normal{X: v[0], Y: v[1], Z: v[2]})
		}
		return nil
	}); err != nil {
		return seen, err
	}

	if _, err := readDirective(lr, "POLYGONS", false, func(args []string) error {
		n, err := lr.readCount(args)
		if err != nil {
			return err
		}
		l.Polygons = make([]Polygon[UV], 0, capHint(n))
		for i := 0; i < n; i++ {
			fields, err := lr.next()
			if err != nil {
				return err
			}
			l.Polygons = append(l.Polygons, Polygon[UV]{})
			if err := l.Polygons[i].read(d.poly, fields); err != nil {
				return errors.Wrapf(err, "line %d: polygon %d", lr.line, i)
			}
			if err := l.checkPolygon(d, i); err != nil {
				return errors.Wrapf(err, "line %d", lr.line)
			}
		}
		return nil
	}); err != nil {
		return seen, err
	}

	if err := optional(DirConnectors, func(args []string) error {
		n, err := lr.readCount(args)
		if err != nil {
			return err
		}
		l.Connectors = make([]Connector[V], 0, capHint(n))
		for i := 0; i < n; i++ {
			fields, err := lr.nextN(3)
			if err != nil {
				return err
			}
			pos, err := d.parseVertex(fields)
			if err != nil {
				return lr.errorf("connector %d: %v", i, err)
			}
			l.Connectors = append(l.Connectors, Connector[V]{Pos: pos})
		}
		return nil
	}); err != nil {
		return seen, err
	}

	err := optional(DirAnimObject, func(args []string) error {
		return l.Anim.read(lr, args)
	})
	return seen, err
}

// write emits the level body. Blocks are only written when caps contains
// them and the level has data for them.
func (l *Level[V, UV]) write(w io.Writer, d *dialect[V, UV], caps Caps) {
	if caps.Test(DirMaterials) {
		m := &l.Material
		fmt.Fprintf(w, "MATERIALS")
		for _, v := range [][]float32{m.Ambient[:], m.Diffuse[:], m.Specular[:], {m.Shininess}} {
			for _, f := range v {
				fmt.Fprintf(w, " %s", formatFloat(f))
			}
		}
		fmt.Fprintln(w)
	}
	if caps.Test(DirShaders) && l.hasShaders() {
		fmt.Fprintf(w, "SHADERS %s %s\n", l.VertexShader, l.FragmentShader)
	}

	fmt.Fprintf(w, "POINTS %d\n", len(l.Points))
	for _, p := range l.Points {
		fmt.Fprintf(w, "\t%s\n", d.formatVertex(p))
	}

	if caps.Test(DirNormals) && len(l.Normals) > 0 {
		fmt.Fprintf(w, "NORMALS %d\n", len(l.Normals))
		for _, n := range l.Normals {
			fmt.Fprintf(w, "\t%s %s %s\n", formatFloat(n.X), formatFloat(n.Y), formatFloat(n.Z))
		}
	}

	fmt.Fprintf(w, "POLYGONS %d\n", len(l.Polygons))
	for i := range l.Polygons {
		l.Polygons[i].write(w, d.poly)
	}

	if caps.Test(DirConnectors) && len(l.Connectors) > 0 {
		fmt.Fprintf(w, "CONNECTORS %d\n", len(l.Connectors))
		for _, c := range l.Connectors {
			fmt.Fprintf(w, "\t%s\n", d.formatVertex(c.Pos))
		}
	}

	if caps.Test(DirAnimObject) && l.Anim.IsValid() {
		l.Anim.write(w)
	}
}
