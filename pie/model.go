package pie

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

const (
	signature    = "PIE"
	tcmaskSuffix = "_tcmask"
)

// Model is a whole PIE document. Use the Pie2Model and Pie3Model aliases.
type Model[V vertex, UV texcoord] struct {
	// Type holds the model feature bits written in TYPE.
	Type uint32

	Texture     string
	NormalMap   string
	SpecularMap string
	// Events maps animation event ids to animation file names.
	Events map[int]string

	Levels []Level[V, UV]

	caps Caps
}

// Version returns the PIE version of the model.
func (m *Model[V, UV]) Version() int { return dialectFor[V, UV]().version }

// DefaultCaps returns the maximum capability set of the model's version.
func (m *Model[V, UV]) DefaultCaps() Caps { return dialectFor[V, UV]().caps }

// Caps returns the optional directives present in the model.
func (m *Model[V, UV]) Caps() Caps { return m.caps }

// SetCaps replaces the negotiated capability set.
func (m *Model[V, UV]) SetCaps(c Caps) error {
	d := dialectFor[V, UV]()
	if !c.SubsetOf(d.caps) {
		return errors.Wrapf(ErrCapsMismatch, "caps %s, PIE %d supports %s", c, d.version, d.caps)
	}
	m.caps = c
	return nil
}

func (m *Model[V, UV]) NumLevels() int { return len(m.Levels) }

// Level returns the geometry of level i.
func (m *Model[V, UV]) Level(i int) Geometry { return &m.Levels[i] }

func (m *Model[V, UV]) IsValid() bool {
	if len(m.Levels) == 0 || m.Texture == "" || !m.caps.SubsetOf(m.DefaultCaps()) {
		return false
	}
	for i := range m.Levels {
		if !m.Levels[i].IsValid() {
			return false
		}
	}
	return true
}

// IsFeatureSet reports whether the TYPE bits contain feature.
func (m *Model[V, UV]) IsFeatureSet(feature uint32) bool {
	return m.Type&feature != 0
}

// SetFeature sets or clears feature in the TYPE bits.
func (m *Model[V, UV]) SetFeature(feature uint32, on bool) {
	if on {
		m.Type |= feature
	} else {
		m.Type &^= feature
	}
}

// TCMaskTexture returns the team color mask texture name, or "" when the
// model has no TCMASK feature.
func (m *Model[V, UV]) TCMaskTexture() string {
	if !m.IsFeatureSet(FeatureTCMask) || m.Texture == "" {
		return ""
	}
	ext := filepath.Ext(m.Texture)
	return strings.TrimSuffix(m.Texture, ext) + tcmaskSuffix + ext
}

// Read replaces the model with the document read from r. On error the model
// is left partially filled and should be discarded.
func (m *Model[V, UV]) Read(r io.Reader) error {
	return m.read(newLineReader(r))
}

func (m *Model[V, UV]) read(lr *lineReader) error {
	d := dialectFor[V, UV]()
	*m = Model[V, UV]{}
	var seen Caps

	if _, err := readDirective(lr, signature, false, func(args []string) error {
		if len(args) < 1 {
			return lr.errorf("missing version")
		}
		v, err := parseInt(args[0])
		if err != nil {
			return lr.errorf("version %q", args[0])
		}
		if v != d.version {
			return errors.Wrapf(ErrVersionMismatch, "line %d: PIE %d, want %d", lr.line, v, d.version)
		}
		return nil
	}); err != nil {
		return err
	}

	if _, err := readDirective(lr, "TYPE", false, func(args []string) error {
		if len(args) < 1 {
			return lr.errorf("missing type")
		}
		t, err := parseHex(args[0])
		if err != nil {
			return lr.errorf("type %q", args[0])
		}
		m.Type = t
		return nil
	}); err != nil {
		return err
	}

	texture := func(dst *string) func(args []string) error {
		return func(args []string) error {
			if len(args) < 2 {
				return lr.errorf("expected page and file name")
			}
			if _, err := parseInt(args[0]); err != nil {
				return lr.errorf("page %q", args[0])
			}
			// Trailing page width and height are not needed.
			*dst = args[1]
			return nil
		}
	}
	if _, err := readDirective(lr, "TEXTURE", false, texture(&m.Texture)); err != nil {
		return err
	}
	for _, t := range []struct {
		dir Directive
		dst *string
	}{{DirNormalMap, &m.NormalMap}, {DirSpecularMap, &m.SpecularMap}} {
		if !d.caps.Test(t.dir) {
			continue
		}
		found, err := readDirective(lr, t.dir.Name(), true, texture(t.dst))
		if err != nil {
			return err
		}
		seen.Set(t.dir, found)
	}

	// MATERIALS and SHADERS may also appear before LEVELS, as defaults for
	// every level.
	def := newLevelDefaults()
	if d.caps.Test(DirMaterials) {
		found, err := readDirective(lr, DirMaterials.Name(), true, func(args []string) error {
			return parseMaterial(lr, args, &def.material)
		})
		if err != nil {
			return err
		}
		if found {
			seen.Set(DirMaterials)
		}
	}

	for d.caps.Test(DirEvent) {
		found, err := readDirective(lr, DirEvent.Name(), true, func(args []string) error {
			if len(args) < 2 {
				return lr.errorf("expected event id and name")
			}
			id, err := parseInt(args[0])
			if err != nil {
				return lr.errorf("event id %q", args[0])
			}
			if _, dup := m.Events[id]; dup {
				return lr.errorf("duplicate event %d", id)
			}
			if m.Events == nil {
				m.Events = map[int]string{}
			}
			m.Events[id] = args[1]
			return nil
		})
		if err != nil {
			return err
		}
		if !found {
			break
		}
		seen.Set(DirEvent)
	}

	if d.caps.Test(DirShaders) {
		found, err := readDirective(lr, DirShaders.Name(), true, func(args []string) error {
			return parseShaders(lr, args, &def.vertexShader, &def.fragmentShader)
		})
		if err != nil {
			return err
		}
		if found {
			seen.Set(DirShaders)
		}
	}

	if _, err := readDirective(lr, "LEVELS", false, func(args []string) error {
		n, err := lr.readCount(args)
		if err != nil {
			return err
		}
		m.Levels = make([]Level[V, UV], 0, capHint(n))
		for i := 0; i < n; i++ {
			m.Levels = append(m.Levels, Level[V, UV]{})
			if _, err := readDirective(lr, "LEVEL", false, func(args []string) error {
				if len(args) < 1 {
					return lr.errorf("missing level index")
				}
				if _, err := parseInt(args[0]); err != nil {
					return lr.errorf("level index %q", args[0])
				}
				lc, err := m.Levels[i].read(lr, d, d.caps, def)
				seen = seen.Union(lc)
				return err
			}); err != nil {
				return errors.Wrapf(err, "level %d of %d", i, n)
			}
		}
		return nil
	}); err != nil {
		return err
	}

	rest, err := lr.peek()
	if err != nil {
		return err
	}
	if rest != nil {
		return lr.errorf("unexpected %s after last level", rest[0])
	}
	m.caps = seen
	return nil
}

// Write writes the model to w. Optional directives are emitted according to
// caps, or the model's own caps when caps is nil.
func (m *Model[V, UV]) Write(w io.Writer, caps *Caps) error {
	d := dialectFor[V, UV]()
	c := m.caps
	if caps != nil {
		c = *caps
	}
	if !c.SubsetOf(d.caps) {
		return errors.Wrapf(ErrCapsMismatch, "caps %s, PIE %d supports %s", c, d.version, d.caps)
	}
	if m.Texture == "" {
		return errors.Wrap(ErrMissingDirective, "TEXTURE: no texture")
	}
	for i := range m.Levels {
		if err := m.Levels[i].Validate(); err != nil {
			return errors.Wrapf(err, "level %d", i)
		}
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s %d\n", signature, d.version)
	fmt.Fprintf(bw, "TYPE %x\n", m.Type)
	fmt.Fprintf(bw, "TEXTURE 0 %s %d %d\n", m.Texture, d.textureWidth, d.textureHeight)
	if c.Test(DirNormalMap) && m.NormalMap != "" {
		fmt.Fprintf(bw, "%s 0 %s\n", DirNormalMap.Name(), m.NormalMap)
	}
	if c.Test(DirSpecularMap) && m.SpecularMap != "" {
		fmt.Fprintf(bw, "%s 0 %s\n", DirSpecularMap.Name(), m.SpecularMap)
	}
	if c.Test(DirEvent) {
		ids := make([]int, 0, len(m.Events))
		for id := range m.Events {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		for _, id := range ids {
			fmt.Fprintf(bw, "%s %d %s\n", DirEvent.Name(), id, m.Events[id])
		}
	}
	fmt.Fprintf(bw, "LEVELS %d\n", len(m.Levels))
	for i := range m.Levels {
		fmt.Fprintf(bw, "LEVEL %d\n", i+1)
		m.Levels[i].write(bw, d, c)
	}
	return bw.Flush()
}
