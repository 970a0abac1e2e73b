package pie

import (
	"strings"

	"github.com/pkg/errors"
)

// Directive is an optional PIE directive negotiated through Caps.
type Directive int

const (
	DirNormalMap Directive = iota
	DirSpecularMap
	DirEvent
	DirMaterials
	DirShaders
	DirNormals
	DirConnectors
	DirAnimObject

	numDirectives
)

var directiveNames = [numDirectives]string{
	"NORMALMAP",
	"SPECULARMAP",
	"EVENT",
	"MATERIALS",
	"SHADERS",
	"NORMALS",
	"CONNECTORS",
	"ANIMOBJECT",
}

var directiveDescriptions = [numDirectives]string{
	"Normal map texture",
	"Specular map texture",
	"Animation events",
	"Per-level materials",
	"Per-level shaders",
	"Per-point normals",
	"Connectors",
	"Per-level animation",
}

// Name returns the keyword of the directive.
func (d Directive) Name() string {
	if d < 0 || d >= numDirectives {
		return "UNKNOWN"
	}
	return directiveNames[d]
}

// Description returns a short human readable description.
func (d Directive) Description() string {
	if d < 0 || d >= numDirectives {
		return ""
	}
	return directiveDescriptions[d]
}

func (d Directive) String() string { return d.Name() }

// Directives returns all optional directives in bit order.
func Directives() []Directive {
	dirs := make([]Directive, numDirectives)
	for i := range dirs {
		dirs[i] = Directive(i)
	}
	return dirs
}

// Caps is a fixed-size set of optional directives. Bit i is Directive(i).
type Caps uint8

var (
	// Pie2Caps is the maximum capability set of PIE 2.
	Pie2Caps = MustParseCaps("11100011")
	// Pie3Caps is the maximum capability set of PIE 3.
	Pie3Caps = MustParseCaps("11111111")
)

// ParseCaps builds a Caps from a bit string. The rightmost
// character is bit 0, so "00000001" is DirNormalMap only. Shorter strings are
// zero extended.
func ParseCaps(bits string) (Caps, error) {
	if len(bits) > int(numDirectives) {
		return 0, errors.Errorf("caps %q: longer than %d bits", bits, numDirectives)
	}
	var c Caps
	for i := 0; i < len(bits); i++ {
		pos := Directive(len(bits) - 1 - i)
		switch bits[i] {
		case '1':
			c.Set(pos)
		case '0':
		default:
			return 0, errors.Errorf("caps %q: invalid character %q", bits, bits[i])
		}
	}
	return c, nil
}

// MustParseCaps is like ParseCaps but panics on error.
func MustParseCaps(bits string) Caps {
	c, err := ParseCaps(bits)
	if err != nil {
		panic(err)
	}
	return c
}

// Test reports whether d is set.
func (c Caps) Test(d Directive) bool {
	return c&(1<<uint(d)) != 0
}

// Set sets d to v, true when v is omitted.
func (c *Caps) Set(d Directive, v ...bool) *Caps {
	if len(v) > 0 && !v[0] {
		return c.ResetDirective(d)
	}
	*c |= 1 << uint(d)
	return c
}

// Reset clears every directive.
func (c *Caps) Reset() *Caps {
	*c = 0
	return c
}

// ResetDirective clears d.
func (c *Caps) ResetDirective(d Directive) *Caps {
	*c &^= 1 << uint(d)
	return c
}

// Flip toggles d.
func (c *Caps) Flip(d Directive) *Caps {
	*c ^= 1 << uint(d)
	return c
}

// Size returns the number of directives the set can hold.
func (c Caps) Size() int {
	return int(numDirectives)
}

func (c Caps) Intersect(o Caps) Caps { return c & o }
func (c Caps) Union(o Caps) Caps     { return c | o }

// SubsetOf reports whether every directive of c is also in o.
func (c Caps) SubsetOf(o Caps) bool {
	return c&^o == 0
}

// Directives returns the set directives in bit order.
func (c Caps) Directives() []Directive {
	var dirs []Directive
	for _, d := range Directives() {
		if c.Test(d) {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// String returns the bit string accepted by ParseCaps.
func (c Caps) String() string {
	var sb strings.Builder
	for d := numDirectives - 1; d >= 0; d-- {
		if c.Test(d) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// MaxCaps returns the maximum capability set of a PIE version.
func MaxCaps(version int) (Caps, error) {
	switch version {
	case 2:
		return Pie2Caps, nil
	case 3:
		return Pie3Caps, nil
	}
	return 0, errors.Wrapf(ErrVersionMismatch, "unknown version %d", version)
}

// ConvertCaps clears the directives the target version cannot hold.
func ConvertCaps(c Caps, version int) (Caps, error) {
	max, err := MaxCaps(version)
	if err != nil {
		return 0, err
	}
	return c.Intersect(max), nil
}
