package pie

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Polygon feature flags.
const (
	FeatureTextured = 0x200
	FeatureTCMask   = 0x10000
)

// TexAnim is the texture animation header of a TCMASK polygon.
type TexAnim[UV texcoord] struct {
	Frames int
	Rate   int
	// Size is the offset between two frames in texture coordinates.
	Size UV
}

// Polygon is a face of a level.
type Polygon[UV texcoord] struct {
	Flags   uint32
	Indices []uint16
	Anim    TexAnim[UV]
	// UVs holds one coordinate per index for each frame, set only when textured.
	UVs [][]UV
}

func (p *Polygon[UV]) IsTextured() bool { return p.Flags&FeatureTextured != 0 }
func (p *Polygon[UV]) HasTCMask() bool  { return p.Flags&FeatureTCMask != 0 }

// Frames returns the number of texture animation frames.
func (p *Polygon[UV]) Frames() int {
	if p.HasTCMask() {
		return p.Anim.Frames
	}
	return 1
}

// UV returns the coordinate of the index-th vertex in frame.
func (p *Polygon[UV]) UV(index, frame int) UV {
	var zero UV
	if frame < 0 || frame >= len(p.UVs) || index < 0 || index >= len(p.UVs[frame]) {
		return zero
	}
	return p.UVs[frame][index]
}

func (p *Polygon[UV]) read(f *polyFormat[UV], fields []string) error {
	if len(fields) < 2 {
		return errors.Wrap(ErrSyntax, "expected flags and index count")
	}
	flags, err := parseHex(fields[0])
	if err != nil {
		return errors.Wrapf(ErrSyntax, "flags %q", fields[0])
	}
	n, err := parseInt(fields[1])
	if err != nil {
		return errors.Wrapf(ErrSyntax, "index count %q", fields[1])
	}
	if err := f.checkArity(n); err != nil {
		return err
	}
	p.Flags = flags
	rest := fields[2:]
	take := func(k int, what string) ([]string, error) {
		if len(rest) < k {
			return nil, errors.Wrapf(ErrSyntax, "%s: expected %d values, got %d", what, k, len(rest))
		}
		v := rest[:k]
		rest = rest[k:]
		return v, nil
	}

	idx, err := take(n, "indices")
	if err != nil {
		return err
	}
	p.Indices = make([]uint16, n)
	for i, s := range idx {
		v, err := strconv.ParseUint(s, 10, 16)
		if err != nil {
			return errors.Wrapf(ErrSyntax, "index %q", s)
		}
		p.Indices[i] = uint16(v)
	}

	p.Anim = TexAnim[UV]{}
	if p.HasTCMask() {
		hdr, err := take(4, "texture animation")
		if err != nil {
			return err
		}
		var ints [2]int
		if err := parseInts(ints[:], hdr); err != nil {
			return errors.Wrapf(ErrSyntax, "texture animation: %v", err)
		}
		if ints[0] < 1 {
			return errors.Wrapf(ErrArity, "texture animation: %d frames", ints[0])
		}
		size, err := f.parseUV(hdr[2], hdr[3])
		if err != nil {
			return errors.Wrapf(ErrSyntax, "texture animation size: %v", err)
		}
		p.Anim = TexAnim[UV]{Frames: ints[0], Rate: ints[1], Size: size}
	}

	p.UVs = nil
	if p.IsTextured() {
		frames := p.Frames()
		uvs, err := take(frames*n*2, "texture coordinates")
		if err != nil {
			return err
		}
		p.UVs = make([][]UV, frames)
		for fr := range p.UVs {
			p.UVs[fr] = make([]UV, n)
			for i := range p.UVs[fr] {
				k := (fr*n + i) * 2
				uv, err := f.parseUV(uvs[k], uvs[k+1])
				if err != nil {
					return errors.Wrapf(ErrSyntax, "texture coordinate: %v", err)
				}
				p.UVs[fr][i] = uv
			}
		}
	}
	if len(rest) > 0 {
		return errors.Wrapf(ErrSyntax, "%d trailing values", len(rest))
	}
	return nil
}

func (p *Polygon[UV]) write(w io.Writer, f *polyFormat[UV]) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\t%x %d", p.Flags, len(p.Indices))
	for _, i := range p.Indices {
		fmt.Fprintf(&sb, " %d", i)
	}
	if p.HasTCMask() {
		fmt.Fprintf(&sb, " %d %d %s", p.Anim.Frames, p.Anim.Rate, f.formatUV(p.Anim.Size))
	}
	if p.IsTextured() {
		for _, frame := range p.UVs {
			for _, uv := range frame {
				sb.WriteString(" ")
				sb.WriteString(f.formatUV(uv))
			}
		}
	}
	sb.WriteString("\n")
	io.WriteString(w, sb.String())
}

// validate checks the polygon against the version arity and its own flags.
func (p *Polygon[UV]) validate(f *polyFormat[UV]) error {
	if err := f.checkArity(len(p.Indices)); err != nil {
		return err
	}
	if p.HasTCMask() && p.Anim.Frames < 1 {
		return errors.Wrapf(ErrArity, "texture animation: %d frames", p.Anim.Frames)
	}
	if !p.IsTextured() {
		return nil
	}
	if len(p.UVs) != p.Frames() {
		return errors.Wrapf(ErrArity, "%d texture frames, want %d", len(p.UVs), p.Frames())
	}
	for fr, uvs := range p.UVs {
		if len(uvs) != len(p.Indices) {
			return errors.Wrapf(ErrArity, "frame %d: %d texture coordinates for %d indices", fr, len(uvs), len(p.Indices))
		}
	}
	return nil
}

func (f *polyFormat[UV]) checkArity(n int) error {
	if f.exactArity && n != f.maxIndices {
		return errors.Wrapf(ErrArity, "%d indices, want %d", n, f.maxIndices)
	}
	if n < 3 || n > f.maxIndices {
		return errors.Wrapf(ErrArity, "%d indices, want 3 to %d", n, f.maxIndices)
	}
	return nil
}
