package pie

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
)

const animDirective = "ANIMOBJECT"

// AnimFrame is one keyframe of an AnimObject.
type AnimFrame struct {
	Num   int
	Pos   [3]int
	Rot   [3]int
	Scale [3]float32
}

func (f *AnimFrame) read(fields []string) error {
	if len(fields) < 10 {
		return errors.Errorf("frame: expected 10 values, got %d", len(fields))
	}
	var ints [7]int
	if err := parseInts(ints[:], fields); err != nil {
		return errors.Wrap(err, "frame")
	}
	f.Num = ints[0]
	copy(f.Pos[:], ints[1:4])
	copy(f.Rot[:], ints[4:7])
	if err := parseFloats(f.Scale[:], fields[7:]); err != nil {
		return errors.Wrap(err, "frame scale")
	}
	return nil
}

func (f *AnimFrame) write(w io.Writer) {
	fmt.Fprintf(w, "\t%d %d %d %d %d %d %d %s %s %s\n", f.Num,
		f.Pos[0], f.Pos[1], f.Pos[2], f.Rot[0], f.Rot[1], f.Rot[2],
		formatFloat(f.Scale[0]), formatFloat(f.Scale[1]), formatFloat(f.Scale[2]))
}

// AnimObject is keyframe animation data, either inline in a level or a
// standalone .ani file.
type AnimObject struct {
	Time   int
	Cycles int
	Frames []AnimFrame
}

// IsValid reports whether any frames were read.
func (a *AnimObject) IsValid() bool { return len(a.Frames) > 0 }

func (a *AnimObject) Clear() { a.Frames = nil }

// NumFrames returns the frame count written in the ANIMOBJECT header.
func (a *AnimObject) NumFrames() int { return len(a.Frames) }

// read parses the ANIMOBJECT arguments and exactly as many frame lines as the
// header declares.
func (a *AnimObject) read(lr *lineReader, args []string) error {
	if len(args) < 3 {
		return lr.errorf("expected time, cycles and frame count")
	}
	var hdr [3]int
	if err := parseInts(hdr[:], args); err != nil {
		return lr.errorf("%v", err)
	}
	if hdr[2] < 0 {
		return errors.Wrapf(ErrArity, "line %d: negative frame count %d", lr.line, hdr[2])
	}
	a.Time, a.Cycles = hdr[0], hdr[1]
	a.Frames = make([]AnimFrame, 0, capHint(hdr[2]))
	for i := 0; i < hdr[2]; i++ {
		fields, err := lr.next()
		if err != nil {
			return errors.Wrapf(err, "frame %d of %d", i, hdr[2])
		}
		var f AnimFrame
		if err := f.read(fields); err != nil {
			return lr.errorf("frame %d of %d: %v", i, hdr[2], err)
		}
		a.Frames = append(a.Frames, f)
	}
	next, err := lr.peek()
	if err != nil {
		return err
	}
	if len(next) == 10 {
		if _, err := parseInt(next[0]); err == nil {
			return lr.errorf("more frames than the %d declared", hdr[2])
		}
	}
	return nil
}

func (a *AnimObject) write(w io.Writer) {
	fmt.Fprintf(w, "%s %d %d %d\n", animDirective, a.Time, a.Cycles, len(a.Frames))
	for i := range a.Frames {
		a.Frames[i].write(w)
	}
}

// ReadAnimation reads a standalone animation file.
func ReadAnimation(r io.Reader) (*AnimObject, error) {
	lr := newLineReader(r)
	var a AnimObject
	if _, err := readDirective(lr, animDirective, false, func(args []string) error {
		return a.read(lr, args)
	}); err != nil {
		return nil, err
	}
	if rest, err := lr.peek(); err != nil {
		return nil, err
	} else if rest != nil {
		return nil, lr.errorf("unexpected %s after %d frames", rest[0], len(a.Frames))
	}
	return &a, nil
}

// LoadAnimation reads a standalone animation file from path.
func LoadAnimation(path string) (*AnimObject, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	a, err := ReadAnimation(f)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return a, nil
}

// WriteAnimation writes a as a standalone animation file.
func WriteAnimation(w io.Writer, a *AnimObject) error {
	bw := bufio.NewWriter(w)
	a.write(bw)
	return bw.Flush()
}
