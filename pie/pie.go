// Package pie reads and writes Warzone 2100 PIE models in versions 2 and 3
// and converts between them.
package pie

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Document is a PIE model of either version.
type Document interface {
	Version() int
	NumLevels() int
	Level(i int) Geometry
	Caps() Caps
	IsValid() bool
	Write(w io.Writer, caps *Caps) error
}

var (
	_ Document = (*Pie2Model)(nil)
	_ Document = (*Pie3Model)(nil)
)

// NewDocument returns an empty model of the given version.
func NewDocument(version int) (Document, error) {
	switch version {
	case 2:
		return &Pie2Model{}, nil
	case 3:
		return &Pie3Model{}, nil
	}
	return nil, errors.Wrapf(ErrVersionMismatch, "unknown version %d", version)
}

// PeekVersion returns the version declared on the first non-blank line of br
// without consuming any input.
func PeekVersion(br *bufio.Reader) (int, error) {
	var fields []string
	for n := 16; ; n *= 2 {
		if n > br.Size() {
			n = br.Size()
		}
		buf, err := br.Peek(n)
		end := err != nil || n == br.Size()
		if f, ok := firstFields(buf, end); ok {
			fields = f
			break
		}
		if end {
			break
		}
	}
	if len(fields) < 2 || fields[0] != signature {
		return 0, errors.Wrapf(ErrMissingDirective, "%s: not a PIE file", signature)
	}
	v, err := parseInt(fields[1])
	if err != nil {
		return 0, errors.Wrapf(ErrSyntax, "version %q", fields[1])
	}
	return v, nil
}

// Parse reads a PIE document, choosing the model type from the declared version.
func Parse(r io.Reader) (Document, error) {
	br := bufio.NewReader(transform.NewReader(r, unicode.BOMOverride(transform.Nop)))
	v, err := PeekVersion(br)
	if err != nil {
		return nil, err
	}
	switch v {
	case 2:
		var m Pie2Model
		if err := m.Read(br); err != nil {
			return nil, err
		}
		return &m, nil
	case 3:
		var m Pie3Model
		if err := m.Read(br); err != nil {
			return nil, err
		}
		return &m, nil
	}
	return nil, errors.Wrapf(ErrVersionMismatch, "unsupported PIE version %d", v)
}

// Load reads the PIE file at path.
func Load(path string) (Document, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	doc, err := Parse(r)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return doc, nil
}

// Save writes doc to path. caps may be nil to use the document's own.
func Save(doc Document, path string, caps *Caps) error {
	w, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := doc.Write(w, caps); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// firstFields returns the fields of the first non-blank line in buf. An
// unterminated last line only counts when end is set.
func firstFields(buf []byte, end bool) ([]string, bool) {
	for len(buf) > 0 {
		i := bytes.IndexByte(buf, '\n')
		if i < 0 {
			if !end {
				return nil, false
			}
			i = len(buf)
		}
		if f := strings.Fields(string(buf[:i])); len(f) > 0 {
			return f, true
		}
		if i == len(buf) {
			break
		}
		buf = buf[i+1:]
	}
	return nil, false
}
