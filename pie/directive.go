package pie

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// lineReader reads whitespace separated lines and allows peeking one line ahead.
type lineReader struct {
	s      *bufio.Scanner
	line   int
	peeked []string
	ok     bool
	err    error
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{s: bufio.NewScanner(r)}
}

// peek returns the fields of the next non-blank line without consuming it.
// It returns nil at end of input.
func (lr *lineReader) peek() ([]string, error) {
	if lr.ok {
		return lr.peeked, nil
	}
	if lr.err != nil {
		return nil, lr.err
	}
	for lr.s.Scan() {
		lr.line++
		fields := strings.Fields(lr.s.Text())
		if len(fields) == 0 {
			continue
		}
		lr.peeked, lr.ok = fields, true
		return fields, nil
	}
	if err := lr.s.Err(); err != nil {
		lr.err = errors.Wrapf(err, "line %d", lr.line)
		return nil, lr.err
	}
	return nil, nil
}

// next consumes and returns the next non-blank line.
func (lr *lineReader) next() ([]string, error) {
	fields, err := lr.peek()
	if err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errors.Wrapf(ErrSyntax, "line %d: unexpected end of input", lr.line)
	}
	lr.peeked, lr.ok = nil, false
	return fields, nil
}

// nextN consumes the next line and checks it holds at least n fields.
func (lr *lineReader) nextN(n int) ([]string, error) {
	fields, err := lr.next()
	if err != nil {
		return nil, err
	}
	if len(fields) < n {
		return nil, lr.errorf("expected %d values, got %d", n, len(fields))
	}
	return fields, nil
}

// errorf returns an ErrSyntax annotated with the current line.
func (lr *lineReader) errorf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrSyntax, "line %d: "+format, append([]interface{}{lr.line}, args...)...)
}

// readDirective reads a directive led by keyword. The handler receives the
// remaining fields of the directive line and may consume further lines.
// A missing optional directive is not consumed and reports found == false.
func readDirective(lr *lineReader, keyword string, optional bool, handler func(args []string) error) (bool, error) {
	fields, err := lr.peek()
	if err != nil {
		return false, err
	}
	if fields == nil || fields[0] != keyword {
		if optional {
			return false, nil
		}
		if fields == nil {
			return false, errors.Wrapf(ErrMissingDirective, "%s: unexpected end of input", keyword)
		}
		return false, errors.Wrapf(ErrMissingDirective, "line %d: expected %s, got %s", lr.line, keyword, fields[0])
	}
	lr.next()
	if err := handler(fields[1:]); err != nil {
		return true, errors.Wrap(err, keyword)
	}
	return true, nil
}

// readCount parses the single count argument of POINTS, POLYGONS and similar directives.
func (lr *lineReader) readCount(args []string) (int, error) {
	if len(args) < 1 {
		return 0, lr.errorf("missing count")
	}
	n, err := parseInt(args[0])
	if err != nil {
		return 0, lr.errorf("count: %v", err)
	}
	if n < 0 {
		return 0, errors.Wrapf(ErrArity, "line %d: negative count %d", lr.line, n)
	}
	return n, nil
}

func parseInt(s string) (int, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	return int(n), err
}

func parseHex(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 16, 32)
	return uint32(n), err
}

func parseFloat(s string) (float32, error) {
	n, err := strconv.ParseFloat(s, 32)
	return float32(n), err
}

func parseFloats(dst []float32, fields []string) error {
	for i := range dst {
		f, err := parseFloat(fields[i])
		if err != nil {
			return err
		}
		dst[i] = f
	}
	return nil
}

func parseInts(dst []int, fields []string) error {
	for i := range dst {
		n, err := parseInt(fields[i])
		if err != nil {
			return err
		}
		dst[i] = n
	}
	return nil
}

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'f', -1, 32)
}
