package pie

import "github.com/pkg/errors"

var (
	// ErrSyntax reports a malformed line or token.
	ErrSyntax = errors.New("pie: syntax error")
	// ErrMissingDirective reports a mandatory directive that was not found.
	ErrMissingDirective = errors.New("pie: missing directive")
	// ErrArity reports an index or count outside the bound declared by the document or version.
	ErrArity = errors.New("pie: out of bounds")
	// ErrVersionMismatch reports a conversion or read between incompatible versions.
	ErrVersionMismatch = errors.New("pie: version mismatch")
	// ErrCapsMismatch reports capabilities outside the version maximum.
	ErrCapsMismatch = errors.New("pie: unsupported capabilities")
)
