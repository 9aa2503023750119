// FILE: lixenwraith/settings/errors.go
package settings

import (
	"errors"
	"strings"

	"github.com/samber/oops"
)

// Error kinds surfaced by discovery, navigation and editing.
// Match them with errors.Is; the returned errors carry path context.
var (
	ErrStaticModifier   = errors.New("marker requires a global member")
	ErrKeyNotFound      = errors.New("key not found")
	ErrAmbiguousMatch   = errors.New("ambiguous setting match")
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrNoParent         = errors.New("instance member has no parent")
	ErrReadOnly         = errors.New("member is read-only")
	ErrInvalidValue     = errors.New("invalid value")
	ErrNotInitialized   = errors.New("settings registry not initialized")
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrSettingsNotFound = errors.New("settings file not found")
)

// Issue records a marker placement problem found while describing types
// or building the registry. Issues do not abort discovery.
type Issue struct {
	Type   string
	Member string
	Err    error
}

func (i Issue) Error() string {
	return i.Type + "." + i.Member + ": " + i.Err.Error()
}

func (i Issue) Unwrap() error {
	return i.Err
}

func keyNotFound(path []string, segment string) error {
	return oops.
		In("settings").
		With("path", strings.Join(path, PathSeparator)).
		Wrapf(ErrKeyNotFound, "segment %q", segment)
}

func ambiguousMatch(path []string, count int) error {
	return oops.
		In("settings").
		With("path", strings.Join(path, PathSeparator), "candidates", count).
		Wrapf(ErrAmbiguousMatch, "%d settings named %q", count, path[len(path)-1])
}

func typeMismatch(want, got string) error {
	return oops.
		In("accessor").
		Wrapf(ErrTypeMismatch, "parent type %s does not match %s", got, want)
}

func invalidValue(member string, cause error) error {
	return oops.
		In("entry").
		With("member", member).
		Wrapf(errors.Join(ErrInvalidValue, cause), "cannot store value")
}
