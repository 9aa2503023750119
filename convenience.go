// FILE: lixenwraith/settings/convenience.go
package settings

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
)

// Quick builds a registry over DefaultCatalog with the standard precedence
// CLI > Env > File > member values.
func Quick(envPrefix, settingsFile string) (*Registry, error) {
	return NewBuilder().
		WithEnvPrefix(envPrefix).
		WithFile(settingsFile).
		WithArgs(os.Args[1:]).
		Build()
}

// MustQuick is like Quick but panics on error
func MustQuick(envPrefix, settingsFile string) *Registry {
	return NewBuilder().
		WithEnvPrefix(envPrefix).
		WithFile(settingsFile).
		WithArgs(os.Args[1:]).
		MustBuild()
}

// Get reads the setting addressed by a slash-joined key. A value staged on
// the registry comes first, then one staged on the entry, then the live value.
func (r *Registry) Get(key string) (any, error) {
	path := SplitPath(key)

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if !r.initialized {
		return nil, ErrNotInitialized
	}
	e, err := r.lookup(path)
	if err != nil {
		return nil, err
	}
	if edit, staged := r.pending[pendingKey(path)]; staged {
		return edit.value, nil
	}
	return e.Read()
}

// Set writes the setting addressed by a slash-joined key immediately.
func (r *Registry) Set(key string, value any) error {
	return r.ChangeSetting(SplitPath(key), value)
}

// GetAs reads a setting and converts it to T.
func GetAs[T any](r *Registry, key string) (T, error) {
	var zero T
	value, err := r.Get(key)
	if err != nil {
		return zero, err
	}
	v, err := coerce(value, reflect.TypeFor[T]())
	if err != nil {
		return zero, invalidValue(key, err)
	}
	out, _ := v.Interface().(T)
	return out, nil
}

// Debug returns a listing of every setting with its live value, bounds and
// pending state.
func (r *Registry) Debug() string {
	var b strings.Builder
	b.WriteString("Settings Debug Info:\n")

	for _, e := range r.Entries() {
		value, err := e.Live()
		if err != nil {
			value = "<" + err.Error() + ">"
		}
		fmt.Fprintf(&b, "  %s [%s] = %v", JoinPath(e.key), e.kind, value)
		if e.marker.BoundsActive() {
			fmt.Fprintf(&b, " (range %v..%v)", e.marker.Min, e.marker.Max)
		}
		if e.marker.Default != nil {
			fmt.Fprintf(&b, " (default: %v)", e.marker.Default)
		}
		if e.HasPendingChange() {
			pending, _ := e.Read()
			fmt.Fprintf(&b, " (pending: %v)", pending)
		}
		b.WriteByte('\n')
	}

	if edits := r.PendingEdits(); len(edits) > 0 {
		b.WriteString("Staged:\n")
		for key, value := range edits {
			fmt.Fprintf(&b, "  %s = %v\n", key, value)
		}
	}

	if issues := r.Issues(); len(issues) > 0 {
		b.WriteString("Issues:\n")
		for _, issue := range issues {
			fmt.Fprintf(&b, "  %s\n", issue.Error())
		}
	}

	return b.String()
}

// Dump writes the live values as TOML to w.
func (r *Registry) Dump(w io.Writer) error {
	data, err := r.encodeTOML("")
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
