// FILE: lixenwraith/settings/entry.go
package settings

import (
	"fmt"
	"reflect"
	"sync"
)

// Entry is one editable setting: a Handle paired with its setting marker.
// Reads return a staged value when one is pending.
type Entry struct {
	mutex    sync.Mutex
	handle   *Handle
	marker   Marker
	key      []string
	notifier *Notifier
	kind     ValueKind

	pending    any
	hasPending bool
}

// newEntry wraps a setting handle. key is the container walk leading to the
// setting, ending with the setting name.
func newEntry(handle *Handle, key []string, notifier *Notifier) *Entry {
	return &Entry{
		handle:   handle,
		marker:   handle.Marker(),
		key:      clonePath(key),
		notifier: notifier,
		kind:     kindOf(handle.Type()),
	}
}

// Name returns the display name of the setting.
func (e *Entry) Name() string { return e.marker.Name }

// Path returns the menu path of the setting.
func (e *Entry) Path() []string { return clonePath(e.marker.Path) }

// PathString returns the menu path joined with "/".
func (e *Entry) PathString() string { return JoinPath(e.marker.Path) }

// Key returns the container names leading to the setting followed by its name.
func (e *Entry) Key() []string { return clonePath(e.key) }

// Handle returns the underlying accessor.
func (e *Entry) Handle() *Handle { return e.handle }

// Marker returns the setting marker.
func (e *Entry) Marker() Marker { return e.marker }

// Default returns the configured default, nil when none was declared.
func (e *Entry) Default() any { return e.marker.Default }

// MinValue returns the configured lower bound.
func (e *Entry) MinValue() float64 { return e.marker.Min }

// MaxValue returns the configured upper bound.
func (e *Entry) MaxValue() float64 { return e.marker.Max }

// ValueKind returns the kind of the declared type.
func (e *Entry) ValueKind() ValueKind { return e.kind }

// IsNumeric reports whether the setting holds a number.
func (e *Entry) IsNumeric() bool { return e.kind.IsNumeric() }

// IsDecimalNumeric reports whether the setting holds a floating point number.
func (e *Entry) IsDecimalNumeric() bool { return e.kind == ValueFloat }

// DecimalPlaces returns the precision hint. Integer settings report 0
// unless the hint counts pre-decimal digits.
func (e *Entry) DecimalPlaces() int {
	d := int(e.marker.DecimalPlaces)
	if e.IsDecimalNumeric() || d < 0 {
		return d
	}
	return 0
}

// Equal reports whether both entries carry the same name and path.
func (e *Entry) Equal(other *Entry) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.marker.Name == other.marker.Name && equalPath(e.marker.Path, other.marker.Path)
}

// HasPendingChange reports whether a staged value is waiting.
func (e *Entry) HasPendingChange() bool {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.hasPending
}

// Read returns the staged value if any, else the live value.
func (e *Entry) Read() (any, error) {
	e.mutex.Lock()
	if e.hasPending {
		v := e.pending
		e.mutex.Unlock()
		return v, nil
	}
	e.mutex.Unlock()
	return e.handle.Read()
}

// Live returns the value stored in the member, ignoring staged edits.
func (e *Entry) Live() (any, error) {
	return e.handle.Read()
}

// Write stores value in the member. Numbers outside active bounds are
// clamped to the nearest bound and a warning is emitted. Nil stores the
// zero value without bound checks.
func (e *Entry) Write(value any) error {
	if value == nil {
		return e.handle.writeValue(reflect.Zero(e.handle.Type()))
	}

	if !e.kind.IsNumeric() || !e.marker.BoundsActive() {
		return e.handle.Write(value)
	}

	f, err := toFloat(value)
	if err != nil {
		return invalidValue(e.marker.Name, err)
	}

	switch {
	case f > e.marker.Max:
		e.warn(fmt.Sprintf("%s: %v exceeds maximum %v, clamped", e.describe(), value, e.marker.Max))
		f = e.marker.Max
	case f < e.marker.Min:
		e.warn(fmt.Sprintf("%s: %v is below minimum %v, clamped", e.describe(), value, e.marker.Min))
		f = e.marker.Min
	}

	v, err := fromFloat(f, e.handle.Type())
	if err != nil {
		return invalidValue(e.marker.Name, err)
	}
	return e.handle.writeValue(v)
}

// StageTemporary buffers value without touching the member.
func (e *Entry) StageTemporary(value any) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.pending = value
	e.hasPending = true
}

// CommitPending writes the staged value, if any, and clears the buffer.
// The buffer is kept when the write fails.
func (e *Entry) CommitPending() error {
	e.mutex.Lock()
	if !e.hasPending {
		e.mutex.Unlock()
		return nil
	}
	value := e.pending
	e.mutex.Unlock()

	if err := e.Write(value); err != nil {
		return err
	}

	e.mutex.Lock()
	e.pending = nil
	e.hasPending = false
	e.mutex.Unlock()
	return nil
}

// DiscardPending drops the staged value.
func (e *Entry) DiscardPending() {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.pending = nil
	e.hasPending = false
}

// RestoreDefault stages the configured default.
func (e *Entry) RestoreDefault() {
	e.StageTemporary(e.marker.Default)
}

// String describes the entry for diagnostics.
func (e *Entry) String() string {
	return fmt.Sprintf("%s (%s)", e.describe(), e.kind)
}

func (e *Entry) describe() string {
	if len(e.marker.Path) == 0 {
		return e.marker.Name
	}
	return JoinPath(e.marker.Path) + PathSeparator + e.marker.Name
}

func (e *Entry) warn(text string) {
	if e.notifier == nil {
		return
	}
	e.notifier.Notify(e, text, SeverityWarning)
}
