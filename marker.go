// FILE: lixenwraith/settings/marker.go
package settings

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Struct tag keys read by the catalog.
const (
	TagSetting   = "setting"
	TagContainer = "settings"
)

// markerSeparator splits several markers declared in one tag value.
const markerSeparator = ";"

// MarkerKind identifies what a marker declares.
type MarkerKind uint8

const (
	// KindContainer marks a navigable menu node holding settings or further containers.
	KindContainer MarkerKind = iota
	// KindEntryPoint is a container that must sit on a global member.
	KindEntryPoint
	// KindSetting marks one editable value.
	KindSetting
)

// String returns the kind name.
func (k MarkerKind) String() string {
	switch k {
	case KindContainer:
		return "container"
	case KindEntryPoint:
		return "entrypoint"
	case KindSetting:
		return "setting"
	default:
		return "unknown"
	}
}

// Matches reports whether a marker of kind k satisfies a query for want.
// Entry points only satisfy container queries when includeDerived is set.
func (k MarkerKind) Matches(want MarkerKind, includeDerived bool) bool {
	if k == want {
		return true
	}
	return includeDerived && want == KindContainer && k == KindEntryPoint
}

// Marker is the metadata declared on a member. It is immutable once parsed.
type Marker struct {
	Kind MarkerKind

	// Name is the display name. Unnamed containers are shown by member name.
	Name string

	// Path is the menu location of a setting.
	Path []string

	// Default is the value restored by RestoreDefault, already converted to
	// the member's declared type. Nil when the tag declares none.
	Default any

	// Min and Max bound numeric settings. Bounds are active only when Min < Max.
	Min float64
	Max float64

	// DecimalPlaces is a precision hint; negative means pre-decimal digits.
	DecimalPlaces int8
}

// BoundsActive reports whether Min and Max constrain writes.
func (m Marker) BoundsActive() bool {
	return m.Min < m.Max
}

// parseMarkers reads every marker declared in tag for a member of type valueType.
// Problems are returned alongside whatever markers parsed cleanly.
func parseMarkers(tag reflect.StructTag, valueType reflect.Type) ([]Marker, []error) {
	var markers []Marker
	var errs []error

	if value, ok := tag.Lookup(TagContainer); ok {
		for _, def := range strings.Split(value, markerSeparator) {
			m, err := parseContainer(strings.TrimSpace(def))
			if err != nil {
				errs = append(errs, err)
				continue
			}
			markers = append(markers, m)
		}
	}

	if value, ok := tag.Lookup(TagSetting); ok {
		for _, def := range strings.Split(value, markerSeparator) {
			m, err := parseSetting(strings.TrimSpace(def), valueType)
			if err != nil {
				errs = append(errs, err)
			}
			// A marker with a name survives recoverable problems
			if m.Name != "" {
				markers = append(markers, m)
			}
		}
	}

	return markers, errs
}

// parseContainer accepts "contain", "menu=Name" and "entry=Name".
func parseContainer(def string) (Marker, error) {
	key, name, _ := strings.Cut(def, "=")
	switch strings.TrimSpace(key) {
	case "contain":
		return Marker{Kind: KindContainer, Name: strings.TrimSpace(name)}, nil
	case "menu":
		if name = strings.TrimSpace(name); name == "" {
			return Marker{}, fmt.Errorf("menu marker needs a name")
		}
		return Marker{Kind: KindContainer, Name: name}, nil
	case "entry":
		if name = strings.TrimSpace(name); name == "" {
			return Marker{}, fmt.Errorf("entry marker needs a name")
		}
		return Marker{Kind: KindEntryPoint, Name: name}, nil
	default:
		return Marker{}, fmt.Errorf("unknown container marker %q", def)
	}
}

// parseSetting accepts "path,name[,default=V][,min=F][,max=F][,decimals=N]".
// Bounds on a non-numeric type and an unconvertible default are dropped and
// reported while the marker itself is kept.
func parseSetting(def string, valueType reflect.Type) (Marker, error) {
	parts := strings.Split(def, ",")
	if len(parts) < 2 {
		return Marker{}, fmt.Errorf("setting marker %q needs a path and a name", def)
	}

	m := Marker{
		Kind: KindSetting,
		Path: SplitPath(strings.TrimSpace(parts[0])),
		Name: strings.TrimSpace(parts[1]),
	}
	if m.Name == "" {
		return Marker{}, fmt.Errorf("setting marker %q has an empty name", def)
	}

	var rawDefault *string
	for _, option := range parts[2:] {
		key, value, found := strings.Cut(option, "=")
		if !found {
			return Marker{}, fmt.Errorf("setting %q: option %q is not key=value", m.Name, option)
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)

		switch key {
		case "default":
			rawDefault = &value
		case "min", "max":
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return Marker{}, fmt.Errorf("setting %q: invalid %s: %w", m.Name, key, err)
			}
			if key == "min" {
				m.Min = f
			} else {
				m.Max = f
			}
		case "decimals":
			d, err := strconv.ParseInt(value, 10, 8)
			if err != nil {
				return Marker{}, fmt.Errorf("setting %q: invalid decimals: %w", m.Name, err)
			}
			m.DecimalPlaces = int8(d)
		default:
			return Marker{}, fmt.Errorf("setting %q: unknown option %q", m.Name, key)
		}
	}

	var problems []error
	if m.BoundsActive() && !kindOf(valueType).IsNumeric() {
		m.Min, m.Max = 0, 0
		problems = append(problems, fmt.Errorf("setting %q: bounds on non-numeric type %s", m.Name, valueType))
	}

	// Clamping must land on a value the member can hold
	if lo, hi, limited := typeRange(valueType); m.BoundsActive() && limited && (m.Min < lo || m.Max > hi) {
		m.Min, m.Max = max(m.Min, lo), min(m.Max, hi)
		if !m.BoundsActive() {
			m.Min, m.Max = 0, 0
		}
		problems = append(problems, fmt.Errorf("setting %q: bounds exceed the range of %s, narrowed to [%v, %v]",
			m.Name, valueType, m.Min, m.Max))
	}

	if rawDefault != nil {
		if v, err := coerce(*rawDefault, valueType); err != nil {
			problems = append(problems, fmt.Errorf("setting %q: invalid default: %w", m.Name, err))
		} else {
			m.Default = v.Interface()
		}
	}

	return m, errors.Join(problems...)
}
