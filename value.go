// FILE: lixenwraith/settings/value.go
package settings

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"
)

// ValueKind classifies the declared type of a setting.
type ValueKind uint8

const (
	ValueObject ValueKind = iota // Anything not covered below
	ValueInt
	ValueUint
	ValueFloat
	ValueBool
	ValueString
	ValueDuration
)

var durationType = reflect.TypeOf(time.Duration(0))

// String returns the kind name.
func (k ValueKind) String() string {
	switch k {
	case ValueInt:
		return "int"
	case ValueUint:
		return "uint"
	case ValueFloat:
		return "float"
	case ValueBool:
		return "bool"
	case ValueString:
		return "string"
	case ValueDuration:
		return "duration"
	default:
		return "object"
	}
}

// IsNumeric reports whether the kind takes part in bounds checking.
func (k ValueKind) IsNumeric() bool {
	return k == ValueInt || k == ValueUint || k == ValueFloat
}

// kindOf classifies a declared member type.
func kindOf(t reflect.Type) ValueKind {
	if t == nil {
		return ValueObject
	}
	if t == durationType {
		return ValueDuration
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return ValueInt
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return ValueUint
	case reflect.Float32, reflect.Float64:
		return ValueFloat
	case reflect.Bool:
		return ValueBool
	case reflect.String:
		return ValueString
	default:
		return ValueObject
	}
}

// typeRange returns the inclusive range a numeric type can hold, as floats
// fromFloat accepts. Float64 reports no limit.
func typeRange(t reflect.Type) (lo, hi float64, limited bool) {
	switch kindOf(t) {
	case ValueInt:
		bits := t.Bits()
		lo = -math.Ldexp(1, bits-1)
		hi = math.Ldexp(1, bits-1)
		if bits == 64 {
			return lo, math.Nextafter(hi, 0), true
		}
		return lo, hi - 1, true
	case ValueUint:
		bits := t.Bits()
		hi = math.Ldexp(1, bits)
		if bits == 64 {
			return 0, math.Nextafter(hi, 0), true
		}
		return 0, hi - 1, true
	case ValueFloat:
		if t.Kind() == reflect.Float32 {
			return -math.MaxFloat32, math.MaxFloat32, true
		}
	}
	return 0, 0, false
}

// toFloat extracts a float64 from numeric values, numeric strings and booleans.
func toFloat(value any) (float64, error) {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(v.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.String:
		f, err := strconv.ParseFloat(v.String(), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert string %q to a number: %w", v.String(), err)
		}
		return f, nil
	case reflect.Bool:
		if v.Bool() {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("cannot convert type %T to a number", value)
}

// fromFloat converts f to the numeric type t, truncating toward zero for
// integer types. Values the type cannot represent are rejected.
func fromFloat(f float64, t reflect.Type) (reflect.Value, error) {
	if math.IsNaN(f) {
		return reflect.Value{}, fmt.Errorf("NaN is not a valid %s", t)
	}

	out := reflect.New(t).Elem()
	switch kindOf(t) {
	case ValueInt:
		i := math.Trunc(f)
		if i < math.MinInt64 || i >= math.MaxInt64 || out.OverflowInt(int64(i)) {
			return reflect.Value{}, fmt.Errorf("%v overflows %s", f, t)
		}
		out.SetInt(int64(i))
	case ValueUint:
		u := math.Trunc(f)
		if u < 0 || u >= math.MaxUint64 || out.OverflowUint(uint64(u)) {
			return reflect.Value{}, fmt.Errorf("%v overflows %s", f, t)
		}
		out.SetUint(uint64(u))
	case ValueFloat:
		if !math.IsInf(f, 0) && out.OverflowFloat(f) {
			return reflect.Value{}, fmt.Errorf("%v overflows %s", f, t)
		}
		out.SetFloat(f)
	default:
		return reflect.Value{}, fmt.Errorf("%s is not numeric", t)
	}
	return out, nil
}
