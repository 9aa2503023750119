// FILE: lixenwraith/settings/decode.go
package settings

import (
	"fmt"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
)

// coerce converts value into a reflect.Value of type t.
// Assignable values pass through untouched; everything else goes through
// mapstructure's weakly typed decoding so "42" lands in an int and "1.5s"
// in a time.Duration. A nil value yields the zero value of t.
func coerce(value any, t reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(t), nil
	}

	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(t) {
		out := reflect.New(t).Elem()
		out.Set(v)
		return out, nil
	}

	// Numeric to numeric keeps reflect's conversion rules, mapstructure
	// refuses narrowing float to int in some paths.
	if kindOf(t).IsNumeric() && kindOf(v.Type()).IsNumeric() {
		f, err := toFloat(value)
		if err != nil {
			return reflect.Value{}, err
		}
		return fromFloat(f, t)
	}

	target := reflect.New(t)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target.Interface(),
		WeaklyTypedInput: true,
		DecodeHook:       decodeHook(),
	})
	if err != nil {
		return reflect.Value{}, fmt.Errorf("decoder creation failed: %w", err)
	}
	if err := decoder.Decode(value); err != nil {
		return reflect.Value{}, fmt.Errorf("cannot convert %T to %s: %w", value, t, err)
	}

	return target.Elem(), nil
}

// decodeHook returns the composite decode hook for setting values
func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToTimeHookFunc(time.RFC3339),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.StringToIPHookFunc(),
		mapstructure.StringToIPNetHookFunc(),
		numberToDurationHookFunc(),
	)
}

// numberToDurationHookFunc reads plain numbers as seconds, which is how TOML
// and YAML files usually spell durations.
func numberToDurationHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if t != durationType {
			return data, nil
		}
		switch kindOf(f) {
		case ValueInt, ValueUint, ValueFloat:
			secs, err := toFloat(data)
			if err != nil {
				return nil, err
			}
			return time.Duration(secs * float64(time.Second)), nil
		}
		return data, nil
	}
}
