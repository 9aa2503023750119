// FILE: lixenwraith/settings/decode_test.go
package settings

import (
	"encoding/json"
	"math"
	"net"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCoerce tests conversion of loaded values into declared member types
func TestCoerce(t *testing.T) {
	tests := []struct {
		name  string
		value any
		typ   reflect.Type
		want  any
	}{
		{"Assignable", 5, reflect.TypeFor[int](), 5},
		{"NilToZero", nil, reflect.TypeFor[string](), ""},
		{"IntToFloat32", int64(3), reflect.TypeFor[float32](), float32(3)},
		{"FloatToIntTruncates", -2.7, reflect.TypeFor[int](), -2},
		{"StringToInt", "42", reflect.TypeFor[int](), 42},
		{"StringToBool", "true", reflect.TypeFor[bool](), true},
		{"IntToString", 8080, reflect.TypeFor[string](), "8080"},
		{"JSONNumber", json.Number("12"), reflect.TypeFor[uint16](), uint16(12)},
		{"DurationString", "2m30s", reflect.TypeFor[time.Duration](), 150 * time.Second},
		{"DurationSeconds", int64(90), reflect.TypeFor[time.Duration](), 90 * time.Second},
		{"DurationFraction", 0.5, reflect.TypeFor[time.Duration](), 500 * time.Millisecond},
		{"CommaSlice", "prod,staging", reflect.TypeFor[[]string](), []string{"prod", "staging"}},
		{"AnySlice", []any{int64(80), int64(443)}, reflect.TypeFor[[]int](), []int{80, 443}},
		{"IP", "192.168.1.100", reflect.TypeFor[net.IP](), net.ParseIP("192.168.1.100")},
		{"Time", "2024-01-02T03:04:05Z", reflect.TypeFor[time.Time](), time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := coerce(tt.value, tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.typ, got.Type())
			assert.Equal(t, tt.want, got.Interface())
		})
	}
}

func TestCoerceErrors(t *testing.T) {
	tests := []struct {
		name  string
		value any
		typ   reflect.Type
	}{
		{"Overflow", 300, reflect.TypeFor[uint8]()},
		{"Negative", -1, reflect.TypeFor[uint]()},
		{"NaN", math.NaN(), reflect.TypeFor[int]()},
		{"BadNumber", "many", reflect.TypeFor[int]()},
		{"BadDuration", "soon", reflect.TypeFor[time.Duration]()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := coerce(tt.value, tt.typ)
			assert.Error(t, err)
		})
	}
}

func TestValueKinds(t *testing.T) {
	tests := map[reflect.Type]ValueKind{
		reflect.TypeFor[int8]():          ValueInt,
		reflect.TypeFor[int64]():         ValueInt,
		reflect.TypeFor[uint32]():        ValueUint,
		reflect.TypeFor[float32]():       ValueFloat,
		reflect.TypeFor[bool]():          ValueBool,
		reflect.TypeFor[string]():        ValueString,
		reflect.TypeFor[time.Duration](): ValueDuration,
		reflect.TypeFor[[]int]():         ValueObject,
		reflect.TypeFor[*int]():          ValueObject,
	}

	for typ, want := range tests {
		assert.Equal(t, want, kindOf(typ), typ.String())
	}
	assert.False(t, ValueDuration.IsNumeric())
	assert.True(t, ValueUint.IsNumeric())
}
