package txcodec

import (
	"encoding/json"
	"reflect"
	"strconv"
)

// jsonNumberHook turns json.Number into whatever numeric kind the target field has.
// Values that do not fit (negative, fractional, overflowing) decode as zero.
func jsonNumberHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	n, ok := data.(json.Number)
	if !ok {
		return data, nil
	}
	switch to.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if u, err := strconv.ParseUint(n.String(), 10, to.Bits()); err == nil {
			return u, nil
		}
		if f, err := n.Float64(); err == nil && f >= 0 && f == float64(uint64(f)) {
			return uint64(f), nil
		}
		return uint64(0), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if i, err := strconv.ParseInt(n.String(), 10, to.Bits()); err == nil {
			return i, nil
		}
		if f, err := n.Float64(); err == nil && f == float64(int64(f)) {
			return int64(f), nil
		}
		return int64(0), nil
	case reflect.String:
		return n.String(), nil
	case reflect.Float32, reflect.Float64:
		f, _ := n.Float64()
		return f, nil
	}
	return data, nil
}
