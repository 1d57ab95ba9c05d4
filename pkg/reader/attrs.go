package reader

import (
	"strconv"
	"strings"
)

// Attribute values arrive from heterogeneous backends: HDF5 attributes
// decode to typed scalars or slices, serialized maps carry whatever the
// producer stored, waveform properties are typed per the container. The
// coercions below normalize that spread. Array-valued attributes coerce
// through their first element, matching how the recognized layouts use
// them.

// AttrFloat coerces an attribute value to float64.
func AttrFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(x)), 64)
		return f, err == nil
	case []float64:
		if len(x) > 0 {
			return x[0], true
		}
	case []float32:
		if len(x) > 0 {
			return float64(x[0]), true
		}
	case []int32:
		if len(x) > 0 {
			return float64(x[0]), true
		}
	case []int64:
		if len(x) > 0 {
			return float64(x[0]), true
		}
	case []uint64:
		if len(x) > 0 {
			return float64(x[0]), true
		}
	case []interface{}:
		if len(x) > 0 {
			return AttrFloat(x[0])
		}
	}
	return 0, false
}

// AttrInt coerces an attribute value to int, truncating fractional values
// toward zero.
func AttrInt(v interface{}) (int, bool) {
	f, ok := AttrFloat(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// AttrString coerces an attribute value to string. Single-element string
// slices coerce through their only element.
func AttrString(v interface{}) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	case []string:
		if len(x) == 1 {
			return x[0], true
		}
	case []interface{}:
		if len(x) == 1 {
			return AttrString(x[0])
		}
	}
	return "", false
}

// NodeFloat looks up and coerces one attribute of a node.
func NodeFloat(n Node, name string) (float64, bool) {
	v, ok := n.Attr(name)
	if !ok {
		return 0, false
	}
	return AttrFloat(v)
}

// NodeInt looks up and coerces one attribute of a node.
func NodeInt(n Node, name string) (int, bool) {
	v, ok := n.Attr(name)
	if !ok {
		return 0, false
	}
	return AttrInt(v)
}

// NodeString looks up and coerces one attribute of a node.
func NodeString(n Node, name string) (string, bool) {
	v, ok := n.Attr(name)
	if !ok {
		return "", false
	}
	return AttrString(v)
}
