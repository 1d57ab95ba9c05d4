package formats

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/nlpodyssey/gopickle/types"

	"github.com/stratoseis/dasio/pkg/errors"
	"github.com/stratoseis/dasio/pkg/reader"
)

// The pickle payloads written by acquisition tooling embed numpy arrays
// through the multiarray reconstruction protocol. numpyFindClass resolves
// the globals that protocol emits to live implementations; any other
// class degrades to an opaque value that survives as an ancillary header
// instead of failing the load.
func numpyFindClass(module, name string) (interface{}, error) {
	switch module {
	case "numpy.core.multiarray", "numpy._core.multiarray":
		switch name {
		case "_reconstruct":
			return reconstructFn{}, nil
		case "scalar":
			return scalarFn{}, nil
		}
	case "numpy":
		switch name {
		case "ndarray":
			return ndarrayClass{}, nil
		case "dtype":
			return dtypeClass{}, nil
		}
	}
	return opaqueClass{module: module, name: name}, nil
}

// reconstructFn implements numpy.core.multiarray._reconstruct: it returns
// an empty array whose real content arrives through __setstate__.
type reconstructFn struct{}

func (reconstructFn) Call(_ ...interface{}) (interface{}, error) {
	return &npArray{}, nil
}

// ndarrayClass stands in for the numpy.ndarray type object, which the
// reconstruction call receives as its first argument.
type ndarrayClass struct{}

func (ndarrayClass) PyNew(_ ...interface{}) (interface{}, error) {
	return &npArray{}, nil
}

// npArray is a decoded numpy array: logical shape, element descriptor,
// storage order and the raw little- or big-endian payload bytes.
type npArray struct {
	shape   []int
	dtype   *npDtype
	fortran bool
	data    []byte
}

// PySetState consumes the ndarray __setstate__ tuple
// (version?, shape, dtype, fortran, data).
func (a *npArray) PySetState(state interface{}) error {
	t, ok := state.(*types.Tuple)
	if !ok {
		return fmt.Errorf("array state is %T, expected a tuple", state)
	}
	items := []interface{}(*t)
	if len(items) == 5 {
		items = items[1:]
	}
	if len(items) != 4 {
		return fmt.Errorf("array state has %d fields, expected 4 or 5", len(items))
	}

	shapeTuple, ok := items[0].(*types.Tuple)
	if !ok {
		return fmt.Errorf("array shape is %T, expected a tuple", items[0])
	}
	a.shape = make([]int, shapeTuple.Len())
	for i := range a.shape {
		dim, ok := reader.AttrInt(shapeTuple.Get(i))
		if !ok {
			return fmt.Errorf("array dimension %d is %T", i, shapeTuple.Get(i))
		}
		a.shape[i] = dim
	}

	dt, ok := items[1].(*npDtype)
	if !ok {
		return fmt.Errorf("array dtype is %T", items[1])
	}
	a.dtype = dt

	fortran, ok := items[2].(bool)
	if !ok {
		return fmt.Errorf("array order flag is %T", items[2])
	}
	a.fortran = fortran

	switch raw := items[3].(type) {
	case []byte:
		a.data = raw
	case string:
		a.data = []byte(raw)
	default:
		return fmt.Errorf("array payload is %T, expected bytes", items[3])
	}
	return nil
}

// floats decodes the raw payload at its descriptor, widened to float64.
func (a *npArray) floats() ([]float64, error) {
	if a.dtype == nil {
		return nil, errors.Newf(errors.ErrorTypeMalformedContainer, "array carries no dtype")
	}
	return decodeDescr(a.dtype.descr(), a.data)
}

// dtypeClass implements the numpy.dtype constructor. The descriptor kind
// arrives as the call argument, the byte order through __setstate__.
type dtypeClass struct{}

func (dtypeClass) Call(args ...interface{}) (interface{}, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("dtype constructed without a descriptor")
	}
	kind, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("dtype descriptor is %T, expected a string", args[0])
	}
	return &npDtype{kind: kind}, nil
}

type npDtype struct {
	kind  string
	order string
}

// PySetState consumes the dtype state tuple; field 1 is the byte order.
func (d *npDtype) PySetState(state interface{}) error {
	t, ok := state.(*types.Tuple)
	if !ok || t.Len() < 2 {
		return nil
	}
	if s, ok := t.Get(1).(string); ok {
		d.order = s
	}
	return nil
}

func (d *npDtype) descr() string {
	order := d.order
	if order == "" || order == "=" {
		order = "<"
	}
	return order + d.kind
}

// scalarFn implements numpy.core.multiarray.scalar. Numeric scalars decode
// to float64; anything else passes through opaquely.
type scalarFn struct{}

func (scalarFn) Call(args ...interface{}) (interface{}, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("scalar reconstruction takes 2 arguments, got %d", len(args))
	}
	dt, ok := args[0].(*npDtype)
	if !ok {
		return args[1], nil
	}
	raw, ok := args[1].([]byte)
	if !ok {
		if s, isStr := args[1].(string); isStr {
			raw = []byte(s)
		} else {
			return args[1], nil
		}
	}
	vals, err := decodeDescr(dt.descr(), raw)
	if err != nil || len(vals) != 1 {
		return args[1], nil
	}
	return vals[0], nil
}

// opaqueClass preserves pickled objects of classes this reader does not
// model. Construction and state application always succeed, so unknown
// header values never fail the load.
type opaqueClass struct {
	module, name string
}

func (c opaqueClass) Call(args ...interface{}) (interface{}, error) {
	return &opaqueObject{module: c.module, name: c.name, args: args}, nil
}

func (c opaqueClass) PyNew(args ...interface{}) (interface{}, error) {
	return &opaqueObject{module: c.module, name: c.name, args: args}, nil
}

func (c opaqueClass) String() string {
	return c.module + "." + c.name
}

type opaqueObject struct {
	module, name string
	args         []interface{}
	state        interface{}
}

func (o *opaqueObject) PySetState(state interface{}) error {
	o.state = state
	return nil
}

func (o *opaqueObject) String() string {
	return o.module + "." + o.name
}

// decodeDescr decodes a raw numpy buffer at the given array-protocol
// descriptor ("<f8", ">i4", "|u1", ...) into float64 values.
func decodeDescr(descr string, raw []byte) ([]float64, error) {
	order := binary.ByteOrder(binary.LittleEndian)
	kind := descr
	if len(descr) > 0 && strings.ContainsRune("<>=|", rune(descr[0])) {
		if descr[0] == '>' {
			order = binary.BigEndian
		}
		kind = descr[1:]
	}

	size := 0
	switch kind {
	case "f8", "i8", "u8":
		size = 8
	case "f4", "i4", "u4":
		size = 4
	case "i2", "u2":
		size = 2
	case "i1", "u1":
		size = 1
	default:
		return nil, errors.Newf(errors.ErrorTypeMalformedContainer,
			"unsupported array dtype %q", descr)
	}
	if len(raw)%size != 0 {
		return nil, errors.Newf(errors.ErrorTypeMalformedContainer,
			"%d payload bytes do not divide into %d-byte %q elements", len(raw), size, descr)
	}

	out := make([]float64, len(raw)/size)
	for i := range out {
		b := raw[i*size:]
		switch kind {
		case "f8":
			out[i] = math.Float64frombits(order.Uint64(b))
		case "f4":
			out[i] = float64(math.Float32frombits(order.Uint32(b)))
		case "i8":
			out[i] = float64(int64(order.Uint64(b)))
		case "i4":
			out[i] = float64(int32(order.Uint32(b)))
		case "i2":
			out[i] = float64(int16(order.Uint16(b)))
		case "i1":
			out[i] = float64(int8(b[0]))
		case "u8":
			out[i] = float64(order.Uint64(b))
		case "u4":
			out[i] = float64(order.Uint32(b))
		case "u2":
			out[i] = float64(order.Uint16(b))
		case "u1":
			out[i] = float64(b[0])
		}
	}
	return out, nil
}
