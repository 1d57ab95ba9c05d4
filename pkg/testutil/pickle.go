package testutil

import (
	"bytes"
	"encoding/binary"
	"math"
	"sort"
)

// PickleWriter emits the subset of pickle opcodes (protocol 3) that
// serialized-map fixtures need, including the numpy reconstruction
// sequences a real pickled recording carries.
type PickleWriter struct {
	buf bytes.Buffer
}

// NewPickleWriter starts a protocol 3 pickle stream.
func NewPickleWriter() *PickleWriter {
	w := &PickleWriter{}
	w.buf.WriteByte(0x80) // PROTO
	w.buf.WriteByte(3)
	return w
}

// EmptyDict pushes an empty dict.
func (w *PickleWriter) EmptyDict() *PickleWriter {
	w.buf.WriteByte('}')
	return w
}

// Mark pushes a mark for TupleFromMark and SetItems.
func (w *PickleWriter) Mark() *PickleWriter {
	w.buf.WriteByte('(')
	return w
}

// Unicode pushes a string.
func (w *PickleWriter) Unicode(s string) *PickleWriter {
	w.buf.WriteByte('X')
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(len(s)))
	w.buf.Write(n[:])
	w.buf.WriteString(s)
	return w
}

// Int pushes a signed 32-bit integer.
func (w *PickleWriter) Int(v int) *PickleWriter {
	w.buf.WriteByte('J')
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(int32(v)))
	w.buf.Write(n[:])
	return w
}

// Float pushes a float64.
func (w *PickleWriter) Float(v float64) *PickleWriter {
	w.buf.WriteByte('G')
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], math.Float64bits(v))
	w.buf.Write(n[:])
	return w
}

// Bool pushes a boolean.
func (w *PickleWriter) Bool(b bool) *PickleWriter {
	if b {
		w.buf.WriteByte(0x88) // NEWTRUE
	} else {
		w.buf.WriteByte(0x89) // NEWFALSE
	}
	return w
}

// None pushes None.
func (w *PickleWriter) None() *PickleWriter {
	w.buf.WriteByte('N')
	return w
}

// Bytes pushes a byte string.
func (w *PickleWriter) Bytes(b []byte) *PickleWriter {
	w.buf.WriteByte('B')
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(len(b)))
	w.buf.Write(n[:])
	w.buf.Write(b)
	return w
}

// Global pushes a class or function reference.
func (w *PickleWriter) Global(module, name string) *PickleWriter {
	w.buf.WriteByte('c')
	w.buf.WriteString(module)
	w.buf.WriteByte('\n')
	w.buf.WriteString(name)
	w.buf.WriteByte('\n')
	return w
}

// Reduce calls the callable below the argument tuple.
func (w *PickleWriter) Reduce() *PickleWriter {
	w.buf.WriteByte('R')
	return w
}

// Build applies the state on top of the stack to the object below it.
func (w *PickleWriter) Build() *PickleWriter {
	w.buf.WriteByte('b')
	return w
}

// Tuple1 wraps the top item in a 1-tuple.
func (w *PickleWriter) Tuple1() *PickleWriter {
	w.buf.WriteByte(0x85)
	return w
}

// Tuple2 wraps the top two items in a 2-tuple.
func (w *PickleWriter) Tuple2() *PickleWriter {
	w.buf.WriteByte(0x86)
	return w
}

// Tuple3 wraps the top three items in a 3-tuple.
func (w *PickleWriter) Tuple3() *PickleWriter {
	w.buf.WriteByte(0x87)
	return w
}

// TupleFromMark collects everything since the last mark into a tuple.
func (w *PickleWriter) TupleFromMark() *PickleWriter {
	w.buf.WriteByte('t')
	return w
}

// SetItems pops key/value pairs back to the last mark into the dict below
// it.
func (w *PickleWriter) SetItems() *PickleWriter {
	w.buf.WriteByte('u')
	return w
}

// Stop terminates the stream and returns the payload.
func (w *PickleWriter) Stop() []byte {
	w.buf.WriteByte('.')
	return w.buf.Bytes()
}

// Dtype emits the numpy.dtype reconstruction sequence for a descr such as
// "f8" or "<i2", including the state tuple numpy attaches.
func (w *PickleWriter) Dtype(descr string) *PickleWriter {
	kind := descr
	order := "<"
	if len(descr) > 0 && (descr[0] == '<' || descr[0] == '>' || descr[0] == '=' || descr[0] == '|') {
		order = string(descr[0])
		kind = descr[1:]
	}
	w.Global("numpy", "dtype")
	w.Unicode(kind).Bool(false).Bool(true).Tuple3().Reduce()
	w.Mark().Int(3).Unicode(order).None().None().None().Int(-1).Int(-1).Int(0).TupleFromMark()
	return w.Build()
}

// NDArray emits the numpy.core.multiarray._reconstruct sequence for an
// array of the given descr. Values are supplied row-major; fortran lays
// the payload out column-major.
func (w *PickleWriter) NDArray(descr string, shape []int, fortran bool, values []float64) *PickleWriter {
	w.Global("numpy.core.multiarray", "_reconstruct")
	w.Global("numpy", "ndarray")
	w.Int(0).Tuple1()
	w.Bytes([]byte{'b'})
	w.Tuple3().Reduce()

	w.Mark()
	w.Int(1)
	switch len(shape) {
	case 1:
		w.Int(shape[0]).Tuple1()
	case 2:
		w.Int(shape[0]).Int(shape[1]).Tuple2()
	case 3:
		w.Int(shape[0]).Int(shape[1]).Int(shape[2]).Tuple3()
	default:
		panic("testutil: ndarray fixtures support rank 1..3")
	}
	w.Dtype(descr)
	w.Bool(fortran)

	ordered := values
	if fortran && len(shape) == 2 {
		ordered = toColumnMajor(values, shape[0], shape[1])
	}
	var data bytes.Buffer
	writeNPYData(&data, descr, ordered)
	w.Bytes(data.Bytes())
	w.TupleFromMark()
	return w.Build()
}

// Scalar emits the numpy.core.multiarray.scalar sequence for one float64.
func (w *PickleWriter) Scalar(v float64) *PickleWriter {
	w.Global("numpy.core.multiarray", "scalar")
	w.Dtype("<f8")
	var data bytes.Buffer
	writeNPYData(&data, "<f8", []float64{v})
	w.Bytes(data.Bytes())
	w.Tuple2().Reduce()
	return w
}

// PickleMapImage builds a pickled dict payload holding a float64 "data"
// ndarray plus scalar metadata entries (string, int, float64 or bool
// values), written in sorted key order.
func PickleMapImage(shape []int, values []float64, entries map[string]interface{}) []byte {
	w := NewPickleWriter()
	w.EmptyDict().Mark()
	w.Unicode("data")
	w.NDArray("<f8", shape, false, values)

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		w.Unicode(k)
		switch v := entries[k].(type) {
		case string:
			w.Unicode(v)
		case int:
			w.Int(v)
		case float64:
			w.Float(v)
		case bool:
			w.Bool(v)
		default:
			panic("testutil: unsupported pickle map entry type")
		}
	}
	w.SetItems()
	return w.Stop()
}

// PickleArrayImage builds a pickled bare ndarray payload.
func PickleArrayImage(descr string, shape []int, fortran bool, values []float64) []byte {
	w := NewPickleWriter()
	w.NDArray(descr, shape, fortran, values)
	return w.Stop()
}
