package testutil

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// NPYImage encodes values as a NumPy .npy payload (format version 1.0).
// Values are supplied row-major; when fortran is set the payload is laid
// out column-major, as NumPy does for Fortran-ordered arrays. descr picks
// the element encoding ("<f8", "<f4", "<i2", "<u1", ...).
func NPYImage(descr string, shape []int, fortran bool, values []float64) []byte {
	var buf bytes.Buffer
	buf.Write([]byte("\x93NUMPY"))
	buf.WriteByte(1)
	buf.WriteByte(0)

	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': %s, 'shape': %s, }",
		descr, pyBool(fortran), pyShape(shape))
	// The preamble plus header pads to a multiple of 64, newline last.
	total := 6 + 2 + 2 + len(header) + 1
	pad := (64 - total%64) % 64
	header += strings.Repeat(" ", pad) + "\n"

	var hlen [2]byte
	binary.LittleEndian.PutUint16(hlen[:], uint16(len(header)))
	buf.Write(hlen[:])
	buf.WriteString(header)

	ordered := values
	if fortran && len(shape) == 2 {
		ordered = toColumnMajor(values, shape[0], shape[1])
	}
	writeNPYData(&buf, descr, ordered)
	return buf.Bytes()
}

func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func pyShape(shape []int) string {
	if len(shape) == 1 {
		return fmt.Sprintf("(%d,)", shape[0])
	}
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = fmt.Sprint(d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func toColumnMajor(values []float64, rows, cols int) []float64 {
	out := make([]float64, len(values))
	i := 0
	for c := 0; c < cols; c++ {
		for r := 0; r < rows; r++ {
			out[i] = values[r*cols+c]
			i++
		}
	}
	return out
}

func writeNPYData(buf *bytes.Buffer, descr string, values []float64) {
	order := binary.ByteOrder(binary.LittleEndian)
	if strings.HasPrefix(descr, ">") {
		order = binary.BigEndian
	}
	kind := strings.TrimLeft(descr, "<>=|")

	for _, v := range values {
		switch kind {
		case "f8":
			var b [8]byte
			order.PutUint64(b[:], math.Float64bits(v))
			buf.Write(b[:])
		case "f4":
			var b [4]byte
			order.PutUint32(b[:], math.Float32bits(float32(v)))
			buf.Write(b[:])
		case "i8":
			var b [8]byte
			order.PutUint64(b[:], uint64(int64(v)))
			buf.Write(b[:])
		case "i4":
			var b [4]byte
			order.PutUint32(b[:], uint32(int32(v)))
			buf.Write(b[:])
		case "i2":
			var b [2]byte
			order.PutUint16(b[:], uint16(int16(v)))
			buf.Write(b[:])
		case "i1":
			buf.WriteByte(byte(int8(v)))
		case "u8":
			var b [8]byte
			order.PutUint64(b[:], uint64(v))
			buf.Write(b[:])
		case "u4":
			var b [4]byte
			order.PutUint32(b[:], uint32(v))
			buf.Write(b[:])
		case "u2":
			var b [2]byte
			order.PutUint16(b[:], uint16(v))
			buf.Write(b[:])
		case "u1":
			buf.WriteByte(byte(v))
		default:
			panic(fmt.Sprintf("testutil: unsupported npy descr %q", descr))
		}
	}
}
