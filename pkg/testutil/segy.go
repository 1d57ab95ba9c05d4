package testutil

import (
	"bytes"
	"encoding/binary"
	"math"
)

// SEGYImage assembles a minimal SEG-Y rev1 file image: an ASCII textual
// header, a big-endian binary header carrying dtMicros and the trace
// geometry, and fixed-length IEEE float32 traces. dtMicros of zero leaves
// the interval fields zero in both the binary header and the trace
// headers, the shape of files written without timing information.
func SEGYImage(traces [][]float64, dtMicros int) []byte {
	ns := 0
	if len(traces) > 0 {
		ns = len(traces[0])
	}

	var buf bytes.Buffer

	text := make([]byte, 3200)
	for i := range text {
		text[i] = ' '
	}
	copy(text, []byte("C 1 CLIENT dasio SYNTHETIC FIXTURE"))
	buf.Write(text)

	binHdr := make([]byte, 400)
	binary.BigEndian.PutUint16(binHdr[16:], uint16(dtMicros)) // interval at 3216
	binary.BigEndian.PutUint16(binHdr[20:], uint16(ns))       // samples at 3220
	binary.BigEndian.PutUint16(binHdr[24:], 5)                // IEEE float32
	binary.BigEndian.PutUint16(binHdr[300:], 0x0100)          // rev 1
	binary.BigEndian.PutUint16(binHdr[302:], 1)               // fixed-length traces
	buf.Write(binHdr)

	for i, trace := range traces {
		hdr := make([]byte, 240)
		binary.BigEndian.PutUint32(hdr[0:], uint32(i+1))
		binary.BigEndian.PutUint16(hdr[114:], uint16(len(trace)))
		binary.BigEndian.PutUint16(hdr[116:], uint16(dtMicros))
		buf.Write(hdr)

		for _, v := range trace {
			var b [4]byte
			binary.BigEndian.PutUint32(b[:], math.Float32bits(float32(v)))
			buf.Write(b[:])
		}
	}
	return buf.Bytes()
}
