package segy

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Trace header field offsets, relative to the start of the trace.
const (
	trcOffSequence = 0   // int32, trace sequence number within line
	trcOffField    = 8   // int32, original field record number
	trcOffSamples  = 114 // uint16
	trcOffInterval = 116 // uint16, microseconds
)

// TraceHeader carries the subset of per-trace header fields the reader
// surfaces.
type TraceHeader struct {
	Sequence       int32
	FieldRecord    int32
	Samples        int
	SampleInterval int
}

// ReadTraceHeader reads the header of trace i.
func (f *File) ReadTraceHeader(i int) (TraceHeader, error) {
	if i < 0 || i >= f.ntraces {
		return TraceHeader{}, fmt.Errorf("%w: %d of %d", ErrTraceRange, i, f.ntraces)
	}
	base := f.dataStart + int64(i)*f.traceLen
	buf := make([]byte, TraceHeaderSize)
	if _, err := f.r.ReadAt(buf, base); err != nil {
		return TraceHeader{}, fmt.Errorf("reading trace %d header: %w", i, err)
	}
	return TraceHeader{
		Sequence:       int32(binary.BigEndian.Uint32(buf[trcOffSequence:])),
		FieldRecord:    int32(binary.BigEndian.Uint32(buf[trcOffField:])),
		Samples:        int(binary.BigEndian.Uint16(buf[trcOffSamples:])),
		SampleInterval: int(binary.BigEndian.Uint16(buf[trcOffInterval:])),
	}, nil
}

// ReadTrace decodes the samples of trace i into dst and returns it. When
// dst is nil or too short a fresh slice is allocated. Only the requested
// trace's bytes are read, so windowed reads touch a bounded region of
// the file.
func (f *File) ReadTrace(i int, dst []float64) ([]float64, error) {
	if i < 0 || i >= f.ntraces {
		return nil, fmt.Errorf("%w: %d of %d", ErrTraceRange, i, f.ntraces)
	}
	if cap(dst) < f.ns {
		dst = make([]float64, f.ns)
	}
	dst = dst[:f.ns]

	raw := make([]byte, int64(f.ns)*f.format.size())
	off := f.dataStart + int64(i)*f.traceLen + TraceHeaderSize
	if _, err := f.r.ReadAt(raw, off); err != nil {
		return nil, fmt.Errorf("reading trace %d: %w", i, err)
	}

	switch f.format {
	case FormatIBMFloat32:
		for s := 0; s < f.ns; s++ {
			dst[s] = ibmToFloat64(binary.BigEndian.Uint32(raw[s*4:]))
		}
	case FormatIEEEFloat32:
		for s := 0; s < f.ns; s++ {
			dst[s] = float64(math.Float32frombits(binary.BigEndian.Uint32(raw[s*4:])))
		}
	case FormatInt32:
		for s := 0; s < f.ns; s++ {
			dst[s] = float64(int32(binary.BigEndian.Uint32(raw[s*4:])))
		}
	case FormatInt16:
		for s := 0; s < f.ns; s++ {
			dst[s] = float64(int16(binary.BigEndian.Uint16(raw[s*2:])))
		}
	case FormatInt8:
		for s := 0; s < f.ns; s++ {
			dst[s] = float64(int8(raw[s]))
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedFormat, f.format)
	}
	return dst, nil
}

// ibmToFloat64 decodes IBM System/360 hexadecimal floating point: a sign
// bit, a 7-bit base-16 exponent biased by 64, and a 24-bit fraction.
func ibmToFloat64(bits uint32) float64 {
	if bits&0x7fffffff == 0 {
		return 0
	}
	frac := float64(bits&0x00ffffff) / float64(1<<24)
	exp := int(bits>>24&0x7f) - 64
	v := frac * math.Pow(16, float64(exp))
	if bits&0x80000000 != 0 {
		return -v
	}
	return v
}
