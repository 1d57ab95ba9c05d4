// Package segy provides a pure Go reader for SEG-Y rev1 seismic trace
// files as produced by DAS interrogators operating in trace-export mode.
// It covers the fixed-length-trace layout: a 3200-byte textual header,
// a 400-byte binary header, optional extended textual headers, and a
// sequence of uniform traces.
package segy

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// Common errors
var (
	ErrTooSmall          = errors.New("file smaller than SEG-Y headers")
	ErrUnsupportedFormat = errors.New("unsupported sample format code")
	ErrVariableText      = errors.New("variable extended textual headers are not supported")
	ErrTruncated         = errors.New("trace region is not a whole number of traces")
	ErrNoTraces          = errors.New("file contains no traces")
	ErrTraceRange        = errors.New("trace index out of range")
)

const (
	// TextHeaderSize is the size of the EBCDIC/ASCII textual header.
	TextHeaderSize = 3200
	// BinaryHeaderSize is the size of the binary file header.
	BinaryHeaderSize = 400
	// TraceHeaderSize is the size of each trace header.
	TraceHeaderSize = 240

	headerSize = TextHeaderSize + BinaryHeaderSize
)

// Binary header field offsets, absolute from the start of the file.
const (
	offSampleInterval = 3216 // uint16, microseconds
	offSamplesPerTrc  = 3220 // uint16
	offFormatCode     = 3224 // int16
	offRevision       = 3500 // uint16, major in high byte
	offFixedLength    = 3502 // int16
	offExtTextCount   = 3504 // int16, -1 means variable
)

// SampleFormat identifies the per-sample encoding declared in the binary
// header. Only the formats that appear in DAS exports are supported.
type SampleFormat int16

const (
	// FormatIBMFloat32 is 4-byte IBM hexadecimal floating point (code 1).
	FormatIBMFloat32 SampleFormat = 1
	// FormatInt32 is 4-byte two's complement integer (code 2).
	FormatInt32 SampleFormat = 2
	// FormatInt16 is 2-byte two's complement integer (code 3).
	FormatInt16 SampleFormat = 3
	// FormatIEEEFloat32 is 4-byte IEEE floating point (code 5).
	FormatIEEEFloat32 SampleFormat = 5
	// FormatInt8 is 1-byte two's complement integer (code 8).
	FormatInt8 SampleFormat = 8
)

// size returns the encoded size of one sample, or 0 for unknown formats.
func (sf SampleFormat) size() int64 {
	switch sf {
	case FormatIBMFloat32, FormatInt32, FormatIEEEFloat32:
		return 4
	case FormatInt16:
		return 2
	case FormatInt8:
		return 1
	default:
		return 0
	}
}

// String returns the conventional name of the format.
func (sf SampleFormat) String() string {
	switch sf {
	case FormatIBMFloat32:
		return "ibm-float32"
	case FormatInt32:
		return "int32"
	case FormatInt16:
		return "int16"
	case FormatIEEEFloat32:
		return "ieee-float32"
	case FormatInt8:
		return "int8"
	default:
		return fmt.Sprintf("code-%d", int16(sf))
	}
}

// File represents an open SEG-Y file. All multi-byte fields are read
// big-endian per the rev1 standard.
type File struct {
	r      io.ReaderAt
	size   int64
	closer io.Closer

	text      string
	format    SampleFormat
	revision  uint16
	extCount  int
	dataStart int64

	ns       int   // samples per trace
	ntraces  int   // trace count derived from file size
	dt       int   // sample interval in microseconds, 0 when absent
	traceLen int64 // header + data bytes per trace
}

// Open opens a SEG-Y file for reading.
func Open(path string) (*File, error) {
	f, err := os.Open(path) //nolint:gosec // G304: File path is controlled by caller and validated
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}
	sg, err := New(f, st.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	sg.closer = f
	return sg, nil
}

// New parses SEG-Y structure from an io.ReaderAt of the given size. The
// caller keeps ownership of r; Close on the returned File is a no-op.
// Use New for in-memory buffers produced by the codec layer.
func New(r io.ReaderAt, size int64) (*File, error) {
	if size < headerSize {
		return nil, ErrTooSmall
	}

	f := &File{r: r, size: size}

	raw := make([]byte, TextHeaderSize)
	if _, err := r.ReadAt(raw, 0); err != nil {
		return nil, fmt.Errorf("reading textual header: %w", err)
	}
	f.text = decodeTextHeader(raw)

	dt, err := f.u16(offSampleInterval)
	if err != nil {
		return nil, fmt.Errorf("reading binary header: %w", err)
	}
	ns, err := f.u16(offSamplesPerTrc)
	if err != nil {
		return nil, fmt.Errorf("reading binary header: %w", err)
	}
	code, err := f.i16(offFormatCode)
	if err != nil {
		return nil, fmt.Errorf("reading binary header: %w", err)
	}
	rev, err := f.u16(offRevision)
	if err != nil {
		return nil, fmt.Errorf("reading binary header: %w", err)
	}
	ext, err := f.i16(offExtTextCount)
	if err != nil {
		return nil, fmt.Errorf("reading binary header: %w", err)
	}

	f.format = SampleFormat(code)
	if f.format.size() == 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedFormat, code)
	}
	f.revision = rev
	if ext < 0 {
		return nil, ErrVariableText
	}
	f.extCount = int(ext)
	f.dataStart = headerSize + int64(f.extCount)*TextHeaderSize
	if f.dataStart > size {
		return nil, ErrTooSmall
	}

	f.ns = int(ns)
	f.dt = int(dt)
	if err := f.resolveLayout(); err != nil {
		return nil, err
	}
	return f, nil
}

// resolveLayout fixes the per-trace geometry. The binary header is
// authoritative; when it carries zeros the first trace header fills in,
// which some interrogator exports rely on.
func (f *File) resolveLayout() error {
	if f.size == f.dataStart {
		return ErrNoTraces
	}
	if f.size < f.dataStart+TraceHeaderSize {
		return ErrTruncated
	}

	if f.ns == 0 {
		ns, err := f.u16(f.dataStart + trcOffSamples)
		if err != nil {
			return fmt.Errorf("reading first trace header: %w", err)
		}
		f.ns = int(ns)
	}
	if f.ns == 0 {
		return ErrNoTraces
	}

	// Trace headers may override a zero interval in the binary header.
	if f.dt == 0 {
		dt, err := f.u16(f.dataStart + trcOffInterval)
		if err != nil {
			return fmt.Errorf("reading first trace header: %w", err)
		}
		f.dt = int(dt)
	}

	f.traceLen = TraceHeaderSize + int64(f.ns)*f.format.size()
	region := f.size - f.dataStart
	if region%f.traceLen != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrTruncated, region%f.traceLen)
	}
	f.ntraces = int(region / f.traceLen)
	return nil
}

// Close releases the underlying file when the File was created by Open.
func (f *File) Close() error {
	if f.closer == nil {
		return nil
	}
	c := f.closer
	f.closer = nil
	return c.Close()
}

// Traces returns the number of traces in the file.
func (f *File) Traces() int { return f.ntraces }

// Samples returns the number of samples per trace.
func (f *File) Samples() int { return f.ns }

// SampleInterval returns the sample interval in microseconds, 0 when
// neither the binary header nor the first trace header carries one.
func (f *File) SampleInterval() int { return f.dt }

// Format returns the per-sample encoding.
func (f *File) Format() SampleFormat { return f.format }

// Revision returns the raw revision field, major version in the high byte.
func (f *File) Revision() uint16 { return f.revision }

// TextHeader returns the decoded 3200-byte textual header.
func (f *File) TextHeader() string { return f.text }

func (f *File) u16(off int64) (uint16, error) {
	var buf [2]byte
	if _, err := f.r.ReadAt(buf[:], off); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

func (f *File) i16(off int64) (int16, error) {
	v, err := f.u16(off)
	return int16(v), err
}
