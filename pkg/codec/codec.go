// Package codec provides transparent decompression for acquisition files.
// Interrogators and archival pipelines routinely wrap recordings in a
// general-purpose codec; the reader strips that layer before dispatching on
// the inner format.
//
// # Overview
//
// The codec package provides:
//   - Suffix recognition for .gz, .zst, .lz4 and .sz wrapped files
//   - Magic-byte sniffing when the suffix is missing or wrong
//   - Streaming decoders so flat formats never buffer the whole file
//   - Matching encoders for the export path
//
// # Basic Usage
//
//	// Strip the codec suffix before format dispatch
//	inner, alg := codec.TrimSuffix("night-shot.npy.zst")
//	// inner == "night-shot.npy", alg == codec.Zstd
//
//	// Open a file through its codec layer
//	rc, alg, err := codec.Open("night-shot.npy.zst")
//	defer rc.Close()
//
// # Algorithm Selection
//
// Decoding accepts whatever the file carries. For the export path:
//   - S2: Best for speed, moderate compression
//   - LZ4: Extremely fast, decent compression
//   - Zstd: Best compression ratio, good speed
//   - Gzip: Wide compatibility, good compression
package codec

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/stratoseis/dasio/pkg/metrics"
)

// Algorithm represents a compression algorithm wrapped around an
// acquisition file.
type Algorithm string

const (
	// None represents no compression
	None Algorithm = "none"
	// Gzip represents gzip compression
	Gzip Algorithm = "gzip"
	// LZ4 represents lz4 frame compression
	LZ4 Algorithm = "lz4"
	// Zstd represents zstandard compression
	Zstd Algorithm = "zstd"
	// S2 represents s2 framing; snappy-framed streams decode through the
	// same reader
	S2 Algorithm = "s2"
)

// Level represents compression level for the export path, controlling the
// trade-off between compression speed and compression ratio.
type Level int

const (
	// Fastest prioritizes speed over compression ratio.
	Fastest Level = 1
	// Default balances speed and compression.
	Default Level = 5
	// Best maximizes compression ratio.
	Best Level = 9
)

// suffixes maps file suffixes onto algorithms. Dispatch strips exactly one
// codec suffix; stacked codecs are not supported.
var suffixes = map[string]Algorithm{
	".gz":  Gzip,
	".zst": Zstd,
	".lz4": LZ4,
	".sz":  S2,
}

// TrimSuffix splits a path into its inner name and the codec its suffix
// announces. Paths without a codec suffix come back unchanged with None.
func TrimSuffix(path string) (string, Algorithm) {
	ext := filepath.Ext(path)
	if alg, ok := suffixes[ext]; ok {
		return path[:len(path)-len(ext)], alg
	}
	return path, None
}

// magic numbers of the supported frame formats
var (
	magicGzip = []byte{0x1f, 0x8b}
	magicZstd = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicLZ4  = []byte{0x04, 0x22, 0x4d, 0x18}
	// snappy/s2 stream identifier chunk: type 0xff, length 6, "sNaPpY"
	magicS2 = []byte{0xff, 0x06, 0x00, 0x00, 0x73, 0x4e, 0x61, 0x50, 0x70, 0x59}
)

// SniffLen is the number of leading bytes Detect needs.
const SniffLen = 10

// Detect sniffs the leading bytes of a file and reports the codec wrapping
// it, or None when no known magic matches.
func Detect(head []byte) Algorithm {
	switch {
	case hasPrefix(head, magicGzip):
		return Gzip
	case hasPrefix(head, magicZstd):
		return Zstd
	case hasPrefix(head, magicLZ4):
		return LZ4
	case hasPrefix(head, magicS2):
		return S2
	default:
		return None
	}
}

func hasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i := range prefix {
		if b[i] != prefix[i] {
			return false
		}
	}
	return true
}

// NewReader wraps r in a streaming decoder for alg. The returned ReadCloser
// owns only the decoder; closing it does not close r.
func NewReader(alg Algorithm, r io.Reader) (io.ReadCloser, error) {
	switch alg {
	case None:
		return io.NopCloser(r), nil
	case Gzip:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		return gr, nil
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case S2:
		return io.NopCloser(s2.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("unsupported codec: %s", alg)
	}
}

// NewWriter wraps w in an encoder for alg at the given level. Callers must
// Close the returned writer to flush the final frame.
func NewWriter(alg Algorithm, w io.Writer, level Level) (io.WriteCloser, error) {
	switch alg {
	case Gzip:
		return gzip.NewWriterLevel(w, mapGzipLevel(level))
	case Zstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(mapZstdLevel(level)))
	case LZ4:
		lw := lz4.NewWriter(w)
		if err := lw.Apply(lz4.CompressionLevelOption(mapLZ4Level(level))); err != nil {
			return nil, err
		}
		return lw, nil
	case S2:
		return s2.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported codec: %s", alg)
	}
}

// Open opens path and returns a stream of its decoded contents together
// with the codec that was stripped. The codec is recognized by suffix
// first, then by magic bytes, so misnamed files still decode. Closing the
// returned ReadCloser closes the underlying file.
func Open(path string) (io.ReadCloser, Algorithm, error) {
	f, err := os.Open(path) //nolint:gosec // G304: File path is controlled by caller and validated
	if err != nil {
		return nil, None, err
	}

	head := make([]byte, SniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		f.Close()
		return nil, None, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, None, err
	}

	alg := Detect(head[:n])
	if alg == None {
		if _, suffixAlg := TrimSuffix(path); suffixAlg != None {
			// Suffix promised a codec the bytes do not carry.
			f.Close()
			return nil, None, fmt.Errorf("%s: suffix says %s but no %s frame found", path, suffixAlg, suffixAlg)
		}
		return f, None, nil
	}

	dec, err := NewReader(alg, f)
	if err != nil {
		f.Close()
		return nil, None, err
	}
	return &decodedFile{r: &countingReader{r: dec, alg: alg}, closers: []io.Closer{dec, f}}, alg, nil
}

// decodedFile chains the decoder and the file so a single Close tears
// both down.
type decodedFile struct {
	r       io.Reader
	closers []io.Closer
}

func (d *decodedFile) Read(p []byte) (int, error) {
	return d.r.Read(p)
}

func (d *decodedFile) Close() error {
	var firstErr error
	for _, c := range d.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// countingReader feeds decoded volume into the decode metric.
type countingReader struct {
	r   io.Reader
	alg Algorithm
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		metrics.DecodeBytesTotal.WithLabelValues(string(c.alg)).Add(float64(n))
	}
	return n, err
}

// Helper functions to map compression levels

func mapGzipLevel(level Level) int {
	switch level {
	case Fastest:
		return gzip.BestSpeed
	case Best:
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

func mapLZ4Level(level Level) lz4.CompressionLevel {
	switch level {
	case Fastest:
		return lz4.Fast
	case Best:
		return lz4.Level9
	default:
		return lz4.Level5
	}
}

func mapZstdLevel(level Level) zstd.EncoderLevel {
	switch level {
	case Fastest:
		return zstd.SpeedFastest
	case Best:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}
