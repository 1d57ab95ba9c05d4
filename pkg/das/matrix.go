// Package das defines the canonical value types produced by the readers:
// the channel-major sample matrix, the normalized metadata record, the
// downstream section object and the non-fatal diagnostics that accompany a
// read.
package das

import (
	"github.com/stratoseis/dasio/pkg/errors"
)

// Matrix is a dense 2-D float64 array in channel-major order: row i holds
// every sample of channel i. The sample axis may have length zero
// (metadata-only placeholders). The element type is always float64, the
// canonical sample dtype.
type Matrix struct {
	data     []float64
	channels int
	samples  int
}

// NewMatrix allocates a zero-filled matrix of the given shape.
func NewMatrix(channels, samples int) (*Matrix, error) {
	if channels < 0 || samples < 0 {
		return nil, errors.Newf(errors.ErrorTypeInternal,
			"negative matrix dimension (%d, %d)", channels, samples)
	}
	return &Matrix{
		data:     make([]float64, channels*samples),
		channels: channels,
		samples:  samples,
	}, nil
}

// MatrixFromFlat wraps a row-major backing slice without copying. The slice
// length must equal channels*samples.
func MatrixFromFlat(data []float64, channels, samples int) (*Matrix, error) {
	if channels < 0 || samples < 0 {
		return nil, errors.Newf(errors.ErrorTypeInternal,
			"negative matrix dimension (%d, %d)", channels, samples)
	}
	if len(data) != channels*samples {
		return nil, errors.Newf(errors.ErrorTypeInternal,
			"backing slice holds %d values, shape (%d, %d) needs %d",
			len(data), channels, samples, channels*samples)
	}
	return &Matrix{data: data, channels: channels, samples: samples}, nil
}

// MatrixFromRows copies the given channel rows into a new matrix. All rows
// must have equal length.
func MatrixFromRows(rows [][]float64) (*Matrix, error) {
	if len(rows) == 0 {
		return &Matrix{}, nil
	}
	samples := len(rows[0])
	data := make([]float64, 0, len(rows)*samples)
	for i, row := range rows {
		if len(row) != samples {
			return nil, errors.Newf(errors.ErrorTypeInternal,
				"row %d has %d samples, row 0 has %d", i, len(row), samples)
		}
		data = append(data, row...)
	}
	return &Matrix{data: data, channels: len(rows), samples: samples}, nil
}

// Dims returns (channels, samples).
func (m *Matrix) Dims() (int, int) {
	return m.channels, m.samples
}

// Channels returns the channel count.
func (m *Matrix) Channels() int {
	return m.channels
}

// Samples returns the per-channel sample count.
func (m *Matrix) Samples() int {
	return m.samples
}

// At returns the sample at channel c, index s.
func (m *Matrix) At(c, s int) float64 {
	return m.data[c*m.samples+s]
}

// Set stores v at channel c, index s.
func (m *Matrix) Set(c, s int, v float64) {
	m.data[c*m.samples+s] = v
}

// Row returns channel c's samples as a view into the backing slice.
func (m *Matrix) Row(c int) []float64 {
	return m.data[c*m.samples : (c+1)*m.samples]
}

// Floats returns the row-major backing slice.
func (m *Matrix) Floats() []float64 {
	return m.data
}

// IsAllZero reports whether every element is zero. Metadata-only stubs
// satisfy this by construction.
func (m *Matrix) IsAllZero() bool {
	for _, v := range m.data {
		if v != 0 {
			return false
		}
	}
	return true
}
