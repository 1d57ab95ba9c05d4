package reader

import (
	"github.com/stratoseis/dasio/pkg/das"
	"github.com/stratoseis/dasio/pkg/errors"
)

// Materialization helpers shared by the format readers. Each produces a
// matrix of exactly the resolved window's (count, samples) shape: either a
// zero-filled stub built from shape introspection alone, or a copy of the
// window's samples normalized to channel-major order. Nothing outside the
// window is retained in the output.

// Stub allocates the zero-filled matrix for a metadata-only read. No
// sample storage is touched.
func Stub(w das.ChannelWindow, samples int) (*das.Matrix, error) {
	return das.NewMatrix(w.Count(), samples)
}

// WindowRows copies the resolved window out of a channel-major payload of
// the given intrinsic shape. start is the intrinsic first channel number.
func WindowRows(flat []float64, channels, samples int, w das.ChannelWindow, start int) (*das.Matrix, error) {
	if len(flat) != channels*samples {
		return nil, errors.Newf(errors.ErrorTypeMalformedContainer,
			"payload holds %d values, declared shape (%d, %d) needs %d",
			len(flat), channels, samples, channels*samples)
	}
	m, err := das.NewMatrix(w.Count(), samples)
	if err != nil {
		return nil, err
	}
	for ch := w.Start; ch < w.End; ch++ {
		row := ch - start
		copy(m.Row(ch-w.Start), flat[row*samples:(row+1)*samples])
	}
	return m, nil
}

// WindowColumns copies the resolved window out of a sample-major payload,
// transposing it to channel-major. The payload's intrinsic shape is
// (samples, channels); start is the intrinsic first channel number.
func WindowColumns(flat []float64, samples, channels int, w das.ChannelWindow, start int) (*das.Matrix, error) {
	if len(flat) != channels*samples {
		return nil, errors.Newf(errors.ErrorTypeMalformedContainer,
			"payload holds %d values, declared shape (%d, %d) needs %d",
			len(flat), samples, channels, channels*samples)
	}
	m, err := das.NewMatrix(w.Count(), samples)
	if err != nil {
		return nil, err
	}
	for ch := w.Start; ch < w.End; ch++ {
		col := ch - start
		out := m.Row(ch - w.Start)
		for s := 0; s < samples; s++ {
			out[s] = flat[s*channels+col]
		}
	}
	return m, nil
}
