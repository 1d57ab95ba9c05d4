package reader

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/stratoseis/dasio/pkg/das"
	"github.com/stratoseis/dasio/pkg/dastime"
)

// Normalizer coalesces the results of a variant's fallback chains into the
// canonical metadata record. Fields start at their unknown sentinels; a
// chain that resolves sets the field, a chain that exhausts marks it
// unknown with exactly one diagnostic. Fields a variant never chains stay
// at their sentinels silently.
type Normalizer struct {
	meta  das.CanonicalMetadata
	diags []das.Diagnostic
}

// NewNormalizer returns a normalizer with every field at its sentinel.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		meta: das.CanonicalMetadata{StartTime: dastime.EpochZero()},
	}
}

// SetRate records a resolved sampling rate in Hz.
func (n *Normalizer) SetRate(v float64) {
	n.meta.SamplingRate = das.Float(v)
}

// SetSpacing records a resolved channel spacing in meters.
func (n *Normalizer) SetSpacing(v float64) {
	n.meta.ChannelSpacing = das.Float(v)
}

// SetGauge records a gauge length in meters.
func (n *Normalizer) SetGauge(v float64) {
	n.meta.GaugeLength = das.Float(v)
}

// SetStartChannel records the absolute channel number of the first output
// row.
func (n *Normalizer) SetStartChannel(ch int) {
	n.meta.StartChannel = ch
}

// SetStartDistance records the fiber distance of the first output channel.
func (n *Normalizer) SetStartDistance(v float64) {
	n.meta.StartDistance = das.Float(v)
}

// ShiftStartDistance records the window-adjusted start distance
// base + (ch1 - intrinsicStart) * spacing. It is a no-op while spacing is
// unknown, leaving the distance at its sentinel.
func (n *Normalizer) ShiftStartDistance(base float64, ch1, intrinsicStart int) {
	if n.meta.ChannelSpacing == nil {
		return
	}
	n.meta.StartDistance = das.Float(base + float64(ch1-intrinsicStart)**n.meta.ChannelSpacing)
}

// SetStartTime records the UTC instant of the first sample.
func (n *Normalizer) SetStartTime(t time.Time) {
	n.meta.StartTime = t
}

// SetDataType records the physical quantity name.
func (n *Normalizer) SetDataType(s string) {
	n.meta.DataType = s
}

// SetHeaders attaches the harvested ancillary header map.
func (n *Normalizer) SetHeaders(h map[string]interface{}) {
	if len(h) > 0 {
		n.meta.Headers = h
	}
}

// MarkUnknown records that a chained field exhausted every fallback. The
// field stays at its sentinel and one diagnostic is emitted.
func (n *Normalizer) MarkUnknown(field, reason string) {
	n.diags = append(n.diags, das.Diagnostic{Field: field, Reason: reason})
}

// Finish returns the coalesced metadata and the diagnostics in the order
// they were raised.
func (n *Normalizer) Finish() (das.CanonicalMetadata, []das.Diagnostic) {
	return n.meta, n.diags
}

// MeanDiff returns the mean gap between successive values, the estimator
// behind timestamp-derived sampling rates. It reports false when fewer
// than two values are available or the mean gap is not positive.
func MeanDiff(values []float64) (float64, bool) {
	if len(values) < 2 {
		return 0, false
	}
	diffs := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		diffs[i-1] = values[i] - values[i-1]
	}
	mean := stat.Mean(diffs, nil)
	if mean <= 0 {
		return 0, false
	}
	return mean, true
}
