package das

import "time"

// Section is the downstream object handed to callers: the channel-major
// sample matrix plus its canonical metadata, tagged with where it came
// from. The reader constructs a Section once and never mutates it
// afterward; the caller owns it.
type Section struct {
	Data       *Matrix           `json:"-"`
	Meta       CanonicalMetadata `json:"meta"`
	Source     string            `json:"source"`
	SourceType string            `json:"source_type"`
}

// NewSection builds a Section from a materialized matrix and normalized
// metadata.
func NewSection(data *Matrix, meta CanonicalMetadata) *Section {
	return &Section{Data: data, Meta: meta}
}

// Channels returns the channel count of the sample matrix.
func (s *Section) Channels() int {
	if s.Data == nil {
		return 0
	}
	return s.Data.Channels()
}

// Samples returns the per-channel sample count.
func (s *Section) Samples() int {
	if s.Data == nil {
		return 0
	}
	return s.Data.Samples()
}

// Duration returns the recording length implied by the sample count and
// sampling rate, or zero when the rate is unknown.
func (s *Section) Duration() time.Duration {
	if s.Data == nil || s.Meta.SamplingRate == nil || *s.Meta.SamplingRate <= 0 {
		return 0
	}
	seconds := float64(s.Data.Samples()) / *s.Meta.SamplingRate
	return time.Duration(seconds * float64(time.Second))
}
