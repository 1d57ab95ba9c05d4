package das

import "time"

// CanonicalMetadata is the normalized field set attached to every read
// result. Optional numeric fields use nil as the explicit "unknown"/"absent"
// sentinel; they are never silently coerced to zero. StartTime uses the Unix
// epoch zero instant as its undetermined sentinel (see pkg/dastime).
type CanonicalMetadata struct {
	// SamplingRate is the temporal sampling rate in Hz, nil when unknown.
	SamplingRate *float64 `json:"sampling_rate"`
	// ChannelSpacing is the spatial interval between channels in meters,
	// nil when unknown.
	ChannelSpacing *float64 `json:"channel_spacing"`
	// GaugeLength is the interrogator gauge length in meters, nil when the
	// container does not carry one.
	GaugeLength *float64 `json:"gauge_length"`
	// StartChannel is the index of the first channel in the output window.
	StartChannel int `json:"start_channel"`
	// StartDistance is the fiber distance of the first output channel in
	// meters, nil when unknown.
	StartDistance *float64 `json:"start_distance"`
	// StartTime is the UTC instant of the first sample.
	StartTime time.Time `json:"start_time"`
	// DataType names the physical quantity recorded, empty when absent.
	DataType string `json:"data_type,omitempty"`
	// Headers holds the opaque nested map of ancillary container
	// attributes.
	Headers map[string]interface{} `json:"headers,omitempty"`
}

// Float returns a pointer to v, for the optional metadata fields.
func Float(v float64) *float64 {
	return &v
}
