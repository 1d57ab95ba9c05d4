package das

// Canonical field names used in diagnostics.
const (
	FieldSamplingRate   = "sampling_rate"
	FieldChannelSpacing = "channel_spacing"
	FieldStartTime      = "start_time"
)

// Diagnostic is a non-fatal finding raised while normalizing metadata: a
// fallback chain was exhausted and the field stays at its unknown sentinel.
// Diagnostics are returned alongside the result instead of being logged as
// ambient warnings, so callers can inspect them programmatically.
type Diagnostic struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (d Diagnostic) String() string {
	return d.Field + ": " + d.Reason
}
