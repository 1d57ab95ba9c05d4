package das

import "fmt"

// ChannelWindow is a resolved half-open channel range [Start, End) in
// absolute channel numbers. A valid window satisfies Start < End.
type ChannelWindow struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Count returns the number of channels in the window.
func (w ChannelWindow) Count() int {
	return w.End - w.Start
}

func (w ChannelWindow) String() string {
	return fmt.Sprintf("[%d, %d)", w.Start, w.End)
}
