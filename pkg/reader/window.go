package reader

import (
	"github.com/stratoseis/dasio/pkg/das"
	"github.com/stratoseis/dasio/pkg/errors"
)

// ResolveWindow resolves requested optional channel bounds against a
// container's intrinsic range [start, start+count). Each unset bound
// defaults to its intrinsic limit independently of the other.
//
// When clamp is set, out-of-range bounds are pulled back to the intrinsic
// limits before validation; otherwise they are rejected. Either way the
// resolved window must be non-empty, non-inverted and inside the intrinsic
// range.
func ResolveWindow(ch1, ch2 *int, start, count int, clamp bool) (das.ChannelWindow, error) {
	if count <= 0 {
		return das.ChannelWindow{}, errors.Newf(errors.ErrorTypeInvalidWindow,
			"container has no channels")
	}

	lo, hi := start, start+count
	if ch1 != nil {
		lo = *ch1
	}
	if ch2 != nil {
		hi = *ch2
	}

	if clamp {
		if lo < start {
			lo = start
		}
		if hi > start+count {
			hi = start + count
		}
	}

	w := das.ChannelWindow{Start: lo, End: hi}
	if lo >= hi || lo < start || hi > start+count {
		return das.ChannelWindow{}, errors.Newf(errors.ErrorTypeInvalidWindow,
			"channel window %s outside available [%d, %d)", w, start, start+count)
	}
	return w, nil
}
