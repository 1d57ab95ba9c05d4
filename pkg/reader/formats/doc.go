// Package formats implements the per-format readers behind pkg/reader:
// serialized NumPy arrays (npy), pickled map payloads (pkl), hierarchical
// scientific containers (h5) in their four recognized layouts, TDMS
// engineering waveforms (tdms) and SEG-Y trace lists (sgy).
//
// Each reader registers itself with the reader registry at init time, so
// wiring the full set into a program is a blank import:
//
//	import _ "github.com/stratoseis/dasio/pkg/reader/formats"
//
// All readers share one contract: resolve the channel window against the
// container's intrinsic range, normalize the on-disk orientation to
// channel-major, derive sampling rate, channel spacing and start time
// through the layout's fallback chains (undetermined fields become
// diagnostics, not failures), and materialize either the windowed samples
// or a zero stub of the same shape.
package formats
