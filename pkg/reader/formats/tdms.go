package formats

import (
	"strconv"
	"time"

	"github.com/stratoseis/dasio/pkg/das"
	"github.com/stratoseis/dasio/pkg/dastime"
	"github.com/stratoseis/dasio/pkg/errors"
	"github.com/stratoseis/dasio/pkg/reader"
	"github.com/stratoseis/dasio/pkg/tdms"
)

func init() {
	reader.MustRegister(tdmsReader{})
}

// tdmsReader reads engineering waveform containers. Interrogators write
// them in two shapes: one numerically named channel per fiber channel, or
// a single channel holding the whole acquisition interleaved. This is the
// only variant that clamps out-of-range window bounds instead of
// rejecting them.
type tdmsReader struct{}

func (tdmsReader) Tag() string { return "tdms" }

func (tdmsReader) Read(src *reader.Source, opts reader.Options) (*das.Section, []das.Diagnostic, error) {
	ra, size, err := src.RandomAccess()
	if err != nil {
		return nil, nil, err
	}
	td, err := tdms.New(ra, size)
	if err != nil {
		return nil, nil, errors.Wrapf(err, errors.ErrorTypeMalformedContainer,
			"parse waveform container %s", src.Path)
	}

	group, err := pickGroup(td, opts.Extra)
	if err != nil {
		return nil, nil, err
	}
	props := mergeProps(td.Properties(), group.Properties())

	channels := group.Channels()
	if len(channels) == 0 {
		return nil, nil, errors.Newf(errors.ErrorTypeMalformedContainer,
			"group %q has no channels", group.Name())
	}

	var (
		w     das.ChannelWindow
		m     *das.Matrix
		start int
	)
	if len(channels) == 1 {
		w, m, start, err = readInterleaved(group, props, opts)
	} else {
		w, m, start, err = readPerChannel(group, opts)
	}
	if err != nil {
		return nil, nil, err
	}

	norm := reader.NewNormalizer()
	norm.SetStartChannel(w.Start)

	if v, ok := propFloat(props, "SpatialResolution[m]"); ok {
		norm.SetSpacing(v)
	} else if v, ok := propFloat(props, "Spatial Resolution"); ok {
		norm.SetSpacing(v)
	} else {
		norm.MarkUnknown(das.FieldChannelSpacing,
			"no SpatialResolution[m] or Spatial Resolution property")
	}

	if v, ok := propFloat(props, "SamplingFrequency[Hz]"); ok {
		norm.SetRate(v)
	} else if v, ok := propFloat(props, "Time Base"); ok && v > 0 {
		norm.SetRate(1 / v)
	} else {
		norm.MarkUnknown(das.FieldSamplingRate,
			"no SamplingFrequency[Hz] or Time Base property")
	}

	if base, ok := propFloat(props, "Start Distance (m)"); ok {
		norm.ShiftStartDistance(base, w.Start, start)
	} else {
		norm.ShiftStartDistance(0, w.Start, 0)
	}

	if t, ok := waveformStartTime(props); ok {
		norm.SetStartTime(t)
	} else {
		norm.MarkUnknown(das.FieldStartTime, "no timestamp property")
	}

	if v, ok := propFloat(props, "GaugeLength"); ok {
		norm.SetGauge(v)
	}

	norm.SetHeaders(props)
	meta, diags := norm.Finish()
	return das.NewSection(m, meta), diags, nil
}

// readPerChannel materializes the numerically named channel layout: the
// intrinsic start is the smallest channel name, rows are fetched by name.
func readPerChannel(group *tdms.Group, opts reader.Options) (das.ChannelWindow, *das.Matrix, int, error) {
	channels := group.Channels()
	start := 0
	for i, c := range channels {
		n, err := strconv.Atoi(c.Name())
		if err != nil {
			return das.ChannelWindow{}, nil, 0, errors.Newf(errors.ErrorTypeMalformedContainer,
				"channel name %q is not a channel number", c.Name())
		}
		if i == 0 || n < start {
			start = n
		}
	}
	samples := channels[0].Len()

	w, err := reader.ResolveWindow(opts.Ch1, opts.Ch2, start, len(channels), true)
	if err != nil {
		return das.ChannelWindow{}, nil, 0, err
	}

	if opts.MetadataOnly {
		m, err := reader.Stub(w, samples)
		return w, m, start, err
	}

	m, err := das.NewMatrix(w.Count(), samples)
	if err != nil {
		return das.ChannelWindow{}, nil, 0, err
	}
	for ch := w.Start; ch < w.End; ch++ {
		c, ok := group.Channel(strconv.Itoa(ch))
		if !ok {
			return das.ChannelWindow{}, nil, 0, errors.Newf(errors.ErrorTypeMalformedContainer,
				"channel %d missing from group %q", ch, group.Name())
		}
		vals, err := c.Float64s()
		if err != nil {
			return das.ChannelWindow{}, nil, 0, errors.Wrapf(err, errors.ErrorTypeMalformedContainer,
				"decode channel %d", ch)
		}
		if len(vals) != samples {
			return das.ChannelWindow{}, nil, 0, errors.Newf(errors.ErrorTypeMalformedContainer,
				"channel %d holds %d samples, others hold %d", ch, len(vals), samples)
		}
		copy(m.Row(ch-w.Start), vals)
	}
	return w, m, start, nil
}

// readInterleaved materializes the single-channel layout: the stream
// carries every fiber channel round-robin, so sample s of channel c sits
// at position s*count + (c - start).
func readInterleaved(group *tdms.Group, props map[string]interface{}, opts reader.Options) (das.ChannelWindow, *das.Matrix, int, error) {
	count, ok := propInt(props, "Total Channels")
	if !ok {
		return das.ChannelWindow{}, nil, 0, errors.Newf(errors.ErrorTypeMalformedContainer,
			"interleaved stream has no Total Channels property")
	}
	start, _ := propInt(props, "Initial Channel")

	stream := group.Channels()[0]
	total := stream.Len()
	if count <= 0 || total%count != 0 {
		return das.ChannelWindow{}, nil, 0, errors.Newf(errors.ErrorTypeMalformedContainer,
			"stream of %d values does not divide into %d channels", total, count)
	}
	samples := total / count

	w, err := reader.ResolveWindow(opts.Ch1, opts.Ch2, start, count, true)
	if err != nil {
		return das.ChannelWindow{}, nil, 0, err
	}

	if opts.MetadataOnly {
		m, err := reader.Stub(w, samples)
		return w, m, start, err
	}

	flat, err := stream.Float64s()
	if err != nil {
		return das.ChannelWindow{}, nil, 0, errors.Wrapf(err, errors.ErrorTypeMalformedContainer,
			"decode interleaved stream")
	}
	m, err := reader.WindowColumns(flat, samples, count, w, start)
	return w, m, start, err
}

// pickGroup selects the measurement group: an explicit override, then the
// conventional names, then the first group in the file.
func pickGroup(td *tdms.File, extra map[string]interface{}) (*tdms.Group, error) {
	if v, ok := extra["group"]; ok {
		name, ok := reader.AttrString(v)
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeConfig, `option "group" must be a string`)
		}
		g, ok := td.Group(name)
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeMalformedContainer,
				"group %q not present in container", name)
		}
		return g, nil
	}
	for _, name := range []string{"Measurement", "DAS"} {
		if g, ok := td.Group(name); ok {
			return g, nil
		}
	}
	if groups := td.Groups(); len(groups) > 0 {
		return groups[0], nil
	}
	return nil, errors.Newf(errors.ErrorTypeMalformedContainer, "container has no groups")
}

// mergeProps overlays group properties on file properties, group winning.
func mergeProps(file, group map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(file)+len(group))
	for k, v := range file {
		merged[k] = v
	}
	for k, v := range group {
		merged[k] = v
	}
	return merged
}

// tdmsEpoch is the container's zero timestamp; a property holding it means
// the interrogator never filled the field in.
var tdmsEpoch = time.Date(1904, time.January, 1, 0, 0, 0, 0, time.UTC)

// waveformStartTime runs the start-time chain: the ISO8601 property when it
// parses, else the first filled-in timestamp property.
func waveformStartTime(props map[string]interface{}) (time.Time, bool) {
	if s, ok := propString(props, "ISO8601 Timestamp"); ok {
		if t, err := dastime.ParseOffset(s); err == nil {
			return t, true
		}
	}
	for _, key := range []string{"GPSTimeStamp", "CPUTimeStamp", "Trigger Time"} {
		if t, ok := props[key].(time.Time); ok && !t.IsZero() && !t.Equal(tdmsEpoch) {
			return t, true
		}
	}
	return time.Time{}, false
}

func propFloat(props map[string]interface{}, key string) (float64, bool) {
	v, ok := props[key]
	if !ok {
		return 0, false
	}
	return reader.AttrFloat(v)
}

func propInt(props map[string]interface{}, key string) (int, bool) {
	v, ok := props[key]
	if !ok {
		return 0, false
	}
	return reader.AttrInt(v)
}

func propString(props map[string]interface{}, key string) (string, bool) {
	v, ok := props[key]
	if !ok {
		return "", false
	}
	return reader.AttrString(v)
}
