package formats

import (
	"fmt"

	"github.com/nlpodyssey/gopickle/pickle"
	"github.com/nlpodyssey/gopickle/types"

	"github.com/stratoseis/dasio/pkg/das"
	"github.com/stratoseis/dasio/pkg/dastime"
	"github.com/stratoseis/dasio/pkg/errors"
	"github.com/stratoseis/dasio/pkg/reader"
)

func init() {
	reader.MustRegister(pickleReader{})
}

// pickleReader reads serialized map payloads: a dict whose "data" entry
// holds the sample array and whose remaining entries are authoritative
// metadata. A payload that is a bare array instead of a map degrades to
// serialized-array semantics.
type pickleReader struct{}

func (pickleReader) Tag() string { return "pkl" }

func (pickleReader) Read(src *reader.Source, opts reader.Options) (*das.Section, []das.Diagnostic, error) {
	stream, err := src.Stream()
	if err != nil {
		return nil, nil, err
	}
	u := pickle.NewUnpickler(stream)
	u.FindClass = numpyFindClass
	payload, err := u.Load()
	if err != nil {
		return nil, nil, errors.Wrapf(err, errors.ErrorTypeMalformedContainer,
			"decode pickle payload in %s", src.Path)
	}

	switch p := payload.(type) {
	case *npArray:
		return readPickleArray(p, opts)
	case *types.Dict:
		return readPickleMap(p, opts)
	default:
		return nil, nil, errors.Newf(errors.ErrorTypeMalformedContainer,
			"pickle payload is %T, expected a map or an array", payload)
	}
}

// readPickleArray handles a bare pickled array exactly like a serialized
// array: no metadata beyond the window, spacing and rate diagnosed.
func readPickleArray(a *npArray, opts reader.Options) (*das.Section, []das.Diagnostic, error) {
	channels, samples, err := arrayDims(a.shape)
	if err != nil {
		return nil, nil, err
	}
	w, err := reader.ResolveWindow(opts.Ch1, opts.Ch2, 0, channels, false)
	if err != nil {
		return nil, nil, err
	}
	m, err := windowArray(a, w, channels, samples, 0, opts.MetadataOnly)
	if err != nil {
		return nil, nil, err
	}

	norm := reader.NewNormalizer()
	norm.SetStartChannel(w.Start)
	norm.MarkUnknown(das.FieldChannelSpacing, "serialized arrays carry no channel spacing")
	norm.MarkUnknown(das.FieldSamplingRate, "serialized arrays carry no sampling rate")
	meta, diags := norm.Finish()

	return das.NewSection(m, meta), diags, nil
}

// readPickleMap handles the dict payload. The map's own entries are the
// only metadata source for this variant, so absent entries stay at their
// sentinels without diagnostics; unrecognized entries are preserved as
// headers.
func readPickleMap(d *types.Dict, opts reader.Options) (*das.Section, []das.Diagnostic, error) {
	var (
		data    *npArray
		headers map[string]interface{}

		spacing, rate, startDist, gauge *float64
		startTime                       *string
		epochTime                       *float64
		dataType                        string
		start                           int
	)

	for _, entry := range *d {
		key, ok := entry.Key.(string)
		if !ok {
			key = fmt.Sprint(entry.Key)
		}
		switch key {
		case "data":
			arr, ok := entry.Value.(*npArray)
			if !ok {
				return nil, nil, errors.Newf(errors.ErrorTypeMalformedContainer,
					"map data entry is %T, expected an array", entry.Value)
			}
			data = arr
		case "dx":
			if v, ok := reader.AttrFloat(entry.Value); ok {
				spacing = das.Float(v)
			}
		case "fs":
			if v, ok := reader.AttrFloat(entry.Value); ok {
				rate = das.Float(v)
			}
		case "start_distance":
			if v, ok := reader.AttrFloat(entry.Value); ok {
				startDist = das.Float(v)
			}
		case "gauge_length":
			if v, ok := reader.AttrFloat(entry.Value); ok {
				gauge = das.Float(v)
			}
		case "start_channel":
			if v, ok := reader.AttrInt(entry.Value); ok {
				start = v
			}
		case "start_time":
			if s, ok := entry.Value.(string); ok {
				startTime = &s
			} else if v, ok := reader.AttrFloat(entry.Value); ok {
				epochTime = das.Float(v)
			}
		case "data_type":
			if s, ok := reader.AttrString(entry.Value); ok {
				dataType = s
			}
		default:
			if headers == nil {
				headers = make(map[string]interface{})
			}
			headers[key] = entry.Value
		}
	}

	if data == nil {
		return nil, nil, errors.Newf(errors.ErrorTypeMalformedContainer,
			"map payload has no data entry")
	}
	channels, samples, err := arrayDims(data.shape)
	if err != nil {
		return nil, nil, err
	}

	w, err := reader.ResolveWindow(opts.Ch1, opts.Ch2, start, channels, false)
	if err != nil {
		return nil, nil, err
	}
	m, err := windowArray(data, w, channels, samples, start, opts.MetadataOnly)
	if err != nil {
		return nil, nil, err
	}

	norm := reader.NewNormalizer()
	norm.SetStartChannel(w.Start)
	if spacing != nil {
		norm.SetSpacing(*spacing)
	}
	if rate != nil {
		norm.SetRate(*rate)
	}
	if gauge != nil {
		norm.SetGauge(*gauge)
	}
	if dataType != "" {
		norm.SetDataType(dataType)
	}
	if startDist != nil {
		if w.Start == start {
			norm.SetStartDistance(*startDist)
		} else {
			norm.ShiftStartDistance(*startDist, w.Start, start)
		}
	}
	switch {
	case startTime != nil:
		t, err := dastime.ParseISO(*startTime)
		if err != nil {
			return nil, nil, err
		}
		norm.SetStartTime(t)
	case epochTime != nil:
		norm.SetStartTime(dastime.FromEpoch(*epochTime, dastime.Seconds))
	}
	norm.SetHeaders(headers)

	meta, diags := norm.Finish()
	return das.NewSection(m, meta), diags, nil
}

// windowArray materializes the resolved window out of a decoded array,
// honoring its storage order, or stubs it for metadata-only reads.
func windowArray(a *npArray, w das.ChannelWindow, channels, samples, start int, metadataOnly bool) (*das.Matrix, error) {
	if metadataOnly {
		return reader.Stub(w, samples)
	}
	flat, err := a.floats()
	if err != nil {
		return nil, err
	}
	if a.fortran && samples > 1 {
		return reader.WindowColumns(flat, samples, channels, w, start)
	}
	return reader.WindowRows(flat, channels, samples, w, start)
}
