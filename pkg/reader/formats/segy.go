package formats

import (
	"github.com/stratoseis/dasio/pkg/das"
	"github.com/stratoseis/dasio/pkg/errors"
	"github.com/stratoseis/dasio/pkg/reader"
	"github.com/stratoseis/dasio/pkg/segy"
)

func init() {
	reader.MustRegister(segyReader{})
}

// segyReader reads seismic trace lists: one trace per channel, fixed
// geometry. Only the traces inside the resolved window are decoded.
type segyReader struct{}

func (segyReader) Tag() string { return "sgy" }

func (segyReader) Read(src *reader.Source, opts reader.Options) (*das.Section, []das.Diagnostic, error) {
	ra, size, err := src.RandomAccess()
	if err != nil {
		return nil, nil, err
	}
	sg, err := segy.New(ra, size)
	if err != nil {
		return nil, nil, errors.Wrapf(err, errors.ErrorTypeMalformedContainer,
			"parse trace list %s", src.Path)
	}

	w, err := reader.ResolveWindow(opts.Ch1, opts.Ch2, 0, sg.Traces(), false)
	if err != nil {
		return nil, nil, err
	}

	var m *das.Matrix
	if opts.MetadataOnly {
		m, err = reader.Stub(w, sg.Samples())
	} else {
		m, err = das.NewMatrix(w.Count(), sg.Samples())
		if err == nil {
			for ch := w.Start; ch < w.End; ch++ {
				if _, err = sg.ReadTrace(ch, m.Row(ch-w.Start)); err != nil {
					err = errors.Wrapf(err, errors.ErrorTypeIO, "read trace %d", ch)
					break
				}
			}
		}
	}
	if err != nil {
		return nil, nil, err
	}

	norm := reader.NewNormalizer()
	norm.SetStartChannel(w.Start)

	// The trace header's interval wins over the file header's when both
	// are present.
	dt := sg.SampleInterval()
	if th, err := sg.ReadTraceHeader(0); err == nil && th.SampleInterval > 0 {
		dt = th.SampleInterval
	}
	if dt > 0 {
		norm.SetRate(1e6 / float64(dt))
	} else {
		norm.MarkUnknown(das.FieldSamplingRate, "no sample interval in trace or file headers")
	}
	norm.MarkUnknown(das.FieldChannelSpacing, "trace lists carry no channel spacing")

	meta, diags := norm.Finish()
	return das.NewSection(m, meta), diags, nil
}
