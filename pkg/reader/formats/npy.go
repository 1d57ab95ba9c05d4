package formats

import (
	"strings"

	"github.com/sbinet/npyio"

	"github.com/stratoseis/dasio/pkg/das"
	"github.com/stratoseis/dasio/pkg/errors"
	"github.com/stratoseis/dasio/pkg/reader"
)

func init() {
	reader.MustRegister(npyReader{})
}

// npyReader reads bare serialized arrays. The payload carries no
// acquisition metadata at all, so spacing and rate always surface as
// diagnostics and the start time stays at its sentinel.
type npyReader struct{}

func (npyReader) Tag() string { return "npy" }

func (npyReader) Read(src *reader.Source, opts reader.Options) (*das.Section, []das.Diagnostic, error) {
	stream, err := src.Stream()
	if err != nil {
		return nil, nil, err
	}
	rt, err := npyio.NewReader(stream)
	if err != nil {
		return nil, nil, errors.Wrapf(err, errors.ErrorTypeMalformedContainer,
			"parse serialized array header in %s", src.Path)
	}

	channels, samples, err := arrayDims(rt.Header.Descr.Shape)
	if err != nil {
		return nil, nil, err
	}

	w, err := reader.ResolveWindow(opts.Ch1, opts.Ch2, 0, channels, false)
	if err != nil {
		return nil, nil, err
	}

	var m *das.Matrix
	switch {
	case opts.MetadataOnly:
		m, err = reader.Stub(w, samples)
	default:
		var flat []float64
		flat, err = readArrayPayload(rt, channels*samples)
		if err != nil {
			return nil, nil, err
		}
		if rt.Header.Descr.Fortran && samples > 1 {
			m, err = reader.WindowColumns(flat, samples, channels, w, 0)
		} else {
			m, err = reader.WindowRows(flat, channels, samples, w, 0)
		}
	}
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

// arrayDims interprets a stored array shape as (channels, samples). A 1-D
// array is one sample per channel; higher ranks have no channel axis.
func arrayDims(shape []int) (int, int, error) {
	switch len(shape) {
	case 1:
		return shape[0], 1, nil
	case 2:
		return shape[0], shape[1], nil
	default:
		return 0, 0, errors.Newf(errors.ErrorTypeMalformedContainer,
			"serialized array has rank %d, expected 1 or 2", len(shape))
	}
}

// readArrayPayload decodes the full payload at its stored dtype and widens
// it to float64. The accepted dtypes are the numeric ones DAS exports use;
// anything else is undecodable here.
func readArrayPayload(rt *npyio.Reader, n int) ([]float64, error) {
	descr := rt.Header.Descr.Type
	switch strings.TrimLeft(descr, "<>=|") {
	case "f8":
		out := make([]float64, 0, n)
		if err := rt.Read(&out); err != nil {
			return nil, errors.Wrapf(err, errors.ErrorTypeMalformedContainer,
				"decode %s payload", descr)
		}
		return out, nil
	case "f4":
		return widenArray[float32](rt, descr, n)
	case "i1":
		return widenArray[int8](rt, descr, n)
	case "i2":
		return widenArray[int16](rt, descr, n)
	case "i4":
		return widenArray[int32](rt, descr, n)
	case "i8":
		return widenArray[int64](rt, descr, n)
	case "u1":
		return widenArray[uint8](rt, descr, n)
	case "u2":
		return widenArray[uint16](rt, descr, n)
	case "u4":
		return widenArray[uint32](rt, descr, n)
	case "u8":
		return widenArray[uint64](rt, descr, n)
	default:
		return nil, errors.Newf(errors.ErrorTypeMalformedContainer,
			"unsupported array dtype %q", descr)
	}
}

type arrayScalar interface {
	~float32 | ~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

func widenArray[T arrayScalar](rt *npyio.Reader, descr string, n int) ([]float64, error) {
	vals := make([]T, 0, n)
	if err := rt.Read(&vals); err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeMalformedContainer,
			"decode %s payload", descr)
	}
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = float64(v)
	}
	return out, nil
}
