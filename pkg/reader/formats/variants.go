package formats

import (
	"math"
	"time"

	"github.com/stratoseis/dasio/pkg/das"
	"github.com/stratoseis/dasio/pkg/dastime"
	"github.com/stratoseis/dasio/pkg/errors"
	"github.com/stratoseis/dasio/pkg/reader"
)

// h5Variant pairs a structural detector with the chain set that reads the
// detected layout. Detection walks the table in order and the first match
// wins, mirroring how the layouts are told apart in the field: by their
// first root member.
type h5Variant struct {
	variant reader.SchemaVariant
	detect  func(root reader.Node) (reader.Node, bool)
	read    func(root, anchor reader.Node, opts reader.Options) (*das.Section, []das.Diagnostic, error)
}

var h5Variants = []h5Variant{
	{reader.VariantAcquisitionV1, detectAcquisition, readAcquisition},
	{reader.VariantRawStream, detectRawStream, readRawStream},
	{reader.VariantDataProduct, detectDataProduct, readDataProduct},
	{reader.VariantMultiSourceZone, detectMultiSourceZone, readMultiSourceZone},
}

// childNode opens a named member, treating any failure as absence.
func childNode(n reader.Node, name string) (reader.Node, bool) {
	for _, k := range n.Children() {
		if k != name {
			continue
		}
		c, err := n.Child(name)
		if err != nil {
			return nil, false
		}
		return c, true
	}
	return nil, false
}

// firstChild opens the container-order first member.
func firstChild(n reader.Node) (reader.Node, bool) {
	kids := n.Children()
	if len(kids) == 0 {
		return nil, false
	}
	c, err := n.Child(kids[0])
	if err != nil {
		return nil, false
	}
	return c, true
}

func detectAcquisition(root reader.Node) (reader.Node, bool) {
	kids := root.Children()
	if len(kids) == 0 || kids[0] != "Acquisition" {
		return nil, false
	}
	return childNode(root, "Acquisition")
}

func detectRawStream(root reader.Node) (reader.Node, bool) {
	kids := root.Children()
	if len(kids) == 0 || kids[0] != "raw" {
		return nil, false
	}
	return childNode(root, "raw")
}

func detectDataProduct(root reader.Node) (reader.Node, bool) {
	kids := root.Children()
	if len(kids) == 0 || kids[0] != "data_product" {
		return nil, false
	}
	return childNode(root, "data_product")
}

func detectMultiSourceZone(root reader.Node) (reader.Node, bool) {
	grp, ok := firstChild(root)
	if !ok || grp.IsDataset() {
		return nil, false
	}
	src1, ok := childNode(grp, "Source1")
	if !ok {
		return nil, false
	}
	if _, ok := childNode(src1, "Zone1"); !ok {
		return nil, false
	}
	return grp, true
}

// readAcquisition reads the PRODML-style layout rooted at an Acquisition
// group: samples under Raw[0]/RawData, acquisition geometry as group
// attributes, timestamps as RawData attributes or the RawDataTime dataset
// in microseconds.
func readAcquisition(root, acq reader.Node, opts reader.Options) (*das.Section, []das.Diagnostic, error) {
	raw0, ok := childNode(acq, "Raw[0]")
	if !ok {
		return nil, nil, errors.Newf(errors.ErrorTypeMalformedContainer,
			"Acquisition group has no Raw[0] member")
	}
	rawData, ok := childNode(raw0, "RawData")
	if !ok {
		return nil, nil, errors.Newf(errors.ErrorTypeMalformedContainer,
			"Raw[0] group has no RawData dataset")
	}
	dims := rawData.Shape()
	if len(dims) != 2 {
		return nil, nil, errors.Newf(errors.ErrorTypeMalformedContainer,
			"RawData has rank %d, expected 2", len(dims))
	}

	count, ok := reader.NodeInt(acq, "NumberOfLoci")
	if !ok {
		count = dims[0]
	}
	channelMajor := dims[0] == count
	samples := dims[1]
	if !channelMajor {
		samples = dims[0]
	}

	w, err := reader.ResolveWindow(opts.Ch1, opts.Ch2, 0, count, false)
	if err != nil {
		return nil, nil, err
	}

	var m *das.Matrix
	if opts.MetadataOnly {
		m, err = reader.Stub(w, samples)
	} else {
		var flat []float64
		flat, err = rawData.Floats()
		if err == nil {
			if channelMajor {
				m, err = reader.WindowRows(flat, dims[0], dims[1], w, 0)
			} else {
				m, err = reader.WindowColumns(flat, dims[0], dims[1], w, 0)
			}
		}
	}
	if err != nil {
		return nil, nil, err
	}

	// RawDataTime backs both the rate fallback and the last start-time
	// step; read it at most once.
	var times []float64
	timesLoaded := false
	loadTimes := func() []float64 {
		if !timesLoaded {
			timesLoaded = true
			if ts, ok := childNode(raw0, "RawDataTime"); ok {
				if vals, err := ts.Floats(); err == nil {
					times = vals
				}
			}
		}
		return times
	}

	norm := reader.NewNormalizer()
	norm.SetStartChannel(w.Start)

	if v, ok := reader.NodeFloat(raw0, "OutputDataRate"); ok {
		norm.SetRate(v)
	} else if gap, ok := reader.MeanDiff(loadTimes()); ok {
		norm.SetRate(1e6 / gap)
	} else {
		norm.MarkUnknown(das.FieldSamplingRate,
			"no OutputDataRate attribute and no usable RawDataTime")
	}

	if v, ok := reader.NodeFloat(acq, "SpatialSamplingInterval"); ok {
		norm.SetSpacing(v)
	} else {
		norm.MarkUnknown(das.FieldChannelSpacing, "no SpatialSamplingInterval attribute")
	}
	if v, ok := reader.NodeFloat(acq, "GaugeLength"); ok {
		norm.SetGauge(v)
	}
	norm.ShiftStartDistance(0, w.Start, 0)

	if t, ok := acquisitionStartTime(acq, rawData, loadTimes); ok {
		norm.SetStartTime(t)
	} else {
		norm.MarkUnknown(das.FieldStartTime,
			"no PartStartTime, MeasurementStartTime or RawDataTime")
	}

	norm.SetHeaders(reader.CollectHeaders(root))
	meta, diags := norm.Finish()
	return das.NewSection(m, meta), diags, nil
}

// acquisitionStartTime runs the start-time chain: the RawData part
// timestamp, the acquisition-wide one, then the first raw timestamp at
// microsecond scale. A string that fails to parse falls through.
func acquisitionStartTime(acq, rawData reader.Node, loadTimes func() []float64) (time.Time, bool) {
	if s, ok := reader.NodeString(rawData, "PartStartTime"); ok {
		if t, err := parseAcquisitionTime(s); err == nil {
			return t, true
		}
	}
	if s, ok := reader.NodeString(acq, "MeasurementStartTime"); ok {
		if t, err := parseAcquisitionTime(s); err == nil {
			return t, true
		}
	}
	if times := loadTimes(); len(times) > 0 {
		return dastime.FromEpoch(times[0], dastime.Microseconds), true
	}
	return time.Time{}, false
}

// parseAcquisitionTime parses the two timestamp string forms this layout
// writes: long forms carry a UTC offset, short forms are naive UTC.
func parseAcquisitionTime(s string) (time.Time, error) {
	if len(s) > 26 {
		return dastime.ParseOffset(s)
	}
	return dastime.ParseNaive(s)
}

// readRawStream reads the layout holding a channel-major raw dataset and a
// timestamp dataset at the root. There is no orientation probe and no
// spacing source in this layout.
func readRawStream(root, raw reader.Node, opts reader.Options) (*das.Section, []das.Diagnostic, error) {
	channels, samples, err := arrayDims(raw.Shape())
	if err != nil {
		return nil, nil, err
	}
	w, err := reader.ResolveWindow(opts.Ch1, opts.Ch2, 0, channels, false)
	if err != nil {
		return nil, nil, err
	}

	var m *das.Matrix
	if opts.MetadataOnly {
		m, err = reader.Stub(w, samples)
	} else {
		var flat []float64
		flat, err = raw.Floats()
		if err == nil {
			m, err = reader.WindowRows(flat, channels, samples, w, 0)
		}
	}
	if err != nil {
		return nil, nil, err
	}

	var times []float64
	if ts, ok := childNode(root, "timestamp"); ok {
		if vals, err := ts.Floats(); err == nil {
			times = vals
		}
	}

	norm := reader.NewNormalizer()
	norm.SetStartChannel(w.Start)
	norm.MarkUnknown(das.FieldChannelSpacing, "stream containers carry no channel spacing")

	if gap, ok := reader.MeanDiff(times); ok {
		norm.SetRate(math.Round(1 / gap))
	} else {
		norm.MarkUnknown(das.FieldSamplingRate, "no usable timestamp dataset")
	}
	if len(times) > 0 {
		norm.SetStartTime(dastime.FromEpoch(times[0], dastime.Seconds))
	} else {
		norm.MarkUnknown(das.FieldStartTime, "no usable timestamp dataset")
	}

	norm.SetHeaders(reader.CollectHeaders(root))
	meta, diags := norm.Finish()
	return das.NewSection(m, meta), diags, nil
}

// readDataProduct reads the layout with acquisition attributes on the root
// group and samples under data_product/data. The channel count is the nx
// attribute; orientation is probed against it.
func readDataProduct(root, dp reader.Node, opts reader.Options) (*das.Section, []das.Diagnostic, error) {
	count, ok := reader.NodeInt(root, "nx")
	if !ok {
		return nil, nil, errors.Newf(errors.ErrorTypeMalformedContainer,
			"container has no nx attribute")
	}
	data, ok := childNode(dp, "data")
	if !ok {
		return nil, nil, errors.Newf(errors.ErrorTypeMalformedContainer,
			"data_product group has no data dataset")
	}
	dims := data.Shape()
	if len(dims) != 2 {
		return nil, nil, errors.Newf(errors.ErrorTypeMalformedContainer,
			"data dataset has rank %d, expected 2", len(dims))
	}
	channelMajor := dims[0] == count
	samples := dims[1]
	if !channelMajor {
		samples = dims[0]
	}

	w, err := reader.ResolveWindow(opts.Ch1, opts.Ch2, 0, count, false)
	if err != nil {
		return nil, nil, err
	}

	var m *das.Matrix
	if opts.MetadataOnly {
		m, err = reader.Stub(w, samples)
	} else {
		var flat []float64
		flat, err = data.Floats()
		if err == nil {
			if channelMajor {
				m, err = reader.WindowRows(flat, dims[0], dims[1], w, 0)
			} else {
				m, err = reader.WindowColumns(flat, dims[0], dims[1], w, 0)
			}
		}
	}
	if err != nil {
		return nil, nil, err
	}

	norm := reader.NewNormalizer()
	norm.SetStartChannel(w.Start)

	if dt, ok := reader.NodeFloat(root, "dt_computer"); ok && dt > 0 {
		norm.SetRate(1 / dt)
	} else {
		norm.MarkUnknown(das.FieldSamplingRate, "no dt_computer attribute")
	}
	if v, ok := reader.NodeFloat(root, "dx"); ok {
		norm.SetSpacing(v)
	} else {
		norm.MarkUnknown(das.FieldChannelSpacing, "no dx attribute")
	}
	if v, ok := reader.NodeFloat(root, "gauge_length"); ok {
		norm.SetGauge(v)
	}
	if s, ok := reader.NodeString(root, "data_product"); ok {
		norm.SetDataType(s)
	}
	norm.ShiftStartDistance(0, w.Start, 0)

	if t, ok := dataProductStartTime(root); ok {
		norm.SetStartTime(t)
	} else {
		norm.MarkUnknown(das.FieldStartTime,
			"no file_start_gps_time or file_start_computer_time attribute")
	}

	norm.SetHeaders(reader.CollectHeaders(root))
	meta, diags := norm.Finish()
	return das.NewSection(m, meta), diags, nil
}

// dataProductStartTime picks the GPS clock when the container says GPS
// saving was active, the computer clock otherwise. Both are second epochs.
func dataProductStartTime(root reader.Node) (time.Time, bool) {
	gps, _ := reader.NodeFloat(root, "saving_start_gps_time")
	if gps > 0 {
		if v, ok := reader.NodeFloat(root, "file_start_gps_time"); ok {
			return dastime.FromEpoch(v, dastime.Seconds), true
		}
	}
	if v, ok := reader.NodeFloat(root, "file_start_computer_time"); ok {
		return dastime.FromEpoch(v, dastime.Seconds), true
	}
	return time.Time{}, false
}

// readMultiSourceZone reads the block-structured layout: a 3-D acquisition
// dataset (blocks, samples, channels) under <grp>/Source1/Zone1, zone
// geometry as Zone1 attributes, timestamps in the Source1/time dataset.
func readMultiSourceZone(root, grp reader.Node, opts reader.Options) (*das.Section, []das.Diagnostic, error) {
	src1, ok := childNode(grp, "Source1")
	if !ok {
		return nil, nil, errors.Newf(errors.ErrorTypeMalformedContainer,
			"%s group has no Source1 member", grp.Name())
	}
	zone, ok := childNode(src1, "Zone1")
	if !ok {
		return nil, nil, errors.Newf(errors.ErrorTypeMalformedContainer,
			"Source1 group has no Zone1 member")
	}
	data, ok := firstChild(zone)
	if !ok {
		return nil, nil, errors.Newf(errors.ErrorTypeMalformedContainer,
			"Zone1 group has no acquisition dataset")
	}
	dims := data.Shape()
	if len(dims) != 3 {
		return nil, nil, errors.Newf(errors.ErrorTypeMalformedContainer,
			"acquisition dataset has rank %d, expected 3", len(dims))
	}
	blocks, samples, count := dims[0], dims[1], dims[2]

	start, ok := reader.NodeInt(zone, "Extent")
	if !ok {
		return nil, nil, errors.Newf(errors.ErrorTypeMalformedContainer,
			"Zone1 group has no Extent attribute")
	}

	w, err := reader.ResolveWindow(opts.Ch1, opts.Ch2, start, count, false)
	if err != nil {
		return nil, nil, err
	}

	var m *das.Matrix
	if opts.MetadataOnly {
		m, err = reader.Stub(w, blocks*samples)
	} else {
		m, err = windowZone(data, w, blocks, samples, count, start)
	}
	if err != nil {
		return nil, nil, err
	}

	norm := reader.NewNormalizer()
	norm.SetStartChannel(w.Start)

	if v, ok := reader.NodeFloat(zone, "Spacing"); ok {
		norm.SetSpacing(v)
	} else {
		norm.MarkUnknown(das.FieldChannelSpacing, "no Spacing attribute")
	}
	if v, ok := reader.NodeFloat(zone, "GaugeLength"); ok {
		norm.SetGauge(v)
	}
	if v, ok := reader.NodeFloat(zone, "FreqRes"); ok {
		norm.SetRate(v)
	} else if v, ok := reader.NodeFloat(zone, "SamplingRate"); ok {
		norm.SetRate(v)
	} else {
		norm.MarkUnknown(das.FieldSamplingRate, "no FreqRes or SamplingRate attribute")
	}
	if origin, ok := reader.NodeFloat(zone, "Origin"); ok {
		norm.ShiftStartDistance(origin, w.Start, start)
	}

	if t, ok := zoneStartTime(src1); ok {
		norm.SetStartTime(t)
	} else {
		norm.MarkUnknown(das.FieldStartTime, "no usable Source1 time dataset")
	}

	norm.SetHeaders(reader.CollectHeaders(root))
	meta, diags := norm.Finish()
	return das.NewSection(m, meta), diags, nil
}

// windowZone flattens the 3-D block layout into channel rows. Block b's
// in-block sample s lands at output index s*blocks+b, preserving the
// interleaving the layout's native tooling produces.
func windowZone(data reader.Node, w das.ChannelWindow, blocks, samples, count, start int) (*das.Matrix, error) {
	flat, err := data.Floats()
	if err != nil {
		return nil, err
	}
	if len(flat) != blocks*samples*count {
		return nil, errors.Newf(errors.ErrorTypeMalformedContainer,
			"payload holds %d values, declared shape (%d, %d, %d) needs %d",
			len(flat), blocks, samples, count, blocks*samples*count)
	}
	m, err := das.NewMatrix(w.Count(), blocks*samples)
	if err != nil {
		return nil, err
	}
	for ch := w.Start; ch < w.End; ch++ {
		col := ch - start
		row := m.Row(ch - w.Start)
		for s := 0; s < samples; s++ {
			for b := 0; b < blocks; b++ {
				row[s*blocks+b] = flat[(b*samples+s)*count+col]
			}
		}
	}
	return m, nil
}

// zoneStartTime reads the first element of the Source1 time dataset, a
// second-scale epoch.
func zoneStartTime(src1 reader.Node) (time.Time, bool) {
	ts, ok := childNode(src1, "time")
	if !ok {
		return time.Time{}, false
	}
	vals, err := ts.Floats()
	if err != nil || len(vals) == 0 {
		return time.Time{}, false
	}
	return dastime.FromEpoch(vals[0], dastime.Seconds), true
}
