package formats

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/robert-malhotra/go-hdf5/hdf5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratoseis/dasio/pkg/das"
	"github.com/stratoseis/dasio/pkg/dastime"
	"github.com/stratoseis/dasio/pkg/errors"
	"github.com/stratoseis/dasio/pkg/reader"
	"github.com/stratoseis/dasio/pkg/testutil"
)

// sampleMajor lays ramp values out transposed: sample s of channel c sits
// at flat[s*channels+c].
func sampleMajor(channels, samples int) []float64 {
	flat := make([]float64, channels*samples)
	for s := 0; s < samples; s++ {
		for c := 0; c < channels; c++ {
			flat[s*channels+c] = float64(c*100 + s)
		}
	}
	return flat
}

// zoneValues builds the 3-D (blocks, samples, channels) block payload where
// channel start+col carries (start+col)*1000 + s*10 + b.
func zoneValues(blocks, samples, count, start int) []float64 {
	flat := make([]float64, blocks*samples*count)
	for b := 0; b < blocks; b++ {
		for s := 0; s < samples; s++ {
			for col := 0; col < count; col++ {
				flat[(b*samples+s)*count+col] = float64((start+col)*1000 + s*10 + b)
			}
		}
	}
	return flat
}

// zoneRow is the expected interleaved output row of absolute channel ch.
func zoneRow(ch, blocks, samples int) []float64 {
	out := make([]float64, blocks*samples)
	for s := 0; s < samples; s++ {
		for b := 0; b < blocks; b++ {
			out[s*blocks+b] = float64(ch*1000 + s*10 + b)
		}
	}
	return out
}

func TestAcquisitionRead(t *testing.T) {
	rawData := testutil.DatasetWithAttrs("RawData", map[string]interface{}{
		"PartStartTime": "2023-01-02T03:04:05.123456+00:00",
	}, []int{3, 4}, ramp(3, 4))
	times := testutil.Dataset("RawDataTime", []int{4}, []float64{1e6, 1e6 + 500, 1e6 + 1000, 1e6 + 1500})
	raw0 := testutil.Group("Raw[0]", map[string]interface{}{
		"OutputDataRate": 1000.0,
	}, rawData, times)
	acq := testutil.Group("Acquisition", map[string]interface{}{
		"NumberOfLoci":            int64(3),
		"SpatialSamplingInterval": 2.5,
		"GaugeLength":             10.0,
	}, raw0)
	c := &testutil.FakeContainer{RootNode: testutil.Group("/", nil, acq)}

	sec, diags, err := readContainer(c, reader.Options{})
	require.NoError(t, err)
	assert.Empty(t, diags)

	assert.Equal(t, 3, sec.Channels())
	assert.Equal(t, 4, sec.Samples())
	assert.Equal(t, rampRow(0, 4), sec.Data.Row(0))
	assert.Equal(t, rampRow(2, 4), sec.Data.Row(2))

	assert.Equal(t, 1000.0, *sec.Meta.SamplingRate)
	assert.Equal(t, 2.5, *sec.Meta.ChannelSpacing)
	assert.Equal(t, 10.0, *sec.Meta.GaugeLength)
	assert.Equal(t, 0.0, *sec.Meta.StartDistance)
	want := time.Date(2023, time.January, 2, 3, 4, 5, 123456000, time.UTC)
	assert.True(t, sec.Meta.StartTime.Equal(want))

	// The explicit rate and the part timestamp satisfied both chains, so
	// the timestamp dataset was never decoded.
	assert.Equal(t, 0, times.FloatsCalls)

	acqHdr, ok := sec.Meta.Headers["Acquisition"].(map[string]interface{})
	require.True(t, ok)
	attrs, ok := acqHdr["attrs"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 2.5, attrs["SpatialSamplingInterval"])
}

// The channel count attribute decides orientation: a (samples, channels)
// dataset transposes into channel-major rows.
func TestAcquisitionSampleMajor(t *testing.T) {
	rawData := testutil.Dataset("RawData", []int{4, 3}, sampleMajor(3, 4))
	raw0 := testutil.Group("Raw[0]", map[string]interface{}{"OutputDataRate": 1000.0}, rawData)
	acq := testutil.Group("Acquisition", map[string]interface{}{
		"NumberOfLoci":            int64(3),
		"SpatialSamplingInterval": 2.5,
	}, raw0)
	c := &testutil.FakeContainer{RootNode: testutil.Group("/", nil, acq)}

	sec, _, err := readContainer(c, reader.Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, sec.Channels())
	assert.Equal(t, 4, sec.Samples())
	assert.Equal(t, rampRow(0, 4), sec.Data.Row(0))
	assert.Equal(t, rampRow(2, 4), sec.Data.Row(2))
}

// Without the count attribute the leading dimension is taken as the
// channel axis, whatever the file's true orientation.
func TestAcquisitionCountFallback(t *testing.T) {
	rawData := testutil.Dataset("RawData", []int{4, 3}, ramp(4, 3))
	raw0 := testutil.Group("Raw[0]", nil, rawData)
	acq := testutil.Group("Acquisition", map[string]interface{}{
		"SpatialSamplingInterval": 2.5,
	}, raw0)
	c := &testutil.FakeContainer{RootNode: testutil.Group("/", nil, acq)}

	sec, _, err := readContainer(c, reader.Options{})
	require.NoError(t, err)
	assert.Equal(t, 4, sec.Channels())
	assert.Equal(t, 3, sec.Samples())
	assert.Equal(t, rampRow(1, 3), sec.Data.Row(1))
}

func TestAcquisitionWindow(t *testing.T) {
	rawData := testutil.Dataset("RawData", []int{4, 3}, ramp(4, 3))
	raw0 := testutil.Group("Raw[0]", nil, rawData)
	acq := testutil.Group("Acquisition", map[string]interface{}{
		"NumberOfLoci": int64(4),
	}, raw0)
	c := &testutil.FakeContainer{RootNode: testutil.Group("/", nil, acq)}

	sec, _, err := readContainer(c, reader.Options{
		Ch1: reader.Int(1),
		Ch2: reader.Int(3),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, sec.Channels())
	assert.Equal(t, 1, sec.Meta.StartChannel)
	assert.Equal(t, rampRow(1, 3), sec.Data.Row(0))

	_, _, err = readContainer(c, reader.Options{Ch2: reader.Int(9)})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidWindow))
}

// Rate and start time fall back to the microsecond timestamp dataset,
// which is decoded exactly once for both chains.
func TestAcquisitionTimestampFallbacks(t *testing.T) {
	rawData := testutil.Dataset("RawData", []int{2, 3}, ramp(2, 3))
	times := testutil.Dataset("RawDataTime", []int{3}, []float64{1e6, 1e6 + 500, 1e6 + 1000})
	raw0 := testutil.Group("Raw[0]", nil, rawData, times)
	acq := testutil.Group("Acquisition", map[string]interface{}{
		"SpatialSamplingInterval": 2.5,
		"NumberOfLoci":            int64(2),
	}, raw0)
	c := &testutil.FakeContainer{RootNode: testutil.Group("/", nil, acq)}

	sec, diags, err := readContainer(c, reader.Options{})
	require.NoError(t, err)
	assert.Empty(t, diags)

	require.NotNil(t, sec.Meta.SamplingRate)
	assert.Equal(t, 2000.0, *sec.Meta.SamplingRate)
	assert.Equal(t, dastime.FromEpoch(1e6, dastime.Microseconds), sec.Meta.StartTime)
	assert.Equal(t, 1, times.FloatsCalls)
}

func TestAcquisitionMeasurementStartTime(t *testing.T) {
	rawData := testutil.Dataset("RawData", []int{2, 3}, ramp(2, 3))
	raw0 := testutil.Group("Raw[0]", map[string]interface{}{"OutputDataRate": 500.0}, rawData)
	acq := testutil.Group("Acquisition", map[string]interface{}{
		"NumberOfLoci":            int64(2),
		"SpatialSamplingInterval": 1.0,
		"MeasurementStartTime":    "2023-01-02T03:04:05.123456",
	}, raw0)
	c := &testutil.FakeContainer{RootNode: testutil.Group("/", nil, acq)}

	sec, _, err := readContainer(c, reader.Options{})
	require.NoError(t, err)
	want := time.Date(2023, time.January, 2, 3, 4, 5, 123456000, time.UTC)
	assert.True(t, sec.Meta.StartTime.Equal(want))
}

func TestAcquisitionExhaustedChains(t *testing.T) {
	rawData := testutil.Dataset("RawData", []int{2, 3}, ramp(2, 3))
	raw0 := testutil.Group("Raw[0]", nil, rawData)
	acq := testutil.Group("Acquisition", map[string]interface{}{
		"NumberOfLoci":            int64(2),
		"SpatialSamplingInterval": 1.0,
	}, raw0)
	c := &testutil.FakeContainer{RootNode: testutil.Group("/", nil, acq)}

	sec, diags, err := readContainer(c, reader.Options{})
	require.NoError(t, err)

	assert.Nil(t, sec.Meta.SamplingRate)
	assert.True(t, dastime.IsEpochZero(sec.Meta.StartTime))
	requireField(t, diags, das.FieldSamplingRate, 1)
	requireField(t, diags, das.FieldStartTime, 1)
	assert.Len(t, diags, 2)
}

func TestAcquisitionMissingRawData(t *testing.T) {
	raw0 := testutil.Group("Raw[0]", nil)
	acq := testutil.Group("Acquisition", nil, raw0)
	c := &testutil.FakeContainer{RootNode: testutil.Group("/", nil, acq)}

	_, _, err := readContainer(c, reader.Options{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeMalformedContainer))
}

func TestAcquisitionMetadataOnly(t *testing.T) {
	rawData := testutil.Dataset("RawData", []int{3, 4}, ramp(3, 4))
	raw0 := testutil.Group("Raw[0]", map[string]interface{}{"OutputDataRate": 1000.0}, rawData)
	acq := testutil.Group("Acquisition", map[string]interface{}{"NumberOfLoci": int64(3)}, raw0)
	c := &testutil.FakeContainer{RootNode: testutil.Group("/", nil, acq)}

	sec, _, err := readContainer(c, reader.Options{MetadataOnly: true})
	require.NoError(t, err)

	assert.Equal(t, 3, sec.Channels())
	assert.Equal(t, 4, sec.Samples())
	assert.True(t, sec.Data.IsAllZero())
	assert.Equal(t, 0, rawData.FloatsCalls)
}

func TestRawStreamRead(t *testing.T) {
	raw := testutil.Dataset("raw", []int{2, 4}, ramp(2, 4))
	times := testutil.Dataset("timestamp", []int{3},
		[]float64{1690000000, 1690000000.0005, 1690000000.001})
	c := &testutil.FakeContainer{RootNode: testutil.Group("/", nil, raw, times)}

	sec, diags, err := readContainer(c, reader.Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, sec.Channels())
	assert.Equal(t, 4, sec.Samples())
	assert.Equal(t, rampRow(1, 4), sec.Data.Row(1))

	// Derived rates round to whole hertz.
	require.NotNil(t, sec.Meta.SamplingRate)
	assert.Equal(t, 2000.0, *sec.Meta.SamplingRate)
	assert.Equal(t, dastime.FromEpoch(1690000000, dastime.Seconds), sec.Meta.StartTime)

	// Streams never carry spacing: the sentinel stays with exactly one
	// diagnostic.
	assert.Nil(t, sec.Meta.ChannelSpacing)
	requireField(t, diags, das.FieldChannelSpacing, 1)
	assert.Len(t, diags, 1)
}

func TestRawStreamNoTimestamps(t *testing.T) {
	raw := testutil.Dataset("raw", []int{2, 4}, ramp(2, 4))
	c := &testutil.FakeContainer{RootNode: testutil.Group("/", nil, raw)}

	sec, diags, err := readContainer(c, reader.Options{})
	require.NoError(t, err)

	assert.Nil(t, sec.Meta.SamplingRate)
	assert.True(t, dastime.IsEpochZero(sec.Meta.StartTime))
	requireField(t, diags, das.FieldChannelSpacing, 1)
	requireField(t, diags, das.FieldSamplingRate, 1)
	requireField(t, diags, das.FieldStartTime, 1)
}

func TestRawStreamMetadataOnly(t *testing.T) {
	raw := testutil.Dataset("raw", []int{2, 4}, ramp(2, 4))
	times := testutil.Dataset("timestamp", []int{2}, []float64{1690000000, 1690000000.001})
	c := &testutil.FakeContainer{RootNode: testutil.Group("/", nil, raw, times)}

	sec, _, err := readContainer(c, reader.Options{MetadataOnly: true})
	require.NoError(t, err)
	assert.True(t, sec.Data.IsAllZero())
	assert.Equal(t, 0, raw.FloatsCalls)
	require.NotNil(t, sec.Meta.SamplingRate)
	assert.Equal(t, 1000.0, *sec.Meta.SamplingRate)
}

func dataProductContainer(rootAttrs map[string]interface{}, dims []int, values []float64) *testutil.FakeContainer {
	data := testutil.Dataset("data", dims, values)
	dp := testutil.Group("data_product", nil, data)
	return &testutil.FakeContainer{RootNode: testutil.Group("/", rootAttrs, dp)}
}

func TestDataProductRead(t *testing.T) {
	c := dataProductContainer(map[string]interface{}{
		"nx":                       int64(3),
		"dt_computer":              0.001,
		"dx":                       4.0,
		"gauge_length":             10.0,
		"data_product":             "strain_rate",
		"saving_start_gps_time":    1.0,
		"file_start_gps_time":      1690000000.5,
		"file_start_computer_time": 1680000000.0,
	}, []int{3, 4}, ramp(3, 4))

	sec, diags, err := readContainer(c, reader.Options{})
	require.NoError(t, err)
	assert.Empty(t, diags)

	assert.Equal(t, 3, sec.Channels())
	assert.Equal(t, 4, sec.Samples())
	assert.Equal(t, rampRow(0, 4), sec.Data.Row(0))

	assert.Equal(t, 1000.0, *sec.Meta.SamplingRate)
	assert.Equal(t, 4.0, *sec.Meta.ChannelSpacing)
	assert.Equal(t, 10.0, *sec.Meta.GaugeLength)
	assert.Equal(t, "strain_rate", sec.Meta.DataType)
	assert.Equal(t, dastime.FromEpoch(1690000000.5, dastime.Seconds), sec.Meta.StartTime)

	attrs, ok := sec.Meta.Headers["attrs"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "strain_rate", attrs["data_product"])
}

// Without an active GPS clock the computer clock is authoritative.
func TestDataProductComputerClock(t *testing.T) {
	c := dataProductContainer(map[string]interface{}{
		"nx":                       int64(2),
		"saving_start_gps_time":    0.0,
		"file_start_gps_time":      1690000000.5,
		"file_start_computer_time": 1680000000.25,
	}, []int{2, 3}, ramp(2, 3))

	sec, _, err := readContainer(c, reader.Options{})
	require.NoError(t, err)
	assert.Equal(t, dastime.FromEpoch(1680000000.25, dastime.Seconds), sec.Meta.StartTime)
}

func TestDataProductSampleMajor(t *testing.T) {
	c := dataProductContainer(map[string]interface{}{
		"nx": int64(3),
	}, []int{4, 3}, sampleMajor(3, 4))

	sec, _, err := readContainer(c, reader.Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, sec.Channels())
	assert.Equal(t, 4, sec.Samples())
	assert.Equal(t, rampRow(2, 4), sec.Data.Row(2))
}

func TestDataProductMissingCount(t *testing.T) {
	c := dataProductContainer(nil, []int{2, 3}, ramp(2, 3))

	_, _, err := readContainer(c, reader.Options{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeMalformedContainer))
}

// zoneContainer builds the multi-source layout: <grp>/Source1/Zone1 holding
// a 3-D block dataset, timestamps beside the zone.
func zoneContainer(zoneAttrs map[string]interface{}, blocks, samples, count, start int, times []float64) (*testutil.FakeContainer, *testutil.FakeNode) {
	data := testutil.Dataset("2023-07-22", []int{blocks, samples, count},
		zoneValues(blocks, samples, count, start))
	zone := testutil.Group("Zone1", zoneAttrs, data)
	members := []*testutil.FakeNode{zone}
	if times != nil {
		members = append(members, testutil.Dataset("time", []int{len(times)}, times))
	}
	src1 := testutil.Group("Source1", nil, members...)
	grp := testutil.Group("F1", nil, src1)
	return &testutil.FakeContainer{RootNode: testutil.Group("/", nil, grp)}, data
}

func TestMultiSourceZoneRead(t *testing.T) {
	c, _ := zoneContainer(map[string]interface{}{
		"Extent":      []int64{5, 7},
		"Spacing":     []float64{2.0, 0.25},
		"GaugeLength": 10.0,
		"FreqRes":     250.0,
		"Origin":      100.0,
	}, 2, 3, 2, 5, []float64{1690000000.25, 1690000000.5})

	sec, diags, err := readContainer(c, reader.Options{})
	require.NoError(t, err)
	assert.Empty(t, diags)

	assert.Equal(t, 2, sec.Channels())
	assert.Equal(t, 6, sec.Samples())
	assert.Equal(t, zoneRow(5, 2, 3), sec.Data.Row(0))
	assert.Equal(t, zoneRow(6, 2, 3), sec.Data.Row(1))

	assert.Equal(t, 5, sec.Meta.StartChannel)
	assert.Equal(t, 2.0, *sec.Meta.ChannelSpacing)
	assert.Equal(t, 10.0, *sec.Meta.GaugeLength)
	assert.Equal(t, 250.0, *sec.Meta.SamplingRate)
	assert.Equal(t, 100.0, *sec.Meta.StartDistance)
	assert.Equal(t, dastime.FromEpoch(1690000000.25, dastime.Seconds), sec.Meta.StartTime)
}

func TestMultiSourceZoneWindow(t *testing.T) {
	c, _ := zoneContainer(map[string]interface{}{
		"Extent":  []int64{5, 7},
		"Spacing": []float64{2.0},
		"Origin":  100.0,
	}, 2, 3, 2, 5, nil)

	sec, _, err := readContainer(c, reader.Options{
		Ch1: reader.Int(6),
		Ch2: reader.Int(7),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, sec.Channels())
	assert.Equal(t, 6, sec.Meta.StartChannel)
	assert.Equal(t, zoneRow(6, 2, 3), sec.Data.Row(0))
	assert.Equal(t, 102.0, *sec.Meta.StartDistance)

	// Bounds outside the zone extent are rejected.
	_, _, err = readContainer(c, reader.Options{Ch1: reader.Int(0)})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidWindow))
}

func TestMultiSourceZoneSamplingRateFallback(t *testing.T) {
	c, _ := zoneContainer(map[string]interface{}{
		"Extent":       []int64{0, 2},
		"SamplingRate": 500.0,
	}, 2, 3, 2, 0, nil)

	sec, _, err := readContainer(c, reader.Options{})
	require.NoError(t, err)
	require.NotNil(t, sec.Meta.SamplingRate)
	assert.Equal(t, 500.0, *sec.Meta.SamplingRate)
}

// The zone extent anchors the window and has no substitute.
func TestMultiSourceZoneMissingExtent(t *testing.T) {
	c, _ := zoneContainer(map[string]interface{}{
		"Spacing": []float64{2.0},
	}, 2, 3, 2, 0, nil)

	_, _, err := readContainer(c, reader.Options{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeMalformedContainer))
}

func TestMultiSourceZoneDiagnostics(t *testing.T) {
	c, _ := zoneContainer(map[string]interface{}{
		"Extent": []int64{0, 2},
	}, 2, 3, 2, 0, nil)

	sec, diags, err := readContainer(c, reader.Options{})
	require.NoError(t, err)

	assert.Nil(t, sec.Meta.ChannelSpacing)
	assert.Nil(t, sec.Meta.SamplingRate)
	assert.True(t, dastime.IsEpochZero(sec.Meta.StartTime))
	requireField(t, diags, das.FieldChannelSpacing, 1)
	requireField(t, diags, das.FieldSamplingRate, 1)
	requireField(t, diags, das.FieldStartTime, 1)
}

func TestMultiSourceZoneMetadataOnly(t *testing.T) {
	c, data := zoneContainer(map[string]interface{}{
		"Extent": []int64{5, 7},
	}, 2, 3, 2, 5, nil)

	sec, _, err := readContainer(c, reader.Options{MetadataOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 2, sec.Channels())
	assert.Equal(t, 6, sec.Samples())
	assert.True(t, sec.Data.IsAllZero())
	assert.Equal(t, 0, data.FloatsCalls)
}

func TestMultiSourceZoneShapeMismatch(t *testing.T) {
	data := testutil.Dataset("acq", []int{2, 3, 2}, make([]float64, 5))
	zone := testutil.Group("Zone1", map[string]interface{}{"Extent": []int64{0, 2}}, data)
	src1 := testutil.Group("Source1", nil, zone)
	grp := testutil.Group("F1", nil, src1)
	c := &testutil.FakeContainer{RootNode: testutil.Group("/", nil, grp)}

	_, _, err := readContainer(c, reader.Options{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeMalformedContainer))
}

func TestUnrecognizedLayout(t *testing.T) {
	c := &testutil.FakeContainer{
		RootNode: testutil.Group("/", nil, testutil.Group("whatever", nil)),
	}

	_, _, err := readContainer(c, reader.Options{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeMalformedContainer))
}

// End-to-end against real container files.

func TestHierarchicalRawStreamFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.h5")
	f, err := hdf5.Create(path)
	require.NoError(t, err)
	rows := [][]float64{rampRow(0, 4), rampRow(1, 4)}
	_, err = f.Root().CreateDataset("raw", rows)
	require.NoError(t, err)
	_, err = f.Root().CreateDataset("timestamp",
		[]float64{1690000000, 1690000000.0005, 1690000000.001})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	sec, diags, err := reader.Read(path, reader.Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, sec.Channels())
	assert.Equal(t, 4, sec.Samples())
	assert.Equal(t, rampRow(0, 4), sec.Data.Row(0))
	assert.Equal(t, rampRow(1, 4), sec.Data.Row(1))
	require.NotNil(t, sec.Meta.SamplingRate)
	assert.Equal(t, 2000.0, *sec.Meta.SamplingRate)
	assert.Equal(t, dastime.FromEpoch(1690000000, dastime.Seconds), sec.Meta.StartTime)
	requireField(t, diags, das.FieldChannelSpacing, 1)
	assert.Equal(t, "h5", sec.SourceType)
}

func TestHierarchicalAcquisitionFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acq.h5")
	f, err := hdf5.Create(path)
	require.NoError(t, err)
	acq, err := f.Root().CreateGroup("Acquisition")
	require.NoError(t, err)
	raw0, err := acq.CreateGroup("Raw[0]")
	require.NoError(t, err)
	_, err = raw0.CreateDataset("RawData",
		[][]float64{rampRow(0, 3), rampRow(1, 3)},
		hdf5.WithAttribute("PartStartTime", "2023-01-02T03:04:05.123456+00:00"))
	require.NoError(t, err)
	_, err = raw0.CreateDataset("RawDataTime", []float64{1e6, 1e6 + 500, 1e6 + 1000})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	sec, diags, err := reader.Read(path, reader.Options{})
	require.NoError(t, err)

	// Group attributes cannot be written here, so the count falls back to
	// the leading dimension and the rate derives from the timestamps.
	assert.Equal(t, 2, sec.Channels())
	assert.Equal(t, 3, sec.Samples())
	assert.Equal(t, rampRow(1, 3), sec.Data.Row(1))
	require.NotNil(t, sec.Meta.SamplingRate)
	assert.Equal(t, 2000.0, *sec.Meta.SamplingRate)
	want := time.Date(2023, time.January, 2, 3, 4, 5, 123456000, time.UTC)
	assert.True(t, sec.Meta.StartTime.Equal(want))
	requireField(t, diags, das.FieldChannelSpacing, 1)
}

func TestHierarchicalUnrecognizedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "odd.h5")
	f, err := hdf5.Create(path)
	require.NoError(t, err)
	_, err = f.Root().CreateGroup("nothing_recognizable")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, _, err = reader.Read(path, reader.Options{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeMalformedContainer))
}

func TestHierarchicalGarbageFile(t *testing.T) {
	path := testutil.WriteFixture(t, "junk.h5", []byte("not an hdf5 container"))

	_, _, err := reader.Read(path, reader.Options{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeMalformedContainer))
}
