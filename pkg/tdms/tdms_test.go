package tdms

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Little-endian encoding helpers for fixture assembly.

func lu32(v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return b[:]
}

func lu64(v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return b[:]
}

func lf64(v float64) []byte {
	return lu64(math.Float64bits(v))
}

func lstr(s string) []byte {
	return append(lu32(uint32(len(s))), s...)
}

// seg assembles one segment: lead-in, metadata, raw data.
func seg(toc uint32, meta, raw []byte, finalized bool) []byte {
	lead := make([]byte, leadInSize)
	copy(lead, "TDSm")
	binary.LittleEndian.PutUint32(lead[4:], toc)
	binary.LittleEndian.PutUint32(lead[8:], 4713)
	next := uint64(len(meta) + len(raw))
	if !finalized {
		next = unfinalized
	}
	binary.LittleEndian.PutUint64(lead[12:], next)
	binary.LittleEndian.PutUint64(lead[20:], uint64(len(meta)))

	out := append([]byte{}, lead...)
	out = append(out, meta...)
	return append(out, raw...)
}

// stdIndex builds a standard raw data index: length, dtype, dimension 1,
// value count.
func stdIndex(dtype DataType, count uint64) []byte {
	out := lu32(20)
	out = append(out, lu32(uint32(dtype))...)
	out = append(out, lu32(1)...)
	return append(out, lu64(count)...)
}

// object builds one metadata object entry.
func object(path string, index []byte, props ...[]byte) []byte {
	out := lstr(path)
	out = append(out, index...)
	out = append(out, lu32(uint32(len(props)))...)
	for _, p := range props {
		out = append(out, p...)
	}
	return out
}

func metadata(objects ...[]byte) []byte {
	out := lu32(uint32(len(objects)))
	for _, o := range objects {
		out = append(out, o...)
	}
	return out
}

func prop(name string, dtype DataType, value []byte) []byte {
	out := lstr(name)
	out = append(out, lu32(uint32(dtype))...)
	return append(out, value...)
}

func f64s(vs ...float64) []byte {
	var out []byte
	for _, v := range vs {
		out = append(out, lf64(v)...)
	}
	return out
}

func parse(t *testing.T, raw []byte) *File {
	t.Helper()
	f, err := New(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)
	return f
}

func TestContiguousTwoChannels(t *testing.T) {
	meta := metadata(
		object("/", lu32(noRawData),
			prop("name", TypeString, lstr("fiber test")),
		),
		object("/'Measurement'", lu32(noRawData),
			prop("SamplingFrequency[Hz]", TypeFloat64, lf64(10000)),
		),
		object("/'Measurement'/'0'", stdIndex(TypeFloat64, 3),
			prop("unit", TypeString, lstr("strain")),
		),
		object("/'Measurement'/'1'", stdIndex(TypeFloat64, 3)),
	)
	raw := append(f64s(1, 2, 3), f64s(10, 20, 30)...)
	f := parse(t, seg(tocMetaData|tocNewObjList|tocRawData, meta, raw, true))

	assert.Equal(t, "fiber test", f.Properties()["name"])

	require.Len(t, f.Groups(), 1)
	g := f.Groups()[0]
	assert.Equal(t, "Measurement", g.Name())
	assert.Equal(t, 10000.0, g.Properties()["SamplingFrequency[Hz]"])

	require.Len(t, g.Channels(), 2)
	ch0, ok := g.Channel("0")
	require.True(t, ok)
	assert.Equal(t, "strain", ch0.Properties()["unit"])
	assert.Equal(t, 3, ch0.Len())
	assert.Equal(t, TypeFloat64, ch0.Type())

	got, err := ch0.Float64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, got)

	ch1, _ := g.Channel("1")
	got, err = ch1.Float64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20, 30}, got)
}

func TestInterleavedChannels(t *testing.T) {
	meta := metadata(
		object("/'DAS'/'a'", stdIndex(TypeInt16, 4)),
		object("/'DAS'/'b'", stdIndex(TypeInt16, 4)),
	)
	// Values alternate a0 b0 a1 b1 ...
	var raw []byte
	for _, v := range []int16{1, -1, 2, -2, 3, -3, 4, -4} {
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(v))
		raw = append(raw, b[:]...)
	}
	f := parse(t, seg(tocMetaData|tocNewObjList|tocRawData|tocInterleavedData, meta, raw, true))

	g, ok := f.Group("DAS")
	require.True(t, ok)
	a, _ := g.Channel("a")
	b, _ := g.Channel("b")

	gotA, err := a.Float64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4}, gotA)

	gotB, err := b.Float64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, -2, -3, -4}, gotB)
}

func TestRawOnlySegmentAppends(t *testing.T) {
	meta := metadata(object("/'M'/'0'", stdIndex(TypeFloat64, 2)))
	first := seg(tocMetaData|tocNewObjList|tocRawData, meta, f64s(1, 2), true)
	second := seg(tocRawData, nil, f64s(3, 4), true)
	f := parse(t, append(first, second...))

	g, _ := f.Group("M")
	ch, _ := g.Channel("0")
	assert.Equal(t, 4, ch.Len())

	got, err := ch.Float64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4}, got)
}

func TestSameAsPreviousIndex(t *testing.T) {
	meta1 := metadata(
		object("/'M'/'0'", stdIndex(TypeFloat64, 2)),
		object("/'M'/'1'", stdIndex(TypeFloat64, 2)),
	)
	raw1 := append(f64s(1, 2), f64s(5, 6)...)

	// Second segment: channel 0 keeps its index, channel 1 drops out.
	meta2 := metadata(
		object("/'M'/'0'", lu32(sameAsPrevious),
			prop("phase", TypeString, lstr("two"))),
		object("/'M'/'1'", lu32(noRawData)),
	)
	raw2 := f64s(3, 4)

	full := append(
		seg(tocMetaData|tocNewObjList|tocRawData, meta1, raw1, true),
		seg(tocMetaData|tocRawData, meta2, raw2, true)...)
	f := parse(t, full)

	g, _ := f.Group("M")
	ch0, _ := g.Channel("0")
	ch1, _ := g.Channel("1")

	got, err := ch0.Float64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4}, got)
	assert.Equal(t, "two", ch0.Properties()["phase"])

	got, err = ch1.Float64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 6}, got)
}

func TestRepeatedChunksInOneSegment(t *testing.T) {
	meta := metadata(
		object("/'M'/'0'", stdIndex(TypeFloat64, 2)),
		object("/'M'/'1'", stdIndex(TypeFloat64, 2)),
	)
	// Two chunks back to back: (ch0 ch1)(ch0 ch1).
	raw := append(append(f64s(1, 2), f64s(10, 20)...), append(f64s(3, 4), f64s(30, 40)...)...)
	f := parse(t, seg(tocMetaData|tocNewObjList|tocRawData, meta, raw, true))

	g, _ := f.Group("M")
	ch0, _ := g.Channel("0")
	got, err := ch0.Float64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4}, got)

	ch1, _ := g.Channel("1")
	got, err = ch1.Float64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20, 30, 40}, got)
}

func TestUnfinalizedSegmentReadsToEOF(t *testing.T) {
	meta := metadata(object("/'M'/'0'", stdIndex(TypeFloat64, 3)))
	f := parse(t, seg(tocMetaData|tocNewObjList|tocRawData, meta, f64s(7, 8, 9), false))

	g, _ := f.Group("M")
	ch, _ := g.Channel("0")
	got, err := ch.Float64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 8, 9}, got)
}

func TestPropertyTypes(t *testing.T) {
	// 2021-01-01T00:00:00.5Z: seconds since 1904 plus a half-second
	// fraction in the top bit.
	secs1904 := uint64(1609459200 + tdmsEpochOffset)
	ts := append(lu64(1<<63), lu64(secs1904)...)

	meta := metadata(
		object("/", lu32(noRawData),
			prop("i8", TypeInt8, []byte{0xfe}),
			prop("i16", TypeInt16, lu32(0xfffe)[:2]),
			prop("i32", TypeInt32, lu32(0xfffffffe)),
			prop("i64", TypeInt64, lu64(12345678901)),
			prop("u8", TypeUint8, []byte{0xfe}),
			prop("u16", TypeUint16, lu32(65534)[:2]),
			prop("u32", TypeUint32, lu32(4294967294)),
			prop("u64", TypeUint64, lu64(18446744073709551614)),
			prop("f32", TypeFloat32, lu32(math.Float32bits(2.5))),
			prop("f64", TypeFloat64, lf64(-0.25)),
			prop("s", TypeString, lstr("véhicule")),
			prop("b", TypeBool, []byte{1}),
			prop("t", TypeTimestamp, ts),
		),
	)
	f := parse(t, seg(tocMetaData|tocNewObjList, meta, nil, true))

	p := f.Properties()
	assert.Equal(t, int64(-2), p["i8"])
	assert.Equal(t, int64(-2), p["i16"])
	assert.Equal(t, int64(-2), p["i32"])
	assert.Equal(t, int64(12345678901), p["i64"])
	assert.Equal(t, uint64(254), p["u8"])
	assert.Equal(t, uint64(65534), p["u16"])
	assert.Equal(t, uint64(4294967294), p["u32"])
	assert.Equal(t, uint64(18446744073709551614), p["u64"])
	assert.Equal(t, 2.5, p["f32"])
	assert.Equal(t, -0.25, p["f64"])
	assert.Equal(t, "véhicule", p["s"])
	assert.Equal(t, true, p["b"])
	assert.Equal(t, time.Date(2021, 1, 1, 0, 0, 0, 500000000, time.UTC), p["t"])
}

func TestEscapedQuotesInPath(t *testing.T) {
	meta := metadata(object("/'it''s a group'/'ch''1'", stdIndex(TypeUint8, 2)))
	f := parse(t, seg(tocMetaData|tocNewObjList|tocRawData, meta, []byte{9, 10}, true))

	g, ok := f.Group("it's a group")
	require.True(t, ok)
	ch, ok := g.Channel("ch'1")
	require.True(t, ok)

	got, err := ch.Float64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{9, 10}, got)
}

func TestBoolChannel(t *testing.T) {
	meta := metadata(object("/'M'/'mask'", stdIndex(TypeBool, 3)))
	f := parse(t, seg(tocMetaData|tocNewObjList|tocRawData, meta, []byte{1, 0, 2}, true))

	g, _ := f.Group("M")
	ch, _ := g.Channel("mask")
	got, err := ch.Float64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 1}, got)
}

func TestTimestampChannelRejectedOnRead(t *testing.T) {
	meta := metadata(object("/'M'/'clock'", stdIndex(TypeTimestamp, 1)))
	raw := append(lu64(0), lu64(tdmsEpochOffset)...)
	f := parse(t, seg(tocMetaData|tocNewObjList|tocRawData, meta, raw, true))

	g, _ := f.Group("M")
	ch, _ := g.Channel("clock")
	assert.Equal(t, 1, ch.Len())

	_, err := ch.Float64s()
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestMalformedFiles(t *testing.T) {
	good := seg(tocMetaData|tocNewObjList|tocRawData,
		metadata(object("/'M'/'0'", stdIndex(TypeFloat64, 1))), f64s(1), true)

	t.Run("bad magic", func(t *testing.T) {
		raw := append([]byte{}, good...)
		copy(raw, "NOPE")
		_, err := New(bytes.NewReader(raw), int64(len(raw)))
		assert.ErrorIs(t, err, ErrNotTDMS)
	})

	t.Run("big endian", func(t *testing.T) {
		raw := append([]byte{}, good...)
		binary.LittleEndian.PutUint32(raw[4:], tocMetaData|tocBigEndian)
		_, err := New(bytes.NewReader(raw), int64(len(raw)))
		assert.ErrorIs(t, err, ErrBigEndian)
	})

	t.Run("daqmx", func(t *testing.T) {
		raw := append([]byte{}, good...)
		binary.LittleEndian.PutUint32(raw[4:], tocMetaData|tocDAQmxRawData)
		_, err := New(bytes.NewReader(raw), int64(len(raw)))
		assert.ErrorIs(t, err, ErrDAQmx)
	})

	t.Run("bad version", func(t *testing.T) {
		raw := append([]byte{}, good...)
		binary.LittleEndian.PutUint32(raw[8:], 4711)
		_, err := New(bytes.NewReader(raw), int64(len(raw)))
		assert.ErrorIs(t, err, ErrVersion)
	})

	t.Run("string channel", func(t *testing.T) {
		meta := metadata(object("/'M'/'s'", stdIndex(TypeString, 1)))
		raw := seg(tocMetaData|tocNewObjList, meta, nil, true)
		_, err := New(bytes.NewReader(raw), int64(len(raw)))
		assert.ErrorIs(t, err, ErrUnsupported)
	})

	t.Run("trailing raw bytes", func(t *testing.T) {
		meta := metadata(object("/'M'/'0'", stdIndex(TypeFloat64, 2)))
		raw := seg(tocMetaData|tocNewObjList|tocRawData, meta, append(f64s(1, 2), 0xff), true)
		_, err := New(bytes.NewReader(raw), int64(len(raw)))
		assert.ErrorIs(t, err, ErrTruncated)
	})

	t.Run("reuse without prior index", func(t *testing.T) {
		meta := metadata(object("/'M'/'0'", lu32(sameAsPrevious)))
		raw := seg(tocMetaData|tocNewObjList, meta, nil, true)
		_, err := New(bytes.NewReader(raw), int64(len(raw)))
		assert.ErrorIs(t, err, ErrBadIndex)
	})

	t.Run("lead-in past eof", func(t *testing.T) {
		_, err := New(bytes.NewReader(good[:10]), 10)
		assert.ErrorIs(t, err, ErrTruncated)
	})
}

func TestOpenFromDisk(t *testing.T) {
	meta := metadata(object("/'M'/'0'", stdIndex(TypeFloat64, 2)))
	raw := seg(tocMetaData|tocNewObjList|tocRawData, meta, f64s(4, 5), true)
	path := filepath.Join(t.TempDir(), "capture.tdms")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	g, _ := f.Group("M")
	ch, _ := g.Channel("0")
	got, err := ch.Float64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 5}, got)

	assert.NoError(t, f.Close())
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		path  string
		parts []string
		ok    bool
	}{
		{"/", nil, true},
		{"/'Measurement'", []string{"Measurement"}, true},
		{"/'G'/'C'", []string{"G", "C"}, true},
		{"/'a''b'", []string{"a'b"}, true},
		{"no-slash", nil, false},
		{"/'open", nil, false},
		{"/'a'x", nil, false},
	}

	for _, tt := range tests {
		parts, err := parsePath(tt.path)
		if tt.ok {
			require.NoError(t, err, tt.path)
			assert.Equal(t, tt.parts, parts, tt.path)
		} else {
			assert.Error(t, err, tt.path)
		}
	}
}
