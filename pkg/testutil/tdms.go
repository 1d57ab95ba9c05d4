package testutil

import (
	"bytes"
	"encoding/binary"
	"math"
	"sort"
	"time"
)

// tdmsChannel is one channel's contribution to a TDMS fixture segment.
type tdmsChannel struct {
	group   string
	name    string
	props   map[string]interface{}
	samples []float64
}

// TDMSBuilder assembles a single-segment TDMS 2.0 image with float64
// channels and little-endian contiguous raw data. It is an independent
// encoder used to drive the production parser in tests.
type TDMSBuilder struct {
	fileProps  map[string]interface{}
	groupOrder []string
	groupProps map[string]map[string]interface{}
	channels   []tdmsChannel
}

// NewTDMSBuilder starts an empty fixture.
func NewTDMSBuilder() *TDMSBuilder {
	return &TDMSBuilder{
		fileProps:  make(map[string]interface{}),
		groupProps: make(map[string]map[string]interface{}),
	}
}

// FileProperty attaches a property to the file object.
func (b *TDMSBuilder) FileProperty(name string, value interface{}) *TDMSBuilder {
	b.fileProps[name] = value
	return b
}

// Group declares a group and its properties.
func (b *TDMSBuilder) Group(name string, props map[string]interface{}) *TDMSBuilder {
	if _, seen := b.groupProps[name]; !seen {
		b.groupOrder = append(b.groupOrder, name)
	}
	b.groupProps[name] = props
	return b
}

// Channel declares a float64 channel with contiguous samples. The group is
// declared implicitly when it was not added explicitly.
func (b *TDMSBuilder) Channel(group, name string, props map[string]interface{}, samples []float64) *TDMSBuilder {
	if _, seen := b.groupProps[group]; !seen {
		b.Group(group, nil)
	}
	b.channels = append(b.channels, tdmsChannel{group: group, name: name, props: props, samples: samples})
	return b
}

// Bytes encodes the fixture.
func (b *TDMSBuilder) Bytes() []byte {
	var meta bytes.Buffer
	objects := 1 + len(b.groupOrder) + len(b.channels)
	writeTDMSU32(&meta, uint32(objects))

	writeTDMSString(&meta, "/")
	writeTDMSU32(&meta, 0xFFFFFFFF)
	writeTDMSProps(&meta, b.fileProps)

	for _, g := range b.groupOrder {
		writeTDMSString(&meta, "/'"+escapeTDMS(g)+"'")
		writeTDMSU32(&meta, 0xFFFFFFFF)
		writeTDMSProps(&meta, b.groupProps[g])
	}

	var raw bytes.Buffer
	for _, ch := range b.channels {
		writeTDMSString(&meta, "/'"+escapeTDMS(ch.group)+"'/'"+escapeTDMS(ch.name)+"'")
		writeTDMSU32(&meta, 20) // index length: dtype + dimension + count
		writeTDMSU32(&meta, 0x0A)
		writeTDMSU32(&meta, 1)
		writeTDMSU64(&meta, uint64(len(ch.samples)))
		writeTDMSProps(&meta, ch.props)

		for _, v := range ch.samples {
			writeTDMSU64(&raw, math.Float64bits(v))
		}
	}

	var buf bytes.Buffer
	buf.WriteString("TDSm")
	toc := uint32(1<<1 | 1<<2) // meta data, new object list
	if raw.Len() > 0 {
		toc |= 1 << 3 // raw data
	}
	writeTDMSU32(&buf, toc)
	writeTDMSU32(&buf, 4713)
	writeTDMSU64(&buf, uint64(meta.Len()+raw.Len()))
	writeTDMSU64(&buf, uint64(meta.Len()))
	buf.Write(meta.Bytes())
	buf.Write(raw.Bytes())
	return buf.Bytes()
}

func escapeTDMS(name string) string {
	var out []byte
	for i := 0; i < len(name); i++ {
		if name[i] == '\'' {
			out = append(out, '\'', '\'')
			continue
		}
		out = append(out, name[i])
	}
	return string(out)
}

func writeTDMSU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeTDMSU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeTDMSString(buf *bytes.Buffer, s string) {
	writeTDMSU32(buf, uint32(len(s)))
	buf.WriteString(s)
}

// writeTDMSProps encodes a property table. Supported value types: string,
// int (int32 code), float64, bool and time.Time (timestamp code).
func writeTDMSProps(buf *bytes.Buffer, props map[string]interface{}) {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	// deterministic fixture bytes
	sort.Strings(keys)

	writeTDMSU32(buf, uint32(len(keys)))
	for _, k := range keys {
		writeTDMSString(buf, k)
		switch v := props[k].(type) {
		case string:
			writeTDMSU32(buf, 0x20)
			writeTDMSString(buf, v)
		case int:
			writeTDMSU32(buf, 0x03)
			writeTDMSU32(buf, uint32(int32(v)))
		case float64:
			writeTDMSU32(buf, 0x0A)
			writeTDMSU64(buf, math.Float64bits(v))
		case bool:
			writeTDMSU32(buf, 0x21)
			if v {
				buf.WriteByte(1)
			} else {
				buf.WriteByte(0)
			}
		case time.Time:
			writeTDMSU32(buf, 0x44)
			secs1904 := v.Unix() + 2082844800
			frac := uint64(float64(v.Nanosecond()) / 1e9 * float64(1<<32) * float64(1<<32))
			writeTDMSU64(buf, frac)
			writeTDMSU64(buf, uint64(secs1904))
		default:
			panic("testutil: unsupported tdms property type")
		}
	}
}
