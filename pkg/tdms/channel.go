package tdms

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Group is a named collection of channels with its own properties.
type Group struct {
	name     string
	props    map[string]interface{}
	channels []*Channel
	byName   map[string]*Channel
}

// Name returns the group name.
func (g *Group) Name() string { return g.name }

// Properties returns the group-level properties.
func (g *Group) Properties() map[string]interface{} { return g.props }

// Channels returns the group's channels in the order they first appear.
func (g *Group) Channels() []*Channel { return g.channels }

// Channel looks a channel up by name.
func (g *Group) Channel(name string) (*Channel, bool) {
	ch, ok := g.byName[name]
	return ch, ok
}

// rawRead locates one run of a channel's values inside the file: count
// values starting at offset, stride bytes apart.
type rawRead struct {
	offset int64
	count  int64
	stride int64
}

// Channel is one measured signal. Its values may be scattered across
// many segments and chunks; reads stay lazy until Float64s.
type Channel struct {
	file  *File
	group string
	name  string
	dtype DataType
	props map[string]interface{}
	reads []rawRead
	total int64
}

// Name returns the channel name.
func (c *Channel) Name() string { return c.name }

// GroupName returns the name of the owning group.
func (c *Channel) GroupName() string { return c.group }

// Type returns the channel's sample type.
func (c *Channel) Type() DataType { return c.dtype }

// Properties returns the channel-level properties.
func (c *Channel) Properties() map[string]interface{} { return c.props }

// Len returns the total number of values across all segments.
func (c *Channel) Len() int { return int(c.total) }

// Float64s materializes every value of the channel as float64, in
// acquisition order. Booleans decode to 0 and 1; timestamp channels are
// rejected.
func (c *Channel) Float64s() ([]float64, error) {
	if c.dtype == TypeTimestamp {
		return nil, fmt.Errorf("%w: timestamp channel %q", ErrUnsupported, c.name)
	}
	out := make([]float64, 0, c.total)
	for _, rr := range c.reads {
		var err error
		out, err = c.appendRun(out, rr)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// appendRun decodes one rawRead run onto dst.
func (c *Channel) appendRun(dst []float64, rr rawRead) ([]float64, error) {
	if rr.count == 0 {
		return dst, nil
	}
	vs := c.dtype.valueSize()
	span := (rr.count-1)*rr.stride + vs
	raw := make([]byte, span)
	if _, err := c.file.r.ReadAt(raw, rr.offset); err != nil {
		return nil, fmt.Errorf("reading channel %q: %w", c.name, err)
	}

	for i := int64(0); i < rr.count; i++ {
		b := raw[i*rr.stride:]
		switch c.dtype {
		case TypeInt8:
			dst = append(dst, float64(int8(b[0])))
		case TypeInt16:
			dst = append(dst, float64(int16(binary.LittleEndian.Uint16(b))))
		case TypeInt32:
			dst = append(dst, float64(int32(binary.LittleEndian.Uint32(b))))
		case TypeInt64:
			dst = append(dst, float64(int64(binary.LittleEndian.Uint64(b))))
		case TypeUint8:
			dst = append(dst, float64(b[0]))
		case TypeUint16:
			dst = append(dst, float64(binary.LittleEndian.Uint16(b)))
		case TypeUint32:
			dst = append(dst, float64(binary.LittleEndian.Uint32(b)))
		case TypeUint64:
			dst = append(dst, float64(binary.LittleEndian.Uint64(b)))
		case TypeFloat32, TypeFloat32Unit:
			dst = append(dst, float64(math.Float32frombits(binary.LittleEndian.Uint32(b))))
		case TypeFloat64, TypeFloat64Unit:
			dst = append(dst, math.Float64frombits(binary.LittleEndian.Uint64(b)))
		case TypeBool:
			if b[0] != 0 {
				dst = append(dst, 1)
			} else {
				dst = append(dst, 0)
			}
		default:
			return nil, fmt.Errorf("%w: %s channel data", ErrUnsupported, c.dtype)
		}
	}
	return dst, nil
}
