package tdms

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"
)

// DataType is the TDMS type code of a property value or channel.
type DataType uint32

// TDMS 2.0 type codes.
const (
	TypeVoid        DataType = 0x00
	TypeInt8        DataType = 0x01
	TypeInt16       DataType = 0x02
	TypeInt32       DataType = 0x03
	TypeInt64       DataType = 0x04
	TypeUint8       DataType = 0x05
	TypeUint16      DataType = 0x06
	TypeUint32      DataType = 0x07
	TypeUint64      DataType = 0x08
	TypeFloat32     DataType = 0x09
	TypeFloat64     DataType = 0x0A
	TypeFloat32Unit DataType = 0x19
	TypeFloat64Unit DataType = 0x1A
	TypeString      DataType = 0x20
	TypeBool        DataType = 0x21
	TypeTimestamp   DataType = 0x44
)

// valueSize returns the fixed encoded size of one value, or 0 for
// variable-length and unknown types.
func (dt DataType) valueSize() int64 {
	switch dt {
	case TypeInt8, TypeUint8, TypeBool:
		return 1
	case TypeInt16, TypeUint16:
		return 2
	case TypeInt32, TypeUint32, TypeFloat32, TypeFloat32Unit:
		return 4
	case TypeInt64, TypeUint64, TypeFloat64, TypeFloat64Unit:
		return 8
	case TypeTimestamp:
		return 16
	default:
		return 0
	}
}

// String returns the conventional name of the type.
func (dt DataType) String() string {
	switch dt {
	case TypeVoid:
		return "void"
	case TypeInt8:
		return "int8"
	case TypeInt16:
		return "int16"
	case TypeInt32:
		return "int32"
	case TypeInt64:
		return "int64"
	case TypeUint8:
		return "uint8"
	case TypeUint16:
		return "uint16"
	case TypeUint32:
		return "uint32"
	case TypeUint64:
		return "uint64"
	case TypeFloat32, TypeFloat32Unit:
		return "float32"
	case TypeFloat64, TypeFloat64Unit:
		return "float64"
	case TypeString:
		return "string"
	case TypeBool:
		return "bool"
	case TypeTimestamp:
		return "timestamp"
	default:
		return fmt.Sprintf("type-0x%x", uint32(dt))
	}
}

// tdmsEpochOffset is the seconds between the TDMS epoch (1904-01-01) and
// the Unix epoch.
const tdmsEpochOffset = 2082844800

// cursor steps through a segment's metadata bytes.
type cursor struct {
	f   *File
	pos int64
	end int64
}

func (c *cursor) bytes(n int64) ([]byte, error) {
	if c.pos+n > c.end {
		return nil, fmt.Errorf("%w: metadata extends past raw data", ErrTruncated)
	}
	buf := make([]byte, n)
	if _, err := c.f.r.ReadAt(buf, c.pos); err != nil {
		return nil, fmt.Errorf("reading metadata: %w", err)
	}
	c.pos += n
	return buf, nil
}

func (c *cursor) u32() (uint32, error) {
	b, err := c.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *cursor) u64() (uint64, error) {
	b, err := c.bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (c *cursor) str() (string, error) {
	n, err := c.u32()
	if err != nil {
		return "", err
	}
	b, err := c.bytes(int64(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// parseMetadata reads one segment's object list and property tables.
func (f *File) parseMetadata(metaStart, dataStart int64, toc uint32) error {
	cur := &cursor{f: f, pos: metaStart, end: dataStart}

	if toc&tocNewObjList != 0 {
		f.active = f.active[:0]
	}

	numObjects, err := cur.u32()
	if err != nil {
		return err
	}

	for i := uint32(0); i < numObjects; i++ {
		path, err := cur.str()
		if err != nil {
			return err
		}
		obj, err := f.object(path)
		if err != nil {
			return err
		}

		marker, err := cur.u32()
		if err != nil {
			return err
		}
		switch marker {
		case noRawData:
			obj.hasData = false
		case sameAsPrevious:
			if !obj.indexed {
				return fmt.Errorf("%w: %s reuses an index it never had", ErrBadIndex, path)
			}
			obj.hasData = true
			f.activate(obj)
		default:
			// marker is the index length; the fields follow directly.
			dtypeRaw, err := cur.u32()
			if err != nil {
				return err
			}
			dim, err := cur.u32()
			if err != nil {
				return err
			}
			if dim != 1 {
				return fmt.Errorf("%w: array dimension %d", ErrBadIndex, dim)
			}
			count, err := cur.u64()
			if err != nil {
				return err
			}
			dtype := DataType(dtypeRaw)
			if dtype == TypeString {
				return fmt.Errorf("%w: string channel data", ErrUnsupported)
			}
			if dtype.valueSize() == 0 {
				return fmt.Errorf("%w: %s channel data", ErrUnsupported, dtype)
			}
			if obj.ch == nil {
				return fmt.Errorf("%w: raw data on non-channel object %s", ErrBadIndex, path)
			}
			obj.dtype = dtype
			obj.count = count
			obj.hasData = true
			obj.indexed = true
			obj.ch.dtype = dtype
			f.activate(obj)
		}

		if err := f.parseProperties(cur, path); err != nil {
			return err
		}
	}
	return nil
}

// activate ensures obj appears exactly once in the active raw-object list.
func (f *File) activate(obj *segObject) {
	for _, existing := range f.active {
		if existing == obj {
			return
		}
	}
	f.active = append(f.active, obj)
}

// parseProperties reads a property table into the owning object.
func (f *File) parseProperties(cur *cursor, path string) error {
	numProps, err := cur.u32()
	if err != nil {
		return err
	}
	if numProps == 0 {
		return nil
	}

	target, err := f.propertyMap(path)
	if err != nil {
		return err
	}
	for i := uint32(0); i < numProps; i++ {
		name, err := cur.str()
		if err != nil {
			return err
		}
		dtypeRaw, err := cur.u32()
		if err != nil {
			return err
		}
		value, err := readPropertyValue(cur, DataType(dtypeRaw))
		if err != nil {
			return fmt.Errorf("property %q: %w", name, err)
		}
		target[name] = value
	}
	return nil
}

// readPropertyValue decodes one property value. Signed integers widen to
// int64, unsigned to uint64, floats to float64; timestamps become
// time.Time in UTC.
func readPropertyValue(cur *cursor, dtype DataType) (interface{}, error) {
	switch dtype {
	case TypeString:
		return cur.str()
	case TypeBool:
		b, err := cur.bytes(1)
		if err != nil {
			return nil, err
		}
		return b[0] != 0, nil
	case TypeTimestamp:
		b, err := cur.bytes(16)
		if err != nil {
			return nil, err
		}
		return decodeTimestamp(b), nil
	}

	size := dtype.valueSize()
	if size == 0 {
		return nil, fmt.Errorf("%w: %s property", ErrUnsupported, dtype)
	}
	b, err := cur.bytes(size)
	if err != nil {
		return nil, err
	}
	switch dtype {
	case TypeInt8:
		return int64(int8(b[0])), nil
	case TypeInt16:
		return int64(int16(binary.LittleEndian.Uint16(b))), nil
	case TypeInt32:
		return int64(int32(binary.LittleEndian.Uint32(b))), nil
	case TypeInt64:
		return int64(binary.LittleEndian.Uint64(b)), nil
	case TypeUint8:
		return uint64(b[0]), nil
	case TypeUint16:
		return uint64(binary.LittleEndian.Uint16(b)), nil
	case TypeUint32:
		return uint64(binary.LittleEndian.Uint32(b)), nil
	case TypeUint64:
		return binary.LittleEndian.Uint64(b), nil
	case TypeFloat32, TypeFloat32Unit:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b))), nil
	case TypeFloat64, TypeFloat64Unit:
		return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
	default:
		return nil, fmt.Errorf("%w: %s property", ErrUnsupported, dtype)
	}
}

// decodeTimestamp converts the on-disk pair (fractions, seconds since
// 1904) to a UTC time. Little-endian files store the 2^-64 fraction word
// first.
func decodeTimestamp(b []byte) time.Time {
	frac := binary.LittleEndian.Uint64(b[0:8])
	secs := int64(binary.LittleEndian.Uint64(b[8:16]))
	nanos := int64(float64(frac) * (1e9 / float64(1<<32) / float64(1<<32)))
	return time.Unix(secs-tdmsEpochOffset, nanos).UTC()
}

// object resolves a metadata path to its tracking state, creating file,
// group and channel entries on first sight.
func (f *File) object(path string) (*segObject, error) {
	if obj, ok := f.objects[path]; ok {
		return obj, nil
	}

	parts, err := parsePath(path)
	if err != nil {
		return nil, err
	}

	obj := &segObject{}
	switch len(parts) {
	case 0:
		// File object: properties only.
	case 1:
		f.ensureGroup(parts[0])
	case 2:
		g := f.ensureGroup(parts[0])
		ch := &Channel{
			file:  f,
			group: parts[0],
			name:  parts[1],
			props: make(map[string]interface{}),
		}
		g.channels = append(g.channels, ch)
		g.byName[ch.name] = ch
		obj.ch = ch
	default:
		return nil, fmt.Errorf("%w: path %q nests too deep", ErrBadIndex, path)
	}
	f.objects[path] = obj
	return obj, nil
}

// propertyMap returns the map a path's properties merge into.
func (f *File) propertyMap(path string) (map[string]interface{}, error) {
	parts, err := parsePath(path)
	if err != nil {
		return nil, err
	}
	switch len(parts) {
	case 0:
		return f.props, nil
	case 1:
		return f.ensureGroup(parts[0]).props, nil
	case 2:
		obj := f.objects[path]
		if obj == nil || obj.ch == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return obj.ch.props, nil
	default:
		return nil, fmt.Errorf("%w: path %q nests too deep", ErrBadIndex, path)
	}
}

func (f *File) ensureGroup(name string) *Group {
	if g, ok := f.byName[name]; ok {
		return g
	}
	g := &Group{
		name:   name,
		props:  make(map[string]interface{}),
		byName: make(map[string]*Channel),
	}
	f.groups = append(f.groups, g)
	f.byName[name] = g
	return g
}

// parsePath splits an object path like /'Group'/'Channel' into its
// components, unescaping doubled quotes.
func parsePath(path string) ([]string, error) {
	if path == "/" {
		return nil, nil
	}
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("%w: path %q", ErrBadIndex, path)
	}

	var parts []string
	rest := path[1:]
	for len(rest) > 0 {
		if rest[0] != '\'' {
			return nil, fmt.Errorf("%w: path %q", ErrBadIndex, path)
		}
		rest = rest[1:]
		var sb strings.Builder
		closed := false
		for i := 0; i < len(rest); i++ {
			if rest[i] != '\'' {
				sb.WriteByte(rest[i])
				continue
			}
			if i+1 < len(rest) && rest[i+1] == '\'' {
				sb.WriteByte('\'')
				i++
				continue
			}
			rest = rest[i+1:]
			closed = true
			break
		}
		if !closed {
			return nil, fmt.Errorf("%w: unterminated name in %q", ErrBadIndex, path)
		}
		parts = append(parts, sb.String())
		if len(rest) > 0 {
			if rest[0] != '/' {
				return nil, fmt.Errorf("%w: path %q", ErrBadIndex, path)
			}
			rest = rest[1:]
		}
	}
	return parts, nil
}
