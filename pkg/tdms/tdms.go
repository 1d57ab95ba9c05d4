// Package tdms provides a pure Go reader for National Instruments TDMS 2.0
// files, the container used by engineering DAS interrogators. It covers
// little-endian files with standard raw data: segmented metadata, object
// lists carried across segments, and contiguous or interleaved channel
// values.
package tdms

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// Common errors
var (
	ErrNotTDMS     = errors.New("not a TDMS file")
	ErrVersion     = errors.New("unsupported TDMS version")
	ErrBigEndian   = errors.New("big-endian TDMS files are not supported")
	ErrDAQmx       = errors.New("DAQmx raw data is not supported")
	ErrTruncated   = errors.New("segment truncated")
	ErrBadIndex    = errors.New("invalid raw data index")
	ErrUnsupported = errors.New("unsupported data type")
	ErrNotFound    = errors.New("object not found")
)

// Table of contents bits from the segment lead-in.
const (
	tocMetaData        = 1 << 1
	tocNewObjList      = 1 << 2
	tocRawData         = 1 << 3
	tocInterleavedData = 1 << 5
	tocBigEndian       = 1 << 6
	tocDAQmxRawData    = 1 << 7
)

const (
	leadInSize = 28
	// noRawData marks an object without raw data in this segment.
	noRawData = 0xFFFFFFFF
	// sameAsPrevious reuses the object's raw index from an earlier segment.
	sameAsPrevious = 0x00000000
	// unfinalized marks a segment cut off by an interrupted acquisition.
	unfinalized = 0xFFFFFFFFFFFFFFFF
)

// File represents an open TDMS file with its object tree fully indexed.
// Channel sample data stays on disk until requested.
type File struct {
	r      io.ReaderAt
	size   int64
	closer io.Closer

	props  map[string]interface{}
	groups []*Group
	byName map[string]*Group

	objects map[string]*segObject
	active  []*segObject
}

// segObject tracks one object's raw-data state while walking segments.
type segObject struct {
	ch      *Channel
	hasData bool
	dtype   DataType
	count   uint64
	indexed bool
}

// Open opens a TDMS file for reading.
func Open(path string) (*File, error) {
	f, err := os.Open(path) //nolint:gosec // G304: File path is controlled by caller and validated
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}
	td, err := New(f, st.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	td.closer = f
	return td, nil
}

// New parses TDMS structure from an io.ReaderAt of the given size. The
// caller keeps ownership of r; Close on the returned File is a no-op.
// Use New for in-memory buffers produced by the codec layer.
func New(r io.ReaderAt, size int64) (*File, error) {
	f := &File{
		r:       r,
		size:    size,
		props:   make(map[string]interface{}),
		byName:  make(map[string]*Group),
		objects: make(map[string]*segObject),
	}
	if err := f.walkSegments(); err != nil {
		return nil, err
	}
	return f, nil
}

// Close releases the underlying file when the File was created by Open.
func (f *File) Close() error {
	if f.closer == nil {
		return nil
	}
	c := f.closer
	f.closer = nil
	return c.Close()
}

// Properties returns the file-level properties.
func (f *File) Properties() map[string]interface{} { return f.props }

// Groups returns the groups in the order they first appear.
func (f *File) Groups() []*Group { return f.groups }

// Group looks a group up by name.
func (f *File) Group(name string) (*Group, bool) {
	g, ok := f.byName[name]
	return g, ok
}

// walkSegments drives the segment-by-segment parse of the whole file.
func (f *File) walkSegments() error {
	var pos int64
	for pos < f.size {
		segEnd, err := f.parseSegment(pos)
		if err != nil {
			return err
		}
		pos = segEnd
	}
	return nil
}

// parseSegment reads one segment starting at pos and returns the offset
// of the next.
func (f *File) parseSegment(pos int64) (int64, error) {
	if pos+leadInSize > f.size {
		return 0, fmt.Errorf("%w: lead-in extends past end of file", ErrTruncated)
	}
	lead := make([]byte, leadInSize)
	if _, err := f.r.ReadAt(lead, pos); err != nil {
		return 0, fmt.Errorf("reading lead-in: %w", err)
	}
	if string(lead[:4]) != "TDSm" {
		return 0, ErrNotTDMS
	}

	toc := binary.LittleEndian.Uint32(lead[4:])
	if toc&tocBigEndian != 0 {
		return 0, ErrBigEndian
	}
	if toc&tocDAQmxRawData != 0 {
		return 0, ErrDAQmx
	}
	version := binary.LittleEndian.Uint32(lead[8:])
	if version != 4712 && version != 4713 {
		return 0, fmt.Errorf("%w: %d", ErrVersion, version)
	}

	nextOff := binary.LittleEndian.Uint64(lead[12:])
	rawOff := binary.LittleEndian.Uint64(lead[20:])

	metaStart := pos + leadInSize
	segEnd := f.size
	if nextOff != unfinalized {
		segEnd = metaStart + int64(nextOff)
		if segEnd > f.size {
			return 0, fmt.Errorf("%w: segment claims %d bytes past end of file", ErrTruncated, segEnd-f.size)
		}
	}
	dataStart := metaStart + int64(rawOff)
	if dataStart > segEnd {
		return 0, fmt.Errorf("%w: raw data offset beyond segment", ErrTruncated)
	}

	if toc&tocMetaData != 0 {
		if err := f.parseMetadata(metaStart, dataStart, toc); err != nil {
			return 0, err
		}
	}

	if toc&tocRawData != 0 {
		if err := f.layoutRawData(dataStart, segEnd, toc&tocInterleavedData != 0); err != nil {
			return 0, err
		}
	}
	return segEnd, nil
}

// layoutRawData records where each active channel's values live inside
// the raw region, honoring repeated chunks and interleaving. No sample
// bytes are read here.
func (f *File) layoutRawData(dataStart, segEnd int64, interleaved bool) error {
	var chunkBytes int64
	var live []*segObject
	for _, obj := range f.active {
		if !obj.hasData || obj.count == 0 {
			continue
		}
		vs := obj.dtype.valueSize()
		if vs == 0 {
			return fmt.Errorf("%w: %s raw data", ErrUnsupported, obj.dtype)
		}
		chunkBytes += int64(obj.count) * vs
		live = append(live, obj)
	}

	total := segEnd - dataStart
	if len(live) == 0 {
		if total != 0 {
			return fmt.Errorf("%w: raw data with no active channels", ErrBadIndex)
		}
		return nil
	}
	if total%chunkBytes != 0 {
		return fmt.Errorf("%w: %d trailing raw bytes", ErrTruncated, total%chunkBytes)
	}
	chunks := total / chunkBytes

	for c := int64(0); c < chunks; c++ {
		base := dataStart + c*chunkBytes
		if interleaved {
			// One value per channel in file order, repeated.
			var stride int64
			for _, obj := range live {
				stride += obj.dtype.valueSize()
			}
			n := live[0].count
			for _, obj := range live {
				if obj.count != n {
					return fmt.Errorf("%w: interleaved channels with unequal counts", ErrBadIndex)
				}
			}
			var tupleOff int64
			for _, obj := range live {
				obj.ch.reads = append(obj.ch.reads, rawRead{
					offset: base + tupleOff,
					count:  int64(obj.count),
					stride: stride,
				})
				obj.ch.total += int64(obj.count)
				tupleOff += obj.dtype.valueSize()
			}
		} else {
			off := base
			for _, obj := range live {
				vs := obj.dtype.valueSize()
				obj.ch.reads = append(obj.ch.reads, rawRead{
					offset: off,
					count:  int64(obj.count),
					stride: vs,
				})
				obj.ch.total += int64(obj.count)
				off += int64(obj.count) * vs
			}
		}
	}
	return nil
}
