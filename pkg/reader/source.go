package reader

import (
	"bytes"
	"io"
	"os"

	"github.com/stratoseis/dasio/pkg/codec"
	"github.com/stratoseis/dasio/pkg/errors"
)

// Source is the opened input handed to a format reader. It is scoped to
// one read call: the dispatcher creates it, the format reader pulls one of
// the access views below, and the dispatcher closes it on every exit path.
//
// Flat serialized formats consume Stream, the decoded sequential view.
// Trace-list and waveform containers use RandomAccess; when a codec layer
// is involved the decoded payload is buffered in memory, since frame
// codecs have no positioned reads. Hierarchical containers re-open by Path
// and never coexist with a codec layer (dispatch rejects that pairing).
type Source struct {
	// Path is the file's location on disk.
	Path string
	// Codec is the compression layer announced by the file name, None for
	// plain files.
	Codec codec.Algorithm

	closers []io.Closer
}

// Stream returns a sequential view of the decoded payload. The underlying
// file and decoder are released by Close.
func (s *Source) Stream() (io.Reader, error) {
	rc, _, err := codec.Open(s.Path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeIO, "open %s", s.Path)
	}
	s.closers = append(s.closers, rc)
	return rc, nil
}

// RandomAccess returns a positioned view of the decoded payload and its
// size. Plain files are read in place; codec-wrapped payloads are decoded
// into memory first.
func (s *Source) RandomAccess() (io.ReaderAt, int64, error) {
	rc, alg, err := codec.Open(s.Path)
	if err != nil {
		return nil, 0, errors.Wrapf(err, errors.ErrorTypeIO, "open %s", s.Path)
	}

	if alg == codec.None {
		if f, ok := rc.(*os.File); ok {
			info, err := f.Stat()
			if err != nil {
				f.Close()
				return nil, 0, errors.Wrapf(err, errors.ErrorTypeIO, "stat %s", s.Path)
			}
			s.closers = append(s.closers, f)
			return f, info.Size(), nil
		}
	}

	defer rc.Close()
	buf, err := io.ReadAll(rc)
	if err != nil {
		return nil, 0, errors.Wrapf(err, errors.ErrorTypeIO, "decode %s", s.Path)
	}
	return bytes.NewReader(buf), int64(len(buf)), nil
}

// Close releases every view opened from this source.
func (s *Source) Close() error {
	var firstErr error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.closers = nil
	return firstErr
}
