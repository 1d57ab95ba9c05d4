// Package reader dispatches acquisition files to per-format readers and
// normalizes their contents into das.Section values: a channel-major
// float64 matrix plus canonical metadata, returned together with the
// non-fatal diagnostics raised while normalizing.
//
// Format readers register themselves with the package registry from their
// init functions; importing pkg/reader/formats wires in the standard set.
// Dispatch resolves the format tag from an explicit override or the file
// name suffix, strips a trailing codec suffix, and routes to the
// registered reader:
//
//	import _ "github.com/stratoseis/dasio/pkg/reader/formats"
//
//	sec, diags, err := reader.Read("survey.h5", reader.Options{})
//	windowed, _, err := reader.Read("survey.h5", reader.Options{
//		Ch1: reader.Int(100),
//		Ch2: reader.Int(200),
//	})
package reader

import (
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/stratoseis/dasio/pkg/codec"
	"github.com/stratoseis/dasio/pkg/das"
	"github.com/stratoseis/dasio/pkg/errors"
	"github.com/stratoseis/dasio/pkg/logger"
	"github.com/stratoseis/dasio/pkg/metrics"
)

// Options control a single read call.
type Options struct {
	// Format overrides suffix-based tag resolution. Accepts canonical tags
	// and their aliases ("h5", "hdf5", "sgy", "segy", "pkl", "pickle",
	// "npy", "tdms").
	Format string

	// Ch1 and Ch2 bound the requested half-open channel window in absolute
	// channel numbers. A nil bound defaults to the container's intrinsic
	// limit, each side independently.
	Ch1, Ch2 *int

	// MetadataOnly skips sample materialization: the returned matrix is a
	// zero-filled stub of the window's shape and no sample bytes are read.
	MetadataOnly bool

	// Extra carries per-format knobs, such as "group" for waveform
	// containers holding more than one measurement group.
	Extra map[string]interface{}
}

// Int returns a pointer to v, for the optional window bounds.
func Int(v int) *int {
	return &v
}

// Read opens the file at path, routes it to the format reader resolved
// from opts.Format or the file name, and returns the windowed section
// together with the diagnostics raised while normalizing its metadata.
func Read(path string, opts Options) (*das.Section, []das.Diagnostic, error) {
	return globalRegistry.Read(path, opts)
}

// Read dispatches through this registry. See the package-level Read.
func (r *Registry) Read(path string, opts Options) (*das.Section, []das.Diagnostic, error) {
	tag, alg, err := r.resolveTag(path, opts.Format)
	if err != nil {
		metrics.ReadsTotal.WithLabelValues(tag, "error").Inc()
		return nil, nil, err
	}

	fr, err := r.Get(tag)
	if err != nil {
		metrics.ReadsTotal.WithLabelValues(tag, "error").Inc()
		return nil, nil, err
	}

	timer := metrics.NewTimer(tag)
	defer func() {
		metrics.ReadDuration.WithLabelValues(tag).Observe(timer.Stop().Seconds())
	}()

	src := &Source{Path: path, Codec: alg}
	defer src.Close()

	sec, diags, err := fr.Read(src, opts)
	if err != nil {
		metrics.ReadsTotal.WithLabelValues(tag, "error").Inc()
		return nil, diags, err
	}

	sec.Source = path
	sec.SourceType = tag

	metrics.ReadsTotal.WithLabelValues(tag, "success").Inc()
	metrics.ChannelsRead.WithLabelValues(tag).Observe(float64(sec.Channels()))
	for _, d := range diags {
		metrics.DiagnosticsTotal.WithLabelValues(d.Field).Inc()
	}

	logger.Debug("read section",
		zap.String("path", path),
		zap.String("format", tag),
		zap.String("codec", string(alg)),
		zap.Int("channels", sec.Channels()),
		zap.Int("samples", sec.Samples()),
		zap.Int("diagnostics", len(diags)))

	return sec, diags, nil
}

// resolveTag turns a path and an optional explicit format into the
// canonical tag and the codec layer wrapping the file. The codec suffix is
// stripped from the name before the format suffix is considered; an
// explicit format skips suffix resolution but not codec stripping.
func (r *Registry) resolveTag(path, explicit string) (string, codec.Algorithm, error) {
	trimmed, alg := codec.TrimSuffix(path)

	var tag string
	if explicit != "" {
		tag = r.Resolve(strings.ToLower(explicit))
	} else {
		ext := strings.ToLower(filepath.Ext(trimmed))
		tag = r.Resolve(strings.TrimPrefix(ext, "."))
	}

	if tag == "" {
		return "", alg, errors.Newf(errors.ErrorTypeUnsupportedFormat,
			"cannot resolve a format for %q: no explicit format and no recognizable suffix", path)
	}
	if tag == "h5" && alg != codec.None {
		return tag, alg, errors.Newf(errors.ErrorTypeUnsupportedFormat,
			"h5 containers need random access and cannot be read through a %s stream", alg)
	}
	return tag, alg, nil
}
