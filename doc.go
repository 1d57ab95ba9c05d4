// Package dasio reads distributed acoustic sensing (DAS) recordings stored
// in the mutually incompatible container formats the interrogator vendors
// produce, and normalizes every one of them into a single canonical
// in-memory representation: a channel-major float64 sample matrix plus a
// metadata record with consistent semantic fields.
//
// # Canonical contract
//
// Whatever the on-disk layout, a successful read hands back a das.Section:
//
//   - Data: a das.Matrix, always channel-major [channels][samples],
//     transposed from sample-major containers on the way in.
//   - Meta: das.CanonicalMetadata with sampling rate, channel spacing,
//     gauge length, start channel, start distance, absolute UTC start time,
//     the recorded data type and the container's ancillary headers.
//     Undeterminable fields hold explicit sentinels (nil pointers, the
//     epoch-zero instant), never silently coerced zeros.
//   - A list of das.Diagnostic values naming each metadata field whose
//     fallback chain was exhausted, so callers can log or surface them.
//
// # Supported containers
//
// Eight schema variants behind five format readers:
//
//	npy   serialized NumPy arrays, C and Fortran order, integer widening
//	pkl   pickled dictionaries ({data, dx, fs, ...}) and bare pickled arrays
//	h5    four hierarchical layouts: PRODML-style Acquisition trees,
//	      raw/timestamp streams, data_product exports and multi-source
//	      Source/Zone block acquisitions
//	tdms  engineering waveform files, per-channel and interleaved
//	sgy   SEG-Y rev1 trace lists
//
// Gzip, zstd, lz4 and snappy wrappings of the stream-decodable formats are
// recognized by a trailing codec suffix (survey.npy.gz).
//
// # Quick start
//
//	import (
//	    "github.com/stratoseis/dasio/pkg/reader"
//	    _ "github.com/stratoseis/dasio/pkg/reader/formats"
//	)
//
//	sec, diags, err := reader.Read("survey.h5", reader.Options{})
//	if err != nil {
//	    return err
//	}
//	for _, d := range diags {
//	    log.Println(d)
//	}
//	matrix, meta := sec.Data, sec.Meta
//
// Windowed and metadata-only reads go through the same call:
//
//	windowed, _, err := reader.Read("survey.h5", reader.Options{
//	    Ch1: reader.Int(100),
//	    Ch2: reader.Int(200),
//	})
//	stub, _, err := reader.Read("survey.h5", reader.Options{MetadataOnly: true})
//
// # Key packages
//
//	pkg/reader         - format dispatch, window resolution, normalization
//	pkg/reader/formats - the per-format readers (register on import)
//	pkg/das            - Section, Matrix, CanonicalMetadata, Diagnostic
//	pkg/dastime        - timestamp parsing at fixed per-variant scales
//	pkg/topology       - deployment descriptor classification
//	pkg/segy           - SEG-Y rev1 trace-list parsing
//	pkg/tdms           - TDMS 2.0 segment parsing
//	pkg/codec          - compression suffix handling
//	pkg/config         - YAML configuration with env substitution
//	pkg/errors         - structured, typed errors
//	pkg/logger         - structured logging
//	pkg/metrics        - Prometheus instrumentation
//
// # Command line
//
// The dasio CLI wraps the library for quick use:
//
//	dasio formats
//	dasio inspect survey.h5 --json
//	dasio read survey.h5 --ch1 100 --ch2 200 --out window.npy
//	dasio topology deployment.json
//	dasio bench survey.h5 -n 50
package dasio
