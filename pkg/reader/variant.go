package reader

// SchemaVariant identifies the recognized layout of a container. The
// variant fixes the structural expectations of a read: where the sample
// array lives, the metadata fallback chains, the window clamping policy
// and the timestamp scale. It is detected once per call and never changes.
type SchemaVariant int

const (
	// VariantUnknown means detection has not run or failed.
	VariantUnknown SchemaVariant = iota
	// VariantSerializedArray is a bare serialized numeric array (.npy).
	VariantSerializedArray
	// VariantSerializedMap is a serialized key/value map with a data array
	// (.pkl).
	VariantSerializedMap
	// VariantAcquisitionV1 is the PRODML-style HDF5 layout rooted at an
	// Acquisition group.
	VariantAcquisitionV1
	// VariantRawStream is the HDF5 layout with root raw and timestamp
	// datasets.
	VariantRawStream
	// VariantDataProduct is the HDF5 layout rooted at a data_product group
	// with root-level attributes.
	VariantDataProduct
	// VariantMultiSourceZone is the Febus-style HDF5 layout with a
	// Source1/Zone1 subtree and a 3-D block dataset.
	VariantMultiSourceZone
	// VariantEngineeringWaveform is the TDMS measurement layout.
	VariantEngineeringWaveform
	// VariantSeismicTrace is the SEG-Y fixed-length trace list.
	VariantSeismicTrace
)

func (v SchemaVariant) String() string {
	switch v {
	case VariantSerializedArray:
		return "serialized-array"
	case VariantSerializedMap:
		return "serialized-map"
	case VariantAcquisitionV1:
		return "acquisition-v1"
	case VariantRawStream:
		return "raw-stream"
	case VariantDataProduct:
		return "data-product"
	case VariantMultiSourceZone:
		return "multi-source-zone"
	case VariantEngineeringWaveform:
		return "engineering-waveform"
	case VariantSeismicTrace:
		return "seismic-trace"
	default:
		return "unknown"
	}
}
