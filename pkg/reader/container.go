package reader

// Container is a scoped-open hierarchical file exposing its root node. A
// handle lives for the duration of one read call and must be released on
// every exit path.
type Container interface {
	Root() Node
	Close() error
}

// Node is the capability view of one member of a hierarchical container:
// attribute lookup, child traversal, dataset identification and shape
// introspection. Backends adapt their concrete tree (HDF5 groups and
// datasets, in-memory test containers) to this interface; everything above
// the backend works against it.
type Node interface {
	// Name returns the member name within its parent.
	Name() string

	// AttrNames lists the attribute names attached to this node.
	AttrNames() []string

	// Attr returns the decoded value of one attribute. The second result
	// is false when the attribute is absent or cannot be decoded. Scalar
	// attributes decode to single values, array attributes to slices.
	Attr(name string) (interface{}, bool)

	// Children lists member names in container order. Dataset leaves have
	// none.
	Children() []string

	// Child opens one member by name.
	Child(name string) (Node, error)

	// IsDataset reports whether the node is a sample-bearing dataset leaf.
	IsDataset() bool

	// Shape returns the dataset dimensions, nil for groups. Shape alone
	// must not touch the dataset payload.
	Shape() []int

	// Floats reads the full dataset payload as row-major float64 values.
	Floats() ([]float64, error)
}
