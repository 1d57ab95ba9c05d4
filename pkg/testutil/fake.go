package testutil

import (
	"fmt"

	"github.com/stratoseis/dasio/pkg/reader"
)

// FakeContainer is an in-memory reader.Container. Close is recorded so
// tests can assert the handle is released on every exit path.
type FakeContainer struct {
	RootNode *FakeNode
	Closed   bool
}

// Root returns the container's root node.
func (c *FakeContainer) Root() reader.Node { return c.RootNode }

// Close marks the container released.
func (c *FakeContainer) Close() error {
	c.Closed = true
	return nil
}

// FakeNode is an in-memory reader.Node. Groups carry members, datasets
// carry a shape and a row-major payload. Read failures can be injected per
// member or on the payload itself.
type FakeNode struct {
	NodeName string
	Attrs    map[string]interface{}
	Members  []*FakeNode
	Dataset  bool
	Dims     []int
	Values   []float64

	// FloatsErr fails payload reads when set.
	FloatsErr error
	// BrokenMembers fails Child for the named members.
	BrokenMembers map[string]bool

	// FloatsCalls counts payload reads, letting tests assert that
	// metadata-only paths never touch sample storage.
	FloatsCalls int
}

// Group builds a group node.
func Group(name string, attrs map[string]interface{}, members ...*FakeNode) *FakeNode {
	return &FakeNode{NodeName: name, Attrs: attrs, Members: members}
}

// Dataset builds a dataset leaf with a row-major float64 payload.
func Dataset(name string, dims []int, values []float64) *FakeNode {
	return &FakeNode{NodeName: name, Dataset: true, Dims: dims, Values: values}
}

// DatasetWithAttrs builds a dataset leaf carrying attributes.
func DatasetWithAttrs(name string, attrs map[string]interface{}, dims []int, values []float64) *FakeNode {
	n := Dataset(name, dims, values)
	n.Attrs = attrs
	return n
}

func (n *FakeNode) Name() string { return n.NodeName }

func (n *FakeNode) AttrNames() []string {
	names := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		names = append(names, k)
	}
	return names
}

func (n *FakeNode) Attr(name string) (interface{}, bool) {
	v, ok := n.Attrs[name]
	return v, ok
}

func (n *FakeNode) Children() []string {
	names := make([]string, len(n.Members))
	for i, m := range n.Members {
		names[i] = m.NodeName
	}
	return names
}

func (n *FakeNode) Child(name string) (reader.Node, error) {
	if n.BrokenMembers[name] {
		return nil, fmt.Errorf("member %s unreadable", name)
	}
	for _, m := range n.Members {
		if m.NodeName == name {
			return m, nil
		}
	}
	return nil, fmt.Errorf("no member %s", name)
}

func (n *FakeNode) IsDataset() bool { return n.Dataset }

func (n *FakeNode) Shape() []int { return n.Dims }

func (n *FakeNode) Floats() ([]float64, error) {
	n.FloatsCalls++
	if n.FloatsErr != nil {
		return nil, n.FloatsErr
	}
	if !n.Dataset {
		return nil, fmt.Errorf("%s is not a dataset", n.NodeName)
	}
	return n.Values, nil
}

// TotalFloatsCalls sums payload reads across the whole tree.
func (n *FakeNode) TotalFloatsCalls() int {
	total := n.FloatsCalls
	for _, m := range n.Members {
		total += m.TotalFloatsCalls()
	}
	return total
}
