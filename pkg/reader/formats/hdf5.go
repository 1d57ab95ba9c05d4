package formats

import (
	"github.com/robert-malhotra/go-hdf5/hdf5"
	"go.uber.org/zap"

	"github.com/stratoseis/dasio/pkg/das"
	"github.com/stratoseis/dasio/pkg/errors"
	"github.com/stratoseis/dasio/pkg/logger"
	"github.com/stratoseis/dasio/pkg/reader"
)

func init() {
	reader.MustRegister(hdf5Reader{})
}

// hdf5Reader reads hierarchical containers. Four layouts are recognized,
// each detected from the root structure and read through its own chain
// table (see variants.go). The container is always re-opened by path:
// dispatch guarantees no codec layer sits in front of it.
type hdf5Reader struct{}

func (hdf5Reader) Tag() string { return "h5" }

func (hdf5Reader) Read(src *reader.Source, opts reader.Options) (*das.Section, []das.Diagnostic, error) {
	f, err := hdf5.Open(src.Path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, errors.ErrorTypeMalformedContainer,
			"open container %s", src.Path)
	}
	c := &h5Container{f: f}
	defer c.Close()
	return readContainer(c, opts)
}

// readContainer detects the container's layout and runs that variant's
// chains. It works against the capability interface, so in-memory
// containers read identically to file-backed ones.
func readContainer(c reader.Container, opts reader.Options) (*das.Section, []das.Diagnostic, error) {
	root := c.Root()
	for _, v := range h5Variants {
		anchor, ok := v.detect(root)
		if !ok {
			continue
		}
		logger.Debug("detected container layout",
			zap.String("variant", v.variant.String()))
		return v.read(root, anchor, opts)
	}
	return nil, nil, errors.Newf(errors.ErrorTypeMalformedContainer,
		"unrecognized container layout")
}

// h5Container adapts a go-hdf5 file to the container interface.
type h5Container struct {
	f *hdf5.File
}

func (c *h5Container) Root() reader.Node {
	return &h5Node{name: "/", group: c.f.Root()}
}

func (c *h5Container) Close() error {
	return c.f.Close()
}

// h5Node wraps one group or dataset. Exactly one of group and ds is set.
type h5Node struct {
	name  string
	group *hdf5.Group
	ds    *hdf5.Dataset
}

func (n *h5Node) Name() string { return n.name }

func (n *h5Node) AttrNames() []string {
	if n.ds != nil {
		return n.ds.Attrs()
	}
	return n.group.Attrs()
}

func (n *h5Node) Attr(name string) (interface{}, bool) {
	var a *hdf5.Attribute
	if n.ds != nil {
		a = n.ds.Attr(name)
	} else {
		a = n.group.Attr(name)
	}
	if a == nil {
		return nil, false
	}
	v, err := a.Value()
	if err != nil {
		return nil, false
	}
	return v, true
}

func (n *h5Node) Children() []string {
	if n.group == nil {
		return nil
	}
	names, err := n.group.Members()
	if err != nil {
		return nil
	}
	return names
}

func (n *h5Node) Child(name string) (reader.Node, error) {
	if n.group == nil {
		return nil, errors.Newf(errors.ErrorTypeMalformedContainer,
			"%s is a dataset, not a group", n.name)
	}
	if sub, err := n.group.OpenGroup(name); err == nil {
		return &h5Node{name: name, group: sub}, nil
	}
	ds, err := n.group.OpenDataset(name)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeMalformedContainer,
			"open member %q of %s", name, n.name)
	}
	return &h5Node{name: name, ds: ds}, nil
}

func (n *h5Node) IsDataset() bool { return n.ds != nil }

func (n *h5Node) Shape() []int {
	if n.ds == nil {
		return nil
	}
	dims := n.ds.Shape()
	out := make([]int, len(dims))
	for i, d := range dims {
		out[i] = int(d)
	}
	return out
}

func (n *h5Node) Floats() ([]float64, error) {
	if n.ds == nil {
		return nil, errors.Newf(errors.ErrorTypeMalformedContainer,
			"%s is a group, not a dataset", n.name)
	}
	vals, err := n.ds.ReadFloat64()
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeMalformedContainer,
			"read dataset %s", n.name)
	}
	return vals, nil
}
