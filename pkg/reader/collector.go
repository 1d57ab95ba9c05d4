package reader

import (
	"go.uber.org/zap"

	"github.com/stratoseis/dasio/pkg/logger"
)

// CollectHeaders recursively harvests the ancillary attributes of a
// hierarchical container into an opaque nested map. Each visited node
// contributes its attributes under the key "attrs" and one nested map per
// non-dataset child; dataset leaves are skipped by type, never by name,
// and empty sub-maps are omitted.
//
// The walk is best-effort: a branch that cannot be opened or read is
// dropped with a debug log and the harvest continues. Sample data is never
// touched.
func CollectHeaders(n Node) map[string]interface{} {
	headers := make(map[string]interface{})

	attrs := make(map[string]interface{})
	for _, name := range n.AttrNames() {
		v, ok := n.Attr(name)
		if !ok {
			continue
		}
		attrs[name] = v
	}
	if len(attrs) > 0 {
		headers["attrs"] = attrs
	}

	for _, name := range n.Children() {
		child, err := n.Child(name)
		if err != nil {
			logger.Debug("skipping unreadable header branch",
				zap.String("member", name), zap.Error(err))
			continue
		}
		if child.IsDataset() {
			continue
		}
		if sub := CollectHeaders(child); len(sub) > 0 {
			headers[name] = sub
		}
	}
	return headers
}
