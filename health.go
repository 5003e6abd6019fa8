package docpress

import (
	"context"

	"github.com/alnah/go-docpress/internal/toolchain"
)

// ToolInfo describes an installed external tool.
type ToolInfo = toolchain.ToolInfo

// Health reports the external tools a Pipeline depends on.
type Health struct {
	Converter ToolInfo `json:"converter"`
	Compiler  ToolInfo `json:"compiler"`
}

// OK reports whether both tools were found and answered a version query.
func (h Health) OK() bool {
	return usable(h.Converter) && usable(h.Compiler)
}

func usable(t ToolInfo) bool {
	return t.Found && t.Error == ""
}

// Health probes pandoc and typst.
func (p *Pipeline) Health(ctx context.Context) Health {
	return Health{
		Converter: toolchain.Probe(ctx, p.pandoc.Bin, p.pandoc),
		Compiler:  toolchain.Probe(ctx, p.typst.Bin, p.typst),
	}
}
