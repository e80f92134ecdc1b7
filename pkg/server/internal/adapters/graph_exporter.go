package adapters

import (
	"context"

	"github.com/4chain-ag/go-seal-services/pkg/core/consignment"
	"github.com/4chain-ag/go-seal-services/pkg/core/graph"
)

// GraphExporter exports consignments from a seal graph.
type GraphExporter struct {
	graph *graph.Graph
}

// NewGraphExporter returns a GraphExporter over g. Panics if g is nil.
func NewGraphExporter(g *graph.Graph) *GraphExporter {
	if g == nil {
		panic("seal graph cannot be nil")
	}
	return &GraphExporter{graph: g}
}

// Export implements app.ConsignmentExporter.
func (e *GraphExporter) Export(ctx context.Context, assignments []consignment.Assignment, opts ...consignment.ExportOption) (*consignment.Consignment, error) {
	return consignment.Export(ctx, e.graph, assignments, opts...)
}
