package adapters

import (
	"context"
	"log/slog"

	"github.com/4chain-ag/go-seal-services/pkg/core/consignment"
)

// AcceptAllCoreValidator accepts every revealed assignment. The service does
// not interpret state payloads; contract rules belong to the consumer of the
// import report.
type AcceptAllCoreValidator struct{}

// ValidateAssignments implements consignment.CoreValidator.
func (AcceptAllCoreValidator) ValidateAssignments(_ context.Context, assignments []consignment.RevealedAssignment) error {
	slog.Debug("assignments accepted without contract validation", "count", len(assignments))
	return nil
}
