package ports

import (
	"time"

	"github.com/4chain-ag/go-seal-services/pkg/core/consignment"
	"github.com/4chain-ag/go-seal-services/pkg/core/graph"
	"github.com/4chain-ag/go-seal-services/pkg/core/seal"
	"github.com/bsv-blockchain/go-sdk/chainhash"
)

// RegisterSealRequest is the body of POST /api/v1/seals.
type RegisterSealRequest struct {
	Scope string `json:"scope"`
	Kind  string `json:"kind"`
	Seal  string `json:"seal"`
}

// RegisterSealResponse carries the id of a registered seal.
type RegisterSealResponse struct {
	ID string `json:"id"`
}

// SealResponse describes a seal record.
type SealResponse struct {
	ID         string    `json:"id"`
	Scope      string    `json:"scope"`
	Kind       string    `json:"kind"`
	Seal       string    `json:"seal"`
	Privacy    string    `json:"privacy"`
	Commitment string    `json:"commitment,omitempty"`
	Closed     bool      `json:"closed"`
	ClosedBy   string    `json:"closed_by,omitempty"`
	CreatedBy  string    `json:"created_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// SealIDsResponse lists seal ids.
type SealIDsResponse struct {
	IDs []string `json:"ids"`
}

// ConcealSealResponse carries the concealed form of a seal.
type ConcealSealResponse struct {
	Secret string `json:"secret"`
}

// AnchorSealRequest is the body of POST /api/v1/seals/:id/anchor.
type AnchorSealRequest struct {
	Txid string `json:"txid"`
}

// AnchorSealResponse carries the anchored seal.
type AnchorSealResponse struct {
	Kind string `json:"kind"`
	Seal string `json:"seal"`
}

// ClaimRequest names a seal closed by a witness.
type ClaimRequest struct {
	SealID string `json:"seal_id"`
	Reveal string `json:"reveal,omitempty"`
}

// CloseSealsRequest is the body of POST /api/v1/witnesses.
type CloseSealsRequest struct {
	RawTx     string         `json:"raw_tx"`
	Claims    []ClaimRequest `json:"claims"`
	Endpoints []string       `json:"endpoints"`
}

// WitnessResponse describes a witness record.
type WitnessResponse struct {
	Txid      string   `json:"txid"`
	Confirmed bool     `json:"confirmed"`
	Closes    []string `json:"closes"`
	Creates   []string `json:"creates"`
}

// AssignmentRequest is one assignment of an export request.
type AssignmentRequest struct {
	SealID     string `json:"seal_id"`
	State      []byte `json:"state"`
	Disclosure string `json:"disclosure,omitempty"`
}

// ExportConsignmentRequest is the body of POST /api/v1/consignments/export.
type ExportConsignmentRequest struct {
	Type        string              `json:"type,omitempty"`
	Assignments []AssignmentRequest `json:"assignments"`
}

// RevealMaterialRequest is the body of POST /api/v1/consignments/reveals.
type RevealMaterialRequest struct {
	Kind string `json:"kind"`
	Seal string `json:"seal"`
}

// AcceptedAssignmentResponse is an assignment whose seal was verified.
type AcceptedAssignmentResponse struct {
	Index    int    `json:"index"`
	Kind     string `json:"kind"`
	Seal     string `json:"seal"`
	Outpoint string `json:"outpoint"`
	State    []byte `json:"state"`
	Closed   bool   `json:"closed"`
}

// PendingAssignmentResponse is an assignment whose seal stays concealed.
type PendingAssignmentResponse struct {
	Index  int    `json:"index"`
	Kind   string `json:"kind"`
	Seal   string `json:"seal"`
	State  []byte `json:"state"`
	Reason string `json:"reason"`
}

// ImportConsignmentResponse is the verification report of a consignment.
type ImportConsignmentResponse struct {
	ID        string                       `json:"id"`
	Type      string                       `json:"type"`
	Terminals []string                     `json:"terminals"`
	Accepted  []AcceptedAssignmentResponse `json:"accepted"`
	Pending   []PendingAssignmentResponse  `json:"pending"`
}

// NewSealResponse maps a seal record.
func NewSealResponse(r *graph.Record) SealResponse {
	res := SealResponse{
		ID:        r.ID.String(),
		Scope:     r.Scope,
		Kind:      r.Seal.Kind().String(),
		Seal:      r.Seal.String(),
		Privacy:   seal.PrivacyClassOf(r.Seal).String(),
		Closed:    r.Closed,
		ClosedBy:  hashString(r.ClosedBy),
		CreatedBy: hashString(r.CreatedBy),
		CreatedAt: r.CreatedAt.UTC(),
	}
	if secret, err := r.Secret(); err == nil {
		res.Commitment = secret.String()
	}
	return res
}

// NewSealIDsResponse maps a list of seal ids.
func NewSealIDsResponse(ids []graph.SealID) SealIDsResponse {
	return SealIDsResponse{IDs: sealIDStrings(ids)}
}

// NewWitnessResponse maps a witness record.
func NewWitnessResponse(w *graph.Witness) WitnessResponse {
	return WitnessResponse{
		Txid:      w.Txid.String(),
		Confirmed: w.Confirmed,
		Closes:    sealIDStrings(w.Closes),
		Creates:   sealIDStrings(w.Creates),
	}
}

// NewImportConsignmentResponse maps an import report.
func NewImportConsignmentResponse(r *consignment.Report) ImportConsignmentResponse {
	res := ImportConsignmentResponse{
		ID:        r.ID.String(),
		Type:      consignment.TypeContract,
		Terminals: sealIDStrings(r.Terminals),
		Accepted:  make([]AcceptedAssignmentResponse, 0, len(r.Accepted)),
		Pending:   make([]PendingAssignmentResponse, 0, len(r.Pending)),
	}
	if r.Transfer {
		res.Type = consignment.TypeTransfer
	}
	for _, a := range r.Accepted {
		res.Accepted = append(res.Accepted, AcceptedAssignmentResponse{
			Index:    a.Index,
			Kind:     a.Seal.Kind().String(),
			Seal:     a.Seal.String(),
			Outpoint: a.Outpoint.String(),
			State:    a.State,
			Closed:   a.Closed,
		})
	}
	for _, p := range r.Pending {
		pending := PendingAssignmentResponse{
			Index: p.Index,
			Kind:  p.Seal.Kind().String(),
			Seal:  p.Seal.String(),
			State: p.State,
		}
		if p.Reason != nil {
			pending.Reason = p.Reason.Error()
		}
		res.Pending = append(res.Pending, pending)
	}
	return res
}

func sealIDStrings(ids []graph.SealID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

func hashString(h *chainhash.Hash) string {
	if h == nil {
		return ""
	}
	return h.String()
}
