package ports_test

import (
	"strings"
	"testing"

	"github.com/4chain-ag/go-seal-services/pkg/core/graph"
	"github.com/4chain-ag/go-seal-services/pkg/core/seal"
	"github.com/4chain-ag/go-seal-services/pkg/internal/testabilities"
	"github.com/4chain-ag/go-seal-services/pkg/server/internal/app"
	"github.com/4chain-ag/go-seal-services/pkg/server/internal/ports"
	"github.com/4chain-ag/go-seal-services/pkg/server/internal/ports/middleware"
	servertest "github.com/4chain-ag/go-seal-services/pkg/server/internal/testabilities"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

// transfer is a sender whose genesis seal was closed by a witness creating an
// endpoint the recipient defined. Both parties share the ledger.
type transfer struct {
	sender    *servertest.SealAPI
	recipient *servertest.SealAPI
	endpoint  seal.VoutSeal
	genesis   graph.SealID
	output    graph.SealID
}

func newTransfer(t *testing.T) *transfer {
	t.Helper()
	sender := servertest.NewSealAPI(t, nil)
	recipient := servertest.NewSealAPI(t, sender.Ledger)

	funding := testabilities.FundingTx(t, 1)
	sender.Ledger.Add(funding, true)
	endpoint := seal.NewVoutSeal(seal.MethodOpret, 0, 4711)

	tr := &transfer{
		sender:    sender,
		recipient: recipient,
		endpoint:  endpoint,
		genesis:   sender.Register(testabilities.Outpoint(funding, 0)),
		output:    sender.Register(endpoint),
	}

	witness := testabilities.SpendingTx(t, 1, testabilities.Outpoint(funding, 0))
	sender.Ledger.Add(witness, true)
	res, _ := sender.Admin().
		SetBody(ports.CloseSealsRequest{
			RawTx:     witness.Hex(),
			Claims:    []ports.ClaimRequest{{SealID: tr.genesis.String()}},
			Endpoints: []string{tr.output.String()},
		}).
		Post("/api/v1/witnesses")
	servertest.RequireStatus(t, fiber.StatusOK, res)
	return tr
}

func (tr *transfer) export(t *testing.T, format string) []byte {
	t.Helper()
	return tr.exportAs(t, format, "")
}

func (tr *transfer) exportAs(t *testing.T, format, typ string) []byte {
	t.Helper()
	res, _ := tr.sender.Admin().
		SetQueryParam(ports.FormatQueryParam, format).
		SetBody(ports.ExportConsignmentRequest{
			Type: typ,
			Assignments: []ports.AssignmentRequest{{SealID: tr.output.String(), State: []byte("100 units"), Disclosure: "concealed"}},
		}).
		Post("/api/v1/consignments/export")
	servertest.RequireStatus(t, fiber.StatusOK, res)
	return res.Body()
}

func (tr *transfer) revealEndpoint(t *testing.T) {
	t.Helper()
	var actual ports.ConcealSealResponse
	res, _ := tr.recipient.Admin().
		SetBody(ports.RevealMaterialRequest{Kind: "vout", Seal: tr.endpoint.String()}).
		SetResult(&actual).
		Post("/api/v1/consignments/reveals")
	servertest.RequireStatus(t, fiber.StatusCreated, res)
	require.Equal(t, tr.endpoint.Conceal().String(), actual.Secret)
}

func TestConsignmentHandler_ExportImport(t *testing.T) {
	tests := map[string]struct {
		format      string
		contentType string
	}{
		"binary": {
			format:      "binary",
			contentType: fiber.MIMEOctetStream,
		},
		"armor": {
			format:      "armor",
			contentType: ports.MIMEArmoredConsignment,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			// given:
			tr := newTransfer(t)
			tr.revealEndpoint(t)
			data := tr.export(t, tc.format)

			// when:
			var actual ports.ImportConsignmentResponse
			res, _ := tr.recipient.Client().R().
				SetHeader(fiber.HeaderContentType, tc.contentType).
				SetBody(data).
				SetResult(&actual).
				Post("/api/v1/consignments/import")

			// then:
			servertest.RequireStatus(t, fiber.StatusOK, res)
			require.True(t, strings.HasPrefix(actual.ID, "consign:"), actual.ID)
			require.Equal(t, "transfer", actual.Type)
			require.Len(t, actual.Terminals, 1)
			require.Empty(t, actual.Pending)
			require.Len(t, actual.Accepted, 1)
			require.Equal(t, "blind", actual.Accepted[0].Kind)
			require.Equal(t, []byte("100 units"), actual.Accepted[0].State)
			require.False(t, actual.Accepted[0].Closed)
		})
	}
}

func TestConsignmentHandler_Export_ShouldArmorWhenAsked(t *testing.T) {
	// given:
	tr := newTransfer(t)

	// when:
	data := tr.export(t, "armor")

	// then:
	require.True(t, strings.HasPrefix(string(data), "-----BEGIN "), string(data))
}

func TestConsignmentHandler_Export_ShouldMarkContractConsignment(t *testing.T) {
	// given:
	tr := newTransfer(t)
	tr.revealEndpoint(t)

	// when:
	data := tr.exportAs(t, "armor", "contract")

	// then:
	require.Contains(t, string(data), "Type: contract")

	var actual ports.ImportConsignmentResponse
	res, _ := tr.recipient.Client().R().
		SetHeader(fiber.HeaderContentType, ports.MIMEArmoredConsignment).
		SetBody(data).
		SetResult(&actual).
		Post("/api/v1/consignments/import")
	servertest.RequireStatus(t, fiber.StatusOK, res)
	require.Equal(t, "contract", actual.Type)
	require.Len(t, actual.Accepted, 1)
}

func TestConsignmentHandler_Import_ShouldKeepUnrevealedAssignmentsPending(t *testing.T) {
	// given:
	tr := newTransfer(t)
	data := tr.export(t, "binary")

	// when:
	var actual ports.ImportConsignmentResponse
	res, _ := tr.recipient.Client().R().
		SetHeader(fiber.HeaderContentType, fiber.MIMEOctetStream).
		SetBody(data).
		SetResult(&actual).
		Post("/api/v1/consignments/import")

	// then:
	servertest.RequireStatus(t, fiber.StatusOK, res)
	require.Empty(t, actual.Accepted)
	require.Len(t, actual.Pending, 1)
	require.Equal(t, tr.endpoint.Conceal().String(), actual.Pending[0].Seal)
	require.NotEmpty(t, actual.Pending[0].Reason)
}

func TestConsignmentHandler_InvalidCases(t *testing.T) {
	tests := map[string]struct {
		path             string
		contentType      string
		body             any
		expectedStatus   int
		expectedResponse ports.ErrorResponse
	}{
		"export without assignments": {
			path:             "/api/v1/consignments/export",
			contentType:      fiber.MIMEApplicationJSON,
			body:             ports.ExportConsignmentRequest{},
			expectedStatus:   fiber.StatusBadRequest,
			expectedResponse: ports.ErrorResponse{Message: app.NewEmptyAssignmentsError().Slug()},
		},
		"export with unknown disclosure": {
			path:        "/api/v1/consignments/export",
			contentType: fiber.MIMEApplicationJSON,
			body: ports.ExportConsignmentRequest{
				Assignments: []ports.AssignmentRequest{{SealID: "1", Disclosure: "partial"}},
			},
			expectedStatus:   fiber.StatusBadRequest,
			expectedResponse: ports.ErrorResponse{Message: app.NewInvalidDisclosureError(0, "partial").Slug()},
		},
		"export with unknown type": {
			path:        "/api/v1/consignments/export",
			contentType: fiber.MIMEApplicationJSON,
			body: ports.ExportConsignmentRequest{
				Type:        "bundle",
				Assignments: []ports.AssignmentRequest{{SealID: "1"}},
			},
			expectedStatus:   fiber.StatusBadRequest,
			expectedResponse: ports.ErrorResponse{Message: app.NewInvalidConsignmentTypeError("bundle").Slug()},
		},
		"export of unknown seal": {
			path:        "/api/v1/consignments/export",
			contentType: fiber.MIMEApplicationJSON,
			body: ports.ExportConsignmentRequest{
				Assignments: []ports.AssignmentRequest{{SealID: "9"}},
			},
			expectedStatus:   fiber.StatusNotFound,
			expectedResponse: ports.ErrorResponse{Message: "The requested seal does not exist."},
		},
		"import of empty octet-stream": {
			path:             "/api/v1/consignments/import",
			contentType:      fiber.MIMEOctetStream,
			body:             []byte{},
			expectedStatus:   fiber.StatusBadRequest,
			expectedResponse: ports.ErrorResponse{Message: middleware.NewEmptyRequestBodyError().Slug()},
		},
		"import of garbage": {
			path:             "/api/v1/consignments/import",
			contentType:      fiber.MIMEOctetStream,
			body:             []byte{0xde, 0xad, 0xbe, 0xef},
			expectedStatus:   fiber.StatusBadRequest,
			expectedResponse: ports.ErrorResponse{Message: "The consignment is malformed."},
		},
		"import of foreign armor": {
			path:             "/api/v1/consignments/import",
			contentType:      ports.MIMEArmoredConsignment,
			body:             []byte("-----BEGIN CERTIFICATE-----\nAAAA\n-----END CERTIFICATE-----\n"),
			expectedStatus:   fiber.StatusBadRequest,
			expectedResponse: ports.ErrorResponse{Message: "The consignment is malformed."},
		},
		"reveal material of outpoint": {
			path:             "/api/v1/consignments/reveals",
			contentType:      fiber.MIMEApplicationJSON,
			body:             ports.RevealMaterialRequest{Kind: "outpoint", Seal: testabilities.Outpoint(testabilities.FundingTx(t, 1), 0).String()},
			expectedStatus:   fiber.StatusBadRequest,
			expectedResponse: ports.ErrorResponse{Message: app.NewUnsupportedRevealKindError(seal.KindOutpoint).Slug()},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			// given:
			api := servertest.NewSealAPI(t, nil)

			// when:
			var actual ports.ErrorResponse
			res, _ := api.Admin().
				SetHeader(fiber.HeaderContentType, tc.contentType).
				SetBody(tc.body).
				SetError(&actual).
				Post(tc.path)

			// then:
			servertest.RequireStatus(t, tc.expectedStatus, res)
			require.Equal(t, tc.expectedResponse, actual)
		})
	}
}
