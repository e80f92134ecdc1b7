package middleware_test

import (
	"testing"

	"github.com/4chain-ag/go-seal-services/pkg/server/internal/ports"
	servertest "github.com/4chain-ag/go-seal-services/pkg/server/internal/testabilities"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestBearerTokenAuthorizationMiddleware_ShouldPassValidToken(t *testing.T) {
	// given:
	api := servertest.NewSealAPI(t, nil)

	// when:
	var actual ports.ErrorResponse
	res, _ := api.Admin().
		SetBody(ports.RegisterSealRequest{Scope: "alice", Kind: "vout", Seal: "opret:~:0#1"}).
		SetError(&actual).
		Post("/api/v1/seals")

	// then:
	servertest.RequireStatus(t, fiber.StatusCreated, res)
	require.Empty(t, actual.Message)
}
