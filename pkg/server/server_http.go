// Package server exposes the seal graph and the consignment codec over HTTP.
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/4chain-ag/go-seal-services/pkg/core/consignment"
	"github.com/4chain-ag/go-seal-services/pkg/core/graph"
	"github.com/4chain-ag/go-seal-services/pkg/core/graph/closing"
	"github.com/4chain-ag/go-seal-services/pkg/core/graph/storage"
	"github.com/4chain-ag/go-seal-services/pkg/ledger"
	"github.com/4chain-ag/go-seal-services/pkg/server/internal/adapters"
	"github.com/4chain-ag/go-seal-services/pkg/server/internal/app"
	"github.com/4chain-ag/go-seal-services/pkg/server/internal/ports"
	"github.com/4chain-ag/go-seal-services/pkg/server/internal/ports/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Config holds the configuration settings for the HTTP server
type Config struct {
	// AppName is the name of the application.
	AppName string `mapstructure:"app_name"`

	// Port is the TCP port on which the server will listen.
	Port int `mapstructure:"port"`

	// Addr is the address the server will bind to.
	Addr string `mapstructure:"addr"`

	// ServerHeader is the value of the Server header returned in HTTP responses.
	ServerHeader string `mapstructure:"server_header"`

	// AdminBearerToken is the token required to access admin-only endpoints.
	AdminBearerToken string `mapstructure:"admin_bearer_token"`

	// OctetStreamLimit defines the maximum allowed size of octet-stream bodies in bytes.
	OctetStreamLimit int64 `mapstructure:"octet_stream_limit"`

	// ConnectionReadTimeout defines the maximum duration an active connection is allowed to stay open.
	ConnectionReadTimeout time.Duration `mapstructure:"connection_read_timeout_limit"`
}

// DefaultConfig provides a default configuration with reasonable values for
// local development. Every call generates a new admin token.
func DefaultConfig() Config {
	return Config{
		AppName:               "Seal API v0.0.0",
		Port:                  3000,
		Addr:                  "localhost",
		ServerHeader:          "Seal API",
		AdminBearerToken:      uuid.NewString(),
		OctetStreamLimit:      middleware.ReadBodyLimit64MB,
		ConnectionReadTimeout: 10 * time.Second,
	}
}

// ServerOption defines a functional option for configuring an HTTP server.
type ServerOption func(*ServerHTTP)

// WithMiddleware adds a Fiber middleware handler applied before the built-in group.
func WithMiddleware(f fiber.Handler) ServerOption {
	return func(s *ServerHTTP) {
		s.middleware = append(s.middleware, f)
	}
}

// WithGraph sets the seal graph served by the HTTP server. Witness
// transactions are resolved with the ledger of the graph's validator.
func WithGraph(g *graph.Graph) ServerOption {
	return func(s *ServerHTTP) {
		s.graph = g
	}
}

// WithImporter sets the verifier used for received consignments.
func WithImporter(importer app.ConsignmentImporter) ServerOption {
	return func(s *ServerHTTP) {
		s.importer = importer
	}
}

// WithRevealBook sets the book holding reveal material of seals this party
// handed out concealed. The importer built by default reads from it.
func WithRevealBook(book *consignment.MemoryRevealBook) ServerOption {
	return func(s *ServerHTTP) {
		s.book = book
	}
}

// WithAdminBearerToken sets the admin bearer token used for authenticating
// admin routes on the HTTP server.
func WithAdminBearerToken(token string) ServerOption {
	return func(s *ServerHTTP) {
		s.cfg.AdminBearerToken = token
	}
}

// WithOctetStreamLimit sets the maximum allowed size (in bytes) of requests
// with Content-Type: application/octet-stream.
func WithOctetStreamLimit(limit int64) ServerOption {
	return func(s *ServerHTTP) {
		s.cfg.OctetStreamLimit = limit
	}
}

// WithConfig sets the configuration for the HTTP server using the provided Config.
func WithConfig(cfg Config) ServerOption {
	return func(s *ServerHTTP) {
		s.cfg = cfg
	}
}

// ServerHTTP represents the HTTP server instance, including configuration,
// Fiber app instance, middleware stack and the services behind the routes.
type ServerHTTP struct {
	cfg        Config
	app        *fiber.App
	middleware []fiber.Handler
	graph      *graph.Graph
	importer   app.ConsignmentImporter
	book       *consignment.MemoryRevealBook
}

// SocketAddr builds the address string for binding.
func (s *ServerHTTP) SocketAddr() string {
	return fmt.Sprintf("%s:%d", s.cfg.Addr, s.cfg.Port)
}

// ListenAndServe starts the HTTP server and begins listening on the configured socket address.
// It blocks until the server is stopped or an error occurs.
func (s *ServerHTTP) ListenAndServe(ctx context.Context) error {
	return s.app.Listen(s.SocketAddr())
}

// Shutdown gracefully shuts down the HTTP server using the provided context,
// allowing ongoing requests to complete within the context's deadline.
func (s *ServerHTTP) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// New creates and configures a new instance of ServerHTTP. Without
// WithGraph the server runs over an in-memory graph and ledger; without
// WithImporter consignments are verified against the graph's ledger and the
// reveal book, accepting every revealed assignment.
func New(opts ...ServerOption) *ServerHTTP {
	srv := &ServerHTTP{cfg: DefaultConfig()}
	for _, o := range opts {
		o(srv)
	}

	if srv.graph == nil {
		srv.graph = graph.New(storage.NewMemory(), closing.NewValidator(ledger.NewMemory(), closing.Config{}))
	}
	if srv.book == nil {
		srv.book = consignment.NewRevealBook()
	}
	validator := srv.graph.Validator()
	if srv.importer == nil {
		srv.importer = consignment.NewImporter(validator.Ledger(), srv.book, adapters.AcceptAllCoreValidator{}, validator.Config())
	}

	srv.app = newFiberApp(srv.cfg)
	for _, m := range srv.middleware {
		srv.app.Use(m)
	}
	for _, m := range middleware.BasicMiddlewareGroup(middleware.BasicMiddlewareGroupConfig{
		EnableStackTrace: true,
		OctetStreamLimit: srv.cfg.OctetStreamLimit,
	}) {
		srv.app.Use(m)
	}

	registry := ports.NewHandlerRegistryService(
		app.NewSealService(srv.graph),
		app.NewWitnessService(srv.graph, validator.Ledger()),
		app.NewConsignmentService(adapters.NewGraphExporter(srv.graph), srv.importer, srv.book),
	)
	registry.RegisterRoutes(srv.app, middleware.BearerTokenAuthorizationMiddleware(srv.cfg.AdminBearerToken))

	return srv
}

// newFiberApp creates and returns a new instance of a fiber.App with the provided configuration.
// The app is configured with case-sensitive routing, strict routing, custom server headers, and read timeout settings.
func newFiberApp(cfg Config) *fiber.App {
	return fiber.New(fiber.Config{
		CaseSensitive: true,
		StrictRouting: true,
		ServerHeader:  cfg.ServerHeader,
		AppName:       cfg.AppName,
		ReadTimeout:   cfg.ConnectionReadTimeout,
		BodyLimit:     int(cfg.OctetStreamLimit) + 1,
		ErrorHandler:  ports.ErrorHandler(),
	})
}
