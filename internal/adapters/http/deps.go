package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/pinpoint/internal/core/usecases"
)

// Pinger is a backing service that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Locator *usecases.LocateService
	NATS    *nats.Conn
	DB      Pinger
	Cache   Pinger
	// DocsPath is the OpenAPI document served at /docs/openapi.yaml.
	DocsPath string
}
