// context.go defines the Context through which extensions reach the open
// store.
//
// Extensions receive Context during Init(), not at construction, because
// they register before the service exists.

package extension

import (
	"log/slog"

	"github.com/jpl-au/docstore/internal/config"
	"github.com/jpl-au/docstore/internal/service"
)

// Context provides extensions controlled access to docstore internals.
type Context interface {
	// Service returns the record service.
	Service() service.Service

	// Config returns the loaded project configuration.
	Config() *config.Config

	// Logger returns the diagnostics logger.
	Logger() *slog.Logger
}

type extContext struct {
	svc    service.Service
	cfg    *config.Config
	logger *slog.Logger
}

// NewContext creates a new extension context. A nil logger discards.
func NewContext(svc service.Service, cfg *config.Config, logger *slog.Logger) Context {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &extContext{svc: svc, cfg: cfg, logger: logger}
}

func (c *extContext) Service() service.Service { return c.svc }

func (c *extContext) Config() *config.Config { return c.cfg }

func (c *extContext) Logger() *slog.Logger { return c.logger }
