// Package monolith provides the application container and module interface.
package monolith

import (
	"context"

	"github.com/fd1az/cycle-arb/internal/config"
	"github.com/fd1az/cycle-arb/internal/di"
	"github.com/fd1az/cycle-arb/internal/health"
	"github.com/fd1az/cycle-arb/internal/logger"
)

// Monolith is the main application container providing access to shared infrastructure.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	Health() *health.Server
	Services() di.ServiceRegistry
}

// Module represents a bounded context module that can register services and start up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

// Closer is implemented by modules holding connections that must be released
// on shutdown.
type Closer interface {
	Close(context.Context) error
}

type app struct {
	config    *config.Config
	logger    logger.LoggerInterface
	health    *health.Server
	container di.Container
	modules   []Module
}

// New creates a new Monolith instance.
func New(cfg *config.Config, log logger.LoggerInterface, hs *health.Server) *app {
	container := di.NewContainer()

	container.Register("config", cfg)
	container.Register("logger", log)
	container.Register("health", hs)

	return &app{
		config:    cfg,
		logger:    log,
		health:    hs,
		container: container,
	}
}

func (a *app) Config() *config.Config {
	return a.config
}

func (a *app) Logger() logger.LoggerInterface {
	return a.logger
}

func (a *app) Health() *health.Server {
	return a.health
}

func (a *app) Services() di.ServiceRegistry {
	return a.container
}

// Container returns the DI container for module registration.
func (a *app) Container() di.Container {
	return a.container
}

// RegisterModules registers all provided modules.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
		a.modules = append(a.modules, m)
	}
	return nil
}

// StartModules starts all provided modules.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Close releases module resources in reverse registration order.
func (a *app) Close(ctx context.Context) error {
	var firstErr error
	for i := len(a.modules) - 1; i >= 0; i-- {
		c, ok := a.modules[i].(Closer)
		if !ok {
			continue
		}
		if err := c.Close(ctx); err != nil {
			a.logger.Warn(ctx, "module close failed", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
