package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/stockroom/api/internal/platform/config"
	"github.com/stockroom/api/internal/platform/docnum"
	"github.com/stockroom/api/internal/platform/observability"
	"github.com/stockroom/api/internal/repositories"
	"github.com/stockroom/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	Orders        services.OrderService
	Invoices      services.InvoiceService
	Catalog       services.CatalogService
	Notifications services.NotificationService
	Audit         services.AuditLogService
}

// Container wires repositories, services, and background infrastructure for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
}

// Deps carries optional collaborators the container cannot build itself.
// Events is typically a Pub/Sub publisher owned by the caller; a nil value
// disables event emission without touching the services.
type Deps struct {
	Events services.EventPublisher
	Logger *zap.Logger
}

// NewContainer constructs the runtime dependencies. Production wiring provides the
// Firestore-backed registry, while tests can supply in-memory registries.
func NewContainer(ctx context.Context, cfg config.Config, reg repositories.Registry, deps Deps) (*Container, error) {
	if reg == nil {
		return nil, errors.New("repositories registry is required")
	}

	svc, err := buildServices(reg, cfg, deps)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Repositories: reg,
		Services:     svc,
	}, nil
}

// Close releases resources such as repository clients, background workers, or caches.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(reg repositories.Registry, cfg config.Config, deps Deps) (Services, error) {
	var svc Services

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logFn := services.LogFunc(observability.EventLogger(logger))

	auditSvc, err := services.NewAuditLogService(services.AuditLogServiceDeps{
		Repository: reg.AuditLogs(),
		Clock:      time.Now,
		Logger:     logger.Sugar(),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build audit log service: %w", err)
	}
	svc.Audit = auditSvc

	notificationSvc, err := services.NewNotificationService(services.NotificationServiceDeps{
		Registry: reg,
		Clock:    time.Now,
		Log:      logFn,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build notification service: %w", err)
	}
	svc.Notifications = notificationSvc

	var notifier services.NotificationService
	if cfg.Features.EnableNotifications {
		notifier = notificationSvc
	}

	catalogSvc, err := services.NewCatalogService(services.CatalogServiceDeps{
		Registry: reg,
		Audit:    auditSvc,
		Clock:    time.Now,
		Log:      logFn,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build catalog service: %w", err)
	}
	svc.Catalog = catalogSvc

	// Order and invoice numbers share one generator so both streams draw
	// from the same clock and entropy source.
	numbers := docnum.NewGenerator()

	orderSvc, err := services.NewOrderService(services.OrderServiceDeps{
		Registry:      reg,
		Numbers:       numbers,
		Audit:         auditSvc,
		Notifications: notifier,
		Events:        deps.Events,
		Clock:         time.Now,
		Log:           logFn,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build order service: %w", err)
	}
	svc.Orders = orderSvc

	invoiceSvc, err := services.NewInvoiceService(services.InvoiceServiceDeps{
		Registry:      reg,
		Numbers:       numbers,
		Audit:         auditSvc,
		Notifications: notifier,
		Events:        deps.Events,
		Clock:         time.Now,
		Log:           logFn,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build invoice service: %w", err)
	}
	svc.Invoices = invoiceSvc

	return svc, nil
}
