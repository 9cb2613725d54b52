package firestore

import (
	"context"
	"errors"
	"fmt"

	pfirestore "github.com/stockroom/api/internal/platform/firestore"
	"github.com/stockroom/api/internal/repositories"
)

// Registry bundles the Firestore backed repositories behind the
// repositories.Registry contract.
type Registry struct {
	provider *pfirestore.Provider

	orders        *OrderRepository
	products      *ProductRepository
	invoices      *InvoiceRepository
	rawMaterials  *RawMaterialRepository
	warehouses    *WarehouseRepository
	users         *UserRepository
	notifications *NotificationRepository
	auditLogs     *AuditLogRepository
	health        repositories.HealthRepository
	uow           *UnitOfWork
}

var _ repositories.Registry = (*Registry)(nil)

// RegistryOption customises the registry construction.
type RegistryOption func(*Registry)

// WithHealthRepository overrides the default Firestore-only health probe set.
func WithHealthRepository(health repositories.HealthRepository) RegistryOption {
	return func(r *Registry) {
		if health != nil {
			r.health = health
		}
	}
}

// NewRegistry constructs every Firestore repository on the shared provider.
func NewRegistry(provider *pfirestore.Provider, opts ...RegistryOption) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("registry requires firestore provider")
	}

	reg := &Registry{provider: provider}

	var err error
	if reg.orders, err = NewOrderRepository(provider); err != nil {
		return nil, fmt.Errorf("build order repository: %w", err)
	}
	if reg.products, err = NewProductRepository(provider); err != nil {
		return nil, fmt.Errorf("build product repository: %w", err)
	}
	if reg.invoices, err = NewInvoiceRepository(provider); err != nil {
		return nil, fmt.Errorf("build invoice repository: %w", err)
	}
	if reg.rawMaterials, err = NewRawMaterialRepository(provider); err != nil {
		return nil, fmt.Errorf("build raw material repository: %w", err)
	}
	if reg.warehouses, err = NewWarehouseRepository(provider); err != nil {
		return nil, fmt.Errorf("build warehouse repository: %w", err)
	}
	if reg.users, err = NewUserRepository(provider); err != nil {
		return nil, fmt.Errorf("build user repository: %w", err)
	}
	if reg.notifications, err = NewNotificationRepository(provider); err != nil {
		return nil, fmt.Errorf("build notification repository: %w", err)
	}
	if reg.auditLogs, err = NewAuditLogRepository(provider); err != nil {
		return nil, fmt.Errorf("build audit log repository: %w", err)
	}
	if reg.uow, err = NewUnitOfWork(provider); err != nil {
		return nil, fmt.Errorf("build unit of work: %w", err)
	}

	for _, opt := range opts {
		if opt != nil {
			opt(reg)
		}
	}

	if reg.health == nil {
		health, err := repositories.NewDependencyHealthRepository([]repositories.DependencyCheck{
			{
				Name: "firestore",
				Check: func(ctx context.Context) error {
					_, err := provider.Client(ctx)
					return err
				},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("build health repository: %w", err)
		}
		reg.health = health
	}

	return reg, nil
}

// Close releases the underlying Firestore client.
func (r *Registry) Close(ctx context.Context) error {
	if r == nil || r.provider == nil {
		return nil
	}
	return r.provider.Close(ctx)
}

func (r *Registry) Orders() repositories.OrderRepository { return r.orders }

func (r *Registry) Products() repositories.ProductRepository { return r.products }

func (r *Registry) Invoices() repositories.InvoiceRepository { return r.invoices }

func (r *Registry) RawMaterials() repositories.RawMaterialRepository { return r.rawMaterials }

func (r *Registry) Warehouses() repositories.WarehouseRepository { return r.warehouses }

func (r *Registry) Users() repositories.UserRepository { return r.users }

func (r *Registry) Notifications() repositories.NotificationRepository { return r.notifications }

func (r *Registry) AuditLogs() repositories.AuditLogRepository { return r.auditLogs }

func (r *Registry) Health() repositories.HealthRepository { return r.health }

// RunInTx implements repositories.UnitOfWork.
func (r *Registry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if r == nil || r.uow == nil {
		return errors.New("registry not initialised")
	}
	return r.uow.RunInTx(ctx, fn)
}
