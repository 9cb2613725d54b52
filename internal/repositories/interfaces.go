package repositories

import (
	"context"
	"time"

	domain "github.com/stockroom/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Orders() OrderRepository
	Products() ProductRepository
	Invoices() InvoiceRepository
	RawMaterials() RawMaterialRepository
	Warehouses() WarehouseRepository
	Users() UserRepository
	Notifications() NotificationRepository
	AuditLogs() AuditLogRepository
	Health() HealthRepository
	UnitOfWork
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork groups repository operations in a single transactional boundary.
// Repositories invoked with the context passed to fn route their reads and
// writes through the shared transaction.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// OrderRepository persists order headers together with their owned line items.
type OrderRepository interface {
	// Insert stores the order and claims its order number. A claimed number
	// surfaces as a unique violation when the enclosing transaction commits.
	Insert(ctx context.Context, order domain.Order) error
	Update(ctx context.Context, order domain.Order) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) (domain.CursorPage[domain.Order], error)
	// Delete removes the order document and releases its order number.
	Delete(ctx context.Context, orderID string, orderNumber string) error
}

// ProductRepository owns the product catalogue including on-hand stock counts.
type ProductRepository interface {
	Insert(ctx context.Context, product domain.Product) error
	Update(ctx context.Context, product domain.Product) error
	Delete(ctx context.Context, productID string, sku string) error
	FindByID(ctx context.Context, productID string) (domain.Product, error)
	// FindByIDs returns the products that exist; missing ids are simply
	// absent from the result and callers detect them by comparison.
	FindByIDs(ctx context.Context, productIDs []string) ([]domain.Product, error)
	List(ctx context.Context, filter ProductListFilter) (domain.CursorPage[domain.Product], error)
	// DecrementStock and IncrementStock apply an atomic delta to the on-hand
	// quantity. They never read the document; sufficiency is checked by the
	// caller inside the same transaction before any write is issued.
	DecrementStock(ctx context.Context, productID string, quantity int) error
	IncrementStock(ctx context.Context, productID string, quantity int) error
}

// InvoiceRepository persists invoices with a one-invoice-per-order guarantee.
type InvoiceRepository interface {
	// Insert stores the invoice, claims its invoice number and links it to
	// its order. A second invoice for the same order fails with
	// InvoiceExistsError during the transaction read phase.
	Insert(ctx context.Context, invoice domain.Invoice) error
	FindByID(ctx context.Context, invoiceID string) (domain.Invoice, error)
	FindByOrderID(ctx context.Context, orderID string) (domain.Invoice, error)
	// SetPaid toggles the paid timestamp; nil reverts the invoice to unpaid.
	SetPaid(ctx context.Context, invoiceID string, paidAt *time.Time) (domain.Invoice, error)
	List(ctx context.Context, filter InvoiceListFilter) (domain.CursorPage[domain.Invoice], error)
	// Delete removes the invoice, releases its number and unlinks the order.
	Delete(ctx context.Context, invoiceID string, invoiceNumber string, orderID string) error
}

// RawMaterialRepository stores production inputs tracked alongside the
// sellable catalogue.
type RawMaterialRepository interface {
	// Insert stores the raw material and claims its SKU in one transaction.
	Insert(ctx context.Context, material domain.RawMaterial) error
	Update(ctx context.Context, material domain.RawMaterial) error
	Delete(ctx context.Context, materialID string, sku string) error
	FindByID(ctx context.Context, materialID string) (domain.RawMaterial, error)
	List(ctx context.Context, filter RawMaterialListFilter) (domain.CursorPage[domain.RawMaterial], error)
}

// WarehouseRepository stores warehouse locations.
type WarehouseRepository interface {
	Insert(ctx context.Context, warehouse domain.Warehouse) error
	Update(ctx context.Context, warehouse domain.Warehouse) error
	Delete(ctx context.Context, warehouseID string) error
	FindByID(ctx context.Context, warehouseID string) (domain.Warehouse, error)
	List(ctx context.Context, pager domain.Pagination) (domain.CursorPage[domain.Warehouse], error)
}

// UserRepository reads the account store; accounts are managed elsewhere.
type UserRepository interface {
	FindByID(ctx context.Context, userID string) (domain.User, error)
	// ListAdminIDs resolves the recipients for admin-wide notifications.
	ListAdminIDs(ctx context.Context) ([]string, error)
}

// NotificationRepository stores in-app notifications per user.
type NotificationRepository interface {
	Insert(ctx context.Context, notification domain.Notification) error
	ListForUser(ctx context.Context, userID string, filter NotificationListFilter) (domain.CursorPage[domain.Notification], error)
	MarkRead(ctx context.Context, userID string, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
}

// AuditLogRepository persists immutable audit trail entries.
type AuditLogRepository interface {
	Append(ctx context.Context, entry domain.AuditLog) error
	List(ctx context.Context, filter AuditLogFilter) (domain.CursorPage[domain.AuditLog], error)
}

// HealthRepository exposes status of downstream dependencies for health checks.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}

// Filter DTOs shared across repositories ------------------------------------

type OrderListFilter struct {
	Customer   string
	Status     []domain.OrderStatus
	DateRange  domain.RangeQuery[time.Time]
	Pagination domain.Pagination
}

type ProductListFilter struct {
	WarehouseID string
	Status      []domain.ProductStatus
	Pagination  domain.Pagination
}

type InvoiceListFilter struct {
	OrderID    string
	Paid       *bool
	Pagination domain.Pagination
}

type RawMaterialListFilter struct {
	Status     []domain.RawMaterialStatus
	Pagination domain.Pagination
}

type NotificationListFilter struct {
	UnreadOnly bool
	Pagination domain.Pagination
}

type AuditLogFilter struct {
	EntityType string
	EntityID   string
	ActorID    string
	Action     string
	DateRange  domain.RangeQuery[time.Time]
	Pagination domain.Pagination
}
