package services

import (
	"context"
	"time"

	domain "github.com/stockroom/api/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Pagination         = domain.Pagination
	Order              = domain.Order
	OrderItem          = domain.OrderItem
	OrderStatus        = domain.OrderStatus
	Product            = domain.Product
	RawMaterial        = domain.RawMaterial
	Warehouse          = domain.Warehouse
	Invoice            = domain.Invoice
	User               = domain.User
	Notification       = domain.Notification
	AuditLog           = domain.AuditLog
	SystemHealthReport = domain.SystemHealthReport
)

// LogFunc receives structured service events; observability wires it to the
// request-scoped logger.
type LogFunc func(ctx context.Context, event string, fields map[string]any)

// EventPublisher pushes domain events to the message bus, best effort.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event DomainEvent) (string, error)
}

// DomainEvent is the envelope published after committed mutations.
type DomainEvent struct {
	Type       string         `json:"type"`
	EntityType string         `json:"entityType"`
	EntityID   string         `json:"entityId"`
	ActorID    string         `json:"actorId,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// OrderService owns the order lifecycle: creation with stock reservation,
// validated status transitions and deletion with stock release.
type OrderService interface {
	Create(ctx context.Context, cmd CreateOrderCommand) (Order, error)
	Get(ctx context.Context, orderID string) (Order, error)
	List(ctx context.Context, filter OrderListFilter) (domain.CursorPage[Order], error)
	UpdateStatus(ctx context.Context, cmd UpdateOrderStatusCommand) (Order, error)
	Delete(ctx context.Context, cmd DeleteOrderCommand) error
}

// InvoiceService issues at most one invoice per order and tracks payment.
type InvoiceService interface {
	Create(ctx context.Context, cmd CreateInvoiceCommand) (Invoice, error)
	Get(ctx context.Context, invoiceID string) (Invoice, error)
	List(ctx context.Context, filter InvoiceListFilter) (domain.CursorPage[Invoice], error)
	Update(ctx context.Context, cmd UpdateInvoiceCommand) (Invoice, error)
	Delete(ctx context.Context, cmd DeleteInvoiceCommand) error
}

// CatalogService manages products and warehouses.
type CatalogService interface {
	CreateProduct(ctx context.Context, cmd UpsertProductCommand) (Product, error)
	UpdateProduct(ctx context.Context, cmd UpsertProductCommand) (Product, error)
	DeleteProduct(ctx context.Context, productID string, actorID string) error
	GetProduct(ctx context.Context, productID string) (Product, error)
	ListProducts(ctx context.Context, filter ProductListFilter) (domain.CursorPage[Product], error)

	CreateRawMaterial(ctx context.Context, cmd UpsertRawMaterialCommand) (RawMaterial, error)
	UpdateRawMaterial(ctx context.Context, cmd UpsertRawMaterialCommand) (RawMaterial, error)
	DeleteRawMaterial(ctx context.Context, materialID string, actorID string) error
	GetRawMaterial(ctx context.Context, materialID string) (RawMaterial, error)
	ListRawMaterials(ctx context.Context, filter RawMaterialListFilter) (domain.CursorPage[RawMaterial], error)

	CreateWarehouse(ctx context.Context, cmd UpsertWarehouseCommand) (Warehouse, error)
	UpdateWarehouse(ctx context.Context, cmd UpsertWarehouseCommand) (Warehouse, error)
	DeleteWarehouse(ctx context.Context, warehouseID string, actorID string) error
	GetWarehouse(ctx context.Context, warehouseID string) (Warehouse, error)
	ListWarehouses(ctx context.Context, pager Pagination) (domain.CursorPage[Warehouse], error)
}

// NotificationService fans notifications out to users and serves the in-app
// notification feed.
type NotificationService interface {
	NotifyAdmins(ctx context.Context, title string, message string) error
	ListForUser(ctx context.Context, userID string, filter NotificationListFilter) (domain.CursorPage[Notification], error)
	MarkRead(ctx context.Context, userID string, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
}

// AuditLogService records mutations after commit and serves the admin trail.
type AuditLogService interface {
	Record(ctx context.Context, record AuditLogRecord)
	List(ctx context.Context, filter AuditLogFilter) (domain.CursorPage[AuditLog], error)
}

// Command and filter DTOs ----------------------------------------------------

// CreateOrderCommand carries the caller intent for a new order.
type CreateOrderCommand struct {
	Customer string
	Items    []OrderLineInput
	ActorID  string
}

// OrderLineInput is one requested line; quantities must be positive.
type OrderLineInput struct {
	ProductID string
	Quantity  int
}

type UpdateOrderStatusCommand struct {
	OrderID string
	Status  string
	ActorID string
}

type DeleteOrderCommand struct {
	OrderID string
	ActorID string
}

type OrderListFilter struct {
	Customer   string
	Status     []string
	From       *time.Time
	To         *time.Time
	Pagination Pagination
}

type CreateInvoiceCommand struct {
	OrderID    string
	MarkAsPaid bool
	ActorID    string
}

type UpdateInvoiceCommand struct {
	InvoiceID  string
	MarkAsPaid bool
	ActorID    string
}

type DeleteInvoiceCommand struct {
	InvoiceID string
	ActorID   string
}

type InvoiceListFilter struct {
	OrderID    string
	Paid       *bool
	Pagination Pagination
}

// UpsertProductCommand carries product fields for create and update. ID is
// ignored on create and required on update.
type UpsertProductCommand struct {
	ID          string
	SKU         string
	Name        string
	Price       int64
	Quantity    int
	WarehouseID string
	Status      string
	ActorID     string
}

type ProductListFilter struct {
	WarehouseID string
	Status      []string
	Pagination  Pagination
}

// UpsertRawMaterialCommand carries raw material fields for create and update.
// ID is ignored on create and required on update. An empty Unit defaults to
// "pcs" on create.
type UpsertRawMaterialCommand struct {
	ID          string
	SKU         string
	Name        string
	Description string
	Unit        string
	Quantity    int
	ReorderAt   int
	Status      string
	ActorID     string
}

type RawMaterialListFilter struct {
	Status     []string
	Pagination Pagination
}

type UpsertWarehouseCommand struct {
	ID       string
	Name     string
	Location string
	ActorID  string
}

type NotificationListFilter struct {
	UnreadOnly bool
	Pagination Pagination
}

// AuditLogRecord is the write-side shape for one audit entry.
type AuditLogRecord struct {
	ActorID    string
	Action     domain.AuditAction
	EntityType string
	EntityID   string
	Details    map[string]any
	OccurredAt time.Time
}

type AuditLogFilter struct {
	EntityType string
	EntityID   string
	ActorID    string
	Action     string
	From       *time.Time
	To         *time.Time
	Pagination Pagination
}
