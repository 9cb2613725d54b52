package domain

import (
	"time"
)

// Pagination defines standard cursor-based paging inputs for list operations.
type Pagination struct {
	PageSize  int
	PageToken string
}

// SortOrder indicates ascending or descending ordering for list queries.
type SortOrder string

const (
	// SortAsc sorts results in ascending order.
	SortAsc SortOrder = "asc"
	// SortDesc sorts results in descending order.
	SortDesc SortOrder = "desc"
)

// RangeQuery represents inclusive range filters for numeric or timestamp fields.
type RangeQuery[T comparable] struct {
	From *T
	To   *T
}

// OrderStatus enumerates valid lifecycle states for orders.
type OrderStatus string

const (
	// OrderStatusPending indicates the order has been created and stock is reserved.
	OrderStatusPending OrderStatus = "PENDING"
	// OrderStatusProcessing indicates the order is being picked and packed.
	OrderStatusProcessing OrderStatus = "PROCESSING"
	// OrderStatusShipped indicates the order has left the warehouse.
	OrderStatusShipped OrderStatus = "SHIPPED"
	// OrderStatusDelivered indicates the order reached the customer. Terminal.
	OrderStatusDelivered OrderStatus = "DELIVERED"
	// OrderStatusCancelled indicates the order was cancelled and its stock released. Terminal.
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Order captures an order header together with its owned line items.
//
// Total is computed once at creation from the item snapshots and never
// recomputed afterwards; cancellations do not alter it.
type Order struct {
	ID          string
	OrderNumber string
	Customer    string
	Status      OrderStatus
	Total       int64
	Items       []OrderItem
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OrderItem is a single line of an order. UnitPrice is a snapshot of the
// product price at order-creation time and is immutable afterwards.
type OrderItem struct {
	ID        string
	ProductID string
	Quantity  int
	UnitPrice int64
}

// ProductStatus enumerates catalogue availability states.
type ProductStatus string

const (
	// ProductStatusActive marks a product as orderable.
	ProductStatusActive ProductStatus = "ACTIVE"
	// ProductStatusInactive marks a product as hidden from ordering.
	ProductStatusInactive ProductStatus = "INACTIVE"
)

// Product is a stock-keeping unit held in a warehouse. Quantity is the
// on-hand count and is the only mutable field contended by concurrent
// order operations.
type Product struct {
	ID          string
	SKU         string
	Name        string
	Price       int64
	Quantity    int
	WarehouseID string
	Status      ProductStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RawMaterialStatus enumerates raw material availability states.
type RawMaterialStatus string

const (
	// RawMaterialStatusActive marks a raw material as in use.
	RawMaterialStatusActive RawMaterialStatus = "ACTIVE"
	// RawMaterialStatusInactive marks a raw material as retired from use.
	RawMaterialStatusInactive RawMaterialStatus = "INACTIVE"
)

// RawMaterial is an input good consumed by production rather than sold.
// Quantity is measured in Unit; ReorderAt is the level at which the material
// should be restocked.
type RawMaterial struct {
	ID          string
	SKU         string
	Name        string
	Description string
	Unit        string
	Quantity    int
	ReorderAt   int
	Status      RawMaterialStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Warehouse is a physical location products belong to.
type Warehouse struct {
	ID        string
	Name      string
	Location  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Invoice is a billing record derived from exactly one order. PaidAt is nil
// while the invoice is unpaid.
type Invoice struct {
	ID            string
	InvoiceNumber string
	OrderID       string
	Total         int64
	PaidAt        *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// UserRole enumerates coarse authorisation roles.
type UserRole string

const (
	// UserRoleAdmin grants catalogue mutation and audit access, and makes the
	// user a recipient of system notifications.
	UserRoleAdmin UserRole = "ADMIN"
	// UserRoleStaff grants day-to-day order handling access.
	UserRoleStaff UserRole = "STAFF"
)

// User is a read-only projection of the account store; the API never mutates
// accounts, it only resolves roles and notification recipients.
type User struct {
	ID        string
	Email     string
	Name      string
	Role      UserRole
	CreatedAt time.Time
}

// Notification is an in-app message addressed to a single user.
type Notification struct {
	ID        string
	UserID    string
	Title     string
	Message   string
	Read      bool
	CreatedAt time.Time
}

// AuditAction enumerates the mutation kinds recorded in the audit log.
type AuditAction string

const (
	// AuditActionCreate records an entity creation.
	AuditActionCreate AuditAction = "CREATE"
	// AuditActionUpdate records an entity mutation.
	AuditActionUpdate AuditAction = "UPDATE"
	// AuditActionDelete records an entity removal.
	AuditActionDelete AuditAction = "DELETE"
)

// AuditLog is one immutable entry in the audit trail.
type AuditLog struct {
	ID         string
	ActorID    string
	Action     AuditAction
	EntityType string
	EntityID   string
	Details    map[string]any
	CreatedAt  time.Time
}

// CursorPage wraps a page of results with the token for the next page.
type CursorPage[T any] struct {
	Items         []T
	NextPageToken string
}

// HealthStatus describes the outcome of a dependency probe.
type HealthStatus string

const (
	// HealthStatusOK indicates the dependency responded in time.
	HealthStatusOK HealthStatus = "ok"
	// HealthStatusDegraded indicates the dependency responded with an error.
	HealthStatusDegraded HealthStatus = "degraded"
	// HealthStatusError indicates the dependency timed out or was unreachable.
	HealthStatusError HealthStatus = "error"
)

// SystemHealthCheck is the result of probing a single dependency.
type SystemHealthCheck struct {
	Status    HealthStatus
	Detail    string
	Error     string
	Latency   time.Duration
	CheckedAt time.Time
}

// SystemHealthReport aggregates dependency probes for readiness reporting.
type SystemHealthReport struct {
	Status      HealthStatus
	Checks      map[string]SystemHealthCheck
	GeneratedAt time.Time
}
