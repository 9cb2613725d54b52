package services

import "errors"

// Sentinel errors surfaced by the service layer. Handlers map them onto the
// HTTP error envelope; callers test with errors.Is.
var (
	// ErrValidation wraps rejected input (empty customer, no items, bad
	// quantities, unknown status values).
	ErrValidation = errors.New("validation failed")

	// ErrOrderNotFound reports a missing order.
	ErrOrderNotFound = errors.New("order not found")
	// ErrProductNotFound reports a missing product reference.
	ErrProductNotFound = errors.New("product not found")
	// ErrInvoiceNotFound reports a missing invoice.
	ErrInvoiceNotFound = errors.New("invoice not found")
	// ErrWarehouseNotFound reports a missing warehouse.
	ErrWarehouseNotFound = errors.New("warehouse not found")
	// ErrRawMaterialNotFound reports a missing raw material.
	ErrRawMaterialNotFound = errors.New("raw material not found")
	// ErrNotificationNotFound reports a missing notification.
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrInvalidTransition reports a disallowed order status transition;
	// the wrapping message names both states.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvoiceExists reports that the order already carries an invoice.
	ErrInvoiceExists = errors.New("an invoice already exists for this order")

	// ErrDuplicateSKU reports a product SKU collision.
	ErrDuplicateSKU = errors.New("sku already in use")

	// ErrNumberAllocation reports that the unique number retries were
	// exhausted; practically this means the entropy source is broken.
	ErrNumberAllocation = errors.New("could not allocate unique identifier")
)
