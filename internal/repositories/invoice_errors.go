package repositories

import "fmt"

// InvoiceExistsError reports that an order already has an invoice. It is
// deliberately distinct from DuplicateKeyError: number collisions are
// retried with a fresh number, a second invoice for the same order is not.
type InvoiceExistsError struct {
	OrderID string
}

// Error implements the error interface.
func (e *InvoiceExistsError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("invoice already exists for order %s", e.OrderID)
}
