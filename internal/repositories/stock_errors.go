package repositories

import "fmt"

// StockErrorCode enumerates repository error causes for stock operations.
type StockErrorCode string

const (
	// StockErrorUnknown represents an unspecified failure.
	StockErrorUnknown StockErrorCode = "stock_unknown"
	// StockErrorInsufficient indicates requested quantity exceeds availability.
	StockErrorInsufficient StockErrorCode = "stock_insufficient"
	// StockErrorProductNotFound indicates the product document is missing.
	StockErrorProductNotFound StockErrorCode = "stock_product_not_found"
)

// StockError wraps stock-specific failures with machine readable codes.
// Insufficient-stock errors carry the product identity and the quantities
// involved so callers can render an exact message.
type StockError struct {
	Op          string
	Code        StockErrorCode
	ProductID   string
	ProductName string
	Requested   int
	Available   int
	Message     string
	Err         error
}

// Error implements the error interface.
func (e *StockError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Code == StockErrorInsufficient {
		msg = fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.ProductName, e.Requested, e.Available)
	}
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

// Unwrap exposes the underlying error, if any.
func (e *StockError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewStockError constructs a typed stock error.
func NewStockError(code StockErrorCode, message string, err error) *StockError {
	if message == "" {
		message = string(code)
	}
	return &StockError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewInsufficientStockError reports a shortfall for a single product.
func NewInsufficientStockError(productID, productName string, requested, available int) *StockError {
	return &StockError{
		Code:        StockErrorInsufficient,
		ProductID:   productID,
		ProductName: productName,
		Requested:   requested,
		Available:   available,
	}
}
