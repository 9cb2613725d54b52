package services

import (
	"fmt"
	"strings"

	domain "github.com/stockroom/api/internal/domain"
)

// orderStatusTransitions is the outgoing edge set of the order lifecycle.
// DELIVERED and CANCELLED are terminal; in particular a shipped order can no
// longer be cancelled.
var orderStatusTransitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderStatusPending:    {domain.OrderStatusProcessing, domain.OrderStatusCancelled},
	domain.OrderStatusProcessing: {domain.OrderStatusShipped, domain.OrderStatusCancelled},
	domain.OrderStatusShipped:    {domain.OrderStatusDelivered},
	domain.OrderStatusDelivered:  {},
	domain.OrderStatusCancelled:  {},
}

// ParseOrderStatus validates a raw status value.
func ParseOrderStatus(raw string) (domain.OrderStatus, error) {
	status := domain.OrderStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := orderStatusTransitions[status]; !ok {
		return "", fmt.Errorf("%w: unknown order status %q", ErrValidation, raw)
	}
	return status, nil
}

// CanTransition reports whether from may move to to. Re-submitting the
// current status is allowed as an idempotent no-op.
func CanTransition(from, to domain.OrderStatus) bool {
	if from == to {
		_, ok := orderStatusTransitions[from]
		return ok
	}
	for _, allowed := range orderStatusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
