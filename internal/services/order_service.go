package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	domain "github.com/stockroom/api/internal/domain"
	"github.com/stockroom/api/internal/platform/docnum"
	"github.com/stockroom/api/internal/repositories"
)

const (
	orderNumberPrefix = "ORD"

	entityTypeOrder = "order"
)

// OrderServiceDeps wires the order service dependencies.
type OrderServiceDeps struct {
	Registry      repositories.Registry
	Numbers       *docnum.Generator
	IDGenerator   IDGenerator
	Audit         AuditLogService
	Notifications NotificationService
	Events        EventPublisher
	Clock         func() time.Time
	Log           LogFunc
}

type orderService struct {
	registry repositories.Registry
	numbers  *docnum.Generator
	newID    IDGenerator
	audit    AuditLogService
	notifier NotificationService
	events   EventPublisher
	clock    func() time.Time
	log      LogFunc
}

// NewOrderService constructs the order lifecycle service.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Registry == nil {
		return nil, errors.New("order service requires a repository registry")
	}
	if deps.Numbers == nil {
		return nil, errors.New("order service requires a number generator")
	}
	if deps.Audit == nil {
		return nil, errors.New("order service requires an audit log service")
	}
	return &orderService{
		registry: deps.Registry,
		numbers:  deps.Numbers,
		newID:    defaultIDGenerator(deps.IDGenerator),
		audit:    deps.Audit,
		notifier: deps.Notifications,
		events:   deps.Events,
		clock:    defaultClock(deps.Clock),
		log:      defaultLog(deps.Log),
	}, nil
}

func (s *orderService) Create(ctx context.Context, cmd CreateOrderCommand) (Order, error) {
	lines, err := normaliseOrderLines(cmd)
	if err != nil {
		return Order{}, err
	}

	ids := make([]string, 0, len(lines))
	requested := make(map[string]int, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
		requested[line.ProductID] = line.Quantity
	}

	var created Order
	err = docnum.CreateWithUniqueRetry(ctx, docnum.DefaultMaxAttempts, func(ctx context.Context, attempt int) error {
		number, err := s.numbers.Generate(orderNumberPrefix)
		if err != nil {
			return err
		}

		return s.registry.RunInTx(ctx, func(ctx context.Context) error {
			products, err := s.registry.Products().FindByIDs(ctx, ids)
			if err != nil {
				return err
			}

			byID := make(map[string]domain.Product, len(products))
			for _, p := range products {
				byID[p.ID] = p
			}
			if missing := missingProductIDs(ids, byID); len(missing) > 0 {
				return fmt.Errorf("%w: %s", ErrProductNotFound, strings.Join(missing, ", "))
			}

			sorted := append([]string(nil), ids...)
			sort.Strings(sorted)
			for _, id := range sorted {
				product := byID[id]
				if want := requested[id]; product.Quantity < want {
					return repositories.NewInsufficientStockError(product.ID, product.Name, want, product.Quantity)
				}
			}

			now := s.clock().UTC()
			order := Order{
				ID:          s.newID(),
				OrderNumber: number,
				Customer:    cmd.Customer,
				Status:      domain.OrderStatusPending,
				Items:       make([]OrderItem, 0, len(lines)),
				CreatedBy:   cmd.ActorID,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			for _, line := range lines {
				product := byID[line.ProductID]
				order.Items = append(order.Items, OrderItem{
					ID:        s.newID(),
					ProductID: product.ID,
					Quantity:  line.Quantity,
					UnitPrice: product.Price,
				})
				order.Total += int64(line.Quantity) * product.Price
			}

			if err := s.registry.Orders().Insert(ctx, order); err != nil {
				return err
			}
			for _, id := range sorted {
				if err := s.registry.Products().DecrementStock(ctx, id, requested[id]); err != nil {
					return err
				}
			}

			created = order
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, docnum.ErrRetriesExhausted) {
			return Order{}, fmt.Errorf("%w: %v", ErrNumberAllocation, err)
		}
		return Order{}, err
	}

	s.audit.Record(ctx, AuditLogRecord{
		ActorID:    cmd.ActorID,
		Action:     domain.AuditActionCreate,
		EntityType: entityTypeOrder,
		EntityID:   created.ID,
		Details: map[string]any{
			"orderNumber": created.OrderNumber,
			"customer":    created.Customer,
			"total":       created.Total,
		},
		OccurredAt: created.CreatedAt,
	})
	s.notifyAdmins(ctx, "New order received",
		fmt.Sprintf("Order %s for %s was created.", created.OrderNumber, created.Customer))
	s.publish(ctx, "order.created", created.ID, cmd.ActorID, map[string]any{
		"orderNumber": created.OrderNumber,
		"total":       created.Total,
	})

	return created, nil
}

func (s *orderService) Get(ctx context.Context, orderID string) (Order, error) {
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrValidation)
	}
	order, err := s.registry.Orders().FindByID(ctx, orderID)
	if err != nil {
		if isNotFound(err) {
			return Order{}, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		return Order{}, err
	}
	return order, nil
}

func (s *orderService) List(ctx context.Context, filter OrderListFilter) (domain.CursorPage[Order], error) {
	statuses := make([]domain.OrderStatus, 0, len(filter.Status))
	for _, raw := range filter.Status {
		status, err := ParseOrderStatus(raw)
		if err != nil {
			return domain.CursorPage[Order]{}, err
		}
		statuses = append(statuses, status)
	}
	return s.registry.Orders().List(ctx, repositories.OrderListFilter{
		Customer:   filter.Customer,
		Status:     statuses,
		DateRange:  domain.RangeQuery[time.Time]{From: filter.From, To: filter.To},
		Pagination: filter.Pagination,
	})
}

func (s *orderService) UpdateStatus(ctx context.Context, cmd UpdateOrderStatusCommand) (Order, error) {
	if cmd.OrderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrValidation)
	}
	target, err := ParseOrderStatus(cmd.Status)
	if err != nil {
		return Order{}, err
	}

	var (
		updated  Order
		previous domain.OrderStatus
	)
	err = s.registry.RunInTx(ctx, func(ctx context.Context) error {
		order, err := s.registry.Orders().FindByID(ctx, cmd.OrderID)
		if err != nil {
			if isNotFound(err) {
				return fmt.Errorf("%w: %s", ErrOrderNotFound, cmd.OrderID)
			}
			return err
		}

		previous = order.Status
		if !CanTransition(order.Status, target) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, order.Status, target)
		}
		if order.Status == target {
			updated = order
			return nil
		}

		order.Status = target
		order.UpdatedAt = s.clock().UTC()
		if err := s.registry.Orders().Update(ctx, order); err != nil {
			return err
		}
		if target == domain.OrderStatusCancelled {
			for _, item := range order.Items {
				if err := s.registry.Products().IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}

		updated = order
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	s.audit.Record(ctx, AuditLogRecord{
		ActorID:    cmd.ActorID,
		Action:     domain.AuditActionUpdate,
		EntityType: entityTypeOrder,
		EntityID:   updated.ID,
		Details: map[string]any{
			"from": string(previous),
			"to":   string(target),
		},
		OccurredAt: s.clock().UTC(),
	})
	if previous != target {
		if target == domain.OrderStatusCancelled {
			s.notifyAdmins(ctx, "Order cancelled",
				fmt.Sprintf("Order %s was cancelled and its stock released.", updated.OrderNumber))
		}
		s.publish(ctx, "order.status_changed", updated.ID, cmd.ActorID, map[string]any{
			"orderNumber": updated.OrderNumber,
			"from":        string(previous),
			"to":          string(target),
		})
	}

	return updated, nil
}

func (s *orderService) Delete(ctx context.Context, cmd DeleteOrderCommand) error {
	if cmd.OrderID == "" {
		return fmt.Errorf("%w: order id is required", ErrValidation)
	}

	var removed Order
	err := s.registry.RunInTx(ctx, func(ctx context.Context) error {
		order, err := s.registry.Orders().FindByID(ctx, cmd.OrderID)
		if err != nil {
			if isNotFound(err) {
				return fmt.Errorf("%w: %s", ErrOrderNotFound, cmd.OrderID)
			}
			return err
		}

		// Cancelled orders already released their stock.
		if order.Status != domain.OrderStatusCancelled {
			for _, item := range order.Items {
				if err := s.registry.Products().IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}
		if err := s.registry.Orders().Delete(ctx, order.ID, order.OrderNumber); err != nil {
			return err
		}

		removed = order
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, AuditLogRecord{
		ActorID:    cmd.ActorID,
		Action:     domain.AuditActionDelete,
		EntityType: entityTypeOrder,
		EntityID:   removed.ID,
		Details: map[string]any{
			"orderNumber": removed.OrderNumber,
			"status":      string(removed.Status),
		},
		OccurredAt: s.clock().UTC(),
	})
	s.publish(ctx, "order.deleted", removed.ID, cmd.ActorID, map[string]any{
		"orderNumber": removed.OrderNumber,
	})

	return nil
}

func (s *orderService) notifyAdmins(ctx context.Context, title, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyAdmins(ctx, title, message); err != nil {
		s.log(ctx, "order.notify_admins_failed", map[string]any{"error": err.Error()})
	}
}

func (s *orderService) publish(ctx context.Context, eventType, orderID, actorID string, payload map[string]any) {
	if s.events == nil {
		return
	}
	_, err := s.events.PublishEvent(ctx, DomainEvent{
		Type:       eventType,
		EntityType: entityTypeOrder,
		EntityID:   orderID,
		ActorID:    actorID,
		OccurredAt: s.clock().UTC(),
		Payload:    payload,
	})
	if err != nil {
		s.log(ctx, "order.event_publish_failed", map[string]any{
			"event": eventType,
			"error": err.Error(),
		})
	}
}

// normaliseOrderLines validates the command and folds duplicate product lines
// into one aggregated line per product, keeping first-seen ordering.
func normaliseOrderLines(cmd CreateOrderCommand) ([]OrderLineInput, error) {
	if strings.TrimSpace(cmd.Customer) == "" {
		return nil, fmt.Errorf("%w: customer is required", ErrValidation)
	}
	if len(cmd.Items) == 0 {
		return nil, fmt.Errorf("%w: at least one order item is required", ErrValidation)
	}

	index := make(map[string]int, len(cmd.Items))
	lines := make([]OrderLineInput, 0, len(cmd.Items))
	for _, item := range cmd.Items {
		if item.ProductID == "" {
			return nil, fmt.Errorf("%w: order item product id is required", ErrValidation)
		}
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity for product %s must be positive", ErrValidation, item.ProductID)
		}
		if at, ok := index[item.ProductID]; ok {
			lines[at].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(lines)
		lines = append(lines, item)
	}
	return lines, nil
}

func missingProductIDs(ids []string, found map[string]domain.Product) []string {
	var missing []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	return missing
}
