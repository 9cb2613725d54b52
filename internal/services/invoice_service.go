package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/stockroom/api/internal/domain"
	"github.com/stockroom/api/internal/platform/docnum"
	"github.com/stockroom/api/internal/repositories"
)

const (
	invoiceNumberPrefix = "INV"

	entityTypeInvoice = "invoice"
)

// InvoiceServiceDeps wires the invoice service dependencies.
type InvoiceServiceDeps struct {
	Registry      repositories.Registry
	Numbers       *docnum.Generator
	IDGenerator   IDGenerator
	Audit         AuditLogService
	Notifications NotificationService
	Events        EventPublisher
	Clock         func() time.Time
	Log           LogFunc
}

type invoiceService struct {
	registry repositories.Registry
	numbers  *docnum.Generator
	newID    IDGenerator
	audit    AuditLogService
	notifier NotificationService
	events   EventPublisher
	clock    func() time.Time
	log      LogFunc
}

// NewInvoiceService constructs the invoicing service.
func NewInvoiceService(deps InvoiceServiceDeps) (InvoiceService, error) {
	if deps.Registry == nil {
		return nil, errors.New("invoice service requires a repository registry")
	}
	if deps.Numbers == nil {
		return nil, errors.New("invoice service requires a number generator")
	}
	if deps.Audit == nil {
		return nil, errors.New("invoice service requires an audit log service")
	}
	return &invoiceService{
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

func (s *invoiceService) Create(ctx context.Context, cmd CreateInvoiceCommand) (Invoice, error) {
	if cmd.OrderID == "" {
		return Invoice{}, fmt.Errorf("%w: order id is required", ErrValidation)
	}

	var created Invoice
	err := docnum.CreateWithUniqueRetry(ctx, docnum.DefaultMaxAttempts, func(ctx context.Context, attempt int) error {
		number, err := s.numbers.Generate(invoiceNumberPrefix)
		if err != nil {
			return err
		}

		return s.registry.RunInTx(ctx, func(ctx context.Context) error {
			order, err := s.registry.Orders().FindByID(ctx, cmd.OrderID)
			if err != nil {
				if isNotFound(err) {
					return fmt.Errorf("%w: %s", ErrOrderNotFound, cmd.OrderID)
				}
				return err
			}

			now := s.clock().UTC()
			invoice := Invoice{
				ID:            s.newID(),
				InvoiceNumber: number,
				OrderID:       order.ID,
				Total:         order.Total,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if cmd.MarkAsPaid {
				paidAt := now
				invoice.PaidAt = &paidAt
			}
			if err := s.registry.Invoices().Insert(ctx, invoice); err != nil {
				return err
			}

			created = invoice
			return nil
		})
	})
	if err != nil {
		var exists *repositories.InvoiceExistsError
		if errors.As(err, &exists) {
			return Invoice{}, fmt.Errorf("%w: order %s", ErrInvoiceExists, exists.OrderID)
		}
		if errors.Is(err, docnum.ErrRetriesExhausted) {
			return Invoice{}, fmt.Errorf("%w: %v", ErrNumberAllocation, err)
		}
		return Invoice{}, err
	}

	s.audit.Record(ctx, AuditLogRecord{
		ActorID:    cmd.ActorID,
		Action:     domain.AuditActionCreate,
		EntityType: entityTypeInvoice,
		EntityID:   created.ID,
		Details: map[string]any{
			"invoiceNumber": created.InvoiceNumber,
			"orderId":       created.OrderID,
			"total":         created.Total,
			"paid":          created.PaidAt != nil,
		},
		OccurredAt: created.CreatedAt,
	})
	s.publish(ctx, "invoice.created", created.ID, cmd.ActorID, map[string]any{
		"invoiceNumber": created.InvoiceNumber,
		"orderId":       created.OrderID,
	})

	return created, nil
}

func (s *invoiceService) Get(ctx context.Context, invoiceID string) (Invoice, error) {
	if invoiceID == "" {
		return Invoice{}, fmt.Errorf("%w: invoice id is required", ErrValidation)
	}
	invoice, err := s.registry.Invoices().FindByID(ctx, invoiceID)
	if err != nil {
		if isNotFound(err) {
			return Invoice{}, fmt.Errorf("%w: %s", ErrInvoiceNotFound, invoiceID)
		}
		return Invoice{}, err
	}
	return invoice, nil
}

func (s *invoiceService) List(ctx context.Context, filter InvoiceListFilter) (domain.CursorPage[Invoice], error) {
	return s.registry.Invoices().List(ctx, repositories.InvoiceListFilter{
		OrderID:    filter.OrderID,
		Paid:       filter.Paid,
		Pagination: filter.Pagination,
	})
}

func (s *invoiceService) Update(ctx context.Context, cmd UpdateInvoiceCommand) (Invoice, error) {
	if cmd.InvoiceID == "" {
		return Invoice{}, fmt.Errorf("%w: invoice id is required", ErrValidation)
	}

	// The read and the toggle share one transaction so two concurrent
	// mark-paid requests cannot both observe unpaid and double-notify.
	var updated Invoice
	var wasPaid bool
	err := s.registry.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.registry.Invoices().FindByID(ctx, cmd.InvoiceID)
		if err != nil {
			return err
		}
		wasPaid = current.PaidAt != nil

		var paidAt *time.Time
		if cmd.MarkAsPaid {
			now := s.clock().UTC()
			paidAt = &now
		}
		updated, err = s.registry.Invoices().SetPaid(ctx, cmd.InvoiceID, paidAt)
		return err
	})
	if err != nil {
		if isNotFound(err) {
			return Invoice{}, fmt.Errorf("%w: %s", ErrInvoiceNotFound, cmd.InvoiceID)
		}
		return Invoice{}, err
	}

	s.audit.Record(ctx, AuditLogRecord{
		ActorID:    cmd.ActorID,
		Action:     domain.AuditActionUpdate,
		EntityType: entityTypeInvoice,
		EntityID:   updated.ID,
		Details: map[string]any{
			"invoiceNumber": updated.InvoiceNumber,
			"paid":          cmd.MarkAsPaid,
		},
		OccurredAt: s.clock().UTC(),
	})
	if !wasPaid && cmd.MarkAsPaid {
		s.notifyAdmins(ctx, "Invoice paid",
			fmt.Sprintf("Invoice %s was marked as paid.", updated.InvoiceNumber))
		s.publish(ctx, "invoice.paid", updated.ID, cmd.ActorID, map[string]any{
			"invoiceNumber": updated.InvoiceNumber,
			"orderId":       updated.OrderID,
		})
	}

	return updated, nil
}

func (s *invoiceService) Delete(ctx context.Context, cmd DeleteInvoiceCommand) error {
	if cmd.InvoiceID == "" {
		return fmt.Errorf("%w: invoice id is required", ErrValidation)
	}

	invoice, err := s.registry.Invoices().FindByID(ctx, cmd.InvoiceID)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", ErrInvoiceNotFound, cmd.InvoiceID)
		}
		return err
	}
	if err := s.registry.Invoices().Delete(ctx, invoice.ID, invoice.InvoiceNumber, invoice.OrderID); err != nil {
		return err
	}

	s.audit.Record(ctx, AuditLogRecord{
		ActorID:    cmd.ActorID,
		Action:     domain.AuditActionDelete,
		EntityType: entityTypeInvoice,
		EntityID:   invoice.ID,
		Details: map[string]any{
			"invoiceNumber": invoice.InvoiceNumber,
			"orderId":       invoice.OrderID,
		},
		OccurredAt: s.clock().UTC(),
	})
	s.publish(ctx, "invoice.deleted", invoice.ID, cmd.ActorID, map[string]any{
		"invoiceNumber": invoice.InvoiceNumber,
	})

	return nil
}

func (s *invoiceService) notifyAdmins(ctx context.Context, title, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyAdmins(ctx, title, message); err != nil {
		s.log(ctx, "invoice.notify_admins_failed", map[string]any{"error": err.Error()})
	}
}

func (s *invoiceService) publish(ctx context.Context, eventType, invoiceID, actorID string, payload map[string]any) {
	if s.events == nil {
		return
	}
	_, err := s.events.PublishEvent(ctx, DomainEvent{
		Type:       eventType,
		EntityType: entityTypeInvoice,
		EntityID:   invoiceID,
		ActorID:    actorID,
		OccurredAt: s.clock().UTC(),
		Payload:    payload,
	})
	if err != nil {
		s.log(ctx, "invoice.event_publish_failed", map[string]any{
			"event": eventType,
			"error": err.Error(),
		})
	}
}
