package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/stockroom/api/internal/domain"
	pfirestore "github.com/stockroom/api/internal/platform/firestore"
	"github.com/stockroom/api/internal/platform/pagination"
	"github.com/stockroom/api/internal/repositories"
)

const (
	invoicesCollection       = "invoices"
	invoiceNumbersCollection = "invoiceNumbers"
	orderInvoicesCollection  = "orderInvoices"
)

// InvoiceRepository persists invoices. Two index collections back its
// guarantees: invoiceNumbers claims generated numbers, orderInvoices links
// each order to at most one invoice.
type InvoiceRepository struct {
	provider      *pfirestore.Provider
	invoices      *pfirestore.BaseRepository[invoiceDocument]
	numbers       *pfirestore.BaseRepository[map[string]any]
	orderInvoices *pfirestore.BaseRepository[map[string]any]
}

func NewInvoiceRepository(provider *pfirestore.Provider) (*InvoiceRepository, error) {
	if provider == nil {
		return nil, errors.New("invoice repository requires firestore provider")
	}
	invoices := pfirestore.NewBaseRepository[invoiceDocument](provider, invoicesCollection, nil, nil)
	numbers := pfirestore.NewBaseRepository[map[string]any](provider, invoiceNumbersCollection, pfirestore.MapEncoder[map[string]any](), pfirestore.MapDecoder())
	orderInvoices := pfirestore.NewBaseRepository[map[string]any](provider, orderInvoicesCollection, pfirestore.MapEncoder[map[string]any](), pfirestore.MapDecoder())
	return &InvoiceRepository{provider: provider, invoices: invoices, numbers: numbers, orderInvoices: orderInvoices}, nil
}

// Insert stores the invoice. The order link is checked during the read phase
// so a second invoice for the same order fails with InvoiceExistsError
// before any write happens; only a collision on the generated invoice number
// surfaces as a unique violation that callers retry with a fresh number.
func (r *InvoiceRepository) Insert(ctx context.Context, invoice domain.Invoice) error {
	if r == nil || r.invoices == nil {
		return errors.New("invoice repository not initialised")
	}
	if strings.TrimSpace(invoice.ID) == "" {
		return errors.New("invoice insert: id is required")
	}
	if strings.TrimSpace(invoice.InvoiceNumber) == "" {
		return errors.New("invoice insert: invoice number is required")
	}
	orderID := strings.TrimSpace(invoice.OrderID)
	if orderID == "" {
		return errors.New("invoice insert: order id is required")
	}

	_, err := r.orderInvoices.Get(ctx, orderID)
	switch {
	case err == nil:
		return &repositories.InvoiceExistsError{OrderID: orderID}
	case isNotFound(err):
		// order has no invoice yet
	default:
		return err
	}

	if _, err := r.invoices.Create(ctx, invoice.ID, newInvoiceDocument(invoice)); err != nil {
		return err
	}
	if _, err := r.numbers.Create(ctx, invoice.InvoiceNumber, map[string]any{
		"invoiceId": invoice.ID,
		"createdAt": invoice.CreatedAt.UTC(),
	}); err != nil {
		return classifyUniqueCreate(invoiceNumbersCollection, invoice.InvoiceNumber, err)
	}
	if _, err := r.orderInvoices.Create(ctx, orderID, map[string]any{
		"invoiceId": invoice.ID,
		"createdAt": invoice.CreatedAt.UTC(),
	}); err != nil {
		var repoErr *pfirestore.Error
		if errors.As(err, &repoErr) && repoErr.IsAlreadyExists() {
			return &repositories.InvoiceExistsError{OrderID: orderID}
		}
		return err
	}
	return nil
}

func (r *InvoiceRepository) FindByID(ctx context.Context, invoiceID string) (domain.Invoice, error) {
	if r == nil || r.invoices == nil {
		return domain.Invoice{}, errors.New("invoice repository not initialised")
	}
	if strings.TrimSpace(invoiceID) == "" {
		return domain.Invoice{}, errors.New("invoice find: id is required")
	}
	doc, err := r.invoices.Get(ctx, invoiceID)
	if err != nil {
		return domain.Invoice{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

func (r *InvoiceRepository) FindByOrderID(ctx context.Context, orderID string) (domain.Invoice, error) {
	if r == nil || r.orderInvoices == nil {
		return domain.Invoice{}, errors.New("invoice repository not initialised")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Invoice{}, errors.New("invoice find by order: order id is required")
	}
	link, err := r.orderInvoices.Get(ctx, orderID)
	if err != nil {
		return domain.Invoice{}, err
	}
	invoiceID, _ := link.Data["invoiceId"].(string)
	if invoiceID == "" {
		return domain.Invoice{}, pfirestore.WrapError("orderInvoices.get", errors.New("link document missing invoiceId"))
	}
	return r.FindByID(ctx, invoiceID)
}

// SetPaid toggles the paid timestamp. A nil paidAt reverts the invoice to
// unpaid; detecting the unpaid-to-paid transition is the service's job.
func (r *InvoiceRepository) SetPaid(ctx context.Context, invoiceID string, paidAt *time.Time) (domain.Invoice, error) {
	if r == nil || r.invoices == nil {
		return domain.Invoice{}, errors.New("invoice repository not initialised")
	}
	if strings.TrimSpace(invoiceID) == "" {
		return domain.Invoice{}, errors.New("invoice set paid: id is required")
	}

	doc, err := r.invoices.Get(ctx, invoiceID)
	if err != nil {
		return domain.Invoice{}, err
	}

	updated := doc.Data
	if paidAt != nil {
		stamped := paidAt.UTC()
		updated.Paid = true
		updated.PaidAt = &stamped
		updated.UpdatedAt = stamped
	} else {
		updated.Paid = false
		updated.PaidAt = nil
		updated.UpdatedAt = time.Now().UTC()
	}

	if _, err := r.invoices.Set(ctx, invoiceID, updated); err != nil {
		return domain.Invoice{}, err
	}
	return updated.toDomain(invoiceID), nil
}

// Delete removes the invoice document, releases its claimed number and
// unlinks the order so a fresh invoice may be issued later.
func (r *InvoiceRepository) Delete(ctx context.Context, invoiceID string, invoiceNumber string, orderID string) error {
	if r == nil || r.invoices == nil {
		return errors.New("invoice repository not initialised")
	}
	if strings.TrimSpace(invoiceID) == "" {
		return errors.New("invoice delete: id is required")
	}
	if err := r.invoices.Delete(ctx, invoiceID); err != nil {
		return err
	}
	if number := strings.TrimSpace(invoiceNumber); number != "" {
		if err := r.numbers.Delete(ctx, number); err != nil {
			return err
		}
	}
	if orderID = strings.TrimSpace(orderID); orderID != "" {
		return r.orderInvoices.Delete(ctx, orderID)
	}
	return nil
}

func (r *InvoiceRepository) List(ctx context.Context, filter repositories.InvoiceListFilter) (domain.CursorPage[domain.Invoice], error) {
	if r == nil || r.invoices == nil {
		return domain.CursorPage[domain.Invoice]{}, errors.New("invoice repository not initialised")
	}

	pageSize := normalisePageSize(filter.Pagination.PageSize)
	cursor, err := pagination.DecodeToken(filter.Pagination.PageToken)
	if err != nil {
		return domain.CursorPage[domain.Invoice]{}, err
	}

	docs, err := r.invoices.Query(ctx, func(q firestore.Query) firestore.Query {
		if orderID := strings.TrimSpace(filter.OrderID); orderID != "" {
			q = q.Where("orderId", "==", orderID)
		}
		if filter.Paid != nil {
			q = q.Where("paid", "==", *filter.Paid)
		}
		q = q.OrderBy("createdAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)
		if len(cursor.StartAfter) > 0 {
			q = q.StartAfter(cursor.StartAfter...)
		}
		return q.Limit(pageSize + 1)
	})
	if err != nil {
		return domain.CursorPage[domain.Invoice]{}, err
	}

	hasMore := len(docs) > pageSize
	if hasMore {
		docs = docs[:pageSize]
	}

	invoices := make([]domain.Invoice, 0, len(docs))
	for _, doc := range docs {
		invoices = append(invoices, doc.Data.toDomain(doc.ID))
	}

	var nextToken string
	if hasMore && len(docs) > 0 {
		last := docs[len(docs)-1]
		nextToken, err = pagination.EncodeToken(pagination.Cursor{StartAfter: []any{last.Data.CreatedAt, last.ID}})
		if err != nil {
			return domain.CursorPage[domain.Invoice]{}, err
		}
	}

	return domain.CursorPage[domain.Invoice]{Items: invoices, NextPageToken: nextToken}, nil
}

// Helper structures ---------------------------------------------------------

type invoiceDocument struct {
	InvoiceNumber string     `firestore:"invoiceNumber"`
	OrderID       string     `firestore:"orderId"`
	Total         int64      `firestore:"total"`
	Paid          bool       `firestore:"paid"`
	PaidAt        *time.Time `firestore:"paidAt,omitempty"`
	CreatedAt     time.Time  `firestore:"createdAt"`
	UpdatedAt     time.Time  `firestore:"updatedAt"`
}

func newInvoiceDocument(invoice domain.Invoice) invoiceDocument {
	doc := invoiceDocument{
		InvoiceNumber: strings.TrimSpace(invoice.InvoiceNumber),
		OrderID:       strings.TrimSpace(invoice.OrderID),
		Total:         invoice.Total,
		CreatedAt:     invoice.CreatedAt.UTC(),
		UpdatedAt:     invoice.UpdatedAt.UTC(),
	}
	if invoice.PaidAt != nil {
		paidAt := invoice.PaidAt.UTC()
		doc.Paid = true
		doc.PaidAt = &paidAt
	}
	return doc
}

func (d invoiceDocument) toDomain(id string) domain.Invoice {
	return domain.Invoice{
		ID:            id,
		InvoiceNumber: d.InvoiceNumber,
		OrderID:       d.OrderID,
		Total:         d.Total,
		PaidAt:        d.PaidAt,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func isNotFound(err error) bool {
	var repoErr *pfirestore.Error
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}
