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
	ordersCollection       = "orders"
	orderNumbersCollection = "orderNumbers"
)

// OrderRepository persists orders with a claimed-number index that enforces
// order number uniqueness across concurrent writers.
type OrderRepository struct {
	provider *pfirestore.Provider
	orders   *pfirestore.BaseRepository[orderDocument]
	numbers  *pfirestore.BaseRepository[map[string]any]
}

func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	orders := pfirestore.NewBaseRepository[orderDocument](provider, ordersCollection, nil, nil)
	numbers := pfirestore.NewBaseRepository[map[string]any](provider, orderNumbersCollection, pfirestore.MapEncoder[map[string]any](), pfirestore.MapDecoder())
	return &OrderRepository{provider: provider, orders: orders, numbers: numbers}, nil
}

// Insert writes the order document and claims its order number. Outside a
// transaction a taken number surfaces immediately; inside one it surfaces
// when the transaction commits.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if r == nil || r.orders == nil {
		return errors.New("order repository not initialised")
	}
	if strings.TrimSpace(order.ID) == "" {
		return errors.New("order insert: id is required")
	}
	if strings.TrimSpace(order.OrderNumber) == "" {
		return errors.New("order insert: order number is required")
	}

	if _, err := r.orders.Create(ctx, order.ID, newOrderDocument(order)); err != nil {
		return err
	}
	if _, err := r.numbers.Create(ctx, order.OrderNumber, map[string]any{
		"orderId":   order.ID,
		"createdAt": order.CreatedAt.UTC(),
	}); err != nil {
		return classifyUniqueCreate(orderNumbersCollection, order.OrderNumber, err)
	}
	return nil
}

func (r *OrderRepository) Update(ctx context.Context, order domain.Order) error {
	if r == nil || r.orders == nil {
		return errors.New("order repository not initialised")
	}
	if strings.TrimSpace(order.ID) == "" {
		return errors.New("order update: id is required")
	}
	_, err := r.orders.Set(ctx, order.ID, newOrderDocument(order))
	return err
}

func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if r == nil || r.orders == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	if strings.TrimSpace(orderID) == "" {
		return domain.Order{}, errors.New("order find: id is required")
	}
	doc, err := r.orders.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	if r == nil || r.orders == nil {
		return domain.CursorPage[domain.Order]{}, errors.New("order repository not initialised")
	}

	pageSize := normalisePageSize(filter.Pagination.PageSize)
	cursor, err := pagination.DecodeToken(filter.Pagination.PageToken)
	if err != nil {
		return domain.CursorPage[domain.Order]{}, err
	}

	docs, err := r.orders.Query(ctx, func(q firestore.Query) firestore.Query {
		if customer := strings.TrimSpace(filter.Customer); customer != "" {
			q = q.Where("customer", "==", customer)
		}
		if len(filter.Status) > 0 {
			statuses := make([]string, 0, len(filter.Status))
			for _, s := range filter.Status {
				statuses = append(statuses, string(s))
			}
			q = q.Where("status", "in", statuses)
		}
		if filter.DateRange.From != nil {
			q = q.Where("createdAt", ">=", filter.DateRange.From.UTC())
		}
		if filter.DateRange.To != nil {
			q = q.Where("createdAt", "<=", filter.DateRange.To.UTC())
		}
		q = q.OrderBy("createdAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)
		if len(cursor.StartAfter) > 0 {
			q = q.StartAfter(cursor.StartAfter...)
		}
		return q.Limit(pageSize + 1)
	})
	if err != nil {
		return domain.CursorPage[domain.Order]{}, err
	}

	hasMore := len(docs) > pageSize
	if hasMore {
		docs = docs[:pageSize]
	}

	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, doc.Data.toDomain(doc.ID))
	}

	var nextToken string
	if hasMore && len(docs) > 0 {
		last := docs[len(docs)-1]
		nextToken, err = pagination.EncodeToken(pagination.Cursor{StartAfter: []any{last.Data.CreatedAt, last.ID}})
		if err != nil {
			return domain.CursorPage[domain.Order]{}, err
		}
	}

	return domain.CursorPage[domain.Order]{Items: orders, NextPageToken: nextToken}, nil
}

// Delete removes the order document and releases the claimed order number.
func (r *OrderRepository) Delete(ctx context.Context, orderID string, orderNumber string) error {
	if r == nil || r.orders == nil {
		return errors.New("order repository not initialised")
	}
	if strings.TrimSpace(orderID) == "" {
		return errors.New("order delete: id is required")
	}
	if err := r.orders.Delete(ctx, orderID); err != nil {
		return err
	}
	if number := strings.TrimSpace(orderNumber); number != "" {
		return r.numbers.Delete(ctx, number)
	}
	return nil
}

// Helper structures ---------------------------------------------------------

type orderDocument struct {
	OrderNumber string              `firestore:"orderNumber"`
	Customer    string              `firestore:"customer"`
	Status      string              `firestore:"status"`
	Total       int64               `firestore:"total"`
	Items       []orderItemDocument `firestore:"items"`
	CreatedBy   string              `firestore:"createdBy"`
	CreatedAt   time.Time           `firestore:"createdAt"`
	UpdatedAt   time.Time           `firestore:"updatedAt"`
}

type orderItemDocument struct {
	ID        string `firestore:"id"`
	ProductID string `firestore:"productId"`
	Quantity  int    `firestore:"qty"`
	UnitPrice int64  `firestore:"unitPrice"`
}

func newOrderDocument(order domain.Order) orderDocument {
	items := make([]orderItemDocument, len(order.Items))
	for i, item := range order.Items {
		items[i] = orderItemDocument{
			ID:        strings.TrimSpace(item.ID),
			ProductID: strings.TrimSpace(item.ProductID),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}
	return orderDocument{
		OrderNumber: strings.TrimSpace(order.OrderNumber),
		Customer:    strings.TrimSpace(order.Customer),
		Status:      string(order.Status),
		Total:       order.Total,
		Items:       items,
		CreatedBy:   strings.TrimSpace(order.CreatedBy),
		CreatedAt:   order.CreatedAt.UTC(),
		UpdatedAt:   order.UpdatedAt.UTC(),
	}
}

func (d orderDocument) toDomain(id string) domain.Order {
	items := make([]domain.OrderItem, len(d.Items))
	for i, item := range d.Items {
		items[i] = domain.OrderItem{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}
	return domain.Order{
		ID:          id,
		OrderNumber: d.OrderNumber,
		Customer:    d.Customer,
		Status:      domain.OrderStatus(d.Status),
		Total:       d.Total,
		Items:       items,
		CreatedBy:   d.CreatedBy,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// classifyUniqueCreate converts an immediate already-exists failure on an
// index document into a DuplicateKeyError. Inside a transaction the same
// condition surfaces at commit time and is classified by the caller instead.
func classifyUniqueCreate(collection string, key string, err error) error {
	if err == nil {
		return nil
	}
	var repoErr *pfirestore.Error
	if errors.As(err, &repoErr) && repoErr.IsAlreadyExists() {
		return repositories.NewDuplicateKeyError(collection, key, err)
	}
	return err
}

func normalisePageSize(pageSize int) int {
	if pageSize <= 0 {
		return pagination.DefaultPageSize
	}
	if pageSize > pagination.DefaultMaxPageSize {
		return pagination.DefaultMaxPageSize
	}
	return pageSize
}
