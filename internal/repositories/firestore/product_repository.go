package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/stockroom/api/internal/domain"
	pfirestore "github.com/stockroom/api/internal/platform/firestore"
	"github.com/stockroom/api/internal/platform/pagination"
	"github.com/stockroom/api/internal/repositories"
)

const (
	productsCollection    = "products"
	productSKUsCollection = "productSKUs"
)

// ProductRepository owns the product catalogue including the on-hand stock
// counters contended by concurrent order writes.
type ProductRepository struct {
	provider *pfirestore.Provider
	products *pfirestore.BaseRepository[productDocument]
	skus     *pfirestore.BaseRepository[map[string]any]
}

func NewProductRepository(provider *pfirestore.Provider) (*ProductRepository, error) {
	if provider == nil {
		return nil, errors.New("product repository requires firestore provider")
	}
	products := pfirestore.NewBaseRepository[productDocument](provider, productsCollection, nil, nil)
	skus := pfirestore.NewBaseRepository[map[string]any](provider, productSKUsCollection, pfirestore.MapEncoder[map[string]any](), pfirestore.MapDecoder())
	return &ProductRepository{provider: provider, products: products, skus: skus}, nil
}

// Insert writes the product document and claims its SKU. Both writes happen
// in one transaction so a failed product create never leaves the SKU claimed.
// The SKU index is read first; a taken SKU fails before any write is issued.
func (r *ProductRepository) Insert(ctx context.Context, product domain.Product) error {
	if r == nil || r.products == nil {
		return errors.New("product repository not initialised")
	}
	if strings.TrimSpace(product.ID) == "" {
		return errors.New("product insert: id is required")
	}
	sku := strings.TrimSpace(product.SKU)
	if sku == "" {
		return errors.New("product insert: sku is required")
	}

	insert := func(ctx context.Context) error {
		_, err := r.skus.Get(ctx, sku)
		switch {
		case err == nil:
			return repositories.NewDuplicateKeyError(productSKUsCollection, sku, nil)
		case isNotFound(err):
			// sku is free
		default:
			return err
		}

		if _, err := r.skus.Create(ctx, sku, map[string]any{
			"productId": product.ID,
			"createdAt": product.CreatedAt.UTC(),
		}); err != nil {
			return classifyUniqueCreate(productSKUsCollection, sku, err)
		}
		if _, err := r.products.Create(ctx, product.ID, newProductDocument(product)); err != nil {
			return err
		}
		return nil
	}

	if _, ok := pfirestore.TransactionFromContext(ctx); ok {
		return insert(ctx)
	}
	return r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		return insert(pfirestore.WithTransaction(ctx, tx))
	})
}

// Update replaces the product document. The SKU is immutable once claimed;
// callers validate that before reaching the repository.
func (r *ProductRepository) Update(ctx context.Context, product domain.Product) error {
	if r == nil || r.products == nil {
		return errors.New("product repository not initialised")
	}
	if strings.TrimSpace(product.ID) == "" {
		return errors.New("product update: id is required")
	}
	_, err := r.products.Set(ctx, product.ID, newProductDocument(product))
	return err
}

// Delete removes the product document and releases its SKU.
func (r *ProductRepository) Delete(ctx context.Context, productID string, sku string) error {
	if r == nil || r.products == nil {
		return errors.New("product repository not initialised")
	}
	if strings.TrimSpace(productID) == "" {
		return errors.New("product delete: id is required")
	}
	if err := r.products.Delete(ctx, productID); err != nil {
		return err
	}
	if sku = strings.TrimSpace(sku); sku != "" {
		return r.skus.Delete(ctx, sku)
	}
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	if r == nil || r.products == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	if strings.TrimSpace(productID) == "" {
		return domain.Product{}, errors.New("product find: id is required")
	}
	doc, err := r.products.Get(ctx, productID)
	if err != nil {
		return domain.Product{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// FindByIDs batch-reads the requested products. Missing ids are absent from
// the result; callers compare against the requested set.
func (r *ProductRepository) FindByIDs(ctx context.Context, productIDs []string) ([]domain.Product, error) {
	if r == nil || r.products == nil {
		return nil, errors.New("product repository not initialised")
	}
	docs, err := r.products.GetAll(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	products := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		products = append(products, doc.Data.toDomain(doc.ID))
	}
	return products, nil
}

func (r *ProductRepository) List(ctx context.Context, filter repositories.ProductListFilter) (domain.CursorPage[domain.Product], error) {
	if r == nil || r.products == nil {
		return domain.CursorPage[domain.Product]{}, errors.New("product repository not initialised")
	}

	pageSize := normalisePageSize(filter.Pagination.PageSize)
	cursor, err := pagination.DecodeToken(filter.Pagination.PageToken)
	if err != nil {
		return domain.CursorPage[domain.Product]{}, err
	}

	docs, err := r.products.Query(ctx, func(q firestore.Query) firestore.Query {
		if warehouseID := strings.TrimSpace(filter.WarehouseID); warehouseID != "" {
			q = q.Where("warehouseId", "==", warehouseID)
		}
		if len(filter.Status) > 0 {
			statuses := make([]string, 0, len(filter.Status))
			for _, s := range filter.Status {
				statuses = append(statuses, string(s))
			}
			q = q.Where("status", "in", statuses)
		}
		q = q.OrderBy("name", firestore.Asc).OrderBy(firestore.DocumentID, firestore.Asc)
		if len(cursor.StartAfter) > 0 {
			q = q.StartAfter(cursor.StartAfter...)
		}
		return q.Limit(pageSize + 1)
	})
	if err != nil {
		return domain.CursorPage[domain.Product]{}, err
	}

	hasMore := len(docs) > pageSize
	if hasMore {
		docs = docs[:pageSize]
	}

	products := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		products = append(products, doc.Data.toDomain(doc.ID))
	}

	var nextToken string
	if hasMore && len(docs) > 0 {
		last := docs[len(docs)-1]
		nextToken, err = pagination.EncodeToken(pagination.Cursor{StartAfter: []any{last.Data.Name, last.ID}})
		if err != nil {
			return domain.CursorPage[domain.Product]{}, err
		}
	}

	return domain.CursorPage[domain.Product]{Items: products, NextPageToken: nextToken}, nil
}

// DecrementStock applies an atomic negative delta to the on-hand quantity.
// Sufficiency is checked by the caller inside the same transaction before
// any write is issued.
func (r *ProductRepository) DecrementStock(ctx context.Context, productID string, quantity int) error {
	return r.adjustStock(ctx, productID, -quantity)
}

// IncrementStock applies an atomic positive delta to the on-hand quantity.
func (r *ProductRepository) IncrementStock(ctx context.Context, productID string, quantity int) error {
	return r.adjustStock(ctx, productID, quantity)
}

func (r *ProductRepository) adjustStock(ctx context.Context, productID string, delta int) error {
	if r == nil || r.products == nil {
		return errors.New("product repository not initialised")
	}
	if strings.TrimSpace(productID) == "" {
		return errors.New("product stock: id is required")
	}
	if delta == 0 {
		return nil
	}
	_, err := r.products.Update(ctx, productID, []firestore.Update{
		{Path: "qty", Value: firestore.Increment(delta)},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		var repoErr *pfirestore.Error
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return &repositories.StockError{
				Code:      repositories.StockErrorProductNotFound,
				ProductID: productID,
				Message:   fmt.Sprintf("product %s not found", productID),
				Err:       err,
			}
		}
		return err
	}
	return nil
}

// Helper structures ---------------------------------------------------------

type productDocument struct {
	SKU         string    `firestore:"sku"`
	Name        string    `firestore:"name"`
	Price       int64     `firestore:"price"`
	Quantity    int       `firestore:"qty"`
	WarehouseID string    `firestore:"warehouseId"`
	Status      string    `firestore:"status"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

func newProductDocument(product domain.Product) productDocument {
	return productDocument{
		SKU:         strings.TrimSpace(product.SKU),
		Name:        strings.TrimSpace(product.Name),
		Price:       product.Price,
		Quantity:    product.Quantity,
		WarehouseID: strings.TrimSpace(product.WarehouseID),
		Status:      string(product.Status),
		CreatedAt:   product.CreatedAt.UTC(),
		UpdatedAt:   product.UpdatedAt.UTC(),
	}
}

func (d productDocument) toDomain(id string) domain.Product {
	return domain.Product{
		ID:          id,
		SKU:         d.SKU,
		Name:        d.Name,
		Price:       d.Price,
		Quantity:    d.Quantity,
		WarehouseID: d.WarehouseID,
		Status:      domain.ProductStatus(d.Status),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}
