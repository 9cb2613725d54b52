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
)

const warehousesCollection = "warehouses"

// WarehouseRepository stores warehouse locations.
type WarehouseRepository struct {
	warehouses *pfirestore.BaseRepository[warehouseDocument]
}

func NewWarehouseRepository(provider *pfirestore.Provider) (*WarehouseRepository, error) {
	if provider == nil {
		return nil, errors.New("warehouse repository requires firestore provider")
	}
	warehouses := pfirestore.NewBaseRepository[warehouseDocument](provider, warehousesCollection, nil, nil)
	return &WarehouseRepository{warehouses: warehouses}, nil
}

func (r *WarehouseRepository) Insert(ctx context.Context, warehouse domain.Warehouse) error {
	if r == nil || r.warehouses == nil {
		return errors.New("warehouse repository not initialised")
	}
	if strings.TrimSpace(warehouse.ID) == "" {
		return errors.New("warehouse insert: id is required")
	}
	_, err := r.warehouses.Create(ctx, warehouse.ID, newWarehouseDocument(warehouse))
	return err
}

func (r *WarehouseRepository) Update(ctx context.Context, warehouse domain.Warehouse) error {
	if r == nil || r.warehouses == nil {
		return errors.New("warehouse repository not initialised")
	}
	if strings.TrimSpace(warehouse.ID) == "" {
		return errors.New("warehouse update: id is required")
	}
	_, err := r.warehouses.Set(ctx, warehouse.ID, newWarehouseDocument(warehouse))
	return err
}

func (r *WarehouseRepository) Delete(ctx context.Context, warehouseID string) error {
	if r == nil || r.warehouses == nil {
		return errors.New("warehouse repository not initialised")
	}
	if strings.TrimSpace(warehouseID) == "" {
		return errors.New("warehouse delete: id is required")
	}
	return r.warehouses.Delete(ctx, warehouseID)
}

func (r *WarehouseRepository) FindByID(ctx context.Context, warehouseID string) (domain.Warehouse, error) {
	if r == nil || r.warehouses == nil {
		return domain.Warehouse{}, errors.New("warehouse repository not initialised")
	}
	if strings.TrimSpace(warehouseID) == "" {
		return domain.Warehouse{}, errors.New("warehouse find: id is required")
	}
	doc, err := r.warehouses.Get(ctx, warehouseID)
	if err != nil {
		return domain.Warehouse{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

func (r *WarehouseRepository) List(ctx context.Context, pager domain.Pagination) (domain.CursorPage[domain.Warehouse], error) {
	if r == nil || r.warehouses == nil {
		return domain.CursorPage[domain.Warehouse]{}, errors.New("warehouse repository not initialised")
	}

	pageSize := normalisePageSize(pager.PageSize)
	cursor, err := pagination.DecodeToken(pager.PageToken)
	if err != nil {
		return domain.CursorPage[domain.Warehouse]{}, err
	}

	docs, err := r.warehouses.Query(ctx, func(q firestore.Query) firestore.Query {
		q = q.OrderBy("name", firestore.Asc).OrderBy(firestore.DocumentID, firestore.Asc)
		if len(cursor.StartAfter) > 0 {
			q = q.StartAfter(cursor.StartAfter...)
		}
		return q.Limit(pageSize + 1)
	})
	if err != nil {
		return domain.CursorPage[domain.Warehouse]{}, err
	}

	hasMore := len(docs) > pageSize
	if hasMore {
		docs = docs[:pageSize]
	}

	warehouses := make([]domain.Warehouse, 0, len(docs))
	for _, doc := range docs {
		warehouses = append(warehouses, doc.Data.toDomain(doc.ID))
	}

	var nextToken string
	if hasMore && len(docs) > 0 {
		last := docs[len(docs)-1]
		nextToken, err = pagination.EncodeToken(pagination.Cursor{StartAfter: []any{last.Data.Name, last.ID}})
		if err != nil {
			return domain.CursorPage[domain.Warehouse]{}, err
		}
	}

	return domain.CursorPage[domain.Warehouse]{Items: warehouses, NextPageToken: nextToken}, nil
}

type warehouseDocument struct {
	Name      string    `firestore:"name"`
	Location  string    `firestore:"location"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func newWarehouseDocument(warehouse domain.Warehouse) warehouseDocument {
	return warehouseDocument{
		Name:      strings.TrimSpace(warehouse.Name),
		Location:  strings.TrimSpace(warehouse.Location),
		CreatedAt: warehouse.CreatedAt.UTC(),
		UpdatedAt: warehouse.UpdatedAt.UTC(),
	}
}

func (d warehouseDocument) toDomain(id string) domain.Warehouse {
	return domain.Warehouse{
		ID:        id,
		Name:      d.Name,
		Location:  d.Location,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
