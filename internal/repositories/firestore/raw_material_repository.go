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
	rawMaterialsCollection    = "rawMaterials"
	rawMaterialSKUsCollection = "rawMaterialSKUs"
)

// RawMaterialRepository stores production inputs. Raw material SKUs live in
// their own index collection, separate from product SKUs.
type RawMaterialRepository struct {
	provider  *pfirestore.Provider
	materials *pfirestore.BaseRepository[rawMaterialDocument]
	skus      *pfirestore.BaseRepository[map[string]any]
}

func NewRawMaterialRepository(provider *pfirestore.Provider) (*RawMaterialRepository, error) {
	if provider == nil {
		return nil, errors.New("raw material repository requires firestore provider")
	}
	materials := pfirestore.NewBaseRepository[rawMaterialDocument](provider, rawMaterialsCollection, nil, nil)
	skus := pfirestore.NewBaseRepository[map[string]any](provider, rawMaterialSKUsCollection, pfirestore.MapEncoder[map[string]any](), pfirestore.MapDecoder())
	return &RawMaterialRepository{provider: provider, materials: materials, skus: skus}, nil
}

// Insert writes the raw material document and claims its SKU in a single
// transaction, reading the SKU index first so a taken SKU fails before any
// write is issued.
func (r *RawMaterialRepository) Insert(ctx context.Context, material domain.RawMaterial) error {
	if r == nil || r.materials == nil {
		return errors.New("raw material repository not initialised")
	}
	if strings.TrimSpace(material.ID) == "" {
		return errors.New("raw material insert: id is required")
	}
	sku := strings.TrimSpace(material.SKU)
	if sku == "" {
		return errors.New("raw material insert: sku is required")
	}

	insert := func(ctx context.Context) error {
		_, err := r.skus.Get(ctx, sku)
		switch {
		case err == nil:
			return repositories.NewDuplicateKeyError(rawMaterialSKUsCollection, sku, nil)
		case isNotFound(err):
			// sku is free
		default:
			return err
		}

		if _, err := r.skus.Create(ctx, sku, map[string]any{
			"materialId": material.ID,
			"createdAt":  material.CreatedAt.UTC(),
		}); err != nil {
			return classifyUniqueCreate(rawMaterialSKUsCollection, sku, err)
		}
		if _, err := r.materials.Create(ctx, material.ID, newRawMaterialDocument(material)); err != nil {
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

// Update replaces the raw material document. The SKU is immutable once
// claimed; callers validate that before reaching the repository.
func (r *RawMaterialRepository) Update(ctx context.Context, material domain.RawMaterial) error {
	if r == nil || r.materials == nil {
		return errors.New("raw material repository not initialised")
	}
	if strings.TrimSpace(material.ID) == "" {
		return errors.New("raw material update: id is required")
	}
	_, err := r.materials.Set(ctx, material.ID, newRawMaterialDocument(material))
	return err
}

// Delete removes the raw material document and releases its SKU.
func (r *RawMaterialRepository) Delete(ctx context.Context, materialID string, sku string) error {
	if r == nil || r.materials == nil {
		return errors.New("raw material repository not initialised")
	}
	if strings.TrimSpace(materialID) == "" {
		return errors.New("raw material delete: id is required")
	}
	if err := r.materials.Delete(ctx, materialID); err != nil {
		return err
	}
	if sku = strings.TrimSpace(sku); sku != "" {
		return r.skus.Delete(ctx, sku)
	}
	return nil
}

func (r *RawMaterialRepository) FindByID(ctx context.Context, materialID string) (domain.RawMaterial, error) {
	if r == nil || r.materials == nil {
		return domain.RawMaterial{}, errors.New("raw material repository not initialised")
	}
	if strings.TrimSpace(materialID) == "" {
		return domain.RawMaterial{}, errors.New("raw material find: id is required")
	}
	doc, err := r.materials.Get(ctx, materialID)
	if err != nil {
		return domain.RawMaterial{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

func (r *RawMaterialRepository) List(ctx context.Context, filter repositories.RawMaterialListFilter) (domain.CursorPage[domain.RawMaterial], error) {
	if r == nil || r.materials == nil {
		return domain.CursorPage[domain.RawMaterial]{}, errors.New("raw material repository not initialised")
	}

	pageSize := normalisePageSize(filter.Pagination.PageSize)
	cursor, err := pagination.DecodeToken(filter.Pagination.PageToken)
	if err != nil {
		return domain.CursorPage[domain.RawMaterial]{}, err
	}

	docs, err := r.materials.Query(ctx, func(q firestore.Query) firestore.Query {
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
		return domain.CursorPage[domain.RawMaterial]{}, err
	}

	hasMore := len(docs) > pageSize
	if hasMore {
		docs = docs[:pageSize]
	}

	materials := make([]domain.RawMaterial, 0, len(docs))
	for _, doc := range docs {
		materials = append(materials, doc.Data.toDomain(doc.ID))
	}

	var nextToken string
	if hasMore && len(docs) > 0 {
		last := docs[len(docs)-1]
		nextToken, err = pagination.EncodeToken(pagination.Cursor{StartAfter: []any{last.Data.Name, last.ID}})
		if err != nil {
			return domain.CursorPage[domain.RawMaterial]{}, err
		}
	}

	return domain.CursorPage[domain.RawMaterial]{Items: materials, NextPageToken: nextToken}, nil
}

// Helper structures ---------------------------------------------------------

type rawMaterialDocument struct {
	SKU         string    `firestore:"sku"`
	Name        string    `firestore:"name"`
	Description string    `firestore:"description,omitempty"`
	Unit        string    `firestore:"unit"`
	Quantity    int       `firestore:"qty"`
	ReorderAt   int       `firestore:"reorderAt"`
	Status      string    `firestore:"status"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

func newRawMaterialDocument(material domain.RawMaterial) rawMaterialDocument {
	return rawMaterialDocument{
		SKU:         strings.TrimSpace(material.SKU),
		Name:        strings.TrimSpace(material.Name),
		Description: strings.TrimSpace(material.Description),
		Unit:        strings.TrimSpace(material.Unit),
		Quantity:    material.Quantity,
		ReorderAt:   material.ReorderAt,
		Status:      string(material.Status),
		CreatedAt:   material.CreatedAt.UTC(),
		UpdatedAt:   material.UpdatedAt.UTC(),
	}
}

func (d rawMaterialDocument) toDomain(id string) domain.RawMaterial {
	return domain.RawMaterial{
		ID:          id,
		SKU:         d.SKU,
		Name:        d.Name,
		Description: d.Description,
		Unit:        d.Unit,
		Quantity:    d.Quantity,
		ReorderAt:   d.ReorderAt,
		Status:      domain.RawMaterialStatus(d.Status),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}
