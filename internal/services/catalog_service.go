package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/stockroom/api/internal/domain"
	"github.com/stockroom/api/internal/repositories"
)

const (
	entityTypeProduct     = "product"
	entityTypeRawMaterial = "raw_material"
	entityTypeWarehouse   = "warehouse"

	defaultRawMaterialUnit = "pcs"
)

// CatalogServiceDeps wires the catalogue service dependencies.
type CatalogServiceDeps struct {
	Registry    repositories.Registry
	IDGenerator IDGenerator
	Audit       AuditLogService
	Clock       func() time.Time
	Log         LogFunc
}

type catalogService struct {
	registry repositories.Registry
	newID    IDGenerator
	audit    AuditLogService
	clock    func() time.Time
	log      LogFunc
}

// NewCatalogService constructs the product, raw material and warehouse
// catalogue service.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Registry == nil {
		return nil, errors.New("catalog service requires a repository registry")
	}
	if deps.Audit == nil {
		return nil, errors.New("catalog service requires an audit log service")
	}
	return &catalogService{
		registry: deps.Registry,
		newID:    defaultIDGenerator(deps.IDGenerator),
		audit:    deps.Audit,
		clock:    defaultClock(deps.Clock),
		log:      defaultLog(deps.Log),
	}, nil
}

func parseProductStatus(raw string) (domain.ProductStatus, error) {
	switch status := domain.ProductStatus(strings.ToUpper(strings.TrimSpace(raw))); status {
	case "":
		return domain.ProductStatusActive, nil
	case domain.ProductStatusActive, domain.ProductStatusInactive:
		return status, nil
	default:
		return "", fmt.Errorf("%w: unknown product status %q", ErrValidation, raw)
	}
}

func (s *catalogService) CreateProduct(ctx context.Context, cmd UpsertProductCommand) (Product, error) {
	if strings.TrimSpace(cmd.SKU) == "" {
		return Product{}, fmt.Errorf("%w: sku is required", ErrValidation)
	}
	if strings.TrimSpace(cmd.Name) == "" {
		return Product{}, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if cmd.Price < 0 {
		return Product{}, fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	if cmd.Quantity < 0 {
		return Product{}, fmt.Errorf("%w: quantity must not be negative", ErrValidation)
	}
	status, err := parseProductStatus(cmd.Status)
	if err != nil {
		return Product{}, err
	}
	if err := s.checkWarehouse(ctx, cmd.WarehouseID); err != nil {
		return Product{}, err
	}

	now := s.clock().UTC()
	product := Product{
		ID:          s.newID(),
		SKU:         strings.TrimSpace(cmd.SKU),
		Name:        strings.TrimSpace(cmd.Name),
		Price:       cmd.Price,
		Quantity:    cmd.Quantity,
		WarehouseID: cmd.WarehouseID,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.registry.Products().Insert(ctx, product); err != nil {
		if repositories.IsUniqueViolation(err) {
			return Product{}, fmt.Errorf("%w: %s", ErrDuplicateSKU, product.SKU)
		}
		return Product{}, err
	}

	s.recordAudit(ctx, cmd.ActorID, domain.AuditActionCreate, entityTypeProduct, product.ID, map[string]any{
		"sku":  product.SKU,
		"name": product.Name,
	})
	return product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, cmd UpsertProductCommand) (Product, error) {
	if cmd.ID == "" {
		return Product{}, fmt.Errorf("%w: product id is required", ErrValidation)
	}
	if strings.TrimSpace(cmd.Name) == "" {
		return Product{}, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if cmd.Price < 0 {
		return Product{}, fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	if cmd.Quantity < 0 {
		return Product{}, fmt.Errorf("%w: quantity must not be negative", ErrValidation)
	}
	status, err := parseProductStatus(cmd.Status)
	if err != nil {
		return Product{}, err
	}

	current, err := s.registry.Products().FindByID(ctx, cmd.ID)
	if err != nil {
		if isNotFound(err) {
			return Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, cmd.ID)
		}
		return Product{}, err
	}
	if sku := strings.TrimSpace(cmd.SKU); sku != "" && sku != current.SKU {
		return Product{}, fmt.Errorf("%w: sku cannot be changed", ErrValidation)
	}
	if err := s.checkWarehouse(ctx, cmd.WarehouseID); err != nil {
		return Product{}, err
	}

	current.Name = strings.TrimSpace(cmd.Name)
	current.Price = cmd.Price
	current.Quantity = cmd.Quantity
	current.WarehouseID = cmd.WarehouseID
	current.Status = status
	current.UpdatedAt = s.clock().UTC()
	if err := s.registry.Products().Update(ctx, current); err != nil {
		return Product{}, err
	}

	s.recordAudit(ctx, cmd.ActorID, domain.AuditActionUpdate, entityTypeProduct, current.ID, map[string]any{
		"sku":  current.SKU,
		"name": current.Name,
	})
	return current, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, productID string, actorID string) error {
	if productID == "" {
		return fmt.Errorf("%w: product id is required", ErrValidation)
	}
	product, err := s.registry.Products().FindByID(ctx, productID)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", ErrProductNotFound, productID)
		}
		return err
	}
	if err := s.registry.Products().Delete(ctx, product.ID, product.SKU); err != nil {
		return err
	}

	s.recordAudit(ctx, actorID, domain.AuditActionDelete, entityTypeProduct, product.ID, map[string]any{
		"sku": product.SKU,
	})
	return nil
}

func (s *catalogService) GetProduct(ctx context.Context, productID string) (Product, error) {
	if productID == "" {
		return Product{}, fmt.Errorf("%w: product id is required", ErrValidation)
	}
	product, err := s.registry.Products().FindByID(ctx, productID)
	if err != nil {
		if isNotFound(err) {
			return Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
		}
		return Product{}, err
	}
	return product, nil
}

func (s *catalogService) ListProducts(ctx context.Context, filter ProductListFilter) (domain.CursorPage[Product], error) {
	statuses := make([]domain.ProductStatus, 0, len(filter.Status))
	for _, raw := range filter.Status {
		status, err := parseProductStatus(raw)
		if err != nil {
			return domain.CursorPage[Product]{}, err
		}
		statuses = append(statuses, status)
	}
	return s.registry.Products().List(ctx, repositories.ProductListFilter{
		WarehouseID: filter.WarehouseID,
		Status:      statuses,
		Pagination:  filter.Pagination,
	})
}

func parseRawMaterialStatus(raw string) (domain.RawMaterialStatus, error) {
	switch status := domain.RawMaterialStatus(strings.ToUpper(strings.TrimSpace(raw))); status {
	case "":
		return domain.RawMaterialStatusActive, nil
	case domain.RawMaterialStatusActive, domain.RawMaterialStatusInactive:
		return status, nil
	default:
		return "", fmt.Errorf("%w: unknown raw material status %q", ErrValidation, raw)
	}
}

func (s *catalogService) CreateRawMaterial(ctx context.Context, cmd UpsertRawMaterialCommand) (RawMaterial, error) {
	if strings.TrimSpace(cmd.SKU) == "" {
		return RawMaterial{}, fmt.Errorf("%w: sku is required", ErrValidation)
	}
	if strings.TrimSpace(cmd.Name) == "" {
		return RawMaterial{}, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if cmd.Quantity < 0 {
		return RawMaterial{}, fmt.Errorf("%w: quantity must not be negative", ErrValidation)
	}
	if cmd.ReorderAt < 0 {
		return RawMaterial{}, fmt.Errorf("%w: reorder level must not be negative", ErrValidation)
	}
	status, err := parseRawMaterialStatus(cmd.Status)
	if err != nil {
		return RawMaterial{}, err
	}
	unit := strings.TrimSpace(cmd.Unit)
	if unit == "" {
		unit = defaultRawMaterialUnit
	}

	now := s.clock().UTC()
	material := RawMaterial{
		ID:          s.newID(),
		SKU:         strings.TrimSpace(cmd.SKU),
		Name:        strings.TrimSpace(cmd.Name),
		Description: strings.TrimSpace(cmd.Description),
		Unit:        unit,
		Quantity:    cmd.Quantity,
		ReorderAt:   cmd.ReorderAt,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.registry.RawMaterials().Insert(ctx, material); err != nil {
		if repositories.IsUniqueViolation(err) {
			return RawMaterial{}, fmt.Errorf("%w: %s", ErrDuplicateSKU, material.SKU)
		}
		return RawMaterial{}, err
	}

	s.recordAudit(ctx, cmd.ActorID, domain.AuditActionCreate, entityTypeRawMaterial, material.ID, map[string]any{
		"sku":  material.SKU,
		"name": material.Name,
	})
	return material, nil
}

func (s *catalogService) UpdateRawMaterial(ctx context.Context, cmd UpsertRawMaterialCommand) (RawMaterial, error) {
	if cmd.ID == "" {
		return RawMaterial{}, fmt.Errorf("%w: raw material id is required", ErrValidation)
	}
	if strings.TrimSpace(cmd.Name) == "" {
		return RawMaterial{}, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if cmd.Quantity < 0 {
		return RawMaterial{}, fmt.Errorf("%w: quantity must not be negative", ErrValidation)
	}
	if cmd.ReorderAt < 0 {
		return RawMaterial{}, fmt.Errorf("%w: reorder level must not be negative", ErrValidation)
	}
	status, err := parseRawMaterialStatus(cmd.Status)
	if err != nil {
		return RawMaterial{}, err
	}

	current, err := s.registry.RawMaterials().FindByID(ctx, cmd.ID)
	if err != nil {
		if isNotFound(err) {
			return RawMaterial{}, fmt.Errorf("%w: %s", ErrRawMaterialNotFound, cmd.ID)
		}
		return RawMaterial{}, err
	}
	if sku := strings.TrimSpace(cmd.SKU); sku != "" && sku != current.SKU {
		return RawMaterial{}, fmt.Errorf("%w: sku cannot be changed", ErrValidation)
	}

	current.Name = strings.TrimSpace(cmd.Name)
	current.Description = strings.TrimSpace(cmd.Description)
	if unit := strings.TrimSpace(cmd.Unit); unit != "" {
		current.Unit = unit
	}
	current.Quantity = cmd.Quantity
	current.ReorderAt = cmd.ReorderAt
	current.Status = status
	current.UpdatedAt = s.clock().UTC()
	if err := s.registry.RawMaterials().Update(ctx, current); err != nil {
		return RawMaterial{}, err
	}

	s.recordAudit(ctx, cmd.ActorID, domain.AuditActionUpdate, entityTypeRawMaterial, current.ID, map[string]any{
		"sku":  current.SKU,
		"name": current.Name,
	})
	return current, nil
}

func (s *catalogService) DeleteRawMaterial(ctx context.Context, materialID string, actorID string) error {
	if materialID == "" {
		return fmt.Errorf("%w: raw material id is required", ErrValidation)
	}
	material, err := s.registry.RawMaterials().FindByID(ctx, materialID)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", ErrRawMaterialNotFound, materialID)
		}
		return err
	}
	if err := s.registry.RawMaterials().Delete(ctx, material.ID, material.SKU); err != nil {
		return err
	}

	s.recordAudit(ctx, actorID, domain.AuditActionDelete, entityTypeRawMaterial, material.ID, map[string]any{
		"sku": material.SKU,
	})
	return nil
}

func (s *catalogService) GetRawMaterial(ctx context.Context, materialID string) (RawMaterial, error) {
	if materialID == "" {
		return RawMaterial{}, fmt.Errorf("%w: raw material id is required", ErrValidation)
	}
	material, err := s.registry.RawMaterials().FindByID(ctx, materialID)
	if err != nil {
		if isNotFound(err) {
			return RawMaterial{}, fmt.Errorf("%w: %s", ErrRawMaterialNotFound, materialID)
		}
		return RawMaterial{}, err
	}
	return material, nil
}

func (s *catalogService) ListRawMaterials(ctx context.Context, filter RawMaterialListFilter) (domain.CursorPage[RawMaterial], error) {
	statuses := make([]domain.RawMaterialStatus, 0, len(filter.Status))
	for _, raw := range filter.Status {
		status, err := parseRawMaterialStatus(raw)
		if err != nil {
			return domain.CursorPage[RawMaterial]{}, err
		}
		statuses = append(statuses, status)
	}
	return s.registry.RawMaterials().List(ctx, repositories.RawMaterialListFilter{
		Status:     statuses,
		Pagination: filter.Pagination,
	})
}

func (s *catalogService) CreateWarehouse(ctx context.Context, cmd UpsertWarehouseCommand) (Warehouse, error) {
	if strings.TrimSpace(cmd.Name) == "" {
		return Warehouse{}, fmt.Errorf("%w: name is required", ErrValidation)
	}

	now := s.clock().UTC()
	warehouse := Warehouse{
		ID:        s.newID(),
		Name:      strings.TrimSpace(cmd.Name),
		Location:  strings.TrimSpace(cmd.Location),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.registry.Warehouses().Insert(ctx, warehouse); err != nil {
		return Warehouse{}, err
	}

	s.recordAudit(ctx, cmd.ActorID, domain.AuditActionCreate, entityTypeWarehouse, warehouse.ID, map[string]any{
		"name": warehouse.Name,
	})
	return warehouse, nil
}

func (s *catalogService) UpdateWarehouse(ctx context.Context, cmd UpsertWarehouseCommand) (Warehouse, error) {
	if cmd.ID == "" {
		return Warehouse{}, fmt.Errorf("%w: warehouse id is required", ErrValidation)
	}
	if strings.TrimSpace(cmd.Name) == "" {
		return Warehouse{}, fmt.Errorf("%w: name is required", ErrValidation)
	}

	current, err := s.registry.Warehouses().FindByID(ctx, cmd.ID)
	if err != nil {
		if isNotFound(err) {
			return Warehouse{}, fmt.Errorf("%w: %s", ErrWarehouseNotFound, cmd.ID)
		}
		return Warehouse{}, err
	}

	current.Name = strings.TrimSpace(cmd.Name)
	current.Location = strings.TrimSpace(cmd.Location)
	current.UpdatedAt = s.clock().UTC()
	if err := s.registry.Warehouses().Update(ctx, current); err != nil {
		return Warehouse{}, err
	}

	s.recordAudit(ctx, cmd.ActorID, domain.AuditActionUpdate, entityTypeWarehouse, current.ID, map[string]any{
		"name": current.Name,
	})
	return current, nil
}

func (s *catalogService) DeleteWarehouse(ctx context.Context, warehouseID string, actorID string) error {
	if warehouseID == "" {
		return fmt.Errorf("%w: warehouse id is required", ErrValidation)
	}
	if err := s.registry.Warehouses().Delete(ctx, warehouseID); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", ErrWarehouseNotFound, warehouseID)
		}
		return err
	}

	s.recordAudit(ctx, actorID, domain.AuditActionDelete, entityTypeWarehouse, warehouseID, nil)
	return nil
}

func (s *catalogService) GetWarehouse(ctx context.Context, warehouseID string) (Warehouse, error) {
	if warehouseID == "" {
		return Warehouse{}, fmt.Errorf("%w: warehouse id is required", ErrValidation)
	}
	warehouse, err := s.registry.Warehouses().FindByID(ctx, warehouseID)
	if err != nil {
		if isNotFound(err) {
			return Warehouse{}, fmt.Errorf("%w: %s", ErrWarehouseNotFound, warehouseID)
		}
		return Warehouse{}, err
	}
	return warehouse, nil
}

func (s *catalogService) ListWarehouses(ctx context.Context, pager Pagination) (domain.CursorPage[Warehouse], error) {
	return s.registry.Warehouses().List(ctx, pager)
}

func (s *catalogService) checkWarehouse(ctx context.Context, warehouseID string) error {
	if warehouseID == "" {
		return nil
	}
	if _, err := s.registry.Warehouses().FindByID(ctx, warehouseID); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", ErrWarehouseNotFound, warehouseID)
		}
		return err
	}
	return nil
}

func (s *catalogService) recordAudit(ctx context.Context, actorID string, action domain.AuditAction, entityType, entityID string, details map[string]any) {
	s.audit.Record(ctx, AuditLogRecord{
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		OccurredAt: s.clock().UTC(),
	})
}
