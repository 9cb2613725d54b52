package handlers

import (
	"context"
	"net/http"

	domain "github.com/stockroom/api/internal/domain"
	"github.com/stockroom/api/internal/platform/auth"
	"github.com/stockroom/api/internal/services"
)

type stubOrderService struct {
	createFn func(ctx context.Context, cmd services.CreateOrderCommand) (services.Order, error)
	getFn    func(ctx context.Context, orderID string) (services.Order, error)
	listFn   func(ctx context.Context, filter services.OrderListFilter) (domain.CursorPage[services.Order], error)
	updateFn func(ctx context.Context, cmd services.UpdateOrderStatusCommand) (services.Order, error)
	deleteFn func(ctx context.Context, cmd services.DeleteOrderCommand) error
}

func (s *stubOrderService) Create(ctx context.Context, cmd services.CreateOrderCommand) (services.Order, error) {
	return s.createFn(ctx, cmd)
}

func (s *stubOrderService) Get(ctx context.Context, orderID string) (services.Order, error) {
	return s.getFn(ctx, orderID)
}

func (s *stubOrderService) List(ctx context.Context, filter services.OrderListFilter) (domain.CursorPage[services.Order], error) {
	return s.listFn(ctx, filter)
}

func (s *stubOrderService) UpdateStatus(ctx context.Context, cmd services.UpdateOrderStatusCommand) (services.Order, error) {
	return s.updateFn(ctx, cmd)
}

func (s *stubOrderService) Delete(ctx context.Context, cmd services.DeleteOrderCommand) error {
	return s.deleteFn(ctx, cmd)
}

type stubInvoiceService struct {
	createFn func(ctx context.Context, cmd services.CreateInvoiceCommand) (services.Invoice, error)
	getFn    func(ctx context.Context, invoiceID string) (services.Invoice, error)
	listFn   func(ctx context.Context, filter services.InvoiceListFilter) (domain.CursorPage[services.Invoice], error)
	updateFn func(ctx context.Context, cmd services.UpdateInvoiceCommand) (services.Invoice, error)
	deleteFn func(ctx context.Context, cmd services.DeleteInvoiceCommand) error
}

func (s *stubInvoiceService) Create(ctx context.Context, cmd services.CreateInvoiceCommand) (services.Invoice, error) {
	return s.createFn(ctx, cmd)
}

func (s *stubInvoiceService) Get(ctx context.Context, invoiceID string) (services.Invoice, error) {
	return s.getFn(ctx, invoiceID)
}

func (s *stubInvoiceService) List(ctx context.Context, filter services.InvoiceListFilter) (domain.CursorPage[services.Invoice], error) {
	return s.listFn(ctx, filter)
}

func (s *stubInvoiceService) Update(ctx context.Context, cmd services.UpdateInvoiceCommand) (services.Invoice, error) {
	return s.updateFn(ctx, cmd)
}

func (s *stubInvoiceService) Delete(ctx context.Context, cmd services.DeleteInvoiceCommand) error {
	return s.deleteFn(ctx, cmd)
}

type stubCatalogService struct {
	createProductFn   func(ctx context.Context, cmd services.UpsertProductCommand) (services.Product, error)
	updateProductFn   func(ctx context.Context, cmd services.UpsertProductCommand) (services.Product, error)
	deleteProductFn   func(ctx context.Context, productID string, actorID string) error
	getProductFn      func(ctx context.Context, productID string) (services.Product, error)
	listProductsFn    func(ctx context.Context, filter services.ProductListFilter) (domain.CursorPage[services.Product], error)
	createMaterialFn  func(ctx context.Context, cmd services.UpsertRawMaterialCommand) (services.RawMaterial, error)
	updateMaterialFn  func(ctx context.Context, cmd services.UpsertRawMaterialCommand) (services.RawMaterial, error)
	deleteMaterialFn  func(ctx context.Context, materialID string, actorID string) error
	getMaterialFn     func(ctx context.Context, materialID string) (services.RawMaterial, error)
	listMaterialsFn   func(ctx context.Context, filter services.RawMaterialListFilter) (domain.CursorPage[services.RawMaterial], error)
	createWarehouseFn func(ctx context.Context, cmd services.UpsertWarehouseCommand) (services.Warehouse, error)
	updateWarehouseFn func(ctx context.Context, cmd services.UpsertWarehouseCommand) (services.Warehouse, error)
	deleteWarehouseFn func(ctx context.Context, warehouseID string, actorID string) error
	getWarehouseFn    func(ctx context.Context, warehouseID string) (services.Warehouse, error)
	listWarehousesFn  func(ctx context.Context, pager services.Pagination) (domain.CursorPage[services.Warehouse], error)
}

func (s *stubCatalogService) CreateProduct(ctx context.Context, cmd services.UpsertProductCommand) (services.Product, error) {
	return s.createProductFn(ctx, cmd)
}

func (s *stubCatalogService) UpdateProduct(ctx context.Context, cmd services.UpsertProductCommand) (services.Product, error) {
	return s.updateProductFn(ctx, cmd)
}

func (s *stubCatalogService) DeleteProduct(ctx context.Context, productID string, actorID string) error {
	return s.deleteProductFn(ctx, productID, actorID)
}

func (s *stubCatalogService) GetProduct(ctx context.Context, productID string) (services.Product, error) {
	return s.getProductFn(ctx, productID)
}

func (s *stubCatalogService) ListProducts(ctx context.Context, filter services.ProductListFilter) (domain.CursorPage[services.Product], error) {
	return s.listProductsFn(ctx, filter)
}

func (s *stubCatalogService) CreateRawMaterial(ctx context.Context, cmd services.UpsertRawMaterialCommand) (services.RawMaterial, error) {
	return s.createMaterialFn(ctx, cmd)
}

func (s *stubCatalogService) UpdateRawMaterial(ctx context.Context, cmd services.UpsertRawMaterialCommand) (services.RawMaterial, error) {
	return s.updateMaterialFn(ctx, cmd)
}

func (s *stubCatalogService) DeleteRawMaterial(ctx context.Context, materialID string, actorID string) error {
	return s.deleteMaterialFn(ctx, materialID, actorID)
}

func (s *stubCatalogService) GetRawMaterial(ctx context.Context, materialID string) (services.RawMaterial, error) {
	return s.getMaterialFn(ctx, materialID)
}

func (s *stubCatalogService) ListRawMaterials(ctx context.Context, filter services.RawMaterialListFilter) (domain.CursorPage[services.RawMaterial], error) {
	return s.listMaterialsFn(ctx, filter)
}

func (s *stubCatalogService) CreateWarehouse(ctx context.Context, cmd services.UpsertWarehouseCommand) (services.Warehouse, error) {
	return s.createWarehouseFn(ctx, cmd)
}

func (s *stubCatalogService) UpdateWarehouse(ctx context.Context, cmd services.UpsertWarehouseCommand) (services.Warehouse, error) {
	return s.updateWarehouseFn(ctx, cmd)
}

func (s *stubCatalogService) DeleteWarehouse(ctx context.Context, warehouseID string, actorID string) error {
	return s.deleteWarehouseFn(ctx, warehouseID, actorID)
}

func (s *stubCatalogService) GetWarehouse(ctx context.Context, warehouseID string) (services.Warehouse, error) {
	return s.getWarehouseFn(ctx, warehouseID)
}

func (s *stubCatalogService) ListWarehouses(ctx context.Context, pager services.Pagination) (domain.CursorPage[services.Warehouse], error) {
	return s.listWarehousesFn(ctx, pager)
}

type stubNotificationService struct {
	listFn        func(ctx context.Context, userID string, filter services.NotificationListFilter) (domain.CursorPage[services.Notification], error)
	markReadFn    func(ctx context.Context, userID string, notificationID string) error
	markAllReadFn func(ctx context.Context, userID string) (int, error)
}

func (s *stubNotificationService) NotifyAdmins(context.Context, string, string) error { return nil }

func (s *stubNotificationService) ListForUser(ctx context.Context, userID string, filter services.NotificationListFilter) (domain.CursorPage[services.Notification], error) {
	return s.listFn(ctx, userID, filter)
}

func (s *stubNotificationService) MarkRead(ctx context.Context, userID string, notificationID string) error {
	return s.markReadFn(ctx, userID, notificationID)
}

func (s *stubNotificationService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return s.markAllReadFn(ctx, userID)
}

type stubAuditLogService struct {
	listFn func(ctx context.Context, filter services.AuditLogFilter) (domain.CursorPage[services.AuditLog], error)
}

func (s *stubAuditLogService) Record(context.Context, services.AuditLogRecord) {}

func (s *stubAuditLogService) List(ctx context.Context, filter services.AuditLogFilter) (domain.CursorPage[services.AuditLog], error) {
	return s.listFn(ctx, filter)
}

// authedRequest attaches an identity to the request context the way the
// identity middleware would.
func authedRequest(r *http.Request, uid string, role string) *http.Request {
	identity := &auth.Identity{UID: uid, Role: role}
	return r.WithContext(auth.WithIdentity(r.Context(), identity))
}
