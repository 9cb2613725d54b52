package services

import (
	"context"
	"fmt"
	"time"

	domain "github.com/stockroom/api/internal/domain"
	"github.com/stockroom/api/internal/repositories"
)

// stubRepoError satisfies repositories.RepositoryError for stub lookups.
type stubRepoError struct {
	msg      string
	notFound bool
	conflict bool
}

func (e *stubRepoError) Error() string       { return e.msg }
func (e *stubRepoError) IsNotFound() bool    { return e.notFound }
func (e *stubRepoError) IsConflict() bool    { return e.conflict }
func (e *stubRepoError) IsUnavailable() bool { return false }

func notFoundErr(kind, id string) error {
	return &stubRepoError{msg: fmt.Sprintf("%s %s not found", kind, id), notFound: true}
}

type stubRegistry struct {
	orders        *stubOrderRepo
	products      *stubProductRepo
	invoices      *stubInvoiceRepo
	rawMaterials  *stubRawMaterialRepo
	warehouses    *stubWarehouseRepo
	users         *stubUserRepo
	notifications *stubNotificationRepo
	auditLogs     *stubAuditLogRepo

	txCount int
	txErr   error
}

func newStubRegistry() *stubRegistry {
	return &stubRegistry{
		orders:        &stubOrderRepo{orders: map[string]domain.Order{}, numbers: map[string]bool{}},
		products:      &stubProductRepo{products: map[string]domain.Product{}, skus: map[string]string{}},
		invoices:      &stubInvoiceRepo{invoices: map[string]domain.Invoice{}, byOrder: map[string]string{}, numbers: map[string]bool{}},
		rawMaterials:  &stubRawMaterialRepo{materials: map[string]domain.RawMaterial{}, skus: map[string]string{}},
		warehouses:    &stubWarehouseRepo{warehouses: map[string]domain.Warehouse{}},
		users:         &stubUserRepo{},
		notifications: &stubNotificationRepo{},
		auditLogs:     &stubAuditLogRepo{},
	}
}

func (r *stubRegistry) Close(context.Context) error { return nil }

func (r *stubRegistry) Orders() repositories.OrderRepository               { return r.orders }
func (r *stubRegistry) Products() repositories.ProductRepository           { return r.products }
func (r *stubRegistry) Invoices() repositories.InvoiceRepository           { return r.invoices }
func (r *stubRegistry) RawMaterials() repositories.RawMaterialRepository   { return r.rawMaterials }
func (r *stubRegistry) Warehouses() repositories.WarehouseRepository       { return r.warehouses }
func (r *stubRegistry) Users() repositories.UserRepository                 { return r.users }
func (r *stubRegistry) Notifications() repositories.NotificationRepository { return r.notifications }
func (r *stubRegistry) AuditLogs() repositories.AuditLogRepository         { return r.auditLogs }

func (r *stubRegistry) Health() repositories.HealthRepository { return stubHealthRepo{} }

func (r *stubRegistry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.txCount++
	if r.txErr != nil {
		return r.txErr
	}
	return fn(ctx)
}

type stubHealthRepo struct{}

func (stubHealthRepo) Collect(context.Context) (domain.SystemHealthReport, error) {
	return domain.SystemHealthReport{Status: domain.HealthStatusOK}, nil
}

type stubOrderRepo struct {
	orders  map[string]domain.Order
	numbers map[string]bool

	inserts    int
	insertErrs []error
}

func (r *stubOrderRepo) Insert(_ context.Context, order domain.Order) error {
	r.inserts++
	if len(r.insertErrs) > 0 {
		err := r.insertErrs[0]
		r.insertErrs = r.insertErrs[1:]
		if err != nil {
			return err
		}
	}
	if r.numbers[order.OrderNumber] {
		return repositories.NewDuplicateKeyError("orderNumbers", order.OrderNumber, nil)
	}
	r.numbers[order.OrderNumber] = true
	r.orders[order.ID] = order
	return nil
}

func (r *stubOrderRepo) Update(_ context.Context, order domain.Order) error {
	if _, ok := r.orders[order.ID]; !ok {
		return notFoundErr("order", order.ID)
	}
	r.orders[order.ID] = order
	return nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, orderID string) (domain.Order, error) {
	order, ok := r.orders[orderID]
	if !ok {
		return domain.Order{}, notFoundErr("order", orderID)
	}
	return order, nil
}

func (r *stubOrderRepo) List(_ context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	var page domain.CursorPage[domain.Order]
	for _, order := range r.orders {
		if filter.Customer != "" && order.Customer != filter.Customer {
			continue
		}
		if len(filter.Status) > 0 {
			matched := false
			for _, status := range filter.Status {
				if order.Status == status {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		page.Items = append(page.Items, order)
	}
	return page, nil
}

func (r *stubOrderRepo) Delete(_ context.Context, orderID string, orderNumber string) error {
	if _, ok := r.orders[orderID]; !ok {
		return notFoundErr("order", orderID)
	}
	delete(r.orders, orderID)
	delete(r.numbers, orderNumber)
	return nil
}

type stubProductRepo struct {
	products map[string]domain.Product
	skus     map[string]string
}

func (r *stubProductRepo) Insert(_ context.Context, product domain.Product) error {
	if _, ok := r.skus[product.SKU]; ok {
		return repositories.NewDuplicateKeyError("productSKUs", product.SKU, nil)
	}
	r.skus[product.SKU] = product.ID
	r.products[product.ID] = product
	return nil
}

func (r *stubProductRepo) Update(_ context.Context, product domain.Product) error {
	if _, ok := r.products[product.ID]; !ok {
		return notFoundErr("product", product.ID)
	}
	r.products[product.ID] = product
	return nil
}

func (r *stubProductRepo) Delete(_ context.Context, productID string, sku string) error {
	if _, ok := r.products[productID]; !ok {
		return notFoundErr("product", productID)
	}
	delete(r.products, productID)
	delete(r.skus, sku)
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, productID string) (domain.Product, error) {
	product, ok := r.products[productID]
	if !ok {
		return domain.Product{}, notFoundErr("product", productID)
	}
	return product, nil
}

func (r *stubProductRepo) FindByIDs(_ context.Context, productIDs []string) ([]domain.Product, error) {
	var found []domain.Product
	for _, id := range productIDs {
		if product, ok := r.products[id]; ok {
			found = append(found, product)
		}
	}
	return found, nil
}

func (r *stubProductRepo) List(_ context.Context, filter repositories.ProductListFilter) (domain.CursorPage[domain.Product], error) {
	var page domain.CursorPage[domain.Product]
	for _, product := range r.products {
		if filter.WarehouseID != "" && product.WarehouseID != filter.WarehouseID {
			continue
		}
		page.Items = append(page.Items, product)
	}
	return page, nil
}

func (r *stubProductRepo) DecrementStock(_ context.Context, productID string, quantity int) error {
	product, ok := r.products[productID]
	if !ok {
		return repositories.NewStockError(repositories.StockErrorProductNotFound, "", nil)
	}
	product.Quantity -= quantity
	r.products[productID] = product
	return nil
}

func (r *stubProductRepo) IncrementStock(_ context.Context, productID string, quantity int) error {
	product, ok := r.products[productID]
	if !ok {
		return repositories.NewStockError(repositories.StockErrorProductNotFound, "", nil)
	}
	product.Quantity += quantity
	r.products[productID] = product
	return nil
}

type stubInvoiceRepo struct {
	invoices map[string]domain.Invoice
	byOrder  map[string]string
	numbers  map[string]bool

	inserts    int
	insertErrs []error
}

func (r *stubInvoiceRepo) Insert(_ context.Context, invoice domain.Invoice) error {
	r.inserts++
	if len(r.insertErrs) > 0 {
		err := r.insertErrs[0]
		r.insertErrs = r.insertErrs[1:]
		if err != nil {
			return err
		}
	}
	if _, ok := r.byOrder[invoice.OrderID]; ok {
		return &repositories.InvoiceExistsError{OrderID: invoice.OrderID}
	}
	if r.numbers[invoice.InvoiceNumber] {
		return repositories.NewDuplicateKeyError("invoiceNumbers", invoice.InvoiceNumber, nil)
	}
	r.numbers[invoice.InvoiceNumber] = true
	r.byOrder[invoice.OrderID] = invoice.ID
	r.invoices[invoice.ID] = invoice
	return nil
}

func (r *stubInvoiceRepo) FindByID(_ context.Context, invoiceID string) (domain.Invoice, error) {
	invoice, ok := r.invoices[invoiceID]
	if !ok {
		return domain.Invoice{}, notFoundErr("invoice", invoiceID)
	}
	return invoice, nil
}

func (r *stubInvoiceRepo) FindByOrderID(_ context.Context, orderID string) (domain.Invoice, error) {
	id, ok := r.byOrder[orderID]
	if !ok {
		return domain.Invoice{}, notFoundErr("invoice for order", orderID)
	}
	return r.invoices[id], nil
}

func (r *stubInvoiceRepo) SetPaid(_ context.Context, invoiceID string, paidAt *time.Time) (domain.Invoice, error) {
	invoice, ok := r.invoices[invoiceID]
	if !ok {
		return domain.Invoice{}, notFoundErr("invoice", invoiceID)
	}
	invoice.PaidAt = paidAt
	r.invoices[invoiceID] = invoice
	return invoice, nil
}

func (r *stubInvoiceRepo) List(_ context.Context, filter repositories.InvoiceListFilter) (domain.CursorPage[domain.Invoice], error) {
	var page domain.CursorPage[domain.Invoice]
	for _, invoice := range r.invoices {
		if filter.OrderID != "" && invoice.OrderID != filter.OrderID {
			continue
		}
		if filter.Paid != nil && (invoice.PaidAt != nil) != *filter.Paid {
			continue
		}
		page.Items = append(page.Items, invoice)
	}
	return page, nil
}

func (r *stubInvoiceRepo) Delete(_ context.Context, invoiceID string, invoiceNumber string, orderID string) error {
	if _, ok := r.invoices[invoiceID]; !ok {
		return notFoundErr("invoice", invoiceID)
	}
	delete(r.invoices, invoiceID)
	delete(r.numbers, invoiceNumber)
	delete(r.byOrder, orderID)
	return nil
}

type stubRawMaterialRepo struct {
	materials map[string]domain.RawMaterial
	skus      map[string]string
}

func (r *stubRawMaterialRepo) Insert(_ context.Context, material domain.RawMaterial) error {
	if _, ok := r.skus[material.SKU]; ok {
		return repositories.NewDuplicateKeyError("rawMaterialSKUs", material.SKU, nil)
	}
	r.skus[material.SKU] = material.ID
	r.materials[material.ID] = material
	return nil
}

func (r *stubRawMaterialRepo) Update(_ context.Context, material domain.RawMaterial) error {
	if _, ok := r.materials[material.ID]; !ok {
		return notFoundErr("raw material", material.ID)
	}
	r.materials[material.ID] = material
	return nil
}

func (r *stubRawMaterialRepo) Delete(_ context.Context, materialID string, sku string) error {
	if _, ok := r.materials[materialID]; !ok {
		return notFoundErr("raw material", materialID)
	}
	delete(r.materials, materialID)
	delete(r.skus, sku)
	return nil
}

func (r *stubRawMaterialRepo) FindByID(_ context.Context, materialID string) (domain.RawMaterial, error) {
	material, ok := r.materials[materialID]
	if !ok {
		return domain.RawMaterial{}, notFoundErr("raw material", materialID)
	}
	return material, nil
}

func (r *stubRawMaterialRepo) List(_ context.Context, filter repositories.RawMaterialListFilter) (domain.CursorPage[domain.RawMaterial], error) {
	var page domain.CursorPage[domain.RawMaterial]
	for _, material := range r.materials {
		if len(filter.Status) > 0 {
			matched := false
			for _, status := range filter.Status {
				if material.Status == status {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		page.Items = append(page.Items, material)
	}
	return page, nil
}

type stubWarehouseRepo struct {
	warehouses map[string]domain.Warehouse
}

func (r *stubWarehouseRepo) Insert(_ context.Context, warehouse domain.Warehouse) error {
	r.warehouses[warehouse.ID] = warehouse
	return nil
}

func (r *stubWarehouseRepo) Update(_ context.Context, warehouse domain.Warehouse) error {
	if _, ok := r.warehouses[warehouse.ID]; !ok {
		return notFoundErr("warehouse", warehouse.ID)
	}
	r.warehouses[warehouse.ID] = warehouse
	return nil
}

func (r *stubWarehouseRepo) Delete(_ context.Context, warehouseID string) error {
	if _, ok := r.warehouses[warehouseID]; !ok {
		return notFoundErr("warehouse", warehouseID)
	}
	delete(r.warehouses, warehouseID)
	return nil
}

func (r *stubWarehouseRepo) FindByID(_ context.Context, warehouseID string) (domain.Warehouse, error) {
	warehouse, ok := r.warehouses[warehouseID]
	if !ok {
		return domain.Warehouse{}, notFoundErr("warehouse", warehouseID)
	}
	return warehouse, nil
}

func (r *stubWarehouseRepo) List(_ context.Context, _ domain.Pagination) (domain.CursorPage[domain.Warehouse], error) {
	var page domain.CursorPage[domain.Warehouse]
	for _, warehouse := range r.warehouses {
		page.Items = append(page.Items, warehouse)
	}
	return page, nil
}

type stubUserRepo struct {
	users    map[string]domain.User
	adminIDs []string
	adminErr error
}

func (r *stubUserRepo) FindByID(_ context.Context, userID string) (domain.User, error) {
	user, ok := r.users[userID]
	if !ok {
		return domain.User{}, notFoundErr("user", userID)
	}
	return user, nil
}

func (r *stubUserRepo) ListAdminIDs(context.Context) ([]string, error) {
	if r.adminErr != nil {
		return nil, r.adminErr
	}
	return r.adminIDs, nil
}

type stubNotificationRepo struct {
	notifications []domain.Notification
	insertErr     error
}

func (r *stubNotificationRepo) Insert(_ context.Context, notification domain.Notification) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.notifications = append(r.notifications, notification)
	return nil
}

func (r *stubNotificationRepo) ListForUser(_ context.Context, userID string, filter repositories.NotificationListFilter) (domain.CursorPage[domain.Notification], error) {
	var page domain.CursorPage[domain.Notification]
	for _, n := range r.notifications {
		if n.UserID != userID {
			continue
		}
		if filter.UnreadOnly && n.Read {
			continue
		}
		page.Items = append(page.Items, n)
	}
	return page, nil
}

func (r *stubNotificationRepo) MarkRead(_ context.Context, userID string, notificationID string) error {
	for i, n := range r.notifications {
		if n.ID != notificationID {
			continue
		}
		if n.UserID != userID {
			return notFoundErr("notification", notificationID)
		}
		r.notifications[i].Read = true
		return nil
	}
	return notFoundErr("notification", notificationID)
}

func (r *stubNotificationRepo) MarkAllRead(_ context.Context, userID string) (int, error) {
	count := 0
	for i, n := range r.notifications {
		if n.UserID == userID && !n.Read {
			r.notifications[i].Read = true
			count++
		}
	}
	return count, nil
}

type stubAuditLogRepo struct {
	entries   []domain.AuditLog
	appendErr error
}

func (r *stubAuditLogRepo) Append(_ context.Context, entry domain.AuditLog) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *stubAuditLogRepo) List(_ context.Context, _ repositories.AuditLogFilter) (domain.CursorPage[domain.AuditLog], error) {
	return domain.CursorPage[domain.AuditLog]{Items: r.entries}, nil
}

// Service-level stubs --------------------------------------------------------

type stubAuditService struct {
	records []AuditLogRecord
}

func (s *stubAuditService) Record(_ context.Context, record AuditLogRecord) {
	s.records = append(s.records, record)
}

func (s *stubAuditService) List(context.Context, AuditLogFilter) (domain.CursorPage[domain.AuditLog], error) {
	return domain.CursorPage[domain.AuditLog]{}, nil
}

type stubNotifierService struct {
	titles   []string
	messages []string
	err      error
}

func (s *stubNotifierService) NotifyAdmins(_ context.Context, title string, message string) error {
	if s.err != nil {
		return s.err
	}
	s.titles = append(s.titles, title)
	s.messages = append(s.messages, message)
	return nil
}

func (s *stubNotifierService) ListForUser(context.Context, string, NotificationListFilter) (domain.CursorPage[domain.Notification], error) {
	return domain.CursorPage[domain.Notification]{}, nil
}

func (s *stubNotifierService) MarkRead(context.Context, string, string) error { return nil }

func (s *stubNotifierService) MarkAllRead(context.Context, string) (int, error) { return 0, nil }

type stubEventPublisher struct {
	events []DomainEvent
	err    error
}

func (s *stubEventPublisher) PublishEvent(_ context.Context, event DomainEvent) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.events = append(s.events, event)
	return fmt.Sprintf("msg-%d", len(s.events)), nil
}

func sequentialIDs(prefix string) IDGenerator {
	next := 0
	return func() string {
		next++
		return fmt.Sprintf("%s-%03d", prefix, next)
	}
}
