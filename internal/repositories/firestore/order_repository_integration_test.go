//go:build integration

package firestore

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"

	domain "github.com/stockroom/api/internal/domain"
	pconfig "github.com/stockroom/api/internal/platform/config"
	pfirestore "github.com/stockroom/api/internal/platform/firestore"
	"github.com/stockroom/api/internal/repositories"
)

func TestOrderFlowIntegration(t *testing.T) {
	reg := newEmulatorRegistry(t)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var err error

	now := time.Now().UTC().Truncate(time.Second)

	product := domain.Product{
		ID:          "prod_001",
		SKU:         "SKU-001",
		Name:        "Pallet Jack",
		Price:       14900,
		Quantity:    5,
		WarehouseID: "wh_001",
		Status:      domain.ProductStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := reg.Products().Insert(ctx, product); err != nil {
		t.Fatalf("seed product: %v", err)
	}

	var dupErr *repositories.DuplicateKeyError
	if err := reg.Products().Insert(ctx, domain.Product{
		ID:        "prod_002",
		SKU:       "SKU-001",
		Name:      "Duplicate SKU",
		CreatedAt: now,
		UpdatedAt: now,
	}); !errors.As(err, &dupErr) {
		t.Fatalf("expected duplicate key error for reused sku, got %v", err)
	}

	// The rejected insert rolls back whole; no partial product document and
	// the SKU still points at its original owner.
	if _, err := reg.Products().FindByID(ctx, "prod_002"); !isNotFound(err) {
		t.Fatalf("expected rejected product to be absent, got %v", err)
	}

	order := domain.Order{
		ID:          "o_001",
		OrderNumber: "ORD-1748000000000-ABCDEF0123",
		Customer:    "acme",
		Status:      domain.OrderStatusPending,
		Total:       3 * product.Price,
		Items: []domain.OrderItem{
			{ID: "oi_001", ProductID: product.ID, Quantity: 3, UnitPrice: product.Price},
		},
		CreatedBy: "user-1",
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = reg.RunInTx(ctx, func(ctx context.Context) error {
		found, err := reg.Products().FindByIDs(ctx, []string{product.ID})
		if err != nil {
			return err
		}
		if len(found) != 1 || found[0].Quantity < 3 {
			return fmt.Errorf("unexpected product state: %+v", found)
		}
		if err := reg.Orders().Insert(ctx, order); err != nil {
			return err
		}
		return reg.Products().DecrementStock(ctx, product.ID, 3)
	})
	if err != nil {
		t.Fatalf("create order tx: %v", err)
	}

	stored, err := reg.Products().FindByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("find product: %v", err)
	}
	if stored.Quantity != 2 {
		t.Fatalf("expected quantity 2 after decrement, got %d", stored.Quantity)
	}

	err = reg.RunInTx(ctx, func(ctx context.Context) error {
		dup := order
		dup.ID = "o_002"
		return reg.Orders().Insert(ctx, dup)
	})
	if !repositories.IsUniqueViolation(err) {
		t.Fatalf("expected unique violation for reused order number, got %v", err)
	}

	invoice := domain.Invoice{
		ID:            "inv_001",
		InvoiceNumber: "INV-1748000000000-0123456789",
		OrderID:       order.ID,
		Total:         order.Total,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err = reg.RunInTx(ctx, func(ctx context.Context) error {
		return reg.Invoices().Insert(ctx, invoice)
	})
	if err != nil {
		t.Fatalf("create invoice tx: %v", err)
	}

	var existsErr *repositories.InvoiceExistsError
	err = reg.RunInTx(ctx, func(ctx context.Context) error {
		second := invoice
		second.ID = "inv_002"
		second.InvoiceNumber = "INV-1748000000001-9876543210"
		return reg.Invoices().Insert(ctx, second)
	})
	if !errors.As(err, &existsErr) || existsErr.OrderID != order.ID {
		t.Fatalf("expected invoice exists error for order %s, got %v", order.ID, err)
	}

	byOrder, err := reg.Invoices().FindByOrderID(ctx, order.ID)
	if err != nil {
		t.Fatalf("find invoice by order: %v", err)
	}
	if byOrder.ID != invoice.ID {
		t.Fatalf("expected invoice %s, got %s", invoice.ID, byOrder.ID)
	}

	paidAt := now.Add(time.Hour)
	paid, err := reg.Invoices().SetPaid(ctx, invoice.ID, &paidAt)
	if err != nil {
		t.Fatalf("set paid: %v", err)
	}
	if paid.PaidAt == nil {
		t.Fatal("expected paidAt to be set")
	}

	page, err := reg.Orders().List(ctx, repositories.OrderListFilter{
		Customer:   "acme",
		Pagination: domain.Pagination{PageSize: 10},
	})
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].OrderNumber != order.OrderNumber {
		t.Fatalf("unexpected order page: %+v", page.Items)
	}

	if err := reg.RunInTx(ctx, func(ctx context.Context) error {
		if err := reg.Orders().Delete(ctx, order.ID, order.OrderNumber); err != nil {
			return err
		}
		return reg.Products().IncrementStock(ctx, product.ID, 3)
	}); err != nil {
		t.Fatalf("delete order tx: %v", err)
	}

	restored, err := reg.Products().FindByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("find product after release: %v", err)
	}
	if restored.Quantity != 5 {
		t.Fatalf("expected quantity restored to 5, got %d", restored.Quantity)
	}
}

// TestConcurrentOrderCreationIntegration races two check-then-decrement
// transactions over one product with stock for only one of them. Exactly one
// may succeed; the loser must observe the committed decrement on retry and
// fail its sufficiency check without writing anything.
func TestConcurrentOrderCreationIntegration(t *testing.T) {
	reg := newEmulatorRegistry(t)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Second)

	product := domain.Product{
		ID:          "prod_100",
		SKU:         "SKU-100",
		Name:        "Hand Truck",
		Price:       8900,
		Quantity:    10,
		WarehouseID: "wh_001",
		Status:      domain.ProductStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := reg.Products().Insert(ctx, product); err != nil {
		t.Fatalf("seed product: %v", err)
	}

	const want = 6
	results := make([]error, 2)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			order := domain.Order{
				ID:          fmt.Sprintf("o_c%02d", i),
				OrderNumber: fmt.Sprintf("ORD-1748000000100-C%09d", i),
				Customer:    "acme",
				Status:      domain.OrderStatusPending,
				Total:       want * product.Price,
				Items: []domain.OrderItem{
					{ID: fmt.Sprintf("oi_c%02d", i), ProductID: product.ID, Quantity: want, UnitPrice: product.Price},
				},
				CreatedBy: "user-1",
				CreatedAt: now,
				UpdatedAt: now,
			}
			results[i] = reg.RunInTx(ctx, func(ctx context.Context) error {
				found, err := reg.Products().FindByIDs(ctx, []string{product.ID})
				if err != nil {
					return err
				}
				if len(found) != 1 {
					return fmt.Errorf("unexpected product state: %+v", found)
				}
				if found[0].Quantity < want {
					return repositories.NewInsufficientStockError(found[0].ID, found[0].Name, want, found[0].Quantity)
				}
				if err := reg.Orders().Insert(ctx, order); err != nil {
					return err
				}
				return reg.Products().DecrementStock(ctx, product.ID, want)
			})
		}(i)
	}
	wg.Wait()

	var succeeded, shortfalls int
	for i, err := range results {
		switch {
		case err == nil:
			succeeded++
		default:
			var stockErr *repositories.StockError
			if !errors.As(err, &stockErr) || stockErr.Code != repositories.StockErrorInsufficient {
				t.Fatalf("writer %d: expected insufficient stock, got %v", i, err)
			}
			if stockErr.Requested != want || stockErr.Available != 10-want {
				t.Fatalf("writer %d: unexpected shortfall quantities: %+v", i, stockErr)
			}
			shortfalls++
		}
	}
	if succeeded != 1 || shortfalls != 1 {
		t.Fatalf("expected exactly one winner and one shortfall, got %d/%d (%v)", succeeded, shortfalls, results)
	}

	stored, err := reg.Products().FindByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("find product: %v", err)
	}
	if stored.Quantity != 10-want {
		t.Fatalf("expected quantity %d after single decrement, got %d", 10-want, stored.Quantity)
	}

	page, err := reg.Orders().List(ctx, repositories.OrderListFilter{
		Customer:   "acme",
		Pagination: domain.Pagination{PageSize: 10},
	})
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected single committed order, got %d", len(page.Items))
	}
}

// newEmulatorRegistry boots a throwaway Firestore emulator container and
// returns a registry bound to it. Skips when docker is unavailable.
func newEmulatorRegistry(t *testing.T) *Registry {
	t.Helper()

	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not available: " + err.Error())
	}

	ensureDockerDaemon(t)

	port := freePort(t)
	endpoint := fmt.Sprintf("127.0.0.1:%d", port)
	containerID := startFirestoreEmulator(t, port)
	t.Cleanup(func() { stopContainer(containerID) })

	waitForEndpoint(t, endpoint, 30*time.Second)

	cfg := pconfig.FirestoreConfig{
		ProjectID:    "stockroom-test",
		EmulatorHost: endpoint,
	}

	provider := pfirestore.NewProvider(cfg)
	t.Cleanup(func() {
		_ = provider.Close(context.Background())
	})

	reg, err := NewRegistry(provider)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	return reg
}

func freePort(t *testing.T) int {
	t.Helper()
	addr, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("unable to allocate port: %v", err)
	}
	defer addr.Close()
	return addr.Addr().(*net.TCPAddr).Port
}

func startFirestoreEmulator(t *testing.T, port int) string {
	t.Helper()
	args := []string{
		"run", "-d", "--rm",
		"-p", fmt.Sprintf("%d:8080", port),
		firestoreEmulatorImage,
		"gcloud", "beta", "emulators", "firestore", "start",
		"--host-port=0.0.0.0:8080",
		"--quiet",
	}

	cmd := exec.Command("docker", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to start firestore emulator: %v - %s", err, string(out))
	}
	id := strings.TrimSpace(string(out))
	if id == "" {
		t.Fatalf("docker returned empty container id")
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}

func ensureDockerDaemon(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, "docker", "info")
	if err := cmd.Run(); err != nil {
		t.Fatalf("docker daemon not available: %v", err)
	}
}

func stopContainer(id string) {
	if id == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, "docker", "stop", id)
	_ = cmd.Run()
}

func waitForEndpoint(t *testing.T, endpoint string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", endpoint, 500*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	t.Fatalf("firestore emulator at %s did not become ready within %s", endpoint, timeout)
}

const firestoreEmulatorImage = "gcr.io/google.com/cloudsdktool/cloud-sdk:emulators"
