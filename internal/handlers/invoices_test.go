package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/stockroom/api/internal/domain"
	"github.com/stockroom/api/internal/services"
)

func newInvoiceRouter(svc services.InvoiceService) chi.Router {
	r := chi.NewRouter()
	NewInvoiceHandlers(svc).Routes(r)
	return r
}

func sampleInvoice(paid bool) services.Invoice {
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	invoice := services.Invoice{
		ID:            "inv1",
		InvoiceNumber: "INV-1748770800000-9F2C41A07B",
		OrderID:       "o1",
		Total:         1050,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
	if paid {
		paidAt := created.Add(time.Hour)
		invoice.PaidAt = &paidAt
	}
	return invoice
}

func TestCreateInvoiceHandler(t *testing.T) {
	var captured services.CreateInvoiceCommand
	svc := &stubInvoiceService{
		createFn: func(_ context.Context, cmd services.CreateInvoiceCommand) (services.Invoice, error) {
			captured = cmd
			return sampleInvoice(false), nil
		},
	}
	router := newInvoiceRouter(svc)

	req := authedRequest(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"order_id":"o1"}`)), "user-1", "STAFF")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.OrderID != "o1" || captured.ActorID != "user-1" {
		t.Fatalf("unexpected command: %+v", captured)
	}

	var payload invoiceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if payload.Invoice.Paid {
		t.Fatalf("expected unpaid invoice, got %+v", payload.Invoice)
	}
}

func TestCreateInvoiceHandlerConflict(t *testing.T) {
	svc := &stubInvoiceService{
		createFn: func(context.Context, services.CreateInvoiceCommand) (services.Invoice, error) {
			return services.Invoice{}, fmt.Errorf("%w: order o1", services.ErrInvoiceExists)
		},
	}
	router := newInvoiceRouter(svc)

	req := authedRequest(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"order_id":"o1"}`)), "user-1", "STAFF")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal error body: %v", err)
	}
	if payload["error"] != "invoice_exists" {
		t.Fatalf("expected invoice_exists code, got %v", payload["error"])
	}
}

func TestUpdateInvoiceHandlerTogglesPaid(t *testing.T) {
	var captured services.UpdateInvoiceCommand
	svc := &stubInvoiceService{
		updateFn: func(_ context.Context, cmd services.UpdateInvoiceCommand) (services.Invoice, error) {
			captured = cmd
			return sampleInvoice(cmd.MarkAsPaid), nil
		},
	}
	router := newInvoiceRouter(svc)

	req := authedRequest(httptest.NewRequest(http.MethodPatch, "/inv1", strings.NewReader(`{"mark_as_paid":true}`)), "user-1", "STAFF")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.InvoiceID != "inv1" || !captured.MarkAsPaid {
		t.Fatalf("unexpected command: %+v", captured)
	}

	var payload invoiceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !payload.Invoice.Paid || payload.Invoice.PaidAt == "" {
		t.Fatalf("expected paid invoice payload, got %+v", payload.Invoice)
	}
}

func TestListInvoicesHandlerPaidFilter(t *testing.T) {
	var captured services.InvoiceListFilter
	svc := &stubInvoiceService{
		listFn: func(_ context.Context, filter services.InvoiceListFilter) (domain.CursorPage[services.Invoice], error) {
			captured = filter
			return domain.CursorPage[services.Invoice]{Items: []services.Invoice{sampleInvoice(true)}}, nil
		},
	}
	router := newInvoiceRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/?paid=true&order_id=o1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.Paid == nil || !*captured.Paid || captured.OrderID != "o1" {
		t.Fatalf("unexpected filter: %+v", captured)
	}

	req = httptest.NewRequest(http.MethodGet, "/?paid=banana", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad paid filter, got %d", rec.Code)
	}
}

func TestDeleteInvoiceHandler(t *testing.T) {
	svc := &stubInvoiceService{
		deleteFn: func(_ context.Context, cmd services.DeleteInvoiceCommand) error {
			if cmd.InvoiceID != "inv1" {
				return fmt.Errorf("%w: %s", services.ErrInvoiceNotFound, cmd.InvoiceID)
			}
			return nil
		},
	}
	router := newInvoiceRouter(svc)

	req := authedRequest(httptest.NewRequest(http.MethodDelete, "/inv1", nil), "user-1", "STAFF")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	req = authedRequest(httptest.NewRequest(http.MethodDelete, "/ghost", nil), "user-1", "STAFF")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
