package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/stockroom/api/internal/platform/auth"
	"github.com/stockroom/api/internal/platform/httpx"
	"github.com/stockroom/api/internal/services"
)

type createInvoiceRequest struct {
	OrderID    string `json:"order_id"`
	MarkAsPaid bool   `json:"mark_as_paid"`
}

type updateInvoiceRequest struct {
	MarkAsPaid bool `json:"mark_as_paid"`
}

// InvoiceHandlers exposes the invoicing endpoints.
type InvoiceHandlers struct {
	invoices services.InvoiceService
}

// NewInvoiceHandlers constructs a new InvoiceHandlers instance.
func NewInvoiceHandlers(invoices services.InvoiceService) *InvoiceHandlers {
	return &InvoiceHandlers{invoices: invoices}
}

// Routes registers the /invoices endpoints.
func (h *InvoiceHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listInvoices)
	r.Post("/", h.createInvoice)
	r.Get("/{invoiceID}", h.getInvoice)
	r.Patch("/{invoiceID}", h.updateInvoice)
	r.Delete("/{invoiceID}", h.deleteInvoice)
}

func (h *InvoiceHandlers) listInvoices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.invoices == nil {
		httpx.WriteError(ctx, w, httpx.NewError("invoice_service_unavailable", "invoice service unavailable", http.StatusServiceUnavailable))
		return
	}

	pager, err := paginationFromRequest(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	query := r.URL.Query()
	filter := services.InvoiceListFilter{
		OrderID:    strings.TrimSpace(query.Get("order_id")),
		Pagination: pager,
	}
	if raw := strings.TrimSpace(query.Get("paid")); raw != "" {
		paid, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "paid must be a boolean", http.StatusBadRequest))
			return
		}
		filter.Paid = &paid
	}

	page, err := h.invoices.List(ctx, filter)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	items := make([]invoicePayload, 0, len(page.Items))
	for _, invoice := range page.Items {
		items = append(items, buildInvoicePayload(invoice))
	}
	writeJSONResponse(w, http.StatusOK, invoiceListResponse{
		Items:         items,
		NextPageToken: strings.TrimSpace(page.NextPageToken),
	})
}

func (h *InvoiceHandlers) createInvoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.invoices == nil {
		httpx.WriteError(ctx, w, httpx.NewError("invoice_service_unavailable", "invoice service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	var req createInvoiceRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	invoice, err := h.invoices.Create(ctx, services.CreateInvoiceCommand{
		OrderID:    strings.TrimSpace(req.OrderID),
		MarkAsPaid: req.MarkAsPaid,
		ActorID:    identity.UID,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, invoiceResponse{Invoice: buildInvoicePayload(invoice)})
}

func (h *InvoiceHandlers) getInvoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.invoices == nil {
		httpx.WriteError(ctx, w, httpx.NewError("invoice_service_unavailable", "invoice service unavailable", http.StatusServiceUnavailable))
		return
	}

	invoice, err := h.invoices.Get(ctx, strings.TrimSpace(chi.URLParam(r, "invoiceID")))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, invoiceResponse{Invoice: buildInvoicePayload(invoice)})
}

func (h *InvoiceHandlers) updateInvoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.invoices == nil {
		httpx.WriteError(ctx, w, httpx.NewError("invoice_service_unavailable", "invoice service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	var req updateInvoiceRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	invoice, err := h.invoices.Update(ctx, services.UpdateInvoiceCommand{
		InvoiceID:  strings.TrimSpace(chi.URLParam(r, "invoiceID")),
		MarkAsPaid: req.MarkAsPaid,
		ActorID:    identity.UID,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, invoiceResponse{Invoice: buildInvoicePayload(invoice)})
}

func (h *InvoiceHandlers) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.invoices == nil {
		httpx.WriteError(ctx, w, httpx.NewError("invoice_service_unavailable", "invoice service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	err := h.invoices.Delete(ctx, services.DeleteInvoiceCommand{
		InvoiceID: strings.TrimSpace(chi.URLParam(r, "invoiceID")),
		ActorID:   identity.UID,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type invoiceListResponse struct {
	Items         []invoicePayload `json:"items"`
	NextPageToken string           `json:"next_page_token,omitempty"`
}

type invoiceResponse struct {
	Invoice invoicePayload `json:"invoice"`
}

type invoicePayload struct {
	ID            string `json:"id"`
	InvoiceNumber string `json:"invoice_number"`
	OrderID       string `json:"order_id"`
	Total         int64  `json:"total"`
	Paid          bool   `json:"paid"`
	PaidAt        string `json:"paid_at,omitempty"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

func buildInvoicePayload(invoice services.Invoice) invoicePayload {
	return invoicePayload{
		ID:            invoice.ID,
		InvoiceNumber: invoice.InvoiceNumber,
		OrderID:       invoice.OrderID,
		Total:         invoice.Total,
		Paid:          invoice.PaidAt != nil,
		PaidAt:        formatTimePtr(invoice.PaidAt),
		CreatedAt:     formatTime(invoice.CreatedAt),
		UpdatedAt:     formatTime(invoice.UpdatedAt),
	}
}
