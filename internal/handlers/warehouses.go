package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/stockroom/api/internal/platform/auth"
	"github.com/stockroom/api/internal/platform/httpx"
	"github.com/stockroom/api/internal/services"
)

type upsertWarehouseRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

// WarehouseHandlers exposes the warehouse endpoints. Mutations require the
// admin role.
type WarehouseHandlers struct {
	catalog services.CatalogService
}

// NewWarehouseHandlers constructs a new WarehouseHandlers instance.
func NewWarehouseHandlers(catalog services.CatalogService) *WarehouseHandlers {
	return &WarehouseHandlers{catalog: catalog}
}

// Routes registers the /warehouses endpoints.
func (h *WarehouseHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listWarehouses)
	r.Get("/{warehouseID}", h.getWarehouse)

	r.Group(func(admin chi.Router) {
		admin.Use(auth.RequireRole(auth.RoleAdmin))
		admin.Post("/", h.createWarehouse)
		admin.Put("/{warehouseID}", h.updateWarehouse)
		admin.Delete("/{warehouseID}", h.deleteWarehouse)
	})
}

func (h *WarehouseHandlers) listWarehouses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	pager, err := paginationFromRequest(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	page, err := h.catalog.ListWarehouses(ctx, pager)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	items := make([]warehousePayload, 0, len(page.Items))
	for _, warehouse := range page.Items {
		items = append(items, buildWarehousePayload(warehouse))
	}
	writeJSONResponse(w, http.StatusOK, warehouseListResponse{
		Items:         items,
		NextPageToken: strings.TrimSpace(page.NextPageToken),
	})
}

func (h *WarehouseHandlers) getWarehouse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	warehouse, err := h.catalog.GetWarehouse(ctx, strings.TrimSpace(chi.URLParam(r, "warehouseID")))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, warehouseResponse{Warehouse: buildWarehousePayload(warehouse)})
}

func (h *WarehouseHandlers) createWarehouse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	var req upsertWarehouseRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	warehouse, err := h.catalog.CreateWarehouse(ctx, services.UpsertWarehouseCommand{
		Name:     req.Name,
		Location: req.Location,
		ActorID:  identity.UID,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, warehouseResponse{Warehouse: buildWarehousePayload(warehouse)})
}

func (h *WarehouseHandlers) updateWarehouse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	var req upsertWarehouseRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	warehouse, err := h.catalog.UpdateWarehouse(ctx, services.UpsertWarehouseCommand{
		ID:       strings.TrimSpace(chi.URLParam(r, "warehouseID")),
		Name:     req.Name,
		Location: req.Location,
		ActorID:  identity.UID,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, warehouseResponse{Warehouse: buildWarehousePayload(warehouse)})
}

func (h *WarehouseHandlers) deleteWarehouse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	if err := h.catalog.DeleteWarehouse(ctx, strings.TrimSpace(chi.URLParam(r, "warehouseID")), identity.UID); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type warehouseListResponse struct {
	Items         []warehousePayload `json:"items"`
	NextPageToken string             `json:"next_page_token,omitempty"`
}

type warehouseResponse struct {
	Warehouse warehousePayload `json:"warehouse"`
}

type warehousePayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Location  string `json:"location,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

func buildWarehousePayload(warehouse services.Warehouse) warehousePayload {
	return warehousePayload{
		ID:        warehouse.ID,
		Name:      warehouse.Name,
		Location:  warehouse.Location,
		CreatedAt: formatTime(warehouse.CreatedAt),
		UpdatedAt: formatTime(warehouse.UpdatedAt),
	}
}
