package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/stockroom/api/internal/platform/auth"
	"github.com/stockroom/api/internal/platform/httpx"
	"github.com/stockroom/api/internal/services"
)

type upsertRawMaterialRequest struct {
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Unit        string `json:"unit"`
	Quantity    int    `json:"quantity"`
	ReorderAt   int    `json:"reorder_at"`
	Status      string `json:"status"`
}

// RawMaterialHandlers exposes the raw material endpoints. Reads are open to
// every authenticated user; mutations require the admin role.
type RawMaterialHandlers struct {
	catalog services.CatalogService
}

// NewRawMaterialHandlers constructs a new RawMaterialHandlers instance.
func NewRawMaterialHandlers(catalog services.CatalogService) *RawMaterialHandlers {
	return &RawMaterialHandlers{catalog: catalog}
}

// Routes registers the /raw-materials endpoints.
func (h *RawMaterialHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listRawMaterials)
	r.Get("/{materialID}", h.getRawMaterial)

	r.Group(func(admin chi.Router) {
		admin.Use(auth.RequireRole(auth.RoleAdmin))
		admin.Post("/", h.createRawMaterial)
		admin.Put("/{materialID}", h.updateRawMaterial)
		admin.Delete("/{materialID}", h.deleteRawMaterial)
	})
}

func (h *RawMaterialHandlers) listRawMaterials(w http.ResponseWriter, r *http.Request) {
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

	page, err := h.catalog.ListRawMaterials(ctx, services.RawMaterialListFilter{
		Status:     parseFilterValues(r.URL.Query()["status"]),
		Pagination: pager,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	items := make([]rawMaterialPayload, 0, len(page.Items))
	for _, material := range page.Items {
		items = append(items, buildRawMaterialPayload(material))
	}
	writeJSONResponse(w, http.StatusOK, rawMaterialListResponse{
		Items:         items,
		NextPageToken: strings.TrimSpace(page.NextPageToken),
	})
}

func (h *RawMaterialHandlers) getRawMaterial(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	material, err := h.catalog.GetRawMaterial(ctx, strings.TrimSpace(chi.URLParam(r, "materialID")))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, rawMaterialResponse{RawMaterial: buildRawMaterialPayload(material)})
}

func (h *RawMaterialHandlers) createRawMaterial(w http.ResponseWriter, r *http.Request) {
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

	var req upsertRawMaterialRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	material, err := h.catalog.CreateRawMaterial(ctx, services.UpsertRawMaterialCommand{
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Unit:        req.Unit,
		Quantity:    req.Quantity,
		ReorderAt:   req.ReorderAt,
		Status:      req.Status,
		ActorID:     identity.UID,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, rawMaterialResponse{RawMaterial: buildRawMaterialPayload(material)})
}

func (h *RawMaterialHandlers) updateRawMaterial(w http.ResponseWriter, r *http.Request) {
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

	var req upsertRawMaterialRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	material, err := h.catalog.UpdateRawMaterial(ctx, services.UpsertRawMaterialCommand{
		ID:          strings.TrimSpace(chi.URLParam(r, "materialID")),
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Unit:        req.Unit,
		Quantity:    req.Quantity,
		ReorderAt:   req.ReorderAt,
		Status:      req.Status,
		ActorID:     identity.UID,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, rawMaterialResponse{RawMaterial: buildRawMaterialPayload(material)})
}

func (h *RawMaterialHandlers) deleteRawMaterial(w http.ResponseWriter, r *http.Request) {
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

	if err := h.catalog.DeleteRawMaterial(ctx, strings.TrimSpace(chi.URLParam(r, "materialID")), identity.UID); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type rawMaterialListResponse struct {
	Items         []rawMaterialPayload `json:"items"`
	NextPageToken string               `json:"next_page_token,omitempty"`
}

type rawMaterialResponse struct {
	RawMaterial rawMaterialPayload `json:"raw_material"`
}

type rawMaterialPayload struct {
	ID          string `json:"id"`
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Unit        string `json:"unit"`
	Quantity    int    `json:"quantity"`
	ReorderAt   int    `json:"reorder_at"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

func buildRawMaterialPayload(material services.RawMaterial) rawMaterialPayload {
	return rawMaterialPayload{
		ID:          material.ID,
		SKU:         material.SKU,
		Name:        material.Name,
		Description: material.Description,
		Unit:        material.Unit,
		Quantity:    material.Quantity,
		ReorderAt:   material.ReorderAt,
		Status:      string(material.Status),
		CreatedAt:   formatTime(material.CreatedAt),
		UpdatedAt:   formatTime(material.UpdatedAt),
	}
}
