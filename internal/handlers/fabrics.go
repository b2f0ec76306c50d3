package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/diewo77/tailor-app/internal/httpx"
	"github.com/diewo77/tailor-app/internal/services"
)

type FabricHandler struct {
	Svc *services.FabricService
}

func NewFabricHandler(svc *services.FabricService) *FabricHandler {
	return &FabricHandler{Svc: svc}
}

// List: GET /fabrics
func (h *FabricHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	fabrics, total, err := h.Svc.List(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": fabrics, "total": total, "limit": limit, "offset": offset})
}

// Create: POST /fabrics – staff-only catalogue addition.
func (h *FabricHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ActorID   uint    `json:"actor_id"`
		Name      string  `json:"name"`
		Stock     float64 `json:"stock"`
		UnitPrice float64 `json:"unit_price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.ActorID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"actor_id": "required"})
		return
	}
	fab, err := h.Svc.Create(r.Context(), req.ActorID, req.Name, req.Stock, req.UnitPrice)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, fab)
}

// Restock: POST /fabrics/restock – administrative increment, staff-only.
func (h *FabricHandler) Restock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FabricID uint    `json:"fabric_id"`
		ActorID  uint    `json:"actor_id"`
		Quantity float64 `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.FabricID == 0 || req.ActorID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"fabric_id": "required", "actor_id": "required"})
		return
	}
	fab, err := h.Svc.Restock(r.Context(), req.ActorID, req.FabricID, req.Quantity)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, fab)
}
