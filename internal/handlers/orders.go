package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/diewo77/tailor-app/internal/httpx"
	"github.com/diewo77/tailor-app/internal/models"
	"github.com/diewo77/tailor-app/internal/services"
)

// OrderHandler exposes the order lifecycle over JSON. The acting user comes
// in as actor_id on each request; session handling lives upstream.
type OrderHandler struct {
	Svc *services.OrderService
}

func NewOrderHandler(svc *services.OrderService) *OrderHandler {
	return &OrderHandler{Svc: svc}
}

// List: GET /orders?actor_id=&status=&limit=&page=
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	actorID, ok := queryID(r, "actor_id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "missing_actor_id", nil)
		return
	}
	limit, offset := pagination(r)
	status := models.OrderStatus(r.URL.Query().Get("status"))
	orders, total, err := h.Svc.List(r.Context(), actorID, status, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": orders, "total": total, "limit": limit, "offset": offset})
}

// Get: GET /orders/get?id=&actor_id=
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := queryID(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "missing_id", nil)
		return
	}
	order, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

// Create: POST /orders
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ActorID uint `json:"actor_id"`
		services.PlaceOrderInput
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.ActorID == 0 {
		req.ActorID = req.CustomerID
	}
	order, bill, err := h.Svc.PlaceOrder(r.Context(), req.ActorID, req.PlaceOrderInput)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"order": order, "bill": bill})
}

type transitionReq struct {
	OrderID uint `json:"order_id"`
	ActorID uint `json:"actor_id"`
}

func decodeTransition(w http.ResponseWriter, r *http.Request) (transitionReq, bool) {
	var req transitionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return req, false
	}
	if req.OrderID == 0 || req.ActorID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"order_id": "required", "actor_id": "required"})
		return req, false
	}
	return req, true
}

// StartWork: POST /orders/start
func (h *OrderHandler) StartWork(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeTransition(w, r)
	if !ok {
		return
	}
	order, err := h.Svc.StartWork(r.Context(), req.OrderID, req.ActorID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

// Advance: POST /orders/advance
func (h *OrderHandler) Advance(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeTransition(w, r)
	if !ok {
		return
	}
	order, err := h.Svc.Advance(r.Context(), req.OrderID, req.ActorID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

// Cancel: POST /orders/cancel
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeTransition(w, r)
	if !ok {
		return
	}
	order, err := h.Svc.Cancel(r.Context(), req.OrderID, req.ActorID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

// Deliver: POST /orders/deliver
func (h *OrderHandler) Deliver(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeTransition(w, r)
	if !ok {
		return
	}
	order, err := h.Svc.Deliver(r.Context(), req.OrderID, req.ActorID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

// AssignTailor: POST /orders/assign
func (h *OrderHandler) AssignTailor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID  uint `json:"order_id"`
		TailorID uint `json:"tailor_id"`
		ActorID  uint `json:"actor_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.OrderID == 0 || req.TailorID == 0 || req.ActorID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"order_id": "required", "tailor_id": "required", "actor_id": "required"})
		return
	}
	order, err := h.Svc.AssignTailor(r.Context(), req.OrderID, req.TailorID, req.ActorID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

// SetStatus: POST /orders/status – administrative edit (Trial entry).
func (h *OrderHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID uint   `json:"order_id"`
		Status  string `json:"status"`
		ActorID uint   `json:"actor_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.OrderID == 0 || req.Status == "" || req.ActorID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"order_id": "required", "status": "required", "actor_id": "required"})
		return
	}
	order, err := h.Svc.SetStatus(r.Context(), req.OrderID, models.OrderStatus(req.Status), req.ActorID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

// RecomputePricing: POST /orders/recompute-pricing
func (h *OrderHandler) RecomputePricing(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeTransition(w, r)
	if !ok {
		return
	}
	order, err := h.Svc.RecomputePricing(r.Context(), req.OrderID, req.ActorID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": order.ID, "total_amount": order.TotalAmount})
}
