package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/diewo77/tailor-app/internal/httpx"
	"github.com/diewo77/tailor-app/internal/services"
)

type BillHandler struct {
	Svc *services.BillingService
}

func NewBillHandler(svc *services.BillingService) *BillHandler {
	return &BillHandler{Svc: svc}
}

// GetOrCreate: GET /bills?order_id= – lazily creates the bill on first access.
func (h *BillHandler) GetOrCreate(w http.ResponseWriter, r *http.Request) {
	orderID, ok := queryID(r, "order_id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "missing_order_id", nil)
		return
	}
	bill, err := h.Svc.GetOrCreateBill(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bill)
}

// RecordPayment: POST /bills/pay
func (h *BillHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BillID    uint    `json:"bill_id"`
		ActorID   uint    `json:"actor_id"`
		Amount    float64 `json:"amount"`
		Method    string  `json:"method"`
		Reference string  `json:"reference"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.BillID == 0 || req.ActorID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"bill_id": "required", "actor_id": "required"})
		return
	}
	bill, err := h.Svc.RecordPayment(r.Context(), req.ActorID, req.BillID, req.Amount, req.Method, req.Reference)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bill)
}
