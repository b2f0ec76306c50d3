package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/diewo77/tailor-app/internal/models"
)

func TestBillGetOrCreateAndPay(t *testing.T) {
	env := setupHandlerEnv(t)
	order := placeOrderViaHandler(t, env)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/bills?order_id=%d", order.ID), nil)
	w := httptest.NewRecorder()
	env.bills.GetOrCreate(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", w.Code, w.Body.String())
	}
	var bill models.Bill
	if err := json.Unmarshal(w.Body.Bytes(), &bill); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if bill.Amount != 1000 || bill.Status != models.BillStatusUnpaid { // kurta base price
		t.Errorf("bill = %v/%s, want 1000/Unpaid", bill.Amount, bill.Status)
	}

	pay := func(amount float64, method string) *httptest.ResponseRecorder {
		body := fmt.Sprintf(`{"actor_id": %d, "bill_id": %d, "amount": %v, "method": %q}`, env.staff.ID, bill.ID, amount, method)
		req := httptest.NewRequest(http.MethodPost, "/bills/pay", strings.NewReader(body))
		w := httptest.NewRecorder()
		env.bills.RecordPayment(w, req)
		return w
	}

	w2 := pay(400, models.PaymentMethodCash)
	if w2.Code != http.StatusOK {
		t.Fatalf("first payment: expected 200 got %d: %s", w2.Code, w2.Body.String())
	}
	var after models.Bill
	if err := json.Unmarshal(w2.Body.Bytes(), &after); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if after.AmountPaid != 400 || after.Status != models.BillStatusPartial {
		t.Errorf("after 400: %v/%s, want 400/Partial", after.AmountPaid, after.Status)
	}

	w3 := pay(600, models.PaymentMethodUPI)
	if w3.Code != http.StatusOK {
		t.Fatalf("second payment: expected 200 got %d", w3.Code)
	}
	if err := json.Unmarshal(w3.Body.Bytes(), &after); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if after.AmountPaid != 1000 || after.Status != models.BillStatusPaid {
		t.Errorf("after 1000: %v/%s, want 1000/Paid", after.AmountPaid, after.Status)
	}
	if len(after.Payments) != 2 {
		t.Errorf("payments = %d, want 2", len(after.Payments))
	}
}

func TestBillPay_Validation(t *testing.T) {
	env := setupHandlerEnv(t)
	order := placeOrderViaHandler(t, env)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/bills?order_id=%d", order.ID), nil)
	w := httptest.NewRecorder()
	env.bills.GetOrCreate(w, req)
	var bill models.Bill
	if err := json.Unmarshal(w.Body.Bytes(), &bill); err != nil {
		t.Fatalf("decode: %v", err)
	}

	body := fmt.Sprintf(`{"actor_id": %d, "bill_id": %d, "amount": -5, "method": "Cash"}`, env.staff.ID, bill.ID)
	req2 := httptest.NewRequest(http.MethodPost, "/bills/pay", strings.NewReader(body))
	w2 := httptest.NewRecorder()
	env.bills.RecordPayment(w2, req2)
	if w2.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w2.Code)
	}

	body = fmt.Sprintf(`{"actor_id": %d, "bill_id": %d, "amount": 100, "method": "Cheque"}`, env.staff.ID, bill.ID)
	req3 := httptest.NewRequest(http.MethodPost, "/bills/pay", strings.NewReader(body))
	w3 := httptest.NewRecorder()
	env.bills.RecordPayment(w3, req3)
	if w3.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w3.Code)
	}

	// An actor is required before the payment is even considered.
	body = fmt.Sprintf(`{"bill_id": %d, "amount": 100, "method": "Cash"}`, bill.ID)
	req4 := httptest.NewRequest(http.MethodPost, "/bills/pay", strings.NewReader(body))
	w4 := httptest.NewRecorder()
	env.bills.RecordPayment(w4, req4)
	if w4.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w4.Code)
	}
}

func TestBillPay_StaffOnly(t *testing.T) {
	env := setupHandlerEnv(t)
	order := placeOrderViaHandler(t, env)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/bills?order_id=%d", order.ID), nil)
	w := httptest.NewRecorder()
	env.bills.GetOrCreate(w, req)
	var bill models.Bill
	if err := json.Unmarshal(w.Body.Bytes(), &bill); err != nil {
		t.Fatalf("decode: %v", err)
	}

	body := fmt.Sprintf(`{"actor_id": %d, "bill_id": %d, "amount": 100, "method": "Cash"}`, env.customer.ID, bill.ID)
	req2 := httptest.NewRequest(http.MethodPost, "/bills/pay", strings.NewReader(body))
	w2 := httptest.NewRecorder()
	env.bills.RecordPayment(w2, req2)
	if w2.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d: %s", w2.Code, w2.Body.String())
	}
}

func TestBillGetOrCreate_OrderMissing(t *testing.T) {
	env := setupHandlerEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/bills?order_id=9999", nil)
	w := httptest.NewRecorder()
	env.bills.GetOrCreate(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Code)
	}
}

func TestFabricRestock_HTTP(t *testing.T) {
	env := setupHandlerEnv(t)
	fab := models.Fabric{Name: "Wool", Stock: 2, UnitPrice: 300}
	if err := env.db.Create(&fab).Error; err != nil {
		t.Fatalf("seed fabric: %v", err)
	}

	body := fmt.Sprintf(`{"actor_id": %d, "fabric_id": %d, "quantity": 3}`, env.staff.ID, fab.ID)
	req := httptest.NewRequest(http.MethodPost, "/fabrics/restock", strings.NewReader(body))
	w := httptest.NewRecorder()
	env.fabrics.Restock(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", w.Code, w.Body.String())
	}
	var got models.Fabric
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Stock != 5 {
		t.Errorf("stock = %v, want 5", got.Stock)
	}
}

func TestFabricRestock_RequiresActor(t *testing.T) {
	env := setupHandlerEnv(t)
	fab := models.Fabric{Name: "Wool", Stock: 5, UnitPrice: 300}
	if err := env.db.Create(&fab).Error; err != nil {
		t.Fatalf("seed fabric: %v", err)
	}

	// No actor in the request: refused before any stock moves.
	body := fmt.Sprintf(`{"fabric_id": %d, "quantity": 100}`, fab.ID)
	req := httptest.NewRequest(http.MethodPost, "/fabrics/restock", strings.NewReader(body))
	w := httptest.NewRecorder()
	env.fabrics.Restock(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", w.Code, w.Body.String())
	}

	// A customer actor is refused too.
	body = fmt.Sprintf(`{"actor_id": %d, "fabric_id": %d, "quantity": 100}`, env.customer.ID, fab.ID)
	req2 := httptest.NewRequest(http.MethodPost, "/fabrics/restock", strings.NewReader(body))
	w2 := httptest.NewRecorder()
	env.fabrics.Restock(w2, req2)
	if w2.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d: %s", w2.Code, w2.Body.String())
	}

	var after models.Fabric
	if err := env.db.First(&after, fab.ID).Error; err != nil {
		t.Fatalf("reload fabric: %v", err)
	}
	if after.Stock != 5 {
		t.Errorf("stock = %v, want 5 (unchanged)", after.Stock)
	}
}
