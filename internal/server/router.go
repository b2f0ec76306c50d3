package server

import (
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/tailor-app/internal/handlers"
	"github.com/diewo77/tailor-app/internal/httpx"
	"github.com/diewo77/tailor-app/internal/logging"
	"github.com/diewo77/tailor-app/internal/notify"
	"github.com/diewo77/tailor-app/internal/policy"
	"github.com/diewo77/tailor-app/internal/services"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB, dispatcher notify.Dispatcher) http.Handler {
	mux := http.NewServeMux()

	g := policy.New()
	fabricSvc := services.NewFabricService(db, g)
	billingSvc := services.NewBillingService(db, g)
	orderSvc := services.NewOrderService(db, g, fabricSvc, billingSvc, notify.NewEmitter(dispatcher))

	// --- Health endpoints ---
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Order endpoints
	oh := handlers.NewOrderHandler(orderSvc)
	mux.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			oh.List(w, r)
		case http.MethodPost:
			oh.Create(w, r)
		default:
			w.Header().Set("Allow", "GET,POST")
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		}
	})
	mux.HandleFunc("/orders/get", allowOnly(oh.Get, http.MethodGet))
	mux.HandleFunc("/orders/start", allowOnly(oh.StartWork, http.MethodPost))
	mux.HandleFunc("/orders/advance", allowOnly(oh.Advance, http.MethodPost))
	mux.HandleFunc("/orders/cancel", allowOnly(oh.Cancel, http.MethodPost))
	mux.HandleFunc("/orders/deliver", allowOnly(oh.Deliver, http.MethodPost))
	mux.HandleFunc("/orders/assign", allowOnly(oh.AssignTailor, http.MethodPost))
	mux.HandleFunc("/orders/status", allowOnly(oh.SetStatus, http.MethodPost))
	mux.HandleFunc("/orders/recompute-pricing", allowOnly(oh.RecomputePricing, http.MethodPost))

	// Billing endpoints
	bh := handlers.NewBillHandler(billingSvc)
	mux.HandleFunc("/bills", allowOnly(bh.GetOrCreate, http.MethodGet))
	mux.HandleFunc("/bills/pay", allowOnly(bh.RecordPayment, http.MethodPost))

	// Fabric endpoints
	fh := handlers.NewFabricHandler(fabricSvc)
	mux.HandleFunc("/fabrics", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			fh.List(w, r)
		case http.MethodPost:
			fh.Create(w, r)
		default:
			w.Header().Set("Allow", "GET,POST")
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		}
	})
	mux.HandleFunc("/fabrics/restock", allowOnly(fh.Restock, http.MethodPost))

	return withRecover(withLogging(mux))
}

// allowOnly pins a handler to one method.
func allowOnly(h http.HandlerFunc, method string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
			return
		}
		h(w, r)
	}
}

func withLogging(next http.Handler) http.Handler {
	log := logging.New("http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Info("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start).String())
	})
}

func withRecover(next http.Handler) http.Handler {
	log := logging.New("http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("panic", "path", r.URL.Path, "panic", rec)
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
