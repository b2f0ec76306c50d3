package main

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/tailor-app/internal/logging"
	"github.com/diewo77/tailor-app/internal/notify"
	"github.com/diewo77/tailor-app/internal/policy"
	"github.com/diewo77/tailor-app/internal/services"
)

// runRecomputePricing backfills total_amount for orders stored without one.
// Pricing is deterministic, so the pass is safe to re-run.
func runRecomputePricing(conn *gorm.DB) error {
	log := logging.New("recompute-pricing")
	g := policy.New()
	fabrics := services.NewFabricService(conn, g)
	billing := services.NewBillingService(conn, g)
	orders := services.NewOrderService(conn, g, fabrics, billing, notify.NewEmitter(notify.NewLogDispatcher()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	n, err := orders.RecomputeAllMissing(ctx)
	if err != nil {
		return err
	}
	log.Info("backfill complete", "orders_updated", n)
	return nil
}
