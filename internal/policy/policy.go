// Package policy wires the generic gate to this shop's resources. All role
// and ownership checks live here; services ask the gate "can this actor
// perform this operation on this record" and never compare role strings
// themselves.
package policy

import (
	"context"

	"github.com/diewo77/tailor-app/internal/gate"
	"github.com/diewo77/tailor-app/internal/models"
)

// Resource type names registered with the gate.
const (
	ResourceOrder  = "order"
	ResourceBill   = "bill"
	ResourceFabric = "fabric"
)

// Ownable is implemented by records that belong to a customer.
type Ownable interface {
	GetUserID() uint
}

// New returns the fully configured gate for the back office.
func New() *gate.Gate[*models.User] {
	g := gate.NewGate[*models.User]()
	g.Register(ResourceOrder, OrderPolicy{})
	g.Register(ResourceBill, BillPolicy{})
	g.Register(ResourceFabric, FabricPolicy{})
	return g
}

// OrderPolicy guards order lifecycle operations.
//
// Production transitions are performed by staff, or by the tailor the order
// is assigned to. Cancellation belongs to the owning customer alone.
type OrderPolicy struct{}

func (OrderPolicy) Can(_ context.Context, actor *models.User, action gate.Action, resource any) bool {
	order, _ := resource.(*models.Order)
	switch action {
	case gate.ActionCreate:
		// Staff place counter orders for any customer; everyone else places
		// only under their own account.
		if actor.IsStaff() {
			return true
		}
		return order != nil && order.GetUserID() == actor.ID
	case gate.ActionList:
		return true
	case gate.ActionView:
		if actor.IsStaff() || actor.Role == models.RoleTailor {
			return true
		}
		return order != nil && order.GetUserID() == actor.ID
	case gate.ActionStartWork, gate.ActionAdvance, gate.ActionDeliver:
		if actor.IsStaff() {
			return true
		}
		if actor.Role == models.RoleTailor {
			return order != nil && order.AssignedTo(actor.ID)
		}
		return false
	case gate.ActionCancel:
		return actor.Role == models.RoleCustomer && order != nil && order.GetUserID() == actor.ID
	case gate.ActionAssignTailor, gate.ActionSetStatus, gate.ActionUpdate, gate.ActionRecompute:
		return actor.IsStaff()
	default:
		return false
	}
}

// BillPolicy guards the billing ledger. Payments are taken at the counter by
// staff; customers may view their own bill.
type BillPolicy struct{}

func (BillPolicy) Can(_ context.Context, actor *models.User, action gate.Action, resource any) bool {
	switch action {
	case gate.ActionView:
		if actor.IsStaff() {
			return true
		}
		bill, _ := resource.(*models.Bill)
		return bill != nil && bill.Order != nil && bill.Order.GetUserID() == actor.ID
	case gate.ActionCreate, gate.ActionRecordPayment, gate.ActionList:
		return actor.IsStaff()
	default:
		return false
	}
}

// FabricPolicy guards shop inventory. Stock moves are staff-only.
type FabricPolicy struct{}

func (FabricPolicy) Can(_ context.Context, actor *models.User, action gate.Action, _ any) bool {
	switch action {
	case gate.ActionView, gate.ActionList:
		return true
	case gate.ActionCreate, gate.ActionUpdate, gate.ActionRestock:
		return actor.IsStaff()
	default:
		return false
	}
}
