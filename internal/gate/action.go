package gate

// Action describes the kind of operation a user wants to perform.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionList   Action = "list"

	// Lifecycle and ledger operations.
	ActionStartWork     Action = "start_work"
	ActionAdvance       Action = "advance"
	ActionCancel        Action = "cancel"
	ActionDeliver       Action = "deliver"
	ActionAssignTailor  Action = "assign_tailor"
	ActionSetStatus     Action = "set_status"
	ActionRecordPayment Action = "record_payment"
	ActionRestock       Action = "restock"
	ActionRecompute     Action = "recompute_pricing"
)
