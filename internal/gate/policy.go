package gate

import "context"

// Policy defines authorization rules for a single resource type.
// resource is the loaded record (or nil for list/create-style actions).
type Policy[U comparable] interface {
	Can(ctx context.Context, user U, action Action, resource any) bool
}

// PolicyFunc adapts a function to the Policy interface.
type PolicyFunc[U comparable] func(ctx context.Context, user U, action Action, resource any) bool

func (f PolicyFunc[U]) Can(ctx context.Context, user U, action Action, resource any) bool {
	return f(ctx, user, action, resource)
}
