package plan

import (
	"context"
)

// Repository defines the interface for plan catalog persistence.
// The catalog is read-only to the billing core; plan rows are created and
// retired through back-office tooling.
type Repository interface {
	Get(ctx context.Context, id string) (*Plan, error)
	List(ctx context.Context) ([]*Plan, error)
}
