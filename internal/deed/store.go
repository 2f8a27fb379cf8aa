package deed

import "context"

// Store is interface-driven to keep the lifecycle service testable and to
// allow swapping in-memory and Postgres persistence without rewiring business
// code. Uniqueness (title number, deed number, fingerprint) is the store's
// responsibility and must be enforced as a hard constraint, not a pre-check.
type Store interface {
	Create(ctx context.Context, d Deed) error
	FindByID(ctx context.Context, id string) (Deed, error)
	// FindByNumber matches either the land title number or the deed number.
	FindByNumber(ctx context.Context, number string) (Deed, error)
	Query(ctx context.Context, filter QueryFilter) ([]Deed, error)
	Update(ctx context.Context, id string, fields UpdateFields, fingerprint string) error
	Delete(ctx context.Context, id string) error
}
