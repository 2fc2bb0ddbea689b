// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"time"
)

// Repository is the ledger storage contract. The memory backend is the
// reference implementation; the postgres backend exists for deployments
// that need the ledger to survive restarts.
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Update(ctx context.Context, user *User) error

	// SaveAward persists the user record and bumps the award-event bucket
	// for the given calendar day in one step.
	SaveAward(ctx context.Context, user *User, day time.Time) error

	List(ctx context.Context, params ListUsersParams) ([]User, int, error)
	All(ctx context.Context) ([]User, error)

	CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error)
	AwardsBetween(ctx context.Context, from, to time.Time) (int, error)
}
