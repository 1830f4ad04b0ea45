package order

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines read access to orders and their billing addresses.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
}

// CardRepository defines persistence operations for credit cards. The
// gateway writes a card only through UpdateProfile, which persists the
// complete profile result in a single statement.
type CardRepository interface {
	Create(ctx context.Context, c *CreditCard) error
	GetByID(ctx context.Context, id uuid.UUID) (*CreditCard, error)
	UpdateProfile(ctx context.Context, c *CreditCard) error
}
