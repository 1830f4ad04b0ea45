package payment

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence operations for payments.
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	Update(ctx context.Context, p *Payment) error
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]*Payment, error)
}
