package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/cassiomorais/cardgateway/internal/domain/errors"
	"github.com/cassiomorais/cardgateway/internal/domain/order"
)

// OrderRepository implements order.Repository using PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// GetByID retrieves an order with its billing address, if any.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	o := &order.Order{}
	var (
		addrID      *uuid.UUID
		address1    *string
		address2    *string
		city        *string
		zip         *string
		stateName   *string
		countryName *string
	)

	err := r.db(ctx).QueryRow(ctx,
		`SELECT o.id, o.number, o.email, o.currency, o.created_at, o.updated_at,
		        a.id, a.address1, a.address2, a.city, a.zip, a.state_name, a.country_name
		 FROM orders o
		 LEFT JOIN addresses a ON a.id = o.bill_address_id
		 WHERE o.id = $1`, id,
	).Scan(
		&o.ID, &o.Number, &o.Email, &o.Currency, &o.CreatedAt, &o.UpdatedAt,
		&addrID, &address1, &address2, &city, &zip, &stateName, &countryName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if addrID != nil {
		o.BillAddress = &order.Address{
			ID:          *addrID,
			Address1:    deref(address1),
			Address2:    deref(address2),
			City:        deref(city),
			Zip:         deref(zip),
			StateName:   deref(stateName),
			CountryName: deref(countryName),
		}
	}
	return o, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
