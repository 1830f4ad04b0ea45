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

// CardRepository implements order.CardRepository using PostgreSQL.
// Raw card number and CVC are never persisted.
type CardRepository struct {
	pool *pgxpool.Pool
}

func NewCardRepository(pool *pgxpool.Pool) *CardRepository {
	return &CardRepository{pool: pool}
}

func (r *CardRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// Create inserts a new card record.
func (r *CardRepository) Create(ctx context.Context, c *order.CreditCard) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO credit_cards
		 (id, order_id, brand, last4, exp_month, exp_year, name,
		  gateway_customer_profile_id, gateway_payment_profile_id, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		c.ID, c.OrderID, c.Brand, c.Last4, c.ExpMonth, c.ExpYear, c.Name,
		nullIfEmpty(c.GatewayCustomerProfileID), nullIfEmpty(c.GatewayPaymentProfileID),
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert card: %w", err)
	}
	return nil
}

// GetByID retrieves a card by its ID.
func (r *CardRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.CreditCard, error) {
	c := &order.CreditCard{}
	var customerProfileID, paymentProfileID *string

	err := r.db(ctx).QueryRow(ctx,
		`SELECT id, order_id, brand, last4, exp_month, exp_year, name,
		        gateway_customer_profile_id, gateway_payment_profile_id, created_at, updated_at
		 FROM credit_cards WHERE id = $1`, id,
	).Scan(
		&c.ID, &c.OrderID, &c.Brand, &c.Last4, &c.ExpMonth, &c.ExpYear, &c.Name,
		&customerProfileID, &paymentProfileID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrCardNotFound
		}
		return nil, fmt.Errorf("get card: %w", err)
	}

	c.GatewayCustomerProfileID = deref(customerProfileID)
	c.GatewayPaymentProfileID = deref(paymentProfileID)
	return c, nil
}

// UpdateProfile persists the complete profile result in one statement:
// both provider tokens together with the card fields rewritten from the
// provider's card record.
func (r *CardRepository) UpdateProfile(ctx context.Context, c *order.CreditCard) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE credit_cards SET
		  brand=$1, last4=$2, exp_month=$3, exp_year=$4, name=$5,
		  gateway_customer_profile_id=$6, gateway_payment_profile_id=$7, updated_at=$8
		 WHERE id=$9`,
		c.Brand, c.Last4, c.ExpMonth, c.ExpYear, c.Name,
		nullIfEmpty(c.GatewayCustomerProfileID), nullIfEmpty(c.GatewayPaymentProfileID),
		c.UpdatedAt, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update card profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrCardNotFound
	}
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
