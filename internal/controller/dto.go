package controller

import (
	"time"

	"github.com/cassiomorais/cardgateway/internal/domain/order"
	"github.com/cassiomorais/cardgateway/internal/domain/payment"
)

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// CreatePaymentRequest creates a pending payment for an order's card.
type CreatePaymentRequest struct {
	OrderID string  `json:"order_id" validate:"required,uuid"`
	CardID  string  `json:"card_id" validate:"required,uuid"`
	Amount  float64 `json:"amount" validate:"required,gt=0"`
}

// PaymentResponse is the API shape of a payment.
type PaymentResponse struct {
	ID           string     `json:"id"`
	OrderID      string     `json:"order_id"`
	CardID       string     `json:"card_id"`
	Amount       float64    `json:"amount"`
	Currency     string     `json:"currency"`
	Status       string     `json:"status"`
	ResponseCode *string    `json:"response_code,omitempty"`
	LastError    *string    `json:"last_error,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// FromPayment converts a domain payment to its API shape.
func FromPayment(p *payment.Payment) PaymentResponse {
	return PaymentResponse{
		ID:           p.ID.String(),
		OrderID:      p.OrderID.String(),
		CardID:       p.CardID.String(),
		Amount:       p.Amount,
		Currency:     p.Currency,
		Status:       string(p.Status),
		ResponseCode: p.ResponseCode,
		LastError:    p.LastError,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
		CompletedAt:  p.CompletedAt,
	}
}

// RegisterCardRequest tokenizes a new card for an order. Raw card data
// is forwarded to the provider and never stored.
type RegisterCardRequest struct {
	OrderID           string `json:"order_id" validate:"required,uuid"`
	Number            string `json:"number" validate:"required,min=12,max=19"`
	ExpMonth          int    `json:"exp_month" validate:"required,min=1,max=12"`
	ExpYear           int    `json:"exp_year" validate:"required,min=2000"`
	Name              string `json:"name" validate:"required"`
	VerificationValue string `json:"verification_value" validate:"required,min=3,max=4"`
	Brand             string `json:"brand"`
}

// CreateProfileRequest retries tokenization of an existing card with
// fresh card data.
type CreateProfileRequest struct {
	Number            string `json:"number" validate:"required,min=12,max=19"`
	VerificationValue string `json:"verification_value" validate:"required,min=3,max=4"`
	Brand             string `json:"brand"`
}

// CardResponse is the API shape of a stored card. Raw number and CVC
// are never echoed.
type CardResponse struct {
	ID                string `json:"id"`
	OrderID           string `json:"order_id"`
	Brand             string `json:"brand"`
	Last4             string `json:"last4"`
	ExpMonth          int    `json:"exp_month"`
	ExpYear           int    `json:"exp_year"`
	Name              string `json:"name"`
	CustomerProfileID string `json:"customer_profile_id,omitempty"`
	PaymentProfileID  string `json:"payment_profile_id,omitempty"`
}

// FromCard converts a domain card to its API shape.
func FromCard(c *order.CreditCard) CardResponse {
	return CardResponse{
		ID:                c.ID.String(),
		OrderID:           c.OrderID.String(),
		Brand:             c.Brand,
		Last4:             c.Last4,
		ExpMonth:          c.ExpMonth,
		ExpYear:           c.ExpYear,
		Name:              c.Name,
		CustomerProfileID: c.GatewayCustomerProfileID,
		PaymentProfileID:  c.GatewayPaymentProfileID,
	}
}
