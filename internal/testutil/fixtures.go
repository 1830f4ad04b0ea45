package testutil

import (
	"time"

	"github.com/cassiomorais/cardgateway/internal/domain/order"
	"github.com/cassiomorais/cardgateway/internal/domain/payment"
	"github.com/google/uuid"
)

// NewTestOrder creates an order with a resolvable billing address.
func NewTestOrder() *order.Order {
	now := time.Now()
	return &order.Order{
		ID:       uuid.New(),
		Number:   "R100200300",
		Email:    "spree@example.com",
		Currency: "USD",
		BillAddress: &order.Address{
			ID:          uuid.New(),
			Address1:    "10 Lovely Street",
			Address2:    "Northwest",
			City:        "Herndon",
			Zip:         "20170",
			StateName:   "Virginia",
			CountryName: "United States",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestOrderWithoutAddress creates an order lacking a billing address.
func NewTestOrderWithoutAddress() *order.Order {
	o := NewTestOrder()
	o.BillAddress = nil
	return o
}

// NewTestCard creates an untokenized raw card attached to the order.
func NewTestCard(orderID uuid.UUID) *order.CreditCard {
	now := time.Now()
	return &order.CreditCard{
		ID:                uuid.New(),
		OrderID:           orderID,
		Brand:             "Visa",
		Last4:             "4242",
		ExpMonth:          1,
		ExpYear:           2030,
		Name:              "Mister Spree",
		Number:            "4242424242424242",
		VerificationValue: "123",
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// NewTokenizedCard creates a card that already carries provider profile ids.
func NewTokenizedCard(orderID uuid.UUID) *order.CreditCard {
	c := NewTestCard(orderID)
	c.Number = ""
	c.VerificationValue = ""
	c.GatewayCustomerProfileID = "cus_FOO"
	c.GatewayPaymentProfileID = "card_BAR"
	return c
}

// NewTestPayment creates a pending payment for the order and card.
func NewTestPayment(orderID, cardID uuid.UUID, amount float64, currency string) *payment.Payment {
	p, err := payment.New(orderID, cardID, amount, currency)
	if err != nil {
		panic(err)
	}
	return p
}
