// Package service orchestrates payment flows between the repositories
// and the provider gateway.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	domainErrors "github.com/cassiomorais/cardgateway/internal/domain/errors"
	"github.com/cassiomorais/cardgateway/internal/domain/order"
	"github.com/cassiomorais/cardgateway/internal/domain/payment"
	"github.com/cassiomorais/cardgateway/internal/gateway"
	"github.com/cassiomorais/cardgateway/internal/observability"
)

// TxRunner runs a function inside a database transaction.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// PaymentService implements the payment use cases.
type PaymentService struct {
	payments payment.Repository
	orders   order.Repository
	cards    order.CardRepository
	gw       *gateway.Gateway
	tx       TxRunner
	metrics  *observability.Metrics
	logger   zerolog.Logger
}

func NewPaymentService(
	payments payment.Repository,
	orders order.Repository,
	cards order.CardRepository,
	gw *gateway.Gateway,
	tx TxRunner,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *PaymentService {
	return &PaymentService{
		payments: payments,
		orders:   orders,
		cards:    cards,
		gw:       gw,
		tx:       tx,
		metrics:  metrics,
		logger:   logger.With().Str("component", "payment_service").Logger(),
	}
}

// RegisterCardInput carries raw card data for tokenization. The raw
// number and CVC exist only for the duration of this call; persistence
// stores tokens and display fields only.
type RegisterCardInput struct {
	OrderID           uuid.UUID
	Number            string
	ExpMonth          int
	ExpYear           int
	Name              string
	VerificationValue string
	Brand             string
}

// RegisterCard tokenizes a card with the provider and persists the
// resulting record. The card row is written even when tokenization
// fails, so the decline (and the normalized brand) is kept; the error
// is still returned for the caller to surface.
func (s *PaymentService) RegisterCard(ctx context.Context, in RegisterCardInput) (*order.CreditCard, error) {
	ord, err := s.orders.GetByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	card := &order.CreditCard{
		ID:                uuid.New(),
		OrderID:           ord.ID,
		Brand:             in.Brand,
		Last4:             lastFour(in.Number),
		ExpMonth:          in.ExpMonth,
		ExpYear:           in.ExpYear,
		Name:              in.Name,
		Number:            in.Number,
		VerificationValue: in.VerificationValue,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	profileErr := s.instrument(ctx, "store", func() error {
		return s.gw.CreateProfile(ctx, ord, card)
	})
	s.recordProfileMetric(profileErr)

	// Raw card data is dropped before the record hits storage.
	card.Number = ""
	card.VerificationValue = ""
	if err := s.cards.Create(ctx, card); err != nil {
		return nil, err
	}

	if profileErr != nil {
		s.logger.Warn().Err(profileErr).Str("order", ord.Number).Msg("card registered without profile")
		return card, profileErr
	}
	return card, nil
}

// CreateProfile registers an existing card with the provider, for cards
// whose earlier tokenization failed and was retried with fresh card
// data. The updated profile fields are persisted in a single statement.
func (s *PaymentService) CreateProfile(ctx context.Context, cardID uuid.UUID, in RegisterCardInput) (*order.CreditCard, error) {
	card, err := s.cards.GetByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	ord, err := s.orders.GetByID(ctx, card.OrderID)
	if err != nil {
		return nil, err
	}

	card.Number = in.Number
	card.VerificationValue = in.VerificationValue
	if in.Brand != "" {
		card.Brand = in.Brand
	}

	profileErr := s.instrument(ctx, "store", func() error {
		return s.gw.CreateProfile(ctx, ord, card)
	})
	s.recordProfileMetric(profileErr)

	card.Number = ""
	card.VerificationValue = ""
	card.UpdatedAt = time.Now()
	if err := s.cards.UpdateProfile(ctx, card); err != nil {
		return nil, err
	}

	if profileErr != nil {
		return card, profileErr
	}
	return card, nil
}

// CreatePayment creates a pending payment for an order's card. Only one
// payment may be in flight per order; the check and the insert run in
// one transaction.
func (s *PaymentService) CreatePayment(ctx context.Context, orderID, cardID uuid.UUID, amount float64) (*payment.Payment, error) {
	ord, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	card, err := s.cards.GetByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if card.OrderID != ord.ID {
		return nil, domainErrors.NewValidationError("card_id", "card does not belong to order")
	}

	p, err := payment.New(ord.ID, card.ID, amount, ord.Currency)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.payments.ListByOrderID(ctx, ord.ID)
		if err != nil {
			return err
		}
		for _, e := range existing {
			if e.Status == payment.StatusPending || e.Status == payment.StatusProcessing {
				return domainErrors.NewDomainError(
					"payment_in_flight",
					"order already has a payment in flight",
					domainErrors.ErrInvalidStateTransition,
				)
			}
		}
		return s.payments.Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetPayment retrieves a payment by id.
func (s *PaymentService) GetPayment(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	return s.payments.GetByID(ctx, id)
}

// ListPayments lists an order's payments.
func (s *PaymentService) ListPayments(ctx context.Context, orderID uuid.UUID) ([]*payment.Payment, error) {
	return s.payments.ListByOrderID(ctx, orderID)
}

// Purchase charges the payment's card immediately. A provider decline
// marks the payment failed and returns it without error; transport
// failures mark it failed and propagate the error.
func (s *PaymentService) Purchase(ctx context.Context, paymentID uuid.UUID) (*payment.Payment, error) {
	return s.charge(ctx, paymentID, "purchase")
}

// Authorize places a hold on the payment's card. On success the payment
// stays in processing with the provider transaction id recorded for a
// later capture or void.
func (s *PaymentService) Authorize(ctx context.Context, paymentID uuid.UUID) (*payment.Payment, error) {
	return s.charge(ctx, paymentID, "authorize")
}

func (s *PaymentService) charge(ctx context.Context, paymentID uuid.UUID, op string) (*payment.Payment, error) {
	p, ord, card, err := s.loadChargeContext(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if err := p.MarkProcessing(); err != nil {
		return nil, err
	}
	if err := s.payments.Update(ctx, p); err != nil {
		return nil, err
	}

	rc := gateway.RequestContext{OrderNumber: ord.Number, Currency: p.Currency}

	var resp *gateway.Response
	gwErr := s.instrument(ctx, op, func() error {
		var err error
		if op == "authorize" {
			resp, err = s.gw.Authorize(ctx, p.Amount, card, rc)
		} else {
			resp, err = s.gw.Purchase(ctx, p.Amount, card, rc)
		}
		return err
	})
	if gwErr != nil {
		return nil, s.failPayment(ctx, p, gwErr.Error(), gwErr)
	}

	if !resp.Success {
		if err := s.failPayment(ctx, p, resp.Message, nil); err != nil {
			return nil, err
		}
		return p, nil
	}

	if op == "authorize" {
		p.ResponseCode = &resp.TransactionID
		p.UpdatedAt = time.Now()
	} else {
		if err := p.MarkCompleted(&resp.TransactionID); err != nil {
			return nil, err
		}
	}
	if err := s.payments.Update(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info().Str("payment", p.ID.String()).Str("operation", op).
		Str("response_code", resp.TransactionID).Msg("charge succeeded")
	return p, nil
}

// Capture settles a previously authorized payment, replaying the
// authorized amount in minor units unchanged.
func (s *PaymentService) Capture(ctx context.Context, paymentID uuid.UUID) (*payment.Payment, error) {
	p, ord, _, err := s.loadChargeContext(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.ResponseCode == nil {
		return nil, domainErrors.ErrMissingResponseCode
	}

	rc := gateway.RequestContext{OrderNumber: ord.Number, Currency: p.Currency}

	var resp *gateway.Response
	gwErr := s.instrument(ctx, "capture", func() error {
		var err error
		resp, err = s.gw.Capture(ctx, gateway.ToMinorUnits(p.Amount), *p.ResponseCode, rc)
		return err
	})
	if gwErr != nil {
		return nil, s.failPayment(ctx, p, gwErr.Error(), gwErr)
	}
	if !resp.Success {
		if err := s.failPayment(ctx, p, resp.Message, nil); err != nil {
			return nil, err
		}
		return p, nil
	}

	if err := p.MarkCompleted(nil); err != nil {
		return nil, err
	}
	if err := s.payments.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Refund returns the funds of a completed payment.
func (s *PaymentService) Refund(ctx context.Context, paymentID uuid.UUID) (*payment.Payment, error) {
	p, ord, card, err := s.loadChargeContext(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.ResponseCode == nil {
		return nil, domainErrors.ErrMissingResponseCode
	}
	if !p.CanTransitionTo(payment.StatusRefunded) {
		return nil, domainErrors.ErrInvalidStateTransition
	}

	rc := gateway.RequestContext{OrderNumber: ord.Number, Currency: p.Currency}

	var resp *gateway.Response
	gwErr := s.instrument(ctx, "refund", func() error {
		var err error
		resp, err = s.gw.Credit(ctx, gateway.ToMinorUnits(p.Amount), card, *p.ResponseCode, rc)
		return err
	})
	if gwErr != nil {
		return nil, gwErr
	}
	if !resp.Success {
		return nil, &gateway.BusinessError{Message: resp.Message}
	}

	if err := p.MarkRefunded(); err != nil {
		return nil, err
	}
	if err := s.payments.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Void cancels an uncaptured payment.
func (s *PaymentService) Void(ctx context.Context, paymentID uuid.UUID) (*payment.Payment, error) {
	p, ord, card, err := s.loadChargeContext(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.ResponseCode == nil {
		return nil, domainErrors.ErrMissingResponseCode
	}
	if !p.CanTransitionTo(payment.StatusVoid) {
		return nil, domainErrors.ErrInvalidStateTransition
	}

	rc := gateway.RequestContext{OrderNumber: ord.Number, Currency: p.Currency}

	var resp *gateway.Response
	gwErr := s.instrument(ctx, "void", func() error {
		var err error
		resp, err = s.gw.Void(ctx, *p.ResponseCode, card, rc)
		return err
	})
	if gwErr != nil {
		return nil, gwErr
	}
	if !resp.Success {
		return nil, &gateway.BusinessError{Message: resp.Message}
	}

	if err := p.MarkVoid(); err != nil {
		return nil, err
	}
	if err := s.payments.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PaymentService) loadChargeContext(ctx context.Context, paymentID uuid.UUID) (*payment.Payment, *order.Order, *order.CreditCard, error) {
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, nil, nil, err
	}
	ord, err := s.orders.GetByID(ctx, p.OrderID)
	if err != nil {
		return nil, nil, nil, err
	}
	card, err := s.cards.GetByID(ctx, p.CardID)
	if err != nil {
		return nil, nil, nil, err
	}
	return p, ord, card, nil
}

// failPayment records the failure on the payment. When cause is non-nil
// it is returned (wrapping the persistence error if that also fails).
func (s *PaymentService) failPayment(ctx context.Context, p *payment.Payment, message string, cause error) error {
	if err := p.MarkFailed(message); err != nil {
		return errors.Join(cause, err)
	}
	if err := s.payments.Update(ctx, p); err != nil {
		if cause != nil {
			return fmt.Errorf("persist failure after %w: %v", cause, err)
		}
		return err
	}
	s.logger.Warn().Str("payment", p.ID.String()).Str("reason", message).Msg("payment failed")
	return cause
}

func (s *PaymentService) instrument(ctx context.Context, op string, fn func() error) error {
	started := time.Now()
	err := fn()

	if s.metrics != nil {
		result := "success"
		if err != nil {
			result = "error"
		}
		s.metrics.GatewayOperationsTotal.WithLabelValues(op, result).Inc()
		s.metrics.GatewayOperationDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
	}
	return err
}

func (s *PaymentService) recordProfileMetric(err error) {
	if s.metrics == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	s.metrics.ProfileCreationsTotal.WithLabelValues(result).Inc()
}

func lastFour(number string) string {
	if len(number) < 4 {
		return number
	}
	return number[len(number)-4:]
}
