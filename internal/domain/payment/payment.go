package payment

import (
	"time"

	"github.com/cassiomorais/cardgateway/internal/domain/errors"
	"github.com/google/uuid"
)

// Status represents the payment status in the state machine
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusVoid       Status = "void"
	StatusRefunded   Status = "refunded"
)

// Payment represents one charge attempt against an order's credit card.
// Amount is a decimal amount in major currency units; conversion to the
// provider's minor units happens inside the gateway adapter.
type Payment struct {
	ID       uuid.UUID
	OrderID  uuid.UUID
	CardID   uuid.UUID
	Amount   float64
	Currency string
	Status   Status

	// ResponseCode is the provider transaction id recorded after an
	// authorize or purchase; capture, refund and void reference it.
	ResponseCode *string
	LastError    *string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// New creates a new pending payment
func New(orderID, cardID uuid.UUID, amount float64, currency string) (*Payment, error) {
	if amount <= 0 {
		return nil, errors.NewValidationError("amount", "must be greater than 0")
	}
	if len(currency) != 3 {
		return nil, errors.NewValidationError("currency", "must be a 3-letter ISO code")
	}

	now := time.Now()
	return &Payment{
		ID:        uuid.New(),
		OrderID:   orderID,
		CardID:    cardID,
		Amount:    amount,
		Currency:  currency,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CanTransitionTo checks if the payment can transition to the given status
func (p *Payment) CanTransitionTo(newStatus Status) bool {
	transitions := map[Status][]Status{
		StatusPending: {
			StatusProcessing,
			StatusCompleted, // one-shot purchase
			StatusVoid,
		},
		StatusProcessing: {
			StatusCompleted,
			StatusFailed,
			StatusVoid,
		},
		StatusCompleted: {
			StatusRefunded,
		},
		StatusFailed: {
			StatusProcessing, // retry
		},
		StatusVoid:     {}, // Terminal state
		StatusRefunded: {}, // Terminal state
	}

	allowed, exists := transitions[p.Status]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == newStatus {
			return true
		}
	}
	return false
}

// TransitionTo transitions the payment to a new status
func (p *Payment) TransitionTo(newStatus Status) error {
	if !p.CanTransitionTo(newStatus) {
		return errors.NewDomainError(
			"invalid_transition",
			"cannot transition from "+string(p.Status)+" to "+string(newStatus),
			errors.ErrInvalidStateTransition,
		)
	}

	p.Status = newStatus
	p.UpdatedAt = time.Now()

	if newStatus == StatusCompleted || newStatus == StatusFailed || newStatus == StatusVoid {
		now := time.Now()
		p.CompletedAt = &now
	}

	return nil
}

// MarkProcessing transitions the payment to processing status
func (p *Payment) MarkProcessing() error {
	return p.TransitionTo(StatusProcessing)
}

// MarkCompleted transitions the payment to completed status
func (p *Payment) MarkCompleted(responseCode *string) error {
	if err := p.TransitionTo(StatusCompleted); err != nil {
		return err
	}
	if responseCode != nil {
		p.ResponseCode = responseCode
	}
	return nil
}

// MarkFailed transitions the payment to failed status
func (p *Payment) MarkFailed(errorMsg string) error {
	if err := p.TransitionTo(StatusFailed); err != nil {
		return err
	}
	p.LastError = &errorMsg
	return nil
}

// MarkVoid transitions the payment to void status
func (p *Payment) MarkVoid() error {
	return p.TransitionTo(StatusVoid)
}

// MarkRefunded transitions the payment to refunded status
func (p *Payment) MarkRefunded() error {
	return p.TransitionTo(StatusRefunded)
}

// IsTerminal checks if the payment is in a terminal state
func (p *Payment) IsTerminal() bool {
	return p.Status == StatusVoid || p.Status == StatusRefunded
}
