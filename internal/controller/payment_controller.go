package controller

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	domainErrors "github.com/cassiomorais/cardgateway/internal/domain/errors"
	"github.com/cassiomorais/cardgateway/internal/domain/payment"
)

// PaymentOperations is the service surface the controller depends on.
type PaymentOperations interface {
	CreatePayment(ctx context.Context, orderID, cardID uuid.UUID, amount float64) (*payment.Payment, error)
	GetPayment(ctx context.Context, id uuid.UUID) (*payment.Payment, error)
	ListPayments(ctx context.Context, orderID uuid.UUID) ([]*payment.Payment, error)
	Purchase(ctx context.Context, paymentID uuid.UUID) (*payment.Payment, error)
	Authorize(ctx context.Context, paymentID uuid.UUID) (*payment.Payment, error)
	Capture(ctx context.Context, paymentID uuid.UUID) (*payment.Payment, error)
	Refund(ctx context.Context, paymentID uuid.UUID) (*payment.Payment, error)
	Void(ctx context.Context, paymentID uuid.UUID) (*payment.Payment, error)
}

type PaymentController struct {
	service PaymentOperations
}

func NewPaymentController(service PaymentOperations) *PaymentController {
	return &PaymentController{service: service}
}

// Create handles POST /api/v1/payments.
func (c *PaymentController) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	orderID, _ := uuid.Parse(req.OrderID)
	cardID, _ := uuid.Parse(req.CardID)

	p, err := c.service.CreatePayment(r.Context(), orderID, cardID, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, FromPayment(p))
}

// Get handles GET /api/v1/payments/{id}.
func (c *PaymentController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	p, err := c.service.GetPayment(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromPayment(p))
}

// ListByOrder handles GET /api/v1/orders/{id}/payments.
func (c *PaymentController) ListByOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	payments, err := c.service.ListPayments(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, FromPayment(p))
	}
	writeJSON(w, http.StatusOK, out)
}

// Purchase handles POST /api/v1/payments/{id}/purchase.
func (c *PaymentController) Purchase(w http.ResponseWriter, r *http.Request) {
	c.operate(w, r, c.service.Purchase)
}

// Authorize handles POST /api/v1/payments/{id}/authorize.
func (c *PaymentController) Authorize(w http.ResponseWriter, r *http.Request) {
	c.operate(w, r, c.service.Authorize)
}

// Capture handles POST /api/v1/payments/{id}/capture.
func (c *PaymentController) Capture(w http.ResponseWriter, r *http.Request) {
	c.operate(w, r, c.service.Capture)
}

// Refund handles POST /api/v1/payments/{id}/refund.
func (c *PaymentController) Refund(w http.ResponseWriter, r *http.Request) {
	c.operate(w, r, c.service.Refund)
}

// Void handles POST /api/v1/payments/{id}/void.
func (c *PaymentController) Void(w http.ResponseWriter, r *http.Request) {
	c.operate(w, r, c.service.Void)
}

func (c *PaymentController) operate(w http.ResponseWriter, r *http.Request, op func(context.Context, uuid.UUID) (*payment.Payment, error)) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	p, err := op(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromPayment(p))
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, domainErrors.NewValidationError("id", "must be a valid UUID")
	}
	return id, nil
}
