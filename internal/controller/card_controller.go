package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/cassiomorais/cardgateway/internal/domain/order"
	"github.com/cassiomorais/cardgateway/internal/gateway"
	"github.com/cassiomorais/cardgateway/internal/service"
)

// CardOperations is the service surface the card controller depends on.
type CardOperations interface {
	RegisterCard(ctx context.Context, in service.RegisterCardInput) (*order.CreditCard, error)
	CreateProfile(ctx context.Context, cardID uuid.UUID, in service.RegisterCardInput) (*order.CreditCard, error)
}

type CardController struct {
	service CardOperations
}

func NewCardController(service CardOperations) *CardController {
	return &CardController{service: service}
}

// Register handles POST /api/v1/cards: tokenize a card with the
// provider and persist the resulting record. A provider decline still
// creates the card row; the decline is reported alongside it.
func (c *CardController) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterCardRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	orderID, _ := uuid.Parse(req.OrderID)
	card, err := c.service.RegisterCard(r.Context(), service.RegisterCardInput{
		OrderID:           orderID,
		Number:            req.Number,
		ExpMonth:          req.ExpMonth,
		ExpYear:           req.ExpYear,
		Name:              req.Name,
		VerificationValue: req.VerificationValue,
		Brand:             req.Brand,
	})
	if err != nil {
		var businessErr *gateway.BusinessError
		if card != nil && errors.As(err, &businessErr) {
			writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
				Error: businessErr.Message,
				Code:  "card_declined",
			})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, FromCard(card))
}

// CreateProfile handles POST /api/v1/cards/{id}/profile: retry
// tokenization of a card whose earlier attempt failed.
func (c *CardController) CreateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req CreateProfileRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	card, err := c.service.CreateProfile(r.Context(), id, service.RegisterCardInput{
		Number:            req.Number,
		VerificationValue: req.VerificationValue,
		Brand:             req.Brand,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromCard(card))
}
