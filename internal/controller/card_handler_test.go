package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cassiomorais/cardgateway/internal/domain/order"
	"github.com/cassiomorais/cardgateway/internal/gateway"
	"github.com/cassiomorais/cardgateway/internal/service"
	"github.com/cassiomorais/cardgateway/internal/testutil"
)

type stubCardService struct {
	RegisterCardFunc  func(ctx context.Context, in service.RegisterCardInput) (*order.CreditCard, error)
	CreateProfileFunc func(ctx context.Context, cardID uuid.UUID, in service.RegisterCardInput) (*order.CreditCard, error)
}

func (s *stubCardService) RegisterCard(ctx context.Context, in service.RegisterCardInput) (*order.CreditCard, error) {
	return s.RegisterCardFunc(ctx, in)
}

func (s *stubCardService) CreateProfile(ctx context.Context, cardID uuid.UUID, in service.RegisterCardInput) (*order.CreditCard, error) {
	return s.CreateProfileFunc(ctx, cardID, in)
}

func cardRouter(svc *stubCardService) *chi.Mux {
	h := NewCardController(svc)
	r := chi.NewRouter()
	r.Post("/cards", h.Register)
	r.Post("/cards/{id}/profile", h.CreateProfile)
	return r
}

func registerBody(orderID uuid.UUID) []byte {
	body, _ := json.Marshal(RegisterCardRequest{
		OrderID:           orderID.String(),
		Number:            "4242424242424242",
		ExpMonth:          1,
		ExpYear:           2030,
		Name:              "Mister Spree",
		VerificationValue: "123",
		Brand:             "Visa",
	})
	return body
}

func TestCardController_Register(t *testing.T) {
	ord := testutil.NewTestOrder()
	card := testutil.NewTokenizedCard(ord.ID)

	svc := &stubCardService{
		RegisterCardFunc: func(ctx context.Context, in service.RegisterCardInput) (*order.CreditCard, error) {
			assert.Equal(t, ord.ID, in.OrderID)
			assert.Equal(t, "4242424242424242", in.Number)
			return card, nil
		},
	}

	req := httptest.NewRequest("POST", "/cards", bytes.NewReader(registerBody(ord.ID)))
	w := httptest.NewRecorder()
	cardRouter(svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp CardResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "cus_FOO", resp.CustomerProfileID)
	assert.Equal(t, "card_BAR", resp.PaymentProfileID)
	assert.Equal(t, "4242", resp.Last4)

	// Raw card data never appears in the response payload.
	assert.NotContains(t, w.Body.String(), "4242424242424242")
}

func TestCardController_Register_Decline(t *testing.T) {
	ord := testutil.NewTestOrder()
	card := testutil.NewTestCard(ord.ID)
	card.Number = ""
	card.VerificationValue = ""

	svc := &stubCardService{
		RegisterCardFunc: func(ctx context.Context, in service.RegisterCardInput) (*order.CreditCard, error) {
			return card, &gateway.BusinessError{Message: "Your card was declined."}
		},
	}

	req := httptest.NewRequest("POST", "/cards", bytes.NewReader(registerBody(ord.ID)))
	w := httptest.NewRecorder()
	cardRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "card_declined", resp.Code)
	assert.Equal(t, "Your card was declined.", resp.Error)
}

func TestCardController_Register_ValidationError(t *testing.T) {
	svc := &stubCardService{}

	body, _ := json.Marshal(RegisterCardRequest{
		OrderID: uuid.NewString(),
		Number:  "42", // too short
	})
	req := httptest.NewRequest("POST", "/cards", bytes.NewReader(body))
	w := httptest.NewRecorder()
	cardRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCardController_CreateProfile(t *testing.T) {
	ord := testutil.NewTestOrder()
	card := testutil.NewTokenizedCard(ord.ID)

	svc := &stubCardService{
		CreateProfileFunc: func(ctx context.Context, cardID uuid.UUID, in service.RegisterCardInput) (*order.CreditCard, error) {
			assert.Equal(t, card.ID, cardID)
			return card, nil
		},
	}

	body, _ := json.Marshal(CreateProfileRequest{Number: "4242424242424242", VerificationValue: "123"})
	req := httptest.NewRequest("POST", "/cards/"+card.ID.String()+"/profile", bytes.NewReader(body))
	w := httptest.NewRecorder()
	cardRouter(svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp CardResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "cus_FOO", resp.CustomerProfileID)
}

func TestCardController_CreateProfile_ConsistencyErrorIs502(t *testing.T) {
	svc := &stubCardService{
		CreateProfileFunc: func(ctx context.Context, cardID uuid.UUID, in service.RegisterCardInput) (*order.CreditCard, error) {
			return nil, &gateway.ProfileConsistencyError{CustomerID: "cus_FOO", DefaultCard: "card_MISSING"}
		},
	}

	body, _ := json.Marshal(CreateProfileRequest{Number: "4242424242424242", VerificationValue: "123"})
	req := httptest.NewRequest("POST", "/cards/"+uuid.NewString()+"/profile", bytes.NewReader(body))
	w := httptest.NewRecorder()
	cardRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "profile_inconsistent", resp.Code)
}
