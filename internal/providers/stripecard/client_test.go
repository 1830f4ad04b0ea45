package stripecard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cassiomorais/cardgateway/internal/gateway"
	"github.com/cassiomorais/cardgateway/internal/testutil"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := New(Config{
		BaseURL:                 srv.URL,
		SecretKey:               "sk_test_secret",
		RequestTimeout:          5 * time.Second,
		MaxRetries:              1,
		RetryDelay:              time.Millisecond,
		CircuitBreakerThreshold: 100,
		CircuitBreakerTimeout:   time.Second,
	}, nil, zerolog.Nop())
	return client, srv
}

func TestClient_Purchase_SendsFormEncodedCharge(t *testing.T) {
	var gotPath, gotAuth, gotIdempotencyKey string
	var gotForm map[string][]string

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotIdempotencyKey = r.Header.Get("Idempotency-Key")
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id": "ch_123", "status": "succeeded"}`))
	})

	card := testutil.NewTestCard(testutil.NewTestOrder().ID)
	resp, err := client.Purchase(context.Background(), 1999, gateway.RawCardSource(card), gateway.Options{
		Currency:    "USD",
		Description: "Order ID: R100200300",
	})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "ch_123", resp.TransactionID)

	assert.Equal(t, "/charges", gotPath)
	assert.Equal(t, "Bearer sk_test_secret", gotAuth)
	assert.NotEmpty(t, gotIdempotencyKey)

	assert.Equal(t, []string{"1999"}, gotForm["amount"])
	assert.Equal(t, []string{"usd"}, gotForm["currency"])
	assert.Equal(t, []string{"true"}, gotForm["capture"])
	assert.Equal(t, []string{"Order ID: R100200300"}, gotForm["description"])
	assert.Equal(t, []string{card.Number}, gotForm["card[number]"])
	assert.Equal(t, []string{"1"}, gotForm["card[exp_month]"])
	assert.Equal(t, []string{"2030"}, gotForm["card[exp_year]"])
}

func TestClient_Authorize_DisablesCapture(t *testing.T) {
	var gotForm map[string][]string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		w.Write([]byte(`{"id": "ch_auth", "status": "succeeded"}`))
	})

	card := testutil.NewTestCard(testutil.NewTestOrder().ID)
	resp, err := client.Authorize(context.Background(), 9855, gateway.RawCardSource(card), gateway.Options{Currency: "USD"})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, []string{"false"}, gotForm["capture"])
	assert.Equal(t, []string{"9855"}, gotForm["amount"])
}

func TestClient_Purchase_TokenSourceUsesCustomer(t *testing.T) {
	var gotForm map[string][]string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		w.Write([]byte(`{"id": "ch_tok", "status": "succeeded"}`))
	})

	_, err := client.Purchase(context.Background(), 500, gateway.TokenSource("card_BAR"), gateway.Options{
		Currency: "USD",
		Customer: "cus_FOO",
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"cus_FOO"}, gotForm["customer"])
	assert.Equal(t, []string{"card_BAR"}, gotForm["source"])
	assert.Empty(t, gotForm["card[number]"])
}

func TestClient_Purchase_Decline(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error": {"type": "card_error", "code": "card_declined", "message": "Your card was declined.", "decline_code": "insufficient_funds"}}`))
	})

	card := testutil.NewTestCard(testutil.NewTestOrder().ID)
	resp, err := client.Purchase(context.Background(), 1999, gateway.RawCardSource(card), gateway.Options{Currency: "USD"})

	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "Your card was declined. (insufficient_funds)", resp.Message)
}

func TestClient_Purchase_ServerErrorIsTransportError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	card := testutil.NewTestCard(testutil.NewTestOrder().ID)
	resp, err := client.Purchase(context.Background(), 1999, gateway.RawCardSource(card), gateway.Options{Currency: "USD"})

	assert.Nil(t, resp)
	require.Error(t, err)
	assert.ErrorIs(t, err, errServerStatus)
}

func TestClient_Purchase_RetriesServerErrors(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"id": "ch_retry", "status": "succeeded"}`))
	}))
	defer srv.Close()

	client := New(Config{
		BaseURL:                 srv.URL,
		SecretKey:               "sk_test_secret",
		RequestTimeout:          5 * time.Second,
		MaxRetries:              3,
		RetryDelay:              time.Millisecond,
		CircuitBreakerThreshold: 100,
		CircuitBreakerTimeout:   time.Second,
	}, nil, zerolog.Nop())

	card := testutil.NewTestCard(testutil.NewTestOrder().ID)
	resp, err := client.Purchase(context.Background(), 1999, gateway.RawCardSource(card), gateway.Options{Currency: "USD"})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 3, attempts)
}

func TestClient_Purchase_SameIdempotencyKeyAcrossRetries(t *testing.T) {
	var keys []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys = append(keys, r.Header.Get("Idempotency-Key"))
		if len(keys) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"id": "ch_key", "status": "succeeded"}`))
	}))
	defer srv.Close()

	client := New(Config{
		BaseURL:                 srv.URL,
		SecretKey:               "sk_test_secret",
		RequestTimeout:          5 * time.Second,
		MaxRetries:              2,
		RetryDelay:              time.Millisecond,
		CircuitBreakerThreshold: 100,
		CircuitBreakerTimeout:   time.Second,
	}, nil, zerolog.Nop())

	card := testutil.NewTestCard(testutil.NewTestOrder().ID)
	_, err := client.Purchase(context.Background(), 1999, gateway.RawCardSource(card), gateway.Options{Currency: "USD"})

	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, keys[0], keys[1])
}

func TestClient_Capture_PostsToChargeCapture(t *testing.T) {
	var gotPath string
	var gotForm map[string][]string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		w.Write([]byte(`{"id": "ch_123", "status": "succeeded"}`))
	})

	resp, err := client.Capture(context.Background(), 1999, "ch_123", gateway.Options{Currency: "USD"})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "/charges/ch_123/capture", gotPath)
	assert.Equal(t, []string{"1999"}, gotForm["amount"])
}

func TestClient_Refund_PostsChargeAndAmount(t *testing.T) {
	var gotPath string
	var gotForm map[string][]string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		w.Write([]byte(`{"id": "re_123"}`))
	})

	resp, err := client.Refund(context.Background(), 500, "ch_123", gateway.Options{})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "re_123", resp.TransactionID)
	assert.Equal(t, "/refunds", gotPath)
	assert.Equal(t, []string{"ch_123"}, gotForm["charge"])
	assert.Equal(t, []string{"500"}, gotForm["amount"])
}

func TestClient_Void_RefundsFullCharge(t *testing.T) {
	var gotForm map[string][]string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		w.Write([]byte(`{"id": "re_void"}`))
	})

	resp, err := client.Void(context.Background(), "ch_123", gateway.Options{})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, []string{"ch_123"}, gotForm["charge"])
	assert.Empty(t, gotForm["amount"])
}

func TestClient_Store_CreatesCustomerProfile(t *testing.T) {
	var gotPath string
	var gotForm map[string][]string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		w.Write([]byte(`{
			"id": "cus_FOO",
			"default_card": "card_BAR",
			"cards": {"data": [
				{"id": "card_OLD", "brand": "Visa", "last4": "1111", "exp_month": 6, "exp_year": 2018, "name": "Mister Spree"},
				{"id": "card_BAR", "brand": "Visa", "last4": "4242", "exp_month": 1, "exp_year": 2019, "name": "Mister Spree"}
			]}
		}`))
	})

	ord := testutil.NewTestOrder()
	card := testutil.NewTestCard(ord.ID)
	resp, err := client.Store(context.Background(), card, gateway.Options{
		Email: ord.Email,
		Address: &gateway.AddressOptions{
			Address1: "1 Main St",
			City:     "Herndon",
			Zip:      "20170",
			Country:  "US",
			State:    "VA",
		},
	})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "/customers", gotPath)
	assert.Equal(t, []string{ord.Email}, gotForm["email"])
	assert.Equal(t, []string{"1 Main St"}, gotForm["card[address_line1]"])
	assert.Equal(t, []string{"US"}, gotForm["card[address_country]"])
	assert.Equal(t, []string{"VA"}, gotForm["card[address_state]"])

	require.NotNil(t, resp.Profile)
	assert.Equal(t, "cus_FOO", resp.Profile.ID)
	assert.Equal(t, "card_BAR", resp.Profile.DefaultCard)
	require.Len(t, resp.Profile.Cards, 2)
	assert.Equal(t, "card_BAR", resp.Profile.Cards[1].ID)
	assert.Equal(t, "4242", resp.Profile.Cards[1].Last4)
}

func TestClient_Store_OmitsUnresolvableCountryAndState(t *testing.T) {
	var gotForm map[string][]string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		w.Write([]byte(`{"id": "cus_FOO", "default_card": "card_BAR", "cards": {"data": []}}`))
	})

	card := testutil.NewTestCard(testutil.NewTestOrder().ID)
	_, err := client.Store(context.Background(), card, gateway.Options{
		Address: &gateway.AddressOptions{
			Address1: "1 Main St",
			City:     "Herndon",
			Zip:      "20170",
		},
	})

	require.NoError(t, err)
	_, hasCountry := gotForm["card[address_country]"]
	_, hasState := gotForm["card[address_state]"]
	assert.False(t, hasCountry)
	assert.False(t, hasState)
	assert.Equal(t, []string{"1 Main St"}, gotForm["card[address_line1]"])
}

func TestClient_CircuitBreakerOpensAfterThreshold(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := New(Config{
		BaseURL:                 srv.URL,
		SecretKey:               "sk_test_secret",
		RequestTimeout:          5 * time.Second,
		MaxRetries:              1,
		RetryDelay:              time.Millisecond,
		CircuitBreakerThreshold: 2,
		CircuitBreakerTimeout:   time.Minute,
	}, nil, zerolog.Nop())

	card := testutil.NewTestCard(testutil.NewTestOrder().ID)
	for i := 0; i < 2; i++ {
		_, err := client.Purchase(context.Background(), 100, gateway.RawCardSource(card), gateway.Options{Currency: "USD"})
		require.Error(t, err)
	}

	_, err := client.Purchase(context.Background(), 100, gateway.RawCardSource(card), gateway.Options{Currency: "USD"})
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}
