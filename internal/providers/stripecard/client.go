// Package stripecard implements the gateway.Provider interface against the
// Stripe HTTP API using form-encoded requests.
package stripecard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/cassiomorais/cardgateway/internal/domain/order"
	"github.com/cassiomorais/cardgateway/internal/gateway"
	"github.com/cassiomorais/cardgateway/internal/observability"
	"github.com/cassiomorais/cardgateway/pkg/retry"
)

// Config holds client construction parameters.
type Config struct {
	BaseURL                 string
	SecretKey               string
	RequestTimeout          time.Duration
	MaxRetries              uint
	RetryDelay              time.Duration
	CircuitBreakerThreshold uint32
	CircuitBreakerTimeout   time.Duration
}

// Client talks to the Stripe API. It satisfies gateway.Provider.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*apiResponse]
	retryCfg   retry.Config
	metrics    *observability.Metrics
	logger     zerolog.Logger
}

type apiResponse struct {
	StatusCode int
	Body       []byte
}

// apiError is the error envelope returned by the provider on declined or
// invalid requests.
type apiError struct {
	Error struct {
		Type        string `json:"type"`
		Code        string `json:"code"`
		Message     string `json:"message"`
		DeclineCode string `json:"decline_code"`
	} `json:"error"`
}

type chargePayload struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type refundPayload struct {
	ID string `json:"id"`
}

type customerPayload struct {
	ID          string `json:"id"`
	DefaultCard string `json:"default_card"`
	Cards       struct {
		Data []struct {
			ID       string `json:"id"`
			Brand    string `json:"brand"`
			Last4    string `json:"last4"`
			ExpMonth int    `json:"exp_month"`
			ExpYear  int    `json:"exp_year"`
			Name     string `json:"name"`
		} `json:"data"`
	} `json:"cards"`
}

// New creates a Stripe client with retry and circuit breaker protection.
func New(cfg Config, metrics *observability.Metrics, logger zerolog.Logger) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		secretKey: cfg.SecretKey,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		retryCfg: retry.Config{
			MaxAttempts:  cfg.MaxRetries,
			InitialDelay: cfg.RetryDelay,
			MaxDelay:     10 * time.Second,
		},
		metrics: metrics,
		logger:  logger.With().Str("component", "stripecard").Logger(),
	}

	settings := gobreaker.Settings{
		Name:    "stripe",
		Timeout: cfg.CircuitBreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.CircuitBreakerThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
			if c.metrics != nil {
				c.metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			}
		},
	}
	c.breaker = gobreaker.NewCircuitBreaker[*apiResponse](settings)

	return c
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}

// Purchase charges the card immediately.
func (c *Client) Purchase(ctx context.Context, amount int64, source gateway.CardSource, opts gateway.Options) (*gateway.Response, error) {
	return c.charge(ctx, amount, source, opts, true)
}

// Authorize places a hold on the card without capturing funds.
func (c *Client) Authorize(ctx context.Context, amount int64, source gateway.CardSource, opts gateway.Options) (*gateway.Response, error) {
	return c.charge(ctx, amount, source, opts, false)
}

func (c *Client) charge(ctx context.Context, amount int64, source gateway.CardSource, opts gateway.Options, capture bool) (*gateway.Response, error) {
	params := url.Values{}
	params.Set("amount", strconv.FormatInt(amount, 10))
	params.Set("currency", strings.ToLower(opts.Currency))
	params.Set("capture", strconv.FormatBool(capture))
	if opts.Description != "" {
		params.Set("description", opts.Description)
	}

	if source.Token != "" {
		if opts.Customer != "" {
			params.Set("customer", opts.Customer)
		}
		params.Set("source", source.Token)
	} else if source.Card != nil {
		addCardParams(params, source.Card, opts.Address)
	}

	resp, err := c.post(ctx, "/charges", params)
	if err != nil {
		return nil, err
	}
	return c.parseChargeResponse(resp)
}

// Capture settles a previously authorized charge.
func (c *Client) Capture(ctx context.Context, amount int64, responseCode string, opts gateway.Options) (*gateway.Response, error) {
	params := url.Values{}
	params.Set("amount", strconv.FormatInt(amount, 10))

	resp, err := c.post(ctx, "/charges/"+url.PathEscape(responseCode)+"/capture", params)
	if err != nil {
		return nil, err
	}
	return c.parseChargeResponse(resp)
}

// Refund returns funds from a settled charge.
func (c *Client) Refund(ctx context.Context, amount int64, responseCode string, opts gateway.Options) (*gateway.Response, error) {
	params := url.Values{}
	params.Set("charge", responseCode)
	params.Set("amount", strconv.FormatInt(amount, 10))

	resp, err := c.post(ctx, "/refunds", params)
	if err != nil {
		return nil, err
	}
	return c.parseRefundResponse(resp)
}

// Void cancels an uncaptured charge by refunding it in full.
func (c *Client) Void(ctx context.Context, responseCode string, opts gateway.Options) (*gateway.Response, error) {
	params := url.Values{}
	params.Set("charge", responseCode)

	resp, err := c.post(ctx, "/refunds", params)
	if err != nil {
		return nil, err
	}
	return c.parseRefundResponse(resp)
}

// Store creates a customer profile holding the card for later tokenized use.
func (c *Client) Store(ctx context.Context, card *order.CreditCard, opts gateway.Options) (*gateway.Response, error) {
	params := url.Values{}
	if opts.Email != "" {
		params.Set("email", opts.Email)
	}
	if opts.Description != "" {
		params.Set("description", opts.Description)
	}
	addCardParams(params, card, opts.Address)

	resp, err := c.post(ctx, "/customers", params)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return declineResponse(resp)
	}

	var payload customerPayload
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, fmt.Errorf("decode customer response: %w", err)
	}

	profile := &gateway.CustomerProfile{
		ID:          payload.ID,
		DefaultCard: payload.DefaultCard,
	}
	for _, rec := range payload.Cards.Data {
		profile.Cards = append(profile.Cards, gateway.CardRecord{
			ID:       rec.ID,
			Brand:    rec.Brand,
			Last4:    rec.Last4,
			ExpMonth: rec.ExpMonth,
			ExpYear:  rec.ExpYear,
			Name:     rec.Name,
		})
	}

	return &gateway.Response{
		Success:       true,
		TransactionID: payload.ID,
		Profile:       profile,
	}, nil
}

func addCardParams(params url.Values, card *order.CreditCard, addr *gateway.AddressOptions) {
	params.Set("card[number]", card.Number)
	params.Set("card[exp_month]", strconv.Itoa(card.ExpMonth))
	params.Set("card[exp_year]", strconv.Itoa(card.ExpYear))
	params.Set("card[cvc]", card.VerificationValue)
	params.Set("card[name]", card.Name)

	if addr == nil {
		return
	}
	params.Set("card[address_line1]", addr.Address1)
	params.Set("card[address_line2]", addr.Address2)
	params.Set("card[address_city]", addr.City)
	params.Set("card[address_zip]", addr.Zip)
	if addr.Country != "" {
		params.Set("card[address_country]", addr.Country)
	}
	if addr.State != "" {
		params.Set("card[address_state]", addr.State)
	}
}

func (c *Client) parseChargeResponse(resp *apiResponse) (*gateway.Response, error) {
	if resp.StatusCode >= 400 {
		return declineResponse(resp)
	}

	var payload chargePayload
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, fmt.Errorf("decode charge response: %w", err)
	}

	return &gateway.Response{
		Success:       true,
		Message:       payload.Status,
		TransactionID: payload.ID,
	}, nil
}

func (c *Client) parseRefundResponse(resp *apiResponse) (*gateway.Response, error) {
	if resp.StatusCode >= 400 {
		return declineResponse(resp)
	}

	var payload refundPayload
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, fmt.Errorf("decode refund response: %w", err)
	}

	return &gateway.Response{
		Success:       true,
		TransactionID: payload.ID,
	}, nil
}

// declineResponse converts a provider 4xx into a non-error failed response.
// The decline reason travels in Message so callers can persist it.
func declineResponse(resp *apiResponse) (*gateway.Response, error) {
	var payload apiError
	if err := json.Unmarshal(resp.Body, &payload); err != nil || payload.Error.Message == "" {
		return &gateway.Response{
			Success: false,
			Message: fmt.Sprintf("provider request failed with status %d", resp.StatusCode),
		}, nil
	}

	message := payload.Error.Message
	if payload.Error.DeclineCode != "" {
		message = fmt.Sprintf("%s (%s)", message, payload.Error.DeclineCode)
	}

	return &gateway.Response{
		Success: false,
		Message: message,
	}, nil
}

var errServerStatus = errors.New("provider returned server error")

// post sends a form-encoded request through the circuit breaker with retries.
// A single idempotency key covers all retry attempts of one logical call.
func (c *Client) post(ctx context.Context, path string, params url.Values) (*apiResponse, error) {
	idempotencyKey := uuid.New().String()
	endpoint := c.baseURL + path

	started := time.Now()
	resp, err := retry.DoWithResult(ctx, c.retryCfg, func() (*apiResponse, error) {
		return c.breaker.Execute(func() (*apiResponse, error) {
			return c.doRequest(ctx, endpoint, params, idempotencyKey)
		})
	})

	outcome := "success"
	if err != nil {
		outcome = "error"
	} else if resp.StatusCode >= 400 {
		outcome = "declined"
	}
	if c.metrics != nil {
		c.metrics.ProviderRequests.WithLabelValues(path, outcome).Inc()
	}

	evt := c.logger.Debug()
	if err != nil {
		evt = c.logger.Error().Err(err)
	}
	evt.
		Str("path", path).
		Str("outcome", outcome).
		Dur("duration", time.Since(started)).
		Msg("provider request finished")

	if err != nil {
		return nil, fmt.Errorf("stripe request %s: %w", path, err)
	}
	return resp, nil
}

func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values, idempotencyKey string) (*apiResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Idempotency-Key", idempotencyKey)

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	// 5xx responses are transport failures and worth retrying. 4xx are
	// final business answers and must not count against the breaker.
	if httpResp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: status %d", errServerStatus, httpResp.StatusCode)
	}

	return &apiResponse{StatusCode: httpResp.StatusCode, Body: body}, nil
}
