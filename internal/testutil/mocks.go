package testutil

import (
	"context"
	"sync"

	domainErrors "github.com/cassiomorais/cardgateway/internal/domain/errors"
	"github.com/cassiomorais/cardgateway/internal/domain/order"
	"github.com/cassiomorais/cardgateway/internal/domain/payment"
	"github.com/cassiomorais/cardgateway/internal/gateway"
	"github.com/google/uuid"
)

// --- Provider stub ---

// ProviderCall records one call made against the StubProvider.
type ProviderCall struct {
	Op           string
	Amount       int64
	Source       gateway.CardSource
	ResponseCode string
	Card         *order.CreditCard
	Options      gateway.Options
}

// StubProvider is a func-field implementation of gateway.Provider. Every
// call is recorded; unset funcs return a generic success response.
type StubProvider struct {
	mu    sync.Mutex
	calls []ProviderCall

	PurchaseFunc  func(ctx context.Context, amount int64, source gateway.CardSource, opts gateway.Options) (*gateway.Response, error)
	AuthorizeFunc func(ctx context.Context, amount int64, source gateway.CardSource, opts gateway.Options) (*gateway.Response, error)
	CaptureFunc   func(ctx context.Context, amount int64, responseCode string, opts gateway.Options) (*gateway.Response, error)
	RefundFunc    func(ctx context.Context, amount int64, responseCode string, opts gateway.Options) (*gateway.Response, error)
	VoidFunc      func(ctx context.Context, responseCode string, opts gateway.Options) (*gateway.Response, error)
	StoreFunc     func(ctx context.Context, card *order.CreditCard, opts gateway.Options) (*gateway.Response, error)
}

func NewStubProvider() *StubProvider {
	return &StubProvider{}
}

// Calls returns a copy of all recorded calls.
func (s *StubProvider) Calls() []ProviderCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ProviderCall, len(s.calls))
	copy(out, s.calls)
	return out
}

// LastCall returns the most recent call, or nil when none was made.
func (s *StubProvider) LastCall() *ProviderCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return nil
	}
	c := s.calls[len(s.calls)-1]
	return &c
}

func (s *StubProvider) record(c ProviderCall) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)
}

func (s *StubProvider) Purchase(ctx context.Context, amount int64, source gateway.CardSource, opts gateway.Options) (*gateway.Response, error) {
	s.record(ProviderCall{Op: "purchase", Amount: amount, Source: source, Options: opts})
	if s.PurchaseFunc != nil {
		return s.PurchaseFunc(ctx, amount, source, opts)
	}
	return &gateway.Response{Success: true, TransactionID: "ch_test"}, nil
}

func (s *StubProvider) Authorize(ctx context.Context, amount int64, source gateway.CardSource, opts gateway.Options) (*gateway.Response, error) {
	s.record(ProviderCall{Op: "authorize", Amount: amount, Source: source, Options: opts})
	if s.AuthorizeFunc != nil {
		return s.AuthorizeFunc(ctx, amount, source, opts)
	}
	return &gateway.Response{Success: true, TransactionID: "ch_test"}, nil
}

func (s *StubProvider) Capture(ctx context.Context, amount int64, responseCode string, opts gateway.Options) (*gateway.Response, error) {
	s.record(ProviderCall{Op: "capture", Amount: amount, ResponseCode: responseCode, Options: opts})
	if s.CaptureFunc != nil {
		return s.CaptureFunc(ctx, amount, responseCode, opts)
	}
	return &gateway.Response{Success: true, TransactionID: responseCode}, nil
}

func (s *StubProvider) Refund(ctx context.Context, amount int64, responseCode string, opts gateway.Options) (*gateway.Response, error) {
	s.record(ProviderCall{Op: "refund", Amount: amount, ResponseCode: responseCode, Options: opts})
	if s.RefundFunc != nil {
		return s.RefundFunc(ctx, amount, responseCode, opts)
	}
	return &gateway.Response{Success: true, TransactionID: "re_test"}, nil
}

func (s *StubProvider) Void(ctx context.Context, responseCode string, opts gateway.Options) (*gateway.Response, error) {
	s.record(ProviderCall{Op: "void", ResponseCode: responseCode, Options: opts})
	if s.VoidFunc != nil {
		return s.VoidFunc(ctx, responseCode, opts)
	}
	return &gateway.Response{Success: true, TransactionID: responseCode}, nil
}

func (s *StubProvider) Store(ctx context.Context, card *order.CreditCard, opts gateway.Options) (*gateway.Response, error) {
	s.record(ProviderCall{Op: "store", Card: card, Options: opts})
	if s.StoreFunc != nil {
		return s.StoreFunc(ctx, card, opts)
	}
	return &gateway.Response{
		Success: true,
		Profile: &gateway.CustomerProfile{
			ID:          "cus_test",
			DefaultCard: "card_test",
			Cards: []gateway.CardRecord{
				{ID: "card_test", Brand: "visa", Last4: "4242", ExpMonth: 12, ExpYear: 2030, Name: card.Name},
			},
		},
	}, nil
}

// --- Order Repository Mock ---

// MockOrderRepository is a mock implementation of order.Repository.
type MockOrderRepository struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*order.Order

	GetByIDFunc func(ctx context.Context, id uuid.UUID) (*order.Order, error)
}

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{orders: make(map[uuid.UUID]*order.Order)}
}

// AddOrder pre-populates the mock with an order.
func (m *MockOrderRepository) AddOrder(o *order.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domainErrors.ErrOrderNotFound
	}
	return o, nil
}

// --- Card Repository Mock ---

// MockCardRepository is a mock implementation of order.CardRepository.
type MockCardRepository struct {
	mu    sync.Mutex
	cards map[uuid.UUID]*order.CreditCard

	CreateFunc        func(ctx context.Context, c *order.CreditCard) error
	GetByIDFunc       func(ctx context.Context, id uuid.UUID) (*order.CreditCard, error)
	UpdateProfileFunc func(ctx context.Context, c *order.CreditCard) error

	UpdateProfileCalls int
}

func NewMockCardRepository() *MockCardRepository {
	return &MockCardRepository{cards: make(map[uuid.UUID]*order.CreditCard)}
}

// AddCard pre-populates the mock with a card.
func (m *MockCardRepository) AddCard(c *order.CreditCard) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cards[c.ID] = c
}

func (m *MockCardRepository) Create(ctx context.Context, c *order.CreditCard) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, c)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cards[c.ID] = c
	return nil
}

func (m *MockCardRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.CreditCard, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[id]
	if !ok {
		return nil, domainErrors.ErrCardNotFound
	}
	return c, nil
}

func (m *MockCardRepository) UpdateProfile(ctx context.Context, c *order.CreditCard) error {
	m.mu.Lock()
	m.UpdateProfileCalls++
	m.mu.Unlock()
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, c)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cards[c.ID] = c
	return nil
}

// --- Payment Repository Mock ---

// MockPaymentRepository is a mock implementation of payment.Repository.
type MockPaymentRepository struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*payment.Payment

	CreateFunc        func(ctx context.Context, p *payment.Payment) error
	GetByIDFunc       func(ctx context.Context, id uuid.UUID) (*payment.Payment, error)
	UpdateFunc        func(ctx context.Context, p *payment.Payment) error
	ListByOrderIDFunc func(ctx context.Context, orderID uuid.UUID) ([]*payment.Payment, error)
}

func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{payments: make(map[uuid.UUID]*payment.Payment)}
}

func (m *MockPaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[p.ID] = p
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, domainErrors.ErrPaymentNotFound
	}
	return p, nil
}

func (m *MockPaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[p.ID] = p
	return nil
}

func (m *MockPaymentRepository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]*payment.Payment, error) {
	if m.ListByOrderIDFunc != nil {
		return m.ListByOrderIDFunc(ctx, orderID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*payment.Payment
	for _, p := range m.payments {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out, nil
}
