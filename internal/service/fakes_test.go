package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/simonwachira/checkout-service/internal/interfaces"
	"github.com/simonwachira/checkout-service/internal/models"
)

type fakeUsers struct {
	users map[string]*models.User
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

type fakeProducts struct {
	mu         sync.Mutex
	products   map[string]*models.Product
	decrements []models.StockLine
	restores   []models.StockLine
}

func (f *fakeProducts) GetByID(_ context.Context, id string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) TryDecrementStock(_ context.Context, id string, qty int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	f.decrements = append(f.decrements, models.StockLine{ProductID: id, Quantity: qty})
	return true, nil
}

func (f *fakeProducts) RestoreStock(_ context.Context, id string, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.products[id]; ok {
		p.Stock += qty
	}
	f.restores = append(f.restores, models.StockLine{ProductID: id, Quantity: qty})
	return nil
}

type fakeCoupons struct {
	coupons    map[string]*models.Coupon
	increments map[string]int
}

func (f *fakeCoupons) GetActiveByCode(_ context.Context, code string) (*models.Coupon, error) {
	c, ok := f.coupons[code]
	if !ok || !c.Active {
		return nil, sql.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCoupons) IncrementUsage(_ context.Context, code string) error {
	if f.increments == nil {
		f.increments = make(map[string]int)
	}
	f.increments[code]++
	return nil
}

type fakeRates struct {
	methods  map[string]*models.ShippingMethod
	brackets []models.TaxBracket
}

func (f *fakeRates) GetShippingMethod(_ context.Context, id string) (*models.ShippingMethod, error) {
	m, ok := f.methods[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *m
	return &cp, nil
}

func (f *fakeRates) FindTaxBracket(_ context.Context, amount float64) (*models.TaxBracket, error) {
	for _, b := range f.brackets {
		if amount >= b.MinAmount && amount <= b.MaxAmount {
			cp := b
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

type fakePending struct {
	mu     sync.Mutex
	byMrid map[string]*models.PendingPayment
}

func newFakePending() *fakePending {
	return &fakePending{byMrid: make(map[string]*models.PendingPayment)}
}

func (f *fakePending) Insert(_ context.Context, p *models.PendingPayment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.byMrid[p.MerchantRequestID] = &cp
	return nil
}

func (f *fakePending) GetByID(_ context.Context, id string) (*models.PendingPayment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byMrid {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakePending) GetByMerchantRequestID(_ context.Context, mrid string) (*models.PendingPayment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byMrid[mrid]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (f *fakePending) TransitionStatus(_ context.Context, mrid string, from, to models.PendingStatus, reason string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byMrid[mrid]
	if !ok || p.Status != from {
		return 0, nil
	}
	p.Status = to
	p.FailureReason = reason
	p.UpdatedAt = time.Now().UTC()
	return 1, nil
}

func (f *fakePending) MarkExpiredBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, p := range f.byMrid {
		if p.Status == models.PendingStatusPending && p.CreatedAt.Before(cutoff) {
			p.Status = models.PendingStatusExpired
			n++
		}
	}
	return n, nil
}

func (f *fakePending) DeleteTerminalBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for mrid, p := range f.byMrid {
		if p.Status != models.PendingStatusPending && p.CreatedAt.Before(cutoff) {
			delete(f.byMrid, mrid)
			n++
		}
	}
	return n, nil
}

type fakeOrders struct {
	mu         sync.Mutex
	orders     map[string]*models.Order
	failInsert bool
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{orders: make(map[string]*models.Order)}
}

func (f *fakeOrders) Insert(_ context.Context, o *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsert {
		return fmt.Errorf("insert order: database unavailable")
	}
	cp := *o
	f.orders[o.ID] = &cp
	return nil
}

func (f *fakeOrders) GetByID(_ context.Context, id string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) GetByMerchantRequestID(_ context.Context, mrid string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.Payment.MerchantRequestID == mrid {
			cp := *o
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeOrders) ListByUser(_ context.Context, userID string) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrders) AppendStatus(_ context.Context, orderID string, from, to models.OrderStatus, note string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok || o.Status != from {
		return 0, nil
	}
	o.Status = to
	o.StatusHistory = append(o.StatusHistory, models.StatusEntry{
		Status: to, Note: note, Timestamp: time.Now().UTC(),
	})
	return 1, nil
}

type fakeGateway struct {
	result    *interfaces.StkPushResult
	err       error
	gotPhone  string
	gotAmount int
	calls     int
}

func (f *fakeGateway) STKPush(_ context.Context, phone string, amount int, _, _ string) (*interfaces.StkPushResult, error) {
	f.calls++
	f.gotPhone = phone
	f.gotAmount = amount
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []models.OrderEvent
}

func (f *fakeEvents) PublishOrderEvent(_ context.Context, evt models.OrderEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	return nil
}

type fakeNotify struct {
	mu       sync.Mutex
	messages []models.NotifyMessage
}

func (f *fakeNotify) PublishNotify(_ context.Context, msg models.NotifyMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	return nil
}

type fakeLocker struct {
	held map[string]bool
}

func (f *fakeLocker) Acquire(_ context.Context, key string) (bool, error) {
	if f.held == nil {
		f.held = make(map[string]bool)
	}
	if f.held[key] {
		return false, nil
	}
	f.held[key] = true
	return true, nil
}

func (f *fakeLocker) Release(_ context.Context, key string) {
	delete(f.held, key)
}

type fakeNotifications struct {
	mu   sync.Mutex
	rows []models.Notification
}

func (f *fakeNotifications) Insert(_ context.Context, n *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, *n)
	return nil
}

func (f *fakeNotifications) ListByUser(_ context.Context, userID string) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Notification
	for _, n := range f.rows {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}
