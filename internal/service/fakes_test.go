package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/atwebdev/storefront-service/internal/entities"
	"github.com/atwebdev/storefront-service/pkg/trm"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTxManager runs the callback directly; commit/rollback semantics are out
// of scope for service tests.
type fakeTxManager struct {
	err error
}

func (m fakeTxManager) BeginTx(ctx context.Context) (context.Context, trm.Transaction, error) {
	return ctx, nil, errors.New("not supported in tests")
}

func (m fakeTxManager) Do(ctx context.Context, cb func(ctx context.Context) error) error {
	if m.err != nil {
		return m.err
	}
	return cb(ctx)
}

type fakeCatalog struct {
	products map[string]entities.ProductSnapshot
	err      error
}

func (f *fakeCatalog) GetMany(_ context.Context, ids []string) (map[string]entities.ProductSnapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]entities.ProductSnapshot, len(ids))
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

// fakeInventory mirrors the conditional-update semantics of the real ledger:
// a reserve only succeeds when enough stock remains, under a lock so
// concurrent callers contend like they would on a row lock.
type fakeInventory struct {
	mu         sync.Mutex
	stock      map[string]int
	restoreErr map[string]error
	restores   map[string]int
}

func newFakeInventory(stock map[string]int) *fakeInventory {
	return &fakeInventory{
		stock:      stock,
		restoreErr: make(map[string]error),
		restores:   make(map[string]int),
	}
}

func (f *fakeInventory) Reserve(_ context.Context, productID string, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	have, ok := f.stock[productID]
	if !ok {
		return entities.ErrProductNotFound
	}
	if have < qty {
		return entities.ErrInsufficientStock
	}
	f.stock[productID] = have - qty
	return nil
}

func (f *fakeInventory) Restore(_ context.Context, productID string, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.restoreErr[productID]; err != nil {
		return err
	}
	if _, ok := f.stock[productID]; !ok {
		return entities.ErrProductNotFound
	}
	f.stock[productID] += qty
	f.restores[productID] += qty
	return nil
}

func (f *fakeInventory) quantity(productID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stock[productID]
}

func (f *fakeInventory) restored(productID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.restores[productID]
}

type fakeOrderStore struct {
	mu         sync.Mutex
	created    []entities.Order
	duplicates int
	err        error
}

func (f *fakeOrderStore) CreateOrder(_ context.Context, o entities.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.duplicates > 0 {
		f.duplicates--
		return entities.ErrDuplicateOrderNumber
	}
	f.created = append(f.created, o)
	return nil
}

func (f *fakeOrderStore) all() []entities.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entities.Order(nil), f.created...)
}

type fakeCartStore struct {
	mu      sync.Mutex
	cleared []string
	err     error
}

func (f *fakeCartStore) Clear(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.cleared = append(f.cleared, userID)
	return nil
}

func (f *fakeCartStore) clearedFor(userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.cleared {
		if id == userID {
			return true
		}
	}
	return false
}

type fakeNotifier struct {
	err   error
	calls chan entities.Order
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{calls: make(chan entities.Order, 8)}
}

func (f *fakeNotifier) OrderCreated(_ context.Context, order entities.Order, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.calls <- order
	return nil
}

// fakeOrderRepo backs both the order and the payment service tests. Orders
// are indexed by id; number, tracking and payment-ref lookups scan.
type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]entities.Order

	listErr   error
	cancelErr error
	markErr   error
}

func newFakeOrderRepo(orders ...entities.Order) *fakeOrderRepo {
	m := make(map[string]entities.Order, len(orders))
	for _, o := range orders {
		m[o.ID] = o
	}
	return &fakeOrderRepo{orders: m}
}

func (f *fakeOrderRepo) get(orderID string) entities.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders[orderID]
}

func (f *fakeOrderRepo) GetOrderByID(_ context.Context, orderID string) (entities.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeOrderRepo) GetOrderByNumber(_ context.Context, orderNumber string) (entities.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.OrderNumber == orderNumber {
			return o, nil
		}
	}
	return entities.Order{}, entities.ErrOrderNotFound
}

func (f *fakeOrderRepo) GetOrderByTracking(_ context.Context, trackingNumber string) (entities.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.TrackingNumber == trackingNumber {
			return o, nil
		}
	}
	return entities.Order{}, entities.ErrOrderNotFound
}

func (f *fakeOrderRepo) GetOrderByPaymentRef(_ context.Context, paymentRef string) (entities.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.PaymentRef == paymentRef {
			return o, nil
		}
	}
	return entities.Order{}, entities.ErrOrderNotFound
}

func (f *fakeOrderRepo) ListOrdersByUser(_ context.Context, userID string, limit, offset int) ([]entities.Order, int, error) {
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entities.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, len(out), nil
}

func (f *fakeOrderRepo) CancelOrder(_ context.Context, orderID, reason string) (bool, error) {
	if f.cancelErr != nil {
		return false, f.cancelErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return false, entities.ErrOrderNotFound
	}
	if !o.Cancellable() {
		return false, nil
	}
	o.OrderStatus = entities.OrderCancelled
	o.CancellationReason = reason
	f.orders[orderID] = o
	return true, nil
}

func (f *fakeOrderRepo) MarkPaymentCompleted(_ context.Context, orderID, paymentRef string) (bool, error) {
	if f.markErr != nil {
		return false, f.markErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return false, entities.ErrOrderNotFound
	}
	if o.PaymentStatus == entities.PaymentCompleted {
		return false, nil
	}
	o.PaymentStatus = entities.PaymentCompleted
	o.OrderStatus = entities.OrderProcessing
	o.PaymentRef = paymentRef
	f.orders[orderID] = o
	return true, nil
}

func (f *fakeOrderRepo) MarkPaymentFailed(_ context.Context, orderID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return false, entities.ErrOrderNotFound
	}
	if o.PaymentStatus != entities.PaymentPending {
		return false, nil
	}
	o.PaymentStatus = entities.PaymentFailed
	f.orders[orderID] = o
	return true, nil
}

func (f *fakeOrderRepo) SetPaymentRef(_ context.Context, orderID, paymentRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return entities.ErrOrderNotFound
	}
	o.PaymentRef = paymentRef
	f.orders[orderID] = o
	return nil
}

type fakeGateway struct {
	session   entities.CheckoutSession
	createErr error
	sessions  map[string]entities.GatewaySession
	getErr    error
	getCalls  int
}

func (f *fakeGateway) CreateSession(_ context.Context, _ entities.Order, _ string) (entities.CheckoutSession, error) {
	if f.createErr != nil {
		return entities.CheckoutSession{}, f.createErr
	}
	return f.session, nil
}

func (f *fakeGateway) GetSession(_ context.Context, sessionID string) (entities.GatewaySession, error) {
	f.getCalls++
	if f.getErr != nil {
		return entities.GatewaySession{}, f.getErr
	}
	s, ok := f.sessions[sessionID]
	if !ok {
		return entities.GatewaySession{}, entities.ErrSessionNotFound
	}
	return s, nil
}

type fakeDedup struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func newFakeDedup() *fakeDedup {
	return &fakeDedup{seen: make(map[string]bool)}
}

func (f *fakeDedup) FirstSeen(_ context.Context, eventID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen[eventID] {
		return false, nil
	}
	f.seen[eventID] = true
	return true, nil
}

type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
	hits int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (f *fakeCache) Get(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if ok {
		f.hits++
	}
	return v, ok
}

func (f *fakeCache) Set(key string, value []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
}
