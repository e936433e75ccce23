package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/nikolayk812/cartstore/internal/domain"
	"github.com/nikolayk812/cartstore/internal/logger"
	"github.com/nikolayk812/cartstore/internal/port"
	"golang.org/x/text/currency"
)

// DefaultKey is the snapshot key used when Params.Key is empty.
const DefaultKey = "@RocketShoes:cart"

const (
	OpAddProduct          = "add_product"
	OpRemoveProduct       = "remove_product"
	OpUpdateProductAmount = "update_product_amount"

	outcomeOK = "ok"
)

var validate = validator.New()

// Recorder receives per-operation telemetry.
type Recorder interface {
	ObserveOperation(operation, outcome string, elapsed time.Duration)
	SetCartSize(items int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveOperation(string, string, time.Duration) {}
func (nopRecorder) SetCartSize(int)                                {}

type Params struct {
	Catalog   port.Catalog
	Snapshots port.SnapshotRepository
	Notifier  port.Notifier
	Logger    *logger.Logger
	Recorder  Recorder
	Key       string

	// Currency is applied to snapshot entries persisted without one.
	Currency currency.Unit
}

// UpdateAmount asks for an absolute quantity of a product already in the cart.
type UpdateAmount struct {
	ProductID int64
	Amount    int `validate:"gt=0"`
}

// Store owns the shopper's cart and its persisted snapshot.
//
// Mutations are serialised: each one holds mu for its whole duration, remote
// lookups included, so two concurrent AddProduct calls never lose an update.
// Readers only take stateMu and always observe a committed cart.
type Store struct {
	mu sync.Mutex

	stateMu sync.RWMutex
	cart    domain.Cart

	catalog   port.Catalog
	snapshots port.SnapshotRepository
	notifier  port.Notifier
	log       *logger.Logger
	recorder  Recorder
	key       string
	currency  currency.Unit
}

// New builds a Store and loads the cart persisted under the key. A missing or
// unreadable snapshot yields an empty cart; a failing repository is an error.
func New(ctx context.Context, p Params) (*Store, error) {
	if p.Catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if p.Snapshots == nil {
		return nil, fmt.Errorf("snapshot repository required")
	}
	if p.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}

	s := &Store{
		catalog:   p.Catalog,
		snapshots: p.Snapshots,
		notifier:  p.Notifier,
		log:       p.Logger,
		recorder:  p.Recorder,
		key:       p.Key,
		currency:  p.Currency,
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	if s.key == "" {
		s.key = DefaultKey
	}

	loaded, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.cart = loaded
	s.recorder.SetCartSize(loaded.Count())

	return s, nil
}

func (s *Store) load(ctx context.Context) (domain.Cart, error) {
	ctx = s.log.WithField(ctx, "snapshot_key", s.key)

	raw, found, err := s.snapshots.Get(ctx, s.key)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("snapshots.Get: %w", err)
	}
	if !found {
		s.log.Debug(ctx, "no cart snapshot, starting empty")
		return domain.Cart{}, nil
	}

	loaded, dropped, err := decodeSnapshot(raw, s.currency)
	if err != nil {
		s.log.Error(ctx, "cart snapshot unreadable, starting empty", err)
		return domain.Cart{}, nil
	}
	for _, reason := range dropped {
		s.log.Warn(s.log.WithField(ctx, "reason", reason), "dropped cart snapshot entry")
	}

	s.log.Debug(s.log.WithField(ctx, "items", loaded.Count()), "cart snapshot loaded")
	return loaded, nil
}

// Cart returns a copy of the committed cart.
func (s *Store) Cart() domain.Cart {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	return s.cart.Clone()
}

// Item returns the cart line for productID.
func (s *Store) Item(productID int64) (domain.CartItem, bool) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	i := s.cart.Index(productID)
	if i < 0 {
		return domain.CartItem{}, false
	}
	return s.cart.Items[i], true
}

// AddProduct puts one more unit of productID in the cart, fetching the product
// from the catalog the first time it is added.
func (s *Store) AddProduct(ctx context.Context, productID int64) (err error) {
	ctx, done := s.begin(ctx, OpAddProduct, productID)
	defer func() { done(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current()
	i := next.Index(productID)

	stock, err := s.catalog.Stock(ctx, productID)
	if err != nil {
		return s.reject(ctx, KindRemoteFailure, MsgAddFailed, fmt.Errorf("catalog.Stock: %w", err))
	}

	amount := 1
	if i >= 0 {
		amount = next.Items[i].Amount + 1
	}
	if stock.Amount < amount {
		return s.reject(ctx, KindStockInsufficient, MsgOutOfStock, nil)
	}

	if i >= 0 {
		next.Items[i].Amount = amount
	} else {
		product, err := s.catalog.Product(ctx, productID)
		if err != nil {
			return s.reject(ctx, KindRemoteFailure, MsgAddFailed, fmt.Errorf("catalog.Product: %w", err))
		}
		next.Items = append(next.Items, domain.CartItem{Product: product, Amount: amount})
	}

	if err := s.commit(ctx, next); err != nil {
		return s.reject(ctx, KindStorageFailure, MsgAddFailed, err)
	}

	return nil
}

// RemoveProduct drops productID from the cart. The catalog is not consulted.
func (s *Store) RemoveProduct(ctx context.Context, productID int64) (err error) {
	ctx, done := s.begin(ctx, OpRemoveProduct, productID)
	defer func() { done(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.current()
	if current.Index(productID) < 0 {
		return s.reject(ctx, KindNotFoundLocally, MsgRemoveFailed, nil)
	}

	next := domain.Cart{Items: make([]domain.CartItem, 0, len(current.Items)-1)}
	for _, item := range current.Items {
		if item.Product.ID != productID {
			next.Items = append(next.Items, item)
		}
	}

	if err := s.commit(ctx, next); err != nil {
		return s.reject(ctx, KindStorageFailure, MsgRemoveFailed, err)
	}

	return nil
}

// UpdateProductAmount sets the quantity of a product already in the cart.
// It never removes a product: non-positive amounts are rejected.
func (s *Store) UpdateProductAmount(ctx context.Context, req UpdateAmount) (err error) {
	ctx, done := s.begin(ctx, OpUpdateProductAmount, req.ProductID)
	defer func() { done(err) }()

	if err := validate.Struct(req); err != nil {
		return s.reject(ctx, KindInvalidQuantity, MsgQuantityFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current()
	i := next.Index(req.ProductID)
	if i < 0 {
		return s.reject(ctx, KindNotFoundLocally, MsgQuantityFailed, nil)
	}

	stock, err := s.catalog.Stock(ctx, req.ProductID)
	if err != nil {
		return s.reject(ctx, KindRemoteFailure, MsgQuantityFailed, fmt.Errorf("catalog.Stock: %w", err))
	}
	if stock.Amount < req.Amount {
		return s.reject(ctx, KindStockInsufficient, MsgOutOfStock, nil)
	}

	next.Items[i].Amount = req.Amount

	if err := s.commit(ctx, next); err != nil {
		return s.reject(ctx, KindStorageFailure, MsgQuantityFailed, err)
	}

	return nil
}

// current returns a private copy of the committed cart. Callers hold mu.
func (s *Store) current() domain.Cart {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	return s.cart.Clone()
}

// commit persists next and only then publishes it, so memory never runs ahead of the snapshot.
func (s *Store) commit(ctx context.Context, next domain.Cart) error {
	raw, err := encodeSnapshot(next)
	if err != nil {
		return fmt.Errorf("encodeSnapshot: %w", err)
	}

	if err := s.snapshots.Set(ctx, s.key, raw); err != nil {
		return fmt.Errorf("snapshots.Set: %w", err)
	}

	s.stateMu.Lock()
	s.cart = next
	s.stateMu.Unlock()

	s.recorder.SetCartSize(next.Count())
	s.log.Debug(s.log.WithField(ctx, "items", next.Count()), "cart committed")

	return nil
}

func (s *Store) reject(ctx context.Context, kind Kind, message string, cause error) error {
	err := newError(kind, message, cause)

	// rejections without a cause reach the log through the notifier
	if cause != nil {
		s.log.Error(ctx, "cart operation failed", err)
	} else {
		s.log.Debug(ctx, err.Error())
	}
	s.notifier.NotifyError(ctx, message)

	return err
}

func (s *Store) begin(ctx context.Context, operation string, productID int64) (context.Context, func(error)) {
	started := time.Now()

	ctx = s.log.WithOperationID(ctx, uuid.NewString())
	ctx = s.log.WithFields(ctx, map[string]any{
		"operation":  operation,
		"product_id": productID,
	})

	return ctx, func(err error) {
		outcome := outcomeOK
		if kind := KindOf(err); kind != "" {
			outcome = string(kind)
		}
		s.recorder.ObserveOperation(operation, outcome, time.Since(started))
	}
}
