package cart_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/nikolayk812/cartstore/internal/cart"
	"github.com/nikolayk812/cartstore/internal/domain"
	"github.com/nikolayk812/cartstore/internal/notify"
	"github.com/nikolayk812/cartstore/internal/port"
	"github.com/nikolayk812/cartstore/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
)

var errCatalogDown = errors.New("catalog down")

type fakeCatalog struct {
	mu           sync.Mutex
	products     map[int64]domain.Product
	stock        map[int64]int
	stockErr     error
	productErr   error
	stockCalls   int
	productCalls int
	delay        time.Duration
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		products: map[int64]domain.Product{},
		stock:    map[int64]int{},
	}
}

// withProduct registers a random product with the given id and stock.
func (c *fakeCatalog) withProduct(id int64, stock int) domain.Product {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := randomProduct(id)
	c.products[id] = p
	c.stock[id] = stock
	return p
}

func (c *fakeCatalog) setStock(id int64, stock int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stock[id] = stock
}

func (c *fakeCatalog) Stock(ctx context.Context, productID int64) (domain.Stock, error) {
	c.mu.Lock()
	c.stockCalls++
	delay, err := c.delay, c.stockErr
	amount, ok := c.stock[productID]
	c.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return domain.Stock{}, ctx.Err()
		}
	}
	if err != nil {
		return domain.Stock{}, err
	}
	if !ok {
		return domain.Stock{}, errors.New("stock not found")
	}
	return domain.Stock{ProductID: productID, Amount: amount}, nil
}

func (c *fakeCatalog) Product(_ context.Context, productID int64) (domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.productCalls++
	if c.productErr != nil {
		return domain.Product{}, c.productErr
	}
	p, ok := c.products[productID]
	if !ok {
		return domain.Product{}, errors.New("product not found")
	}
	return p, nil
}

func (c *fakeCatalog) calls() (stock, product int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stockCalls, c.productCalls
}

// failingRepository fails Set once setErr is non-nil.
type failingRepository struct {
	port.SnapshotRepository

	mu     sync.Mutex
	setErr error
}

func (r *failingRepository) failSets(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setErr = err
}

func (r *failingRepository) Set(ctx context.Context, key string, value string) error {
	r.mu.Lock()
	err := r.setErr
	r.mu.Unlock()

	if err != nil {
		return err
	}
	return r.SnapshotRepository.Set(ctx, key, value)
}

type observation struct {
	operation string
	outcome   string
}

type fakeRecorder struct {
	mu           sync.Mutex
	observations []observation
	size         int
}

func (r *fakeRecorder) ObserveOperation(operation, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observations = append(r.observations, observation{operation: operation, outcome: outcome})
}

func (r *fakeRecorder) SetCartSize(items int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.size = items
}

type fixture struct {
	catalog  *fakeCatalog
	repo     port.SnapshotRepository
	notifier *notify.Recorder
	recorder *fakeRecorder
	store    *cart.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		catalog:  newFakeCatalog(),
		repo:     repository.NewMemory(),
		notifier: &notify.Recorder{},
		recorder: &fakeRecorder{},
	}
	f.store = f.open(t)

	return f
}

// open builds a new Store over the fixture's repository, like a process restart.
func (f *fixture) open(t *testing.T) *cart.Store {
	t.Helper()

	s, err := cart.New(t.Context(), cart.Params{
		Catalog:   f.catalog,
		Snapshots: f.repo,
		Notifier:  f.notifier,
		Recorder:  f.recorder,
	})
	require.NoError(t, err)

	return s
}

// seed persists items directly and reopens the store on top of them.
func (f *fixture) seed(t *testing.T, items ...domain.CartItem) {
	t.Helper()

	s := f.store
	for _, item := range items {
		f.catalog.mu.Lock()
		f.catalog.products[item.Product.ID] = item.Product
		f.catalog.stock[item.Product.ID] = item.Amount
		f.catalog.mu.Unlock()

		require.NoError(t, s.AddProduct(t.Context(), item.Product.ID))
		if item.Amount > 1 {
			require.NoError(t, s.UpdateProductAmount(t.Context(), cart.UpdateAmount{
				ProductID: item.Product.ID,
				Amount:    item.Amount,
			}))
		}
	}
	f.store = f.open(t)
}

func randomProduct(id int64) domain.Product {
	return domain.Product{
		ID:    id,
		Title: gofakeit.ProductName(),
		Price: domain.Money{
			Amount:   decimal.NewFromFloat(gofakeit.Price(1, 500)).Round(2),
			Currency: currency.BRL,
		},
		Image: gofakeit.URL(),
	}
}

func assertCart(t *testing.T, expected, actual domain.Cart) {
	t.Helper()

	currencyComparer := cmp.Comparer(func(x, y currency.Unit) bool {
		return x.String() == y.String()
	})

	diff := cmp.Diff(expected, actual, currencyComparer, cmpopts.EquateEmpty())
	assert.Empty(t, diff)
}

// assertPersisted checks that a freshly opened store sees the same cart.
func assertPersisted(t *testing.T, f *fixture) {
	t.Helper()

	assertCart(t, f.store.Cart(), f.open(t).Cart())
}

func cartOf(items ...domain.CartItem) domain.Cart {
	return domain.Cart{Items: items}
}
