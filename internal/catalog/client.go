package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/nikolayk812/cartstore/internal/domain"
	"github.com/nikolayk812/cartstore/internal/logger"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/text/currency"
)

const maxBodyBytes = 1 << 20

// ErrNotFound is returned when the catalog has no record for the product.
var ErrNotFound = errors.New("catalog: not found")

// StatusError is returned for any other non-2xx response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog: unexpected status %d", e.Code)
}

type Options struct {
	BaseURL  string
	Timeout  time.Duration
	Currency currency.Unit

	// BreakerFailures consecutive failures open the breaker for BreakerOpenFor.
	BreakerFailures uint32
	BreakerOpenFor  time.Duration

	Transport http.RoundTripper
	Logger    *logger.Logger
}

// Client reads products and stock from the storefront API:
// GET /products/{id} and GET /stock/{id}.
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker[[]byte]
	currency currency.Unit
}

type stockResponse struct {
	ID     int64 `json:"id"`
	Amount int   `json:"amount"`
}

type productResponse struct {
	ID    int64           `json:"id"`
	Title string          `json:"title"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image"`
}

func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("base url is empty")
	}
	baseURL, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("url.Parse: %w", err)
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		return nil, fmt.Errorf("base url[%s] must be http or https", opts.BaseURL)
	}

	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerOpenFor <= 0 {
		opts.BreakerOpenFor = 30 * time.Second
	}
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "catalog",
		Timeout: opts.BreakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.BreakerFailures
		},
		IsSuccessful: func(err error) bool {
			// the catalog answered; a missing product says nothing about its health
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			ctx := log.WithFields(context.Background(), map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			log.Warn(ctx, "catalog breaker state changed")
		},
	})

	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(opts.Transport),
		},
		breaker:  breaker,
		currency: opts.Currency,
	}, nil
}

func (c *Client) Stock(ctx context.Context, productID int64) (domain.Stock, error) {
	var resp stockResponse
	if err := c.get(ctx, "stock", productID, &resp); err != nil {
		return domain.Stock{}, err
	}
	if resp.ID != 0 && resp.ID != productID {
		return domain.Stock{}, fmt.Errorf("stock for product[%d] returned for product[%d]", resp.ID, productID)
	}

	return domain.Stock{ProductID: productID, Amount: resp.Amount}, nil
}

func (c *Client) Product(ctx context.Context, productID int64) (domain.Product, error) {
	var resp productResponse
	if err := c.get(ctx, "products", productID, &resp); err != nil {
		return domain.Product{}, err
	}
	if resp.ID != 0 && resp.ID != productID {
		return domain.Product{}, fmt.Errorf("product[%d] returned for product[%d]", resp.ID, productID)
	}

	return domain.Product{
		ID:    productID,
		Title: resp.Title,
		Price: domain.Money{Amount: resp.Price, Currency: c.currency},
		Image: resp.Image,
	}, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

func (c *Client) get(ctx context.Context, resource string, productID int64, dest any) error {
	target := c.baseURL.JoinPath(resource, strconv.FormatInt(productID, 10))

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.fetch(ctx, target.String())
	})
	if err != nil {
		return fmt.Errorf("GET %s: %w", target.Path, err)
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode %s: %w", target.Path, err)
	}

	return nil
}

func (c *Client) fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("http.NewRequestWithContext: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("io.ReadAll: %w", err)
	}

	return body, nil
}
