package port

import (
	"context"

	"github.com/nikolayk812/cartstore/internal/domain"
)

// Catalog is the read-only remote product and stock service.
type Catalog interface {
	Product(ctx context.Context, productID int64) (domain.Product, error)
	Stock(ctx context.Context, productID int64) (domain.Stock, error)
}
