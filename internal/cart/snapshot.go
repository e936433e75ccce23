package cart

import (
	"encoding/json"
	"fmt"

	"github.com/nikolayk812/cartstore/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// snapshotItem is the persisted form of a cart line: a flat JSON object per item.
type snapshotItem struct {
	ID       int64           `json:"id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency,omitempty"`
	Image    string          `json:"image"`
	Amount   int             `json:"amount"`
}

func encodeSnapshot(c domain.Cart) (string, error) {
	items := make([]snapshotItem, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, mapItemToSnapshot(item))
	}

	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("json.Marshal: %w", err)
	}

	return string(data), nil
}

// decodeSnapshot parses a persisted cart. Entries breaking the cart invariants
// (amount < 1, duplicate id, unknown currency) are skipped and reported in dropped.
// Entries without a currency get fallback.
func decodeSnapshot(raw string, fallback currency.Unit) (_ domain.Cart, dropped []string, _ error) {
	var items []snapshotItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return domain.Cart{}, nil, fmt.Errorf("json.Unmarshal: %w", err)
	}

	result := domain.Cart{Items: make([]domain.CartItem, 0, len(items))}
	for _, s := range items {
		item, err := mapSnapshotToItem(s, fallback)
		if err != nil {
			dropped = append(dropped, err.Error())
			continue
		}
		if result.Index(item.Product.ID) >= 0 {
			dropped = append(dropped, fmt.Sprintf("product[%d] is duplicated", s.ID))
			continue
		}

		result.Items = append(result.Items, item)
	}

	return result, dropped, nil
}

func mapItemToSnapshot(item domain.CartItem) snapshotItem {
	s := snapshotItem{
		ID:     item.Product.ID,
		Title:  item.Product.Title,
		Price:  item.Product.Price.Amount,
		Image:  item.Product.Image,
		Amount: item.Amount,
	}
	if item.Product.Price.Currency != (currency.Unit{}) {
		s.Currency = item.Product.Price.Currency.String()
	}

	return s
}

func mapSnapshotToItem(s snapshotItem, fallback currency.Unit) (domain.CartItem, error) {
	if s.Amount < 1 {
		return domain.CartItem{}, fmt.Errorf("product[%d] amount %d is not positive", s.ID, s.Amount)
	}

	unit := fallback
	if s.Currency != "" {
		parsed, err := currency.ParseISO(s.Currency)
		if err != nil {
			return domain.CartItem{}, fmt.Errorf("product[%d] currency[%s] is not valid: %w", s.ID, s.Currency, err)
		}
		unit = parsed
	}

	return domain.CartItem{
		Product: domain.Product{
			ID:    s.ID,
			Title: s.Title,
			Price: domain.Money{Amount: s.Price, Currency: unit},
			Image: s.Image,
		},
		Amount: s.Amount,
	}, nil
}
