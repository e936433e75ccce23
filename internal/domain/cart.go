package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Cart struct {
	Items []CartItem
}

// CartItem is a cart line: a catalog product joined with the quantity held.
type CartItem struct {
	Product Product
	Amount  int
}

// Index returns the position of the item for productID, or -1.
func (c Cart) Index(productID int64) int {
	for i, item := range c.Items {
		if item.Product.ID == productID {
			return i
		}
	}

	return -1
}

// Clone returns a copy whose Items can be modified without touching c.
func (c Cart) Clone() Cart {
	items := make([]CartItem, len(c.Items))
	copy(items, c.Items)

	return Cart{Items: items}
}

// Count returns the number of distinct products in the cart.
func (c Cart) Count() int {
	return len(c.Items)
}

func (c Cart) Subtotal(productID int64) (Money, bool) {
	i := c.Index(productID)
	if i < 0 {
		return Money{}, false
	}

	item := c.Items[i]
	return item.Product.Price.Mul(item.Amount), true
}

// Total sums price * amount over all items. All items must share one currency.
func (c Cart) Total() (Money, error) {
	if len(c.Items) == 0 {
		return Money{Amount: decimal.Zero}, nil
	}

	total := Money{Amount: decimal.Zero, Currency: c.Items[0].Product.Price.Currency}
	for _, item := range c.Items {
		if item.Product.Price.Currency != total.Currency {
			return Money{}, fmt.Errorf("product[%d] currency %s differs from %s",
				item.Product.ID, item.Product.Price.Currency, total.Currency)
		}
		total.Amount = total.Amount.Add(item.Product.Price.Mul(item.Amount).Amount)
	}

	return total, nil
}
