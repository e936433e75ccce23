package domain

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type Money struct {
	Amount   decimal.Decimal
	Currency currency.Unit
}

// Mul returns the money multiplied by a whole quantity.
func (m Money) Mul(qty int) Money {
	return Money{
		Amount:   m.Amount.Mul(decimal.NewFromInt(int64(qty))),
		Currency: m.Currency,
	}
}

// FormatMoney renders m for the given locale, e.g. "R$ 179.90" or "US$ 10.00".
func FormatMoney(tag language.Tag, m Money) string {
	p := message.NewPrinter(tag)
	if m.Currency == (currency.Unit{}) {
		return p.Sprintf("%s", m.Amount.StringFixed(2))
	}

	return p.Sprintf("%v %s", currency.Symbol(m.Currency), m.Amount.StringFixed(2))
}
