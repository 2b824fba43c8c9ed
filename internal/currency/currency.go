package currency

import (
	"fmt"

	"github.com/pkg/errors"
	xcurrency "golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// DefaultLedger is the currency amounts are stored in before any
	// display conversion.
	DefaultLedger = "TZS"

	// DefaultBase is the currency the administrator-entered rate table is
	// expressed against when no base is configured.
	DefaultBase = "USD"
)

// ErrMissingRate reports that the rate table lacks an entry needed for a
// conversion. The returned value is still usable: conversion degrades to the
// closest defined amount instead of failing the caller.
var ErrMissingRate = errors.New("exchange rate not configured")

// RateSet is the administrator-maintained exchange rate document. Rates map a
// currency code to units of that currency per one unit of the base currency.
type RateSet struct {
	Base  string             `json:"baseCurrency"`
	Rates map[string]float64 `json:"exchangeRates"`
}

// Converter expresses ledger-currency amounts in arbitrary display currencies
// by pivoting through the rate table's base currency.
type Converter struct {
	ledger string
}

func NewConverter(ledger string) *Converter {
	if ledger == "" {
		ledger = DefaultLedger
	}
	return &Converter{ledger: ledger}
}

func (c *Converter) Ledger() string {
	return c.ledger
}

// Convert expresses amount (denominated in the ledger currency) in the target
// currency. A missing rate leaves the value at the nearest defined step and
// reports ErrMissingRate alongside it.
func (c *Converter) Convert(amount float64, target string, rs RateSet) (float64, error) {
	// The ledger currency never round-trips through the rate table.
	if target == c.ledger {
		return amount, nil
	}

	if len(rs.Rates) == 0 {
		return amount, nil
	}

	base := rs.Base
	if base == "" {
		base = DefaultBase
	}

	value := amount
	var convErr error

	if base != c.ledger {
		rate, ok := rs.Rates[c.ledger]
		if !ok || rate == 0 {
			convErr = errors.Wrapf(ErrMissingRate, "ledger currency %s", c.ledger)
		} else {
			value = amount / rate
		}
	}

	if target == base {
		return value, convErr
	}

	rate, ok := rs.Rates[target]
	if !ok {
		return value, errors.Wrapf(ErrMissingRate, "target currency %s", target)
	}

	return value * rate, convErr
}

// Format converts and renders amount with two fixed decimals under the target
// currency's symbol. Unknown ISO codes fall back to "CODE amount".
func (c *Converter) Format(amount float64, target string, rs RateSet) (string, error) {
	value, convErr := c.Convert(amount, target, rs)

	unit, err := xcurrency.ParseISO(target)
	if err != nil {
		return fmt.Sprintf("%s %.2f", target, value), convErr
	}

	p := message.NewPrinter(language.English)
	return p.Sprintf("%v %.2f", xcurrency.Symbol(unit), value), convErr
}
