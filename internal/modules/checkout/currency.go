package checkout

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is a checkout currency with the multiplier applied to USD-priced
// carts when billing in it.
type Currency struct {
	Code       string
	Multiplier decimal.Decimal
}

// One canonical table. Matching is case-insensitive substring so free-text
// locations like "Kigali, Rwanda" resolve.
var currencyTable = []struct {
	match      string
	code       string
	multiplier int64
}{
	{"rwanda", "RWF", 1000},
	{"kenya", "KES", 130},
	{"uganda", "UGX", 3700},
	{"tanzania", "TZS", 2600},
	{"nigeria", "NGN", 1500},
	{"ghana", "GHS", 15},
	{"south africa", "ZAR", 18},
}

var defaultCurrency = Currency{Code: "USD", Multiplier: decimal.NewFromInt(1)}

// ResolveCurrency maps a free-text country/location string to a currency.
// Unmatched input falls back to USD with multiplier 1; there is no failure
// mode.
func ResolveCurrency(location string) Currency {
	loc := strings.ToLower(strings.TrimSpace(location))
	if loc == "" {
		return defaultCurrency
	}
	for _, entry := range currencyTable {
		if strings.Contains(loc, entry.match) {
			return Currency{Code: entry.code, Multiplier: decimal.NewFromInt(entry.multiplier)}
		}
	}
	return defaultCurrency
}
