package checkout

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestResolveCurrency(t *testing.T) {
	tests := []struct {
		name       string
		location   string
		code       string
		multiplier int64
	}{
		{"exact country", "Rwanda", "RWF", 1000},
		{"uppercase", "KENYA", "KES", 130},
		{"free-text location", "Kigali, Rwanda", "RWF", 1000},
		{"two-word country", "South Africa", "ZAR", 18},
		{"unknown falls back", "Wakanda", "USD", 1},
		{"empty falls back", "", "USD", 1},
		{"whitespace only", "   ", "USD", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ResolveCurrency(tt.location)
			require.Equal(t, tt.code, c.Code)
			require.True(t, c.Multiplier.Equal(decimal.NewFromInt(tt.multiplier)),
				"got multiplier %s", c.Multiplier)
		})
	}
}
