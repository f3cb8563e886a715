package x402

import (
	"github.com/shopspring/decimal"
)

// Price is pricePerCard x cardCount fixed to 2 decimal places, the
// human-readable amount quoted in a 402 challenge.
func Price(pricePerCard decimal.Decimal, cardCount int) decimal.Decimal {
	return pricePerCard.Mul(decimal.NewFromInt(int64(cardCount))).Round(2)
}

// BaseUnits converts a price to the stablecoin's integer base-unit string
// (10^6 scale): 3 cards at 0.01 -> "30000".
func BaseUnits(price decimal.Decimal) string {
	return price.Shift(AssetDecimals).Truncate(0).String()
}
