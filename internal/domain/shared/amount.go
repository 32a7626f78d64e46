package shared

import "github.com/shopspring/decimal"

// AmountScale is the number of decimal places kept for money.
const AmountScale = 4

// RoundAmount rounds a money value to AmountScale places.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountScale)
}
