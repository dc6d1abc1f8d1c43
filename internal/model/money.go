package model

import "github.com/shopspring/decimal"

// RoundMoney normalizes an amount to exactly two fractional digits using
// banker's rounding, the precision every persisted balance carries.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(2)
}

// MoneyString renders an amount with exactly two fractional digits.
func MoneyString(d decimal.Decimal) string {
	return d.StringFixed(2)
}
