package service

import "github.com/shopspring/decimal"

var one = decimal.NewFromInt(1)

// ApplyDiscount returns price * (1 - rate) rounded to cents. A zero rate
// returns price untouched.
func ApplyDiscount(price, rate decimal.Decimal) decimal.Decimal {
	if rate.IsZero() {
		return price
	}
	return price.Mul(one.Sub(rate)).Round(2)
}
