package service

import (
	"github.com/shopspring/decimal"

	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/dto"
)

// BreakdownGross decomposes a tax-inclusive gross amount into net + tax for
// a given rate: net = G / (1 + r), tax = G − net, both rounded to 2 decimal
// places. A rate ≤ 0 short-circuits to the exempt case {G, 0, G}.
// Pure — no side effects, never fails.
func BreakdownGross(gross, rate decimal.Decimal) dto.TaxBreakdown {
	if rate.LessThanOrEqual(decimal.Zero) {
		return dto.TaxBreakdown{Net: gross, Tax: decimal.Zero, Gross: gross}
	}

	net := gross.Div(decimal.NewFromInt(1).Add(rate)).Round(2)
	tax := gross.Sub(net).Round(2)

	return dto.TaxBreakdown{Net: net, Tax: tax, Gross: gross}
}
