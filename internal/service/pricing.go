package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/dto"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/model"
)

// zeroDecimalCurrencies have no minor unit: every monetary result is
// rounded to a whole number instead of 2 decimal places.
var zeroDecimalCurrencies = map[string]bool{
	"CLP": true,
	"JPY": true,
	"KRW": true,
	"PYG": true,
	"VND": true,
}

var (
	sixty   = decimal.NewFromInt(60)
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// RoundMoney applies currency-aware rounding: zero-decimal currencies round
// to the nearest integer, everything else to 2 decimal places.
func RoundMoney(amount decimal.Decimal, currency string) decimal.Decimal {
	if zeroDecimalCurrencies[currency] {
		return amount.Round(0)
	}
	return amount.Round(2)
}

// MoneyTolerance is the rounding drift two independently-rounded amounts may
// legitimately differ by: one minor unit (0.01), or one whole unit for
// zero-decimal currencies.
func MoneyTolerance(currency string) decimal.Decimal {
	if zeroDecimalCurrencies[currency] {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromFloat(0.01)
}

// discountDecision is one resolved row of the discount rule table.
type discountDecision struct {
	pct      decimal.Decimal
	applied  bool
	reason   string
	warnings []string
}

// resolveDiscount is the ordered rule table mapping
// (business model × member category × subscription state) to a discount
// source. Every fallback is an explicit branch — no silent chains.
//
//	CLUB_SOCIOS: SOCIO+ACTIVE → tier setting (fallback: member discount);
//	             SOCIO not active → 0% + warning; VIP/GENERAL → always 0%.
//	COMERCIAL:   SOCIO → tier socio setting, VIP → tier VIP setting
//	             (each falling back to the member's stored discount);
//	             GENERAL → always 0%.
func resolveDiscount(tenant *model.Tenant, member *model.Member) discountDecision {
	if member == nil {
		return discountDecision{pct: decimal.Zero, reason: "sin socio asociado"}
	}

	switch tenant.BusinessModel {
	case model.BusinessModelClubSocios:
		if member.Category != model.CategorySocio {
			return discountDecision{pct: decimal.Zero, reason: "modelo CLUB_SOCIOS: solo socios con cuota al dia reciben descuento"}
		}
		if member.SubscriptionStatus != model.SubscriptionActive {
			return discountDecision{
				pct:    decimal.Zero,
				reason: "cuota de socio impaga",
				warnings: []string{fmt.Sprintf(
					"socio %s sin suscripcion activa (estado=%s): se aplica tarifa general",
					member.ID, member.SubscriptionStatus)},
			}
		}
		return discountDecision{
			pct:     tierOrStored(tenant.Tiers.SocioDiscountPct, member.DiscountPct),
			applied: true,
			reason:  "descuento socio (CLUB_SOCIOS, suscripcion activa)",
		}

	case model.BusinessModelComercial:
		switch member.Category {
		case model.CategorySocio:
			return discountDecision{
				pct:     tierOrStored(tenant.Tiers.SocioDiscountPct, member.DiscountPct),
				applied: true,
				reason:  "descuento socio (COMERCIAL)",
			}
		case model.CategoryVIP:
			return discountDecision{
				pct:     tierOrStored(tenant.Tiers.VIPDiscountPct, member.DiscountPct),
				applied: true,
				reason:  "descuento VIP (COMERCIAL)",
			}
		default:
			return discountDecision{pct: decimal.Zero, reason: "categoria GENERAL sin descuento"}
		}
	}

	return discountDecision{pct: decimal.Zero, reason: "modelo de negocio desconocido"}
}

// tierOrStored prefers the tenant tier setting; a zero/absent setting falls
// back to the member's stored discount.
func tierOrStored(tierPct, storedPct decimal.Decimal) decimal.Decimal {
	if tierPct.IsPositive() {
		return tierPct
	}
	return storedPct
}

// CalculateTotal computes the full charge for one session. Pure and
// deterministic: identical inputs always yield identical results.
//
// Algorithm:
//  1. timeCharge = (duration/60) × base hourly rate
//  2. discount % from the rule table — applies ONLY to the time charge,
//     never to consumption
//  3. subtotal = discounted time + consumption
//  4. tax = subtotal × rate (rate clamped to [0,1], violations warn)
//  5. total = subtotal + tax
//
// Each monetary field is rounded independently per the tenant currency, so
// callers must tolerate up to one minor unit of drift when re-adding parts.
func CalculateTotal(tenant *model.Tenant, member *model.Member, durationMinutes int, consumptionTotal decimal.Decimal) dto.PricingResult {
	warnings := []string{}

	timeCharge := decimal.NewFromInt(int64(durationMinutes)).
		Div(sixty).
		Mul(tenant.BaseHourlyRate)

	decision := resolveDiscount(tenant, member)
	warnings = append(warnings, decision.warnings...)

	pct := decision.pct
	if pct.IsNegative() {
		pct = decimal.Zero
	}
	discountedTime := timeCharge.Mul(one.Sub(pct.Div(hundred)))
	discountAmount := timeCharge.Sub(discountedTime)

	subtotal := discountedTime.Add(consumptionTotal)

	taxRate := tenant.TaxRate
	if taxRate.IsNegative() || taxRate.GreaterThan(one) {
		warnings = append(warnings, fmt.Sprintf(
			"tasa de impuesto fuera de rango (%s): se ajusta a 0", tenant.TaxRate))
		taxRate = decimal.Zero
	}
	taxAmount := subtotal.Mul(taxRate)
	total := subtotal.Add(taxAmount)

	cur := tenant.CurrencyCode
	category := model.CategoryGeneral
	if member != nil {
		category = member.Category
	}

	return dto.PricingResult{
		TimeCharge:         RoundMoney(timeCharge, cur),
		Subtotal:           RoundMoney(subtotal, cur),
		DiscountAmount:     RoundMoney(discountAmount, cur),
		DiscountPercentage: pct,
		TaxAmount:          RoundMoney(taxAmount, cur),
		Total:              RoundMoney(total, cur),
		AppliedDiscount:    decision.applied && discountAmount.IsPositive(),
		DiscountReason:     decision.reason,
		MemberCategory:     category,
		BusinessModel:      tenant.BusinessModel,
		Currency:           cur,
		Warnings:           warnings,
	}
}
