package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/dto"
)

// discountTolerance absorbs float/decimal representation noise between a
// persisted discount and a freshly recomputed one.
var discountTolerance = decimal.NewFromFloat(0.01)

// ValidateDiscount compares a previously-applied discount against the
// engine's expected value. Mismatches beyond tolerance usually indicate
// manual tampering or a stale calculation; escalation is the caller's job.
func ValidateDiscount(applied decimal.Decimal, expected dto.PricingResult) dto.ValidationResult {
	diff := applied.Sub(expected.DiscountAmount)
	if diff.Abs().LessThanOrEqual(discountTolerance) {
		return dto.ValidationResult{Valid: true, Difference: diff}
	}
	return dto.ValidationResult{
		Valid: false,
		Reason: fmt.Sprintf(
			"descuento aplicado %s no coincide con el esperado %s (diferencia %s)",
			applied, expected.DiscountAmount, diff),
		Difference: diff,
	}
}

// ValidateSplit checks that a set of split amounts reproduces the original
// total within tolerance. Used when a charge is divided across payers.
func ValidateSplit(original decimal.Decimal, splits []decimal.Decimal) dto.SplitValidation {
	sum := decimal.Zero
	for _, s := range splits {
		sum = sum.Add(s)
	}
	diff := sum.Sub(original)
	if diff.Abs().LessThanOrEqual(discountTolerance) {
		return dto.SplitValidation{Valid: true, Difference: diff}
	}
	return dto.SplitValidation{
		Valid:      false,
		Difference: diff,
		Violations: []string{fmt.Sprintf(
			"la suma de las divisiones (%s) no coincide con el total original (%s): diferencia %s",
			sum, original, diff)},
	}
}

// ValidateEmissionTotals verifies the fiscal identity net + tax == total
// within the currency's rounding tolerance. A document that fails this check
// must never reach the emitter — the failure is returned, never corrected.
func ValidateEmissionTotals(net, tax, total decimal.Decimal, currency string) dto.ValidationResult {
	diff := net.Add(tax).Sub(total)
	if diff.Abs().LessThanOrEqual(MoneyTolerance(currency)) {
		return dto.ValidationResult{Valid: true, Difference: diff}
	}
	return dto.ValidationResult{
		Valid: false,
		Reason: fmt.Sprintf(
			"neto %s + impuesto %s no reproduce el total %s (diferencia %s)",
			net, tax, total, diff),
		Difference: diff,
	}
}
