package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/dto"
)

func TestValidateSplit_ExactHalves(t *testing.T) {
	res := ValidateSplit(dec("5712"), []decimal.Decimal{dec("2856"), dec("2856")})

	assert.True(t, res.Valid)
	assertMoney(t, "0", res.Difference)
	assert.Empty(t, res.Violations)
}

func TestValidateSplit_ShortBy100(t *testing.T) {
	res := ValidateSplit(dec("5712"), []decimal.Decimal{dec("2856"), dec("2756")})

	assert.False(t, res.Valid)
	assertMoney(t, "-100", res.Difference)
	require.Len(t, res.Violations, 1)
	assert.Contains(t, res.Violations[0], "no coincide con el total original")
}

func TestValidateSplit_WithinTolerance(t *testing.T) {
	// One cent of rounding drift between payers is acceptable.
	res := ValidateSplit(dec("100.00"), []decimal.Decimal{dec("33.33"), dec("33.33"), dec("33.33")})

	assert.True(t, res.Valid)
	assertMoney(t, "-0.01", res.Difference)
}

func TestValidateDiscount(t *testing.T) {
	expected := dto.PricingResult{DiscountAmount: dec("1200")}

	ok := ValidateDiscount(dec("1200"), expected)
	assert.True(t, ok.Valid)

	bad := ValidateDiscount(dec("1205"), expected)
	assert.False(t, bad.Valid)
	assertMoney(t, "5", bad.Difference)
	assert.Contains(t, bad.Reason, "no coincide con el esperado")
}

func TestValidateEmissionTotals_ZeroDecimalCurrency(t *testing.T) {
	// CLP tolerates one whole peso of independent-rounding drift.
	ok := ValidateEmissionTotals(dec("6000"), dec("1140"), dec("7141"), "CLP")
	assert.True(t, ok.Valid)

	bad := ValidateEmissionTotals(dec("6000"), dec("1140"), dec("7142"), "CLP")
	assert.False(t, bad.Valid)
	assert.Contains(t, bad.Reason, "no reproduce el total")
}

func TestValidateEmissionTotals_TwoDecimalCurrency(t *testing.T) {
	ok := ValidateEmissionTotals(dec("84.03"), dec("15.97"), dec("100.00"), "USD")
	assert.True(t, ok.Valid)

	bad := ValidateEmissionTotals(dec("84.03"), dec("15.97"), dec("100.02"), "USD")
	assert.False(t, bad.Valid)
}
