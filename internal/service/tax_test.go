package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBreakdownGross_StandardIVA(t *testing.T) {
	bd := BreakdownGross(dec("7140"), dec("0.19"))

	assertMoney(t, "6000", bd.Net)
	assertMoney(t, "1140", bd.Tax)
	assertMoney(t, "7140", bd.Gross)
}

func TestBreakdownGross_ExemptRate(t *testing.T) {
	bd := BreakdownGross(dec("7140"), dec("0"))

	assertMoney(t, "7140", bd.Net)
	assertMoney(t, "0", bd.Tax)
	assertMoney(t, "7140", bd.Gross)
}

func TestBreakdownGross_NegativeRateTreatedAsExempt(t *testing.T) {
	bd := BreakdownGross(dec("1000"), dec("-0.19"))

	assertMoney(t, "1000", bd.Net)
	assertMoney(t, "0", bd.Tax)
}

func TestBreakdownGross_RoundingPreservesIdentity(t *testing.T) {
	bd := BreakdownGross(dec("1000"), dec("0.19"))

	// 1000 / 1.19 = 840.336… → 840.34; tax carries the remainder.
	assertMoney(t, "840.34", bd.Net)
	assertMoney(t, "159.66", bd.Tax)
	assert.True(t, bd.Net.Add(bd.Tax).Equal(bd.Gross))
}
