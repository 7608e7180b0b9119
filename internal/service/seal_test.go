package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/model"
)

func sealedClosure() *model.ShiftClosure {
	return &model.ShiftClosure{
		ID:                uuid.New(),
		TenantID:          uuid.New(),
		TimeRevenue:       dec("7140"),
		ProductRevenue:    dec("2380"),
		MembershipRevenue: dec("10000"),
		RentalRevenue:     dec("1190"),
		TotalRevenue:      dec("20710"),
		CashRevenue:       dec("15000"),
		CardRevenue:       dec("5710"),
		CreditRevenue:     dec("0"),
		TotalCost:         dec("4200"),
		WasteCost:         dec("1000"),
		MaintenanceCost:   dec("2000"),
		NetProfit:         dec("16510"),
		CashInHand:        dec("15000"),
		CashDifference:    dec("0"),
		SessionCount:      3,
		ClosedBy:          uuid.New(),
		CreatedAt:         time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC),
	}
}

func TestGenerateSeal_Deterministic(t *testing.T) {
	closure := sealedClosure()

	first := GenerateSeal(closure)
	second := GenerateSeal(closure)

	require.NotEmpty(t, first.Hash)
	assert.Equal(t, first.Hash, second.Hash)
	assert.Equal(t, "SHA-256", first.Algorithm)
	// SealedAt is metadata, never part of the digest.
	assert.Len(t, first.Hash, 64)
}

func TestVerifySeal_DetectsTampering(t *testing.T) {
	closure := sealedClosure()
	seal := GenerateSeal(closure)

	assert.True(t, VerifySeal(closure, seal.Hash))

	original := closure.CashRevenue
	closure.CashRevenue = closure.CashRevenue.Add(dec("1000"))
	assert.False(t, VerifySeal(closure, seal.Hash))

	closure.CashRevenue = original
	assert.True(t, VerifySeal(closure, seal.Hash))
}

func TestVerifySeal_TimeOfDayIrrelevant(t *testing.T) {
	// Only the closure DATE participates in the payload; the clock time of
	// the row must not affect verification.
	closure := sealedClosure()
	seal := GenerateSeal(closure)

	closure.CreatedAt = closure.CreatedAt.Add(2 * time.Hour)
	assert.True(t, VerifySeal(closure, seal.Hash))

	closure.CreatedAt = closure.CreatedAt.Add(24 * time.Hour)
	assert.False(t, VerifySeal(closure, seal.Hash))
}

func TestVerifySeal_DistinctClosuresDistinctHashes(t *testing.T) {
	a := GenerateSeal(sealedClosure())
	b := GenerateSeal(sealedClosure())
	assert.NotEqual(t, a.Hash, b.Hash)
}
