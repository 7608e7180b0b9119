package service

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/dto"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/model"
)

const sealAlgorithm = "SHA-256"

// sealCanonicalPayload serializes the business fields of a closure in a
// fixed, order-stable form. The seal timestamp is deliberately excluded:
// recomputing the hash from an unmodified closure must always reproduce the
// same digest, whenever the recomputation happens.
func sealCanonicalPayload(c *model.ShiftClosure) string {
	return strings.Join([]string{
		c.ID.String(),
		c.TenantID.String(),
		c.TimeRevenue.StringFixed(2),
		c.ProductRevenue.StringFixed(2),
		c.MembershipRevenue.StringFixed(2),
		c.RentalRevenue.StringFixed(2),
		c.TotalRevenue.StringFixed(2),
		c.CashRevenue.StringFixed(2),
		c.CardRevenue.StringFixed(2),
		c.CreditRevenue.StringFixed(2),
		c.TotalCost.StringFixed(2),
		c.WasteCost.StringFixed(2),
		c.MaintenanceCost.StringFixed(2),
		c.NetProfit.StringFixed(2),
		c.CashInHand.StringFixed(2),
		c.CashDifference.StringFixed(2),
		c.ClosedBy.String(),
		c.CreatedAt.UTC().Format("2006-01-02"),
	}, "|")
}

// GenerateSeal computes the tamper-evidence digest of a closure. The seal is
// appended to the audit log — never stored on the closure row itself — so an
// edit to the closure cannot retroactively fix the historical seal.
func GenerateSeal(c *model.ShiftClosure) dto.IntegritySeal {
	sum := sha256.Sum256([]byte(sealCanonicalPayload(c)))
	return dto.IntegritySeal{
		Hash:      hex.EncodeToString(sum[:]),
		Algorithm: sealAlgorithm,
		SealedAt:  time.Now().UTC().Format(time.RFC3339),
	}
}

// VerifySeal recomputes the digest from the closure's current fields and
// compares it with a previously recorded hash.
func VerifySeal(c *model.ShiftClosure, recordedHash string) bool {
	sum := sha256.Sum256([]byte(sealCanonicalPayload(c)))
	return hex.EncodeToString(sum[:]) == recordedHash
}
