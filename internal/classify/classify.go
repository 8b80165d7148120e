// Package classify maps a subject's measured values to a discrete alert stage.
// Every function here is pure: same snapshot in, same stage out.
package classify

import (
	"time"

	"inventory-alert-service/internal/clock"
	"inventory-alert-service/internal/models"
)

// ExpiryStage buckets a civil day difference. Staging is exact-match: only
// 0-or-less, exactly 3 and exactly 5 days out raise a condition. Days 1, 2, 4
// and anything beyond 5 are intentionally silent.
func ExpiryStage(diffDays int) (string, bool) {
	switch {
	case diffDays <= 0:
		return models.StageExpired, true
	case diffDays == 3:
		return models.StageThreeDays, true
	case diffDays == 5:
		return models.StageFiveDays, true
	default:
		return "", false
	}
}

// Expiry classifies a batch against a reference date. A batch with no id or no
// expiry date yields no condition rather than an error; upstream data may be
// mid-creation.
func Expiry(n *clock.Normalizer, b *models.Batch, ref time.Time) (string, bool) {
	if b == nil || b.ID == "" || b.ExpiryDate.IsZero() {
		return "", false
	}
	return ExpiryStage(n.CivilDayDiff(b.ExpiryDate, ref))
}

// LowStock classifies a product's stock level. The stage is binary: at or
// below the reorder level the condition is active, above it there is none
// (which is what drives auto-resolution).
func LowStock(p *models.Product) (string, bool) {
	if p == nil || p.ID == "" {
		return "", false
	}
	if p.CurrentStock <= p.ReorderLevel {
		return models.StageActive, true
	}
	return "", false
}

// Risk classifies a derived risk record. Only High and Medium raise a
// condition; Low or absent levels are silent and there is no auto-resolution
// path for risk.
func Risk(r *models.RiskRecord) (string, bool) {
	if r == nil || r.ProductID == "" {
		return "", false
	}
	switch r.Level {
	case models.RiskHigh, models.RiskMedium:
		return r.Level, true
	default:
		return "", false
	}
}
