package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inventory-alert-service/internal/classify"
	"inventory-alert-service/internal/models"
)

// placeholderName substitutes for a product that cannot be looked up. A miss
// on the secondary lookup never blocks alert creation.
const placeholderName = "Unknown product"

// Outcome summarizes what one subject's pipeline pass did.
type Outcome struct {
	Created    bool
	AlertID    string
	Suppressed bool
	Resolved   int
}

// strategy carries the per-condition behavior so the three pipelines share one
// body instead of diverging copies.
type strategy struct {
	condition   models.ConditionType
	classify    func() (string, bool)
	build       func(stage string) models.Alert
	autoResolve bool
}

// run executes one subject's pipeline: classify, then either auto-resolve (no
// condition) or pass the dedup gate and create-and-notify. Strictly sequential
// within the subject.
func (e *Engine) run(ctx context.Context, subjectID string, st strategy) (Outcome, error) {
	stage, ok := st.classify()
	if !ok {
		if !st.autoResolve {
			return Outcome{}, nil
		}
		n, err := e.store.ResolveOpenAlerts(ctx, subjectID, st.condition, models.ReasonStockRestored)
		if err != nil {
			return Outcome{}, fmt.Errorf("auto-resolve %s/%s: %w", subjectID, st.condition, err)
		}
		if n > 0 {
			e.logger.Infof("Auto-resolved %d %s alert(s) for subject %s", n, st.condition, subjectID)
		}
		return Outcome{Resolved: n}, nil
	}

	// Cheap pre-check; CreateAlert re-checks under the dedup lock.
	open, err := e.store.HasOpenAlert(ctx, subjectID, st.condition, stage)
	if err != nil {
		return Outcome{}, fmt.Errorf("dedup check %s/%s/%s: %w", subjectID, st.condition, stage, err)
	}
	if open {
		return Outcome{Suppressed: true}, nil
	}

	alert := st.build(stage)
	alert.SubjectID = subjectID
	alert.ConditionType = st.condition
	alert.Stage = stage
	alert.IsNotified = true
	alert.NotifiedAt = time.Now()

	id, err := e.store.CreateAlert(ctx, alert)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateAlert) {
			return Outcome{Suppressed: true}, nil
		}
		return Outcome{}, fmt.Errorf("create alert %s/%s/%s: %w", subjectID, st.condition, stage, err)
	}
	alert.ID = id

	e.logger.Infof("Created %s alert %s for subject %s (stage %s)", st.condition, id, subjectID, stage)
	if e.onCreated != nil {
		e.onCreated(alert)
	}
	e.deliver(alert)
	return Outcome{Created: true, AlertID: id}, nil
}

// productSnapshot fetches display fields for the alert record, substituting a
// placeholder when the product is gone.
func (e *Engine) productSnapshot(ctx context.Context, productID string) models.Product {
	p, err := e.catalog.GetProduct(ctx, productID)
	if err != nil {
		e.logger.Warnf("Product %s lookup failed, using placeholder: %v", productID, err)
		return models.Product{ID: productID, Name: placeholderName}
	}
	return p
}

// EvaluateBatch runs the expiry pipeline for one batch snapshot.
func (e *Engine) EvaluateBatch(ctx context.Context, b *models.Batch, ref time.Time) (Outcome, error) {
	if b == nil || b.ID == "" {
		return Outcome{}, nil
	}
	return e.run(ctx, b.ID, strategy{
		condition: models.ConditionExpiry,
		classify:  func() (string, bool) { return classify.Expiry(e.clock, b, ref) },
		build: func(stage string) models.Alert {
			p := e.productSnapshot(ctx, b.ProductID)
			return models.Alert{
				ProductID:   b.ProductID,
				ProductName: p.Name,
				Category:    p.Category,
				SubCategory: p.SubCategory,
				BatchNumber: b.BatchNumber,
			}
		},
	})
}

// EvaluateProduct runs the low-stock pipeline for one product snapshot. When
// the stock is back above the reorder level every open low-stock alert for the
// product is auto-resolved.
func (e *Engine) EvaluateProduct(ctx context.Context, p *models.Product) (Outcome, error) {
	if p == nil || p.ID == "" {
		return Outcome{}, nil
	}
	return e.run(ctx, p.ID, strategy{
		condition:   models.ConditionLowStock,
		autoResolve: true,
		classify:    func() (string, bool) { return classify.LowStock(p) },
		build: func(stage string) models.Alert {
			return models.Alert{
				ProductID:    p.ID,
				ProductName:  p.Name,
				Category:     p.Category,
				SubCategory:  p.SubCategory,
				CurrentStock: p.CurrentStock,
				ReorderLevel: p.ReorderLevel,
			}
		},
	})
}

// EvaluateRisk runs the risk pipeline for one derived risk record. Risk has no
// auto-resolution path: a level falling out of range simply stops raising.
func (e *Engine) EvaluateRisk(ctx context.Context, r *models.RiskRecord) (Outcome, error) {
	if r == nil || r.ProductID == "" {
		return Outcome{}, nil
	}
	return e.run(ctx, r.ProductID, strategy{
		condition: models.ConditionRisk,
		classify:  func() (string, bool) { return classify.Risk(r) },
		build: func(stage string) models.Alert {
			p := e.productSnapshot(ctx, r.ProductID)
			return models.Alert{
				ProductID:   r.ProductID,
				ProductName: p.Name,
				Category:    p.Category,
				SubCategory: p.SubCategory,
				RiskScore:   r.Score,
			}
		},
	})
}

// HandleBatchChanged is the single-record change trigger for batches. A
// deletion (nil After) is a no-op.
func (e *Engine) HandleBatchChanged(ctx context.Context, ev models.BatchChanged) (Outcome, error) {
	if ev.After == nil {
		return Outcome{}, nil
	}
	return e.EvaluateBatch(ctx, ev.After, time.Now())
}

// HandleProductChanged is the single-record change trigger for products.
func (e *Engine) HandleProductChanged(ctx context.Context, ev models.ProductChanged) (Outcome, error) {
	if ev.After == nil {
		return Outcome{}, nil
	}
	return e.EvaluateProduct(ctx, ev.After)
}

// HandleRiskChanged is the derived-metric trigger. Only the risk pipeline
// runs; expiry and low-stock are untouched.
func (e *Engine) HandleRiskChanged(ctx context.Context, ev models.RiskChanged) (Outcome, error) {
	if ev.After == nil {
		return Outcome{}, nil
	}
	return e.EvaluateRisk(ctx, ev.After)
}
