package engine

import (
	"context"
	"sync"
	"time"

	"inventory-alert-service/internal/models"
)

// SweepResult counts what a full re-evaluation pass did.
type SweepResult struct {
	Subjects int
	Created  int
	Resolved int
	Failed   int
}

// Sweep re-evaluates every batch and every product as of the given instant.
// Subjects are independent units of work processed by a bounded worker pool;
// one subject failing only increments Failed and never aborts the rest.
func (e *Engine) Sweep(ctx context.Context, asOf time.Time) (SweepResult, error) {
	var res SweepResult
	var mu sync.Mutex

	batches, err := e.catalog.ListBatches(ctx)
	if err != nil {
		return res, err
	}
	products, err := e.catalog.ListProducts(ctx)
	if err != nil {
		return res, err
	}

	jobs := make(chan func(), len(batches)+len(products))
	for _, b := range batches {
		b := b
		jobs <- func() {
			out, err := e.EvaluateBatch(ctx, &b, asOf)
			mu.Lock()
			defer mu.Unlock()
			res.Subjects++
			if err != nil {
				res.Failed++
				e.logger.Errorf("Sweep: batch %s failed: %v", b.ID, err)
				return
			}
			if out.Created {
				res.Created++
			}
		}
	}
	for _, p := range products {
		p := p
		jobs <- func() {
			out, err := e.EvaluateProduct(ctx, &p)
			mu.Lock()
			defer mu.Unlock()
			res.Subjects++
			if err != nil {
				res.Failed++
				e.logger.Errorf("Sweep: product %s failed: %v", p.ID, err)
				return
			}
			if out.Created {
				res.Created++
			}
			res.Resolved += out.Resolved
		}
	}
	close(jobs)

	var wg sync.WaitGroup
	for i := 0; i < e.opts.SweepWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				job()
			}
		}()
	}
	wg.Wait()

	e.logger.Infof("Sweep done: %d subjects, %d created, %d resolved, %d failed",
		res.Subjects, res.Created, res.Resolved, res.Failed)
	return res, ctx.Err()
}

// HandleSweepTick adapts a scheduler tick to a sweep run.
func (e *Engine) HandleSweepTick(ctx context.Context, tick models.SweepTick) (SweepResult, error) {
	asOf := tick.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}
	return e.Sweep(ctx, asOf)
}
