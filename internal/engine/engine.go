// Package engine is the alert lifecycle engine: it classifies subject
// snapshots, gates creation through the dedup invariant, transitions alert
// lifecycles and emits push messages. Platform handles (store, catalog,
// delivery) are injected, never ambient.
package engine

import (
	"context"
	"time"

	"inventory-alert-service/internal/clock"
	"inventory-alert-service/internal/compose"
	"inventory-alert-service/internal/logging"
	"inventory-alert-service/internal/models"
)

// AlertStore is the authoritative alert collection. CreateAlert must keep the
// open-alert existence check and the insert causally ordered per dedup key and
// return models.ErrDuplicateAlert when the tuple already has an open alert.
type AlertStore interface {
	HasOpenAlert(ctx context.Context, subjectID string, condition models.ConditionType, stage string) (bool, error)
	CreateAlert(ctx context.Context, a models.Alert) (string, error)
	ResolveOpenAlerts(ctx context.Context, subjectID string, condition models.ConditionType, reason string) (int, error)
}

// Catalog is the document-store view of the subjects under observation.
type Catalog interface {
	GetProduct(ctx context.Context, id string) (models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListBatches(ctx context.Context) ([]models.Batch, error)
}

// Pusher delivers a composed message to all subscribers of its topic.
// Delivery is best-effort; the engine never retries or rolls back on failure.
type Pusher interface {
	Push(ctx context.Context, msg models.Message) error
}

// Options tunes sweep parallelism and delivery patience.
type Options struct {
	SweepWorkers int
	SendTimeout  time.Duration
}

type Engine struct {
	store    AlertStore
	catalog  Catalog
	pusher   Pusher
	composer *compose.Composer
	clock    *clock.Normalizer
	logger   *logging.Logger
	opts     Options

	// onCreated is invoked after a successful creation (websocket feed).
	onCreated func(models.Alert)
}

func New(store AlertStore, catalog Catalog, pusher Pusher, composer *compose.Composer, norm *clock.Normalizer, logger *logging.Logger, opts Options) *Engine {
	if opts.SweepWorkers <= 0 {
		opts.SweepWorkers = 8
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 10 * time.Second
	}
	return &Engine{
		store:    store,
		catalog:  catalog,
		pusher:   pusher,
		composer: composer,
		clock:    norm,
		logger:   logger,
		opts:     opts,
	}
}

// OnCreated registers a callback fired after each successful alert creation.
func (e *Engine) OnCreated(fn func(models.Alert)) {
	e.onCreated = fn
}

// deliver pushes the composed message without blocking the pipeline. The alert
// record is already persisted; a failed push is logged and dropped.
func (e *Engine) deliver(alert models.Alert) {
	msg := e.composer.Compose(alert)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.opts.SendTimeout)
		defer cancel()
		if err := e.pusher.Push(ctx, msg); err != nil {
			e.logger.Errorf("Push failed for alert %s (topic %s): %v", alert.ID, msg.Topic, err)
			return
		}
		e.logger.Infof("Pushed alert %s to topic %s", alert.ID, msg.Topic)
	}()
}
