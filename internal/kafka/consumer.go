// Package kafka adapts record-change events from the message bus into engine
// invocations. It is orchestration only: decode the snapshot, call the
// pipeline, log the outcome.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"

	kafkago "github.com/segmentio/kafka-go"

	"inventory-alert-service/internal/engine"
	"inventory-alert-service/internal/logging"
)

type Config struct {
	Broker  string
	Topic   string
	GroupID string
}

type Consumer struct {
	reader *kafkago.Reader
	engine *engine.Engine
	logger *logging.Logger
}

func NewConsumer(cfg Config, eng *engine.Engine, logger *logging.Logger) *Consumer {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  []string{cfg.Broker},
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Consumer{reader: reader, engine: eng, logger: logger}
}

// Start consumes until the context is cancelled. Malformed messages are
// logged and skipped; nothing here is fatal to the process.
func (c *Consumer) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.logger.Infof("Kafka consumer started on topic %s", c.reader.Config().Topic)
		for {
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
					c.logger.Infof("Kafka consumer stopped")
					return
				}
				c.logger.Errorf("Read message failed: %v", err)
				continue
			}
			c.handle(ctx, msg.Value)
		}
	}()
}

func (c *Consumer) handle(ctx context.Context, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.logger.Errorf("Unmarshal message failed: %v", err)
		return
	}

	switch env.Kind {
	case "batch_changed":
		out, err := c.engine.HandleBatchChanged(ctx, env.batchEvent())
		c.logOutcome("batch", env.subjectID(), out, err)
	case "product_changed":
		out, err := c.engine.HandleProductChanged(ctx, env.productEvent())
		c.logOutcome("product", env.subjectID(), out, err)
	case "risk_changed":
		out, err := c.engine.HandleRiskChanged(ctx, env.riskEvent())
		c.logOutcome("risk", env.subjectID(), out, err)
	default:
		c.logger.Warnf("Unknown event kind %q, skipping", env.Kind)
	}
}

func (c *Consumer) logOutcome(kind, subject string, out engine.Outcome, err error) {
	switch {
	case err != nil:
		c.logger.Errorf("%s event for %s failed: %v", kind, subject, err)
	case out.Created:
		c.logger.Infof("%s event for %s created alert %s", kind, subject, out.AlertID)
	case out.Suppressed:
		c.logger.Debugf("%s event for %s suppressed (open alert exists)", kind, subject)
	case out.Resolved > 0:
		c.logger.Infof("%s event for %s auto-resolved %d alert(s)", kind, subject, out.Resolved)
	default:
		c.logger.Debugf("%s event for %s: no condition", kind, subject)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
