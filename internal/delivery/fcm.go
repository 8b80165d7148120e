// Package delivery implements the outbound push channel. Senders are
// best-effort: the engine treats every failure here as log-and-drop.
package delivery

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"inventory-alert-service/internal/logging"
	"inventory-alert-service/internal/models"
	"inventory-alert-service/internal/utils"
	"inventory-alert-service/pkg/fcm"
)

// FCMPusher sends topic-addressed push messages through FCM, rate limited and
// with a bounded retry.
type FCMPusher struct {
	client  *fcm.Client
	limiter *rate.Limiter
	logger  *logging.Logger
}

func NewFCMPusher(endpoint, serverKey string, ratePerSecond int, logger *logging.Logger) *FCMPusher {
	if ratePerSecond <= 0 {
		ratePerSecond = 20
	}
	return &FCMPusher{
		client:  fcm.New(endpoint, serverKey),
		limiter: rate.NewLimiter(rate.Limit(float64(ratePerSecond)), ratePerSecond),
		logger:  logger,
	}
}

func (p *FCMPusher) Push(ctx context.Context, msg models.Message) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("push rate limit: %w", err)
	}
	return utils.Retry(p.logger, 3, time.Second, func() error {
		return p.client.SendToTopic(ctx, msg.Topic, msg.Title, msg.Body, msg.Data)
	})
}
