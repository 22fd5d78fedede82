package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"RollCall/config"
	"RollCall/pkg/logger"
	pkgmq "RollCall/pkg/mq"
)

// 发布端共享一条 channel。channel 不是并发安全的重量级资源，但 amqp091 的
// Publish 在单 channel 上是串行安全的；断开后置空，下次发布时重建。
var (
	publisherCh *amqp.Channel
	pubMutex    sync.RWMutex
)

func getPublisherChannel() (*amqp.Channel, error) {
	pubMutex.RLock()
	if ch := publisherCh; ch != nil && !ch.IsClosed() {
		pubMutex.RUnlock()
		return ch, nil
	}
	pubMutex.RUnlock()

	pubMutex.Lock()
	defer pubMutex.Unlock()

	if publisherCh != nil && !publisherCh.IsClosed() {
		return publisherCh, nil
	}

	conn := Connection()
	if conn == nil {
		return nil, fmt.Errorf("RabbitMQ connection is nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open publish channel: %w", err)
	}
	publisherCh = ch

	go watchChannelClose(ch)

	logger.Logger.Info("Publisher channel created", zap.String("component", "rabbitmq"))
	return ch, nil
}

func watchChannelClose(ch *amqp.Channel) {
	<-ch.NotifyClose(make(chan *amqp.Error, 1))

	pubMutex.Lock()
	if publisherCh == ch {
		publisherCh = nil
	}
	pubMutex.Unlock()

	logger.Logger.Warn("Publisher channel closed, will recreate on next publish",
		zap.String("component", "rabbitmq"))
}

func publish(ctx context.Context, exchange, routingKey string, body interface{}, headers amqp.Table) error {
	ch, err := getPublisherChannel()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	return pkgmq.PublishWithTracing(ctx, ch, config.Cfg.ServiceName, exchange, routingKey,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			Headers:      headers,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
}

// PublishDelayedMessage 通过 x-delayed-message 交换机发送延迟消息，
// 追踪上下文随消息头一起注入
func PublishDelayedMessage(ctx context.Context, exchange, routingKey string, delay time.Duration, body interface{}) error {
	headers := amqp.Table{"x-delay": delay.Milliseconds()}
	if err := publish(ctx, exchange, routingKey, body, headers); err != nil {
		return fmt.Errorf("failed to publish delayed message: %w", err)
	}
	return nil
}

// PublishMessage 发送即时投递的普通消息
func PublishMessage(ctx context.Context, exchange, routingKey string, body interface{}) error {
	return publish(ctx, exchange, routingKey, body, nil)
}
