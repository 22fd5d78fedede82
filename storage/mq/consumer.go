package mq

import (
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"RollCall/config"
	pkgerrors "RollCall/pkg/errors"
	"RollCall/pkg/logger"
	pkgmq "RollCall/pkg/mq"
)

type MessageHandler func([]byte) error

type ConsumeOptions struct {
	Queue         string
	ConsumerTag   string
	PrefetchCount int
	Handler       MessageHandler
}

// Consume 在独立 channel 上消费一个队列，手动 ack。函数阻塞直到
// channel 关闭，worker 入口为每个队列起一个 goroutine 调它。
func Consume(opts ConsumeOptions) error {
	conn := Connection()
	if conn == nil {
		return fmt.Errorf("RabbitMQ connection is nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if opts.PrefetchCount > 0 {
		if err := ch.Qos(opts.PrefetchCount, 0, false); err != nil {
			return fmt.Errorf("failed to set QoS: %w", err)
		}
	}

	deliveries, err := pkgmq.ConsumeWithTracing(ch, config.Cfg.ServiceName,
		opts.Queue, opts.ConsumerTag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	logger.Logger.Info("Started consuming messages",
		zap.String("queue", opts.Queue),
		zap.String("consumer_tag", opts.ConsumerTag),
		zap.Int("prefetch_count", opts.PrefetchCount),
	)

	for msg := range deliveries {
		handleDelivery(opts, msg)
	}
	return nil
}

func handleDelivery(opts ConsumeOptions, msg amqp.Delivery) {
	err := opts.Handler(msg.Body)
	if err == nil {
		msg.Ack(false)
		return
	}

	// 去重命中或业务上可丢弃的消息直接确认，不再回投
	var skip *pkgerrors.SkipMessageError
	if errors.As(err, &skip) {
		logger.Logger.Info("Skipping message",
			zap.String("queue", opts.Queue),
			zap.String("reason", skip.Reason),
		)
		msg.Ack(false)
		return
	}

	logger.Logger.Error("Failed to process message",
		zap.String("queue", opts.Queue),
		zap.String("consumer_tag", opts.ConsumerTag),
		zap.Error(err),
	)
	msg.Nack(false, true) // requeue
}
