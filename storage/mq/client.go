package mq

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"RollCall/config"
)

// 拓扑常量：一个延迟交换机，两类场次消息
const (
	DelayedExchange = "rollcall.delayed"

	QueueSessionActivated = "rollcall.session.activated"
	QueueSessionSummary   = "rollcall.session.summary"

	RoutingSessionActivated = "session.activated"
	RoutingSessionSummary   = "session.summary"
)

var (
	conn   *amqp.Connection
	connMu sync.RWMutex
)

func Init() error {
	connMu.Lock()
	defer connMu.Unlock()

	url := config.Cfg.GetRabbitMQURL()
	c, err := amqp.Dial(url)
	if err != nil {
		return fmt.Errorf("failed to dial RabbitMQ: %w", err)
	}
	conn = c

	return declareTopology()
}

func Connection() *amqp.Connection {
	connMu.RLock()
	defer connMu.RUnlock()
	return conn
}

// declareTopology 声明延迟交换机和队列，需要 rabbitmq_delayed_message_exchange 插件
func declareTopology() error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open topology channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(
		DelayedExchange,
		"x-delayed-message",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		amqp.Table{"x-delayed-type": "direct"},
	); err != nil {
		return fmt.Errorf("failed to declare delayed exchange: %w", err)
	}

	bindings := map[string]string{
		QueueSessionActivated: RoutingSessionActivated,
		QueueSessionSummary:   RoutingSessionSummary,
	}
	for queue, routingKey := range bindings {
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", queue, err)
		}
		if err := ch.QueueBind(queue, routingKey, DelayedExchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %s: %w", queue, err)
		}
	}

	return nil
}

func Close(ctx context.Context) error {
	connMu.Lock()
	defer connMu.Unlock()

	if conn == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- conn.Close()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		conn = nil
		return err
	}
}
