package bus

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Handler processes one raw delivery body and returns the ack decision.
// It must not panic; a panicking handler would poison the whole consumer loop.
type Handler func(ctx context.Context, body []byte) Action

// Consumer maintains a subscription on the notification queue, dispatching
// each delivery to the handler and translating its Action into the broker
// acknowledgement. Connection loss triggers reconnect attempts every
// reconnectInterval until ctx is cancelled.
type Consumer struct {
	url               string
	reconnectInterval time.Duration
	handler           Handler
	logger            *zap.Logger
}

func NewConsumer(url string, reconnectInterval time.Duration, handler Handler, logger *zap.Logger) *Consumer {
	return &Consumer{
		url:               url,
		reconnectInterval: reconnectInterval,
		handler:           handler,
		logger:            logger,
	}
}

// Run blocks until ctx is cancelled, reconnecting on any broker failure.
func (c *Consumer) Run(ctx context.Context) {
	for {
		err := c.consume(ctx)
		if ctx.Err() != nil {
			c.logger.Info("bus consumer stopping")
			return
		}
		c.logger.Warn("bus connection lost, reconnecting",
			zap.Error(err), zap.Duration("retry_in", c.reconnectInterval))

		select {
		case <-ctx.Done():
			c.logger.Info("bus consumer stopping")
			return
		case <-time.After(c.reconnectInterval):
		}
	}
}

// consume holds one connection for its whole lifetime: dial, declare
// topology, then dispatch deliveries until the connection dies or ctx ends.
func (c *Consumer) consume(ctx context.Context) error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := declareTopology(ch); err != nil {
		return err
	}

	// One unacked message at a time preserves per-queue delivery order
	// within this consumer.
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consume: %w", err)
	}

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	c.logger.Info("bus consumer ready",
		zap.String("exchange", Exchange), zap.String("queue", Queue))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case amqpErr := <-closed:
			return fmt.Errorf("connection closed: %v", amqpErr)
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			c.dispatch(ctx, d)
		}
	}
}

// dispatch runs the handler and applies its verdict to the delivery.
// Acknowledgement errors only mean the connection is already gone; the
// consume loop will notice via NotifyClose, so they are logged and dropped.
func (c *Consumer) dispatch(ctx context.Context, d amqp.Delivery) {
	var err error
	switch c.handler(ctx, d.Body) {
	case Reject:
		err = d.Reject(false)
	case Requeue:
		err = d.Nack(false, true)
	default:
		err = d.Ack(false)
	}
	if err != nil {
		c.logger.Warn("acknowledge failed", zap.Error(err))
	}
}

func declareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(Queue, RoutingKeyBookCreated, Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}
