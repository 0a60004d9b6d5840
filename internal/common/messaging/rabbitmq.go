package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gitadityakumar/LiveNews/internal/common/config"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Handler processes one delivery. Returning an error requeues the message.
type Handler func(body []byte, routingKey string) error

// Client defines the messaging client interface
type Client interface {
	// PublishJSON publishes a JSON message to the exchange with the given routing key
	PublishJSON(exchange, routingKey string, data interface{}) error

	// DeclareQueue declares a queue with the given name
	DeclareQueue(name string) error

	// BindQueue binds a queue to an exchange with the given routing key
	BindQueue(queueName, exchange, routingKey string) error

	// Consume consumes messages from the given queue until ctx is done
	Consume(ctx context.Context, queueName string, handler Handler) error

	// Close closes the connection
	Close() error
}

// RabbitMQClient implements the Client interface using RabbitMQ
type RabbitMQClient struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	config  *config.RabbitMQConfig
	log     *logrus.Logger

	consumersMu sync.Mutex
	consumers   []consumer
}

// consumer is a Consume registration, replayed after a reconnect
type consumer struct {
	ctx     context.Context
	queue   string
	handler Handler
}

// NewRabbitMQClient creates a new RabbitMQ client
func NewRabbitMQClient(cfg *config.RabbitMQConfig, log *logrus.Logger) (*RabbitMQClient, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("rabbitmq URL is required")
	}

	if cfg.Exchange == "" {
		return nil, fmt.Errorf("rabbitmq exchange name is required")
	}

	client := &RabbitMQClient{
		config: cfg,
		log:    log,
	}

	if err := client.connect(); err != nil {
		return nil, err
	}

	return client, nil
}

// GetConfig returns the RabbitMQ configuration the client was built with
func (c *RabbitMQClient) GetConfig() *config.RabbitMQConfig {
	return c.config
}

// connect establishes a connection to RabbitMQ
func (c *RabbitMQClient) connect() error {
	conn, err := amqp.Dial(c.config.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open a channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		c.config.Exchange,        // name
		config.ExchangeTypeTopic, // type
		true,                     // durable
		false,                    // auto-deleted
		false,                    // internal
		false,                    // no-wait
		nil,                      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to declare an exchange: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.channel = ch
	c.mu.Unlock()

	go c.handleReconnect(conn)

	return nil
}

// handleReconnect attempts to reconnect to RabbitMQ when the connection is lost
func (c *RabbitMQClient) handleReconnect(conn *amqp.Connection) {
	err, ok := <-conn.NotifyClose(make(chan *amqp.Error, 1))
	if !ok {
		// Closed on purpose
		return
	}

	entry := c.log.WithField("component", "messaging")
	entry.WithError(err).Warn("RabbitMQ connection closed, attempting to reconnect")

	for i := 0; i < c.config.ReconnectRetries; i++ {
		time.Sleep(time.Duration(c.config.ReconnectTimeout) * time.Millisecond)

		if err := c.connect(); err == nil {
			entry.Info("Successfully reconnected to RabbitMQ")
			c.resumeConsumers()
			return
		}

		entry.WithFields(logrus.Fields{
			"attempt": i + 1,
			"retries": c.config.ReconnectRetries,
		}).Warn("Failed to reconnect to RabbitMQ")
	}

	entry.Error("Failed to reconnect to RabbitMQ after multiple attempts")
}

// PublishJSON publishes a JSON message to the exchange with the given routing key
func (c *RabbitMQClient) PublishJSON(exchange, routingKey string, data interface{}) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON message: %w", err)
	}

	if exchange == "" {
		exchange = c.config.Exchange
	}

	// amqp channels are not safe for concurrent publishing
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.channel.Publish(
		exchange,   // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
}

// DeclareQueue declares a durable queue with the given name
func (c *RabbitMQClient) DeclareQueue(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.channel.QueueDeclare(
		name,  // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)

	return err
}

// BindQueue binds a queue to an exchange with the given routing key
func (c *RabbitMQClient) BindQueue(queueName, exchange, routingKey string) error {
	if exchange == "" {
		exchange = c.config.Exchange
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.channel.QueueBind(
		queueName,  // queue name
		routingKey, // routing key
		exchange,   // exchange
		false,      // no-wait
		nil,        // arguments
	)
}

// Consume consumes messages from the given queue with context support.
// The consumer is registered again whenever the connection is re-established.
func (c *RabbitMQClient) Consume(ctx context.Context, queueName string, handler Handler) error {
	cons := consumer{ctx: ctx, queue: queueName, handler: handler}
	if err := c.startConsumer(cons); err != nil {
		return err
	}
	c.track(cons)
	return nil
}

// track remembers a consumer for resumeConsumers
func (c *RabbitMQClient) track(cons consumer) {
	c.consumersMu.Lock()
	defer c.consumersMu.Unlock()
	c.consumers = append(c.consumers, cons)
}

// liveConsumers forgets consumers whose context has ended and returns the rest
func (c *RabbitMQClient) liveConsumers() []consumer {
	c.consumersMu.Lock()
	defer c.consumersMu.Unlock()

	live := c.consumers[:0]
	for _, cons := range c.consumers {
		if cons.ctx.Err() == nil {
			live = append(live, cons)
		}
	}
	c.consumers = live
	return append([]consumer(nil), live...)
}

// resumeConsumers registers every live consumer on the current channel
func (c *RabbitMQClient) resumeConsumers() {
	for _, cons := range c.liveConsumers() {
		if err := c.startConsumer(cons); err != nil {
			c.log.WithFields(logrus.Fields{
				"component": "messaging",
				"queue":     cons.queue,
			}).WithError(err).Error("Failed to resume consumer after reconnect")
		}
	}
}

func (c *RabbitMQClient) startConsumer(cons consumer) error {
	ctx, queueName, handler := cons.ctx, cons.queue, cons.handler

	if err := c.DeclareQueue(queueName); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	c.mu.Lock()
	msgs, err := c.channel.Consume(
		queueName, // queue
		"",        // consumer
		false,     // auto-ack
		false,     // exclusive
		false,     // no-local
		false,     // no-wait
		nil,       // args
	)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	entry := c.log.WithFields(logrus.Fields{
		"component": "messaging",
		"queue":     queueName,
	})

	go func() {
		for {
			select {
			case <-ctx.Done():
				entry.Info("Consumer stopped due to context cancellation")
				return
			case msg, ok := <-msgs:
				if !ok {
					entry.Info("Consumer channel closed")
					return
				}

				if err := handler(msg.Body, msg.RoutingKey); err != nil {
					entry.WithError(err).Error("Error processing message")
					// Negative acknowledgement, message will be requeued
					msg.Nack(false, true)
				} else {
					msg.Ack(false)
				}
			}
		}
	}()

	return nil
}

// Close closes the connection and channel
func (c *RabbitMQClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel != nil {
		c.channel.Close()
	}

	if c.conn != nil {
		return c.conn.Close()
	}

	return nil
}
