package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"AttendTrack/pkg/logger"
	pkgmq "AttendTrack/pkg/mq"
)

// Client 封装 RabbitMQ 连接，发布通道懒加载并在关闭后重建
type Client struct {
	conn        *amqp.Connection
	serviceName string

	mu          sync.RWMutex
	publisherCh *amqp.Channel
}

// Dial 建立连接
func Dial(url, serviceName string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	return &Client{conn: conn, serviceName: serviceName}, nil
}

// Binding 描述一个持久化队列及其绑定
type Binding struct {
	Exchange   string
	Queue      string
	RoutingKey string
}

// DeclareTopology 声明 topic 交换机、队列并绑定
func (c *Client) DeclareTopology(bindings ...Binding) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	for _, b := range bindings {
		if err := ch.ExchangeDeclare(b.Exchange, "topic", true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", b.Exchange, err)
		}
		if _, err := ch.QueueDeclare(b.Queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", b.Queue, err)
		}
		if err := ch.QueueBind(b.Queue, b.RoutingKey, b.Exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", b.Queue, err)
		}
	}
	return nil
}

func (c *Client) publisherChannel() (*amqp.Channel, error) {
	c.mu.RLock()
	if c.publisherCh != nil && !c.publisherCh.IsClosed() {
		ch := c.publisherCh
		c.mu.RUnlock()
		return ch, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.publisherCh != nil && !c.publisherCh.IsClosed() {
		return c.publisherCh, nil
	}

	ch, err := c.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open publish channel: %w", err)
	}
	c.publisherCh = ch

	closed := ch.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		<-closed
		c.mu.Lock()
		if c.publisherCh == ch {
			c.publisherCh = nil
		}
		c.mu.Unlock()
		logger.Logger.Warn("Publisher channel closed, will recreate on next publish",
			zap.String("component", "rabbitmq"),
		)
	}()

	return ch, nil
}

// Publish 以 JSON 发布持久化消息，追踪上下文写入消息头
func (c *Client) Publish(ctx context.Context, exchange, routingKey, messageID string, body interface{}) error {
	ch, err := c.publisherChannel()
	if err != nil {
		return err
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = ch.PublishWithContext(ctx,
		exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    messageID,
			Body:         bodyBytes,
			Headers:      pkgmq.InjectHeaders(ctx, nil),
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// MessageHandler 处理单条消息，返回错误时消息会被拒绝
type MessageHandler func(ctx context.Context, body []byte) error

type ConsumeOptions struct {
	Queue         string
	ConsumerTag   string
	PrefetchCount int
	Handler       MessageHandler
	// OnDiscard 重投后仍失败、消息被丢弃时调用，可为空
	OnDiscard func(ctx context.Context, body []byte)
}

// Consume 阻塞消费直到 ctx 结束或通道关闭
// 处理失败的消息首次重新入队，重投后仍失败则丢弃并回调 OnDiscard
func (c *Client) Consume(ctx context.Context, opts ConsumeOptions) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if opts.PrefetchCount > 0 {
		if err := ch.Qos(opts.PrefetchCount, 0, false); err != nil {
			return fmt.Errorf("failed to set QoS: %w", err)
		}
	}

	msgs, err := ch.Consume(
		opts.Queue,
		opts.ConsumerTag,
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

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed for queue %s", opts.Queue)
			}
			c.handle(ctx, opts, msg)
		}
	}
}

func (c *Client) handle(ctx context.Context, opts ConsumeOptions, msg amqp.Delivery) {
	msgCtx, span := pkgmq.StartConsumeSpan(ctx, c.serviceName, opts.Queue, msg)
	defer span.End()

	if err := opts.Handler(msgCtx, msg.Body); err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		logger.Logger.Error("Failed to process message",
			zap.String("queue", opts.Queue),
			zap.String("message_id", msg.MessageId),
			zap.Bool("redelivered", msg.Redelivered),
			zap.Error(err),
		)
		requeue := !msg.Redelivered
		if nerr := msg.Nack(false, requeue); nerr != nil {
			logger.Logger.Error("Failed to nack message",
				zap.String("queue", opts.Queue),
				zap.String("message_id", msg.MessageId),
				zap.Error(nerr),
			)
		}
		if !requeue && opts.OnDiscard != nil {
			logger.Logger.Warn("Discarding message after redelivery failure",
				zap.String("queue", opts.Queue),
				zap.String("message_id", msg.MessageId),
			)
			opts.OnDiscard(msgCtx, msg.Body)
		}
		return
	}

	span.SetStatus(codes.Ok, "")
	if err := msg.Ack(false); err != nil {
		logger.Logger.Error("Failed to ack message",
			zap.String("queue", opts.Queue),
			zap.String("message_id", msg.MessageId),
			zap.Error(err),
		)
	}
}

// Close 关闭发布通道与连接
func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.conn == nil {
		return nil
	}

	c.mu.Lock()
	if c.publisherCh != nil {
		_ = c.publisherCh.Close()
		c.publisherCh = nil
	}
	c.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- c.conn.Close()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}
