package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"nepeats/internal/pkg/events"
	"nepeats/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// amqpChannel *amqp091.Channel 中用到的方法
type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	IsClosed() bool
	Close() error
}

type dialFunc func(url string) (amqpChannel, io.Closer, error)

func dialAMQP(url string) (amqpChannel, io.Closer, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return ch, conn, nil
}

// Publisher 将订单事件发布到 topic 交换机，路由键为事件类型
type Publisher struct {
	url        string
	exchange   string
	dial       dialFunc
	maxRetries int

	mu   sync.Mutex
	ch   amqpChannel
	conn io.Closer
}

// NewPublisher 建立连接并声明交换机
func NewPublisher(url, exchange string) (*Publisher, error) {
	return newPublisher(url, exchange, dialAMQP, 5)
}

func newPublisher(url, exchange string, dial dialFunc, maxRetries int) (*Publisher, error) {
	p := &Publisher{
		url:        url,
		exchange:   exchange,
		dial:       dial,
		maxRetries: maxRetries,
	}
	if err := p.connect(); err != nil {
		return nil, fmt.Errorf("failed to establish initial connection: %w", err)
	}
	return p, nil
}

// connect 调用方需持有锁或处于初始化阶段
func (p *Publisher) connect() error {
	var err error
	for i := 0; i < p.maxRetries; i++ {
		var ch amqpChannel
		var conn io.Closer
		ch, conn, err = p.dial(p.url)
		if err == nil {
			err = ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil)
			if err == nil {
				p.ch, p.conn = ch, conn
				return nil
			}
			ch.Close()
			conn.Close()
		}

		if i < p.maxRetries-1 {
			wait := time.Duration(i+1) * 2 * time.Second
			logger.Log.Warn("rabbitmq connection failed, retrying", zap.Duration("wait", wait), zap.Error(err))
			time.Sleep(wait)
		}
	}
	return fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", p.maxRetries, err)
}

// Publish 持久化投递，连接断开时先重连
func (p *Publisher) Publish(ctx context.Context, e events.Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil || p.ch.IsClosed() {
		if err := p.connect(); err != nil {
			return fmt.Errorf("failed to reconnect: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err = p.ch.PublishWithContext(ctx, p.exchange, string(e.Type), false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    e.ID,
		Timestamp:    e.OccurredAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	logger.Log.Debug("event published",
		zap.String("exchange", p.exchange),
		zap.String("routing_key", string(e.Type)),
		zap.String("order_id", e.OrderID),
	)
	return nil
}

// Close 关闭通道和连接
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

var _ events.Publisher = (*Publisher)(nil)
