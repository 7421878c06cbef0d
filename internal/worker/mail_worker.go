// Package worker consumes order events from RabbitMQ and sends
// confirmation email to the buyer.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/harlow/go-storefront-api/internal/mailer"
	"github.com/harlow/go-storefront-api/internal/model"
	"github.com/harlow/go-storefront-api/internal/repository"
)

const (
	orderQueueName = "orders"
	dlxExchange    = "orders.dlx"
	dlqQueueName   = "orders.dlq"
	idempotencyTTL = 24 * time.Hour
)

type MailWorker struct {
	channel     *amqp.Channel
	orderRepo   repository.OrderRepository
	mailer      mailer.Mailer
	redisClient *redis.Client
	log         *slog.Logger
	done        chan struct{}
}

func NewMailWorker(
	ch *amqp.Channel,
	orderRepo repository.OrderRepository,
	m mailer.Mailer,
	redisClient *redis.Client,
	log *slog.Logger,
) *MailWorker {
	return &MailWorker{
		channel:     ch,
		orderRepo:   orderRepo,
		mailer:      m,
		redisClient: redisClient,
		log:         log,
		done:        make(chan struct{}),
	}
}

// SetupRabbitMQ declares exchanges, queues, and bindings (DLX/DLQ).
func SetupRabbitMQ(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueueName, orderQueueName, dlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(orderQueueName, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": orderQueueName,
	}); err != nil {
		return fmt.Errorf("declare order queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	return nil
}

func (w *MailWorker) Start(ctx context.Context) error {
	msgs, err := w.channel.Consume(orderQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("mail worker started")
	return nil
}

func (w *MailWorker) Stop() { close(w.done) }

func (w *MailWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	var orderMsg model.OrderMessage
	if err := json.Unmarshal(msg.Body, &orderMsg); err != nil {
		w.log.Error("unmarshal order message", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	log := w.log.With("order_id", orderMsg.OrderID, "user_id", orderMsg.UserID)

	// Idempotency check via Redis
	idempotencyKey := "order_mailed:" + orderMsg.OrderID.String()
	exists, err := w.redisClient.Exists(ctx, idempotencyKey).Result()
	if err != nil {
		log.Error("check idempotency key", "error", err)
		_ = msg.Nack(false, true)
		return
	}
	if exists > 0 {
		log.Info("confirmation already sent, skipping")
		_ = msg.Ack(false)
		return
	}

	if err := w.sendConfirmation(ctx, orderMsg); err != nil {
		log.Error("send confirmation failed", "error", err)
		_ = msg.Nack(false, false) // to DLQ
		return
	}

	if err := w.redisClient.Set(ctx, idempotencyKey, "1", idempotencyTTL).Err(); err != nil {
		log.Error("set idempotency key", "error", err)
	}

	_ = msg.Ack(false)
	log.Info("confirmation sent")
}

func (w *MailWorker) sendConfirmation(ctx context.Context, orderMsg model.OrderMessage) error {
	order, err := w.orderRepo.GetByID(ctx, orderMsg.OrderID)
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return fmt.Errorf("order not found: %s", orderMsg.OrderID)
	}

	subject := fmt.Sprintf("Order confirmation %s", order.ID)
	body := fmt.Sprintf(
		"Thank you for your order.\n\nOrder ID: %s\nItems: %d\nTotal: %s\n\nWe will notify you when it ships.\n",
		order.ID, len(order.Items), order.TotalPrice.StringFixed(2),
	)
	if err := w.mailer.Send(ctx, orderMsg.Email, subject, body); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
