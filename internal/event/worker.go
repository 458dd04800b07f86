package event

import (
	"context"
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Worker 从队列消费事件并分发给 Handler
type Worker struct {
	handler Handler
	logger  *zap.Logger
}

// NewWorker 创建 Worker
func NewWorker(handler Handler, logger *zap.Logger) *Worker {
	return &Worker{handler: handler, logger: logger}
}

// Run 消费直到 ctx 取消或通道关闭
func (w *Worker) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				w.logger.Info("事件通道已关闭")
				return
			}
			w.handle(ctx, d)
		}
	}
}

// handle 成功 ack；格式错误直接丢弃；其它错误重新入队一次，
// 重投后仍失败则丢弃，避免同一条消息反复占用消费者
func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	err := w.handler.HandleEvent(ctx, d.RoutingKey, d.Body)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, ErrMalformed):
		w.logger.Warn("丢弃格式错误的事件", zap.String("key", d.RoutingKey), zap.Error(err))
		_ = d.Nack(false, false)
	case d.Redelivered:
		w.logger.Error("事件重投后仍处理失败，丢弃", zap.String("key", d.RoutingKey), zap.Error(err))
		_ = d.Nack(false, false)
	default:
		w.logger.Warn("事件处理失败，重新入队", zap.String("key", d.RoutingKey), zap.Error(err))
		_ = d.Nack(false, true)
	}
}
