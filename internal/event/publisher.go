package event

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// Publisher 事件发布接口；pkg/mq.Publisher 与 LocalPublisher 均满足
type Publisher interface {
	Publish(ctx context.Context, key string, v interface{}) error
}

// Handler 事件处理接口
type Handler interface {
	HandleEvent(ctx context.Context, key string, body []byte) error
}

// LocalPublisher 未配置消息队列时的进程内发布器，同步调用 Handler
type LocalPublisher struct {
	handler Handler
	logger  *zap.Logger
}

// NewLocalPublisher 创建进程内发布器
func NewLocalPublisher(handler Handler, logger *zap.Logger) *LocalPublisher {
	return &LocalPublisher{handler: handler, logger: logger}
}

// Publish 序列化后直接交给 Handler，与经由 RabbitMQ 时收到的消息体一致
func (p *LocalPublisher) Publish(ctx context.Context, key string, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}
	if err := p.handler.HandleEvent(ctx, key, body); err != nil {
		p.logger.Warn("进程内事件处理失败", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// NopPublisher 丢弃所有事件
type NopPublisher struct{}

// Publish 实现 Publisher
func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }
