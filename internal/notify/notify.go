package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Action 通知上的可取消操作（例如错误提示上的 "Undo"）
type Action struct {
	Label string
	// Delay is how long until the action's effect (the redirect) happens.
	Delay time.Duration
	// Cancel reports whether it stopped the pending effect.
	Cancel func() bool
}

// Notifier 通知协作方（toast 触发契约）
type Notifier interface {
	Success(ctx context.Context, message string)
	Error(ctx context.Context, message string, action *Action)
}

// Nop 丢弃所有通知
type Nop struct{}

func (Nop) Success(context.Context, string)         {}
func (Nop) Error(context.Context, string, *Action) {}

// LogNotifier writes notifications to a zap logger.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Success(ctx context.Context, message string) {
	n.logger.Info("Contact form notification", zap.String("level", "success"), zap.String("message", message))
}

func (n *LogNotifier) Error(ctx context.Context, message string, action *Action) {
	fields := []zap.Field{zap.String("level", "error"), zap.String("message", message)}
	if action != nil {
		fields = append(fields, zap.String("action", action.Label), zap.Duration("redirect_in", action.Delay))
	}
	n.logger.Warn("Contact form notification", fields...)
}

// Multi 将通知分发到多个 Notifier
type Multi []Notifier

func (m Multi) Success(ctx context.Context, message string) {
	for _, n := range m {
		n.Success(ctx, message)
	}
}

func (m Multi) Error(ctx context.Context, message string, action *Action) {
	for _, n := range m {
		n.Error(ctx, message, action)
	}
}
