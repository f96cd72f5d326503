package logger

import (
	"context"

	"go.uber.org/zap"
)

type ridKey struct{}

// WithRequestID 把请求 ID 放进 ctx，供 handler 以下各层打日志
func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, ridKey{}, rid)
}

func RequestID(ctx context.Context) string {
	rid, _ := ctx.Value(ridKey{}).(string)
	return rid
}

// For ctx 带请求 ID 时返回附加 rid 字段的子 logger
func For(ctx context.Context, l *zap.Logger) *zap.Logger {
	if rid := RequestID(ctx); rid != "" {
		return l.With(zap.String("rid", rid))
	}
	return l
}
