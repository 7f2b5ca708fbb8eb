package tracex

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type traceIDKey struct{}
type gameIDKey struct{}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

func TraceIDFrom(ctx context.Context) (string, bool) {
	return stringFrom(ctx, traceIDKey{})
}

// WithGameID 把当前处理的对局 id 放进 ctx，日志会自动带上 game_id。
func WithGameID(ctx context.Context, gameID string) context.Context {
	return context.WithValue(ctx, gameIDKey{}, gameID)
}

func GameIDFrom(ctx context.Context) (string, bool) {
	return stringFrom(ctx, gameIDKey{})
}

// NewTraceID 生成 32 位 hex 的 trace_id（去掉连字符的随机 UUID）。
func NewTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func stringFrom(ctx context.Context, key any) (string, bool) {
	if ctx == nil {
		return "", false
	}
	s, ok := ctx.Value(key).(string)
	return s, ok && s != ""
}
