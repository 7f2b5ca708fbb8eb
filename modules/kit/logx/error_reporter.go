package logx

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ReportBizWithLoggerContext 记录规则结果类的拒绝/结束（例如失败），INFO 级别，不带栈。
func ReportBizWithLoggerContext(ctx context.Context, l Logger, action string, err error, fields ...zap.Field) {
	if l == nil || err == nil {
		return
	}
	if action == "" {
		action = "biz_reject"
	}
	meta := BuildErrorLog(err)
	base := []zap.Field{
		zap.String("err_type", "biz"),
		zap.String("action", action),
	}
	if meta.Code != "" {
		base = append(base, zap.String("error_code", meta.Code))
	}
	if len(meta.Data) != 0 {
		base = append(base, zap.Any("error_data", meta.Data))
	}
	base = append(base, fields...)
	l.WithContext(ctx).Info(fmt.Sprintf("%s, error:%s", action, meta.Error), base...)
}

// ReportSysErrorWithLoggerContext 记录技术错误：ERROR、err_type=sys，可附带栈。
func ReportSysErrorWithLoggerContext(ctx context.Context, l Logger, action string, err error, fields ...zap.Field) {
	if l == nil || err == nil {
		return
	}
	if action == "" {
		action = "sys_error"
	}
	meta := BuildErrorLog(err)
	base := []zap.Field{
		zap.String("err_type", "sys"),
		zap.String("action", action),
	}
	if meta.Code != "" {
		base = append(base, zap.String("error_code", meta.Code))
	}
	if len(meta.CauseChain) != 0 {
		base = append(base, zap.Any("cause_chain", meta.CauseChain))
	}
	if len(meta.Data) != 0 {
		base = append(base, zap.Any("error_data", meta.Data))
	}
	if meta.Origin != "" {
		base = append(base, zap.String("origin_caller", meta.Origin))
	}
	if meta.Stack != "" {
		base = append(base, zap.String("stack_origin", meta.Stack))
	}
	base = append(base, fields...)

	msg := fmt.Sprintf("%s, error:%s", action, meta.Error)
	if meta.Msg != "" {
		msg = fmt.Sprintf("%s, error:%s, msg:%s", action, meta.Error, meta.Msg)
	}
	l.WithContext(ctx).Error(msg, base...)
}

// ReportAccessWithLoggerContext 记录一次请求的访问日志，code 为 0 时视为成功。
func ReportAccessWithLoggerContext(ctx context.Context, l Logger, action string, code int, fields ...zap.Field) {
	if l == nil {
		return
	}
	base := []zap.Field{
		zap.String("action", action),
		zap.Int("biz_code", code),
	}
	base = append(base, fields...)
	l.WithContext(ctx).Info("access", base...)
}
