package transport

import "Pandemic/modules/kit/errx"

// BizCode 表示业务码的强类型封装，用于在日志上下文中减少误传风险。
type BizCode int

// 对外业务码。0 表示成功，1xx 为通用错误，2xx 由业务模块自己定义。
const (
	OK              = 0
	SystemError     = 100
	InvalidArgument = 101
	Timeout         = 102
	Unavailable     = 103
	Unauthorized    = 104
)

// FromError 把通用的 errx 错误码映射成业务码；业务模块先处理自己的码，剩下的交给这里。
func FromError(err error) BizCode {
	if err == nil {
		return OK
	}
	switch errx.CodeOf(err) {
	case errx.CodeInvalidArgument:
		return InvalidArgument
	case errx.CodeTimeout:
		return Timeout
	case errx.CodeUnavailable:
		return Unavailable
	}
	return SystemError
}
