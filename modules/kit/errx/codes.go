package errx

// 跨模块统一的系统类错误码。
// 规则域的错误码（例如 DEFEAT）由各业务包自己定义，不集中在 kit 里。

const (
	// CodeInternal 兜底的内部错误。
	CodeInternal Code = "INTERNAL_ERROR"
	// CodeUnavailable 依赖不可用（Mongo/MySQL/actor 系统）。
	CodeUnavailable Code = "SERVICE_UNAVAILABLE"
	// CodeTimeout 请求或 actor Ask 超时。
	CodeTimeout Code = "TIMEOUT"
	// CodeInvalidArgument 调用方违反前置条件（未知城市/颜色、非法数量）。
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
)

var (
	ErrInternal        = NewSys(CodeInternal, "服务器内部错误")
	ErrUnavailable     = NewSys(CodeUnavailable, "服务不可用")
	ErrTimeout         = NewSys(CodeTimeout, "请求超时")
	ErrInvalidArgument = NewSys(CodeInvalidArgument, "参数不合法")
)
