package errorx

// CodeEntry 表示一个错误码 + 默认文案。
// 只在这里集中定义，业务用变量名，不直接写裸 code。
type CodeEntry struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// -------------------- 出错模块 --------------------

var (
	ServiceDefault    = CodeEntry{Code: 1, Message: "unknown"}
	ServiceTracer     = CodeEntry{Code: 10, Message: "tracer"}
	ServiceCollector  = CodeEntry{Code: 11, Message: "collector"}
	ServiceHandler    = CodeEntry{Code: 20, Message: "handler"}
	ServiceDownstream = CodeEntry{Code: 30, Message: "downstream"}
)

// -------------------- 错误类别（系统 / 业务） --------------------

var (
	ErrTypeSys = CodeEntry{Code: 4, Message: "系统错误"}
	ErrTypeBiz = CodeEntry{Code: 5, Message: "业务错误"}
)

// -------------------- 错误码 --------------------

var (
	ErrDefault = CodeEntry{Code: 1000, Message: "unknown error"}

	// 配置 / 初始化
	ErrConfig         = CodeEntry{Code: 1100, Message: "invalid config"}
	ErrTracerInit     = CodeEntry{Code: 1101, Message: "tracer init failed"}
	ErrExporterInit   = CodeEntry{Code: 1102, Message: "span exporter init failed"}
	ErrPropagator     = CodeEntry{Code: 1103, Message: "unknown propagator"}
	ErrTracerShutdown = CodeEntry{Code: 1104, Message: "tracer shutdown failed"}

	// 请求级
	ErrEventIDMissing      = CodeEntry{Code: 1200, Message: "eventID missing"}
	ErrEventIDMalformed    = CodeEntry{Code: 1201, Message: "eventID malformed"}
	ErrUnsupportedResponse = CodeEntry{Code: 1202, Message: "unsupported handler response"}

	// 下游调用
	ErrDownstream = CodeEntry{Code: 1300, Message: "downstream call failed"}
)
