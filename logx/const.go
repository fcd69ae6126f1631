package logx

const (
	TagUndef           = "undef"
	TagRequestIn       = "request_in"
	TagRequestOut      = "request_out"
	TagHttpSuccess     = "http_success"
	TagHttpFailure     = "http_failure"
	TagTracerInit      = "tracer_init"
	TagSpanFinish      = "span_finish"
	TagEventIDFallback = "event_id_fallback"
	TagHandlerFailure  = "handler_failure"

	Cost = "cost"
	Msg  = "msg"
	Err  = "err"

	Remote   = "remote"
	Method   = "method"
	URL      = "url"
	Path     = "path"
	Query    = "query"
	Status   = "status"
	Body     = "body"
	Response = "response"

	Service      = "service"
	SpanName     = "span_name"
	TraceID      = "trace_id"
	SpanID       = "span_id"
	ParentSpanID = "parent_span_id"
	EventID      = "event_id"

	Attempts    = "attempts"
	MaxAttempts = "max_attempts"
)
