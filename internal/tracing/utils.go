package tracing

import (
	"context"
	"encoding/json"
	"runtime/debug"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/opentracing/opentracing-go/log"

	"github.com/rasterpost/rasterpost/internal/logger"
)

const (
	SpanTagComponent = "component"
	SpanTagMessageID = "message-id"
	SpanTagSender    = "sender"
)

const (
	SpanTagComponentService = "service"
	SpanTagComponentDaemon  = "daemon"
)

func StartTracerSpan(ctx context.Context, operationName string) (opentracing.Span, context.Context) {
	serverSpan := opentracing.GlobalTracer().StartSpan(operationName)
	return serverSpan, opentracing.ContextWithSpan(ctx, serverSpan)
}

func SetDefaultServiceSpanTags(ctx context.Context, span opentracing.Span) {
	TagComponentService(span)
}

func TagComponentService(span opentracing.Span) {
	span.SetTag(SpanTagComponent, SpanTagComponentService)
}

func TagComponentDaemon(span opentracing.Span) {
	span.SetTag(SpanTagComponent, SpanTagComponentDaemon)
}

func TagMessage(span opentracing.Span, uid uint32, sender string) {
	span.SetTag(SpanTagMessageID, uid)
	span.SetTag(SpanTagSender, sender)
}

func TraceErr(span opentracing.Span, err error, fields ...log.Field) {
	if span == nil || err == nil {
		return
	}
	// Log the error with the fields
	ext.LogError(span, err, fields...)
}

func LogObjectAsJson(span opentracing.Span, name string, object any) {
	if object == nil {
		span.LogFields(log.String(name, "nil"))
	}
	jsonObject, err := json.Marshal(object)
	if err == nil {
		span.LogFields(log.String(name, string(jsonObject)))
	} else {
		span.LogFields(log.Object(name, object))
	}
}

func RecoverAndLog(appLogger logger.Logger) {
	if r := recover(); r != nil {
		span := opentracing.GlobalTracer().StartSpan("panic")
		defer span.Finish()
		span.SetTag("error", true)
		span.LogKV("event", "panic", "panic.value", r, "stack", string(debug.Stack()))
		appLogger.Errorf("Recovered from panic: %v", r)
	}
}
