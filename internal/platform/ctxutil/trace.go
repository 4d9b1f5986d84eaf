package ctxutil

import (
	"context"
	"time"
)

type requestMetaKey struct{}

// RequestMeta correlates one inbound request across logs, spans and the
// workflow calls it triggers.
type RequestMeta struct {
	TraceID   string
	RequestID string
	Received  time.Time
}

func WithRequestMeta(ctx context.Context, m RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, m)
}

func RequestMetaFrom(ctx context.Context) (RequestMeta, bool) {
	if ctx == nil {
		return RequestMeta{}, false
	}
	m, ok := ctx.Value(requestMetaKey{}).(RequestMeta)
	return m, ok
}

// LogFields returns the request and actor identifiers carried by ctx as
// logger key/value pairs.
func LogFields(ctx context.Context) []interface{} {
	var kv []interface{}
	if m, ok := RequestMetaFrom(ctx); ok {
		if m.RequestID != "" {
			kv = append(kv, "request_id", m.RequestID)
		}
		if m.TraceID != "" {
			kv = append(kv, "trace_id", m.TraceID)
		}
	}
	a := GetAttribution(ctx)
	return append(kv, "client", a.Client, "ad_user", a.User)
}
