package observability

import (
	"context"

	"github.com/zoobzio/clockz"

	"github.com/basvanbeek/ddspan/pkg/span"
)

// Tracer starts spans for a single service and hands them to a Recorder once
// finished.
type Tracer struct {
	ServiceName string
	Recorder    span.Recorder
	Clock       clockz.Clock
}

var _ Contexter = (*Tracer)(nil)

// StartSpanFromContext creates and starts a span. If ctx holds a span, the new
// span becomes its child. The returned context holds the new span.
func (t *Tracer) StartSpanFromContext(ctx context.Context, name, resource string, opts ...span.Option) (*span.Span, context.Context) {
	var sc span.SpanContext
	if parent := span.FromContext(ctx); parent != nil {
		sc = span.NewChildContext(parent.Context())
	} else {
		sc = span.NewRootContext()
	}

	if t.Recorder != nil {
		opts = append([]span.Option{span.WithRecorder(t.Recorder)}, opts...)
	}
	if t.Clock != nil {
		opts = append([]span.Option{span.WithClock(t.Clock)}, opts...)
	}

	s := span.New(name, sc, t.ServiceName, resource, opts...)
	return s, span.ContextWithSpan(ctx, s)
}

// SpanFromContext implements observability.Contexter
func (t *Tracer) SpanFromContext(ctx context.Context) *span.Span {
	return span.FromContext(ctx)
}
