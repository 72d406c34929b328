package observability

import (
	"context"
	"fmt"

	"github.com/aws/aws-xray-sdk-go/xray"
)

// Tracer provides X-Ray tracing. A disabled tracer runs functions untraced.
type Tracer struct {
	serviceName string
	enabled     bool
}

// NewTracer creates a new tracer instance
func NewTracer(serviceName string, enabled bool) *Tracer {
	return &Tracer{
		serviceName: serviceName,
		enabled:     enabled,
	}
}

// StartSegment starts a new trace segment
func (t *Tracer) StartSegment(ctx context.Context, name string) (context.Context, *xray.Segment) {
	if !t.Enabled() {
		return ctx, nil
	}
	return xray.BeginSegment(ctx, fmt.Sprintf("%s.%s", t.serviceName, name))
}

// StartSubsegment starts a new subsegment within an existing segment
func (t *Tracer) StartSubsegment(ctx context.Context, name string) (context.Context, *xray.Segment) {
	if !t.Enabled() || xray.GetSegment(ctx) == nil {
		return ctx, nil
	}
	return xray.BeginSubsegment(ctx, name)
}

// TraceFunction wraps a function with tracing
func (t *Tracer) TraceFunction(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, seg := t.StartSubsegment(ctx, name)
	err := fn(ctx)
	if seg != nil {
		seg.Close(err)
	}
	return err
}

// AddAnnotation adds an indexed annotation to the current segment
func (t *Tracer) AddAnnotation(ctx context.Context, key string, value string) {
	if !t.Enabled() {
		return
	}
	if seg := xray.GetSegment(ctx); seg != nil {
		_ = seg.AddAnnotation(key, value)
	}
}

// RecordError records an error in the current segment
func (t *Tracer) RecordError(ctx context.Context, err error) {
	if !t.Enabled() || err == nil {
		return
	}
	if seg := xray.GetSegment(ctx); seg != nil {
		_ = seg.AddError(err)
	}
}

// Enabled reports whether spans are recorded.
func (t *Tracer) Enabled() bool {
	return t != nil && t.enabled
}
