package observability

import (
	"context"

	"github.com/aws/aws-xray-sdk-go/xray"
)

// Tracer wraps X-Ray segment plumbing. A nil *Tracer is a valid no-op,
// mirroring the metrics emitter, so callers never guard.
type Tracer struct {
	serviceName string
}

// NewTracer creates a new tracer instance
func NewTracer(serviceName string) *Tracer {
	return &Tracer{serviceName: serviceName}
}

// StartSubsegment starts a subsegment under the active segment,
// namespaced by the service name.
func (t *Tracer) StartSubsegment(ctx context.Context, name string) (context.Context, *xray.Segment) {
	if t == nil {
		return ctx, nil
	}
	return xray.BeginSubsegment(ctx, t.serviceName+"."+name)
}

// TraceFunction runs fn inside a subsegment named after the operation,
// recording its error if it fails. Outside an active trace the function
// still runs; only the subsegment is skipped.
func (t *Tracer) TraceFunction(ctx context.Context, name string, fn func(context.Context) error) error {
	if t == nil {
		return fn(ctx)
	}
	ctx, seg := t.StartSubsegment(ctx, name)
	err := fn(ctx)
	if err != nil {
		t.RecordError(ctx, err)
	}
	if seg != nil {
		seg.Close(nil)
	}
	return err
}

// AnnotateIdentity stamps the resolved caller onto the current segment
// so traces can be filtered by user.
func (t *Tracer) AnnotateIdentity(ctx context.Context, userID string) {
	if userID != "" {
		t.AddAnnotation(ctx, "userID", userID)
	}
}

// AddAnnotation adds an indexed annotation to the current segment.
func (t *Tracer) AddAnnotation(ctx context.Context, key, value string) {
	if seg := xray.GetSegment(ctx); seg != nil {
		seg.AddAnnotation(key, value)
	}
}

// RecordError records an error on the current segment.
func (t *Tracer) RecordError(ctx context.Context, err error) {
	if seg := xray.GetSegment(ctx); seg != nil {
		seg.AddError(err)
	}
}
