// Package observability provides CloudWatch metrics emission and X-Ray
// tracing helpers.
package observability

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// MetricName enumerates every metric the service emits. The list is
// closed on purpose: a metric not declared here cannot be emitted, so
// the dashboard never grows unnamed series.
type MetricName string

const (
	MetricRequestCount     MetricName = "RequestCount"
	MetricRequestErrors    MetricName = "RequestErrors"
	MetricRequestLatency   MetricName = "RequestLatency"
	MetricLoginAttempts    MetricName = "LoginAttempts"
	MetricLoginFailures    MetricName = "LoginFailures"
	MetricCounterDrift     MetricName = "CounterDrift"
	MetricEventPublishFail MetricName = "EventPublishFailures"
	MetricCursorRejections MetricName = "CursorRejections"
)

// CloudWatchAPI is the slice of the CloudWatch client Metrics uses.
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// cloudwatchBatchLimit is the PutMetricData maximum datum count.
const cloudwatchBatchLimit = 20

// Metrics buffers metric datums and flushes them in batches. A nil
// *Metrics is a valid no-op emitter, so callers never guard.
type Metrics struct {
	namespace string
	client    CloudWatchAPI
	logger    *zap.Logger

	mu     sync.Mutex
	buffer []types.MetricDatum
}

// NewMetrics creates a metrics emitter publishing under the given
// namespace.
func NewMetrics(namespace string, client CloudWatchAPI, logger *zap.Logger) *Metrics {
	return &Metrics{
		namespace: namespace,
		client:    client,
		logger:    logger,
	}
}

// IncrementCount adds one to a count metric.
func (m *Metrics) IncrementCount(name MetricName, dimensions ...types.Dimension) {
	m.add(types.MetricDatum{
		MetricName: aws.String(string(name)),
		Value:      aws.Float64(1),
		Unit:       types.StandardUnitCount,
		Timestamp:  aws.Time(time.Now().UTC()),
		Dimensions: dimensions,
	})
}

// RecordDuration records a latency observation in milliseconds.
func (m *Metrics) RecordDuration(name MetricName, d time.Duration, dimensions ...types.Dimension) {
	m.add(types.MetricDatum{
		MetricName: aws.String(string(name)),
		Value:      aws.Float64(float64(d.Milliseconds())),
		Unit:       types.StandardUnitMilliseconds,
		Timestamp:  aws.Time(time.Now().UTC()),
		Dimensions: dimensions,
	})
}

// Dimension builds a CloudWatch dimension.
func Dimension(name, value string) types.Dimension {
	return types.Dimension{Name: aws.String(name), Value: aws.String(value)}
}

func (m *Metrics) add(datum types.MetricDatum) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.buffer = append(m.buffer, datum)
	full := len(m.buffer) >= cloudwatchBatchLimit
	m.mu.Unlock()
	if full {
		m.Flush(context.Background())
	}
}

// Flush publishes the buffered datums. Emission is best effort: a
// failed put is logged and the datums are dropped, never retried into
// the request path.
func (m *Metrics) Flush(ctx context.Context) {
	if m == nil || m.client == nil {
		return
	}
	m.mu.Lock()
	batch := m.buffer
	m.buffer = nil
	m.mu.Unlock()

	for len(batch) > 0 {
		n := len(batch)
		if n > cloudwatchBatchLimit {
			n = cloudwatchBatchLimit
		}
		_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(m.namespace),
			MetricData: batch[:n],
		})
		if err != nil && m.logger != nil {
			m.logger.Warn("Failed to publish metrics batch",
				zap.String("namespace", m.namespace),
				zap.Int("datums", n),
				zap.Error(err),
			)
		}
		batch = batch[n:]
	}
}
