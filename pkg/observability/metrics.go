package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// CloudWatchAPI is the subset of the CloudWatch client used for metrics.
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Metrics handles application metrics. A nil *Metrics or one without a
// client records nothing.
type Metrics struct {
	namespace string
	client    CloudWatchAPI
	logger    *zap.Logger
}

// NewMetrics creates a new metrics instance
func NewMetrics(namespace string, client CloudWatchAPI, logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Metrics{
		namespace: namespace,
		client:    client,
		logger:    logger,
	}
}

// RecordCommandExecution records metrics for command execution
func (m *Metrics) RecordCommandExecution(ctx context.Context, commandName string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	dims := map[string]string{"CommandName": commandName, "Status": status}
	m.put(ctx,
		datum("CommandExecution", float64(duration.Milliseconds()), types.StandardUnitMilliseconds, dims),
		datum("CommandCount", 1, types.StandardUnitCount, dims),
	)
}

// RecordLatency records latency for any operation
func (m *Metrics) RecordLatency(ctx context.Context, operation string, latency time.Duration) {
	m.put(ctx, datum("OperationLatency", float64(latency.Milliseconds()), types.StandardUnitMilliseconds,
		map[string]string{"Operation": operation}))
}

// RecordError records error occurrences
func (m *Metrics) RecordError(ctx context.Context, errorType string, errorCode string) {
	m.put(ctx, datum("Errors", 1, types.StandardUnitCount,
		map[string]string{"ErrorType": errorType, "ErrorCode": errorCode}))
}

// RecordDispatch records the outcome of a best-effort event dispatch.
func (m *Metrics) RecordDispatch(ctx context.Context, published, deferred int) {
	m.put(ctx,
		datum("DispatchPublished", float64(published), types.StandardUnitCount, nil),
		datum("DispatchDeferred", float64(deferred), types.StandardUnitCount, nil),
	)
}

// RecordOutboxBatch records one outbox drain.
func (m *Metrics) RecordOutboxBatch(ctx context.Context, published, retried, failed int) {
	m.put(ctx,
		datum("OutboxPublished", float64(published), types.StandardUnitCount, nil),
		datum("OutboxRetried", float64(retried), types.StandardUnitCount, nil),
		datum("OutboxFailed", float64(failed), types.StandardUnitCount, nil),
	)
}

// RecordBroadcast records delivery results of a realtime fan-out.
func (m *Metrics) RecordBroadcast(ctx context.Context, action string, delivered, failed, stale int) {
	dims := map[string]string{"Action": action}
	m.put(ctx,
		datum("BroadcastDelivered", float64(delivered), types.StandardUnitCount, dims),
		datum("BroadcastFailed", float64(failed), types.StandardUnitCount, dims),
		datum("BroadcastStale", float64(stale), types.StandardUnitCount, dims),
	)
}

// RecordBusinessMetric records custom business metrics
func (m *Metrics) RecordBusinessMetric(ctx context.Context, metricName string, value float64, unit types.StandardUnit, dimensions map[string]string) {
	m.put(ctx, datum(metricName, value, unit, dimensions))
}

func (m *Metrics) put(ctx context.Context, data ...types.MetricDatum) {
	if m == nil || m.client == nil {
		return
	}

	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	}
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Warn("Failed to send metrics", zap.Error(err), zap.String("namespace", m.namespace))
	}
}

func datum(name string, value float64, unit types.StandardUnit, dimensions map[string]string) types.MetricDatum {
	var cwDimensions []types.Dimension
	for k, v := range dimensions {
		cwDimensions = append(cwDimensions, types.Dimension{
			Name:  aws.String(k),
			Value: aws.String(v),
		})
	}
	return types.MetricDatum{
		MetricName: aws.String(name),
		Dimensions: cwDimensions,
		Value:      aws.Float64(value),
		Unit:       unit,
		Timestamp:  aws.Time(time.Now()),
	}
}
