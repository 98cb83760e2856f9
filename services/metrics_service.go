// Package services: services/metrics_service.go
package services

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-sdk-go/service/cloudwatch/cloudwatchiface"
	"github.com/aws/aws-xray-sdk-go/xray"

	"eventlink/logger"
)

// MetricsPublisher records usage counters. Publishing failures are logged,
// never returned: metrics must not fail an RSVP.
type MetricsPublisher interface {
	RSVPChanged(ctx context.Context, school string, attendees int)
	EventChanged(ctx context.Context, action, school string)
}

// NoopMetrics discards everything; used when METRICS_ENABLED is off.
type NoopMetrics struct{}

func (NoopMetrics) RSVPChanged(context.Context, string, int)     {}
func (NoopMetrics) EventChanged(context.Context, string, string) {}

// CloudWatchMetrics publishes to CloudWatch under one namespace.
type CloudWatchMetrics struct {
	client    cloudwatchiface.CloudWatchAPI
	namespace string
	now       func() time.Time
}

// NewCloudWatchMetrics builds a publisher from the default AWS credential
// chain. With tracing, calls are recorded as X-Ray subsegments.
func NewCloudWatchMetrics(namespace string, tracing bool) (*CloudWatchMetrics, error) {
	sess, err := session.NewSession()
	if err != nil {
		return nil, err
	}
	client := cloudwatch.New(sess)
	if tracing {
		xray.AWS(client.Client)
	}
	return NewCloudWatchMetricsWithClient(client, namespace), nil
}

// NewCloudWatchMetricsWithClient wraps an existing client.
func NewCloudWatchMetricsWithClient(client cloudwatchiface.CloudWatchAPI, namespace string) *CloudWatchMetrics {
	return &CloudWatchMetrics{client: client, namespace: namespace, now: time.Now}
}

// RSVPChanged publishes the event's attendee count after an RSVP or un-RSVP.
func (m *CloudWatchMetrics) RSVPChanged(ctx context.Context, school string, attendees int) {
	m.put(ctx, "RSVPChanges", 1, cloudwatch.StandardUnitCount, school)
	m.put(ctx, "EventAttendees", float64(attendees), cloudwatch.StandardUnitCount, school)
}

// EventChanged counts creates, updates and deletes, e.g. "EventsCreated".
func (m *CloudWatchMetrics) EventChanged(ctx context.Context, action, school string) {
	m.put(ctx, "Events"+action, 1, cloudwatch.StandardUnitCount, school)
}

// -----------------------------------------------------------
// internal helper to package up CloudWatch calls
// -----------------------------------------------------------
func (m *CloudWatchMetrics) put(ctx context.Context, metricName string, value float64, unit, school string) {
	if school == "" {
		school = "unknown"
	}
	_, err := m.client.PutMetricDataWithContext(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []*cloudwatch.MetricDatum{
			{
				MetricName: aws.String(metricName),
				Dimensions: []*cloudwatch.Dimension{
					{
						Name:  aws.String("School"),
						Value: aws.String(school),
					},
				},
				Timestamp: aws.Time(m.now()),
				Value:     aws.Float64(value),
				Unit:      aws.String(unit),
			},
		},
	})
	if err != nil {
		logger.Error.Printf("[put] CloudWatch metric failed (%s): %v", metricName, err)
	}
}
