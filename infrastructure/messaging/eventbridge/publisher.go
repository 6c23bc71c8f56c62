// Package eventbridge emits entity change notifications onto the event
// bus consumed by the revalidation notifier. Publishing is fire-and-forget
// from the caller's point of view: a lost notification means a stale page
// until the next change, never a wrong write.
package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"lumina-backend/domain/events"
	"lumina-backend/pkg/observability"
)

// Client is the slice of the EventBridge API the publisher uses.
type Client interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// Publisher sends EntityChanged signals to an EventBridge bus.
type Publisher struct {
	client       Client
	eventBusName string
	metrics      *observability.Metrics
	logger       *zap.Logger
}

// NewPublisher creates a new EventBridge publisher
func NewPublisher(client Client, eventBusName string, metrics *observability.Metrics, logger *zap.Logger) *Publisher {
	return &Publisher{
		client:       client,
		eventBusName: eventBusName,
		metrics:      metrics,
		logger:       logger,
	}
}

// PublishEntityChanged sends one entity change notification.
func (p *Publisher) PublishEntityChanged(ctx context.Context, event events.EntityChanged) error {
	detail, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal entity change event: %w", err)
	}

	input := &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{
			{
				EventBusName: aws.String(p.eventBusName),
				Source:       aws.String(events.SourceName),
				DetailType:   aws.String(event.EventType()),
				Detail:       aws.String(string(detail)),
				Time:         aws.Time(event.Timestamp),
			},
		},
	}

	result, err := p.client.PutEvents(ctx, input)
	if err != nil {
		p.metrics.IncrementCount(observability.MetricEventPublishFail)
		return fmt.Errorf("failed to publish to EventBridge: %w", err)
	}
	if result.FailedEntryCount > 0 {
		p.metrics.IncrementCount(observability.MetricEventPublishFail)
		entry := result.Entries[0]
		p.logger.Error("Event bus rejected entity change event",
			zap.String("entityType", string(event.EntityType)),
			zap.String("entityID", event.EntityID),
			zap.String("errorCode", aws.ToString(entry.ErrorCode)),
			zap.String("errorMessage", aws.ToString(entry.ErrorMessage)),
		)
		return fmt.Errorf("event bus rejected entry: %s", aws.ToString(entry.ErrorCode))
	}

	p.logger.Debug("Entity change published",
		zap.String("entityType", string(event.EntityType)),
		zap.String("entityID", event.EntityID),
		zap.String("action", string(event.Action)),
	)
	return nil
}
