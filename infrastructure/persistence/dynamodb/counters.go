package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	apperrors "lumina-backend/pkg/errors"
	"lumina-backend/pkg/observability"
)

// Denormalized counter attribute names. Counters move only through this
// component; a direct write to these attributes anywhere else is a bug.
const (
	CounterMediaCount    = "MediaCount"
	CounterLikeCount     = "LikeCount"
	CounterBookmarkCount = "BookmarkCount"
	CounterViewCount     = "ViewCount"
)

// Counters maintains the denormalized aggregate counts kept on entity
// rows. All adjustments are store-level atomic adds, never application
// read-modify-write, so concurrent requests cannot lose updates.
type Counters struct {
	store *Store
}

// NewCounters creates the counter maintenance component.
func NewCounters(store *Store) *Counters {
	return &Counters{store: store}
}

// Adjust atomically adds delta to a counter on the row identified by key.
// The row must exist; adjusting a missing row is a NotFound, not an
// implicit create of a phantom row.
func (c *Counters) Adjust(ctx context.Context, key Key, counterName string, delta int) error {
	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(c.store.tableName),
		Key: map[string]types.AttributeValue{
			AttrPK: &types.AttributeValueMemberS{Value: key.PK},
			AttrSK: &types.AttributeValueMemberS{Value: key.SK},
		},
		UpdateExpression:    aws.String("ADD #counter :delta"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeNames: map[string]string{
			"#counter": counterName,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":delta": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", delta)},
		},
	}

	err := c.store.write(ctx, "counters.adjust", func(ctx context.Context) error {
		_, uErr := c.store.client.UpdateItem(ctx, input)
		return uErr
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return apperrors.NewNotFoundError("counter target row")
		}
		// Callers swallow counter errors after a committed row write, so
		// a failed adjust leaves the row count stale until a rebuild.
		c.store.metrics.IncrementCount(observability.MetricCounterDrift, observability.Dimension("counter", counterName))
		return err
	}

	c.store.logger.Debug("Counter adjusted",
		zap.String("pk", key.PK),
		zap.String("sk", key.SK),
		zap.String("counter", counterName),
		zap.Int("delta", delta),
	)
	return nil
}

// Set overwrites a counter with an absolute value. Used by the rebuild
// path after re-deriving the true count from interaction rows.
func (c *Counters) Set(ctx context.Context, key Key, counterName string, value int) error {
	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(c.store.tableName),
		Key: map[string]types.AttributeValue{
			AttrPK: &types.AttributeValueMemberS{Value: key.PK},
			AttrSK: &types.AttributeValueMemberS{Value: key.SK},
		},
		UpdateExpression:    aws.String("SET #counter = :value"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeNames: map[string]string{
			"#counter": counterName,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":value": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", value)},
		},
	}

	err := c.store.write(ctx, "counters.set", func(ctx context.Context) error {
		_, uErr := c.store.client.UpdateItem(ctx, input)
		return uErr
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return apperrors.NewNotFoundError("counter target row")
		}
		return err
	}

	c.store.logger.Info("Counter rebuilt",
		zap.String("pk", key.PK),
		zap.String("counter", counterName),
		zap.Int("value", value),
	)
	return nil
}
