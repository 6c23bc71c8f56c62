package dynamodb

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	apperrors "lumina-backend/pkg/errors"
	"lumina-backend/pkg/observability"
)

// Client is the narrow slice of the DynamoDB API the repositories use.
// *dynamodb.Client satisfies it; tests substitute an in-memory fake.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Store bundles the client with the table layout. Repositories embed it.
type Store struct {
	client    Client
	tableName string
	indexes   Indexes
	metrics   *observability.Metrics
	tracer    *observability.Tracer
	logger    *zap.Logger
}

// NewStore creates a Store. A nil metrics emitter or tracer disables
// that concern.
func NewStore(client Client, tableName string, indexes Indexes, metrics *observability.Metrics, tracer *observability.Tracer, logger *zap.Logger) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		indexes:   indexes,
		metrics:   metrics,
		tracer:    tracer,
		logger:    logger,
	}
}

// Read retry policy: idempotent reads are retried a bounded number of
// times with exponential backoff before surfacing StorageUnavailable.
// Writes are never retried here; a failed write surfaces immediately and
// the caller decides whether to reissue the whole operation.
const (
	maxReadAttempts  = 3
	baseReadBackoff  = 50 * time.Millisecond
	storeCallTimeout = 5 * time.Second
)

// withReadRetry runs an idempotent read with the bounded retry policy.
func (s *Store) withReadRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	backoff := baseReadBackoff
	var lastErr error

	for attempt := 1; attempt <= maxReadAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, storeCallTimeout)
		err := s.tracer.TraceFunction(callCtx, op, fn)
		cancel()

		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err

		if attempt < maxReadAttempts {
			s.logger.Warn("Retrying store read",
				zap.String("operation", op),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			select {
			case <-ctx.Done():
				return apperrors.NewStorageUnavailableError(op, ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}

	return apperrors.NewStorageUnavailableError(op, lastErr)
}

// write runs a single write attempt with the bounded call timeout. The
// caller must not assume partial success on error.
func (s *Store) write(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, storeCallTimeout)
	defer cancel()

	if err := s.tracer.TraceFunction(callCtx, op, fn); err != nil {
		if isConditionalCheckFailed(err) {
			return err
		}
		return apperrors.NewStorageUnavailableError(op, err)
	}
	return nil
}

// isRetryable classifies a store error for the read retry policy.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var conditionFailed *types.ConditionalCheckFailedException
	if errors.As(err, &conditionFailed) {
		return false
	}
	var resourceNotFound *types.ResourceNotFoundException
	return !errors.As(err, &resourceNotFound)
}

// isConditionalCheckFailed reports whether a write lost its condition,
// either directly or inside a cancelled transaction.
func isConditionalCheckFailed(err error) bool {
	var conditionFailed *types.ConditionalCheckFailedException
	if errors.As(err, &conditionFailed) {
		return true
	}
	var cancelled *types.TransactionCanceledException
	if errors.As(err, &cancelled) {
		for _, reason := range cancelled.CancellationReasons {
			if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
				return true
			}
		}
	}
	return false
}

// queryPage runs one page of a cursor query against the given symbolic
// index ("" for the table). It requests one extra item beyond the limit so
// hasNext is exact: a page that ends precisely at the end of the result
// set reports hasNext=false instead of handing out a dead cursor.
func (s *Store) queryPage(ctx context.Context, op string, input *dynamodb.QueryInput, symbolicIndex, cursor string, limit int) ([]map[string]types.AttributeValue, string, bool, error) {
	start, err := DecodeCursor(cursor)
	if err != nil {
		s.metrics.IncrementCount(observability.MetricCursorRejections, observability.Dimension("operation", op))
		return nil, "", false, err
	}
	if start != nil {
		input.ExclusiveStartKey = start.toExclusiveStartKey()
	}
	input.TableName = aws.String(s.tableName)
	input.Limit = aws.Int32(int32(limit + 1))

	var out *dynamodb.QueryOutput
	err = s.withReadRetry(ctx, op, func(ctx context.Context) error {
		var qErr error
		out, qErr = s.client.Query(ctx, input)
		return qErr
	})
	if err != nil {
		return nil, "", false, err
	}

	items := out.Items
	hasNext := false
	nextCursor := ""
	if len(items) > limit {
		items = items[:limit]
		hasNext = true
		nextCursor = EncodeCursor(positionFromItem(items[limit-1], symbolicIndex))
	} else if out.LastEvaluatedKey != nil {
		// The store stopped early (page size limits); more may exist.
		hasNext = true
		nextCursor = EncodeCursor(positionFromItem(out.LastEvaluatedKey, symbolicIndex))
	}

	return items, nextCursor, hasNext, nil
}
