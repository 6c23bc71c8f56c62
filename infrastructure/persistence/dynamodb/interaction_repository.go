package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"lumina-backend/domain/entities"
	apperrors "lumina-backend/pkg/errors"
)

// InteractionRepository persists like and bookmark rows. The row key is
// (user, type, target), so a user can hold at most one interaction of a
// type against a target and removal is naturally idempotent.
type InteractionRepository struct {
	store *Store
}

// NewInteractionRepository creates an InteractionRepository.
func NewInteractionRepository(store *Store) *InteractionRepository {
	return &InteractionRepository{store: store}
}

type interactionItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI4PK     string `dynamodbav:"GSI4PK"`
	GSI4SK     string `dynamodbav:"GSI4SK"`
	EntityType string `dynamodbav:"EntityType"`
	UserID     string `dynamodbav:"UserID"`
	Type       string `dynamodbav:"Type"`
	TargetType string `dynamodbav:"TargetType"`
	TargetID   string `dynamodbav:"TargetID"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
}

func interactionToItem(in *entities.Interaction) (*interactionItem, error) {
	primary, err := InteractionKey(in.UserID, in.Type, in.TargetType, in.TargetID)
	if err != nil {
		return nil, err
	}
	byTarget, err := InteractionByTargetKey(in.UserID, in.Type, in.TargetType, in.TargetID, in.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &interactionItem{
		PK:         primary.PK,
		SK:         primary.SK,
		GSI4PK:     byTarget.PK,
		GSI4SK:     byTarget.SK,
		EntityType: string(entities.EntityTypeInteraction),
		UserID:     in.UserID,
		Type:       string(in.Type),
		TargetType: string(in.TargetType),
		TargetID:   in.TargetID,
		CreatedAt:  in.CreatedAt,
	}, nil
}

func (it *interactionItem) toEntity() (*entities.Interaction, error) {
	if it.EntityType != string(entities.EntityTypeInteraction) {
		return nil, apperrors.NewInternalError("row is not an interaction: " + it.EntityType)
	}
	return &entities.Interaction{
		UserID:     it.UserID,
		Type:       entities.InteractionType(it.Type),
		TargetType: entities.TargetType(it.TargetType),
		TargetID:   it.TargetID,
		CreatedAt:  it.CreatedAt,
	}, nil
}

// Add writes the interaction row, conditional on it not existing. A
// duplicate add surfaces as a conflict, never as a silent double count.
func (r *InteractionRepository) Add(ctx context.Context, in *entities.Interaction) error {
	item, err := interactionToItem(in)
	if err != nil {
		return err
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal interaction")
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(r.store.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK) OR attribute_not_exists(SK)"),
	}

	err = r.store.write(ctx, "interaction.add", func(ctx context.Context) error {
		_, pErr := r.store.client.PutItem(ctx, input)
		return pErr
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return apperrors.NewAlreadyLikedError(string(in.Type))
		}
		return err
	}

	r.store.logger.Debug("Interaction added",
		zap.String("userID", in.UserID),
		zap.String("type", string(in.Type)),
		zap.String("targetID", in.TargetID),
	)
	return nil
}

// Remove deletes the interaction row and reports whether it existed.
// Removing an absent interaction is a no-op, not an error, so retried
// unlikes cannot drive counters negative.
func (r *InteractionRepository) Remove(ctx context.Context, userID string, interactionType entities.InteractionType, targetType entities.TargetType, targetID string) (bool, error) {
	key, err := InteractionKey(userID, interactionType, targetType, targetID)
	if err != nil {
		return false, err
	}

	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(r.store.tableName),
		Key: map[string]types.AttributeValue{
			AttrPK: &types.AttributeValueMemberS{Value: key.PK},
			AttrSK: &types.AttributeValueMemberS{Value: key.SK},
		},
		ReturnValues: types.ReturnValueAllOld,
	}

	var out *dynamodb.DeleteItemOutput
	err = r.store.write(ctx, "interaction.remove", func(ctx context.Context) error {
		var dErr error
		out, dErr = r.store.client.DeleteItem(ctx, input)
		return dErr
	})
	if err != nil {
		return false, err
	}

	existed := len(out.Attributes) > 0
	if existed {
		r.store.logger.Debug("Interaction removed",
			zap.String("userID", userID),
			zap.String("type", string(interactionType)),
			zap.String("targetID", targetID),
		)
	}
	return existed, nil
}

// Exists reports whether the user holds this interaction on the target.
func (r *InteractionRepository) Exists(ctx context.Context, userID string, interactionType entities.InteractionType, targetType entities.TargetType, targetID string) (bool, error) {
	key, err := InteractionKey(userID, interactionType, targetType, targetID)
	if err != nil {
		return false, err
	}

	input := &dynamodb.GetItemInput{
		TableName: aws.String(r.store.tableName),
		Key: map[string]types.AttributeValue{
			AttrPK: &types.AttributeValueMemberS{Value: key.PK},
			AttrSK: &types.AttributeValueMemberS{Value: key.SK},
		},
		ProjectionExpression: aws.String(AttrPK),
	}

	var out *dynamodb.GetItemOutput
	err = r.store.withReadRetry(ctx, "interaction.exists", func(ctx context.Context) error {
		var gErr error
		out, gErr = r.store.client.GetItem(ctx, input)
		return gErr
	})
	if err != nil {
		return false, err
	}
	return out.Item != nil, nil
}

// ListByUser pages through a user's interactions of one type, newest keys
// last in the natural sort order of the partition.
func (r *InteractionRepository) ListByUser(ctx context.Context, userID string, interactionType entities.InteractionType, cursor string, limit int, descending bool) ([]*entities.Interaction, string, bool, error) {
	if userID == "" {
		return nil, "", false, apperrors.NewPreconditionFailedError("user id is required")
	}
	if !interactionType.Valid() {
		return nil, "", false, apperrors.NewPreconditionFailedError("unknown interaction type")
	}

	input := &dynamodb.QueryInput{
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: prefixUser + userID},
			":sk": &types.AttributeValueMemberS{Value: InteractionSKPrefix(interactionType)},
		},
		ScanIndexForward: aws.Bool(!descending),
	}

	items, nextCursor, hasNext, err := r.store.queryPage(ctx, "interaction.listByUser", input, "", cursor, limit)
	if err != nil {
		return nil, "", false, err
	}
	return unmarshalInteractions(items, nextCursor, hasNext)
}

// ListByTarget pages through the interactions of one type held against a
// target, ordered by when they were added.
func (r *InteractionRepository) ListByTarget(ctx context.Context, targetType entities.TargetType, targetID string, interactionType entities.InteractionType, cursor string, limit int, descending bool) ([]*entities.Interaction, string, bool, error) {
	partition, err := TargetInteractionPartition(targetType, targetID, interactionType)
	if err != nil {
		return nil, "", false, err
	}

	input := &dynamodb.QueryInput{
		IndexName:              aws.String(r.store.indexes.ByTarget),
		KeyConditionExpression: aws.String("GSI4PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: partition},
		},
		ScanIndexForward: aws.Bool(!descending),
	}

	items, nextCursor, hasNext, err := r.store.queryPage(ctx, "interaction.listByTarget", input, IndexByTarget, cursor, limit)
	if err != nil {
		return nil, "", false, err
	}
	return unmarshalInteractions(items, nextCursor, hasNext)
}

// CountByTarget derives the true interaction count from the rows
// themselves, following pagination to exhaustion. Used by the counter
// rebuild path, never on the request path.
func (r *InteractionRepository) CountByTarget(ctx context.Context, targetType entities.TargetType, targetID string, interactionType entities.InteractionType) (int, error) {
	partition, err := TargetInteractionPartition(targetType, targetID, interactionType)
	if err != nil {
		return 0, err
	}

	total := 0
	var startKey map[string]types.AttributeValue
	for {
		input := &dynamodb.QueryInput{
			TableName:              aws.String(r.store.tableName),
			IndexName:              aws.String(r.store.indexes.ByTarget),
			KeyConditionExpression: aws.String("GSI4PK = :pk"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: partition},
			},
			Select:            types.SelectCount,
			ExclusiveStartKey: startKey,
		}

		var out *dynamodb.QueryOutput
		err = r.store.withReadRetry(ctx, "interaction.countByTarget", func(ctx context.Context) error {
			var qErr error
			out, qErr = r.store.client.Query(ctx, input)
			return qErr
		})
		if err != nil {
			return 0, err
		}

		total += int(out.Count)
		if out.LastEvaluatedKey == nil {
			return total, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

func unmarshalInteractions(items []map[string]types.AttributeValue, nextCursor string, hasNext bool) ([]*entities.Interaction, string, bool, error) {
	interactions := make([]*entities.Interaction, 0, len(items))
	for _, raw := range items {
		var item interactionItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, "", false, apperrors.Wrap(err, "failed to unmarshal interaction")
		}
		in, err := item.toEntity()
		if err != nil {
			return nil, "", false, err
		}
		interactions = append(interactions, in)
	}
	return interactions, nextCursor, hasNext, nil
}
