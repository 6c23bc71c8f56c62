package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"lumina-backend/domain/entities"
	apperrors "lumina-backend/pkg/errors"
)

// CommentRepository persists comment rows.
type CommentRepository struct {
	store *Store
}

// NewCommentRepository creates a CommentRepository.
func NewCommentRepository(store *Store) *CommentRepository {
	return &CommentRepository{store: store}
}

type commentItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI4PK     string `dynamodbav:"GSI4PK"`
	GSI4SK     string `dynamodbav:"GSI4SK"`
	EntityType string `dynamodbav:"EntityType"`
	CommentID  string `dynamodbav:"CommentID"`
	TargetType string `dynamodbav:"TargetType"`
	TargetID   string `dynamodbav:"TargetID"`
	UserID     string `dynamodbav:"UserID"`
	Content    string `dynamodbav:"Content"`
	LikeCount  int    `dynamodbav:"LikeCount"`
	IsEdited   bool   `dynamodbav:"IsEdited"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
	UpdatedAt  string `dynamodbav:"UpdatedAt"`
}

func commentToItem(c *entities.Comment) (*commentItem, error) {
	primary, err := CommentKey(c.ID)
	if err != nil {
		return nil, err
	}
	byTarget, err := CommentByTargetKey(c.TargetType, c.TargetID, c.CreatedAt, c.ID)
	if err != nil {
		return nil, err
	}
	return &commentItem{
		PK:         primary.PK,
		SK:         primary.SK,
		GSI4PK:     byTarget.PK,
		GSI4SK:     byTarget.SK,
		EntityType: string(entities.EntityTypeComment),
		CommentID:  c.ID,
		TargetType: string(c.TargetType),
		TargetID:   c.TargetID,
		UserID:     c.UserID,
		Content:    c.Content,
		LikeCount:  c.LikeCount,
		IsEdited:   c.IsEdited,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}, nil
}

func (it *commentItem) toEntity() (*entities.Comment, error) {
	if it.EntityType != string(entities.EntityTypeComment) {
		return nil, apperrors.NewInternalError("row is not a comment: " + it.EntityType)
	}
	return &entities.Comment{
		ID:         it.CommentID,
		TargetType: entities.TargetType(it.TargetType),
		TargetID:   it.TargetID,
		UserID:     it.UserID,
		Content:    it.Content,
		LikeCount:  it.LikeCount,
		IsEdited:   it.IsEdited,
		CreatedAt:  it.CreatedAt,
		UpdatedAt:  it.UpdatedAt,
	}, nil
}

// Create writes a new comment row, conditional on the key not existing.
func (r *CommentRepository) Create(ctx context.Context, comment *entities.Comment) error {
	item, err := commentToItem(comment)
	if err != nil {
		return err
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal comment")
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(r.store.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	}

	err = r.store.write(ctx, "comment.create", func(ctx context.Context) error {
		_, pErr := r.store.client.PutItem(ctx, input)
		return pErr
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return apperrors.NewAlreadyExistsError("comment")
		}
		return err
	}

	r.store.logger.Info("Comment created",
		zap.String("commentID", comment.ID),
		zap.String("targetType", string(comment.TargetType)),
		zap.String("targetID", comment.TargetID),
	)
	return nil
}

// Get fetches a comment row by id.
func (r *CommentRepository) Get(ctx context.Context, commentID string) (*entities.Comment, error) {
	key, err := CommentKey(commentID)
	if err != nil {
		return nil, err
	}

	input := &dynamodb.GetItemInput{
		TableName: aws.String(r.store.tableName),
		Key: map[string]types.AttributeValue{
			AttrPK: &types.AttributeValueMemberS{Value: key.PK},
			AttrSK: &types.AttributeValueMemberS{Value: key.SK},
		},
	}

	var out *dynamodb.GetItemOutput
	err = r.store.withReadRetry(ctx, "comment.get", func(ctx context.Context) error {
		var gErr error
		out, gErr = r.store.client.GetItem(ctx, input)
		return gErr
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, apperrors.NewNotFoundError("comment")
	}

	var item commentItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal comment")
	}
	return item.toEntity()
}

// UpdateContent replaces the comment body and marks the row edited.
func (r *CommentRepository) UpdateContent(ctx context.Context, commentID, content string) (*entities.Comment, error) {
	if content == "" {
		return nil, apperrors.NewValidationError("comment content is required")
	}

	key, err := CommentKey(commentID)
	if err != nil {
		return nil, err
	}

	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(r.store.tableName),
		Key: map[string]types.AttributeValue{
			AttrPK: &types.AttributeValueMemberS{Value: key.PK},
			AttrSK: &types.AttributeValueMemberS{Value: key.SK},
		},
		UpdateExpression:    aws.String("SET Content = :content, IsEdited = :edited, UpdatedAt = :now"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":content": &types.AttributeValueMemberS{Value: content},
			":edited":  &types.AttributeValueMemberBOOL{Value: true},
			":now":     &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
		ReturnValues: types.ReturnValueAllNew,
	}

	var out *dynamodb.UpdateItemOutput
	err = r.store.write(ctx, "comment.updateContent", func(ctx context.Context) error {
		var uErr error
		out, uErr = r.store.client.UpdateItem(ctx, input)
		return uErr
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return nil, apperrors.NewNotFoundError("comment")
		}
		return nil, err
	}

	var item commentItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal updated comment")
	}
	return item.toEntity()
}

// Delete removes a comment row.
func (r *CommentRepository) Delete(ctx context.Context, commentID string) error {
	key, err := CommentKey(commentID)
	if err != nil {
		return err
	}

	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(r.store.tableName),
		Key: map[string]types.AttributeValue{
			AttrPK: &types.AttributeValueMemberS{Value: key.PK},
			AttrSK: &types.AttributeValueMemberS{Value: key.SK},
		},
		ConditionExpression: aws.String("attribute_exists(PK)"),
	}

	err = r.store.write(ctx, "comment.delete", func(ctx context.Context) error {
		_, dErr := r.store.client.DeleteItem(ctx, input)
		return dErr
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return apperrors.NewNotFoundError("comment")
		}
		return err
	}

	r.store.logger.Info("Comment deleted", zap.String("commentID", commentID))
	return nil
}

// ListByTarget returns the comments on a target in creation order.
func (r *CommentRepository) ListByTarget(ctx context.Context, targetType entities.TargetType, targetID, cursor string, limit int, descending bool) ([]*entities.Comment, string, bool, error) {
	partition, err := TargetCommentPartition(targetType, targetID)
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

	items, nextCursor, hasNext, err := r.store.queryPage(ctx, "comment.listByTarget", input, IndexByTarget, cursor, limit)
	if err != nil {
		return nil, "", false, err
	}

	comments := make([]*entities.Comment, 0, len(items))
	for _, raw := range items {
		var item commentItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, "", false, apperrors.Wrap(err, "failed to unmarshal comment")
		}
		c, err := item.toEntity()
		if err != nil {
			return nil, "", false, err
		}
		comments = append(comments, c)
	}
	return comments, nextCursor, hasNext, nil
}
