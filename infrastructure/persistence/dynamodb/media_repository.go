package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"lumina-backend/domain/entities"
	apperrors "lumina-backend/pkg/errors"
)

// MediaRepository persists media rows.
type MediaRepository struct {
	store *Store
}

// NewMediaRepository creates a MediaRepository.
func NewMediaRepository(store *Store) *MediaRepository {
	return &MediaRepository{store: store}
}

type mediaItem struct {
	PK               string               `dynamodbav:"PK"`
	SK               string               `dynamodbav:"SK"`
	GSI2PK           string               `dynamodbav:"GSI2PK"`
	GSI2SK           string               `dynamodbav:"GSI2SK"`
	GSI3PK           string               `dynamodbav:"GSI3PK"`
	GSI3SK           string               `dynamodbav:"GSI3SK"`
	EntityType       string               `dynamodbav:"EntityType"`
	MediaID          string               `dynamodbav:"MediaID"`
	AlbumID          string               `dynamodbav:"AlbumID"`
	Filename         string               `dynamodbav:"Filename"`
	OriginalFilename string               `dynamodbav:"OriginalFilename,omitempty"`
	MimeType         string               `dynamodbav:"MimeType"`
	Size             int64                `dynamodbav:"Size"`
	URL              string               `dynamodbav:"URL"`
	Dimensions       *entities.Dimensions `dynamodbav:"Dimensions,omitempty"`
	ThumbnailURLs    map[string]string    `dynamodbav:"ThumbnailURLs,omitempty"`
	Status           string               `dynamodbav:"Status"`
	LikeCount        int                  `dynamodbav:"LikeCount"`
	BookmarkCount    int                  `dynamodbav:"BookmarkCount"`
	ViewCount        int                  `dynamodbav:"ViewCount"`
	CreatedBy        string               `dynamodbav:"CreatedBy"`
	CreatedByType    string               `dynamodbav:"CreatedByType,omitempty"`
	CreatedAt        string               `dynamodbav:"CreatedAt"`
	UpdatedAt        string               `dynamodbav:"UpdatedAt"`
}

func mediaToItem(m *entities.Media) (*mediaItem, error) {
	primary, err := MediaKey(m.AlbumID, m.ID)
	if err != nil {
		return nil, err
	}
	global, err := MediaGlobalKey(m.ID)
	if err != nil {
		return nil, err
	}
	byCreator, err := MediaByCreatorKey(m.ID, m.CreatedBy, m.CreatedAt)
	if err != nil {
		return nil, err
	}

	return &mediaItem{
		PK:               primary.PK,
		SK:               primary.SK,
		GSI2PK:           byCreator.PK,
		GSI2SK:           byCreator.SK,
		GSI3PK:           global.PK,
		GSI3SK:           global.SK,
		EntityType:       string(entities.EntityTypeMedia),
		MediaID:          m.ID,
		AlbumID:          m.AlbumID,
		Filename:         m.Filename,
		OriginalFilename: m.OriginalFilename,
		MimeType:         m.MimeType,
		Size:             m.Size,
		URL:              m.URL,
		Dimensions:       m.Dimensions,
		ThumbnailURLs:    m.ThumbnailURLs,
		Status:           string(m.Status),
		LikeCount:        m.LikeCount,
		BookmarkCount:    m.BookmarkCount,
		ViewCount:        m.ViewCount,
		CreatedBy:        m.CreatedBy,
		CreatedByType:    m.CreatedByType,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}, nil
}

func (it *mediaItem) toEntity() (*entities.Media, error) {
	if it.EntityType != string(entities.EntityTypeMedia) {
		return nil, apperrors.NewInternalError("row is not media: " + it.EntityType)
	}
	return &entities.Media{
		ID:               it.MediaID,
		AlbumID:          it.AlbumID,
		Filename:         it.Filename,
		OriginalFilename: it.OriginalFilename,
		MimeType:         it.MimeType,
		Size:             it.Size,
		URL:              it.URL,
		Dimensions:       it.Dimensions,
		ThumbnailURLs:    it.ThumbnailURLs,
		Status:           entities.MediaStatus(it.Status),
		LikeCount:        it.LikeCount,
		BookmarkCount:    it.BookmarkCount,
		ViewCount:        it.ViewCount,
		CreatedBy:        it.CreatedBy,
		CreatedByType:    it.CreatedByType,
		CreatedAt:        it.CreatedAt,
		UpdatedAt:        it.UpdatedAt,
	}, nil
}

// Create writes a new media row, conditional on the key not existing.
func (r *MediaRepository) Create(ctx context.Context, media *entities.Media) error {
	item, err := mediaToItem(media)
	if err != nil {
		return err
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal media")
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(r.store.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	}

	err = r.store.write(ctx, "media.create", func(ctx context.Context) error {
		_, pErr := r.store.client.PutItem(ctx, input)
		return pErr
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return apperrors.NewAlreadyExistsError("media")
		}
		return err
	}

	r.store.logger.Info("Media created",
		zap.String("mediaID", media.ID),
		zap.String("albumID", media.AlbumID),
		zap.String("status", string(media.Status)),
	)
	return nil
}

// GetByID fetches a media row by id alone through the global-lookup
// index, without knowing which album it lives under.
func (r *MediaRepository) GetByID(ctx context.Context, mediaID string) (*entities.Media, error) {
	global, err := MediaGlobalKey(mediaID)
	if err != nil {
		return nil, err
	}

	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.store.tableName),
		IndexName:              aws.String(r.store.indexes.ByGlobalID),
		KeyConditionExpression: aws.String("GSI3PK = :pk AND GSI3SK = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: global.PK},
			":sk": &types.AttributeValueMemberS{Value: global.SK},
		},
		Limit: aws.Int32(1),
	}

	var out *dynamodb.QueryOutput
	err = r.store.withReadRetry(ctx, "media.getByID", func(ctx context.Context) error {
		var qErr error
		out, qErr = r.store.client.Query(ctx, input)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, apperrors.NewNotFoundError("media")
	}

	var item mediaItem
	if err := attributevalue.UnmarshalMap(out.Items[0], &item); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal media")
	}
	return item.toEntity()
}

// ListByAlbum returns the media of an album in id order.
func (r *MediaRepository) ListByAlbum(ctx context.Context, albumID, cursor string, limit int, descending bool) ([]*entities.Media, string, bool, error) {
	if albumID == "" {
		return nil, "", false, apperrors.NewPreconditionFailedError("album id is required")
	}

	input := &dynamodb.QueryInput{
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: prefixAlbum + albumID},
			":sk": &types.AttributeValueMemberS{Value: prefixMedia},
		},
		ScanIndexForward: aws.Bool(!descending),
	}

	items, nextCursor, hasNext, err := r.store.queryPage(ctx, "media.listByAlbum", input, "", cursor, limit)
	if err != nil {
		return nil, "", false, err
	}

	media, err := unmarshalMedia(items)
	if err != nil {
		return nil, "", false, err
	}
	return media, nextCursor, hasNext, nil
}

// ListByCreator returns a creator's media in creation order.
func (r *MediaRepository) ListByCreator(ctx context.Context, createdBy, cursor string, limit int, descending bool) ([]*entities.Media, string, bool, error) {
	if createdBy == "" {
		return nil, "", false, apperrors.NewPreconditionFailedError("creator id is required")
	}

	input := &dynamodb.QueryInput{
		IndexName:              aws.String(r.store.indexes.ByCreator),
		KeyConditionExpression: aws.String("GSI2PK = :pk AND begins_with(GSI2SK, :creator)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":      &types.AttributeValueMemberS{Value: mediaCreatorPartition},
			":creator": &types.AttributeValueMemberS{Value: createdBy + "#"},
		},
		ScanIndexForward: aws.Bool(!descending),
	}

	items, nextCursor, hasNext, err := r.store.queryPage(ctx, "media.listByCreator", input, IndexByCreator, cursor, limit)
	if err != nil {
		return nil, "", false, err
	}

	media, err := unmarshalMedia(items)
	if err != nil {
		return nil, "", false, err
	}
	return media, nextCursor, hasNext, nil
}

// Update merges the supplied patch fields into the media row. Editing
// content flips UpdatedAt server-side; the primary key is resolved
// through the global-lookup index first.
func (r *MediaRepository) Update(ctx context.Context, mediaID string, patch entities.MediaPatch) (*entities.Media, error) {
	if patch.IsZero() {
		return nil, apperrors.NewValidationError("update patch sets no fields")
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, apperrors.NewValidationError("unknown media status: " + string(*patch.Status))
	}

	current, err := r.GetByID(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	key, err := MediaKey(current.AlbumID, current.ID)
	if err != nil {
		return nil, err
	}

	update := expression.Set(expression.Name("UpdatedAt"), expression.Value(time.Now().UTC().Format(time.RFC3339)))
	if patch.Filename != nil {
		update = update.Set(expression.Name("Filename"), expression.Value(*patch.Filename))
	}
	if patch.URL != nil {
		update = update.Set(expression.Name("URL"), expression.Value(*patch.URL))
	}
	if patch.Dimensions != nil {
		update = update.Set(expression.Name("Dimensions"), expression.Value(*patch.Dimensions))
	}
	if patch.ThumbnailURLs != nil {
		update = update.Set(expression.Name("ThumbnailURLs"), expression.Value(*patch.ThumbnailURLs))
	}
	if patch.Status != nil {
		update = update.Set(expression.Name("Status"), expression.Value(string(*patch.Status)))
	}

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name(AttrPK))).
		Build()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to build media update expression")
	}

	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(r.store.tableName),
		Key: map[string]types.AttributeValue{
			AttrPK: &types.AttributeValueMemberS{Value: key.PK},
			AttrSK: &types.AttributeValueMemberS{Value: key.SK},
		},
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	}

	var out *dynamodb.UpdateItemOutput
	err = r.store.write(ctx, "media.update", func(ctx context.Context) error {
		var uErr error
		out, uErr = r.store.client.UpdateItem(ctx, input)
		return uErr
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return nil, apperrors.NewNotFoundError("media")
		}
		return nil, err
	}

	var item mediaItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal updated media")
	}
	return item.toEntity()
}

// Delete removes the media row.
func (r *MediaRepository) Delete(ctx context.Context, mediaID string) error {
	current, err := r.GetByID(ctx, mediaID)
	if err != nil {
		return err
	}
	key, err := MediaKey(current.AlbumID, current.ID)
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

	err = r.store.write(ctx, "media.delete", func(ctx context.Context) error {
		_, dErr := r.store.client.DeleteItem(ctx, input)
		return dErr
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return apperrors.NewNotFoundError("media")
		}
		return err
	}

	r.store.logger.Info("Media deleted", zap.String("mediaID", mediaID))
	return nil
}

// Detach moves a media row out of its album and under the UNSORTED
// sentinel. The partition key embeds the album id, so the move is a
// delete+put applied as one transaction; the row is never observable in
// both places or neither.
func (r *MediaRepository) Detach(ctx context.Context, media *entities.Media) error {
	if media.AlbumID == entities.AlbumUnsorted {
		return nil
	}

	oldKey, err := MediaKey(media.AlbumID, media.ID)
	if err != nil {
		return err
	}

	detached := *media
	detached.AlbumID = entities.AlbumUnsorted
	detached.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	item, err := mediaToItem(&detached)
	if err != nil {
		return err
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal detached media")
	}

	input := &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Delete: &types.Delete{
					TableName: aws.String(r.store.tableName),
					Key: map[string]types.AttributeValue{
						AttrPK: &types.AttributeValueMemberS{Value: oldKey.PK},
						AttrSK: &types.AttributeValueMemberS{Value: oldKey.SK},
					},
					ConditionExpression: aws.String("attribute_exists(PK)"),
				},
			},
			{
				Put: &types.Put{
					TableName: aws.String(r.store.tableName),
					Item:      av,
				},
			},
		},
	}

	err = r.store.write(ctx, "media.detach", func(ctx context.Context) error {
		_, tErr := r.store.client.TransactWriteItems(ctx, input)
		return tErr
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return apperrors.NewNotFoundError("media")
		}
		return err
	}

	r.store.logger.Info("Media detached from album",
		zap.String("mediaID", media.ID),
		zap.String("albumID", media.AlbumID),
	)
	return nil
}

func unmarshalMedia(items []map[string]types.AttributeValue) ([]*entities.Media, error) {
	media := make([]*entities.Media, 0, len(items))
	for _, raw := range items {
		var item mediaItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal media")
		}
		m, err := item.toEntity()
		if err != nil {
			return nil, err
		}
		media = append(media, m)
	}
	return media, nil
}
