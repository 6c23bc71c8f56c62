package dynamodb

import (
	"context"
	"strconv"
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

// AlbumRepository persists album rows.
type AlbumRepository struct {
	store *Store
}

// NewAlbumRepository creates an AlbumRepository.
func NewAlbumRepository(store *Store) *AlbumRepository {
	return &AlbumRepository{store: store}
}

// albumItem is the table shape of an album row. IsPublic is stored as a
// string so it can participate in index keys.
type albumItem struct {
	PK            string            `dynamodbav:"PK"`
	SK            string            `dynamodbav:"SK"`
	GSI1PK        string            `dynamodbav:"GSI1PK"`
	GSI1SK        string            `dynamodbav:"GSI1SK"`
	GSI2PK        string            `dynamodbav:"GSI2PK"`
	GSI2SK        string            `dynamodbav:"GSI2SK"`
	EntityType    string            `dynamodbav:"EntityType"`
	AlbumID       string            `dynamodbav:"AlbumID"`
	Title         string            `dynamodbav:"Title"`
	Description   string            `dynamodbav:"Description,omitempty"`
	Tags          []string          `dynamodbav:"Tags,omitempty"`
	IsPublic      string            `dynamodbav:"IsPublic"`
	MediaCount    int               `dynamodbav:"MediaCount"`
	ViewCount     int               `dynamodbav:"ViewCount"`
	CoverImageURL string            `dynamodbav:"CoverImageURL,omitempty"`
	ThumbnailURLs map[string]string `dynamodbav:"ThumbnailURLs,omitempty"`
	CreatedBy     string            `dynamodbav:"CreatedBy"`
	CreatedAt     string            `dynamodbav:"CreatedAt"`
	UpdatedAt     string            `dynamodbav:"UpdatedAt"`
}

func albumToItem(a *entities.Album) (*albumItem, error) {
	primary, err := AlbumKey(a.ID)
	if err != nil {
		return nil, err
	}
	chrono, err := AlbumChronologicalKey(a.ID, a.CreatedAt)
	if err != nil {
		return nil, err
	}
	byCreator, err := AlbumByCreatorKey(a.ID, a.CreatedBy, a.CreatedAt)
	if err != nil {
		return nil, err
	}

	return &albumItem{
		PK:            primary.PK,
		SK:            primary.SK,
		GSI1PK:        chrono.PK,
		GSI1SK:        chrono.SK,
		GSI2PK:        byCreator.PK,
		GSI2SK:        byCreator.SK,
		EntityType:    string(entities.EntityTypeAlbum),
		AlbumID:       a.ID,
		Title:         a.Title,
		Description:   a.Description,
		Tags:          a.Tags,
		IsPublic:      strconv.FormatBool(a.IsPublic),
		MediaCount:    a.MediaCount,
		ViewCount:     a.ViewCount,
		CoverImageURL: a.CoverImageURL,
		ThumbnailURLs: a.ThumbnailURLs,
		CreatedBy:     a.CreatedBy,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}, nil
}

func (it *albumItem) toEntity() (*entities.Album, error) {
	if it.EntityType != string(entities.EntityTypeAlbum) {
		return nil, apperrors.NewInternalError("row is not an album: " + it.EntityType)
	}
	return &entities.Album{
		ID:            it.AlbumID,
		Title:         it.Title,
		Description:   it.Description,
		Tags:          it.Tags,
		IsPublic:      it.IsPublic == "true",
		MediaCount:    it.MediaCount,
		ViewCount:     it.ViewCount,
		CoverImageURL: it.CoverImageURL,
		ThumbnailURLs: it.ThumbnailURLs,
		CreatedBy:     it.CreatedBy,
		CreatedAt:     it.CreatedAt,
		UpdatedAt:     it.UpdatedAt,
	}, nil
}

// Create writes a new album row. The write is conditional on the primary
// key not existing, so a duplicate id surfaces AlreadyExists instead of
// silently overwriting.
func (r *AlbumRepository) Create(ctx context.Context, album *entities.Album) error {
	item, err := albumToItem(album)
	if err != nil {
		return err
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal album")
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(r.store.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	}

	err = r.store.write(ctx, "album.create", func(ctx context.Context) error {
		_, pErr := r.store.client.PutItem(ctx, input)
		return pErr
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return apperrors.NewAlreadyExistsError("album")
		}
		return err
	}

	r.store.logger.Info("Album created",
		zap.String("albumID", album.ID),
		zap.String("createdBy", album.CreatedBy),
	)
	return nil
}

// Get retrieves an album by id.
func (r *AlbumRepository) Get(ctx context.Context, albumID string) (*entities.Album, error) {
	key, err := AlbumKey(albumID)
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
	err = r.store.withReadRetry(ctx, "album.get", func(ctx context.Context) error {
		var gErr error
		out, gErr = r.store.client.GetItem(ctx, input)
		return gErr
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, apperrors.NewNotFoundError("album")
	}

	var item albumItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal album")
	}
	return item.toEntity()
}

// Update merges the supplied patch fields into the album row. Absent
// fields are left untouched; UpdatedAt is always refreshed server-side.
func (r *AlbumRepository) Update(ctx context.Context, albumID string, patch entities.AlbumPatch) (*entities.Album, error) {
	if patch.IsZero() {
		return nil, apperrors.NewValidationError("update patch sets no fields")
	}

	key, err := AlbumKey(albumID)
	if err != nil {
		return nil, err
	}

	update := expression.Set(expression.Name("UpdatedAt"), expression.Value(time.Now().UTC().Format(time.RFC3339)))
	if patch.Title != nil {
		update = update.Set(expression.Name("Title"), expression.Value(*patch.Title))
	}
	if patch.Description != nil {
		update = update.Set(expression.Name("Description"), expression.Value(*patch.Description))
	}
	if patch.Tags != nil {
		update = update.Set(expression.Name("Tags"), expression.Value(*patch.Tags))
	}
	if patch.IsPublic != nil {
		update = update.Set(expression.Name("IsPublic"), expression.Value(strconv.FormatBool(*patch.IsPublic)))
	}
	if patch.CoverImageURL != nil {
		update = update.Set(expression.Name("CoverImageURL"), expression.Value(*patch.CoverImageURL))
	}
	if patch.ThumbnailURLs != nil {
		update = update.Set(expression.Name("ThumbnailURLs"), expression.Value(*patch.ThumbnailURLs))
	}

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name(AttrPK))).
		Build()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to build album update expression")
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
	err = r.store.write(ctx, "album.update", func(ctx context.Context) error {
		var uErr error
		out, uErr = r.store.client.UpdateItem(ctx, input)
		return uErr
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return nil, apperrors.NewNotFoundError("album")
		}
		return nil, err
	}

	var item albumItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal updated album")
	}
	return item.toEntity()
}

// Delete removes the album row. Cascades (detaching media) are the
// calling service's responsibility, keeping this repository free of
// cross-entity coupling.
func (r *AlbumRepository) Delete(ctx context.Context, albumID string) error {
	key, err := AlbumKey(albumID)
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

	err = r.store.write(ctx, "album.delete", func(ctx context.Context) error {
		_, dErr := r.store.client.DeleteItem(ctx, input)
		return dErr
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return apperrors.NewNotFoundError("album")
		}
		return err
	}

	r.store.logger.Info("Album deleted", zap.String("albumID", albumID))
	return nil
}

// List returns albums in creation order on the chronological index,
// most recent first when descending.
func (r *AlbumRepository) List(ctx context.Context, cursor string, limit int, descending bool) ([]*entities.Album, string, bool, error) {
	input := &dynamodb.QueryInput{
		IndexName:              aws.String(r.store.indexes.Chronological),
		KeyConditionExpression: aws.String("GSI1PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: albumListPartition},
		},
		ScanIndexForward: aws.Bool(!descending),
	}

	items, nextCursor, hasNext, err := r.store.queryPage(ctx, "album.list", input, IndexChronological, cursor, limit)
	if err != nil {
		return nil, "", false, err
	}

	albums, err := unmarshalAlbums(items)
	if err != nil {
		return nil, "", false, err
	}
	return albums, nextCursor, hasNext, nil
}

// ListByCreator returns a creator's albums in creation order.
func (r *AlbumRepository) ListByCreator(ctx context.Context, createdBy, cursor string, limit int, descending bool) ([]*entities.Album, string, bool, error) {
	if createdBy == "" {
		return nil, "", false, apperrors.NewPreconditionFailedError("creator id is required")
	}

	input := &dynamodb.QueryInput{
		IndexName:              aws.String(r.store.indexes.ByCreator),
		KeyConditionExpression: aws.String("GSI2PK = :pk AND begins_with(GSI2SK, :creator)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":      &types.AttributeValueMemberS{Value: albumCreatorPartition},
			":creator": &types.AttributeValueMemberS{Value: createdBy + "#"},
		},
		ScanIndexForward: aws.Bool(!descending),
	}

	items, nextCursor, hasNext, err := r.store.queryPage(ctx, "album.listByCreator", input, IndexByCreator, cursor, limit)
	if err != nil {
		return nil, "", false, err
	}

	albums, err := unmarshalAlbums(items)
	if err != nil {
		return nil, "", false, err
	}
	return albums, nextCursor, hasNext, nil
}

func unmarshalAlbums(items []map[string]types.AttributeValue) ([]*entities.Album, error) {
	albums := make([]*entities.Album, 0, len(items))
	for _, raw := range items {
		var item albumItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal album")
		}
		album, err := item.toEntity()
		if err != nil {
			return nil, err
		}
		albums = append(albums, album)
	}
	return albums, nil
}
