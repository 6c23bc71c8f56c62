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

// UserRepository persists user rows and the uniqueness guard rows that
// back the email and username constraints.
type UserRepository struct {
	store *Store
}

// NewUserRepository creates a UserRepository.
func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

type userItem struct {
	PK              string `dynamodbav:"PK"`
	SK              string `dynamodbav:"SK"`
	EntityType      string `dynamodbav:"EntityType"`
	UserID          string `dynamodbav:"UserID"`
	Email           string `dynamodbav:"Email"`
	Username        string `dynamodbav:"Username"`
	PasswordHash    string `dynamodbav:"PasswordHash,omitempty"`
	Provider        string `dynamodbav:"Provider,omitempty"`
	Role            string `dynamodbav:"Role"`
	IsActive        bool   `dynamodbav:"IsActive"`
	IsEmailVerified bool   `dynamodbav:"IsEmailVerified"`
	AvatarURL       string `dynamodbav:"AvatarURL,omitempty"`
	AvatarThumbURL  string `dynamodbav:"AvatarThumbURL,omitempty"`
	LastActive      string `dynamodbav:"LastActive,omitempty"`
	CreatedAt       string `dynamodbav:"CreatedAt"`
	UpdatedAt       string `dynamodbav:"UpdatedAt"`
}

// guardItem is a uniqueness guard row. It carries the owning user id so
// lookups by email or username can resolve the account in one extra read.
type guardItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	UserID     string `dynamodbav:"UserID"`
}

func userToItem(u *entities.User) (*userItem, error) {
	key, err := UserKey(u.UserID)
	if err != nil {
		return nil, err
	}
	return &userItem{
		PK:              key.PK,
		SK:              key.SK,
		EntityType:      string(entities.EntityTypeUser),
		UserID:          u.UserID,
		Email:           u.Email,
		Username:        u.Username,
		PasswordHash:    u.PasswordHash,
		Provider:        u.Provider,
		Role:            string(u.Role),
		IsActive:        u.IsActive,
		IsEmailVerified: u.IsEmailVerified,
		AvatarURL:       u.AvatarURL,
		AvatarThumbURL:  u.AvatarThumbURL,
		LastActive:      u.LastActive,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}, nil
}

func (it *userItem) toEntity() (*entities.User, error) {
	if it.EntityType != string(entities.EntityTypeUser) {
		return nil, apperrors.NewInternalError("row is not a user: " + it.EntityType)
	}
	return &entities.User{
		UserID:          it.UserID,
		Email:           it.Email,
		Username:        it.Username,
		PasswordHash:    it.PasswordHash,
		Provider:        it.Provider,
		Role:            entities.Role(it.Role),
		IsActive:        it.IsActive,
		IsEmailVerified: it.IsEmailVerified,
		AvatarURL:       it.AvatarURL,
		AvatarThumbURL:  it.AvatarThumbURL,
		LastActive:      it.LastActive,
		CreatedAt:       it.CreatedAt,
		UpdatedAt:       it.UpdatedAt,
	}, nil
}

func (r *UserRepository) guardPut(key Key, userID string) (*types.Put, error) {
	av, err := attributevalue.MarshalMap(&guardItem{
		PK:         key.PK,
		SK:         key.SK,
		EntityType: string(entities.EntityTypeUniqueGuard),
		UserID:     userID,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal uniqueness guard")
	}
	return &types.Put{
		TableName:           aws.String(r.store.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	}, nil
}

// Create writes the user row and both uniqueness guard rows in one
// transaction. If the id, email or username is taken the whole write
// fails as AlreadyExists and nothing is left behind.
func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	item, err := userToItem(user)
	if err != nil {
		return err
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user")
	}

	emailKey, err := UserEmailGuardKey(user.Email)
	if err != nil {
		return err
	}
	usernameKey, err := UsernameGuardKey(user.Username)
	if err != nil {
		return err
	}
	emailGuard, err := r.guardPut(emailKey, user.UserID)
	if err != nil {
		return err
	}
	usernameGuard, err := r.guardPut(usernameKey, user.UserID)
	if err != nil {
		return err
	}

	input := &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           aws.String(r.store.tableName),
					Item:                av,
					ConditionExpression: aws.String("attribute_not_exists(PK)"),
				},
			},
			{Put: emailGuard},
			{Put: usernameGuard},
		},
	}

	err = r.store.write(ctx, "user.create", func(ctx context.Context) error {
		_, tErr := r.store.client.TransactWriteItems(ctx, input)
		return tErr
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return apperrors.NewAlreadyExistsError("user")
		}
		return err
	}

	r.store.logger.Info("User created", zap.String("userID", user.UserID))
	return nil
}

// Get fetches a user row by id.
func (r *UserRepository) Get(ctx context.Context, userID string) (*entities.User, error) {
	key, err := UserKey(userID)
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
	err = r.store.withReadRetry(ctx, "user.get", func(ctx context.Context) error {
		var gErr error
		out, gErr = r.store.client.GetItem(ctx, input)
		return gErr
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, apperrors.NewNotFoundError("user")
	}

	var item userItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal user")
	}
	return item.toEntity()
}

// FindByEmail resolves an account through its email guard row.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	key, err := UserEmailGuardKey(email)
	if err != nil {
		return nil, err
	}
	return r.findByGuard(ctx, "user.findByEmail", key)
}

// FindByUsername resolves an account through its username guard row.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entities.User, error) {
	key, err := UsernameGuardKey(username)
	if err != nil {
		return nil, err
	}
	return r.findByGuard(ctx, "user.findByUsername", key)
}

func (r *UserRepository) findByGuard(ctx context.Context, op string, key Key) (*entities.User, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(r.store.tableName),
		Key: map[string]types.AttributeValue{
			AttrPK: &types.AttributeValueMemberS{Value: key.PK},
			AttrSK: &types.AttributeValueMemberS{Value: key.SK},
		},
	}

	var out *dynamodb.GetItemOutput
	err := r.store.withReadRetry(ctx, op, func(ctx context.Context) error {
		var gErr error
		out, gErr = r.store.client.GetItem(ctx, input)
		return gErr
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, apperrors.NewNotFoundError("user")
	}

	var guard guardItem
	if err := attributevalue.UnmarshalMap(out.Item, &guard); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal uniqueness guard")
	}
	return r.Get(ctx, guard.UserID)
}

// Update merges the supplied patch fields into the user row.
func (r *UserRepository) Update(ctx context.Context, userID string, patch entities.UserPatch) (*entities.User, error) {
	if patch.IsZero() {
		return nil, apperrors.NewValidationError("update patch sets no fields")
	}

	key, err := UserKey(userID)
	if err != nil {
		return nil, err
	}

	update := expression.Set(expression.Name("UpdatedAt"), expression.Value(time.Now().UTC().Format(time.RFC3339)))
	if patch.PasswordHash != nil {
		update = update.Set(expression.Name("PasswordHash"), expression.Value(*patch.PasswordHash))
	}
	if patch.Role != nil {
		update = update.Set(expression.Name("Role"), expression.Value(string(*patch.Role)))
	}
	if patch.IsActive != nil {
		update = update.Set(expression.Name("IsActive"), expression.Value(*patch.IsActive))
	}
	if patch.IsEmailVerified != nil {
		update = update.Set(expression.Name("IsEmailVerified"), expression.Value(*patch.IsEmailVerified))
	}
	if patch.AvatarURL != nil {
		update = update.Set(expression.Name("AvatarURL"), expression.Value(*patch.AvatarURL))
	}
	if patch.AvatarThumbURL != nil {
		update = update.Set(expression.Name("AvatarThumbURL"), expression.Value(*patch.AvatarThumbURL))
	}
	if patch.LastActive != nil {
		update = update.Set(expression.Name("LastActive"), expression.Value(*patch.LastActive))
	}

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name(AttrPK))).
		Build()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to build user update expression")
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
	err = r.store.write(ctx, "user.update", func(ctx context.Context) error {
		var uErr error
		out, uErr = r.store.client.UpdateItem(ctx, input)
		return uErr
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return nil, apperrors.NewNotFoundError("user")
		}
		return nil, err
	}

	var item userItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal updated user")
	}
	return item.toEntity()
}

// TouchLastActive stamps the user's LastActive attribute. Best-effort
// freshness data; a miss on a deleted user is not an error.
func (r *UserRepository) TouchLastActive(ctx context.Context, userID string) error {
	key, err := UserKey(userID)
	if err != nil {
		return err
	}

	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(r.store.tableName),
		Key: map[string]types.AttributeValue{
			AttrPK: &types.AttributeValueMemberS{Value: key.PK},
			AttrSK: &types.AttributeValueMemberS{Value: key.SK},
		},
		UpdateExpression:    aws.String("SET LastActive = :now"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
	}

	err = r.store.write(ctx, "user.touchLastActive", func(ctx context.Context) error {
		_, uErr := r.store.client.UpdateItem(ctx, input)
		return uErr
	})
	if err != nil && isConditionalCheckFailed(err) {
		return apperrors.NewNotFoundError("user")
	}
	return err
}

// SoftDelete anonymizes the user row and releases both uniqueness guard
// rows in one transaction. The account row survives, deactivated, so
// authored content keeps a resolvable creator.
func (r *UserRepository) SoftDelete(ctx context.Context, userID string) error {
	current, err := r.Get(ctx, userID)
	if err != nil {
		return err
	}

	anon := current.Anonymized()
	anon.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	item, err := userToItem(&anon)
	if err != nil {
		return err
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal anonymized user")
	}

	emailKey, err := UserEmailGuardKey(current.Email)
	if err != nil {
		return err
	}
	usernameKey, err := UsernameGuardKey(current.Username)
	if err != nil {
		return err
	}

	input := &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           aws.String(r.store.tableName),
					Item:                av,
					ConditionExpression: aws.String("attribute_exists(PK)"),
				},
			},
			{
				Delete: &types.Delete{
					TableName: aws.String(r.store.tableName),
					Key: map[string]types.AttributeValue{
						AttrPK: &types.AttributeValueMemberS{Value: emailKey.PK},
						AttrSK: &types.AttributeValueMemberS{Value: emailKey.SK},
					},
				},
			},
			{
				Delete: &types.Delete{
					TableName: aws.String(r.store.tableName),
					Key: map[string]types.AttributeValue{
						AttrPK: &types.AttributeValueMemberS{Value: usernameKey.PK},
						AttrSK: &types.AttributeValueMemberS{Value: usernameKey.SK},
					},
				},
			},
		},
	}

	err = r.store.write(ctx, "user.softDelete", func(ctx context.Context) error {
		_, tErr := r.store.client.TransactWriteItems(ctx, input)
		return tErr
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return apperrors.NewNotFoundError("user")
		}
		return err
	}

	r.store.logger.Info("User soft-deleted", zap.String("userID", userID))
	return nil
}
