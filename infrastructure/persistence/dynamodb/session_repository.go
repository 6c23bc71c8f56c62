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

// SessionRepository persists login session rows. Rows carry a TTL so the
// store reaps expired sessions, but TTL deletion lags; Get enforces the
// expiry itself and never returns a stale session.
type SessionRepository struct {
	store *Store
}

// NewSessionRepository creates a SessionRepository.
func NewSessionRepository(store *Store) *SessionRepository {
	return &SessionRepository{store: store}
}

type sessionItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	SessionID  string `dynamodbav:"SessionID"`
	UserID     string `dynamodbav:"UserID"`
	Email      string `dynamodbav:"Email"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
	ExpiresAt  string `dynamodbav:"ExpiresAt"`
	TTL        int64  `dynamodbav:"TTL"`
}

// Create writes a new session row.
func (r *SessionRepository) Create(ctx context.Context, session *entities.Session) error {
	key, err := SessionKey(session.SessionID)
	if err != nil {
		return err
	}
	expires, err := time.Parse(time.RFC3339, session.ExpiresAt)
	if err != nil {
		return apperrors.NewValidationError("session expiry is not a valid RFC3339 timestamp")
	}

	av, err := attributevalue.MarshalMap(&sessionItem{
		PK:         key.PK,
		SK:         key.SK,
		EntityType: string(entities.EntityTypeSession),
		SessionID:  session.SessionID,
		UserID:     session.UserID,
		Email:      session.Email,
		CreatedAt:  session.CreatedAt,
		ExpiresAt:  session.ExpiresAt,
		TTL:        expires.Unix(),
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal session")
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(r.store.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	}

	err = r.store.write(ctx, "session.create", func(ctx context.Context) error {
		_, pErr := r.store.client.PutItem(ctx, input)
		return pErr
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return apperrors.NewAlreadyExistsError("session")
		}
		return err
	}

	r.store.logger.Info("Session created",
		zap.String("sessionID", session.SessionID),
		zap.String("userID", session.UserID),
	)
	return nil
}

// Get fetches a session and rejects it if expired, regardless of whether
// the store has reaped the row yet.
func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*entities.Session, error) {
	key, err := SessionKey(sessionID)
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
	err = r.store.withReadRetry(ctx, "session.get", func(ctx context.Context) error {
		var gErr error
		out, gErr = r.store.client.GetItem(ctx, input)
		return gErr
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, apperrors.NewNotFoundError("session")
	}

	var item sessionItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal session")
	}
	if item.EntityType != string(entities.EntityTypeSession) {
		return nil, apperrors.NewInternalError("row is not a session: " + item.EntityType)
	}

	expires, err := time.Parse(time.RFC3339, item.ExpiresAt)
	if err != nil || !expires.After(time.Now().UTC()) {
		return nil, apperrors.NewNotFoundError("session")
	}

	return &entities.Session{
		SessionID: item.SessionID,
		UserID:    item.UserID,
		Email:     item.Email,
		CreatedAt: item.CreatedAt,
		ExpiresAt: item.ExpiresAt,
	}, nil
}

// Delete removes a session row. Deleting an absent session is a no-op so
// logout is idempotent.
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	key, err := SessionKey(sessionID)
	if err != nil {
		return err
	}

	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(r.store.tableName),
		Key: map[string]types.AttributeValue{
			AttrPK: &types.AttributeValueMemberS{Value: key.PK},
			AttrSK: &types.AttributeValueMemberS{Value: key.SK},
		},
	}

	err = r.store.write(ctx, "session.delete", func(ctx context.Context) error {
		_, dErr := r.store.client.DeleteItem(ctx, input)
		return dErr
	})
	if err != nil {
		return err
	}

	r.store.logger.Info("Session deleted", zap.String("sessionID", sessionID))
	return nil
}
