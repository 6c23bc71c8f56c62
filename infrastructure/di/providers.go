// Package di wires the application together. Providers are plain
// constructors; wire.go composes them for generation and container.go
// composes them by hand.
package di

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"lumina-backend/application/ports"
	"lumina-backend/application/services"
	"lumina-backend/infrastructure/config"
	"lumina-backend/infrastructure/messaging/eventbridge"
	"lumina-backend/infrastructure/persistence/dynamodb"
	"lumina-backend/interfaces/http/rest"
	"lumina-backend/pkg/auth"
	"lumina-backend/pkg/observability"
)

// Login throttling limits per client address.
const (
	loginAttempts        = 5
	loginAttemptRefill   = time.Minute
	developmentJWTSecret = "development-secret-change-in-production"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideStore creates the single-table store with the physical index
// names from configuration.
func ProvideStore(client *awsdynamodb.Client, cfg *config.Config, metrics *observability.Metrics, tracer *observability.Tracer, logger *zap.Logger) *dynamodb.Store {
	indexes := dynamodb.Indexes{
		Chronological: cfg.ChronologicalIndex,
		ByCreator:     cfg.ByCreatorIndex,
		ByGlobalID:    cfg.ByGlobalIDIndex,
		ByTarget:      cfg.ByTargetIndex,
	}
	return dynamodb.NewStore(client, cfg.DynamoDBTable, indexes, metrics, tracer, logger)
}

// ProvideAlbumRepository creates an album repository
func ProvideAlbumRepository(store *dynamodb.Store) ports.AlbumRepository {
	return dynamodb.NewAlbumRepository(store)
}

// ProvideMediaRepository creates a media repository
func ProvideMediaRepository(store *dynamodb.Store) ports.MediaRepository {
	return dynamodb.NewMediaRepository(store)
}

// ProvideUserRepository creates a user repository
func ProvideUserRepository(store *dynamodb.Store) ports.UserRepository {
	return dynamodb.NewUserRepository(store)
}

// ProvideCommentRepository creates a comment repository
func ProvideCommentRepository(store *dynamodb.Store) ports.CommentRepository {
	return dynamodb.NewCommentRepository(store)
}

// ProvideInteractionRepository creates an interaction repository
func ProvideInteractionRepository(store *dynamodb.Store) ports.InteractionRepository {
	return dynamodb.NewInteractionRepository(store)
}

// ProvideSessionRepository creates a session repository
func ProvideSessionRepository(store *dynamodb.Store) ports.SessionRepository {
	return dynamodb.NewSessionRepository(store)
}

// ProvideCounterStore creates the denormalized counter maintainer
func ProvideCounterStore(store *dynamodb.Store) ports.CounterStore {
	return dynamodb.NewCounters(store)
}

// ProvideEventPublisher creates the revalidation event publisher
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, metrics *observability.Metrics, logger *zap.Logger) ports.EventPublisher {
	return eventbridge.NewPublisher(client, cfg.EventBusName, metrics, logger)
}

// ProvideMetrics creates a metrics emitter, or nil when metrics are
// disabled; a nil emitter is a valid no-op.
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) *observability.Metrics {
	if !cfg.EnableMetrics {
		return nil
	}
	namespace := fmt.Sprintf("Lumina/%s", cfg.Environment)
	return observability.NewMetrics(namespace, client, logger)
}

// ProvideTracer creates a tracer, or nil when tracing is disabled; a
// nil tracer is a valid no-op.
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	if !cfg.EnableTracing {
		return nil
	}
	return observability.NewTracer("lumina-backend")
}

// ProvideTokenIssuer creates the session token issuer
func ProvideTokenIssuer(cfg *config.Config) (*auth.TokenIssuer, error) {
	secret := cfg.JWTSecret
	if secret == "" && !cfg.IsProduction() {
		secret = developmentJWTSecret
	}
	ttl := time.Duration(cfg.SessionTTLDays) * 24 * time.Hour
	return auth.NewTokenIssuer(secret, cfg.JWTIssuer, ttl)
}

// ProvideLoginLimiter creates the credential attempt throttle
func ProvideLoginLimiter(cfg *config.Config) *auth.LoginLimiter {
	return auth.NewLoginLimiter(loginAttempts, loginAttemptRefill)
}

// ProvideUserService creates the user service
func ProvideUserService(users ports.UserRepository, logger *zap.Logger) *services.UserService {
	return services.NewUserService(users, logger)
}

// ProvideAuthService creates the auth service
func ProvideAuthService(
	users *services.UserService,
	sessions ports.SessionRepository,
	tokens *auth.TokenIssuer,
	limiter *auth.LoginLimiter,
	logger *zap.Logger,
) *services.AuthService {
	return services.NewAuthService(users, sessions, tokens, limiter, logger)
}

// ProvideAlbumService creates the album service
func ProvideAlbumService(
	albums ports.AlbumRepository,
	media ports.MediaRepository,
	counters ports.CounterStore,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *services.AlbumService {
	return services.NewAlbumService(albums, media, counters, publisher, logger)
}

// ProvideMediaService creates the media service
func ProvideMediaService(
	media ports.MediaRepository,
	albums ports.AlbumRepository,
	counters ports.CounterStore,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *services.MediaService {
	return services.NewMediaService(media, albums, counters, publisher, logger)
}

// ProvideCommentService creates the comment service
func ProvideCommentService(
	comments ports.CommentRepository,
	interactions ports.InteractionRepository,
	albums ports.AlbumRepository,
	media ports.MediaRepository,
	logger *zap.Logger,
) *services.CommentService {
	return services.NewCommentService(comments, interactions, albums, media, logger)
}

// ProvideInteractionService creates the interaction service
func ProvideInteractionService(
	interactions ports.InteractionRepository,
	albums ports.AlbumRepository,
	media ports.MediaRepository,
	comments ports.CommentRepository,
	counters ports.CounterStore,
	logger *zap.Logger,
) *services.InteractionService {
	return services.NewInteractionService(interactions, albums, media, comments, counters, logger)
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	cfg *config.Config,
	authSvc *services.AuthService,
	users *services.UserService,
	albums *services.AlbumService,
	media *services.MediaService,
	comments *services.CommentService,
	interactions *services.InteractionService,
	metrics *observability.Metrics,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(cfg, authSvc, users, albums, media, comments, interactions, metrics, tracer, logger)
}
