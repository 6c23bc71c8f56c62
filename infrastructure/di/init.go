//go:build !wireinject
// +build !wireinject

package di

import (
	"context"

	"lumina-backend/infrastructure/config"
)

// InitializeContainer creates a fully wired container. Hand-wired
// equivalent of the wire provider set.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, err
	}

	awsCfg, err := ProvideAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	dynamoClient := ProvideDynamoDBClient(awsCfg)
	eventBridgeClient := ProvideEventBridgeClient(awsCfg)
	cloudWatchClient := ProvideCloudWatchClient(awsCfg)

	metrics := ProvideMetrics(cloudWatchClient, cfg, logger)
	tracer := ProvideTracer(cfg)

	store := ProvideStore(dynamoClient, cfg, metrics, tracer, logger)
	albumRepo := ProvideAlbumRepository(store)
	mediaRepo := ProvideMediaRepository(store)
	userRepo := ProvideUserRepository(store)
	commentRepo := ProvideCommentRepository(store)
	interactionRepo := ProvideInteractionRepository(store)
	sessionRepo := ProvideSessionRepository(store)
	counters := ProvideCounterStore(store)
	publisher := ProvideEventPublisher(eventBridgeClient, cfg, metrics, logger)

	tokenIssuer, err := ProvideTokenIssuer(cfg)
	if err != nil {
		return nil, err
	}
	limiter := ProvideLoginLimiter(cfg)

	userSvc := ProvideUserService(userRepo, logger)
	authSvc := ProvideAuthService(userSvc, sessionRepo, tokenIssuer, limiter, logger)
	albumSvc := ProvideAlbumService(albumRepo, mediaRepo, counters, publisher, logger)
	mediaSvc := ProvideMediaService(mediaRepo, albumRepo, counters, publisher, logger)
	commentSvc := ProvideCommentService(commentRepo, interactionRepo, albumRepo, mediaRepo, logger)
	interactionSvc := ProvideInteractionService(interactionRepo, albumRepo, mediaRepo, commentRepo, counters, logger)

	router := ProvideRouter(cfg, authSvc, userSvc, albumSvc, mediaSvc, commentSvc, interactionSvc, metrics, tracer, logger)

	return &Container{
		Config:       cfg,
		Logger:       logger,
		Auth:         authSvc,
		Users:        userSvc,
		Albums:       albumSvc,
		Media:        mediaSvc,
		Comments:     commentSvc,
		Interactions: interactionSvc,
		Router:       router,
		Metrics:      metrics,
		Tracer:       tracer,
		TokenIssuer:  tokenIssuer,
	}, nil
}
