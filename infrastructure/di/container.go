package di

import (
	"go.uber.org/zap"

	"lumina-backend/application/services"
	"lumina-backend/infrastructure/config"
	"lumina-backend/interfaces/http/rest"
	"lumina-backend/pkg/auth"
	"lumina-backend/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	Auth         *services.AuthService
	Users        *services.UserService
	Albums       *services.AlbumService
	Media        *services.MediaService
	Comments     *services.CommentService
	Interactions *services.InteractionService
	Router       *rest.Router
	Metrics      *observability.Metrics
	Tracer       *observability.Tracer
	TokenIssuer  *auth.TokenIssuer
}
