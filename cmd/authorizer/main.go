// Package main implements the API Gateway Lambda authorizer. It
// resolves the session token through the same path the HTTP middleware
// uses and answers with an IAM policy; the resolved identity rides in
// the policy context so the backend never resolves twice.
package main

import (
	"context"
	"log"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"lumina-backend/infrastructure/config"
	"lumina-backend/infrastructure/di"
	"lumina-backend/pkg/auth"
)

// container holds the dependency injection container
var container *di.Container

// init runs during cold start
func init() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err = di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	log.Println("Authorizer initialized")
}

// extractToken pulls the session token from the authorizer request:
// the Authorization header or the session cookie.
func extractToken(req events.APIGatewayCustomAuthorizerRequestTypeRequest, cookieName string) string {
	authHeader := req.Headers["authorization"]
	if authHeader == "" {
		authHeader = req.Headers["Authorization"]
	}
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}

	cookieHeader := req.Headers["cookie"]
	if cookieHeader == "" {
		cookieHeader = req.Headers["Cookie"]
	}
	for _, part := range strings.Split(cookieHeader, ";") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) == 2 && kv[0] == cookieName {
			return kv[1]
		}
	}
	return ""
}

// handler authorizes one gateway request. Every failure path denies;
// the authorizer never errors out, because a raised error surfaces to
// the client as a 500 instead of a 403.
func handler(ctx context.Context, req events.APIGatewayCustomAuthorizerRequestTypeRequest) (events.APIGatewayCustomAuthorizerResponse, error) {
	token := extractToken(req, container.Config.SessionCookie)
	if token == "" {
		return auth.DenyPolicy(req.MethodArn), nil
	}

	identity, err := container.Auth.Resolve(ctx, token)
	if err != nil {
		container.Logger.Debug("Authorizer rejected token", zap.Error(err))
		return auth.DenyPolicy(req.MethodArn), nil
	}

	// Best effort; the gateway caches authorizer results, so the
	// activity stamp is approximate.
	container.Users.TouchLastActive(ctx, identity.UserID)

	policy, err := auth.AllowPolicy(identity.UserID, req.MethodArn, map[string]interface{}{
		"userID":    identity.UserID,
		"email":     identity.Email,
		"role":      string(identity.Role),
		"sessionID": identity.SessionID,
	})
	if err != nil {
		container.Logger.Warn("Failed to build allow policy",
			zap.String("methodArn", req.MethodArn),
			zap.Error(err),
		)
		return auth.DenyPolicy(req.MethodArn), nil
	}
	return policy, nil
}

func main() {
	lambda.Start(handler)
}
