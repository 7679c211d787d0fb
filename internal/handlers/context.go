package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/onswift/backend/internal/middleware"
	"github.com/onswift/backend/internal/services"
	"github.com/onswift/backend/pkg/errors"
	"github.com/onswift/backend/pkg/response"
)

// actorResolver loads the role bound view of the authenticated user.
type actorResolver interface {
	ResolveActor(ctx context.Context, userID string) (services.Actor, error)
}

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// currentUserID returns the authenticated user id or writes a 401.
func currentUserID(c *gin.Context) (string, bool) {
	userID := strings.TrimSpace(c.GetString(middleware.CtxUserIDKey))
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return "", false
	}
	return userID, true
}

func currentActor(c *gin.Context, users actorResolver) (services.Actor, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		return nil, false
	}
	actor, err := users.ResolveActor(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return actor, true
}

func currentCreator(c *gin.Context, users actorResolver) (*services.Creator, bool) {
	actor, ok := currentActor(c, users)
	if !ok {
		return nil, false
	}
	creator, err := services.AsCreator(actor)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return creator, true
}

func currentTalent(c *gin.Context, users actorResolver) (*services.Talent, bool) {
	actor, ok := currentActor(c, users)
	if !ok {
		return nil, false
	}
	talent, err := services.AsTalent(actor)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return talent, true
}
