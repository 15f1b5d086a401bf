package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/hrops-platform/hrops-api/internal/middleware"
	"github.com/hrops-platform/hrops-api/internal/models"
	"github.com/hrops-platform/hrops-api/internal/workflow"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.Claims(c)
	if !ok {
		return nil
	}
	return claims
}

// actorFromClaims builds the workflow actor carried through lifecycle
// operations. Permissions come from the token, so guard checks need no user
// lookup.
func actorFromClaims(claims *models.JWTClaims) workflow.Actor {
	return workflow.Actor{
		ID:          claims.UserID,
		Role:        claims.Role,
		Permissions: claims.Permissions,
	}
}

func requestMeta(c *gin.Context) models.LoginRequest {
	return models.LoginRequest{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
}
