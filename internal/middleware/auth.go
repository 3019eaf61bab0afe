package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lexlink/chat-backend/internal/common"
	"github.com/lexlink/chat-backend/internal/domain"
	"github.com/lexlink/chat-backend/pkg/jwt"
)

const (
	ctxUserID   = "userID"
	ctxUserKind = "userKind"
	ctxUserName = "userName"
)

// JWTAuth JWT authentication middleware
func JWTAuth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ExtractToken(c)
		if tokenString == "" {
			common.ErrorResponse(c, 401, "Missing authorization token", nil)
			c.Abort()
			return
		}

		claims, err := jwtManager.VerifyToken(tokenString)
		if err != nil {
			if errors.Is(err, jwt.ErrExpiredToken) {
				common.ErrorResponse(c, 401, "Token expired", err)
			} else {
				common.ErrorResponse(c, 401, "Invalid token", err)
			}
			c.Abort()
			return
		}

		kind, err := domain.ParseKind(claims.UserType)
		if err != nil {
			common.ErrorResponse(c, 401, "Invalid token", err)
			c.Abort()
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxUserKind, kind)
		c.Set(ctxUserName, claims.Name)

		c.Next()
	}
}

// ExtractToken pulls the bearer token from the Authorization header, or
// from the token query parameter for websocket upgrades (browsers cannot
// set headers on the WebSocket constructor).
func ExtractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	return c.Query("token")
}

// GetIdentity extracts the authenticated chat identity from context.
// Returns a zero identity when the request is unauthenticated.
func GetIdentity(c *gin.Context) domain.Identity {
	id, ok := c.Get(ctxUserID)
	if !ok {
		return domain.Identity{}
	}
	kind, ok := c.Get(ctxUserKind)
	if !ok {
		return domain.Identity{}
	}
	uid, _ := id.(int)
	k, _ := kind.(domain.Kind)
	return domain.Identity{ID: uid, Kind: k}
}

// GetUserName extracts the display name from context
func GetUserName(c *gin.Context) string {
	name, exists := c.Get(ctxUserName)
	if !exists {
		return ""
	}
	if str, ok := name.(string); ok {
		return str
	}
	return ""
}
