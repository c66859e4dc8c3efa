package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ericogr/duel-arena/internal/constants"
)

// bearerToken reads the token from the Authorization header, falling back
// to the token query parameter for browser websocket clients.
func bearerToken(c *gin.Context) string {
	if h := c.GetHeader(constants.HeaderAuthorization); strings.HasPrefix(h, constants.BearerPrefix) {
		return strings.TrimPrefix(h, constants.BearerPrefix)
	}
	return c.Query(constants.QueryToken)
}

// AuthRequired validates the session token and injects identity into context.
func AuthRequired(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{constants.JSONKeyError: constants.ErrAuthRequired})
			return
		}
		claims, err := parseAndValidateSession(token, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{constants.JSONKeyError: constants.ErrInvalidSession})
			return
		}
		c.Set(constants.CtxParticipantID, claims.Subject)
		c.Set(constants.CtxParticipantName, claims.Name)
		c.Next()
	}
}
