package middleware

import (
	"net/http"
	"strings"

	"gofleet/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// JWTClaims is the token payload. Role is one of requester, driver, courier
// or admin.
type JWTClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// AuthRequired validates the bearer token and sets user_id and user_role on
// the request context. Websocket upgrades also accept the token as a query
// parameter because browsers cannot set headers on the upgrade request.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}

		token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}

		claims, ok := token.Claims.(*JWTClaims)
		if !ok {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}
		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Set("user_role", claims.Role)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		if token := strings.TrimPrefix(header, "Bearer "); token != header {
			return token
		}
		return ""
	}
	return c.Query("token")
}

// RolesRequired restricts a route to the listed roles. It assumes
// AuthRequired already ran.
func RolesRequired(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		role := c.GetString("user_role")
		if !allowed[role] {
			c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": "insufficient role"})
			c.Abort()
			return
		}
		c.Next()
	}
}
