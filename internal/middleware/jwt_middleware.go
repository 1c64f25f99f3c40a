package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// JWTMiddleware guards the mutating endpoints. Tokens are HS256, signed with
// the shared secret from config; the subject claim, when present, is exposed
// to handlers as "client_id".
func JWTMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  "error",
				"message": "Authorization header required",
			})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  "error",
				"message": "Invalid authorization format",
			})
			c.Abort()
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			if secret == "" {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return []byte(secret), nil
		})

		if err != nil {
			message := "Token validation failed"
			switch {
			case errors.Is(err, jwt.ErrTokenExpired):
				message = "Token has expired"
			case errors.Is(err, jwt.ErrTokenNotValidYet):
				message = "Token not valid yet"
			case errors.Is(err, jwt.ErrTokenSignatureInvalid):
				message = "Invalid token signature"
			case errors.Is(err, jwt.ErrTokenMalformed):
				message = "Token is malformed"
			}
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  "error",
				"message": message,
			})
			c.Abort()
			return
		}

		if !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  "error",
				"message": "Invalid token",
			})
			c.Abort()
			return
		}

		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			if sub, err := claims.GetSubject(); err == nil && sub != "" {
				c.Set("client_id", sub)
			}
		}

		c.Next()
	}
}
