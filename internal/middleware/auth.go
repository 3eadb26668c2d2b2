package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
)

// ContextUserKey is the gin context key holding the authenticated subject.
const ContextUserKey = "user_id"

// ErrMissingAuthHeader means the request carried no Authorization header.
var ErrMissingAuthHeader = errors.New("missing Authorization header")

// Auth returns middleware that requires an HS256 bearer token signed with
// jwtSecret. An empty secret disables authentication.
func Auth(jwtSecret string) gin.HandlerFunc {
	if jwtSecret == "" {
		logrus.Warn("Auth middleware: JWT_SECRET not set, write routes are unauthenticated")
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		tokenStr, err := extractToken(c)
		if err != nil {
			if errors.Is(err, ErrMissingAuthHeader) {
				logrus.Warn("Auth middleware: Missing Authorization header")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			} else {
				logrus.WithError(err).Warn("Auth middleware: Malformed token format")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format"})
			}
			return
		}

		claims, err := validateToken(tokenStr, jwtSecret)
		if err != nil {
			logCtx := logrus.WithError(err)
			logCtx.Warn("Auth middleware: Invalid token")
			var validationError *jwt.ValidationError
			if errors.As(err, &validationError) {
				if validationError.Errors&jwt.ValidationErrorExpired != 0 {
					logCtx.Warn("Reason: Token is expired")
				}
				if validationError.Errors&jwt.ValidationErrorSignatureInvalid != 0 {
					logCtx.Warn("Reason: Token signature is invalid")
				}
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		subject := subjectOf(claims)
		if subject == "" {
			logrus.Warn("Auth middleware: token has no subject")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token has no subject"})
			return
		}
		c.Set(ContextUserKey, subject)
		logrus.WithField("user_id", subject).Debug("Auth middleware: User authenticated via JWT")
		c.Next()
	}
}

// subjectOf reads "sub", falling back to a string or numeric "user_id".
func subjectOf(claims jwt.MapClaims) string {
	if sub, ok := claims["sub"].(string); ok && sub != "" {
		return sub
	}
	switch v := claims["user_id"].(type) {
	case string:
		return v
	case float64:
		if v > 0 && v == float64(uint64(v)) {
			return fmt.Sprintf("%d", uint64(v))
		}
	}
	return ""
}

func extractToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", jwt.ErrTokenMalformed
	}
	return parts[1], nil
}

func validateToken(tokenStr string, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token or claims type")
}
