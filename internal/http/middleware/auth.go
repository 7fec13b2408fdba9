package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"salonbackend/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const requestContextKey = "request_context"

// AuthOptional attaches the caller's identity when a valid bearer token is sent.
// Requests without a token pass through; a bad token is rejected.
func AuthOptional(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || len(key) == 0 {
			c.Next()
			return
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			abortUnauthorized(c, "authorization header must be a bearer token")
			return
		}

		rc, err := parseToken(strings.TrimSpace(raw), key)
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}
		c.Set(requestContextKey, rc)
		c.Next()
	}
}

// GetRequestContext returns the authenticated caller, if any.
func GetRequestContext(c *gin.Context) (domain.RequestContext, bool) {
	if c == nil {
		return domain.RequestContext{}, false
	}
	v, ok := c.Get(requestContextKey)
	if !ok {
		return domain.RequestContext{}, false
	}
	rc, ok := v.(domain.RequestContext)
	return rc, ok
}

func parseToken(raw string, key []byte) (domain.RequestContext, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}), jwt.WithExpirationRequired())
	if err != nil {
		return domain.RequestContext{}, err
	}

	id, err := claimInt(claims["user_id"])
	if err != nil {
		return domain.RequestContext{}, err
	}
	role, _ := claims["role"].(string)
	return domain.RequestContext{UserID: domain.ID(id), Role: role}, nil
}

func claimInt(v any) (int64, error) {
	switch n := v.(type) {
	case float64:
		return int64(n), nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	case nil:
		return 0, errors.New("user_id claim missing")
	default:
		return 0, fmt.Errorf("unexpected user_id claim type %T", v)
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":      msg,
		"code":       "unauthorized",
		"request_id": GetRequestID(c),
	})
}
