package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"jamforge/catalog-api/model"
	"jamforge/catalog-api/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RequireAuth parses the bearer token from the Authorization header and
// aborts with 401 when it's missing or invalid. On success the viewer
// identity is stored on the context
func RequireAuth(d *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)

		tokenStr := bearerToken(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "No bearer token provided",
				"requestID": requestID,
			})
			return
		}

		viewer, err := resolveViewer(c, d, tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "token_invalid",
				"requestID": requestID,
			})
			return
		}

		c.Set("viewer", viewer)
		c.Set("userID", viewer.UserID)
		c.Next()
	}
}

// OptionalAuth resolves the viewer identity when credentials are
// present but lets anonymous requests through. When allowQueryToken is
// set, a token query parameter is accepted as well; that path exists
// only for the build proxy because a sandboxed iframe can't send
// headers. Invalid tokens degrade to anonymous so probing a private
// game looks exactly like the game not existing
func OptionalAuth(d *gorm.DB, allowQueryToken bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)

		if tokenStr == "" && allowQueryToken {
			tokenStr = c.Query("token")
			if tokenStr != "" {
				c.Set("queryToken", tokenStr)
			}
		}

		if tokenStr != "" {
			viewer, err := resolveViewer(c, d, tokenStr)
			if err == nil {
				c.Set("viewer", viewer)
				c.Set("userID", viewer.UserID)
			}
		}

		c.Next()
	}
}

// Viewer returns the identity set by the auth middleware, nil for
// anonymous requests
func Viewer(c *gin.Context) *service.Viewer {
	if v, ok := c.Get("viewer"); ok {
		return v.(*service.Viewer)
	}

	return nil
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}

	return ""
}

func resolveViewer(c *gin.Context, d *gorm.DB, tokenStr string) (*service.Viewer, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}

		return []byte(viper.GetString("jwt.secret")), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, errors.New("missing user_id claim")
	}

	// The token claims a superadmin flag but the database is
	// authoritative. This also rejects tokens of deleted accounts
	var user model.User
	err = d.Where("id = ?", userID).First(&user).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			zap.L().Error("Failed to check if user exists", zap.Error(err))
		}
		return nil, errors.New("unknown user")
	}

	return &service.Viewer{
		UserID:       user.ID,
		IsSuperAdmin: user.IsSuperAdmin,
	}, nil
}
