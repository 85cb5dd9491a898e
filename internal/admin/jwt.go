package admin

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// issueToken 为管理用户签发HS256令牌
func (a *API) issueToken(username string) (string, int, error) {
	cfg := a.store.Get()
	jwtCfg := cfg.Security.Auth.JWT

	expiry := jwtCfg.ExpiryMinutes
	if expiry <= 0 {
		expiry = 60
	}

	claims := jwt.RegisteredClaims{
		Subject:   username,
		Issuer:    jwtCfg.Issuer,
		Audience:  jwt.ClaimStrings{jwtCfg.Audience},
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(expiry) * time.Minute)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(jwtCfg.Secret))
	if err != nil {
		return "", 0, err
	}
	return signed, expiry * 60, nil
}

// authMiddleware 校验管理接口的Bearer JWT
func (a *API) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ApiResponse{
				Success: false,
				Message: "Missing or invalid authorization header",
			})
			return
		}

		cfg := a.store.Get()
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(cfg.Security.Auth.JWT.Secret), nil
		}, jwt.WithIssuer(cfg.Security.Auth.JWT.Issuer))
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ApiResponse{
				Success: false,
				Message: "Invalid or expired token",
			})
			return
		}

		if claims, ok := token.Claims.(*jwt.RegisteredClaims); ok {
			c.Set("admin_user", claims.Subject)
		}
		c.Next()
	}
}
