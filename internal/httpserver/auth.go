package httpserver

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/kevinmiles/Enceladus-API/internal/apperr"
	"github.com/kevinmiles/Enceladus-API/internal/domain"
)

const contextKeyUser = "user"

// Claims is the bearer token payload. Tokens never expire; possession
// equals the account, which is why refresh tokens live server-side only.
type Claims struct {
	UserID int32 `json:"user_id"`
	jwt.RegisteredClaims
}

func (s *Server) issueToken(userID int32) (string, error) {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

func (s *Server) parseToken(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// requireAuth resolves the Authorization bearer token to a user and
// stashes it in the request context. The lookup goes through the user
// cache, so repeated requests by the same account stay cheap.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return apperr.UnauthorizedError("missing bearer token")
		}

		claims, err := s.parseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			return apperr.UnauthorizedError("invalid bearer token")
		}

		user, err := s.service.GetUser(c.Request().Context(), claims.UserID)
		if err != nil {
			return apperr.UnauthorizedError("unknown user")
		}

		c.Set(contextKeyUser, user)
		return next(c)
	}
}

func currentUser(c echo.Context) *domain.User {
	user, _ := c.Get(contextKeyUser).(*domain.User)
	return user
}
