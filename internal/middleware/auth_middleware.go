package middleware

import (
	"myPropertyHub/pkg/logger"
	"myPropertyHub/pkg/utils"
	"net/http"
	"strconv"
	"strings"

	jsonres "myPropertyHub/pkg/response"

	"github.com/labstack/echo/v4"
)

// AuthMiddleware verifies the bearer token issued by the identity service and
// puts user_id (uint) and role on the echo context.
func AuthMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return c.JSON(http.StatusUnauthorized, jsonres.Error(
					"UNAUTHORIZED", "Missing authorization header", nil,
				))
			}

			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return c.JSON(http.StatusUnauthorized, jsonres.Error(
					"UNAUTHORIZED", "Invalid authorization format", nil,
				))
			}

			// expiry is checked by the parser
			claims, err := utils.ParseJWT(tokenParts[1], secret)
			if err != nil {
				logger.Debug("auth_token_rejected",
					"trace_id", c.Response().Header().Get(echo.HeaderXRequestID),
					"error", err,
				)
				return c.JSON(http.StatusUnauthorized, jsonres.Error(
					"UNAUTHORIZED", "Invalid token", nil,
				))
			}

			userID, err := strconv.ParseUint(claims.UserID, 10, 64)
			if err != nil || userID == 0 {
				return c.JSON(http.StatusForbidden, jsonres.Error(
					"FORBIDDEN", "Invalid user ID in token", nil,
				))
			}

			c.Set("user_id", uint(userID))
			c.Set("role", claims.Role)

			return next(c)
		}
	}
}
