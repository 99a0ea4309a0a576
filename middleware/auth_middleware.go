package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"portfolio/api/utils"
)

// ContextKeyAdminEmail holds the authenticated admin's email on the gin context.
const ContextKeyAdminEmail = "admin_email"

const tokenCookie = "jwt_token"

// AdminChecker confirms that a token subject is still the admin account.
type AdminChecker interface {
	IsAdmin(email string) bool
}

// AdminRequired rejects requests without a valid admin token.
// The token is read from the Authorization bearer header, then from the jwt_token cookie.
func AdminRequired(issuer *utils.TokenIssuer, admins AdminChecker, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		if tokenString == "" {
			if cookie, err := c.Cookie(tokenCookie); err == nil {
				tokenString = cookie
			}
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: No token provided"})
			return
		}

		claims, err := issuer.Validate(tokenString)
		if err != nil {
			logger.WithError(err).WithField("path", c.Request.URL.Path).Info("rejected admin token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Could not validate credentials"})
			return
		}
		if !admins.IsAdmin(claims.Email) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Could not validate credentials"})
			return
		}

		c.Set(ContextKeyAdminEmail, claims.Email)
		c.Next()
	}
}
