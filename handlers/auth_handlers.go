package handlers

import (
	"net/http"
	"time"

	"emperror.dev/errors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"portfolio/api/middleware"
	"portfolio/api/models"
	"portfolio/api/store"
	"portfolio/api/utils"
)

const tokenCookie = "jwt_token"

// AdminAccounts authenticates the admin and changes its password.
type AdminAccounts interface {
	Authenticate(email, password string) (models.Admin, error)
	ChangePassword(oldPassword, newPassword string) error
}

type AuthHandlers struct {
	Admins AdminAccounts
	Issuer *utils.TokenIssuer
	logger logrus.FieldLogger
}

func NewAuthHandlers(admins AdminAccounts, issuer *utils.TokenIssuer, logger logrus.FieldLogger) *AuthHandlers {
	return &AuthHandlers{Admins: admins, Issuer: issuer, logger: logger}
}

// Login accepts JSON or an OAuth2 password form and issues an admin token.
func (h *AuthHandlers) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	admin, err := h.Admins.Authenticate(req.Email, req.Password)
	if err != nil {
		h.logger.WithField("email", req.Email).Info("admin login failed")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect email or password"})
		return
	}

	tokenString, _, err := h.Issuer.Issue(admin.Email)
	if err != nil {
		h.logger.WithError(err).Error("failed to issue admin token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate authentication token"})
		return
	}

	c.SetCookie(
		tokenCookie,
		tokenString,
		int(h.Issuer.TTL()/time.Second),
		"/",
		"",
		false,
		true,
	)

	h.logger.WithField("email", admin.Email).Info("admin logged in")
	c.JSON(http.StatusOK, gin.H{
		"access_token": tokenString,
		"token_type":   "bearer",
		"success":      true,
	})
}

func (h *AuthHandlers) ChangePassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	err := h.Admins.ChangePassword(req.OldPassword, req.NewPassword)
	switch {
	case errors.Is(err, store.ErrWrongPassword):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Old password is incorrect."})
		return
	case errors.Is(err, store.ErrWeakPassword):
		c.JSON(http.StatusBadRequest, gin.H{"error": "New password must be at least 6 characters."})
		return
	case err != nil:
		h.logger.WithError(err).Error("failed to change admin password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change password"})
		return
	}

	h.logger.WithField("email", c.GetString(middleware.ContextKeyAdminEmail)).Info("admin password changed")
	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully.", "success": true})
}

func (h *AuthHandlers) Logout(c *gin.Context) {
	c.SetCookie(tokenCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully", "success": true})
}
