package handlers

import (
	"errors"
	"net/http"

	"github.com/developia-II/vendora-onboarding/internal/core/domain"
	"github.com/developia-II/vendora-onboarding/internal/middleware"
	"github.com/developia-II/vendora-onboarding/internal/services/account"
	"github.com/developia-II/vendora-onboarding/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

var validate = validator.New()

type AuthHandler struct {
	accounts *account.Service
}

func NewAuthHandler(accounts *account.Service) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

type registerRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	Role            string `json:"role" validate:"required,oneof=customer vendor"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type userView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func authPayload(u *domain.User, tokens account.Tokens) gin.H {
	return gin.H{
		"user":   userView{ID: u.ID, Email: u.Email, Role: u.Role},
		"tokens": tokens,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid JSON format"))
		return
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Validation failed: "+err.Error()))
		return
	}

	u, tokens, err := h.accounts.Register(c.Request.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		if errors.Is(err, account.ErrEmailTaken) {
			c.JSON(http.StatusConflict, utils.ErrorResponse(err.Error()))
			return
		}
		logrus.WithError(err).Error("register failed")
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to create account"))
		return
	}
	c.JSON(http.StatusCreated, utils.SuccessResponse("Account created. Check your email for the verification code.", authPayload(u, tokens)))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid JSON format"))
		return
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Validation failed: "+err.Error()))
		return
	}

	u, tokens, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, account.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, utils.ErrorResponse(err.Error()))
			return
		}
		logrus.WithError(err).Error("login failed")
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Login failed"))
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Login successful", authPayload(u, tokens)))
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || validate.Struct(req) != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("refresh_token is required"))
		return
	}

	tokens, err := h.accounts.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utils.ErrorResponse("Invalid or expired refresh token"))
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Token refreshed", gin.H{"tokens": tokens}))
}

func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req struct {
		OTP string `json:"otp" validate:"required,len=6,numeric"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid JSON format"))
		return
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("OTP must be 6 digits"))
		return
	}

	err := h.accounts.VerifyOTP(c.Request.Context(), c.GetString(middleware.CtxUserID), req.OTP)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true, "verified": true, "message": "Verification successful"})
	case errors.Is(err, domain.ErrInvalidCode):
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid OTP"))
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, utils.ErrorResponse("OTP expired or not found. Request a new code."))
	default:
		logrus.WithError(err).Error("otp verification failed")
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Verification failed"))
	}
}

func (h *AuthHandler) ResendOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || validate.Struct(req) != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("A valid email is required"))
		return
	}

	err := h.accounts.ResendOTP(c.Request.Context(), req.Email)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, utils.SuccessResponse("A new code has been sent to your email", nil))
	case errors.Is(err, domain.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, utils.ErrorResponse("Please wait before requesting another code"))
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, utils.ErrorResponse("No account found for this email"))
	default:
		logrus.WithError(err).Error("otp resend failed")
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Could not resend code"))
	}
}
