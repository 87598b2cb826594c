package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/reviewhub/internal/account"
	"github.com/geocoder89/reviewhub/internal/config"
	"github.com/geocoder89/reviewhub/internal/domain/token"
	"github.com/geocoder89/reviewhub/internal/domain/user"
	"github.com/geocoder89/reviewhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type AccountService interface {
	SignUp(ctx context.Context, name, email, password string) (user.User, error)
	VerifyEmail(ctx context.Context, userID, otp string) (account.Session, error)
	ResendVerification(ctx context.Context, userID string) error
	ForgotPassword(ctx context.Context, email string) error
	CheckResetToken(ctx context.Context, userID, secret string) (token.Token, error)
	ResetPassword(ctx context.Context, userID, secret, newPassword string) error
	SignIn(ctx context.Context, email, password string) (account.Session, error)
}

type UsersHandler struct {
	accounts AccountService
	timeout  time.Duration
}

func NewUsersHandler(accounts AccountService) *UsersHandler {
	return &UsersHandler{accounts: accounts, timeout: 5 * time.Second}
}

type SignUpRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,password"`
}

type VerifyEmailRequest struct {
	UserID string `json:"userId" binding:"required"`
	OTP    string `json:"OTP" binding:"required"`
}

type ResendVerificationRequest struct {
	UserID string `json:"userId" binding:"required"`
}

type ForgetPasswordRequest struct {
	Email string `json:"email" binding:"omitempty,email"`
}

type ResetTokenRequest struct {
	Token  string `json:"token" binding:"required"`
	UserID string `json:"userId" binding:"required"`
}

type ResetPasswordRequest struct {
	NewPassword string `json:"newPassword" binding:"required,password"`
	UserID      string `json:"userId" binding:"required"`
	Token       string `json:"token" binding:"required"`
}

type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserResponse is the public view of a user; Token is set only right after sign-in
// or verification.
type UserResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	IsVerified bool      `json:"isVerified"`
	Role       user.Role `json:"role"`
	Token      string    `json:"token,omitempty"`
}

func toUserResponse(u user.User, bearer string) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		IsVerified: u.IsVerified,
		Role:       u.Role,
		Token:      bearer,
	}
}

func (h *UsersHandler) Create(ctx *gin.Context) {
	var req SignUpRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	u, err := h.accounts.SignUp(cctx, req.Name, req.Email, req.Password)
	if err != nil {
		respondAccountError(ctx, err, "Could not create user")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"user": toUserResponse(u, "")})
}

func (h *UsersHandler) VerifyEmail(ctx *gin.Context) {
	var req VerifyEmailRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	sess, err := h.accounts.VerifyEmail(cctx, req.UserID, req.OTP)
	if err != nil {
		respondAccountError(ctx, err, "Could not verify email")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"user":    toUserResponse(sess.User, sess.Token),
		"message": "Your email is verified.",
	})
}

func (h *UsersHandler) ResendVerification(ctx *gin.Context) {
	var req ResendVerificationRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	if err := h.accounts.ResendVerification(cctx, req.UserID); err != nil {
		respondAccountError(ctx, err, "Could not send a new OTP")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "New OTP has been sent to your registered email account.",
	})
}

func (h *UsersHandler) ForgetPassword(ctx *gin.Context) {
	var req ForgetPasswordRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	if err := h.accounts.ForgotPassword(cctx, req.Email); err != nil {
		respondAccountError(ctx, err, "Could not send reset link")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Link sent to your email!"})
}

func (h *UsersHandler) VerifyResetToken(ctx *gin.Context) {
	var req ResetTokenRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	if _, err := h.accounts.CheckResetToken(cctx, req.UserID, req.Token); err != nil {
		respondAccountError(ctx, err, "Could not check reset token")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"valid": true})
}

func (h *UsersHandler) ResetPassword(ctx *gin.Context) {
	var req ResetPasswordRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	if err := h.accounts.ResetPassword(cctx, req.UserID, req.Token, req.NewPassword); err != nil {
		respondAccountError(ctx, err, "Could not reset password")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Password reset successfully, now you can use new password.",
	})
}

func (h *UsersHandler) SignIn(ctx *gin.Context) {
	var req SignInRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	sess, err := h.accounts.SignIn(cctx, req.Email, req.Password)
	if err != nil {
		respondAccountError(ctx, err, "Could not sign in")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": toUserResponse(sess.User, sess.Token)})
}

// IsAuth echoes the user resolved by the auth gate.
func (h *UsersHandler) IsAuth(ctx *gin.Context) {
	u, ok := middlewares.UserFromContext(ctx)
	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "unauthorized", "Missing identity context", nil)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": toUserResponse(u, "")})
}
