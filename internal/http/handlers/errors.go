package handlers

import (
	"errors"
	"net/http"

	"github.com/geocoder89/reviewhub/internal/account"
	"github.com/gin-gonic/gin"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// account errors in taxonomy order: validation, not found, conflict, invalid credential
var accountErrors = []errorMapping{
	{account.ErrInvalidUserID, http.StatusBadRequest, "invalid_user"},
	{account.ErrMissingEmail, http.StatusBadRequest, "invalid_request"},
	{account.ErrPasswordTooLong, http.StatusBadRequest, "validation_failed"},

	{account.ErrUserNotFound, http.StatusNotFound, "user_not_found"},
	{account.ErrTokenNotFound, http.StatusNotFound, "token_not_found"},

	{account.ErrEmailTaken, http.StatusBadRequest, "email_taken"},
	{account.ErrAlreadyVerified, http.StatusBadRequest, "already_verified"},
	{account.ErrAlreadyPending, http.StatusBadRequest, "token_already_issued"},
	{account.ErrPasswordReused, http.StatusBadRequest, "password_reused"},

	{account.ErrInvalidOTP, http.StatusBadRequest, "invalid_otp"},
	{account.ErrInvalidResetToken, http.StatusBadRequest, "invalid_reset_token"},
	{account.ErrPasswordMismatch, http.StatusBadRequest, "invalid_credentials"},
}

// respondAccountError writes the envelope for a known account error, or a 500.
func respondAccountError(ctx *gin.Context, err error, fallback string) {
	for _, m := range accountErrors {
		if errors.Is(err, m.err) {
			RespondError(ctx, m.status, m.code, m.err.Error(), nil)
			return
		}
	}

	_ = ctx.Error(err)
	RespondInternal(ctx, fallback)
}
