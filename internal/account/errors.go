package account

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidUserID     = errors.New("invalid user id")
	ErrEmailTaken        = errors.New("this email is already in use")
	ErrMissingEmail      = errors.New("email is missing")
	ErrAlreadyVerified   = errors.New("user is already verified")
	ErrTokenNotFound     = errors.New("token not found")
	ErrInvalidOTP        = errors.New("please submit a valid OTP")
	ErrAlreadyPending    = errors.New("only after one hour you can request for another token")
	ErrInvalidResetToken = errors.New("unauthorized access, invalid request")
	ErrPasswordReused    = errors.New("the new password must be different from the old one")
	ErrPasswordMismatch  = errors.New("email/password mismatch")
	ErrPasswordTooLong   = errors.New("password must be at most 72 bytes")
)
