// Package account runs the signup, verification, password reset and sign-in flows
// on top of the credential and one-time token stores.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/geocoder89/reviewhub/internal/auth"
	"github.com/geocoder89/reviewhub/internal/credentials"
	"github.com/geocoder89/reviewhub/internal/domain/token"
	"github.com/geocoder89/reviewhub/internal/domain/user"
	"github.com/geocoder89/reviewhub/internal/notifications"
	"github.com/geocoder89/reviewhub/internal/onetime"
	"github.com/geocoder89/reviewhub/internal/security"
)

// Mailer queues a message for delivery without waiting on it.
type Mailer interface {
	Dispatch(msg notifications.Message) error
}

type BearerIssuer interface {
	IssueBearerToken(userID string) (string, error)
}

// Session is a user together with a freshly signed bearer token.
type Session struct {
	User  user.User
	Token string
}

type Service struct {
	creds     *credentials.Store
	otps      *onetime.Store
	resets    *onetime.Store
	tokens    BearerIssuer
	mail      Mailer
	templates notifications.Templates
	log       *slog.Logger

	otpLength int
	newOTP    func(length int) string
	newSecret func() (string, error)
}

type Deps struct {
	Credentials *credentials.Store
	OTPs        *onetime.Store
	Resets      *onetime.Store
	Tokens      BearerIssuer
	Mail        Mailer
	Templates   notifications.Templates
	Log         *slog.Logger
	OTPLength   int
}

func NewService(d Deps) *Service {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		creds:     d.Credentials,
		otps:      d.OTPs,
		resets:    d.Resets,
		tokens:    d.Tokens,
		mail:      d.Mail,
		templates: d.Templates,
		log:       log,
		otpLength: d.OTPLength,
		newOTP:    auth.GenerateOneTimeCode,
		newSecret: auth.GenerateOpaqueSecret,
	}
}

// SignUp creates an unverified user and mails a verification code.
func (s *Service) SignUp(ctx context.Context, name, email, password string) (user.User, error) {
	u, err := s.creds.CreateUser(ctx, name, email, password)
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			return user.User{}, ErrEmailTaken
		}
		if errors.Is(err, security.ErrPasswordTooLong) {
			return user.User{}, ErrPasswordTooLong
		}
		return user.User{}, fmt.Errorf("create user: %w", err)
	}

	if err := s.sendOTP(ctx, u); err != nil {
		return user.User{}, err
	}
	return u, nil
}

// VerifyEmail checks otp against the user's live verification token. On success the
// user is verified, the token is consumed and a bearer token is returned.
func (s *Service) VerifyEmail(ctx context.Context, userID, otp string) (Session, error) {
	u, err := s.findUser(ctx, userID)
	if err != nil {
		return Session{}, err
	}

	t, err := s.otps.FindByOwner(ctx, u.ID)
	if err != nil {
		if errors.Is(err, token.ErrNotFound) {
			return Session{}, ErrTokenNotFound
		}
		return Session{}, fmt.Errorf("find verification token: %w", err)
	}

	if u.IsVerified {
		return Session{}, ErrAlreadyVerified
	}

	if !s.otps.Verify(t, otp) {
		return Session{}, ErrInvalidOTP
	}

	u, err = s.creds.MarkVerified(ctx, u)
	if err != nil {
		return Session{}, fmt.Errorf("mark verified: %w", err)
	}

	if err := s.otps.Consume(ctx, t.ID); err != nil && !errors.Is(err, token.ErrNotFound) {
		return Session{}, fmt.Errorf("consume verification token: %w", err)
	}

	s.dispatch(s.templates.Welcome(u.Email))

	return s.session(u)
}

// ResendVerification issues a new code unless the user is verified or still holds a live one.
func (s *Service) ResendVerification(ctx context.Context, userID string) error {
	u, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}

	if u.IsVerified {
		return ErrAlreadyVerified
	}

	return s.sendOTP(ctx, u)
}

// ForgotPassword mails a reset link to the account registered under email.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	if email == "" {
		return ErrMissingEmail
	}

	u, err := s.creds.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	secret, err := s.newSecret()
	if err != nil {
		return fmt.Errorf("generate reset secret: %w", err)
	}

	if _, err := s.resets.Issue(ctx, u.ID, secret); err != nil {
		if errors.Is(err, onetime.ErrAlreadyIssued) {
			return ErrAlreadyPending
		}
		return fmt.Errorf("issue reset token: %w", err)
	}

	s.dispatch(s.templates.ResetLink(u.Email, secret, u.ID))
	return nil
}

// CheckResetToken returns the live reset token for userID if secret matches it.
func (s *Service) CheckResetToken(ctx context.Context, userID, secret string) (token.Token, error) {
	if userID == "" || secret == "" {
		return token.Token{}, ErrInvalidResetToken
	}

	t, err := s.resets.FindByOwner(ctx, userID)
	if err != nil {
		if errors.Is(err, token.ErrNotFound) {
			return token.Token{}, ErrInvalidResetToken
		}
		return token.Token{}, fmt.Errorf("find reset token: %w", err)
	}

	if !s.resets.Verify(t, secret) {
		return token.Token{}, ErrInvalidResetToken
	}
	return t, nil
}

// ResetPassword replaces the user's password after re-checking the reset secret.
func (s *Service) ResetPassword(ctx context.Context, userID, secret, newPassword string) error {
	t, err := s.CheckResetToken(ctx, userID, secret)
	if err != nil {
		return err
	}

	u, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}

	if s.creds.VerifyCredential(u, newPassword) {
		return ErrPasswordReused
	}

	u, err = s.creds.UpdatePassword(ctx, u, newPassword)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooLong) {
			return ErrPasswordTooLong
		}
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.resets.Consume(ctx, t.ID); err != nil && !errors.Is(err, token.ErrNotFound) {
		return fmt.Errorf("consume reset token: %w", err)
	}

	s.dispatch(s.templates.ResetDone(u.Email))
	return nil
}

// SignIn checks the password and returns a bearer token. Unverified users may sign in.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	u, err := s.creds.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Session{}, ErrUserNotFound
		}
		return Session{}, fmt.Errorf("find user: %w", err)
	}

	if !s.creds.VerifyCredential(u, password) {
		return Session{}, ErrPasswordMismatch
	}

	return s.session(u)
}

// AppInfo returns user counts for the admin dashboard.
func (s *Service) AppInfo(ctx context.Context) (user.Stats, error) {
	return s.creds.Stats(ctx)
}

func (s *Service) findUser(ctx context.Context, userID string) (user.User, error) {
	u, err := s.creds.FindByID(ctx, userID)
	switch {
	case err == nil:
		return u, nil
	case errors.Is(err, user.ErrInvalidID):
		return user.User{}, ErrInvalidUserID
	case errors.Is(err, user.ErrNotFound):
		return user.User{}, ErrUserNotFound
	default:
		return user.User{}, fmt.Errorf("find user: %w", err)
	}
}

func (s *Service) sendOTP(ctx context.Context, u user.User) error {
	otp := s.newOTP(s.otpLength)

	if _, err := s.otps.Issue(ctx, u.ID, otp); err != nil {
		if errors.Is(err, onetime.ErrAlreadyIssued) {
			return ErrAlreadyPending
		}
		return fmt.Errorf("issue verification token: %w", err)
	}

	s.dispatch(s.templates.VerificationOTP(u.Email, otp))
	return nil
}

func (s *Service) session(u user.User) (Session, error) {
	raw, err := s.tokens.IssueBearerToken(u.ID)
	if err != nil {
		return Session{}, fmt.Errorf("issue bearer token: %w", err)
	}
	return Session{User: u, Token: raw}, nil
}

// dispatch never fails the caller; delivery problems are the dispatcher's to log.
func (s *Service) dispatch(msg notifications.Message) {
	if s.mail == nil {
		return
	}
	if err := s.mail.Dispatch(msg); err != nil {
		s.log.Warn("notification not queued", "kind", msg.Kind, "err", err)
	}
}
