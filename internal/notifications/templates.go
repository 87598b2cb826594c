package notifications

import (
	"bytes"
	"html/template"
	"net/url"
)

var (
	otpTmpl = template.Must(template.New("otp").Parse(
		`<p>Your verification OTP</p><h1>{{.}}</h1>`))
	resetLinkTmpl = template.Must(template.New("reset").Parse(
		`<p>Click here to reset password</p><a href="{{.}}">Change Password</a>`))
)

const (
	welcomeHTML   = `<h1>Welcome to our app and thanks for choosing us.</h1>`
	resetDoneHTML = `<h1>Password Reset Successfully</h1><p>Now you can use new password.</p>`
)

// Templates builds the account emails.
type Templates struct {
	FromVerification string
	FromSecurity     string
	ResetURL         string
}

func (t Templates) VerificationOTP(to, otp string) Message {
	return Message{
		Kind:    KindVerificationOTP,
		From:    t.FromVerification,
		To:      to,
		Subject: "Email Verification",
		HTML:    render(otpTmpl, otp),
	}
}

func (t Templates) Welcome(to string) Message {
	return Message{
		Kind:    KindWelcome,
		From:    t.FromVerification,
		To:      to,
		Subject: "Welcome Email",
		HTML:    welcomeHTML,
	}
}

func (t Templates) ResetLink(to, secret, userID string) Message {
	return Message{
		Kind:    KindResetLink,
		From:    t.FromSecurity,
		To:      to,
		Subject: "Reset Password Link",
		HTML:    render(resetLinkTmpl, template.URL(ResetLinkURL(t.ResetURL, secret, userID))),
	}
}

func (t Templates) ResetDone(to string) Message {
	return Message{
		Kind:    KindResetDone,
		From:    t.FromSecurity,
		To:      to,
		Subject: "Password Reset Successfully",
		HTML:    resetDoneHTML,
	}
}

// ResetLinkURL returns {base}?token={secret}&id={userID}.
func ResetLinkURL(base, secret, userID string) string {
	return base + "?token=" + url.QueryEscape(secret) + "&id=" + url.QueryEscape(userID)
}

func render(t *template.Template, data any) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return ""
	}
	return buf.String()
}
