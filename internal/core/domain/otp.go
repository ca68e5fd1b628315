package domain

import "strings"

// OTPLength is the number of digits in a verification code.
const OTPLength = 6

type OTPSource string

const (
	OTPSourceEmail         OTPSource = "email"
	OTPSourcePhone         OTPSource = "phone"
	OTPSourceResetPassword OTPSource = "reset-password"
)

// ParseOTPSource maps a navigation parameter to a source, defaulting to phone.
func ParseOTPSource(s string) OTPSource {
	switch OTPSource(strings.ToLower(strings.TrimSpace(s))) {
	case OTPSourceEmail:
		return OTPSourceEmail
	case OTPSourceResetPassword:
		return OTPSourceResetPassword
	default:
		return OTPSourcePhone
	}
}

// OTPChallenge identifies who the code was sent to and why.
type OTPChallenge struct {
	Contact string
	Source  OTPSource
	// Non-secret identity carried to the next screen.
	Role string
	Name string
}

// IsEmailContact reports whether the challenge targets an email address.
func (c OTPChallenge) IsEmailContact() bool {
	return c.Source == OTPSourceEmail || strings.Contains(c.Contact, "@")
}
