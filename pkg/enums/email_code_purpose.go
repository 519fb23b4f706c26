package enums

// EmailCodePurpose distinguishes verification links from password resets.
type EmailCodePurpose string

const (
	EmailCodeVerifyEmail   EmailCodePurpose = "VERIFY_EMAIL"
	EmailCodeResetPassword EmailCodePurpose = "RESET_PASSWORD"
)

func (p EmailCodePurpose) String() string {
	return string(p)
}

func (p EmailCodePurpose) IsValid() bool {
	return p == EmailCodeVerifyEmail || p == EmailCodeResetPassword
}
