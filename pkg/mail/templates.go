package mail

import (
	"fmt"
	"html"
	"net/url"
)

// VerificationLink builds the client URL that confirms an address.
func VerificationLink(clientURL, token, userID string) string {
	return actionLink(clientURL, "verify-email", token, userID)
}

// ResetPasswordLink builds the client URL for choosing a new password.
func ResetPasswordLink(clientURL, token, userID string) string {
	return actionLink(clientURL, "reset-password", token, userID)
}

func actionLink(clientURL, path, token, userID string) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("userId", userID)
	return fmt.Sprintf("%s/%s?%s", clientURL, path, q.Encode())
}

func VerifyEmailMessage(to, username, link string) Message {
	return Message{
		To:      to,
		Subject: "Verify your email",
		HTML:    render("Verify your email", username, "Confirm your address to finish signing up. The link expires in 5 minutes.", "Verify email", link),
	}
}

func ResetPasswordMessage(to, username, link string) Message {
	return Message{
		To:      to,
		Subject: "Reset your password",
		HTML:    render("Reset your password", username, "Someone asked to reset your password. The link expires in 5 minutes.", "Reset password", link),
	}
}

func render(title, username, body, cta, link string) string {
	return fmt.Sprintf(`<h2>%s</h2><p>Hi %s,</p><p>%s</p><p><a href="%s">%s</a></p>`,
		html.EscapeString(title), html.EscapeString(username), html.EscapeString(body), html.EscapeString(link), html.EscapeString(cta))
}
