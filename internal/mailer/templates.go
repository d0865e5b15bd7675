package mailer

import (
	"fmt"
	"time"
)

const emailStyles = `
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
    .container { max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background: #6366f1; padding: 30px; text-align: center; color: white; border-radius: 10px 10px 0 0; }
    .content { background: #f8f9fa; padding: 30px; border-radius: 0 0 10px 10px; }
    .button { display: inline-block; padding: 12px 30px; background: #6366f1; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
    .highlight { background: #fff; padding: 15px; border-left: 4px solid #6366f1; margin: 20px 0; }
    .footer { text-align: center; margin-top: 30px; color: #666; font-size: 14px; }
  </style>
`

func wrap(header, body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>%s</head>
<body>
  <div class="container">
    <div class="header"><h1>%s</h1></div>
    <div class="content">%s</div>
    <div class="footer">
      <p>Helping Hands — making a difference, one donation at a time.</p>
    </div>
  </div>
</body>
</html>`, emailStyles, header, body)
}

func WelcomeEmail(name, frontendURL string) string {
	body := fmt.Sprintf(`
      <h2>Hello %s!</h2>
      <p>Thank you for joining Helping Hands - a platform where generosity meets those in need.</p>
      <div class="highlight">
        <ul>
          <li>Make donations to various causes</li>
          <li>Create help requests if you need assistance</li>
          <li>Track your donation history</li>
        </ul>
      </div>
      <a href="%s" class="button">Get Started</a>`, name, frontendURL)

	return wrap("Welcome to Helping Hands!", body)
}

func PasswordResetEmail(name, resetURL string) string {
	body := fmt.Sprintf(`
      <h2>Hello %s,</h2>
      <p>You requested a password reset. Click the button below to choose a new password.</p>
      <a href="%s" class="button">Reset Password</a>
      <p>This link expires in 10 minutes. If you did not request a reset, you can safely ignore this email.</p>`,
		name, resetURL)

	return wrap("Password Reset Request", body)
}

func DonationReceiptEmail(donorName string, amount int64, cause, transactionID string, date time.Time) string {
	body := fmt.Sprintf(`
      <h2>Thank you, %s!</h2>
      <p>Your donation has been received.</p>
      <div class="highlight">
        <p><strong>Amount:</strong> %d</p>
        <p><strong>Cause:</strong> %s</p>
        <p><strong>Transaction ID:</strong> %s</p>
        <p><strong>Date:</strong> %s</p>
      </div>
      <p>Keep this receipt for your records.</p>`,
		donorName, amount, cause, transactionID, date.Format("2006-01-02 15:04 UTC"))

	return wrap("Donation Receipt", body)
}
