package services

import (
	"fmt"

	"gopkg.in/gomail.v2"
	"modsquad-api/config"
)

// EmailService sends transactional mail. It stays disabled when no SMTP host
// is configured, which is the default for local development.
type EmailService struct {
	config *config.Config
	dialer *gomail.Dialer
}

func NewEmailService(cfg *config.Config) *EmailService {
	service := &EmailService{config: cfg}
	if cfg.SMTPHost != "" {
		service.dialer = gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	}
	return service
}

func (es *EmailService) Enabled() bool {
	return es.dialer != nil
}

// SendWelcomeEmail greets a freshly registered user. Callers treat failures
// as non-fatal, signup never depends on mail delivery.
func (es *EmailService) SendWelcomeEmail(email, username string) error {
	if !es.Enabled() {
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("%s <%s>", es.config.FromName, es.config.FromEmail))
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Welcome to ModSquad!")

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Welcome to ModSquad</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { text-align: center; background: #1a1a1a; color: white; padding: 20px; border-radius: 10px 10px 0 0; }
        .content { background: #f8f9fa; padding: 30px; border-radius: 0 0 10px 10px; }
        .footer { text-align: center; margin-top: 20px; color: #666; font-size: 14px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>ModSquad</h1>
        </div>
        <div class="content">
            <h2>Welcome, %s!</h2>
            <p>Your ModSquad account is ready. Head to your garage, add your first build and show off what you're wrenching on.</p>
            <p><strong>The ModSquad Team</strong></p>
        </div>
        <div class="footer">
            <p>This is an automated email, please do not reply.</p>
        </div>
    </div>
</body>
</html>`, username)

	textBody := fmt.Sprintf(`Welcome, %s!

Your ModSquad account is ready. Head to your garage, add your first build and show off what you're wrenching on.

The ModSquad Team`, username)

	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)

	if err := es.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}
	return nil
}
