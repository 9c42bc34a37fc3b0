package services

import (
	"fmt"
	"net/smtp"

	"github.com/sirupsen/logrus"

	"freshersparty_go/config"
)

// SendOTPEmail delivers the signup verification code. Without SMTP settings
// (local development) the code is logged instead of sent.
func SendOTPEmail(to, code string) error {
	cfg := config.AppConfig
	if cfg.SMTPHost == "" {
		logrus.WithFields(logrus.Fields{"to": to, "code": code}).
			Info("SMTP not configured; OTP logged instead of emailed")
		return nil
	}

	subject := "Your verification code"
	body := fmt.Sprintf("Your email verification code is: %s\r\n\r\nIt expires in %s.", code, cfg.OTPExpiresIn)
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", cfg.SMTPFrom, to, subject, body))

	addr := cfg.SMTPHost + ":" + cfg.SMTPPort
	auth := smtp.PlainAuth("", cfg.SMTPFrom, cfg.SMTPPassword, cfg.SMTPHost)
	if err := smtp.SendMail(addr, auth, cfg.SMTPFrom, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send OTP email: %v", err)
	}
	return nil
}
