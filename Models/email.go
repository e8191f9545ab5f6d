package Models

import (
	"fmt"
	"os"
	"strconv"
)

type EmailConfig struct {
	SMTPServer   string
	SMTPPort     int
	Username     string
	Password     string
	FromEmail    string
	FromName     string
	TLSEnabled   bool
	SkipTLSCheck bool
}

// EmailMessage represents an email to be sent
type EmailMessage struct {
	To      []string
	CC      []string
	BCC     []string
	Subject string
	Body    string
	IsHTML  bool
}

// LoadEmailConfig reads SMTP settings from the environment. Returns an
// error when the server address is missing so callers can skip email
// delivery instead of dialing nowhere.
func LoadEmailConfig() (EmailConfig, error) {
	server := os.Getenv("SMTP_SERVER")
	if server == "" {
		return EmailConfig{}, fmt.Errorf("SMTP_SERVER not configured")
	}

	port := 587
	if p := os.Getenv("SMTP_PORT"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil {
			port = parsed
		}
	}

	return EmailConfig{
		SMTPServer:   server,
		SMTPPort:     port,
		Username:     os.Getenv("SMTP_USERNAME"),
		Password:     os.Getenv("SMTP_PASSWORD"),
		FromEmail:    os.Getenv("SMTP_FROM_EMAIL"),
		FromName:     os.Getenv("SMTP_FROM_NAME"),
		TLSEnabled:   os.Getenv("SMTP_TLS") != "false",
		SkipTLSCheck: os.Getenv("SMTP_SKIP_TLS_CHECK") == "true",
	}, nil
}
