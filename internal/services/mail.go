package services

import (
	"fmt"
	"net/smtp"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// MailService sends transactional email over SMTP. It is disabled unless the
// full SMTP configuration is present; sends are asynchronous and failures are
// logged only, never surfaced to the request that triggered them.
type MailService struct {
	host     string
	port     string
	username string
	password string
	from     string
	enabled  bool
	log      zerolog.Logger
}

func NewMailService() *MailService {
	host := os.Getenv("SMTP_HOST")
	port := os.Getenv("SMTP_PORT")
	user := os.Getenv("SMTP_USER")
	pass := os.Getenv("SMTP_PASS")
	from := os.Getenv("SMTP_FROM")

	enabled := host != "" && port != "" && user != "" && pass != "" && from != ""
	logger := log.With().Str("component", "mail").Logger()
	if !enabled {
		logger.Warn().Msg("mail disabled: incomplete SMTP environment")
	}

	return &MailService{
		host:     host,
		port:     port,
		username: user,
		password: pass,
		from:     from,
		enabled:  enabled,
		log:      logger,
	}
}

// SendProductApprovedEmail tells the master their product passed moderation.
func (s *MailService) SendProductApprovedEmail(to, masterName, productTitle, productURL string) {
	subject := "Your product has been approved"
	body := fmt.Sprintf("Hello %s,\r\n\r\nYour product %q has been approved and is now visible in the catalog:\r\n%s\r\n",
		masterName, productTitle, productURL)
	s.sendAsync(to, subject, body)
}

func (s *MailService) sendAsync(to, subject, body string) {
	if !s.enabled {
		return
	}

	go func() {
		msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", s.from, to, subject, body)
		auth := smtp.PlainAuth("", s.username, s.password, s.host)
		addr := s.host + ":" + s.port
		if err := smtp.SendMail(addr, auth, s.from, []string{to}, []byte(msg)); err != nil {
			s.log.Error().Err(err).Str("to", to).Msg("send failed")
		}
	}()
}
