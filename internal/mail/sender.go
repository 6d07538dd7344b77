package mail

import (
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/Aryan01101/ELEC5620-Stage2-YAAKE/internal/config"
)

// Sender delivers lifecycle email over SMTP. Without an SMTP host configured
// it logs the message instead, which keeps local development working.
type Sender struct {
	cfg config.Config
	log *zap.Logger
}

func NewSender(cfg config.Config, logger *zap.Logger) *Sender {
	return &Sender{cfg: cfg, log: logger}
}

func (s *Sender) SendVerification(to, name, token string) error {
	link := fmt.Sprintf("%s/verify-email/%s", s.cfg.FrontendURL, token)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Welcome to YAAKE. Please verify your email address by clicking the link below:</p><p><a href=%q>%s</a></p><p>The link expires in 24 hours.</p>",
		displayName(name), link, link,
	)
	return s.send(to, "Verify your YAAKE account", body)
}

func (s *Sender) SendWelcome(to, name string) error {
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your email is verified and your YAAKE account is ready. Good luck with your applications!</p>",
		displayName(name),
	)
	return s.send(to, "Welcome to YAAKE", body)
}

func (s *Sender) send(to, subject, body string) error {
	if s.cfg.SMTPHost == "" {
		s.log.Info("smtp not configured, logging mail instead",
			zap.String("to", to), zap.String("subject", subject))
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.FromEmail)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.cfg.SMTPHost, s.cfg.SMTPPort, s.cfg.SMTPUser, s.cfg.SMTPPassword)
	return d.DialAndSend(m)
}

func displayName(name string) string {
	if name == "" {
		return "there"
	}
	return name
}
