package pkg

import (
	"crypto/tls"
	"fmt"
	"html"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer sends HTML mail through an SMTP relay.
type Mailer struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
}

func NewMailer(cfg SMTPConfig) *Mailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	return &Mailer{cfg: cfg, dialer: d}
}

func (m *Mailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)
	return m.dialer.DialAndSend(msg)
}

func NewFollowerHTML(recipient, follower string) string {
	return fmt.Sprintf(`<p>Hello, %s!</p><p><b>%s</b> is now following your posts.</p>`,
		html.EscapeString(recipient), html.EscapeString(follower))
}

func NewCommentHTML(recipient, commenter string, postID uint64, text string) string {
	return fmt.Sprintf(`<p>Hello, %s!</p><p><b>%s</b> commented on your post #%d:</p><blockquote>%s</blockquote>`,
		html.EscapeString(recipient), html.EscapeString(commenter), postID, html.EscapeString(text))
}
