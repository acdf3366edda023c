package mail

import (
	"fmt"
	"net/smtp"
	"net/url"
	"strings"

	"github.com/massivemarketmanager/ms-go-trading/config"
)

const verifySubject = "Verify your MMM account"

const verifyBody = `Confirm your email:

%[1]s

Or paste this link in your browser:
%[1]s
`

// SMTPNotifier delivers verification links over plain SMTP. It
// implements service.Notifier.
type SMTPNotifier struct {
	addr            string
	from            string
	auth            smtp.Auth
	frontendBaseURL string
}

func NewSMTPNotifier(cfg *config.Config) *SMTPNotifier {
	var auth smtp.Auth
	if cfg.SMTP.Username != "" {
		auth = smtp.PlainAuth("", cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.Host)
	}
	return &SMTPNotifier{
		addr:            cfg.SMTP.Addr(),
		from:            cfg.SMTP.From,
		auth:            auth,
		frontendBaseURL: cfg.FrontendBaseURL,
	}
}

func (n *SMTPNotifier) SendVerificationLink(email, token string) error {
	link, err := n.buildVerificationLink(token)
	if err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", n.from)
	fmt.Fprintf(&msg, "To: %s\r\n", email)
	fmt.Fprintf(&msg, "Subject: %s\r\n", verifySubject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	fmt.Fprintf(&msg, verifyBody, link)

	return smtp.SendMail(n.addr, n.auth, n.from, []string{email}, []byte(msg.String()))
}

func (n *SMTPNotifier) buildVerificationLink(token string) (string, error) {
	base, err := url.Parse(n.frontendBaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid frontend base url: %w", err)
	}
	base.Path = strings.TrimRight(base.Path, "/") + "/auth/verify"
	base.RawQuery = url.Values{"token": {token}}.Encode()
	return base.String(), nil
}
