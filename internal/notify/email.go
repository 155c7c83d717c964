package notify

import (
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"time"

	"github.com/splitfair/splitfair/internal/models"
	"github.com/splitfair/splitfair/internal/service"
)

var emailTemplate = template.Must(template.New("summary").Funcs(template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("$%.2f", v) },
	"date":  func(ts int64) string { return time.Unix(ts, 0).Format("Jan 2, 2006") },
}).Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; max-width: 600px; margin: 0 auto; color: #333;">
  <h1 style="background: #667eea; color: white; padding: 20px; border-radius: 8px;">Daily Expense Summary</h1>
  <p>{{.Date}}</p>
  <table style="width: 100%; border-collapse: collapse;">
    <tr><td style="padding: 8px;">Total Sessions</td><td style="padding: 8px; font-weight: bold;">{{.Summary.TotalSessions}}</td></tr>
    <tr><td style="padding: 8px;">Total Expenses</td><td style="padding: 8px; font-weight: bold;">{{money .Summary.TotalAmount}}</td></tr>
    <tr><td style="padding: 8px;">Total Items</td><td style="padding: 8px; font-weight: bold;">{{.Summary.TotalItems}}</td></tr>
    <tr><td style="padding: 8px;">Active Participants</td><td style="padding: 8px; font-weight: bold;">{{.Summary.ActiveParticipants}}</td></tr>
  </table>
{{- if .Summary.RecentSessions}}
  <h3>Recent Sessions</h3>
  <ul>
{{- range .Summary.RecentSessions}}
    <li><b>{{.Name}}</b>: {{money .Total}} ({{date .CreatedAt}}){{if .Settled}} [settled]{{end}}</li>
{{- end}}
  </ul>
{{- end}}
{{- if .Summary.TopSpenders}}
  <h3>Top Spenders</h3>
  <ul>
{{- range .Summary.TopSpenders}}
    <li>{{.Name}}: {{money .Amount}}</li>
{{- end}}
  </ul>
{{- end}}
{{- if .Summary.Outstanding}}
  <h3>Outstanding Balances ({{money .Summary.OutstandingTotal}})</h3>
  <ul>
{{- range .Summary.Outstanding}}
    <li>{{.ParticipantName}} owes {{money .Balance}}</li>
{{- end}}
  </ul>
{{- end}}
  <p style="color: #666; font-size: 12px;">This is an automated summary from SplitFair.</p>
</body>
</html>`))

// sendMailFunc matches smtp.SendMail, swapped out in tests.
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailNotifier sends the digest as an HTML email over SMTP.
type EmailNotifier struct {
	addr     string
	auth     smtp.Auth
	from     string
	sendMail sendMailFunc
}

// NewEmailNotifier creates a notifier for the given SMTP server. Gmail users
// need an app password here, not the account password.
func NewEmailNotifier(host string, port int, username, password, from string) *EmailNotifier {
	return &EmailNotifier{
		addr:     fmt.Sprintf("%s:%d", host, port),
		auth:     smtp.PlainAuth("", username, password, host),
		from:     from,
		sendMail: smtp.SendMail,
	}
}

// Name implements Notifier.
func (n *EmailNotifier) Name() string { return "email" }

// SendSummary renders and sends the HTML digest to the user's email address.
func (n *EmailNotifier) SendSummary(ctx context.Context, user *models.User, summary *service.Summary) error {
	if user.Email == "" {
		return fmt.Errorf("user %s has no email address", user.ID)
	}

	now := time.Now()
	body, err := renderEmailBody(summary, now)
	if err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: SplitFair <%s>\r\n", n.from)
	fmt.Fprintf(&msg, "To: %s\r\n", user.Email)
	fmt.Fprintf(&msg, "Subject: Daily Expense Summary - %s\r\n", now.Format("2006-01-02"))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	if err := n.sendMail(n.addr, n.auth, n.from, []string{user.Email}, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send summary email: %w", err)
	}
	return nil
}

func renderEmailBody(summary *service.Summary, now time.Time) (string, error) {
	var b strings.Builder
	err := emailTemplate.Execute(&b, struct {
		Date    string
		Summary *service.Summary
	}{
		Date:    now.Format("Monday, January 2, 2006"),
		Summary: summary,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render summary email: %w", err)
	}
	return b.String(), nil
}
