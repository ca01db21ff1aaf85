package notification

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"github.com/emrekoc/butika-backend/internal/config"
)

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`
<h2>Siparişiniz alındı</h2>
<p>Merhaba {{.GuestName}},</p>
<p>{{.OrderNumber}} numaralı siparişiniz için ödemeniz onaylandı.</p>
<table>
  {{range .Items}}
  <tr><td>{{.Name}}</td><td>x{{.Quantity}}</td><td>{{.UnitPrice}}</td></tr>
  {{end}}
  <tr><td colspan="2"><strong>Toplam</strong></td><td><strong>{{.TotalAmount}}</strong></td></tr>
</table>
<p><a href="{{.TrackingURL}}">Siparişinizi buradan takip edebilirsiniz.</a></p>
`))

type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer builds a Mailer over an SMTP relay.
func NewSMTPMailer(cfg config.SMTP) Mailer {
	return &smtpMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (m *smtpMailer) SendOrderConfirmation(_ context.Context, c OrderConfirmation) error {
	body, err := renderConfirmation(c)
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", c.GuestEmail)
	msg.SetHeader("Subject", fmt.Sprintf("Sipariş Onayı - %s", c.OrderNumber))
	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send confirmation for order %s: %w", c.OrderNumber, err)
	}
	return nil
}

func renderConfirmation(c OrderConfirmation) (string, error) {
	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, c); err != nil {
		return "", fmt.Errorf("render confirmation template: %w", err)
	}
	return buf.String(), nil
}
