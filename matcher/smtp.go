package matcher

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"github.com/theoremus-urban-solutions/bus-proximity-alerts/config"
)

// SMTPNotifier sends notification mail over implicit TLS (port 465 style).
type SMTPNotifier struct {
	host     string
	port     int
	from     string
	password string
}

// NewSMTPNotifier builds a notifier from config; the password comes from
// the environment, never from the config file.
func NewSMTPNotifier(cfg config.SMTPConfig, password string) *SMTPNotifier {
	return &SMTPNotifier{host: cfg.Host, port: cfg.Port, from: cfg.From, password: password}
}

// Notify renders and sends one alert mail. The context bounds the dial.
func (s *SMTPNotifier) Notify(ctx context.Context, n Notification) error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	dialer := &tls.Dialer{Config: &tls.Config{ServerName: s.host}}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer func() { _ = client.Close() }()

	if err := client.Auth(smtp.PlainAuth("", s.from, s.password, s.host)); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := client.Mail(s.from); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(n.Subscriber); err != nil {
		return fmt.Errorf("smtp rcpt: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write([]byte(renderMessage(s.from, n))); err != nil {
		_ = w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close data: %w", err)
	}
	return client.Quit()
}

// renderMessage builds the mail subscribers receive. The wording is
// Portuguese; the service runs for Rio de Janeiro riders.
func renderMessage(from string, n Notification) string {
	subject := fmt.Sprintf("Alerta de Ônibus: Linha %s está a chegar!", n.RouteID)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", n.Subscriber)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString("Olá!\r\n\r\n")
	fmt.Fprintf(&b, "O ônibus da linha %s, ordem %s, está a aproximadamente %.2f km do seu ponto de partida.\r\n\r\n",
		n.RouteID, n.VehicleID, n.DistanceKM)
	b.WriteString("Prepare-se!\r\n\r\n")
	fmt.Fprintf(&b, "- Velocidade atual: %.0f km/h\r\n", n.SpeedKMH)
	fmt.Fprintf(&b, "- Última atualização: %s\r\n\r\n", n.ObservedTime)
	b.WriteString("Atenciosamente,\r\nSistema de Alerta de Ônibus RJ\r\n")
	return b.String()
}
