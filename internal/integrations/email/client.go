package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

// Config параметры SMTP
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Client отправка писем через SMTP
type Client struct {
	cfg  Config
	send func(ctx context.Context, addr string, from string, to []string, msg []byte) error
}

// NewClient создает SMTP клиент
func NewClient(cfg Config) *Client {
	c := &Client{cfg: cfg}
	c.send = c.dialAndSend
	return c
}

// Configured возвращает true, если задан SMTP сервер
func (c *Client) Configured() bool {
	return c.cfg.Host != "" && c.cfg.From != ""
}

// Send отправляет текстовое письмо
func (c *Client) Send(ctx context.Context, to, subject, body string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	from, err := mail.ParseAddress(c.cfg.From)
	if err != nil {
		return fmt.Errorf("%w: invalid from address: %v", ErrSend, err)
	}
	rcpt, err := mail.ParseAddress(to)
	if err != nil {
		return fmt.Errorf("%w: invalid recipient: %v", ErrSend, err)
	}

	msg := buildMessage(from, rcpt, subject, body, time.Now())
	addr := net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))

	if err := c.send(ctx, addr, from.Address, []string{rcpt.Address}, msg); err != nil {
		return fmt.Errorf("%w: %v", ErrSend, err)
	}
	return nil
}

func (c *Client) dialAndSend(ctx context.Context, addr, from string, to []string, msg []byte) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, c.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: c.cfg.Host}); err != nil {
			return err
		}
	}
	if c.cfg.Username != "" {
		if err := client.Auth(smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, c.cfg.Host)); err != nil {
			return err
		}
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func buildMessage(from, to *mail.Address, subject, body string, now time.Time) []byte {
	var b strings.Builder
	b.WriteString("From: " + from.String() + "\r\n")
	b.WriteString("To: " + to.String() + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", subject) + "\r\n")
	b.WriteString("Date: " + now.Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}
