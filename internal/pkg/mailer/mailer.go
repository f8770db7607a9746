package mailer

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
)

var ErrNoRecipient = errors.New("mail has no recipient")

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	SendTo   []string
}

func buildMessage(cfg MailConfig, subject, body string) []byte {
	return []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		cfg.Username,                  // 发件人
		strings.Join(cfg.SendTo, ","), // 收件人
		subject,
		body,
	))
}

// SendMail 通过 SMTPS (隐式 TLS) 发送 HTML 邮件
func SendMail(cfg MailConfig, subject, body string) error {
	if len(cfg.SendTo) == 0 {
		return ErrNoRecipient
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := tls.Dial("tcp", addr, &tls.Config{
		InsecureSkipVerify: true,
		ServerName:         cfg.Host,
	})
	if err != nil {
		return err
	}
	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		return err
	}
	defer client.Close()

	if err = client.Auth(smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)); err != nil {
		return err
	}
	if err = client.Mail(cfg.Username); err != nil {
		return err
	}
	for _, to := range cfg.SendTo {
		if err = client.Rcpt(to); err != nil {
			return fmt.Errorf("rcpt %s: %w", to, err)
		}
	}

	wc, err := client.Data()
	if err != nil {
		return err
	}
	if _, err = wc.Write(buildMessage(cfg, subject, body)); err != nil {
		_ = wc.Close()
		return err
	}
	if err = wc.Close(); err != nil {
		return err
	}
	return client.Quit()
}
