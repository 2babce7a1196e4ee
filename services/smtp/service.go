package smtp

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/rasterpost/rasterpost/config"
	"github.com/rasterpost/rasterpost/interfaces"
	"github.com/rasterpost/rasterpost/internal/enum"
	rperrors "github.com/rasterpost/rasterpost/internal/errors"
	"github.com/rasterpost/rasterpost/internal/logger"
	"github.com/rasterpost/rasterpost/internal/tracing"
)

const dialTimeout = 30 * time.Second

type SMTPService struct {
	cfg    *config.SMTPConfig
	log    logger.Logger
	client *smtp.Client
	mode   enum.TransportMode
}

func NewSMTPService(cfg *config.SMTPConfig, log logger.Logger) interfaces.MailSender {
	return &SMTPService{
		cfg: cfg,
		log: log,
	}
}

// Connect negotiates the transport the same way the receiver does: implicit
// TLS first, then plaintext with STARTTLS upgrade, then fully plaintext.
// Authentication rejections are terminal for the attempt and never retried
// on a weaker transport.
func (s *SMTPService) Connect(ctx context.Context) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SMTPService.Connect")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("server", s.cfg.Host)
	span.SetTag("port", s.cfg.Port)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	tlsConfig := &tls.Config{
		ServerName: s.cfg.Host,
	}

	dialer := &net.Dialer{Timeout: dialTimeout}

	conn, err := tls.DialWithDialer(dialer, "tcp", addr, tlsConfig)
	if err == nil {
		c, err := smtp.NewClient(conn, s.cfg.Host)
		if err != nil {
			conn.Close()
			tracing.TraceErr(span, err)
			return errors.Wrapf(rperrors.ErrConnectionFailed, "SMTP handshake with %s failed: %v", addr, err)
		}
		return s.authenticate(span, c, enum.TransportModeTLS)
	}

	s.log.Warnf("TLS connection to %s failed (%v), attempting STARTTLS upgrade", addr, err)
	span.LogKV("tls_dial_error", err.Error())

	plainConn, err := dialer.Dial("tcp", addr)
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrapf(rperrors.ErrConnectionFailed, "failed to connect to %s: %v", addr, err)
	}

	c, err := smtp.NewClient(plainConn, s.cfg.Host)
	if err != nil {
		plainConn.Close()
		tracing.TraceErr(span, err)
		return errors.Wrapf(rperrors.ErrConnectionFailed, "SMTP handshake with %s failed: %v", addr, err)
	}

	mode := enum.TransportModePlaintext
	if err := c.StartTLS(tlsConfig); err == nil {
		mode = enum.TransportModeStartTLS
	} else {
		s.log.Warnf("STARTTLS upgrade to %s failed (%v), continuing in plaintext", addr, err)
		span.LogKV("starttls_error", err.Error())
	}

	return s.authenticate(span, c, mode)
}

func (s *SMTPService) authenticate(span opentracing.Span, c *smtp.Client, mode enum.TransportMode) error {
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	if err := c.Auth(auth); err != nil {
		c.Close()
		tracing.TraceErr(span, err)
		return errors.Wrapf(rperrors.ErrAuthentication, "SMTP authentication as %s failed: %v", s.cfg.Username, err)
	}

	s.client = c
	s.mode = mode

	s.log.Infof("Connected to SMTP %s:%d over %s", s.cfg.Host, s.cfg.Port, mode)
	span.SetTag("transport", mode.String())

	return nil
}

func (s *SMTPService) TransportMode() enum.TransportMode {
	return s.mode
}

// sendToServer runs one MAIL/RCPT/DATA transaction on the held connection.
func (s *SMTPService) sendToServer(ctx context.Context, from string, recipients []string, buffer *bytes.Buffer) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "SMTPService.sendToServer")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	// Reconnect lazily after a disconnect or a dropped transaction.
	if s.client == nil {
		if err := s.Connect(ctx); err != nil {
			tracing.TraceErr(span, err)
			return err
		}
	}

	if err := s.client.Mail(from); err != nil {
		s.dropConnection()
		tracing.TraceErr(span, err)
		return errors.Wrapf(rperrors.ErrConnectionFailed, "SMTP MAIL command failed: %v", err)
	}

	for _, recipient := range recipients {
		if err := s.client.Rcpt(recipient); err != nil {
			s.dropConnection()
			tracing.TraceErr(span, err)
			return errors.Wrapf(rperrors.ErrConnectionFailed, "SMTP RCPT command failed for %s: %v", recipient, err)
		}
	}

	dataWriter, err := s.client.Data()
	if err != nil {
		s.dropConnection()
		tracing.TraceErr(span, err)
		return errors.Wrapf(rperrors.ErrConnectionFailed, "SMTP DATA command failed: %v", err)
	}

	if _, err := dataWriter.Write(buffer.Bytes()); err != nil {
		s.dropConnection()
		tracing.TraceErr(span, err)
		return errors.Wrapf(rperrors.ErrConnectionFailed, "failed to write message data: %v", err)
	}

	if err := dataWriter.Close(); err != nil {
		s.dropConnection()
		tracing.TraceErr(span, err)
		return errors.Wrapf(rperrors.ErrConnectionFailed, "failed to close data writer: %v", err)
	}

	return nil
}

// dropConnection discards a connection whose transaction state is no longer
// trustworthy; the next send reconnects.
func (s *SMTPService) dropConnection() {
	if s.client != nil {
		s.client.Close()
		s.client = nil
	}
}

func (s *SMTPService) Disconnect() error {
	if s.client == nil {
		return nil
	}

	c := s.client
	s.client = nil

	if err := c.Quit(); err != nil {
		s.log.Warnf("Error during SMTP quit: %v", err)
		c.Close()
	}

	return nil
}
