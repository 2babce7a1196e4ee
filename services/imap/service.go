package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/emersion/go-imap/client"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/rasterpost/rasterpost/config"
	"github.com/rasterpost/rasterpost/interfaces"
	"github.com/rasterpost/rasterpost/internal/enum"
	rperrors "github.com/rasterpost/rasterpost/internal/errors"
	"github.com/rasterpost/rasterpost/internal/logger"
	"github.com/rasterpost/rasterpost/internal/tracing"
)

const (
	dialTimeout   = 30 * time.Second
	loginTimeout  = 30 * time.Second
	logoutTimeout = 5 * time.Second
)

type IMAPService struct {
	cfg    *config.IMAPConfig
	log    logger.Logger
	client *client.Client
	mode   enum.TransportMode
}

func NewIMAPService(cfg *config.IMAPConfig, log logger.Logger) interfaces.MailReceiver {
	return &IMAPService{
		cfg: cfg,
		log: log,
	}
}

// Connect negotiates the transport in order: implicit TLS, then
// plaintext-then-STARTTLS, then fully plaintext. Only encryption-layer
// failures step down; an authentication rejection is never retried on a
// weaker transport. The fallback trades security for availability.
func (s *IMAPService) Connect(ctx context.Context) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IMAPService.Connect")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("server", s.cfg.Host)
	span.SetTag("port", s.cfg.Port)

	serverAddr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	dialer := &net.Dialer{
		Timeout:   dialTimeout,
		KeepAlive: 30 * time.Second,
	}

	tlsConfig := &tls.Config{
		ServerName: s.cfg.Host,
	}

	c, err := client.DialWithDialerTLS(dialer, serverAddr, tlsConfig)
	if err == nil {
		return s.login(span, c, enum.TransportModeTLS)
	}

	s.log.Warnf("TLS connection to %s failed (%v), attempting STARTTLS upgrade", serverAddr, err)
	span.LogKV("tls_dial_error", err.Error())

	c, err = client.DialWithDialer(dialer, serverAddr)
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrapf(rperrors.ErrConnectionFailed, "failed to connect to %s: %v", serverAddr, err)
	}

	mode := enum.TransportModePlaintext
	if err := c.StartTLS(tlsConfig); err == nil {
		mode = enum.TransportModeStartTLS
	} else {
		s.log.Warnf("STARTTLS upgrade to %s failed (%v), continuing in plaintext", serverAddr, err)
		span.LogKV("starttls_error", err.Error())
	}

	return s.login(span, c, mode)
}

// login authenticates on an established connection. Any rejection here is an
// authentication error, terminal for this attempt.
func (s *IMAPService) login(span opentracing.Span, c *client.Client, mode enum.TransportMode) error {
	c.Timeout = loginTimeout

	if err := c.Login(s.cfg.Username, s.cfg.Password); err != nil {
		c.Logout()
		tracing.TraceErr(span, err)
		return errors.Wrapf(rperrors.ErrAuthentication, "IMAP login as %s failed: %v", s.cfg.Username, err)
	}

	// Reset client timeout to default for normal operations
	c.Timeout = 0

	s.client = c
	s.mode = mode

	s.log.Infof("Connected to IMAP %s:%d over %s", s.cfg.Host, s.cfg.Port, mode)
	span.SetTag("transport", mode.String())

	return nil
}

func (s *IMAPService) TransportMode() enum.TransportMode {
	return s.mode
}

// Disconnect logs out gracefully, bounded so a dead server cannot hang
// shutdown.
func (s *IMAPService) Disconnect() error {
	if s.client == nil {
		return nil
	}

	c := s.client
	s.client = nil
	c.Timeout = logoutTimeout

	done := make(chan error, 1)
	go func() {
		done <- c.Logout()
		close(done)
	}()

	select {
	case err := <-done:
		if err != nil {
			s.log.Warnf("Error during IMAP logout: %v", err)
		}
	case <-time.After(logoutTimeout):
		s.log.Warn("IMAP logout timed out")
		return rperrors.ErrConnectionTimeout
	}

	return nil
}
