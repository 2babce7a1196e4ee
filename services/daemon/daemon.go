package daemon

import (
	"context"
	"time"

	"github.com/rasterpost/rasterpost/config"
	"github.com/rasterpost/rasterpost/interfaces"
	"github.com/rasterpost/rasterpost/internal/enum"
	"github.com/rasterpost/rasterpost/internal/logger"
	"github.com/rasterpost/rasterpost/internal/tracing"
	"github.com/rasterpost/rasterpost/services/processor"
)

// DaemonService owns the receiver connection and runs the poll loop for the
// life of the process. Connection handling is an explicit state machine:
// disconnected -> connecting -> connected, with a backoff state between
// failed attempts. The loop never gives up on its own; it stops only when
// the context is cancelled.
type DaemonService struct {
	cfg       *config.ProcessorConfig
	receiver  interfaces.MailReceiver
	sender    interfaces.MailSender
	processor *processor.ProcessorService
	log       logger.Logger

	state  enum.ConnState
	policy *ReconnectPolicy
	delay  time.Duration
}

func NewDaemonService(
	cfg *config.ProcessorConfig,
	receiver interfaces.MailReceiver,
	sender interfaces.MailSender,
	proc *processor.ProcessorService,
	log logger.Logger,
) *DaemonService {
	return &DaemonService{
		cfg:       cfg,
		receiver:  receiver,
		sender:    sender,
		processor: proc,
		log:       log,
		state:     enum.ConnStateDisconnected,
		policy:    NewReconnectPolicy(cfg.MaxRetryInterval()),
	}
}

// State reports the receiver connection state.
func (s *DaemonService) State() enum.ConnState {
	return s.state
}

// Run blocks until ctx is cancelled. Cancellation is honored between
// connection attempts, between polls and between messages; a message already
// being processed always runs to its terminal state first.
func (s *DaemonService) Run(ctx context.Context) error {
	defer s.receiver.Disconnect()
	defer s.sender.Disconnect()

	// The sender reconnects on demand, so a failure here is not fatal.
	if err := s.sender.Connect(ctx); err != nil {
		s.log.Warnf("Initial SMTP connection failed, will retry on first send: %v", err)
	}

	for {
		if ctx.Err() != nil {
			s.log.Infof("Shutting down, receiver state: %s", s.state)
			return nil
		}

		switch s.state {
		case enum.ConnStateDisconnected:
			s.state = enum.ConnStateConnecting

		case enum.ConnStateConnecting:
			if err := s.receiver.Connect(ctx); err != nil {
				s.delay = s.policy.NextDelay()
				s.log.Errorf("IMAP connection attempt %d failed: %v. Retrying in %s", s.policy.Attempt(), err, s.delay)
				s.state = enum.ConnStateBackoff
				continue
			}
			s.policy.Reset()
			s.log.Infof("Connected to IMAP server over %s", s.receiver.TransportMode())
			s.state = enum.ConnStateConnected

		case enum.ConnStateBackoff:
			if !sleepContext(ctx, s.delay) {
				continue
			}
			s.state = enum.ConnStateConnecting

		case enum.ConnStateConnected:
			if err := s.pollOnce(ctx); err != nil {
				s.log.Errorf("Mailbox poll failed: %v. Reconnecting", err)
				s.receiver.Disconnect()
				s.state = enum.ConnStateDisconnected
				continue
			}
			sleepContext(ctx, s.cfg.PollingInterval())
		}
	}
}

// pollOnce fetches unread messages and processes them one at a time, in the
// order the server returned them. A fetch error bubbles up so the loop can
// reconnect; per-message outcomes never do.
func (s *DaemonService) pollOnce(ctx context.Context) error {
	// Each poll cycle is a fresh trace root. A panic while processing is
	// recovered here so one poisonous message cannot kill the loop.
	defer tracing.RecoverAndLog(s.log)
	span, ctx := tracing.StartTracerSpan(ctx, "DaemonService.pollOnce")
	defer span.Finish()
	tracing.TagComponentDaemon(span)

	messages, err := s.receiver.FetchUnreadMessages(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if len(messages) == 0 {
		return nil
	}
	s.log.Infof("Fetched %d unread message(s)", len(messages))

	for _, message := range messages {
		job := s.processor.ProcessMessage(ctx, s.receiver, message)
		switch job.Status {
		case enum.JobStatusCompleted:
			s.log.Infof("Processed message uid=%d from %s: %d page(s) sent", message.UID, message.Sender, len(job.Pages))
		case enum.JobStatusFailed:
			s.log.Warnf("Message uid=%d from %s failed: %s (%s)", message.UID, message.Sender, job.FailureKind, job.FailureDetail)
		}
	}
	return nil
}

// sleepContext waits for d or until ctx is cancelled, whichever comes first.
// It reports whether the full duration elapsed.
func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
