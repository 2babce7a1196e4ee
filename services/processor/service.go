package processor

import (
	"context"
	"fmt"

	"github.com/opentracing/opentracing-go"

	"github.com/rasterpost/rasterpost/config"
	"github.com/rasterpost/rasterpost/interfaces"
	"github.com/rasterpost/rasterpost/internal/enum"
	rperrors "github.com/rasterpost/rasterpost/internal/errors"
	"github.com/rasterpost/rasterpost/internal/logger"
	"github.com/rasterpost/rasterpost/internal/models"
	"github.com/rasterpost/rasterpost/internal/tracing"
	"github.com/rasterpost/rasterpost/internal/utils"
)

// ProcessorService drives one message through the job lifecycle:
// authorize, extract, convert, reply, delete. The mail receiver is passed in
// per call because the daemon loop owns it; jobs never hold a connection.
type ProcessorService struct {
	cfg        *config.ProcessorConfig
	authorizer interfaces.SenderAuthorizer
	rasterizer interfaces.Rasterizer
	sender     interfaces.MailSender
	log        logger.Logger
}

func NewProcessorService(
	cfg *config.ProcessorConfig,
	auth interfaces.SenderAuthorizer,
	rasterizer interfaces.Rasterizer,
	sender interfaces.MailSender,
	log logger.Logger,
) *ProcessorService {
	return &ProcessorService{
		cfg:        cfg,
		authorizer: auth,
		rasterizer: rasterizer,
		sender:     sender,
		log:        log,
	}
}

// ProcessMessage runs one message to its terminal state and returns the job.
// The original message is deleted if and only if the reply send succeeded;
// on any failure it stays in the inbox.
func (s *ProcessorService) ProcessMessage(ctx context.Context, receiver interfaces.MailReceiver, message *models.EmailMessage) *models.Job {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ProcessorService.ProcessMessage")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagMessage(span, message.UID, message.Sender)

	job := models.NewJob(message)
	_ = job.MarkAuthorizing()

	// Non-whitelisted senders produce silence: no reply, no notice, no log.
	if !s.authorizer.IsAuthorized(utils.BareAddress(message.Sender)) {
		_ = job.MarkIgnored()
		span.SetTag("outcome", job.Status.String())
		return job
	}

	attachments, err := extractPDFAttachments(message)
	if err != nil {
		s.failJob(ctx, job, rperrors.AsConversionError(err))
		span.SetTag("outcome", job.Status.String())
		return job
	}

	// A whitelisted sender with no PDF-typed attachment at all gets silence
	// too; a present-but-broken PDF gets a failure notice instead.
	if len(attachments) == 0 {
		_ = job.MarkIgnored()
		span.SetTag("outcome", job.Status.String())
		return job
	}

	job.Attachments = attachments
	_ = job.MarkConverting()

	// All-or-nothing: one failed attachment fails the whole job, and no
	// partial reply is ever sent. Pages rendered before the failure stay on
	// the job so the notice can report them.
	for _, pdf := range attachments {
		pages, err := s.rasterizer.Convert(ctx, pdf)
		if err != nil {
			s.failJob(ctx, job, rperrors.AsConversionError(err))
			span.SetTag("outcome", job.Status.String())
			return job
		}
		job.Pages = append(job.Pages, pages...)
	}

	_ = job.MarkReplying()

	subject := fmt.Sprintf("Re: %s", message.Subject)
	body := buildReplyBody(len(attachments), len(job.Pages))

	if err := s.sender.SendReply(ctx, message.Sender, s.cfg.CCList(), subject, body, job.Pages); err != nil {
		// Delivery failure is transport-class: log it, keep the message in
		// the inbox so the whole job retries next cycle. No notice cascade.
		_ = job.MarkFailed(enum.FailureGeneric, fmt.Sprintf("reply delivery failed: %v", err))
		tracing.TraceErr(span, err)
		s.log.Errorf("Failed to send reply to %s for message %q: %v", message.Sender, message.Subject, err)
		span.SetTag("outcome", job.Status.String())
		return job
	}

	_ = job.MarkCompleted()

	// Delete only after the send is confirmed. A failed delete means the
	// message may be reprocessed and a duplicate reply sent; that tradeoff
	// is accepted.
	if err := receiver.DeleteMessage(ctx, message.UID); err != nil {
		tracing.TraceErr(span, err)
		s.log.Errorf("Reply sent but failed to delete message UID %d from %s: %v", message.UID, message.Sender, err)
	}

	span.SetTag("outcome", job.Status.String())
	span.SetTag("pages", len(job.Pages))
	return job
}

// failJob marks the job failed and sends the failure notice best-effort. A
// failed notice never re-fails the job.
func (s *ProcessorService) failJob(ctx context.Context, job *models.Job, convErr *rperrors.ConversionError) {
	_ = job.MarkFailed(convErr.Kind, convErr.Detail)

	message := job.Message

	names := make([]string, 0, len(job.Attachments))
	pageCounts := make(map[string]int)
	for _, pdf := range job.Attachments {
		names = append(names, pdf.Filename)
	}
	for _, page := range job.Pages {
		pageCounts[page.SourcePDF]++
	}

	failureCtx := interfaces.FailureContext{
		Subject:         message.Subject,
		Sender:          message.Sender,
		AttachmentNames: names,
		PageCounts:      pageCounts,
	}

	if span := opentracing.SpanFromContext(ctx); span != nil {
		tracing.LogObjectAsJson(span, "failure_context", failureCtx)
	}

	if err := s.sender.SendFailureNotice(ctx, message.Sender, convErr, failureCtx); err != nil {
		s.log.Errorf("Failed to send failure notice to %s: %v", message.Sender, err)
	}

	s.log.Errorf("Failed to process message from %s (subject %q, attachments %v): %s",
		message.Sender, message.Subject, names, convErr.Error())
}

func buildReplyBody(pdfCount, pageCount int) string {
	return fmt.Sprintf(
		"Your PDF(s) have been converted to PNG images.\n\n"+
			"PDF files processed: %d\n"+
			"Total pages/images: %d\n\n"+
			"Please find the PNG images attached.",
		pdfCount, pageCount)
}
