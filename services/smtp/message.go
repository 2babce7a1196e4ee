package smtp

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"sort"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"

	"github.com/rasterpost/rasterpost/interfaces"
	rperrors "github.com/rasterpost/rasterpost/internal/errors"
	"github.com/rasterpost/rasterpost/internal/models"
	"github.com/rasterpost/rasterpost/internal/tracing"
	"github.com/rasterpost/rasterpost/internal/utils"
)

// SendReply sends one message carrying every page image as an attachment.
// The full set goes into a single message regardless of count or size.
func (s *SMTPService) SendReply(ctx context.Context, to string, cc []string, subject, bodyText string, pages []*models.RasterPage) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SMTPService.SendReply")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("to", to)
	span.SetTag("attachment_count", len(pages))

	headers := s.baseHeaders(to, subject)
	if len(cc) > 0 {
		// No CC header at all when the list is empty.
		headers["Cc"] = strings.Join(cc, ", ")
	}

	buffer := bytes.NewBuffer(nil)
	if err := buildMultipartMessage(headers, bodyText, pages, buffer); err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	recipients := utils.UniqueEmails(append([]string{to}, cc...))

	if err := s.sendToServer(ctx, s.cfg.Username, recipients, buffer); err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	return nil
}

// SendFailureNotice tells the sender why their submission failed, with enough
// structured context to self-diagnose without access to our logs.
func (s *SMTPService) SendFailureNotice(ctx context.Context, to string, convErr *rperrors.ConversionError, failureCtx interfaces.FailureContext) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SMTPService.SendFailureNotice")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("to", to)
	span.SetTag("failure_kind", convErr.Kind.String())

	subject := fmt.Sprintf("Error processing your PDF: %s", convErr.Kind)

	headers := s.baseHeaders(to, subject)
	headers["Content-Type"] = "text/plain; charset=UTF-8"

	buffer := bytes.NewBuffer(nil)
	writeHeaders(headers, buffer)
	buffer.WriteString(buildFailureNoticeBody(convErr, failureCtx))

	if err := s.sendToServer(ctx, s.cfg.Username, []string{to}, buffer); err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	return nil
}

func (s *SMTPService) baseHeaders(to, subject string) map[string]string {
	domain := utils.ExtractDomainFromEmail(s.cfg.Username)
	return map[string]string{
		"From":         s.cfg.Username,
		"To":           to,
		"Subject":      subject,
		"Date":         time.Now().UTC().Format(time.RFC1123Z),
		"Message-ID":   utils.GenerateMessageID(domain, ""),
		"MIME-Version": "1.0",
	}
}

// buildMultipartMessage creates a multipart/mixed message with a text part
// and one attachment part per page image.
func buildMultipartMessage(headers map[string]string, bodyText string, pages []*models.RasterPage, buffer *bytes.Buffer) error {
	writer := multipart.NewWriter(buffer)
	headers["Content-Type"] = "multipart/mixed; boundary=" + writer.Boundary()

	writeHeaders(headers, buffer)

	textPart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/plain; charset=UTF-8"},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return fmt.Errorf("failed to create text part: %w", err)
	}
	if _, err := textPart.Write([]byte(bodyText)); err != nil {
		return fmt.Errorf("failed to write text content: %w", err)
	}

	for _, page := range pages {
		if err := addAttachment(writer, page); err != nil {
			return err
		}
	}

	return writer.Close()
}

func addAttachment(writer *multipart.Writer, page *models.RasterPage) error {
	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {fmt.Sprintf("image/png; name=%q", page.Filename)},
		"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", page.Filename)},
		"Content-Transfer-Encoding": {"base64"},
	})
	if err != nil {
		return fmt.Errorf("failed to create attachment part: %w", err)
	}

	if _, err := part.Write(wrapBase64(page.Content)); err != nil {
		return fmt.Errorf("failed to write attachment content: %w", err)
	}

	return nil
}

// wrapBase64 encodes content with RFC 2045 line wrapping.
func wrapBase64(content []byte) []byte {
	encoded := base64.StdEncoding.EncodeToString(content)

	const lineLength = 76
	var wrapped bytes.Buffer
	for len(encoded) > lineLength {
		wrapped.WriteString(encoded[:lineLength])
		wrapped.WriteString("\r\n")
		encoded = encoded[lineLength:]
	}
	wrapped.WriteString(encoded)
	wrapped.WriteString("\r\n")

	return wrapped.Bytes()
}

// headerOrder fixes header emission order so generated messages are
// byte-for-byte stable for the same input.
var headerOrder = []string{"From", "To", "Cc", "Subject", "Date", "Message-ID", "MIME-Version", "Content-Type"}

// writeHeaders writes email headers to the buffer, known headers first in the
// fixed order, any remainder sorted.
func writeHeaders(headers map[string]string, buffer *bytes.Buffer) {
	written := make(map[string]bool, len(headers))
	for _, k := range headerOrder {
		if v, ok := headers[k]; ok {
			buffer.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
			written[k] = true
		}
	}

	rest := make([]string, 0, len(headers))
	for k := range headers {
		if !written[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		buffer.WriteString(fmt.Sprintf("%s: %s\r\n", k, headers[k]))
	}

	buffer.WriteString("\r\n")
}

func buildFailureNoticeBody(convErr *rperrors.ConversionError, failureCtx interfaces.FailureContext) string {
	divider := strings.Repeat("-", 60)

	parts := []string{
		"An error occurred while processing your PDF attachment.",
		"",
		fmt.Sprintf("Failure Kind: %s", convErr.Kind),
		fmt.Sprintf("Detail: %s", convErr.Detail),
		"",
		"Submission Context:",
		divider,
		fmt.Sprintf("Email Subject: %s", failureCtx.Subject),
		fmt.Sprintf("Sender: %s", failureCtx.Sender),
	}

	if len(failureCtx.AttachmentNames) > 0 {
		parts = append(parts, fmt.Sprintf("PDF Filenames: %s", strings.Join(failureCtx.AttachmentNames, ", ")))
	} else {
		parts = append(parts, "PDF Filenames: None")
	}

	for name, count := range failureCtx.PageCounts {
		parts = append(parts, fmt.Sprintf("Pages rendered from %s: %d", name, count))
	}

	parts = append(parts,
		divider,
		"",
		"Please verify your PDF file is:",
		"- Not corrupted or malformed",
		"- Not password-protected or encrypted",
		"- A valid PDF document",
		"",
		"If the problem persists, please contact support.",
	)

	return strings.Join(parts, "\n")
}
