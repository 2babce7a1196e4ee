package processor

import (
	"bytes"
	"strings"

	"github.com/jhillyerd/enmime"
	"github.com/pkg/errors"

	"github.com/rasterpost/rasterpost/internal/models"
	"github.com/rasterpost/rasterpost/internal/utils"
)

// extractPDFAttachments parses the raw message and returns every attachment
// whose filename ends in .pdf, case-insensitive. That extension check is the
// sole gate into conversion; content problems surface later as classified
// conversion failures.
func extractPDFAttachments(message *models.EmailMessage) ([]*models.PDFAttachment, error) {
	envelope, err := enmime.ReadEnvelope(bytes.NewReader(message.RawMessage))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse message")
	}

	if message.BodyText == "" {
		message.BodyText = envelope.Text
	}

	parts := make([]*enmime.Part, 0, len(envelope.Attachments)+len(envelope.Inlines))
	parts = append(parts, envelope.Attachments...)
	parts = append(parts, envelope.Inlines...)

	var attachments []*models.PDFAttachment
	for _, part := range parts {
		if !strings.HasSuffix(strings.ToLower(part.FileName), ".pdf") {
			continue
		}

		// Zero-byte parts are kept: an empty PDF from an authorized sender
		// is a failed conversion with a notice, not silence.
		attachments = append(attachments, &models.PDFAttachment{
			Filename:      part.FileName,
			SanitizedName: utils.SanitizeFilename(part.FileName),
			Content:       part.Content,
			Size:          len(part.Content),
		})
	}

	return attachments, nil
}
