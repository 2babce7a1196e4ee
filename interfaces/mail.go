package interfaces

import (
	"context"

	"github.com/rasterpost/rasterpost/internal/enum"
	"github.com/rasterpost/rasterpost/internal/errors"
	"github.com/rasterpost/rasterpost/internal/models"
)

// MailReceiver is the inbox side of the mail boundary. One receiver connection
// is owned by the daemon loop for its whole lifetime; nothing else touches it.
type MailReceiver interface {
	Connect(ctx context.Context) error
	// FetchUnreadMessages returns unseen messages from the primary inbox
	// folder only, in server order.
	FetchUnreadMessages(ctx context.Context) ([]*models.EmailMessage, error)
	DeleteMessage(ctx context.Context, uid uint32) error
	Disconnect() error
	TransportMode() enum.TransportMode
}

// MailSender is the outgoing side of the mail boundary.
type MailSender interface {
	Connect(ctx context.Context) error
	// SendReply places every page image as an attachment of one single
	// outgoing message. An empty cc list produces no CC header at all.
	SendReply(ctx context.Context, to string, cc []string, subject, bodyText string, pages []*models.RasterPage) error
	SendFailureNotice(ctx context.Context, to string, convErr *errors.ConversionError, failureCtx FailureContext) error
	Disconnect() error
	TransportMode() enum.TransportMode
}

// FailureContext carries the structured detail a failure notice embeds so the
// recipient can self-diagnose without access to logs.
type FailureContext struct {
	Subject         string
	Sender          string
	AttachmentNames []string
	// PageCounts maps attachment filename to pages rendered before failure.
	PageCounts map[string]int
}
