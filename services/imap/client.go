package imap

import (
	"context"
	"io"
	"time"

	go_imap "github.com/emersion/go-imap"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	rperrors "github.com/rasterpost/rasterpost/internal/errors"
	"github.com/rasterpost/rasterpost/internal/models"
	"github.com/rasterpost/rasterpost/internal/tracing"
)

// inboxFolder is the only folder ever inspected.
const inboxFolder = "INBOX"

// bodySection is the peek variant of a full-body fetch. Fetching must not set
// \Seen: a message that fails processing has to stay unseen so the next
// poll's search picks it up again. Deletion after a confirmed reply is the
// only mutation this client ever makes.
func bodySection() *go_imap.BodySectionName {
	return &go_imap.BodySectionName{Peek: true}
}

// FetchUnreadMessages returns every unseen INBOX message in server order.
// Messages that fail to download individually are skipped and logged rather
// than failing the whole batch.
func (s *IMAPService) FetchUnreadMessages(ctx context.Context) ([]*models.EmailMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IMAPService.FetchUnreadMessages")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if s.client == nil {
		return nil, rperrors.ErrNotConnected
	}

	if _, err := s.client.Select(inboxFolder, false); err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(rperrors.ErrConnectionFailed, "failed to select %s: %v", inboxFolder, err)
	}

	criteria := go_imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{go_imap.SeenFlag}

	uids, err := s.client.UidSearch(criteria)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(rperrors.ErrConnectionFailed, "unseen search failed: %v", err)
	}

	span.SetTag("unseen_count", len(uids))
	if len(uids) == 0 {
		return nil, nil
	}

	seqSet := new(go_imap.SeqSet)
	seqSet.AddNum(uids...)

	section := bodySection()
	items := []go_imap.FetchItem{
		go_imap.FetchEnvelope,
		go_imap.FetchUid,
		section.FetchItem(),
	}

	messagesCh := make(chan *go_imap.Message, len(uids))
	if err := s.client.UidFetch(seqSet, items, messagesCh); err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(rperrors.ErrConnectionFailed, "fetch failed: %v", err)
	}

	fetched := make([]*models.EmailMessage, 0, len(uids))
	for msg := range messagesCh {
		message, err := s.buildMessage(msg, section)
		if err != nil {
			s.log.Errorf("Skipping message UID %d: %v", msg.Uid, err)
			tracing.TraceErr(span, err)
			continue
		}
		fetched = append(fetched, message)
	}

	return fetched, nil
}

func (s *IMAPService) buildMessage(msg *go_imap.Message, section *go_imap.BodySectionName) (*models.EmailMessage, error) {
	literal := msg.GetBody(section)
	if literal == nil {
		return nil, errors.New("server returned no body section")
	}

	raw, err := io.ReadAll(literal)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read message body")
	}

	var sender, subject string
	if msg.Envelope != nil {
		subject = msg.Envelope.Subject
		if len(msg.Envelope.From) > 0 {
			sender = msg.Envelope.From[0].Address()
		}
	}

	message := &models.EmailMessage{
		UID:        msg.Uid,
		Sender:     sender,
		Subject:    subject,
		RawMessage: raw,
		ReceivedAt: time.Now().UTC(),
	}

	if err := message.Validate(); err != nil {
		return nil, err
	}

	return message, nil
}

// DeleteMessage flags one message deleted and expunges it. Only called after
// the reply send has been confirmed.
func (s *IMAPService) DeleteMessage(ctx context.Context, uid uint32) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IMAPService.DeleteMessage")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("uid", uid)

	if s.client == nil {
		return rperrors.ErrNotConnected
	}

	seqSet := new(go_imap.SeqSet)
	seqSet.AddNum(uid)

	item := go_imap.FormatFlagsOp(go_imap.AddFlags, true)
	flags := []interface{}{go_imap.DeletedFlag}

	if err := s.client.UidStore(seqSet, item, flags, nil); err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrapf(rperrors.ErrConnectionFailed, "failed to flag UID %d deleted: %v", uid, err)
	}

	if err := s.client.Expunge(nil); err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrapf(rperrors.ErrConnectionFailed, "expunge failed for UID %d: %v", uid, err)
	}

	return nil
}
