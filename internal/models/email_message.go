package models

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// EmailMessage is one message fetched from the INBOX. It is read-only after
// creation and stays referenced until its job resolves: success deletes it
// from the server, failure leaves it untouched for reprocessing.
type EmailMessage struct {
	// UID is the server-assigned identifier, stable within the mailbox session.
	UID        uint32
	Sender     string
	Subject    string
	BodyText   string
	RawMessage []byte
	ReceivedAt time.Time
}

func (m *EmailMessage) Validate() error {
	if m.UID == 0 {
		return errors.New("message UID must be set")
	}
	if !strings.Contains(m.Sender, "@") {
		return errors.Errorf("sender %q is not a valid email address", m.Sender)
	}
	if len(m.RawMessage) == 0 {
		return errors.New("raw message must not be empty")
	}
	return nil
}
