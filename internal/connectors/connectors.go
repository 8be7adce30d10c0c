package connectors

import (
	"context"

	"coopdash/internal"
)

// MailConnector lists new messages in a mailbox label.
type MailConnector interface {
	FetchInbox(ctx context.Context, label string, max int) ([]internal.FetchedMailMessage, error)
}
