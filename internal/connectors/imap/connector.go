package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/textproto"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	imapclient "github.com/emersion/go-imap/client"
	"github.com/rotisserie/eris"

	"coopdash/internal"
	"coopdash/internal/config"
)

const lookbackDays = 14

// Connector pulls unseen sales report mails from one IMAP mailbox.
type Connector struct {
	addr     string
	host     string
	secure   bool
	user     string
	password string
	markSeen bool
}

func NewConnector(cfg config.Config) (*Connector, error) {
	for _, req := range []struct{ key, value string }{
		{"IMAP_HOST", cfg.IMAPHost},
		{"IMAP_USER", cfg.IMAPUser},
		{"IMAP_PASSWORD", cfg.IMAPPassword},
	} {
		if err := cfg.Require(req.key, req.value); err != nil {
			return nil, err
		}
	}
	return &Connector{
		addr:     fmt.Sprintf("%s:%d", cfg.IMAPHost, cfg.IMAPPort),
		host:     cfg.IMAPHost,
		secure:   cfg.IMAPSecure,
		user:     cfg.IMAPUser,
		password: cfg.IMAPPassword,
		markSeen: cfg.IMAPMarkSeen,
	}, nil
}

// FetchInbox returns up to max recent unseen multipart mails from mailbox. Bodies are
// fetched only for messages whose structure can hold a report attachment.
func (c *Connector) FetchInbox(ctx context.Context, mailbox string, max int) ([]internal.FetchedMailMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	client, err := c.open(mailbox)
	if err != nil {
		return nil, err
	}
	defer client.Logout()

	uids, err := client.UidSearch(reportCriteria(time.Now()))
	if err != nil {
		return nil, eris.Wrap(err, "imap: search")
	}
	if max > 0 && len(uids) > max {
		uids = uids[len(uids)-max:]
	}
	if len(uids) == 0 {
		return nil, nil
	}

	candidates, err := reportCandidates(client, uids)
	if err != nil || candidates.Empty() {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := fetchReports(client, candidates)
	if err != nil {
		return nil, err
	}

	if c.markSeen && len(out) > 0 {
		flags := []interface{}{imap.SeenFlag}
		if err := client.UidStore(candidates, imap.FormatFlagsOp(imap.AddFlags, true), flags, nil); err != nil {
			return nil, eris.Wrap(err, "imap: mark seen")
		}
	}
	return out, nil
}

func (c *Connector) open(mailbox string) (*imapclient.Client, error) {
	var client *imapclient.Client
	var err error
	if c.secure {
		client, err = imapclient.DialTLS(c.addr, &tls.Config{ServerName: c.host})
	} else {
		client, err = imapclient.Dial(c.addr)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "imap: dial %s", c.addr)
	}
	if err := client.Login(c.user, c.password); err != nil {
		_ = client.Logout()
		return nil, eris.Wrap(err, "imap: login")
	}
	if _, err := client.Select(mailbox, false); err != nil {
		_ = client.Logout()
		return nil, eris.Wrapf(err, "imap: select %s", mailbox)
	}
	return client, nil
}

// reportCriteria matches unseen multipart mail received inside the lookback window.
func reportCriteria(now time.Time) *imap.SearchCriteria {
	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	criteria.Since = now.AddDate(0, 0, -lookbackDays)
	criteria.Header = textproto.MIMEHeader{"Content-Type": {"multipart"}}
	return criteria
}

// reportCandidates narrows uids by body structure before any body is downloaded.
func reportCandidates(client *imapclient.Client, uids []uint32) (*imap.SeqSet, error) {
	set := new(imap.SeqSet)
	set.AddNum(uids...)

	messages := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() { done <- client.UidFetch(set, []imap.FetchItem{imap.FetchUid, imap.FetchBodyStructure}, messages) }()

	keep := new(imap.SeqSet)
	for msg := range messages {
		if msg != nil && hasAttachmentParts(msg.BodyStructure) {
			keep.AddNum(msg.Uid)
		}
	}
	if err := <-done; err != nil {
		return nil, eris.Wrap(err, "imap: fetch structure")
	}
	return keep, nil
}

func fetchReports(client *imapclient.Client, uids *imap.SeqSet) ([]internal.FetchedMailMessage, error) {
	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchUid, imap.FetchEnvelope, imap.FetchInternalDate, section.FetchItem()}

	messages := make(chan *imap.Message, 16)
	done := make(chan error, 1)
	go func() { done <- client.UidFetch(uids, items, messages) }()

	var out []internal.FetchedMailMessage
	var readErr error
	for msg := range messages {
		if msg == nil || readErr != nil {
			continue
		}
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		raw, err := io.ReadAll(body)
		if err != nil {
			readErr = eris.Wrapf(err, "imap: read body uid %d", msg.Uid)
			continue
		}
		out = append(out, toFetched(msg, raw))
	}
	if err := <-done; err != nil {
		return nil, eris.Wrap(err, "imap: fetch bodies")
	}
	if readErr != nil {
		return nil, readErr
	}
	return out, nil
}

func toFetched(msg *imap.Message, raw []byte) internal.FetchedMailMessage {
	fm := internal.FetchedMailMessage{
		Provider:   "imap",
		MessageID:  fmt.Sprintf("imap-%d", msg.Uid),
		ReceivedAt: time.Now().UTC().Format(time.RFC3339),
		Raw:        raw,
	}
	if env := msg.Envelope; env != nil {
		if env.MessageId != "" {
			fm.MessageID = env.MessageId
		}
		fm.Subject = env.Subject
		fm.From = formatAddresses(env.From)
	}
	if !msg.InternalDate.IsZero() {
		fm.ReceivedAt = msg.InternalDate.UTC().Format(time.RFC3339)
	}
	return fm
}

// hasAttachmentParts reports whether bs is multipart with at least one non-text leaf
// or an HTML body. A missing structure is let through.
func hasAttachmentParts(bs *imap.BodyStructure) bool {
	if bs == nil {
		return true
	}
	if !strings.EqualFold(bs.MIMEType, "multipart") {
		return false
	}
	return hasReportLeaf(bs)
}

func hasReportLeaf(bs *imap.BodyStructure) bool {
	if strings.EqualFold(bs.MIMEType, "multipart") {
		for _, part := range bs.Parts {
			if part != nil && hasReportLeaf(part) {
				return true
			}
		}
		return false
	}
	return !strings.EqualFold(bs.MIMEType, "text") || strings.EqualFold(bs.MIMESubType, "html")
}

func formatAddresses(addrs []*imap.Address) string {
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if a == nil {
			continue
		}
		email := strings.Trim(a.MailboxName+"@"+a.HostName, "@")
		if a.PersonalName != "" {
			email = fmt.Sprintf("%s <%s>", a.PersonalName, email)
		}
		parts = append(parts, email)
	}
	return strings.Join(parts, ", ")
}
