package gmail

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"coopdash/internal"
	"coopdash/internal/config"
)

// NewService builds a Gmail API client from the configured OAuth refresh token.
func NewService(ctx context.Context, cfg config.Config, scopes ...string) (*gmail.Service, error) {
	if err := cfg.Require("GMAIL_CLIENT_ID", cfg.GmailClientID); err != nil {
		return nil, err
	}
	if err := cfg.Require("GMAIL_CLIENT_SECRET", cfg.GmailClientSecret); err != nil {
		return nil, err
	}
	if err := cfg.Require("GMAIL_REFRESH_TOKEN", cfg.GmailRefreshToken); err != nil {
		return nil, err
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.GmailClientID,
		ClientSecret: cfg.GmailClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.GmailRedirectURI,
		Scopes:       scopes,
	}

	tokenSource := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.GmailRefreshToken})
	svc, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, eris.Wrap(err, "gmail: new service")
	}
	return svc, nil
}

// Connector reads sales report mails from a Gmail label.
type Connector struct {
	service *gmail.Service
}

func NewConnector(ctx context.Context, cfg config.Config) (*Connector, error) {
	svc, err := NewService(ctx, cfg, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, err
	}
	return &Connector{service: svc}, nil
}

func (c *Connector) FetchInbox(ctx context.Context, label string, max int) ([]internal.FetchedMailMessage, error) {
	listResp, err := c.service.Users.Messages.List("me").LabelIds(label).MaxResults(int64(max)).Context(ctx).Do()
	if err != nil {
		return nil, eris.Wrapf(err, "gmail: list %s", label)
	}

	out := make([]internal.FetchedMailMessage, 0, len(listResp.Messages))
	for _, msgRef := range listResp.Messages {
		if msgRef.Id == "" {
			continue
		}

		rawResp, err := c.service.Users.Messages.Get("me", msgRef.Id).Format("raw").Context(ctx).Do()
		if err != nil {
			return nil, eris.Wrapf(err, "gmail: get %s", msgRef.Id)
		}
		if rawResp.Raw == "" {
			continue
		}
		rawBytes, err := DecodeBase64URL(rawResp.Raw)
		if err != nil {
			return nil, err
		}

		out = append(out, internal.FetchedMailMessage{
			Provider:   "gmail",
			MessageID:  msgRef.Id,
			ReceivedAt: receivedAt(rawResp.InternalDate),
			Raw:        rawBytes,
		})
	}
	return out, nil
}

// DecodeBase64URL accepts both padded and unpadded Gmail payloads.
func DecodeBase64URL(input string) ([]byte, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(input, "="))
	if err != nil {
		return nil, eris.Wrap(err, "decode gmail raw payload")
	}
	return decoded, nil
}

func receivedAt(internalDateMs int64) string {
	if internalDateMs <= 0 {
		return time.Now().UTC().Format(time.RFC3339)
	}
	return time.UnixMilli(internalDateMs).UTC().Format(time.RFC3339)
}
