package gmail

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coopdash/internal/config"
)

func TestDecodeBase64URL(t *testing.T) {
	raw := []byte("Subject: 매출\r\n\r\n?>")
	padded := base64.URLEncoding.EncodeToString(raw)
	unpadded := base64.RawURLEncoding.EncodeToString(raw)

	for _, in := range []string{padded, unpadded} {
		got, err := DecodeBase64URL(in)
		require.NoError(t, err)
		assert.Equal(t, raw, got)
	}

	_, err := DecodeBase64URL("***")
	assert.Error(t, err)
}

func TestReceivedAt(t *testing.T) {
	assert.Equal(t, "2026-02-08T00:00:00Z", receivedAt(1770508800000))
	assert.NotEmpty(t, receivedAt(0))
}

func TestNewConnectorRequiresCredentials(t *testing.T) {
	_, err := NewConnector(context.Background(), config.Config{GmailClientID: "id"})
	assert.Error(t, err)
}
