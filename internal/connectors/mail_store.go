package connectors

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jhillyerd/enmime"
	"github.com/rotisserie/eris"

	"coopdash/internal"
	"coopdash/internal/storage"
)

type MailStoreService struct {
	db         *storage.DB
	rawMailDir string
}

func NewMailStoreService(db *storage.DB, rawMailDir string) *MailStoreService {
	return &MailStoreService{db: db, rawMailDir: rawMailDir}
}

// Store writes the raw message once per content hash and upserts its row.
// Subject and sender are read from the message when the connector did not supply them.
func (s *MailStoreService) Store(msg internal.FetchedMailMessage) (internal.ReportMail, error) {
	hashBytes := sha256.Sum256(msg.Raw)
	hash := hex.EncodeToString(hashBytes[:])

	if err := os.MkdirAll(s.rawMailDir, 0o755); err != nil {
		return internal.ReportMail{}, eris.Wrapf(err, "mail store: mkdir %s", s.rawMailDir)
	}

	rawPath := filepath.Join(s.rawMailDir, hash+".eml")
	if _, err := os.Stat(rawPath); errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(rawPath, msg.Raw, 0o644); err != nil {
			return internal.ReportMail{}, eris.Wrapf(err, "mail store: write %s", rawPath)
		}
	}

	if msg.Subject == "" || msg.From == "" {
		if env, err := enmime.ReadEnvelope(bytes.NewReader(msg.Raw)); err == nil {
			if msg.Subject == "" {
				msg.Subject = env.GetHeader("Subject")
			}
			if msg.From == "" {
				msg.From = env.GetHeader("From")
			}
		}
	}

	return s.db.UpsertReportMail(msg.Provider, msg.MessageID, msg.Subject, msg.From, msg.ReceivedAt, hash, rawPath, "fetched")
}
