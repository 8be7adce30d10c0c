package storage

import (
	"database/sql"
	"errors"

	"github.com/rotisserie/eris"

	"coopdash/internal"
)

const mailColumns = `id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef`

func scanMail(s interface{ Scan(...any) error }) (internal.ReportMail, error) {
	var row internal.ReportMail
	err := s.Scan(&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef)
	return row, err
}

func (d *DB) UpsertReportMail(provider, messageID, subject, sender, receivedAt, hash, rawRef, status string) (internal.ReportMail, error) {
	_, err := d.conn.Exec(`
INSERT INTO report_mails (provider, messageId, subject, sender, receivedAt, hash, status, rawRef)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(provider, messageId) DO UPDATE SET
  subject=excluded.subject,
  sender=excluded.sender,
  receivedAt=excluded.receivedAt,
  hash=excluded.hash,
  rawRef=excluded.rawRef,
  updatedAt=CURRENT_TIMESTAMP
`, provider, messageID, subject, sender, receivedAt, hash, status, rawRef)
	if err != nil {
		return internal.ReportMail{}, eris.Wrap(err, "storage: upsert report mail")
	}

	row, err := d.GetReportMail(provider, messageID)
	if err != nil {
		return internal.ReportMail{}, err
	}
	if row == nil {
		return internal.ReportMail{}, eris.New("storage: report mail missing after upsert")
	}
	return *row, nil
}

func (d *DB) GetReportMail(provider, messageID string) (*internal.ReportMail, error) {
	row, err := scanMail(d.conn.QueryRow(`SELECT `+mailColumns+` FROM report_mails WHERE provider = ? AND messageId = ?`, provider, messageID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "storage: get report mail")
	}
	return &row, nil
}

func (d *DB) ListReportMailsByStatus(status string, limit int) ([]internal.ReportMail, error) {
	rows, err := d.conn.Query(`SELECT `+mailColumns+` FROM report_mails WHERE status = ? ORDER BY receivedAt ASC LIMIT ?`, status, limit)
	if err != nil {
		return nil, eris.Wrap(err, "storage: list report mails")
	}
	defer rows.Close()

	var out []internal.ReportMail
	for rows.Next() {
		row, err := scanMail(rows)
		if err != nil {
			return nil, eris.Wrap(err, "storage: scan report mail")
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateReportMailStatus(id int, status string) error {
	_, err := d.conn.Exec(`UPDATE report_mails SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, status, id)
	return eris.Wrapf(err, "storage: update report mail %d", id)
}
