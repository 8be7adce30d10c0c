package storage

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"coopdash/internal"
)

func (d *DB) InsertRun(run internal.RunRecord) error {
	filesJSON, _ := json.Marshal(nonNil(run.Files))
	countsJSON, _ := json.Marshal(run.Counts)
	warningsJSON, _ := json.Marshal(nonNil(run.Warnings))
	_, err := d.conn.Exec(`INSERT INTO runs (id, source, filesJson, countsJson, warningsJson) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Source, string(filesJSON), string(countsJSON), string(warningsJSON))
	return eris.Wrapf(err, "storage: insert run %s", run.ID)
}

func (d *DB) ListRuns(limit int) ([]internal.RunRecord, error) {
	rows, err := d.conn.Query(`
SELECT id, source, filesJson, countsJson, warningsJson, createdAt
FROM runs ORDER BY createdAt DESC, rowid DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "storage: list runs")
	}
	defer rows.Close()

	var out []internal.RunRecord
	for rows.Next() {
		var r internal.RunRecord
		var filesJSON, countsJSON, warningsJSON string
		if err := rows.Scan(&r.ID, &r.Source, &filesJSON, &countsJSON, &warningsJSON, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "storage: scan run")
		}
		_ = json.Unmarshal([]byte(filesJSON), &r.Files)
		_ = json.Unmarshal([]byte(countsJSON), &r.Counts)
		_ = json.Unmarshal([]byte(warningsJSON), &r.Warnings)
		out = append(out, r)
	}
	return out, rows.Err()
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
