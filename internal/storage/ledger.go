package storage

import (
	"github.com/rotisserie/eris"

	"coopdash/internal"
)

// WasSent reports whether an order for vendor was already sent in period.
func (d *DB) WasSent(vendor, period string) (bool, error) {
	var n int
	err := d.conn.QueryRow(`SELECT COUNT(1) FROM sent_orders WHERE vendor = ? AND period = ?`, vendor, period).Scan(&n)
	if err != nil {
		return false, eris.Wrap(err, "storage: check sent")
	}
	return n > 0, nil
}

func (d *DB) MarkSent(vendor, period string, channel internal.Channel) error {
	_, err := d.conn.Exec(`
INSERT INTO sent_orders (vendor, period, channel) VALUES (?, ?, ?)
ON CONFLICT(vendor, period) DO NOTHING
`, vendor, period, string(channel))
	return eris.Wrap(err, "storage: mark sent")
}

func (d *DB) InsertDispatchLog(a internal.DispatchAttempt) error {
	ok := 0
	if a.OK {
		ok = 1
	}
	_, err := d.conn.Exec(`
INSERT INTO dispatch_log (vendor, recipient, address, channel, period, ok, code, reason)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, a.Vendor, a.Recipient, a.Address, string(a.Channel), a.Period, ok, a.Code, a.Reason)
	return eris.Wrap(err, "storage: insert dispatch log")
}

func (d *DB) ListDispatchLog(period string, limit int) ([]internal.DispatchAttempt, error) {
	rows, err := d.conn.Query(`
SELECT vendor, recipient, address, channel, period, ok, code, reason
FROM dispatch_log WHERE period = ? ORDER BY id ASC LIMIT ?
`, period, limit)
	if err != nil {
		return nil, eris.Wrap(err, "storage: list dispatch log")
	}
	defer rows.Close()

	var out []internal.DispatchAttempt
	for rows.Next() {
		var a internal.DispatchAttempt
		var channel string
		var ok int
		if err := rows.Scan(&a.Vendor, &a.Recipient, &a.Address, &channel, &a.Period, &ok, &a.Code, &a.Reason); err != nil {
			return nil, eris.Wrap(err, "storage: scan dispatch log")
		}
		a.Channel = internal.Channel(channel)
		a.OK = ok == 1
		out = append(out, a)
	}
	return out, rows.Err()
}
