package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coopdash/internal"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSentOrdersIdempotency(t *testing.T) {
	db := openTestDB(t)

	sent, err := db.WasSent("고삼농협", "2026-02-08")
	require.NoError(t, err)
	assert.False(t, sent)

	require.NoError(t, db.MarkSent("고삼농협", "2026-02-08", internal.ChannelSMS))
	require.NoError(t, db.MarkSent("고삼농협", "2026-02-08", internal.ChannelEmail))

	sent, err = db.WasSent("고삼농협", "2026-02-08")
	require.NoError(t, err)
	assert.True(t, sent)

	sent, err = db.WasSent("고삼농협", "2026-02-09")
	require.NoError(t, err)
	assert.False(t, sent)
}

func TestDispatchLog(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.InsertDispatchLog(internal.DispatchAttempt{Vendor: "a", Recipient: "a", Address: "010", Channel: internal.ChannelSMS, Period: "p", OK: true}))
	require.NoError(t, db.InsertDispatchLog(internal.DispatchAttempt{Vendor: "b", Recipient: "b", Channel: internal.ChannelSMS, Period: "p", Code: "no_contact", Reason: "none"}))

	log, err := db.ListDispatchLog("p", 10)
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.True(t, log[0].OK)
	assert.Equal(t, "no_contact", log[1].Code)
	assert.Equal(t, internal.ChannelSMS, log[1].Channel)
}

func TestRuns(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.InsertRun(internal.RunRecord{ID: "r1", Source: "cli", Files: []string{"a.xlsx"}, Counts: map[string]int{"lines": 3}}))

	runs, err := db.ListRuns(5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, []string{"a.xlsx"}, runs[0].Files)
	assert.Equal(t, 3, runs[0].Counts["lines"])
	assert.Empty(t, runs[0].Warnings)
	assert.NotEmpty(t, runs[0].CreatedAt)
}

func TestReportMails(t *testing.T) {
	db := openTestDB(t)
	m, err := db.UpsertReportMail("imap", "<1@x>", "매출 보고", "pos@example.com", "2026-02-08T00:00:00Z", "h", "/tmp/h.eml", "fetched")
	require.NoError(t, err)
	assert.NotZero(t, m.ID)

	again, err := db.UpsertReportMail("imap", "<1@x>", "매출 보고(수정)", "pos@example.com", "2026-02-08T00:00:00Z", "h", "/tmp/h.eml", "fetched")
	require.NoError(t, err)
	assert.Equal(t, m.ID, again.ID)
	assert.Equal(t, "매출 보고(수정)", again.Subject)

	require.NoError(t, db.UpdateReportMailStatus(m.ID, "exported"))
	pending, err := db.ListReportMailsByStatus("fetched", 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	missing, err := db.GetReportMail("imap", "<nope>")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMetadata(t *testing.T) {
	db := openTestDB(t)
	v, err := db.GetMetadata("k")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, db.SetMetadata("k", "1"))
	require.NoError(t, db.SetMetadata("k", "2"))
	v, err = db.GetMetadata("k")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "2", *v)
}
