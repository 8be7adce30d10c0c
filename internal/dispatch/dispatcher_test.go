package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coopdash/internal"
	"coopdash/internal/directory"
)

type fakeSMS struct {
	sent []string
	fail map[string]error
}

func (f *fakeSMS) Send(_ context.Context, to, text string) error {
	if err := f.fail[to]; err != nil {
		return err
	}
	f.sent = append(f.sent, to)
	return nil
}

type fakeMailer struct {
	subjects []string
}

func (f *fakeMailer) Send(_ context.Context, to, toName, subject, body string) error {
	f.subjects = append(f.subjects, subject)
	return nil
}

type memLedger struct {
	sent map[string]bool
	log  []internal.DispatchAttempt
}

func newMemLedger() *memLedger { return &memLedger{sent: map[string]bool{}} }

func (l *memLedger) WasSent(key, period string) (bool, error) { return l.sent[key+"|"+period], nil }

func (l *memLedger) MarkSent(key, period string, _ internal.Channel) error {
	l.sent[key+"|"+period] = true
	return nil
}

func (l *memLedger) InsertDispatchLog(a internal.DispatchAttempt) error {
	l.log = append(l.log, a)
	return nil
}

func TestSendAllContinuesAfterFailures(t *testing.T) {
	sms := &fakeSMS{fail: map[string]error{"01000000000": failure("Blocked", "blocked number")}}
	ledger := newMemLedger()
	ledger.sent["(주)우리밀|2026-02-08"] = true
	d := NewDispatcher(sms, nil, ledger, NewPacer(0))

	sum, err := d.SendAll(context.Background(), Batch{
		Period:  "2026-02-08",
		Channel: internal.ChannelSMS,
		Messages: []Message{
			{Key: "고삼농협", Recipient: "고삼농협", Address: "01011112222", Text: "a"},
			{Key: "(주)열두달", Recipient: "(주)열두달", Address: "01000000000", Text: "b"},
			{Key: "(주)우리밀", Recipient: "(주)우리밀", Address: "01033334444", Text: "c"},
			{Key: "(주)한누리", Recipient: "(주)한누리", Text: "d"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Sent)
	assert.Equal(t, 2, sum.Failed)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, []string{"01011112222"}, sms.sent)
	require.Len(t, ledger.log, 3)
	assert.Equal(t, "Blocked", ledger.log[1].Code)
	assert.Equal(t, "no_contact", ledger.log[2].Code)
	assert.True(t, ledger.sent["고삼농협|2026-02-08"])
	assert.False(t, ledger.sent["(주)열두달|2026-02-08"])

	// A rerun of the same period only retries the failures.
	sum, err = d.SendAll(context.Background(), Batch{
		Period:   "2026-02-08",
		Channel:  internal.ChannelSMS,
		Messages: []Message{{Key: "고삼농협", Recipient: "고삼농협", Address: "01011112222", Text: "a"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Skipped)
}

func TestSendAllEmailWithoutMailer(t *testing.T) {
	d := NewDispatcher(nil, nil, newMemLedger(), nil)
	sum, err := d.SendAll(context.Background(), Batch{
		Channel:  internal.ChannelEmail,
		Messages: []Message{{Recipient: "x", Address: "x@example.com", Text: "t"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, "not_configured", sum.Attempts[0].Code)
}

func TestOrderBatchDraftsPerVendor(t *testing.T) {
	contacts := directory.BuildIndex([]directory.Contact{
		{Name: "고삼농협", Phone: "01011112222", Email: "gosam@example.com"},
	})
	rollup := []internal.MessageLine{
		{Vendor: "고삼농협", ParentItem: "사과", ReorderQty: 11, ReorderWeight: 6},
		{Vendor: "고삼농협", ParentItem: "배", ReorderQty: 2},
		{Vendor: "(주)열두달", ParentItem: "쌀", ReorderQty: 3},
	}

	batch := OrderBatch(rollup, contacts, internal.ChannelEmail, "2026-02-08", "지족 로컬푸드")
	require.Len(t, batch.Messages, 2)

	gosam := batch.Messages[0]
	assert.Equal(t, "gosam@example.com", gosam.Address)
	assert.Equal(t, "[지족 로컬푸드] 고삼농협님 발주 요청", gosam.Subject)
	assert.Contains(t, gosam.Text, "- 사과: 11개 (6kg)")
	assert.Contains(t, gosam.Text, "- 배: 2개\n")
	assert.True(t, strings.HasPrefix(gosam.Text, "[지족 로컬푸드] 고삼농협님 발주 요청 (2026-02-08)\n"))
	assert.Equal(t, "", batch.Messages[1].Address)

	mailer := &fakeMailer{}
	sum, err := NewDispatcher(nil, mailer, newMemLedger(), nil).SendAll(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Sent)
	assert.Equal(t, []string{gosam.Subject}, mailer.subjects)
}

func TestOrderBatchSkipsExcludedLines(t *testing.T) {
	rollup := []internal.MessageLine{
		{Vendor: "미지정", ParentItem: "양파", Category: internal.CategoryExcluded, ReorderQty: 3},
		{Vendor: "고삼농협", ParentItem: "사과", Category: internal.CategoryRegistered, ReorderQty: 2},
	}

	batch := OrderBatch(rollup, directory.BuildIndex(nil), internal.ChannelSMS, "2026-02-08", "지족 로컬푸드")
	require.Len(t, batch.Messages, 1)
	assert.Equal(t, "고삼농협", batch.Messages[0].Key)
}

func TestPacerSpacesSends(t *testing.T) {
	p := NewPacer(50 * time.Millisecond)
	var slept []time.Duration
	p.sleep = func(d time.Duration) { slept = append(slept, d) }

	p.WaitTurn()
	p.WaitTurn()
	p.WaitTurn()
	require.Len(t, slept, 2)
	assert.Greater(t, slept[1], slept[0])
}

func TestBuildMessage(t *testing.T) {
	msg, err := BuildMessage("지족 로컬푸드", "shop@example.com", "고삼농협", "gosam@example.com", "[지족 로컬푸드] 고삼농협님 발주 요청", "사과 11개", time.Date(2026, 2, 8, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	text := string(msg)
	assert.Contains(t, text, "gosam@example.com")
	assert.Contains(t, text, "Subject:")
	assert.Contains(t, text, "Content-Type: text/plain")
}

func TestFailureIsDispatchFailure(t *testing.T) {
	err := failure("x", "y")
	assert.True(t, errors.Is(err, ErrDispatchFailure))
	code, reason := describe(errors.New("plain"))
	assert.Equal(t, "", code)
	assert.Equal(t, "plain", reason)
}
