package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coopdash/internal"
	"coopdash/internal/dispatch"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"orders", "members", "requests", "mail", "runs"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestOrdersCommand_Flags(t *testing.T) {
	for _, c := range []string{"aggregate", "send"} {
		cmd, _, err := rootCmd.Find([]string{"orders", c})
		require.NoError(t, err)
		assert.NotNil(t, cmd.Flags().Lookup("file"), c)
		assert.Equal(t, "1.1", cmd.Flags().Lookup("safety").DefValue, c)
	}
	assert.Equal(t, "false", ordersSendCmd.Flags().Lookup("dry-run").DefValue)
	assert.Equal(t, "sms", ordersSendCmd.Flags().Lookup("channel").DefValue)
}

func TestMembersBroadcast_DefaultTier(t *testing.T) {
	assert.Equal(t, "repeat", membersBroadcastCmd.Flags().Lookup("tier").DefValue)
}

func TestParseChannel(t *testing.T) {
	ch, err := parseChannel("email")
	require.NoError(t, err)
	assert.Equal(t, internal.ChannelEmail, ch)

	_, err = parseChannel("fax")
	assert.Error(t, err)
}

func TestReadSourcesRequiresFiles(t *testing.T) {
	_, err := readSources(nil)
	assert.Error(t, err)
}

func TestFormatRunsList(t *testing.T) {
	buf := &bytes.Buffer{}
	formatRunsList(buf, []internal.RunRecord{{
		ID:        "0123456789abcdef",
		Source:    "cli:orders",
		Files:     []string{"a.xlsx", "b.csv"},
		Counts:    map[string]int{"lines": 3, "files": 2},
		CreatedAt: "2026-02-08 09:00:00",
	}})
	out := buf.String()
	assert.Contains(t, out, "01234567")
	assert.NotContains(t, out, "0123456789abcdef")
	assert.Contains(t, out, "a.xlsx,b.csv")
	assert.Contains(t, out, "files=2 lines=3")
}

func TestFormatOrderLinesAndBatch(t *testing.T) {
	buf := &bytes.Buffer{}
	formatOrderLines(buf, []internal.OrderLine{{
		Vendor:      "고삼농협",
		DisplayItem: "사과",
		Category:    internal.CategoryRegistered,
		Quantity:    decimal.NewFromInt(10),
		Amount:      decimal.NewFromInt(10000),
		ReorderQty:  11,
	}})
	assert.Contains(t, buf.String(), "고삼농협")
	assert.Contains(t, buf.String(), "11")
	assert.NotContains(t, buf.String(), "미등록")

	buf.Reset()
	formatOrderLines(buf, []internal.OrderLine{{
		Vendor:      "동네농장",
		DisplayItem: "양파",
		Category:    internal.CategoryRegistered,
		Forced:      true,
		Amount:      decimal.NewFromInt(1000),
	}})
	out := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, out, 2)
	assert.True(t, strings.HasSuffix(out[1], "미등록"), out[1])

	buf.Reset()
	formatBatch(buf, dispatch.Batch{Messages: []dispatch.Message{{Recipient: "고삼농협", Text: "본문"}}})
	assert.Contains(t, buf.String(), "(no contact)")
}
