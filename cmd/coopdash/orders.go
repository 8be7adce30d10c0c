package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"coopdash/internal"
	"coopdash/internal/directory"
	"coopdash/internal/dispatch"
	"coopdash/internal/orders"
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Aggregate sales exports into reorder quantities",
}

// -- orders aggregate --

var ordersAggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Aggregate one or more sales exports",
	RunE: func(cmd *cobra.Command, _ []string) error {
		res, files, err := runOrders(cmd)
		if err != nil {
			return err
		}

		formatOrderLines(os.Stdout, res.Lines)
		for _, w := range res.Warnings {
			fmt.Fprintln(os.Stderr, "warning:", w)
		}
		for v, s := range res.Suggestions {
			fmt.Fprintf(os.Stderr, "excluded vendor %q looks like %q\n", v, s)
		}

		out, _ := cmd.Flags().GetString("out")
		if out != "" {
			if err := orders.ExportLinesToXLSX(res.Lines, res.Rollup, out); err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, "exported", out)
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close() //nolint:errcheck
		recordRun(db, "cli:orders", files, res.Counts(), res.Warnings)
		return nil
	},
}

// -- orders send --

var ordersSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send order requests to every vendor in the aggregate",
	RunE: func(cmd *cobra.Command, _ []string) error {
		channelFlag, _ := cmd.Flags().GetString("channel")
		channel, err := parseChannel(channelFlag)
		if err != nil {
			return err
		}
		period, _ := cmd.Flags().GetString("period")
		if period == "" {
			period = today()
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		res, _, err := runOrders(cmd)
		if err != nil {
			return err
		}

		contacts, err := directory.NewCache(rules).Vendors(cfg.VendorDirectoryFile)
		if err != nil {
			return err
		}
		batch := dispatch.OrderBatch(res.Rollup, contacts, channel, period, cfg.SMTPFromName)

		if dryRun {
			formatBatch(os.Stdout, batch)
			return nil
		}
		return sendBatch(cmd, batch)
	},
}

func runOrders(cmd *cobra.Command) (*orders.Result, []string, error) {
	paths, _ := cmd.Flags().GetStringSlice("file")
	sources, err := readSources(paths)
	if err != nil {
		return nil, nil, err
	}

	opts := orders.Options{
		SafetyFactor:        cfg.SafetyFactor,
		PeriodDays:          cfg.PeriodDays,
		IncludeUnregistered: cfg.IncludeUnregistered,
	}
	if cmd.Flags().Changed("safety") {
		opts.SafetyFactor, _ = cmd.Flags().GetFloat64("safety")
		if opts.SafetyFactor <= 0 {
			return nil, nil, eris.Errorf("--safety must be positive, got %v", opts.SafetyFactor)
		}
	}
	if cmd.Flags().Changed("days") {
		opts.PeriodDays, _ = cmd.Flags().GetInt("days")
	}
	if cmd.Flags().Changed("include-unregistered") {
		opts.IncludeUnregistered, _ = cmd.Flags().GetBool("include-unregistered")
	}

	res, err := orders.NewPipeline(rules, cfg.MatchSuggestThreshold).Run(cmd.Context(), sources, opts)
	if err != nil {
		return nil, nil, err
	}

	files := make([]string, 0, len(paths))
	for _, p := range paths {
		files = append(files, filepath.Base(p))
	}
	return res, files, nil
}

func sendBatch(cmd *cobra.Command, batch dispatch.Batch) error {
	ctx := cmd.Context()

	var sms dispatch.SMSSender
	var mail dispatch.Mailer
	switch batch.Channel {
	case internal.ChannelSMS:
		client, err := dispatch.NewSMSClient(cfg)
		if err != nil {
			return err
		}
		sms = client
	case internal.ChannelEmail:
		m, err := dispatch.NewMailer(ctx, cfg)
		if err != nil {
			return err
		}
		mail = m
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	d := dispatch.NewDispatcher(sms, mail, db, dispatch.NewPacer(msDuration(cfg.DispatchDelayMs)))
	sum, err := d.SendAll(ctx, batch)
	fmt.Fprintf(os.Stdout, "sent=%d skipped=%d failed=%d\n", sum.Sent, sum.Skipped, sum.Failed)
	for _, a := range sum.Attempts {
		if !a.OK {
			fmt.Fprintf(os.Stderr, "failed %s (%s): %s\n", a.Recipient, a.Code, a.Reason)
		}
	}
	return err
}

func formatOrderLines(w io.Writer, lines []internal.OrderLine) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VENDOR\tITEM\tCATEGORY\tQTY\tAMOUNT\tKG\tREORDER\tREORDER KG\tUNVERIFIED")
	for _, l := range lines {
		unverified := ""
		if l.Forced {
			unverified = "미등록"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			l.Vendor, l.DisplayItem, l.Category, l.Quantity.String(), l.Amount.StringFixed(0), l.WeightKg.String(), l.ReorderQty, l.ReorderWeight, unverified)
	}
	_ = tw.Flush()
}

func formatBatch(w io.Writer, batch dispatch.Batch) {
	for _, m := range batch.Messages {
		address := m.Address
		if address == "" {
			address = "(no contact)"
		}
		fmt.Fprintf(w, "== %s <%s>\n%s\n\n", m.Recipient, address, m.Text)
	}
}

func init() {
	for _, c := range []*cobra.Command{ordersAggregateCmd, ordersSendCmd} {
		c.Flags().StringSlice("file", nil, "sales export file (repeatable)")
		c.Flags().Float64("safety", 1.1, "safety factor applied to sold totals")
		c.Flags().Int("days", 1, "number of days the export covers")
		c.Flags().Bool("include-unregistered", false, "keep vendors outside the allow list")
		_ = c.MarkFlagRequired("file")
	}
	ordersAggregateCmd.Flags().String("out", "", "write the aggregate to this xlsx file")
	ordersSendCmd.Flags().String("channel", "sms", "sms|email")
	ordersSendCmd.Flags().String("period", "", "order period key (default today)")
	ordersSendCmd.Flags().Bool("dry-run", false, "print messages instead of sending")

	ordersCmd.AddCommand(ordersAggregateCmd, ordersSendCmd)
	rootCmd.AddCommand(ordersCmd)
}
