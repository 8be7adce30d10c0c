package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"coopdash/internal/connectors"
	"coopdash/internal/listener"
	"coopdash/internal/reports"
)

var mailCmd = &cobra.Command{
	Use:   "mail",
	Short: "Fetch and process emailed sales reports",
}

var mailFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch new report mails into the raw mail store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		provider, _ := cmd.Flags().GetString("provider")
		label, _ := cmd.Flags().GetString("label")
		maxMessages, _ := cmd.Flags().GetInt("max")

		conn, err := listener.MakeConnector(cmd.Context(), cfg, strings.ToLower(provider))
		if err != nil {
			return err
		}
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close() //nolint:errcheck

		result, err := connectors.NewFetchService(db, cfg.RawMailDir, conn).FetchAndStore(cmd.Context(), label, maxMessages)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "mail fetch done provider=%s fetched=%d stored=%d\n", provider, result.Fetched, result.Stored)
		return nil
	},
}

var mailProcessCmd = &cobra.Command{
	Use:   "process",
	Short: "Aggregate stored report mails",
	RunE: func(cmd *cobra.Command, _ []string) error {
		provider, _ := cmd.Flags().GetString("provider")
		messageID, _ := cmd.Flags().GetString("message-id")
		batch, _ := cmd.Flags().GetInt("batch")

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close() //nolint:errcheck

		processor := reports.NewProcessingService(db, cfg, rules)
		if strings.TrimSpace(messageID) != "" {
			res, err := processor.ProcessByProviderMessageID(cmd.Context(), provider, messageID)
			if err != nil {
				return err
			}
			printProcessResult(res)
			return nil
		}

		results, err := processor.ProcessPending(cmd.Context(), batch, provider)
		for _, res := range results {
			printProcessResult(res)
		}
		fmt.Fprintf(os.Stdout, "processed pending mails=%d\n", len(results))
		return err
	},
}

func printProcessResult(res reports.ProcessResult) {
	fmt.Fprintf(os.Stdout, "mail id=%d status=%s lines=%d %s\n", res.MailID, res.Status, res.Lines, res.Output)
}

func init() {
	mailFetchCmd.Flags().String("provider", "imap", "gmail|imap")
	mailFetchCmd.Flags().String("label", "INBOX", "mailbox or label")
	mailFetchCmd.Flags().Int("max", 50, "max messages")

	mailProcessCmd.Flags().String("provider", "", "only process mails from this provider")
	mailProcessCmd.Flags().String("message-id", "", "process one stored message")
	mailProcessCmd.Flags().Int("batch", 20, "batch size")

	mailCmd.AddCommand(mailFetchCmd, mailProcessCmd)
	rootCmd.AddCommand(mailCmd)
}
