package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"coopdash/internal/board"
)

var requestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "Staff request board",
}

func openBoard() (*board.Board, error) {
	if err := cfg.Require("NOTION_TOKEN", cfg.NotionToken); err != nil {
		return nil, err
	}
	if err := cfg.Require("NOTION_REQUEST_DB", cfg.NotionRequestDB); err != nil {
		return nil, err
	}
	return board.New(board.NewClient(cfg.NotionToken, cfg.NotionRateLimitRPS), cfg.NotionRequestDB), nil
}

var requestsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List requests, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		b, err := openBoard()
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		reqs, err := b.List(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if len(reqs) == 0 {
			fmt.Fprintln(os.Stderr, "No requests found.")
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "CREATED\tURGENCY\tITEM\tVENDOR\tCONTENT")
		for _, r := range reqs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.CreatedAt.Local().Format("01-02 15:04"), r.Urgency, r.ItemName, r.VendorName, r.Content)
		}
		return tw.Flush()
	},
}

var requestsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Post a request to the board",
	RunE: func(cmd *cobra.Command, _ []string) error {
		b, err := openBoard()
		if err != nil {
			return err
		}
		item, _ := cmd.Flags().GetString("item")
		vendorName, _ := cmd.Flags().GetString("vendor")
		urgency, _ := cmd.Flags().GetString("urgency")
		content, _ := cmd.Flags().GetString("content")

		r, err := b.Add(cmd.Context(), board.Request{ItemName: item, VendorName: vendorName, Urgency: urgency, Content: content})
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, "posted", r.ID)
		return nil
	},
}

func init() {
	requestsListCmd.Flags().Int("limit", 20, "maximum requests to show (0 = all)")

	requestsAddCmd.Flags().String("item", "", "item name")
	requestsAddCmd.Flags().String("vendor", "", "vendor name")
	requestsAddCmd.Flags().String("urgency", board.UrgencyNormal, "보통|긴급|매우 긴급")
	requestsAddCmd.Flags().String("content", "", "request details")
	_ = requestsAddCmd.MarkFlagRequired("item")

	requestsCmd.AddCommand(requestsListCmd, requestsAddCmd)
	rootCmd.AddCommand(requestsCmd)
}
