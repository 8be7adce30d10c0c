package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"coopdash/internal/directory"
	"coopdash/internal/members"
	"coopdash/internal/table"
)

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "Segment members by purchase history",
}

// -- members segment --

var membersSegmentCmd = &cobra.Command{
	Use:   "segment",
	Short: "Classify members into one-time, repeat and loyal buyers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		segments, err := loadSegments(cmd)
		if err != nil {
			return err
		}
		formatMembers(os.Stdout, segments)

		out, _ := cmd.Flags().GetString("out")
		if out != "" {
			if err := members.ExportMembersToXLSX(segments, out); err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, "exported", out)
		}
		return nil
	},
}

// -- members broadcast --

var membersBroadcastCmd = &cobra.Command{
	Use:   "broadcast",
	Short: "Send one message to every member of a tier",
	RunE: func(cmd *cobra.Command, _ []string) error {
		text, _ := cmd.Flags().GetString("text")
		tierFlag, _ := cmd.Flags().GetString("tier")
		channelFlag, _ := cmd.Flags().GetString("channel")
		period, _ := cmd.Flags().GetString("period")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		tier, err := members.ParseTier(tierFlag)
		if err != nil {
			return err
		}
		channel, err := parseChannel(channelFlag)
		if err != nil {
			return err
		}
		if period == "" {
			period = today()
		}

		segments, err := loadSegments(cmd)
		if err != nil {
			return err
		}
		batch := members.Broadcast(members.Select(segments, tier), channel, "broadcast:"+period, "["+cfg.SMTPFromName+"] 안내", text)

		if dryRun {
			formatBatch(os.Stdout, batch)
			return nil
		}
		return sendBatch(cmd, batch)
	},
}

func loadSegments(cmd *cobra.Command) ([]members.Member, error) {
	path, _ := cmd.Flags().GetString("file")
	minPurchases, _ := cmd.Flags().GetInt("min")

	tbl, err := table.NewLoader(rules.Header).LoadFile(path, table.KindMember)
	if err != nil {
		return nil, err
	}
	if tbl.Warning != nil {
		fmt.Fprintln(os.Stderr, "warning:", tbl.Warning)
	}
	purchases, err := members.Purchases(tbl, rules)
	if err != nil {
		return nil, err
	}
	segments := members.Segment(purchases, members.Options{MinPurchases: minPurchases})

	idx, err := directory.NewCache(rules).Members(cfg.MemberDirectoryFile)
	if err != nil {
		return nil, err
	}
	members.Enrich(segments, idx)
	return segments, nil
}

func formatMembers(w io.Writer, segments []members.Member) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPHONE\tPURCHASES\tAMOUNT\tLAST\tTIER")
	for _, m := range segments {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n", m.ID, m.Name, m.Phone, m.Purchases, m.Amount.StringFixed(0), m.LastDate, m.Tier)
	}
	_ = tw.Flush()
}

func init() {
	for _, c := range []*cobra.Command{membersSegmentCmd, membersBroadcastCmd} {
		c.Flags().String("file", "", "member sales export")
		c.Flags().Int("min", 2, "purchases needed to count as a repeat buyer")
		_ = c.MarkFlagRequired("file")
	}
	membersSegmentCmd.Flags().String("out", "", "write segments to this xlsx file")

	membersBroadcastCmd.Flags().String("text", "", "message text")
	membersBroadcastCmd.Flags().String("tier", string(members.TierRepeat), "lowest tier to address (one_time|repeat|loyal)")
	membersBroadcastCmd.Flags().String("channel", "sms", "sms|email")
	membersBroadcastCmd.Flags().String("period", "", "broadcast key; members already reached under it are skipped (default today)")
	membersBroadcastCmd.Flags().Bool("dry-run", false, "print messages instead of sending")
	_ = membersBroadcastCmd.MarkFlagRequired("text")

	membersCmd.AddCommand(membersSegmentCmd, membersBroadcastCmd)
	rootCmd.AddCommand(membersCmd)
}

