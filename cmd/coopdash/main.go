package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"coopdash/internal"
	"coopdash/internal/config"
	"coopdash/internal/orders"
	"coopdash/internal/storage"
)

var (
	cfg   config.Config
	rules *config.Rules
)

var rootCmd = &cobra.Command{
	Use:   "coopdash",
	Short: "Order and member dashboard for a local-food cooperative",
	Long:  "Aggregates POS sales exports into vendor reorder quantities, sends order messages, segments members and manages the staff request board.",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.LogLevel, cfg.LogFormat); err != nil {
			return eris.Wrap(err, "init logger")
		}

		r, err := config.LoadRules(cfg.RulesPath)
		if err != nil {
			return err
		}
		rules = r
		zap.L().Debug("rules loaded", zap.String("command", cmd.CommandPath()), zap.String("version", rules.Version))
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func openDB() (*storage.DB, error) {
	return storage.Open(cfg.DBPath)
}

func readSources(paths []string) ([]orders.Source, error) {
	if len(paths) == 0 {
		return nil, eris.New("at least one --file is required")
	}
	out := make([]orders.Source, 0, len(paths))
	for _, p := range paths {
		blob, err := os.ReadFile(p)
		if err != nil {
			return nil, eris.Wrapf(err, "read %s", p)
		}
		out = append(out, orders.Source{Name: filepath.Base(p), Content: blob})
	}
	return out, nil
}

func recordRun(db *storage.DB, source string, files []string, counts map[string]int, warnings []string) {
	run := internal.RunRecord{ID: uuid.NewString(), Source: source, Files: files, Counts: counts, Warnings: warnings}
	if err := db.InsertRun(run); err != nil {
		zap.L().Warn("run not recorded", zap.Error(err))
	}
}

func msDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func today() string {
	return time.Now().Format("2006-01-02")
}

func parseChannel(s string) (internal.Channel, error) {
	switch internal.Channel(s) {
	case internal.ChannelSMS, internal.ChannelEmail:
		return internal.Channel(s), nil
	}
	return "", eris.Errorf("unknown channel %q (sms|email)", s)
}
