package listener

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"coopdash/internal/config"
	"coopdash/internal/connectors"
	gmailconnector "coopdash/internal/connectors/gmail"
	imapconnector "coopdash/internal/connectors/imap"
	"coopdash/internal/reports"
	"coopdash/internal/storage"
)

const MetaLastCycle = "listener.last_cycle"

// Service polls the report inbox and aggregates every sales report it finds.
type Service struct {
	db        *storage.DB
	cfg       config.Config
	processor *reports.ProcessingService
	connect   func(ctx context.Context, provider string) (connectors.MailConnector, error)
}

func NewService(db *storage.DB, cfg config.Config, rules *config.Rules) *Service {
	return &Service{
		db:        db,
		cfg:       cfg,
		processor: reports.NewProcessingService(db, cfg, rules),
		connect:   func(ctx context.Context, provider string) (connectors.MailConnector, error) { return MakeConnector(ctx, cfg, provider) },
	}
}

func (s *Service) Run(ctx context.Context) error {
	interval := time.Duration(s.cfg.ReportListenerIntervalSec) * time.Second
	for {
		if _, err := s.Cycle(ctx); err != nil {
			zap.L().Error("listener cycle failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

type CycleResult struct {
	Provider string
	Fetched  int
	Stored   int
	Results  []reports.ProcessResult
}

// Cycle fetches new mail, stores it and processes every pending mail of the provider.
func (s *Service) Cycle(ctx context.Context) (CycleResult, error) {
	provider := strings.ToLower(strings.TrimSpace(s.cfg.ReportListenerProvider))
	out := CycleResult{Provider: provider}

	mailConnector, err := s.connect(ctx, provider)
	if err != nil {
		return out, err
	}

	fetchService := connectors.NewFetchService(s.db, s.cfg.RawMailDir, mailConnector)
	fetchResult, err := fetchService.FetchAndStore(ctx, s.cfg.ReportListenerLabel, s.cfg.ReportListenerFetchMax)
	if err != nil {
		return out, err
	}
	out.Fetched = fetchResult.Fetched
	out.Stored = fetchResult.Stored

	out.Results, err = s.processor.ProcessPending(ctx, s.cfg.ReportListenerBatch, provider)
	if err != nil {
		return out, err
	}

	if err := s.db.SetMetadata(MetaLastCycle, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return out, err
	}

	exported := 0
	for _, r := range out.Results {
		if r.Status == reports.StatusExported {
			exported++
		}
	}
	zap.L().Info("listener cycle done",
		zap.String("provider", provider),
		zap.Int("fetched", out.Fetched),
		zap.Int("stored", out.Stored),
		zap.Int("processed", len(out.Results)),
		zap.Int("exported", exported))
	return out, nil
}

// MakeConnector builds the mail connector named by provider.
func MakeConnector(ctx context.Context, cfg config.Config, provider string) (connectors.MailConnector, error) {
	switch provider {
	case "gmail":
		return gmailconnector.NewConnector(ctx, cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, eris.Errorf("listener: unsupported provider %q", provider)
	}
}
