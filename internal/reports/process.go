package reports

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"coopdash/internal"
	"coopdash/internal/columns"
	"coopdash/internal/config"
	"coopdash/internal/orders"
	"coopdash/internal/storage"
	"coopdash/internal/table"
)

// Mail statuses after processing.
const (
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
	StatusProcessed = "processed"
	StatusExported  = "exported"
)

type ProcessingService struct {
	db       *storage.DB
	cfg      config.Config
	rules    *config.Rules
	pipeline *orders.Pipeline
}

func NewProcessingService(db *storage.DB, cfg config.Config, rules *config.Rules) *ProcessingService {
	return &ProcessingService{
		db:       db,
		cfg:      cfg,
		rules:    rules,
		pipeline: orders.NewPipeline(rules, cfg.MatchSuggestThreshold),
	}
}

type ProcessResult struct {
	MailID int
	Status string
	Lines  int
	Output string
}

func (s *ProcessingService) ProcessByProviderMessageID(ctx context.Context, provider, messageID string) (ProcessResult, error) {
	mail, err := s.db.GetReportMail(provider, messageID)
	if err != nil {
		return ProcessResult{}, err
	}
	if mail == nil {
		return ProcessResult{}, eris.Errorf("reports: no stored mail %s/%s", provider, messageID)
	}
	return s.ProcessMail(ctx, *mail)
}

func (s *ProcessingService) ProcessPending(ctx context.Context, limit int, provider string) ([]ProcessResult, error) {
	pending, err := s.db.ListReportMailsByStatus("fetched", limit)
	if err != nil {
		return nil, err
	}
	out := make([]ProcessResult, 0, len(pending))
	for _, mail := range pending {
		if provider != "" && mail.Provider != provider {
			continue
		}
		res, err := s.ProcessMail(ctx, mail)
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}
	return out, nil
}

// ProcessMail aggregates the report sources of one stored mail.
// Unreadable or column-less sources mark the mail failed instead of stopping the batch.
func (s *ProcessingService) ProcessMail(ctx context.Context, mail internal.ReportMail) (ProcessResult, error) {
	start := time.Now()
	log := zap.L().With(zap.Int("mail_id", mail.ID), zap.String("provider", mail.Provider))

	raw, err := os.ReadFile(mail.RawRef)
	if err != nil {
		return ProcessResult{}, eris.Wrapf(err, "reports: read %s", mail.RawRef)
	}

	extracted, err := ExtractReportAttachments(raw, s.rules.Reports.Extensions)
	if err != nil {
		return ProcessResult{}, err
	}

	names := make([]string, 0, len(extracted.Sources))
	for _, src := range extracted.Sources {
		names = append(names, src.Name)
	}
	detect := DetectSalesReport(firstNonEmpty(extracted.Subject, mail.Subject), names, s.rules.Reports)

	run := internal.RunRecord{
		ID:     uuid.NewString(),
		Source: "mail:" + mail.Provider,
		Files:  names,
		Counts: map[string]int{},
	}
	res := ProcessResult{MailID: mail.ID}

	if !detect.IsReport {
		log.Info("mail is not a sales report", zap.Float64("score", detect.Score), zap.String("reason", detect.Reason))
		res.Status = StatusSkipped
		return res, s.finish(mail, run, res, start)
	}

	result, err := s.pipeline.Run(ctx, extracted.Sources, orders.Options{
		SafetyFactor:        s.cfg.SafetyFactor,
		PeriodDays:          s.cfg.PeriodDays,
		IncludeUnregistered: s.cfg.IncludeUnregistered,
	})
	if err != nil {
		if !errors.Is(err, table.ErrReadFailure) && !errors.Is(err, columns.ErrColumnRoleMissing) {
			return ProcessResult{}, err
		}
		log.Warn("report could not be aggregated", zap.Error(err))
		res.Status = StatusFailed
		run.Warnings = []string{err.Error()}
		return res, s.finish(mail, run, res, start)
	}

	res.Lines = len(result.Lines)
	res.Status = StatusProcessed
	run.Counts = result.Counts()
	run.Warnings = result.Warnings

	if s.cfg.ReportListenerAutoExport && len(result.Lines) > 0 {
		filename := strconv.Itoa(mail.ID) + "_" + sanitizeMessageID(mail.MessageID) + ".xlsx"
		res.Output = filepath.Join(s.cfg.OutputDir, "listener", filename)
		if err := orders.ExportLinesToXLSX(result.Lines, result.Rollup, res.Output); err != nil {
			return ProcessResult{}, err
		}
		res.Status = StatusExported
	}

	log.Info("report processed", zap.String("status", res.Status), zap.Int("lines", res.Lines), zap.String("output", res.Output))
	return res, s.finish(mail, run, res, start)
}

func (s *ProcessingService) finish(mail internal.ReportMail, run internal.RunRecord, res ProcessResult, start time.Time) error {
	if err := s.db.UpdateReportMailStatus(mail.ID, res.Status); err != nil {
		return err
	}
	run.Counts["elapsed_ms"] = int(time.Since(start).Milliseconds())
	return s.db.InsertRun(run)
}

func sanitizeMessageID(input string) string {
	repl := strings.NewReplacer("<", "_", ">", "_", ":", "_", "/", "_", "\\", "_", "|", "_", "?", "_", "*", "_", " ", "_", "@", "_")
	out := repl.Replace(input)
	if len(out) > 120 {
		out = out[:120]
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
