package orders

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"coopdash/internal"
	"coopdash/internal/columns"
	"coopdash/internal/config"
	"coopdash/internal/names"
	"coopdash/internal/table"
	"coopdash/internal/vendor"
)

type Source struct {
	Name    string
	Content []byte
}

type Options struct {
	SafetyFactor        float64
	PeriodDays          int
	IncludeUnregistered bool
}

type FileReport struct {
	Name      string
	Format    string
	Sheet     string
	HeaderRow int
	Mapping   columns.Mapping
	Stats     BuildStats
	Warning   string
}

type Result struct {
	RulesVersion string
	Lines        []internal.OrderLine
	Rollup       []internal.MessageLine
	Files        []FileReport
	Warnings     []string
	// Suggestions maps excluded vendor names to a probable allow-listed spelling.
	Suggestions map[string]string
}

func (r *Result) Counts() map[string]int {
	counts := map[string]int{"files": len(r.Files), "lines": len(r.Lines), "rollup": len(r.Rollup)}
	for _, f := range r.Files {
		counts["input_rows"] += f.Stats.Input
		counts["kept_rows"] += f.Stats.Kept
		counts["excluded_rows"] += f.Stats.Excluded
		counts["coerced_quantity"] += f.Stats.CoercedQuantity
	}
	return counts
}

type Pipeline struct {
	rules      *config.Rules
	loader     *table.Loader
	detector   *columns.Detector
	normalizer *names.Normalizer
	classifier *vendor.Classifier
}

func NewPipeline(rules *config.Rules, suggestThreshold float64) *Pipeline {
	n := names.NewNormalizer(rules)
	return &Pipeline{
		rules:      rules,
		loader:     table.NewLoader(rules.Header),
		detector:   columns.NewDetector(rules.Columns),
		normalizer: n,
		classifier: vendor.NewClassifier(rules, n, suggestThreshold),
	}
}

func (p *Pipeline) Normalizer() *names.Normalizer { return p.normalizer }

func (p *Pipeline) Classifier() *vendor.Classifier { return p.classifier }

// Run loads every source, concatenates the cleaned rows and aggregates them once.
// A read failure or missing required column in any source fails the whole run.
func (p *Pipeline) Run(ctx context.Context, sources []Source, opts Options) (*Result, error) {
	if len(sources) == 0 {
		return nil, eris.New("orders: no input files")
	}
	log := zap.L().With(zap.String("rules_version", p.rules.Version))

	res := &Result{RulesVersion: p.rules.Version, Suggestions: map[string]string{}}
	all := []Row{}
	excluded := map[string]bool{}
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "orders: run cancelled")
		}
		tbl, err := p.loader.Load(src.Content, src.Name, table.KindSales)
		if err != nil {
			return nil, err
		}
		mapping := p.detector.Detect(tbl.Columns)
		if err := mapping.Require(); err != nil {
			return nil, eris.Wrapf(err, "%s: columns %v", src.Name, tbl.Columns)
		}

		rows, stats := BuildRows(tbl, mapping, p.normalizer, p.classifier, BuildOptions{
			IncludeUnregistered: opts.IncludeUnregistered,
			UnknownVendor:       p.rules.Vendors.UnknownVendor,
		})
		all = append(all, rows...)

		report := FileReport{
			Name:      src.Name,
			Format:    tbl.Format,
			Sheet:     tbl.Sheet,
			HeaderRow: tbl.HeaderRow,
			Mapping:   mapping,
			Stats:     stats,
		}
		if tbl.Warning != nil {
			report.Warning = tbl.Warning.Error()
			res.Warnings = append(res.Warnings, report.Warning)
		}
		if stats.NoVendorColumn {
			res.Warnings = append(res.Warnings, src.Name+": no vendor column; rows grouped under "+p.rules.Vendors.UnknownVendor)
		}
		for v := range stats.ExcludedVendors {
			excluded[v] = true
		}
		res.Files = append(res.Files, report)

		log.Info("sales file loaded",
			zap.String("file", src.Name),
			zap.String("format", tbl.Format),
			zap.Int("header_row", tbl.HeaderRow),
			zap.String("item", mapping.Item),
			zap.String("quantity", mapping.Quantity),
			zap.String("amount", mapping.Amount),
			zap.String("vendor", mapping.Vendor),
			zap.Int("kept", stats.Kept),
			zap.Int("excluded", stats.Excluded))
	}

	res.Lines = Aggregate(all, opts.SafetyFactor, opts.PeriodDays)
	res.Rollup = Rollup(res.Lines)

	vendors := make([]string, 0, len(excluded))
	for v := range excluded {
		vendors = append(vendors, v)
	}
	sort.Strings(vendors)
	for _, v := range vendors {
		if s, _, ok := p.classifier.Suggest(v); ok {
			res.Suggestions[v] = s
		}
	}
	return res, nil
}
