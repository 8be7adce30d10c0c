package table

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"coopdash/internal/config"
	"coopdash/internal/util"
)

var (
	ErrReadFailure    = eris.New("table: file could not be read in any supported format")
	ErrHeaderNotFound = eris.New("table: header row not found")
)

type Kind string

const (
	KindSales         Kind = config.KindSales
	KindMember        Kind = config.KindMember
	KindVendorContact Kind = config.KindVendorContact
)

const (
	FormatXLSX = "xlsx"
	FormatHTML = "html"
	FormatCSV  = "csv"
)

// Table is a raw sheet after header resolution. Every row has len(Columns) cells.
type Table struct {
	Name      string
	Format    string
	Sheet     string
	HeaderRow int
	Columns   []string
	Rows      [][]string
	// Warning is non-nil when the header was guessed; it wraps ErrHeaderNotFound.
	Warning error
}

func (t *Table) Degraded() bool { return t.Warning != nil }

func (t *Table) Index(label string) int {
	for i, c := range t.Columns {
		if c == label {
			return i
		}
	}
	return -1
}

// Value returns the cell under label, or "" when the label is empty or unknown.
func (t *Table) Value(row []string, label string) string {
	if label == "" {
		return ""
	}
	idx := t.Index(label)
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

type Loader struct {
	rules config.HeaderRules
}

func NewLoader(rules config.HeaderRules) *Loader {
	return &Loader{rules: rules}
}

// Load parses content as xlsx, then an HTML table, then delimited text, and resolves the header row for kind.
func (l *Loader) Load(content []byte, name string, kind Kind) (*Table, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, eris.Wrapf(ErrReadFailure, "%s: empty input", name)
	}
	keywords := l.rules.Keywords[string(kind)]
	if len(keywords) == 0 {
		return nil, eris.Errorf("table: no header keywords for kind %q", kind)
	}

	sheets, format, err := readAny(content)
	if err != nil {
		return nil, eris.Wrapf(err, "%s", name)
	}

	// Prefer the first sheet whose header can be found.
	chosen := -1
	header := -1
	for i, s := range sheets {
		if h := FindHeaderRow(s.rows, keywords, l.rules.ScanRows, l.rules.MinMatches); h >= 0 {
			chosen, header = i, h
			break
		}
	}

	var warning error
	if chosen < 0 {
		for i, s := range sheets {
			if len(s.rows) > 0 {
				chosen = i
				break
			}
		}
		if chosen < 0 {
			return nil, eris.Wrapf(ErrReadFailure, "%s: no rows", name)
		}
		warning = eris.Wrapf(ErrHeaderNotFound, "%s: no row in the first %d matched %d %s keywords; using the first row",
			name, l.rules.ScanRows, l.rules.MinMatches, kind)
		zap.L().Warn("header not found, falling back to first row",
			zap.String("file", name), zap.String("kind", string(kind)))
	}

	s := sheets[chosen]
	start := header
	if start < 0 {
		start = 0
	}
	cols, keep := buildColumns(s.rows[start])
	t := &Table{
		Name:      name,
		Format:    format,
		Sheet:     s.name,
		HeaderRow: header,
		Columns:   cols,
		Warning:   warning,
	}
	for _, raw := range s.rows[start+1:] {
		row := make([]string, len(keep))
		empty := true
		for j, src := range keep {
			if src < len(raw) {
				row[j] = util.CellText(raw[src])
				if row[j] != "" {
					empty = false
				}
			}
		}
		if empty {
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

type sheet struct {
	name string
	rows [][]string
}

func readAny(content []byte) ([]sheet, string, error) {
	if sheets, err := readXLSX(content); err == nil {
		return sheets, FormatXLSX, nil
	}
	if looksLikeHTML(content) {
		if sheets, err := readHTML(content); err == nil {
			return sheets, FormatHTML, nil
		}
	}
	sheets, err := readDelimited(content)
	if err != nil {
		return nil, "", err
	}
	return sheets, FormatCSV, nil
}

// buildColumns cleans header labels and returns the surviving labels with their source indexes.
// Repeated labels get the first free ".N" suffix, so every returned label is unique.
func buildColumns(header []string) ([]string, []int) {
	cols := make([]string, 0, len(header))
	keep := make([]int, 0, len(header))
	used := map[string]bool{}
	suffix := map[string]int{}
	for i, cell := range header {
		label := util.StripSpaces(util.CellText(cell))
		if label == "" || strings.EqualFold(label, "nan") || strings.HasPrefix(label, "Unnamed") {
			continue
		}
		if used[label] {
			base := label
			for used[label] {
				suffix[base]++
				label = base + "." + strconv.Itoa(suffix[base])
			}
		}
		used[label] = true
		cols = append(cols, label)
		keep = append(keep, i)
	}
	return cols, keep
}

func (l *Loader) LoadFile(path string, kind Kind) (*Table, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(ErrReadFailure, "%s: %v", path, err)
	}
	return l.Load(content, filepath.Base(path), kind)
}
