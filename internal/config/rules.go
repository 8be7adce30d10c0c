package config

import (
	_ "embed"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRules []byte

// Table kinds understood by the header scanner.
const (
	KindSales         = "sales"
	KindMember        = "member"
	KindVendorContact = "vendor_contact"
)

// Rules is the versioned keyword configuration shared by every pipeline stage.
type Rules struct {
	Version   string           `yaml:"version"`
	Header    HeaderRules      `yaml:"header"`
	Columns   ColumnRules      `yaml:"columns"`
	Names     NameRules        `yaml:"names"`
	Vendors   VendorRules      `yaml:"vendors"`
	Members   MemberColumns    `yaml:"members"`
	Directory DirectoryColumns `yaml:"directory"`
	Reports   ReportRules      `yaml:"reports"`
}

type HeaderRules struct {
	ScanRows   int                 `yaml:"scan_rows"`
	MinMatches int                 `yaml:"min_matches"`
	Keywords   map[string][]string `yaml:"keywords"`
}

type ColumnRules struct {
	Item     []string    `yaml:"item"`
	Quantity []string    `yaml:"quantity"`
	Vendor   []string    `yaml:"vendor"`
	Spec     []string    `yaml:"spec"`
	Date     []string    `yaml:"date"`
	VAT      []string    `yaml:"vat"`
	Amount   AmountRules `yaml:"amount"`
}

type AmountRules struct {
	Priority []KeywordGroup `yaml:"priority"`
	Exclude  []string       `yaml:"exclude"`
}

// KeywordGroup matches a label when every clause has at least one of its keywords as a substring.
type KeywordGroup struct {
	AllOf [][]string `yaml:"all_of"`
}

func (g KeywordGroup) Matches(label string) bool {
	if len(g.AllOf) == 0 {
		return false
	}
	for _, clause := range g.AllOf {
		if !ContainsAny(label, clause) {
			return false
		}
	}
	return true
}

type NameRules struct {
	BulkMarkers []string `yaml:"bulk_markers"`
}

type VendorRules struct {
	UnknownVendor   string       `yaml:"unknown_vendor"`
	InternalMarker  string       `yaml:"internal_marker"`
	ExcludedMarkers []string     `yaml:"excluded_markers"`
	Branches        []BranchRule `yaml:"branches"`
	AllowList       []string     `yaml:"allow_list"`
}

type BranchRule struct {
	Label  string     `yaml:"label"`
	Tokens [][]string `yaml:"tokens"`
}

func (b BranchRule) Matches(name string) bool {
	return KeywordGroup{AllOf: b.Tokens}.Matches(name)
}

type MemberColumns struct {
	ID    []string `yaml:"id"`
	Name  []string `yaml:"name"`
	Phone []string `yaml:"phone"`
	Email []string `yaml:"email"`
}

type DirectoryColumns struct {
	Name  []string `yaml:"name"`
	Phone []string `yaml:"phone"`
	Email []string `yaml:"email"`
}

type ReportRules struct {
	SubjectKeywords []string `yaml:"subject_keywords"`
	Extensions      []string `yaml:"extensions"`
}

// LoadRules reads the rules file at path, or the embedded default when path is empty.
func LoadRules(path string) (*Rules, error) {
	blob := defaultRules
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "rules: read %s", path)
		}
		blob = b
	}
	return ParseRules(blob)
}

func ParseRules(blob []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(blob, &r); err != nil {
		return nil, eris.Wrap(err, "rules: parse yaml")
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *Rules) Validate() error {
	if r.Header.ScanRows < 1 {
		return eris.New("rules: header.scan_rows must be at least 1")
	}
	if r.Header.MinMatches < 1 {
		return eris.New("rules: header.min_matches must be at least 1")
	}
	for _, kind := range []string{KindSales, KindMember, KindVendorContact} {
		if len(r.Header.Keywords[kind]) == 0 {
			return eris.Errorf("rules: header.keywords.%s is empty", kind)
		}
	}
	if len(r.Columns.Item) == 0 || len(r.Columns.Quantity) == 0 || len(r.Columns.Amount.Priority) == 0 {
		return eris.New("rules: item, quantity and amount keyword sets are required")
	}
	if len(r.Names.BulkMarkers) == 0 {
		return eris.New("rules: names.bulk_markers is empty")
	}
	if strings.TrimSpace(r.Vendors.InternalMarker) == "" {
		return eris.New("rules: vendors.internal_marker is empty")
	}
	for _, b := range r.Vendors.Branches {
		if b.Label == "" || len(b.Tokens) < 2 {
			return eris.Errorf("rules: branch %q needs a label and two token groups", b.Label)
		}
	}
	if r.Vendors.UnknownVendor == "" {
		r.Vendors.UnknownVendor = "미지정"
	}
	return nil
}

// ContainsAny reports whether s contains any of the keywords as a substring.
func ContainsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(s, k) {
			return true
		}
	}
	return false
}
