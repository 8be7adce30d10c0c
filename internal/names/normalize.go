package names

import (
	"regexp"
	"strings"

	"coopdash/internal/config"
	"coopdash/internal/util"
)

var (
	reWeightNote = regexp.MustCompile(`(?i)\(\s*\d+(?:[.,]\d+)?\s*(?:kg|g)\s*\)`)
	reEmptyParen = regexp.MustCompile(`\(\s*\)`)
)

// VendorName is a canonical vendor label. Branch is set when the name folded into an internal branch.
type VendorName struct {
	Name   string
	Branch string
}

type Normalizer struct {
	bulk     *regexp.Regexp
	branches []config.BranchRule
	excluded []string
}

func NewNormalizer(rules *config.Rules) *Normalizer {
	quoted := make([]string, 0, len(rules.Names.BulkMarkers))
	for _, m := range rules.Names.BulkMarkers {
		if m = strings.TrimSpace(m); m != "" {
			quoted = append(quoted, regexp.QuoteMeta(m))
		}
	}
	alt := strings.Join(quoted, "|")
	return &Normalizer{
		bulk:     regexp.MustCompile(`(?i)\(\s*(?:` + alt + `)\s*\)|(?:` + alt + `)`),
		branches: rules.Vendors.Branches,
		excluded: rules.Vendors.ExcludedMarkers,
	}
}

// DisplayName drops weight annotations and empty parentheses but keeps bulk markers.
func (n *Normalizer) DisplayName(raw string) string {
	return fixpoint(Key(raw), func(s string) string {
		s = reWeightNote.ReplaceAllString(s, "")
		s = reEmptyParen.ReplaceAllString(s, "")
		return util.StripSpaces(s)
	})
}

// ParentName is DisplayName with bulk markers removed as well.
func (n *Normalizer) ParentName(raw string) string {
	return fixpoint(Key(raw), n.stripAnnotations)
}

func (n *Normalizer) stripAnnotations(s string) string {
	s = n.bulk.ReplaceAllString(s, "")
	s = reWeightNote.ReplaceAllString(s, "")
	s = reEmptyParen.ReplaceAllString(s, "")
	return util.StripSpaces(s)
}

// Vendor folds internal branch variants into their canonical label. Names carrying an
// excluded marker are returned as is so the classifier can still see the marker.
func (n *Normalizer) Vendor(raw string) VendorName {
	s := Key(raw)
	if s == "" {
		return VendorName{}
	}
	if config.ContainsAny(s, n.excluded) {
		return VendorName{Name: s}
	}
	if b, ok := n.Branch(s); ok {
		return VendorName{Name: b, Branch: b}
	}
	return VendorName{Name: fixpoint(s, n.stripAnnotations)}
}

// Branch returns the first branch whose token groups all appear in name.
func (n *Normalizer) Branch(name string) (string, bool) {
	for _, b := range n.branches {
		if b.Matches(name) {
			return b.Label, true
		}
	}
	return "", false
}

// Key is the lookup form of a name: NFC composed with all whitespace removed.
func Key(raw string) string {
	return util.StripSpaces(util.CellText(raw))
}

// fixpoint applies step until the string stops changing. Every step only removes text,
// so the loop ends.
func fixpoint(s string, step func(string) string) string {
	for {
		next := step(s)
		if next == s {
			return s
		}
		s = next
	}
}
