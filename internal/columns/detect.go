package columns

import (
	"strings"

	"github.com/rotisserie/eris"

	"coopdash/internal/config"
)

var ErrColumnRoleMissing = eris.New("columns: required column role missing")

type Role string

const (
	RoleItem     Role = "item"
	RoleQuantity Role = "quantity"
	RoleAmount   Role = "amount"
	RoleVendor   Role = "vendor"
	RoleSpec     Role = "spec"
	RoleDate     Role = "date"
	RoleVAT      Role = "vat"
)

// Roles lists roles in detection order. Earlier roles claim a label first.
var Roles = []Role{RoleItem, RoleQuantity, RoleAmount, RoleVendor, RoleSpec, RoleDate, RoleVAT}

var requiredRoles = []Role{RoleItem, RoleQuantity, RoleAmount}

// Mapping assigns at most one label per role. Empty means unassigned.
type Mapping struct {
	Item     string
	Quantity string
	Amount   string
	Vendor   string
	Spec     string
	Date     string
	VAT      string
}

func (m Mapping) Get(r Role) string {
	switch r {
	case RoleItem:
		return m.Item
	case RoleQuantity:
		return m.Quantity
	case RoleAmount:
		return m.Amount
	case RoleVendor:
		return m.Vendor
	case RoleSpec:
		return m.Spec
	case RoleDate:
		return m.Date
	case RoleVAT:
		return m.VAT
	}
	return ""
}

func (m *Mapping) set(r Role, label string) {
	switch r {
	case RoleItem:
		m.Item = label
	case RoleQuantity:
		m.Quantity = label
	case RoleAmount:
		m.Amount = label
	case RoleVendor:
		m.Vendor = label
	case RoleSpec:
		m.Spec = label
	case RoleDate:
		m.Date = label
	case RoleVAT:
		m.VAT = label
	}
}

func (m Mapping) Missing() []Role {
	out := []Role{}
	for _, r := range requiredRoles {
		if m.Get(r) == "" {
			out = append(out, r)
		}
	}
	return out
}

// Require fails with ErrColumnRoleMissing unless item, quantity and amount are all assigned.
func (m Mapping) Require() error {
	missing := m.Missing()
	if len(missing) == 0 {
		return nil
	}
	names := make([]string, 0, len(missing))
	for _, r := range missing {
		names = append(names, string(r))
	}
	return eris.Wrapf(ErrColumnRoleMissing, "missing %s", strings.Join(names, ", "))
}

type Detector struct {
	rules config.ColumnRules
}

func NewDetector(rules config.ColumnRules) *Detector {
	return &Detector{rules: rules}
}

// Detect is pure: the same labels always yield the same mapping.
func (d *Detector) Detect(labels []string) Mapping {
	var m Mapping
	taken := map[string]bool{}
	for _, r := range Roles {
		var label string
		if r == RoleAmount {
			label = d.detectAmount(labels, taken)
		} else {
			label = Find(labels, d.keywords(r), taken)
		}
		if label != "" {
			taken[label] = true
			m.set(r, label)
		}
	}
	return m
}

func (d *Detector) keywords(r Role) []string {
	switch r {
	case RoleItem:
		return d.rules.Item
	case RoleQuantity:
		return d.rules.Quantity
	case RoleVendor:
		return d.rules.Vendor
	case RoleSpec:
		return d.rules.Spec
	case RoleDate:
		return d.rules.Date
	case RoleVAT:
		return d.rules.VAT
	}
	return nil
}

// detectAmount walks priority groups in order and returns the first label that no exclusion term disqualifies.
func (d *Detector) detectAmount(labels []string, taken map[string]bool) string {
	for _, group := range d.rules.Amount.Priority {
		for _, label := range labels {
			if taken[label] || !group.Matches(label) {
				continue
			}
			if config.ContainsAny(label, d.rules.Amount.Exclude) {
				continue
			}
			return label
		}
	}
	return ""
}

// Find returns the first label, in column order, that contains any keyword and is not already taken.
func Find(labels []string, keywords []string, taken map[string]bool) string {
	for _, label := range labels {
		if taken[label] {
			continue
		}
		if config.ContainsAny(label, keywords) {
			return label
		}
	}
	return ""
}
