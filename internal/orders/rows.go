package orders

import (
	"github.com/shopspring/decimal"

	"coopdash/internal"
	"coopdash/internal/columns"
	"coopdash/internal/names"
	"coopdash/internal/table"
	"coopdash/internal/util"
	"coopdash/internal/vendor"
)

// Row is one cleaned sales line ready for grouping.
type Row struct {
	Vendor      string
	DisplayItem string
	ParentItem  string
	Category    internal.VendorCategory
	Forced      bool
	Branch      string
	Quantity    decimal.Decimal
	Amount      decimal.Decimal
	WeightKg    decimal.Decimal
}

type BuildOptions struct {
	IncludeUnregistered bool
	UnknownVendor       string
}

type BuildStats struct {
	Input            int
	Kept             int
	SkippedEmptyItem int
	Excluded         int
	CoercedQuantity  int
	// ExcludedVendors counts dropped rows per vendor name.
	ExcludedVendors map[string]int
	NoVendorColumn  bool
}

// BuildRows cleans each data row of t. A non-positive quantity with a positive amount
// becomes 1 before the row weight is derived, so coerced rows weigh one unit.
func BuildRows(t *table.Table, m columns.Mapping, n *names.Normalizer, c *vendor.Classifier, opts BuildOptions) ([]Row, BuildStats) {
	unknown := opts.UnknownVendor
	if unknown == "" {
		unknown = "미지정"
	}
	stats := BuildStats{ExcludedVendors: map[string]int{}, NoVendorColumn: m.Vendor == ""}
	out := make([]Row, 0, len(t.Rows))

	for _, r := range t.Rows {
		stats.Input++
		item := t.Value(r, m.Item)
		display := n.DisplayName(item)
		if display == "" {
			stats.SkippedEmptyItem++
			continue
		}

		qty := util.CleanNumber(t.Value(r, m.Quantity))
		amount := util.CleanNumber(t.Value(r, m.Amount))
		if qty.Sign() <= 0 && amount.Sign() > 0 {
			qty = decimal.NewFromInt(1)
			stats.CoercedQuantity++
		}

		unitWeight := decimal.Zero
		if m.Spec != "" {
			unitWeight = util.ExtractWeightKg(t.Value(r, m.Spec))
		}
		if unitWeight.IsZero() {
			unitWeight = util.ExtractWeightKg(item)
		}

		row := Row{
			DisplayItem: display,
			ParentItem:  n.ParentName(item),
			Quantity:    qty,
			Amount:      amount,
			WeightKg:    unitWeight.Mul(qty),
		}

		var vn names.VendorName
		if !stats.NoVendorColumn {
			vn = n.Vendor(t.Value(r, m.Vendor))
		}
		if vn.Name == "" {
			vn.Name = unknown
		}
		cls := c.Classify(vn.Name, opts.IncludeUnregistered)
		if !cls.Included() {
			stats.Excluded++
			stats.ExcludedVendors[vn.Name]++
			continue
		}
		row.Vendor = vn.Name
		row.Category = cls.Category
		row.Forced = cls.Forced
		row.Branch = cls.Branch
		out = append(out, row)
		stats.Kept++
	}
	return out, stats
}
