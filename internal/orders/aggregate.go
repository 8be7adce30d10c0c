package orders

import (
	"sort"

	"github.com/shopspring/decimal"

	"coopdash/internal"
	"coopdash/internal/util"
)

type groupKey struct {
	vendor   string
	display  string
	category internal.VendorCategory
	parent   string
}

// Aggregate sums rows per (vendor, display item, category, parent item), drops groups whose
// summed amount is not positive and computes reorder suggestions.
func Aggregate(rows []Row, safetyFactor float64, periodDays int) []internal.OrderLine {
	groups := map[groupKey]*internal.OrderLine{}
	for _, r := range rows {
		k := groupKey{vendor: r.Vendor, display: r.DisplayItem, category: r.Category, parent: r.ParentItem}
		line, ok := groups[k]
		if !ok {
			line = &internal.OrderLine{
				Vendor:      r.Vendor,
				DisplayItem: r.DisplayItem,
				Category:    r.Category,
				ParentItem:  r.ParentItem,
			}
			groups[k] = line
		}
		line.Quantity = line.Quantity.Add(r.Quantity)
		line.Amount = line.Amount.Add(r.Amount)
		line.WeightKg = line.WeightKg.Add(r.WeightKg)
		line.Forced = line.Forced || r.Forced
	}

	safety := decimal.NewFromFloat(safetyFactor)
	out := make([]internal.OrderLine, 0, len(groups))
	for _, line := range groups {
		if line.Amount.Sign() <= 0 {
			continue
		}
		line.ReorderQty = Reorder(line.Quantity, safety, periodDays)
		line.ReorderWeight = Reorder(line.WeightKg, safety, periodDays)
		out = append(out, *line)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Vendor != b.Vendor {
			return a.Vendor < b.Vendor
		}
		if a.DisplayItem != b.DisplayItem {
			return a.DisplayItem < b.DisplayItem
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.ParentItem < b.ParentItem
	})
	return out
}

// Reorder is ceil(total × safety ÷ periodDays). The ceiling is applied last.
func Reorder(total, safety decimal.Decimal, periodDays int) int64 {
	v := total.Mul(safety)
	if periodDays > 1 {
		v = v.Div(decimal.NewFromInt(int64(periodDays)))
	}
	return util.CeilInt(v)
}

type rollupKey struct {
	vendor string
	parent string
}

// Rollup merges packaging variants into one line per (vendor, parent item) for messaging.
func Rollup(lines []internal.OrderLine) []internal.MessageLine {
	groups := map[rollupKey]*internal.MessageLine{}
	for _, l := range lines {
		k := rollupKey{vendor: l.Vendor, parent: l.ParentItem}
		m, ok := groups[k]
		if !ok {
			m = &internal.MessageLine{Vendor: l.Vendor, ParentItem: l.ParentItem, Category: l.Category}
			groups[k] = m
		}
		m.Quantity = m.Quantity.Add(l.Quantity)
		m.Amount = m.Amount.Add(l.Amount)
		m.ReorderQty += l.ReorderQty
		m.ReorderWeight += l.ReorderWeight
	}

	out := make([]internal.MessageLine, 0, len(groups))
	for _, m := range groups {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Vendor != out[j].Vendor {
			return out[i].Vendor < out[j].Vendor
		}
		return out[i].ParentItem < out[j].ParentItem
	})
	return out
}

// ByVendor groups rollup lines per vendor, keeping vendor order.
func ByVendor(lines []internal.MessageLine) ([]string, map[string][]internal.MessageLine) {
	order := []string{}
	grouped := map[string][]internal.MessageLine{}
	for _, l := range lines {
		if _, ok := grouped[l.Vendor]; !ok {
			order = append(order, l.Vendor)
		}
		grouped[l.Vendor] = append(grouped[l.Vendor], l)
	}
	return order, grouped
}
