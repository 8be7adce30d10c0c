package orders

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"coopdash/internal"
)

const (
	SheetDetail  = "발주상세"
	SheetSummary = "발주요약"
)

// ExportLinesToXLSX writes the per-packaging detail and the per-item rollup to two sheets.
func ExportLinesToXLSX(lines []internal.OrderLine, rollup []internal.MessageLine, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetDetail); err != nil {
		return eris.Wrap(err, "export: rename sheet")
	}
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	writeHeader(f, SheetDetail, []string{"공급자", "상품", "구분", "대표상품", "판매수량", "판매금액", "판매중량(kg)", "추천발주수량", "추천발주중량(kg)", "미등록"})
	for i, l := range lines {
		set := rowSetter(f, SheetDetail, i+2)
		set(1, l.Vendor)
		set(2, l.DisplayItem)
		set(3, string(l.Category))
		set(4, l.ParentItem)
		set(5, l.Quantity.InexactFloat64())
		set(6, l.Amount.InexactFloat64())
		set(7, l.WeightKg.InexactFloat64())
		set(8, l.ReorderQty)
		set(9, l.ReorderWeight)
		if l.Forced {
			set(10, "Y")
		}
	}

	writeHeader(f, SheetSummary, []string{"공급자", "대표상품", "판매수량", "판매금액", "추천발주수량", "추천발주중량(kg)"})
	for i, m := range rollup {
		set := rowSetter(f, SheetSummary, i+2)
		set(1, m.Vendor)
		set(2, m.ParentItem)
		set(3, m.Quantity.InexactFloat64())
		set(4, m.Amount.InexactFloat64())
		set(5, m.ReorderQty)
		set(6, m.ReorderWeight)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return eris.Wrapf(err, "export: mkdir %s", filepath.Dir(outputPath))
	}
	return eris.Wrapf(f.SaveAs(outputPath), "export: save %s", outputPath)
}

func writeHeader(f *excelize.File, sheet string, headers []string) {
	set := rowSetter(f, sheet, 1)
	for i, h := range headers {
		set(i+1, h)
	}
}

func rowSetter(f *excelize.File, sheet string, row int) func(col int, value any) {
	return func(col int, value any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, value)
	}
}
