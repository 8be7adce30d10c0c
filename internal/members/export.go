package members

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"
)

const SheetSegments = "회원분류"

func ExportMembersToXLSX(members []Member, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetSegments); err != nil {
		return eris.Wrap(err, "export: rename sheet")
	}
	headers := []string{"회원번호", "이름", "휴대전화", "이메일", "구매횟수", "구매금액", "최근구매일", "등급"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetSegments, cell, h)
	}
	for i, m := range members {
		amount, _ := m.Amount.Float64()
		values := []any{m.ID, m.Name, m.Phone, m.Email, m.Purchases, amount, m.LastDate, string(m.Tier)}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			_ = f.SetCellValue(SheetSegments, cell, v)
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return eris.Wrapf(err, "export: mkdir %s", filepath.Dir(outputPath))
	}
	return eris.Wrapf(f.SaveAs(outputPath), "export: save %s", outputPath)
}
