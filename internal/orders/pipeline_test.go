package orders

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"coopdash/internal"
	"coopdash/internal/columns"
	"coopdash/internal/config"
	"coopdash/internal/table"
)

func mkXLSX(rows [][]any) []byte {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	buf := bytes.NewBuffer(nil)
	_, _ = f.WriteTo(buf)
	return buf.Bytes()
}

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	rules, err := config.LoadRules("")
	require.NoError(t, err)
	return NewPipeline(rules, 0.72)
}

func TestBuildRowsCleaningAndCoercion(t *testing.T) {
	p := newTestPipeline(t)
	tbl := &table.Table{
		Columns: []string{"상품명", "공급자", "규격", "수량", "총판매금액"},
		Rows: [][]string{
			{"사과(벌크)", "고삼 농협", "", "-", "5,000원"},
			{"배", "고삼농협", "500g", "4", "8000"},
			{"감자 2kg", "(주)열두달", "1봉", "3", "9000"},
			{"", "고삼농협", "", "1", "1000"},
			{"양파", "동네농장", "", "1", "1000"},
			{"대파", "", "", "1", "1000"},
		},
	}
	m := columns.Mapping{Item: "상품명", Vendor: "공급자", Spec: "규격", Quantity: "수량", Amount: "총판매금액"}

	rows, stats := BuildRows(tbl, m, p.Normalizer(), p.Classifier(), BuildOptions{})
	require.Len(t, rows, 3)

	assert.Equal(t, "사과(벌크)", rows[0].DisplayItem)
	assert.Equal(t, "사과", rows[0].ParentItem)
	assert.Equal(t, "고삼농협", rows[0].Vendor)
	assert.True(t, rows[0].Quantity.Equal(dec("1")))
	assert.True(t, rows[0].Amount.Equal(dec("5000")))

	assert.True(t, rows[1].WeightKg.Equal(dec("2")), "0.5kg × 4")
	assert.True(t, rows[2].WeightKg.Equal(dec("6")), "falls back to weight in item name")
	assert.Equal(t, internal.CategoryRegistered, rows[2].Category)

	assert.Equal(t, 6, stats.Input)
	assert.Equal(t, 1, stats.SkippedEmptyItem)
	assert.Equal(t, 2, stats.Excluded)
	assert.Equal(t, 1, stats.CoercedQuantity)
	assert.Equal(t, map[string]int{"동네농장": 1, "미지정": 1}, stats.ExcludedVendors)
}

func TestBuildRowsCoercedQuantityWeighsOneUnit(t *testing.T) {
	p := newTestPipeline(t)
	tbl := &table.Table{
		Columns: []string{"상품", "농가", "수량", "금액"},
		Rows:    [][]string{{"쌀(10kg)", "고삼농협", "0", "30000"}},
	}
	m := columns.Mapping{Item: "상품", Vendor: "농가", Quantity: "수량", Amount: "금액"}
	rows, _ := BuildRows(tbl, m, p.Normalizer(), p.Classifier(), BuildOptions{})
	require.Len(t, rows, 1)
	assert.Equal(t, "쌀", rows[0].DisplayItem)
	assert.True(t, rows[0].WeightKg.Equal(dec("10")))
}

func TestBuildRowsIncludeUnregistered(t *testing.T) {
	p := newTestPipeline(t)
	tbl := &table.Table{
		Columns: []string{"상품", "농가", "수량", "금액"},
		Rows:    [][]string{{"양파", "동네농장", "1", "1000"}, {"무", "지족(위탁)", "1", "1000"}},
	}
	m := columns.Mapping{Item: "상품", Vendor: "농가", Quantity: "수량", Amount: "금액"}
	rows, stats := BuildRows(tbl, m, p.Normalizer(), p.Classifier(), BuildOptions{IncludeUnregistered: true})
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Forced)
	assert.Equal(t, 1, stats.Excluded)
}

func TestBuildRowsWithoutVendorColumn(t *testing.T) {
	p := newTestPipeline(t)
	tbl := &table.Table{
		Columns: []string{"품목", "수량", "금액"},
		Rows:    [][]string{{"양파", "1", "1000"}},
	}
	m := columns.Mapping{Item: "품목", Quantity: "수량", Amount: "금액"}

	rows, stats := BuildRows(tbl, m, p.Normalizer(), p.Classifier(), BuildOptions{})
	assert.Empty(t, rows)
	assert.True(t, stats.NoVendorColumn)
	assert.Equal(t, map[string]int{"미지정": 1}, stats.ExcludedVendors)

	rows, _ = BuildRows(tbl, m, p.Normalizer(), p.Classifier(), BuildOptions{IncludeUnregistered: true})
	require.Len(t, rows, 1)
	assert.Equal(t, "미지정", rows[0].Vendor)
	assert.True(t, rows[0].Forced)
}

func TestPipelineRunWithoutVendorColumnKeepsNoExcludedLines(t *testing.T) {
	p := newTestPipeline(t)
	src := []Source{{Name: "a.csv", Content: []byte("품목,상품코드,수량,금액\n양파,1,2,1000\n")}}

	res, err := p.Run(context.Background(), src, Options{SafetyFactor: 1.1, PeriodDays: 1})
	require.NoError(t, err)
	assert.Empty(t, res.Lines)
	assert.Empty(t, res.Rollup)
	assert.NotEmpty(t, res.Warnings)

	res, err = p.Run(context.Background(), src, Options{SafetyFactor: 1.1, PeriodDays: 1, IncludeUnregistered: true})
	require.NoError(t, err)
	require.Len(t, res.Lines, 1)
	assert.Equal(t, internal.CategoryRegistered, res.Lines[0].Category)
	assert.True(t, res.Lines[0].Forced)
}

func TestPipelineRunConcatenatesFiles(t *testing.T) {
	p := newTestPipeline(t)
	first := mkXLSX([][]any{
		{"지족 로컬푸드 판매현황"},
		{"상품명", "공급자", "판매수량", "할인금액", "총판매금액"},
		{"사과(1kg)", "고삼농협", 4, 100, 4000},
		{"사과(벌크)", "고삼농협", 6, 0, 5000},
		{"무", "지족점(벌크)", 2, 0, 2000},
	})
	second := []byte("상품명,공급자,수량,판매금액\n사과(1kg),고삼농협,6,6000\n양파,(주)윈윈농수삼,1,1000\n")

	res, err := p.Run(context.Background(), []Source{{Name: "a.xlsx", Content: first}, {Name: "b.csv", Content: second}}, Options{SafetyFactor: 1.1, PeriodDays: 1})
	require.NoError(t, err)

	require.Len(t, res.Files, 2)
	assert.Equal(t, 1, res.Files[0].HeaderRow)
	assert.Equal(t, "총판매금액", res.Files[0].Mapping.Amount)
	assert.Equal(t, "판매금액", res.Files[1].Mapping.Amount)

	require.Len(t, res.Lines, 3)
	apple := res.Lines[0]
	assert.Equal(t, "고삼농협", apple.Vendor)
	assert.Equal(t, "사과", apple.DisplayItem)
	assert.True(t, apple.Quantity.Equal(dec("10")))
	assert.Equal(t, int64(11), apple.ReorderQty)
	assert.Equal(t, int64(11), apple.ReorderWeight)

	store := res.Lines[2]
	assert.Equal(t, "지족매장", store.Vendor)
	assert.Equal(t, internal.CategoryDirectBuy, store.Category)

	require.Len(t, res.Rollup, 2)
	assert.Equal(t, int64(11+7), res.Rollup[0].ReorderQty)

	assert.Equal(t, "(주)윈윈농수산", res.Suggestions["(주)윈윈농수삼"])
	assert.Equal(t, 5, res.Counts()["input_rows"])
}

func TestPipelineRunErrors(t *testing.T) {
	p := newTestPipeline(t)
	ctx := context.Background()

	_, err := p.Run(ctx, nil, Options{SafetyFactor: 1.1})
	assert.Error(t, err)

	_, err = p.Run(ctx, []Source{{Name: "bad.bin", Content: []byte{0, 1, 2}}}, Options{SafetyFactor: 1.1})
	assert.True(t, errors.Is(err, table.ErrReadFailure))

	noAmount := []byte("상품명,공급자,수량\n사과,고삼농협,1\n")
	_, err = p.Run(ctx, []Source{{Name: "x.csv", Content: noAmount}}, Options{SafetyFactor: 1.1})
	assert.True(t, errors.Is(err, columns.ErrColumnRoleMissing))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = p.Run(cancelled, []Source{{Name: "x.csv", Content: noAmount}}, Options{SafetyFactor: 1.1})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestExportLinesToXLSX(t *testing.T) {
	lines := Aggregate([]Row{row("고삼농협", "사과(벌크)", "사과", "10", "10000", "10")}, 1.1, 1)
	out := filepath.Join(t.TempDir(), "nested", "orders.xlsx")
	require.NoError(t, ExportLinesToXLSX(lines, Rollup(lines), out))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetDetail, SheetSummary}, f.GetSheetList())
	v, err := f.GetCellValue(SheetDetail, "B2")
	require.NoError(t, err)
	assert.Equal(t, "사과(벌크)", v)
	v, err = f.GetCellValue(SheetSummary, "E2")
	require.NoError(t, err)
	assert.Equal(t, "11", v)
}
