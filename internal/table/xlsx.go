package table

import (
	"bytes"

	"github.com/xuri/excelize/v2"
)

func readXLSX(content []byte) ([]sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := []sheet{}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			continue
		}
		out = append(out, sheet{name: name, rows: rows})
	}
	return out, nil
}
