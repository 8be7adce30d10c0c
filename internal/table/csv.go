package table

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText returns content as UTF-8, falling back to EUC-KR for legacy POS exports.
func decodeText(content []byte) (string, error) {
	if bytes.IndexByte(content, 0) >= 0 {
		return "", eris.Wrap(ErrReadFailure, "binary content")
	}
	content = bytes.TrimPrefix(content, utf8BOM)
	if utf8.Valid(content) {
		return string(content), nil
	}
	decoded, _, err := transform.Bytes(korean.EUCKR.NewDecoder(), content)
	if err != nil {
		return "", eris.Wrap(ErrReadFailure, "undecodable text")
	}
	if bytes.ContainsRune(decoded, utf8.RuneError) {
		return "", eris.Wrap(ErrReadFailure, "undecodable text")
	}
	return string(decoded), nil
}

func sniffDelimiter(text string) rune {
	best, bestCount := ',', 0
	lines := strings.SplitN(text, "\n", 6)
	for _, d := range []rune{',', '\t', ';'} {
		count := 0
		for _, line := range lines {
			count += strings.Count(line, string(d))
		}
		if count > bestCount {
			best, bestCount = d, count
		}
	}
	return best
}

func readDelimited(content []byte) ([]sheet, error) {
	text, err := decodeText(content)
	if err != nil {
		return nil, err
	}
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = sniffDelimiter(text)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows := [][]string{}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(ErrReadFailure, err.Error())
		}
		rows = append(rows, rec)
	}
	if len(rows) == 0 {
		return nil, eris.Wrap(ErrReadFailure, "no delimited rows")
	}
	return []sheet{{name: "csv", rows: rows}}, nil
}
