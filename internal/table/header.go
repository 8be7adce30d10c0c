package table

import (
	"strings"

	"coopdash/internal/util"
)

// HeaderScore counts distinct keywords found anywhere in the joined row text.
func HeaderScore(row []string, keywords []string) int {
	parts := make([]string, 0, len(row))
	for _, c := range row {
		parts = append(parts, util.CellText(c))
	}
	text := strings.Join(parts, " ")

	score := 0
	seen := map[string]bool{}
	for _, k := range keywords {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		if strings.Contains(text, k) {
			score++
		}
	}
	return score
}

// FindHeaderRow returns the first row within scanRows scoring at least minMatches, or -1.
func FindHeaderRow(rows [][]string, keywords []string, scanRows, minMatches int) int {
	limit := scanRows
	if limit > len(rows) {
		limit = len(rows)
	}
	for i := 0; i < limit; i++ {
		if HeaderScore(rows[i], keywords) >= minMatches {
			return i
		}
	}
	return -1
}
