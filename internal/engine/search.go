package engine

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"datadash/internal/models"
)

// Search matches the query against the categorical field values of each row.
// Substring hits across concatenated fields come first (the cheap common
// case), then fuzzy matches pick up typos. An empty query is the identity.
func Search(rows []models.Row, schema models.Schema, query string) []models.Row {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return rows
	}

	cats := schema.ColumnsOf(models.TypeCategorical)
	if len(cats) == 0 {
		cats = schema.Names()
	}

	haystacks := make([]string, len(rows))
	for i, row := range rows {
		parts := make([]string, 0, len(cats))
		for _, col := range cats {
			parts = append(parts, strings.ToLower(row.Get(col).String()))
		}
		haystacks[i] = strings.Join(parts, " ")
	}

	var out []models.Row
	seen := make(map[int]bool)
	for i, hay := range haystacks {
		if strings.Contains(hay, query) {
			out = append(out, rows[i])
			seen[i] = true
		}
	}
	for _, m := range fuzzy.Find(query, haystacks) {
		if !seen[m.Index] {
			out = append(out, rows[m.Index])
			seen[m.Index] = true
		}
	}
	return out
}
