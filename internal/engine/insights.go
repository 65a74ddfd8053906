package engine

import (
	"fmt"
	"sort"
	"strings"

	"datadash/internal/models"
)

// Summarize produces short deterministic observations about a dataset:
// the most variable metric, the top categories when a state-like and
// revenue-like column pair exists, and overall row/missing counts.
func Summarize(rows []models.Row, schema models.Schema) []string {
	if len(rows) == 0 {
		return []string{"No data loaded."}
	}

	var insights []string

	if col, ok := mostVariableColumn(rows, schema); ok {
		insights = append(insights, fmt.Sprintf("Top metric by variability: %s", col))
	}

	stateCol := findColumn(schema, "state")
	valueCol := findColumn(schema, "capacity", "revenue")
	if stateCol != "" && valueCol != "" {
		agg := newAggregator()
		for _, row := range rows {
			agg.add(categoryLabel(row.Get(stateCol)), row.Get(valueCol).FloatOrZero())
		}
		labels, _ := agg.ranked(3)
		insights = append(insights, fmt.Sprintf("Top states by %s: %s", valueCol, strings.Join(labels, ", ")))
	}

	missing := 0
	for _, row := range rows {
		for _, name := range schema.Names() {
			v := row.Get(name)
			if v.IsAbsent() || (v.Kind == models.KindText && v.Text == "") {
				missing++
			}
		}
	}
	insights = append(insights, fmt.Sprintf("Rows: %d. Total nulls across fields: %d.", len(rows), missing))

	return insights
}

// mostVariableColumn picks the numeric column with the highest variance.
func mostVariableColumn(rows []models.Row, schema models.Schema) (string, bool) {
	nums := schema.ColumnsOf(models.TypeNumeric)
	if len(nums) == 0 {
		return "", false
	}
	type colVar struct {
		col string
		v   float64
	}
	vars := make([]colVar, 0, len(nums))
	for _, col := range nums {
		var sum float64
		for _, row := range rows {
			sum += row.Get(col).FloatOrZero()
		}
		mean := sum / float64(len(rows))
		var variance float64
		for _, row := range rows {
			d := row.Get(col).FloatOrZero() - mean
			variance += d * d
		}
		vars = append(vars, colVar{col, variance / float64(len(rows))})
	}
	sort.SliceStable(vars, func(i, j int) bool { return vars[i].v > vars[j].v })
	return vars[0].col, true
}

// findColumn returns the first column whose name contains any hint.
func findColumn(schema models.Schema, hints ...string) string {
	for _, name := range schema.Names() {
		lower := strings.ToLower(name)
		for _, hint := range hints {
			if strings.Contains(lower, hint) {
				return name
			}
		}
	}
	return ""
}
