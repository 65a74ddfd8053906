package engine

import (
	"datadash/internal/models"
)

// ApplyFilters returns the subset of rows matching every predicate. The
// input slice is never mutated; an empty predicate set returns rows as-is.
func ApplyFilters(rows []models.Row, predicates []models.Predicate) []models.Row {
	if len(predicates) == 0 {
		return rows
	}
	out := make([]models.Row, 0, len(rows))
	for _, row := range rows {
		if matchesAll(row, predicates) {
			out = append(out, row)
		}
	}
	return out
}

func matchesAll(row models.Row, predicates []models.Predicate) bool {
	for _, p := range predicates {
		if !matches(row, p) {
			return false
		}
	}
	return true
}

func matches(row models.Row, p models.Predicate) bool {
	v := row.Get(p.Column)
	switch p.Kind {
	case models.PredEquality:
		return v.String() == p.Value

	case models.PredRange:
		if p.Min == nil && p.Max == nil {
			return true
		}
		f := v.FloatOrZero()
		if p.Min != nil && f < *p.Min {
			return false
		}
		if p.Max != nil && f > *p.Max {
			return false
		}
		return true

	case models.PredDateEquals:
		want, ok := parseDate(models.Text(p.Date))
		if !ok {
			return true
		}
		got, ok := parseDate(v)
		if !ok {
			return false
		}
		wy, wm, wd := want.Date()
		gy, gm, gd := got.Date()
		return wy == gy && wm == gm && wd == gd

	default:
		return true
	}
}

// PruneFilters drops predicates referencing columns absent from the schema.
// Stale filters from a previous dataset must never leak into a new one.
func PruneFilters(schema models.Schema, predicates []models.Predicate) []models.Predicate {
	out := make([]models.Predicate, 0, len(predicates))
	for _, p := range predicates {
		if _, ok := schema.TypeOf(p.Column); ok {
			out = append(out, p)
		}
	}
	return out
}
