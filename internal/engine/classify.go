package engine

import (
	"strings"
	"time"

	"datadash/internal/models"
)

// sampleSize is how many leading rows the classifier inspects per column.
const sampleSize = 200

var geoNameHints = []string{"latitude", "longitude", "lat", "lon", "lng"}

// dateLayouts are the formats a datetime cell is expected to arrive in.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// parseDate reports the time a cell value encodes, if any.
func parseDate(v models.Value) (time.Time, bool) {
	if v.Kind != models.KindText {
		return time.Time{}, false
	}
	s := strings.TrimSpace(v.Text)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isGeoName(col string) bool {
	lower := strings.ToLower(col)
	for _, hint := range geoNameHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

// Classify inspects a sample of rows per column and assigns each column a
// semantic type. Column order follows declaration order so downstream
// "first column of kind X" selections are deterministic.
//
// Per column: numeric wins when more than 60% of the non-empty sample parses
// as a finite number; otherwise datetime wins on strict plurality over
// numeric and text; a lat/lon-looking name forces geo regardless of content;
// everything else is categorical.
func Classify(cols []string, rows []models.Row) models.Schema {
	schema := models.Schema{Columns: make([]models.ColumnDescriptor, 0, len(cols))}

	limit := len(rows)
	if limit > sampleSize {
		limit = sampleSize
	}

	for _, col := range cols {
		var numeric, date, text, nonEmpty int
		for i := 0; i < limit; i++ {
			v := rows[i].Get(col)
			if v.IsAbsent() || (v.Kind == models.KindText && strings.TrimSpace(v.Text) == "") {
				continue
			}
			nonEmpty++
			if _, ok := v.Float(); ok {
				numeric++
			} else if _, ok := parseDate(v); ok {
				date++
			} else {
				text++
			}
		}

		ct := models.TypeCategorical
		switch {
		case isGeoName(col):
			ct = models.TypeGeo
		case nonEmpty > 0 && float64(numeric)/float64(nonEmpty) > 0.6:
			ct = models.TypeNumeric
		case date > numeric && date > text:
			ct = models.TypeDatetime
		}
		schema.Columns = append(schema.Columns, models.ColumnDescriptor{Name: col, Type: ct})
	}
	return schema
}
