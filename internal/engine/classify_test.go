package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datadash/internal/models"
)

func rowsFromStrings(col string, values []string) []models.Row {
	rows := make([]models.Row, len(values))
	for i, v := range values {
		if v == "" {
			rows[i] = models.Row{col: models.Absent()}
		} else {
			rows[i] = models.Row{col: models.Text(v)}
		}
	}
	return rows
}

func typeOf(t *testing.T, schema models.Schema, col string) models.ColumnType {
	t.Helper()
	ct, ok := schema.TypeOf(col)
	require.True(t, ok, "column %q missing from schema", col)
	return ct
}

func TestClassifyNumericRatio(t *testing.T) {
	// 75% of non-empty samples parse as numbers -> numeric.
	var values []string
	for i := 0; i < 50; i++ {
		values = append(values, "1", "2", "3", "x")
	}
	schema := Classify([]string{"amount"}, rowsFromStrings("amount", values))
	assert.Equal(t, models.TypeNumeric, typeOf(t, schema, "amount"))
}

func TestClassifyNumericBelowThreshold(t *testing.T) {
	// Exactly 50% numeric does not clear the 0.6 bar.
	var values []string
	for i := 0; i < 20; i++ {
		values = append(values, "1", "x")
	}
	schema := Classify([]string{"mixed"}, rowsFromStrings("mixed", values))
	assert.Equal(t, models.TypeCategorical, typeOf(t, schema, "mixed"))
}

func TestClassifyDatetimePlurality(t *testing.T) {
	values := []string{"2021-01-05", "2021-02-10", "2021-03-15", "n/a", "1"}
	schema := Classify([]string{"when"}, rowsFromStrings("when", values))
	assert.Equal(t, models.TypeDatetime, typeOf(t, schema, "when"))
}

func TestClassifyDatetimeTieIsNotPlurality(t *testing.T) {
	// date == text: strict plurality fails, falls back to categorical.
	values := []string{"2021-01-05", "2021-02-10", "foo", "bar"}
	schema := Classify([]string{"when"}, rowsFromStrings("when", values))
	assert.Equal(t, models.TypeCategorical, typeOf(t, schema, "when"))
}

func TestClassifyGeoNameOverride(t *testing.T) {
	// A lat-named column is geo even when every value is numeric or empty.
	rows := []models.Row{
		{"lat": models.Number(12.9), "lng": models.Absent(), "city": models.Text("Pune")},
		{"lat": models.Number(18.5), "lng": models.Absent(), "city": models.Text("Mumbai")},
	}
	schema := Classify([]string{"lat", "lng", "city"}, rows)
	assert.Equal(t, models.TypeGeo, typeOf(t, schema, "lat"))
	assert.Equal(t, models.TypeGeo, typeOf(t, schema, "lng"))
	assert.Equal(t, models.TypeCategorical, typeOf(t, schema, "city"))
}

func TestClassifyGeoNameOverrideAllEmpty(t *testing.T) {
	schema := Classify([]string{"lat"}, rowsFromStrings("lat", []string{"", "", ""}))
	assert.Equal(t, models.TypeGeo, typeOf(t, schema, "lat"))
}

func TestClassifyAllEmptyColumn(t *testing.T) {
	schema := Classify([]string{"notes"}, rowsFromStrings("notes", []string{"", "", ""}))
	assert.Equal(t, models.TypeCategorical, typeOf(t, schema, "notes"))
}

func TestClassifyEmptyCountsTowardDenominator(t *testing.T) {
	// 3 numeric out of 4 non-empty = 0.75 -> numeric; the 4 empties do not
	// dilute the ratio because only non-empty samples form the denominator.
	values := []string{"1", "2", "3", "x", "", "", "", ""}
	schema := Classify([]string{"v"}, rowsFromStrings("v", values))
	assert.Equal(t, models.TypeNumeric, typeOf(t, schema, "v"))
}

func TestClassifySampleCap(t *testing.T) {
	// Rows beyond the 200-row sample must not influence the result.
	values := make([]string, 0, 400)
	for i := 0; i < 200; i++ {
		values = append(values, "word")
	}
	for i := 0; i < 200; i++ {
		values = append(values, "42")
	}
	schema := Classify([]string{"v"}, rowsFromStrings("v", values))
	assert.Equal(t, models.TypeCategorical, typeOf(t, schema, "v"))
}

func TestClassifyDeterministic(t *testing.T) {
	rows := rowsFromStrings("v", []string{"1", "a", "2021-01-02", "7"})
	first := Classify([]string{"v"}, rows)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify([]string{"v"}, rows))
	}
}

func TestClassifyPreservesColumnOrder(t *testing.T) {
	rows := []models.Row{{"b": models.Text("x"), "a": models.Number(1), "c": models.Text("y")}}
	schema := Classify([]string{"b", "a", "c"}, rows)
	assert.Equal(t, []string{"b", "a", "c"}, schema.Names())
}
