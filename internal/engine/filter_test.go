package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datadash/internal/models"
)

func filterRows() []models.Row {
	return []models.Row{
		{"city": models.Text("Pune"), "capacity": models.Number(100), "opened": models.Text("2021-01-05")},
		{"city": models.Text("Mumbai"), "capacity": models.Number(250), "opened": models.Text("2021-06-10")},
		{"city": models.Text("Pune"), "capacity": models.Number(40), "opened": models.Text("2022-03-01")},
		{"city": models.Absent(), "capacity": models.Text("n/a"), "opened": models.Absent()},
	}
}

func fptr(f float64) *float64 { return &f }

func TestApplyFiltersEmptySetIsIdentity(t *testing.T) {
	rows := filterRows()
	out := ApplyFilters(rows, nil)
	assert.Equal(t, rows, out)
}

func TestApplyFiltersEquality(t *testing.T) {
	out := ApplyFilters(filterRows(), []models.Predicate{
		{Column: "city", Kind: models.PredEquality, Value: "Pune"},
	})
	require.Len(t, out, 2)
	for _, row := range out {
		assert.Equal(t, "Pune", row.Get("city").String())
	}
}

func TestApplyFiltersEqualityMissingCoercesToEmpty(t *testing.T) {
	out := ApplyFilters(filterRows(), []models.Predicate{
		{Column: "city", Kind: models.PredEquality, Value: ""},
	})
	require.Len(t, out, 1)
	assert.True(t, out[0].Get("city").IsAbsent())
}

func TestApplyFiltersRange(t *testing.T) {
	out := ApplyFilters(filterRows(), []models.Predicate{
		{Column: "capacity", Kind: models.PredRange, Min: fptr(50), Max: fptr(200)},
	})
	require.Len(t, out, 1)
	assert.Equal(t, 100.0, out[0].Get("capacity").FloatOrZero())
}

func TestApplyFiltersRangeOneSided(t *testing.T) {
	onlyMin := ApplyFilters(filterRows(), []models.Predicate{
		{Column: "capacity", Kind: models.PredRange, Min: fptr(50)},
	})
	assert.Len(t, onlyMin, 2)

	onlyMax := ApplyFilters(filterRows(), []models.Predicate{
		{Column: "capacity", Kind: models.PredRange, Max: fptr(50)},
	})
	// "n/a" coerces to 0 which passes max=50.
	assert.Len(t, onlyMax, 2)
}

func TestApplyFiltersRangeUnbounded(t *testing.T) {
	out := ApplyFilters(filterRows(), []models.Predicate{
		{Column: "capacity", Kind: models.PredRange},
	})
	assert.Len(t, out, len(filterRows()))
}

func TestApplyFiltersDateEquals(t *testing.T) {
	out := ApplyFilters(filterRows(), []models.Predicate{
		{Column: "opened", Kind: models.PredDateEquals, Date: "2021-06-10"},
	})
	require.Len(t, out, 1)
	assert.Equal(t, "Mumbai", out[0].Get("city").String())
}

func TestApplyFiltersConjunction(t *testing.T) {
	out := ApplyFilters(filterRows(), []models.Predicate{
		{Column: "city", Kind: models.PredEquality, Value: "Pune"},
		{Column: "capacity", Kind: models.PredRange, Min: fptr(50)},
	})
	require.Len(t, out, 1)
	assert.Equal(t, 100.0, out[0].Get("capacity").FloatOrZero())
}

func TestApplyFiltersDoesNotMutate(t *testing.T) {
	rows := filterRows()
	ApplyFilters(rows, []models.Predicate{
		{Column: "city", Kind: models.PredEquality, Value: "Pune"},
	})
	assert.Len(t, rows, 4)
}

func TestPruneFiltersDropsUnknownColumns(t *testing.T) {
	schema := models.Schema{Columns: []models.ColumnDescriptor{
		{Name: "city", Type: models.TypeCategorical},
	}}
	pruned := PruneFilters(schema, []models.Predicate{
		{Column: "city", Kind: models.PredEquality, Value: "Pune"},
		{Column: "stale", Kind: models.PredEquality, Value: "x"},
	})
	require.Len(t, pruned, 1)
	assert.Equal(t, "city", pruned[0].Column)
}

func TestStoreSwapClearsFilters(t *testing.T) {
	store := NewStore()
	ds := &models.Dataset{ID: "1", Cols: []string{"city"}, Rows: filterRows()}
	schema := Classify(ds.Cols, ds.Rows)
	store.Swap(ds, schema)
	store.SetFilters([]models.Predicate{{Column: "city", Kind: models.PredEquality, Value: "Pune"}})

	view, ok := store.View()
	require.True(t, ok)
	assert.Len(t, view, 2)

	store.Swap(ds, schema)
	_, _, filters, _ := store.Snapshot()
	assert.Empty(t, filters)
	view, _ = store.View()
	assert.Len(t, view, 4)
}
