package engine

import (
	"fmt"
	"strings"

	"datadash/internal/models"
)

// DefaultTopN is the truncation limit applied to ranked category lists when
// the caller does not supply one.
const DefaultTopN = 10

var dateNameHints = []string{"date", "time", "month", "year"}

// Recommend picks a default chart for a schema. First match wins:
// categorical+numeric -> bar, two numerics -> scatter, categorical only ->
// pie, anything else -> plain table.
func Recommend(schema models.Schema) models.ChartSpec {
	cats := schema.ColumnsOf(models.TypeCategorical)
	nums := schema.ColumnsOf(models.TypeNumeric)

	switch {
	case len(cats) >= 1 && len(nums) >= 1:
		return models.ChartSpec{
			Type:   models.ChartBar,
			Fields: models.FieldSelection{Category: cats[0], Y: nums[0]},
			TopN:   DefaultTopN,
		}
	case len(nums) >= 2:
		return models.ChartSpec{
			Type:   models.ChartScatter,
			Fields: models.FieldSelection{X: nums[0], Y: nums[1]},
			TopN:   DefaultTopN,
		}
	case len(cats) >= 1:
		return models.ChartSpec{
			Type:   models.ChartPie,
			Fields: models.FieldSelection{Category: cats[0]},
			TopN:   DefaultTopN,
		}
	default:
		return models.ChartSpec{Type: models.ChartTable, TopN: DefaultTopN}
	}
}

// nth returns the i-th column name overall, falling back to the last one
// available rather than failing.
func nth(schema models.Schema, i int) string {
	names := schema.Names()
	if len(names) == 0 {
		return ""
	}
	if i >= len(names) {
		i = len(names) - 1
	}
	return names[i]
}

// firstOf returns the first column of the wanted type, or the positional
// fallback when none exists.
func firstOf(schema models.Schema, t models.ColumnType, fallback int) string {
	if cols := schema.ColumnsOf(t); len(cols) > 0 {
		return cols[0]
	}
	return nth(schema, fallback)
}

// dateAxis finds a time-like x axis: first datetime column, then any column
// whose name suggests a date, then the first column overall.
func dateAxis(schema models.Schema) string {
	if cols := schema.ColumnsOf(models.TypeDatetime); len(cols) > 0 {
		return cols[0]
	}
	for _, name := range schema.Names() {
		lower := strings.ToLower(name)
		for _, hint := range dateNameHints {
			if strings.Contains(lower, hint) {
				return name
			}
		}
	}
	return nth(schema, 0)
}

// ChooseFields resolves axis/category bindings for an explicit chart type.
// Selection is deterministic: first column of the semantically right kind,
// degrading to positional defaults instead of failing.
func ChooseFields(schema models.Schema, chartType models.ChartType) models.FieldSelection {
	nums := schema.ColumnsOf(models.TypeNumeric)
	cats := schema.ColumnsOf(models.TypeCategorical)

	switch chartType {
	case models.ChartPie, models.ChartDoughnut, models.ChartPolar:
		return models.FieldSelection{Category: firstOf(schema, models.TypeCategorical, 0)}

	case models.ChartBar, models.ChartHBar:
		return models.FieldSelection{
			Category: firstOf(schema, models.TypeCategorical, 0),
			Y:        firstOf(schema, models.TypeNumeric, 1),
		}

	case models.ChartStacked:
		sel := models.FieldSelection{
			Category: firstOf(schema, models.TypeCategorical, 0),
			Y:        firstOf(schema, models.TypeNumeric, 1),
		}
		if len(cats) >= 2 {
			sel.SubCategory = cats[1]
		}
		return sel

	case models.ChartLine, models.ChartArea:
		return models.FieldSelection{
			X: dateAxis(schema),
			Y: firstOf(schema, models.TypeNumeric, 1),
		}

	case models.ChartScatter, models.ChartBubble:
		sel := models.FieldSelection{
			X: nth(schema, 0),
			Y: nth(schema, 1),
		}
		if len(nums) >= 1 {
			sel.X = nums[0]
		}
		if len(nums) >= 2 {
			sel.Y = nums[1]
		}
		if chartType == models.ChartBubble {
			sel.Size = nth(schema, 2)
			if len(nums) >= 3 {
				sel.Size = nums[2]
			}
		}
		return sel

	case models.ChartRadar:
		series := nums
		if len(series) > 6 {
			series = series[:6]
		}
		sel := models.FieldSelection{Series: series}
		if len(series) == 0 {
			// Radar degrades to the aggregated bar builder.
			sel.Category = firstOf(schema, models.TypeCategorical, 0)
			sel.Y = firstOf(schema, models.TypeNumeric, 1)
		}
		return sel

	default:
		return models.FieldSelection{X: nth(schema, 0), Y: nth(schema, 1)}
	}
}

type builderFunc func(rows []models.Row, sel models.FieldSelection, topN int) models.ChartData

// builders is the dispatch table. A chart type absent from this table is not
// renderable and degrades to the table fallback, whatever its name.
var builders = map[models.ChartType]builderFunc{
	models.ChartPie:      buildDistribution(models.ChartPie),
	models.ChartDoughnut: buildDistribution(models.ChartDoughnut),
	models.ChartPolar:    buildDistribution(models.ChartPolar),
	models.ChartBar:      buildBar,
	models.ChartHBar:     buildHorizontalBar,
	models.ChartStacked:  buildStackedBar,
	models.ChartLine:     buildLine,
	models.ChartArea:     buildArea,
	models.ChartScatter:  buildScatter,
	models.ChartBubble:   buildBubble,
	models.ChartRadar:    buildRadar,
}

// BuildChart resolves the spec against the dispatch table and runs the
// builder. Requesting an unsupported type (heatmap, treemap, sankey, ...)
// never fails: the result flags a table fallback and carries a capability
// message, and the dataset is untouched.
func BuildChart(rows []models.Row, spec models.ChartSpec) models.ChartData {
	if spec.TopN <= 0 {
		spec.TopN = DefaultTopN
	}
	build, ok := builders[spec.Type]
	if !ok || spec.Type == models.ChartTable {
		msg := ""
		if spec.Type != models.ChartTable && spec.Type != "" {
			msg = fmt.Sprintf("chart type %q is unsupported, requires a specialized plugin", spec.Type)
		}
		return models.ChartData{Type: models.ChartTable, Fallback: true, Message: msg}
	}
	return build(rows, spec.Fields, spec.TopN)
}
