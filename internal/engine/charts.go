package engine

import (
	"math"
	"sort"

	"datadash/internal/models"
)

// Point caps per chart kind. Rendering libraries choke well before memory
// does, so the builders truncate rather than stream.
const (
	maxLinePoints    = 1000
	maxScatterPoints = 200
	maxBubblePoints  = 500
	maxStackSeries   = 20
)

// missingLabel is the canonical label for a missing category value.
const missingLabel = "Unknown"

// areaFillColor is the default gradient fill for area charts.
const areaFillColor = "rgba(54,162,235,0.35)"

const (
	minBubbleRadius = 2
	maxBubbleRadius = 40
)

func categoryLabel(v models.Value) string {
	if s := v.String(); s != "" {
		return s
	}
	return missingLabel
}

// aggregate accumulates val into the bucket for label, preserving
// first-encounter order of labels.
type aggregator struct {
	order  []string
	totals map[string]float64
}

func newAggregator() *aggregator {
	return &aggregator{totals: make(map[string]float64)}
}

func (a *aggregator) add(label string, val float64) {
	if _, ok := a.totals[label]; !ok {
		a.order = append(a.order, label)
	}
	a.totals[label] += val
}

// ranked returns labels and totals sorted descending by total, ties broken by
// first-encounter order, truncated to topN.
func (a *aggregator) ranked(topN int) ([]string, []float64) {
	labels := make([]string, len(a.order))
	copy(labels, a.order)
	sort.SliceStable(labels, func(i, j int) bool {
		return a.totals[labels[i]] > a.totals[labels[j]]
	})
	if topN > 0 && len(labels) > topN {
		labels = labels[:topN]
	}
	values := make([]float64, len(labels))
	for i, l := range labels {
		values[i] = a.totals[l]
	}
	return labels, values
}

// buildDistribution counts occurrences per distinct category value, for the
// pie-family charts.
func buildDistribution(kind models.ChartType) builderFunc {
	return func(rows []models.Row, sel models.FieldSelection, topN int) models.ChartData {
		agg := newAggregator()
		for _, row := range rows {
			agg.add(categoryLabel(row.Get(sel.Category)), 1)
		}
		labels, values := agg.ranked(topN)
		return models.ChartData{
			Type:   kind,
			Labels: labels,
			Series: []models.SeriesData{{Label: sel.Category, Values: values}},
		}
	}
}

// buildBar sums the numeric field grouped by category, descending, top-N.
func buildBar(rows []models.Row, sel models.FieldSelection, topN int) models.ChartData {
	agg := newAggregator()
	for _, row := range rows {
		agg.add(categoryLabel(row.Get(sel.Category)), row.Get(sel.Y).FloatOrZero())
	}
	labels, values := agg.ranked(topN)
	return models.ChartData{
		Type:   models.ChartBar,
		Labels: labels,
		Series: []models.SeriesData{{Label: sel.Y, Values: values}},
	}
}

func buildHorizontalBar(rows []models.Row, sel models.FieldSelection, topN int) models.ChartData {
	data := buildBar(rows, sel, topN)
	data.Type = models.ChartHBar
	data.Horizontal = true
	return data
}

// buildStackedBar pins the first topN distinct primary categories (by order
// of appearance, not frequency) as the label axis and up to 20 distinct
// secondary categories as series. Contributions that miss either axis are
// dropped silently. Without a secondary category it degrades to the plain
// aggregated bar.
func buildStackedBar(rows []models.Row, sel models.FieldSelection, topN int) models.ChartData {
	if sel.SubCategory == "" {
		return buildBar(rows, sel, topN)
	}

	primaryIdx := make(map[string]int)
	var primaries []string
	secondaryIdx := make(map[string]int)
	var secondaries []string

	for _, row := range rows {
		p := categoryLabel(row.Get(sel.Category))
		if _, ok := primaryIdx[p]; !ok && len(primaries) < topN {
			primaryIdx[p] = len(primaries)
			primaries = append(primaries, p)
		}
		s := categoryLabel(row.Get(sel.SubCategory))
		if _, ok := secondaryIdx[s]; !ok && len(secondaries) < maxStackSeries {
			secondaryIdx[s] = len(secondaries)
			secondaries = append(secondaries, s)
		}
	}

	cells := make([][]float64, len(secondaries))
	for i := range cells {
		cells[i] = make([]float64, len(primaries))
	}
	for _, row := range rows {
		pi, pok := primaryIdx[categoryLabel(row.Get(sel.Category))]
		si, sok := secondaryIdx[categoryLabel(row.Get(sel.SubCategory))]
		if !pok || !sok {
			continue
		}
		cells[si][pi] += row.Get(sel.Y).FloatOrZero()
	}

	series := make([]models.SeriesData, len(secondaries))
	for i, name := range secondaries {
		series[i] = models.SeriesData{Label: name, Values: cells[i]}
	}
	return models.ChartData{Type: models.ChartStacked, Labels: primaries, Series: series}
}

// axisKey orders line-chart x values: date first, then number, else 0.
func axisKey(v models.Value) float64 {
	if t, ok := parseDate(v); ok {
		return float64(t.UnixMilli())
	}
	return v.FloatOrZero()
}

func buildLine(rows []models.Row, sel models.FieldSelection, topN int) models.ChartData {
	// Sort a copy; the canonical dataset keeps insertion order.
	sorted := make([]models.Row, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return axisKey(sorted[i].Get(sel.X)) < axisKey(sorted[j].Get(sel.X))
	})
	if len(sorted) > maxLinePoints {
		sorted = sorted[:maxLinePoints]
	}

	labels := make([]string, len(sorted))
	values := make([]float64, len(sorted))
	for i, row := range sorted {
		labels[i] = row.Get(sel.X).String()
		values[i] = row.Get(sel.Y).FloatOrZero()
	}
	return models.ChartData{
		Type:   models.ChartLine,
		Labels: labels,
		Series: []models.SeriesData{{Label: sel.Y, Values: values}},
	}
}

func buildArea(rows []models.Row, sel models.FieldSelection, topN int) models.ChartData {
	data := buildLine(rows, sel, topN)
	data.Type = models.ChartArea
	data.Fill = true
	data.FillColor = areaFillColor
	return data
}

func buildScatter(rows []models.Row, sel models.FieldSelection, topN int) models.ChartData {
	points := make([]models.SeriesPoint, 0, len(rows))
	for _, row := range rows {
		if len(points) >= maxScatterPoints {
			break
		}
		points = append(points, models.SeriesPoint{
			X: row.Get(sel.X).FloatOrZero(),
			Y: row.Get(sel.Y).FloatOrZero(),
		})
	}
	return models.ChartData{
		Type:   models.ChartScatter,
		Series: []models.SeriesData{{Label: sel.Y, Points: points}},
	}
}

func bubbleRadius(v models.Value) float64 {
	r, ok := v.Float()
	if !ok {
		r = 1
	}
	r = math.Abs(r)
	if r < minBubbleRadius {
		return minBubbleRadius
	}
	if r > maxBubbleRadius {
		return maxBubbleRadius
	}
	return r
}

func buildBubble(rows []models.Row, sel models.FieldSelection, topN int) models.ChartData {
	points := make([]models.SeriesPoint, 0, len(rows))
	for _, row := range rows {
		if len(points) >= maxBubblePoints {
			break
		}
		points = append(points, models.SeriesPoint{
			X: row.Get(sel.X).FloatOrZero(),
			Y: row.Get(sel.Y).FloatOrZero(),
			R: bubbleRadius(row.Get(sel.Size)),
		})
	}
	return models.ChartData{
		Type:   models.ChartBubble,
		Series: []models.SeriesData{{Label: sel.Y, Points: points}},
	}
}

// buildRadar plots one spoke per numeric column (at most 6), valued at the
// column mean over all rows. With no numeric columns it degrades to the
// aggregated bar.
func buildRadar(rows []models.Row, sel models.FieldSelection, topN int) models.ChartData {
	if len(sel.Series) == 0 {
		return buildBar(rows, sel, topN)
	}
	cols := sel.Series
	if len(cols) > 6 {
		cols = cols[:6]
	}
	values := make([]float64, len(cols))
	if len(rows) > 0 {
		for i, col := range cols {
			var sum float64
			for _, row := range rows {
				sum += row.Get(col).FloatOrZero()
			}
			values[i] = sum / float64(len(rows))
		}
	}
	return models.ChartData{
		Type:   models.ChartRadar,
		Labels: cols,
		Series: []models.SeriesData{{Label: "mean", Values: values}},
	}
}
