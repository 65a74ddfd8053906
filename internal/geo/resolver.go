package geo

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"datadash/internal/models"
)

const (
	// DefaultDelay is the minimum gap between external lookups.
	DefaultDelay = 500 * time.Millisecond
	// DefaultMaxQueries bounds the external call volume of one pass.
	DefaultMaxQueries = 60
)

var placeNameHints = []string{"city", "town", "village", "state", "district", "place", "location"}

// Result is the outcome of one resolution pass.
type Result struct {
	Points     []models.MapPoint `json:"points"`
	Resolved   int               `json:"resolved"`
	Total      int               `json:"total"`
	Status     string            `json:"status"`
	Superseded bool              `json:"superseded,omitempty"`
}

// cacheEntry records a query outcome for the duration of one pass.
type cacheEntry struct {
	coords models.Coordinates
	found  bool
}

// Resolver fills coordinates onto rows that name a place but lack a usable
// lat/lon pair. Lookups run strictly sequentially under a rate limiter;
// starting a new pass supersedes any pass still in flight.
type Resolver struct {
	lookup     Lookup
	limiter    *rate.Limiter
	maxQueries int
	index      map[string]models.Coordinates
	log        *zap.Logger
	gen        atomic.Int64
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithDelay overrides the minimum inter-lookup delay.
func WithDelay(d time.Duration) Option {
	return func(r *Resolver) { r.limiter = rate.NewLimiter(rate.Every(d), 1) }
}

// WithMaxQueries overrides the per-pass external query cap.
func WithMaxQueries(n int) Option {
	return func(r *Resolver) { r.maxQueries = n }
}

// WithCentroidIndex installs a local name->coordinate index consulted before
// any external lookup.
func WithCentroidIndex(idx map[string]models.Coordinates) Option {
	return func(r *Resolver) { r.index = idx }
}

func NewResolver(lookup Lookup, logger *zap.Logger, opts ...Option) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Resolver{
		lookup:     lookup,
		limiter:    rate.NewLimiter(rate.Every(DefaultDelay), 1),
		maxQueries: DefaultMaxQueries,
		log:        logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// latLonColumns picks the latitude and longitude columns from the schema.
func latLonColumns(schema models.Schema) (lat, lon string) {
	for _, name := range schema.Names() {
		lower := strings.ToLower(name)
		switch {
		case lat == "" && strings.Contains(lower, "lat"):
			lat = name
		case lon == "" && (strings.Contains(lower, "lon") || strings.Contains(lower, "lng")):
			lon = name
		}
	}
	return lat, lon
}

// placeColumn picks the first column whose name looks place-like.
func placeColumn(schema models.Schema) string {
	for _, name := range schema.Names() {
		lower := strings.ToLower(name)
		for _, hint := range placeNameHints {
			if strings.Contains(lower, hint) {
				return name
			}
		}
	}
	return ""
}

// coordinates extracts a usable coordinate pair from a row, if present.
func coordinates(row models.Row, latCol, lonCol string) (models.Coordinates, bool) {
	if latCol == "" || lonCol == "" {
		return models.Coordinates{}, false
	}
	lat, ok1 := row.Get(latCol).Float()
	lon, ok2 := row.Get(lonCol).Float()
	if !ok1 || !ok2 {
		return models.Coordinates{}, false
	}
	return models.Coordinates{Lat: lat, Lon: lon}, true
}

// Resolve runs one resolution pass over rows. Rows that already carry a
// parseable coordinate pair become points directly; the rest are resolved by
// distinct place name, sequentially, one lookup per rate-limiter tick.
// Individual lookup failures are logged and treated as not-found; the pass
// always runs to completion unless cancelled or superseded by a newer pass.
func (r *Resolver) Resolve(ctx context.Context, rows []models.Row, schema models.Schema) (Result, error) {
	gen := r.gen.Add(1)

	latCol, lonCol := latLonColumns(schema)
	place := placeColumn(schema)

	// Partition: already-placeable rows vs rows needing resolution.
	var pending []models.Row
	var points []models.MapPoint
	for _, row := range rows {
		if coords, ok := coordinates(row, latCol, lonCol); ok {
			points = append(points, models.MapPoint{Coordinates: coords, Label: pointLabel(row, place)})
			continue
		}
		if place != "" && row.Get(place).String() != "" {
			pending = append(pending, row)
		}
	}

	// Distinct queries, insertion order, bounded.
	var queue []string
	seen := make(map[string]bool)
	for _, row := range pending {
		q := row.Get(place).String()
		if !seen[q] {
			seen[q] = true
			queue = append(queue, q)
		}
	}
	if len(queue) > r.maxQueries {
		queue = queue[:r.maxQueries]
	}

	cache := make(map[string]cacheEntry, len(queue))
	resolved := 0
	for _, q := range queue {
		// Local centroid tier costs nothing, skip the wire.
		if coords, ok := r.lookupIndex(q); ok {
			cache[q] = cacheEntry{coords: coords, found: true}
			resolved++
			continue
		}

		if err := r.limiter.Wait(ctx); err != nil {
			return Result{Status: "cancelled"}, err
		}
		if r.gen.Load() != gen {
			return Result{Status: "superseded", Superseded: true}, nil
		}

		coords, found, err := r.lookup.Lookup(ctx, q)
		if err != nil {
			if ctx.Err() != nil {
				return Result{Status: "cancelled"}, ctx.Err()
			}
			r.log.Warn("geocode lookup failed", zap.String("place", q), zap.Error(err))
			cache[q] = cacheEntry{}
			continue
		}
		cache[q] = cacheEntry{coords: coords, found: found}
		if found {
			resolved++
		}
	}

	// A newer pass owns the dataset now; late results must not apply.
	if r.gen.Load() != gen {
		return Result{Status: "superseded", Superseded: true}, nil
	}

	for _, row := range pending {
		entry, ok := cache[row.Get(place).String()]
		if !ok || !entry.found {
			continue
		}
		points = append(points, models.MapPoint{Coordinates: entry.coords, Label: pointLabel(row, place)})
	}

	res := Result{
		Points:   points,
		Resolved: resolved,
		Total:    len(queue),
		Status:   fmt.Sprintf("plotted %d of %d", resolved, len(queue)),
	}
	if len(points) == 0 {
		res.Status = "no points found"
	}
	return res, nil
}

func (r *Resolver) lookupIndex(q string) (models.Coordinates, bool) {
	if r.index == nil {
		return models.Coordinates{}, false
	}
	if c, ok := r.index[q]; ok {
		return c, true
	}
	c, ok := r.index[strings.ToLower(strings.TrimSpace(q))]
	return c, ok
}

func pointLabel(row models.Row, place string) string {
	for _, col := range []string{"name", "Name", "title"} {
		if s := row.Get(col).String(); s != "" {
			return s
		}
	}
	if place != "" {
		return row.Get(place).String()
	}
	return ""
}
