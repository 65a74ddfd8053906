package geo

import (
	"encoding/json"
	"fmt"
	"strings"

	"datadash/internal/models"
)

// nameProperties are the feature properties tried, in order, when keying a
// centroid.
var nameProperties = []string{"STATE_NAME", "st_name", "NAME", "name"}

type featureCollection struct {
	Features []feature `json:"features"`
}

type feature struct {
	Properties map[string]any `json:"properties"`
	Geometry   geometry       `json:"geometry"`
}

type geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// BuildCentroidIndex computes a crude centroid per named polygon feature,
// keyed by the feature name and its lowercase form. The centroid is the mean
// of the outer ring's vertices, good enough for placing a marker inside a
// state-sized region.
func BuildCentroidIndex(geojson []byte) (map[string]models.Coordinates, error) {
	var fc featureCollection
	if err := json.Unmarshal(geojson, &fc); err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}

	idx := make(map[string]models.Coordinates)
	for _, f := range fc.Features {
		key := featureName(f.Properties)
		if key == "" {
			continue
		}

		ring, ok := outerRing(f.Geometry)
		if !ok || len(ring) == 0 {
			continue
		}
		var sumLat, sumLon float64
		for _, c := range ring {
			// GeoJSON positions are [lon, lat].
			sumLon += c[0]
			sumLat += c[1]
		}
		coords := models.Coordinates{
			Lat: sumLat / float64(len(ring)),
			Lon: sumLon / float64(len(ring)),
		}
		idx[key] = coords
		idx[strings.ToLower(key)] = coords
	}
	return idx, nil
}

func featureName(props map[string]any) string {
	for _, p := range nameProperties {
		if v, ok := props[p].(string); ok {
			if name := strings.TrimSpace(v); name != "" {
				return name
			}
		}
	}
	return ""
}

// outerRing returns the first ring of a Polygon or MultiPolygon geometry.
func outerRing(g geometry) ([][2]float64, bool) {
	switch g.Type {
	case "Polygon":
		var rings [][][2]float64
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil || len(rings) == 0 {
			return nil, false
		}
		return rings[0], true
	case "MultiPolygon":
		var polys [][][][2]float64
		if err := json.Unmarshal(g.Coordinates, &polys); err != nil || len(polys) == 0 || len(polys[0]) == 0 {
			return nil, false
		}
		return polys[0][0], true
	default:
		return nil, false
	}
}
