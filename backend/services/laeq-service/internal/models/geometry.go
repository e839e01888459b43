package models

import "encoding/json"

// OuterRing extracts the outer ring of a GeoJSON Polygon, or of the first polygon of a
// MultiPolygon. Other geometries give nil.
func OuterRing(raw []byte) [][2]float64 {
	var geom struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
	}
	if len(raw) == 0 || json.Unmarshal(raw, &geom) != nil {
		return nil
	}
	switch geom.Type {
	case "Polygon":
		var rings [][][2]float64
		if json.Unmarshal(geom.Coordinates, &rings) == nil && len(rings) > 0 {
			return rings[0]
		}
	case "MultiPolygon":
		var polys [][][][2]float64
		if json.Unmarshal(geom.Coordinates, &polys) == nil && len(polys) > 0 && len(polys[0]) > 0 {
			return polys[0][0]
		}
	}
	return nil
}
