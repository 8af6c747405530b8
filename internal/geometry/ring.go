package geometry

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// Ring builds a closed GeoJSON ring (lng/lat axis order, first point repeated
// last) from whatever polygon value is stored on a record. The stored value
// may already be a decoded list, or a legacy JSON-encoded string. This is the
// export path: it must never fail a bulk export, so anything unusable simply
// yields no geometry.
//
// Accepted vertex shapes: {lat, lng} or {latitude, longitude} maps, and
// positional [lat, lng] pairs. Anything else is skipped. Fewer than three
// usable vertices means no geometry.
func Ring(stored any) (orb.Ring, bool) {
	value, ok := reparse(stored)
	if !ok {
		return nil, false
	}

	seq, ok := asSequence(value)
	if !ok {
		return nil, false
	}

	points := make([]orb.Point, 0, len(seq))
	for _, elem := range seq {
		if pt, ok := pointFromElement(elem); ok {
			points = append(points, pt)
		}
	}

	if len(points) < minPolygonPoints {
		return nil, false
	}

	return closeRing(points), true
}

// RingLenient is the notification-path variant of Ring. On top of the strict
// shapes it accepts a full GeoJSON Polygon object (outer ring passthrough), a
// nested single ring, and flat coordinate pairs whose axis order is guessed
// by range-checking the first pair: a first component within latitude range
// and a second within longitude range is taken as (lat, lng) and swapped,
// anything else is assumed to be (lng, lat) already. The guess is ambiguous
// for points with both components inside [-90, 90]; this matches how legacy
// data was stored and is deliberately left as-is.
func RingLenient(value any) (orb.Ring, bool) {
	parsed, ok := reparse(value)
	if !ok {
		return nil, false
	}

	if m, ok := parsed.(map[string]any); ok {
		return ringFromGeoJSON(m)
	}

	seq, ok := asSequence(parsed)
	if !ok || len(seq) == 0 {
		return nil, false
	}

	// Nested single ring: [[[x,y], ...]]
	if inner, ok := asSequence(seq[0]); ok && len(inner) > 0 {
		if _, nested := asSequence(inner[0]); nested {
			return RingLenient(seq[0])
		}
	}

	var points []orb.Point
	if _, isMap := seq[0].(map[string]any); isMap {
		points, ok = pointsFromMaps(seq)
	} else {
		points, ok = pointsFromPairs(seq)
	}
	if !ok || len(points) < minPolygonPoints {
		return nil, false
	}

	return closeRing(points), true
}

// PolygonLenient wraps RingLenient into a single-ring polygon for WKT and
// GeoJSON output on the notification path.
func PolygonLenient(value any) (orb.Polygon, bool) {
	ring, ok := RingLenient(value)
	if !ok {
		return nil, false
	}
	return orb.Polygon{ring}, true
}

// WKT renders a ring as a POLYGON well-known-text string.
func WKT(ring orb.Ring) string {
	return wkt.MarshalString(orb.Polygon{ring})
}

// reparse decodes legacy JSON-encoded string values. A string that fails to
// parse, or a nil value, yields no geometry.
func reparse(value any) (any, bool) {
	switch v := value.(type) {
	case nil:
		return nil, false
	case string:
		parsed, err := decodeJSON([]byte(v))
		if err != nil {
			return nil, false
		}
		return parsed, true
	case []byte:
		parsed, err := decodeJSON(v)
		if err != nil {
			return nil, false
		}
		return parsed, true
	case json.RawMessage:
		parsed, err := decodeJSON(v)
		if err != nil {
			return nil, false
		}
		// Double-encoded legacy values decode to a string first.
		if s, ok := parsed.(string); ok {
			return reparse(s)
		}
		return parsed, true
	default:
		return value, true
	}
}

// pointFromElement extracts a (lng, lat) point from a single stored vertex,
// accepting {lat, lng} maps and positional [lat, lng] pairs. The
// latitude/longitude key spelling is only honored on the lenient path.
func pointFromElement(elem any) (orb.Point, bool) {
	if m, ok := elem.(map[string]any); ok {
		latRaw, hasLat := m["lat"]
		lngRaw, hasLng := m["lng"]
		if !hasLat || !hasLng {
			return orb.Point{}, false
		}
		lat, ok := toFloat(latRaw)
		if !ok {
			return orb.Point{}, false
		}
		lng, ok := toFloat(lngRaw)
		if !ok {
			return orb.Point{}, false
		}
		return orb.Point{lng, lat}, true
	}

	pair, ok := asSequence(elem)
	if !ok || len(pair) != 2 {
		return orb.Point{}, false
	}
	lat, ok := toFloat(pair[0])
	if !ok {
		return orb.Point{}, false
	}
	lng, ok := toFloat(pair[1])
	if !ok {
		return orb.Point{}, false
	}
	return orb.Point{lng, lat}, true
}

// pointFromMap reads a {lat, lng} or {latitude, longitude} object.
func pointFromMap(m map[string]any) (orb.Point, bool) {
	for _, keys := range [][2]string{{"lat", "lng"}, {"latitude", "longitude"}} {
		latRaw, hasLat := m[keys[0]]
		lngRaw, hasLng := m[keys[1]]
		if !hasLat || !hasLng {
			continue
		}
		lat, ok := toFloat(latRaw)
		if !ok {
			return orb.Point{}, false
		}
		lng, ok := toFloat(lngRaw)
		if !ok {
			return orb.Point{}, false
		}
		return orb.Point{lng, lat}, true
	}
	return orb.Point{}, false
}

// pointsFromMaps converts a list of coordinate objects. A single malformed
// object invalidates the whole ring on the lenient path.
func pointsFromMaps(seq []any) ([]orb.Point, bool) {
	points := make([]orb.Point, 0, len(seq))
	for _, elem := range seq {
		m, ok := elem.(map[string]any)
		if !ok {
			return nil, false
		}
		pt, ok := pointFromMap(m)
		if !ok {
			return nil, false
		}
		points = append(points, pt)
	}
	return points, true
}

// pointsFromPairs converts flat coordinate pairs, guessing the axis order
// from the first pair's value ranges.
func pointsFromPairs(seq []any) ([]orb.Point, bool) {
	first, ok := asSequence(seq[0])
	if !ok || len(first) < 2 {
		return nil, false
	}
	firstX, ok := toFloat(first[0])
	if !ok {
		return nil, false
	}
	firstY, ok := toFloat(first[1])
	if !ok {
		return nil, false
	}

	latLng := firstX >= -90 && firstX <= 90 && firstY >= -180 && firstY <= 180

	points := make([]orb.Point, 0, len(seq))
	for _, elem := range seq {
		pair, ok := asSequence(elem)
		if !ok || len(pair) < 2 {
			return nil, false
		}
		a, ok := toFloat(pair[0])
		if !ok {
			return nil, false
		}
		b, ok := toFloat(pair[1])
		if !ok {
			return nil, false
		}
		if latLng {
			points = append(points, orb.Point{b, a})
		} else {
			points = append(points, orb.Point{a, b})
		}
	}
	return points, true
}

// ringFromGeoJSON passes through the outer ring of a GeoJSON Polygon object.
func ringFromGeoJSON(m map[string]any) (orb.Ring, bool) {
	if t, _ := m["type"].(string); t != "Polygon" {
		return nil, false
	}
	rings, ok := asSequence(m["coordinates"])
	if !ok || len(rings) == 0 {
		return nil, false
	}
	outer, ok := asSequence(rings[0])
	if !ok {
		return nil, false
	}

	points := make([]orb.Point, 0, len(outer))
	for _, elem := range outer {
		pair, ok := asSequence(elem)
		if !ok || len(pair) < 2 {
			return nil, false
		}
		lng, ok := toFloat(pair[0])
		if !ok {
			return nil, false
		}
		lat, ok := toFloat(pair[1])
		if !ok {
			return nil, false
		}
		points = append(points, orb.Point{lng, lat})
	}
	if len(points) < minPolygonPoints {
		return nil, false
	}
	return closeRing(points), true
}

// closeRing appends a copy of the first point when the ring is open. Already
// closed rings come back unchanged.
func closeRing(points []orb.Point) orb.Ring {
	if points[0] != points[len(points)-1] {
		points = append(points, points[0])
	}
	return orb.Ring(points)
}

// toFloat coerces JSON-decoded values into finite float64s. Numeric strings
// are accepted for parity with how the portal historically treated form data.
func toFloat(value any) (float64, bool) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
