package export

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/welshlidar/portal/api/internal/geometry"
	"github.com/welshlidar/portal/api/internal/models"
)

// feature mirrors a GeoJSON Feature but allows a null geometry, which the
// orb geojson.Feature type does not represent.
type feature struct {
	Type       string            `json:"type"`
	Geometry   *geojson.Geometry `json:"geometry"`
	Properties map[string]any    `json:"properties"`
}

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

// FeatureCollection renders records as a GeoJSON FeatureCollection. Every
// record becomes a Feature; records without a derivable ring get
// "geometry": null rather than being dropped. Picture references are resolved
// to absolute URLs against baseURL.
func FeatureCollection(records []models.Record, baseURL string) ([]byte, error) {
	fc := featureCollection{
		Type:     "FeatureCollection",
		Features: make([]feature, 0, len(records)),
	}

	for i := range records {
		fc.Features = append(fc.Features, recordFeature(&records[i], baseURL))
	}

	data, err := json.Marshal(fc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode feature collection: %w", err)
	}
	return data, nil
}

// RecordFeature renders a single record as a GeoJSON Feature document.
// Used for the notification attachment: the caller supplies the polygon it
// derived (the notification path accepts more shapes than the export path),
// so the attachment always carries the same geometry the email body inlines.
func RecordFeature(rec *models.Record, poly orb.Polygon, baseURL string, extra map[string]any) ([]byte, error) {
	f := recordFeature(rec, baseURL)
	if poly != nil {
		f.Geometry = geojson.NewGeometry(poly)
	}
	for k, v := range extra {
		f.Properties[k] = v
	}

	fc := featureCollection{Type: "FeatureCollection", Features: []feature{f}}
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode record feature: %w", err)
	}
	return data, nil
}

func recordFeature(rec *models.Record, baseURL string) feature {
	f := feature{
		Type: "Feature",
		Properties: map[string]any{
			"id":            rec.ID,
			"title":         rec.Title,
			"description":   rec.Description,
			"PRN":           rec.PRN,
			"site_type":     rec.SiteType,
			"monument_type": rec.MonumentType,
			"period":        rec.Period,
			"date_recorded": rec.DateRecorded.Format(models.DisplayDateFormat),
			"recorded_by":   rec.RecordedByName,
		},
	}

	for i, p := range rec.Pictures() {
		key := fmt.Sprintf("picture%d", i+1)
		if p != nil && *p != "" {
			f.Properties[key] = AbsoluteURL(baseURL, *p)
		} else {
			f.Properties[key] = nil
		}
	}

	if ring, ok := geometry.Ring(rec.PolygonCoordinate); ok {
		f.Geometry = geojson.NewGeometry(orb.Polygon{ring})
	}

	return f
}
