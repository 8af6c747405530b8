// Package export projects stored records into the portal's two download
// formats: a CSV table with WKT geometry and a GeoJSON FeatureCollection.
// Both are best-effort on the geometry side: a record whose stored polygon
// cannot be turned into a ring still appears in the output, just without
// geometry.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/welshlidar/portal/api/internal/geometry"
	"github.com/welshlidar/portal/api/internal/models"
)

// csvHeader is the fixed, ordered field list for the CSV export.
var csvHeader = []string{
	"id",
	"title",
	"PRN",
	"description",
	"site_type",
	"monument_type",
	"period",
	"date_recorded",
	"recorded_by",
	"polygonCoordinate",
	"picture1",
	"picture2",
	"picture3",
	"picture4",
	"picture5",
	"created_at",
}

// WriteCSV writes one header row followed by one row per record. The polygon
// is rendered as WKT when a ring can be derived, otherwise the cell is empty.
// Nil fields render as empty strings and the submitter renders as their raw
// user ID, not a nested object.
func WriteCSV(w io.Writer, records []models.Record) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i := range records {
		rec := &records[i]
		if err := cw.Write(csvRow(rec)); err != nil {
			return fmt.Errorf("failed to write CSV row for record %d: %w", rec.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV output: %w", err)
	}
	return nil
}

func csvRow(rec *models.Record) []string {
	var wkt string
	if ring, ok := geometry.Ring(rec.PolygonCoordinate); ok {
		wkt = geometry.WKT(ring)
	}

	row := []string{
		strconv.FormatInt(rec.ID, 10),
		rec.Title,
		intOrEmpty(rec.PRN),
		rec.Description,
		rec.SiteType,
		rec.MonumentType,
		rec.Period,
		rec.DateRecorded.Format("2006-01-02"),
		strconv.FormatInt(rec.RecordedBy, 10),
		wkt,
	}
	for _, p := range rec.Pictures() {
		row = append(row, stringOrEmpty(p))
	}
	return append(row, rec.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
}

func intOrEmpty(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func stringOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// AbsoluteURL resolves a stored picture reference against the site base URL.
// Already absolute references pass through untouched.
func AbsoluteURL(base, ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(ref, "/")
}
