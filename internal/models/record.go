package models

import (
	"encoding/json"
	"time"
)

// DisplayDateFormat is the date layout used in API responses and exports.
const DisplayDateFormat = "02/01/2006"

// Record represents a community submission describing a feature spotted in
// LiDAR imagery. The polygon drawn on the map is stored verbatim as the JSON
// the client submitted (an ordered list of [lat, lng] pairs); it is only
// reprojected to GeoJSON at export and notification time.
// Nullable fields use pointers to distinguish zero values from NULL.
type Record struct {
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
	DateRecorded      time.Time       `json:"dateRecorded"`
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	SiteType          string          `json:"siteType"`
	MonumentType      string          `json:"monumentType"`
	Period            string          `json:"period"`
	RecordedByName    string          `json:"recordedByName"`
	PolygonCoordinate json.RawMessage `json:"polygonCoordinate"`
	PRN               *int            `json:"prn,omitempty"`
	Picture1          *string         `json:"picture1,omitempty"`
	Picture2          *string         `json:"picture2,omitempty"`
	Picture3          *string         `json:"picture3,omitempty"`
	Picture4          *string         `json:"picture4,omitempty"`
	Picture5          *string         `json:"picture5,omitempty"`
	ID                int64           `json:"id"`
	RecordedBy        int64           `json:"recordedBy"`
}

// Pictures returns the five picture reference slots in order. Empty slots are
// nil; slot position is significant, it maps onto the picture1..picture5
// column and property names.
func (r *Record) Pictures() []*string {
	return []*string{r.Picture1, r.Picture2, r.Picture3, r.Picture4, r.Picture5}
}

// User is the authenticated principal resolved by the session middleware.
type User struct {
	Username string `json:"username"`
	ID       int64  `json:"id"`
}
