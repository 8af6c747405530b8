package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/welshlidar/portal/api/internal/errors"
	"github.com/welshlidar/portal/api/internal/export"
	"github.com/welshlidar/portal/api/internal/geometry"
	"github.com/welshlidar/portal/api/internal/middleware"
	"github.com/welshlidar/portal/api/internal/models"
	"github.com/welshlidar/portal/api/internal/services"
)

// RecordHandler handles record submission, listing and export requests.
type RecordHandler struct {
	service services.RecordService
	baseURL string
}

// NewRecordHandler creates a new RecordHandler instance.
func NewRecordHandler(service services.RecordService, baseURL string) *RecordHandler {
	return &RecordHandler{
		service: service,
		baseURL: baseURL,
	}
}

// RecordData is the record representation returned by the list and create
// endpoints: enum codes travel with their display labels, the date is
// formatted for display, and the polygon is always an array even when a
// legacy record stored it as a JSON-encoded string.
type RecordData struct {
	PolygonCoordinate any     `json:"polygonCoordinate"`
	Title             string  `json:"title"`
	Description       string  `json:"description"`
	SiteType          string  `json:"site_type"`
	SiteTypeDisplay   string  `json:"site_type_display"`
	MonumentType      string  `json:"monument_type"`
	MonumentDisplay   string  `json:"monument_type_display"`
	Period            string  `json:"period"`
	PeriodDisplay     string  `json:"period_display"`
	DateRecorded      string  `json:"date_recorded"`
	RecordedBy        string  `json:"recorded_by"`
	PRN               *int    `json:"PRN"`
	Picture1          *string `json:"picture1"`
	Picture2          *string `json:"picture2"`
	Picture3          *string `json:"picture3"`
	Picture4          *string `json:"picture4"`
	Picture5          *string `json:"picture5"`
	ID                int64   `json:"id"`
}

// ListResponse wraps the record list endpoint response.
type ListResponse struct {
	Records []RecordData `json:"records"`
	Count   int          `json:"count"`
}

// Create handles POST /api/v1/records.
// The body is decoded as a raw field map so the normalizer can see every
// submitted field exactly as the client sent it.
func (h *RecordHandler) Create(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": "Authentication required",
		}})
		return
	}

	fields, err := decodeFieldMap(c.Request.Body)
	if err != nil {
		apierrors.BadRequest(c, "Request body must be a JSON object", nil)
		return
	}

	record, err := h.service.Create(c.Request.Context(), user, fields)
	if err != nil {
		var fieldErr *geometry.FieldError
		if errors.As(err, &fieldErr) {
			apierrors.FieldValidation(c, fieldErr.Field, fieldErr.Message)
			return
		}
		if errors.Is(err, services.ErrCapacityFull) {
			apierrors.BadRequest(c, services.CapacityMessage, nil)
			return
		}
		apierrors.InternalServerError(c, "Failed to save record", err)
		return
	}

	c.JSON(http.StatusCreated, mapRecordToDTO(record))
}

// GetRecordRequest represents the URI parameters for the single-record endpoint.
type GetRecordRequest struct {
	ID int64 `uri:"id" binding:"required,min=1"`
}

// Get handles GET /api/v1/records/:id.
// It returns the record DTO backing the public record page.
func (h *RecordHandler) Get(c *gin.Context) {
	var req GetRecordRequest
	if err := c.ShouldBindUri(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid record ID", nil)
		return
	}

	record, err := h.service.Get(c.Request.Context(), req.ID)
	if err != nil {
		if errors.Is(err, services.ErrRecordNotFound) {
			apierrors.NotFound(c, "Record not found")
			return
		}
		apierrors.InternalServerError(c, "Failed to load record", err)
		return
	}

	c.JSON(http.StatusOK, mapRecordToDTO(record))
}

// List handles GET /api/v1/records.
func (h *RecordHandler) List(c *gin.Context) {
	records, err := h.service.List(c.Request.Context())
	if err != nil {
		apierrors.InternalServerError(c, "Failed to list records", err)
		return
	}

	out := make([]RecordData, 0, len(records))
	for i := range records {
		out = append(out, mapRecordToDTO(&records[i]))
	}

	c.JSON(http.StatusOK, ListResponse{
		Records: out,
		Count:   len(out),
	})
}

// ExportCSV handles GET /api/v1/records/export/csv.
// It streams the requesting user's records as a CSV attachment.
func (h *RecordHandler) ExportCSV(c *gin.Context) {
	records, ok := h.ownedRecords(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, records); err != nil {
		apierrors.InternalServerError(c, "Failed to build CSV export", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="records.csv"`)
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

// ExportGeoJSON handles GET /api/v1/records/export/geojson.
// It streams the requesting user's records as a GeoJSON FeatureCollection.
func (h *RecordHandler) ExportGeoJSON(c *gin.Context) {
	records, ok := h.ownedRecords(c)
	if !ok {
		return
	}

	data, err := export.FeatureCollection(records, h.baseURL)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to build GeoJSON export", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="records.geojson"`)
	c.Data(http.StatusOK, "application/geo+json", data)
}

// ownedRecords loads the requesting user's records, writing the error
// response itself when something goes wrong.
func (h *RecordHandler) ownedRecords(c *gin.Context) ([]models.Record, bool) {
	user := middleware.GetUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": "Authentication required",
		}})
		return nil, false
	}

	records, err := h.service.ListOwned(c.Request.Context(), user.ID)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to load records for export", err)
		return nil, false
	}
	return records, true
}

// decodeFieldMap reads the request body into a raw field map, keeping
// numbers as json.Number so polygon vertices retain their submitted form.
func decodeFieldMap(body io.Reader) (map[string]any, error) {
	dec := json.NewDecoder(body)
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("failed to decode request body: %w", err)
	}
	return fields, nil
}

// mapRecordToDTO converts a Record model to its API representation.
func mapRecordToDTO(rec *models.Record) RecordData {
	return RecordData{
		ID:                rec.ID,
		Title:             rec.Title,
		PRN:               rec.PRN,
		Description:       rec.Description,
		SiteType:          rec.SiteType,
		SiteTypeDisplay:   models.SiteTypes.Label(rec.SiteType),
		MonumentType:      rec.MonumentType,
		MonumentDisplay:   models.MonumentTypes.Label(rec.MonumentType),
		Period:            rec.Period,
		PeriodDisplay:     models.Periods.Label(rec.Period),
		DateRecorded:      rec.DateRecorded.Format(models.DisplayDateFormat),
		RecordedBy:        rec.RecordedByName,
		PolygonCoordinate: polygonArray(rec.PolygonCoordinate),
		Picture1:          rec.Picture1,
		Picture2:          rec.Picture2,
		Picture3:          rec.Picture3,
		Picture4:          rec.Picture4,
		Picture5:          rec.Picture5,
	}
}

// polygonArray decodes the stored polygon into an array for the response.
// Legacy records that double-encoded the polygon as a JSON string are
// unwrapped; anything unparseable becomes null rather than an error.
func polygonArray(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil
	}

	if s, ok := value.(string); ok {
		var inner any
		if err := json.Unmarshal([]byte(s), &inner); err != nil {
			return nil
		}
		value = inner
	}

	if _, ok := value.([]any); !ok {
		return nil
	}
	return value
}
