package geometry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFields_BlankStringsBecomeNil(t *testing.T) {
	fields := map[string]any{
		"title":       "Hillfort above the valley",
		"PRN":         "   ",
		"description": "",
		"picture1":    "\t\n",
	}

	out, err := NormalizeFields(fields)
	require.NoError(t, err)

	assert.Equal(t, "Hillfort above the valley", out["title"])
	assert.Nil(t, out["PRN"])
	assert.Nil(t, out["description"])
	assert.Nil(t, out["picture1"])
}

func TestNormalizeFields_ParsesJSONEncodedPolygon(t *testing.T) {
	fields := map[string]any{
		PolygonField: `[[51.5, -3.2], [51.6, -3.2], [51.6, -3.1]]`,
	}

	out, err := NormalizeFields(fields)
	require.NoError(t, err)

	seq, ok := out[PolygonField].([]any)
	require.True(t, ok, "polygon should be decoded into a slice")
	assert.Len(t, seq, 3)

	first, ok := seq[0].([]any)
	require.True(t, ok)
	assert.Equal(t, json.Number("51.5"), first[0])
	assert.Equal(t, json.Number("-3.2"), first[1])
}

func TestNormalizeFields_InvalidJSONPolygon(t *testing.T) {
	fields := map[string]any{
		PolygonField: "not json",
	}

	_, err := NormalizeFields(fields)
	require.Error(t, err)

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, PolygonField, fieldErr.Field)
	assert.Equal(t, "Invalid JSON for polygonCoordinate", fieldErr.Message)
}

func TestNormalizeFields_TrailingDataAfterPolygonJSON(t *testing.T) {
	fields := map[string]any{
		PolygonField: `[[51.5,-3.2],[51.6,-3.2],[51.6,-3.1]] trailing garbage`,
	}

	_, err := NormalizeFields(fields)
	require.Error(t, err)

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "Invalid JSON for polygonCoordinate", fieldErr.Message)
}

func TestNormalizeFields_NonPolygonFieldsLeftAlone(t *testing.T) {
	fields := map[string]any{
		"site_type": "enclosure",
		"PRN":       float64(4211),
	}

	out, err := NormalizeFields(fields)
	require.NoError(t, err)
	assert.Equal(t, "enclosure", out["site_type"])
	assert.Equal(t, float64(4211), out["PRN"])
}

func TestValidatePolygon(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		wantMsg string
	}{
		{
			name:    "nil fails presence",
			value:   nil,
			wantMsg: "polygonCoordinate is required.",
		},
		{
			name:    "non-sequence fails container check",
			value:   map[string]any{"type": "Polygon"},
			wantMsg: "polygonCoordinate must be a list of [lat, lng] pairs.",
		},
		{
			name:    "string fails container check",
			value:   "51.5,-3.2",
			wantMsg: "polygonCoordinate must be a list of [lat, lng] pairs.",
		},
		{
			name:    "two points fail arity check",
			value:   []any{[]any{1.0, 2.0}, []any{3.0, 4.0}},
			wantMsg: "polygonCoordinate must contain at least three [lat, lng] points.",
		},
		{
			name:    "vertex with three components fails pair check",
			value:   []any{[]any{1.0, 2.0, 3.0}, []any{3.0, 4.0}, []any{5.0, 6.0}},
			wantMsg: "Each vertex must be a [lat, lng] pair.",
		},
		{
			name:    "non-sequence vertex fails pair check",
			value:   []any{"1,2", []any{3.0, 4.0}, []any{5.0, 6.0}},
			wantMsg: "Each vertex must be a [lat, lng] pair.",
		},
		{
			name:    "non-numeric component fails number check",
			value:   []any{[]any{1.0, "x"}, []any{3.0, 4.0}, []any{5.0, 6.0}},
			wantMsg: "Each vertex must contain two numbers: [lat, lng].",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidatePolygon(tt.value)
			require.Error(t, err)

			var fieldErr *FieldError
			require.ErrorAs(t, err, &fieldErr)
			assert.Equal(t, PolygonField, fieldErr.Field)
			assert.Equal(t, tt.wantMsg, fieldErr.Message)
		})
	}
}

func TestValidatePolygon_FirstFailingVertexWins(t *testing.T) {
	// Vertex 1 has a bad arity, vertex 2 a bad number; the arity message wins.
	value := []any{
		[]any{51.5, -3.2},
		[]any{51.6},
		[]any{"x", "y"},
	}

	_, err := ValidatePolygon(value)
	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "Each vertex must be a [lat, lng] pair.", fieldErr.Message)
}

func TestValidatePolygon_PreservesOriginalValueTypes(t *testing.T) {
	value := []any{
		[]any{json.Number("51.5"), json.Number("-3.2")},
		[]any{52, -3},
		[]any{"51.7", "-3.4"},
	}

	out, err := ValidatePolygon(value)
	require.NoError(t, err)
	require.Len(t, out, 3)

	first, ok := out[0].([]any)
	require.True(t, ok)
	assert.Equal(t, json.Number("51.5"), first[0])

	second, ok := out[1].([]any)
	require.True(t, ok)
	assert.Equal(t, 52, second[0])

	third, ok := out[2].([]any)
	require.True(t, ok)
	assert.Equal(t, "51.7", third[0])
}
