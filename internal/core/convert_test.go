package core

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestText(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   string
		wantOK bool
	}{
		{"nil is absent", nil, "", false},
		{"string trimmed", "  restaurant \t", "restaurant", true},
		{"json number keeps text", json.Number("0012"), "0012", true},
		{"float", 26.5, "26.5", true},
		{"bool", true, "true", true},
		{"empty string present", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Text(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestFloat(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    float64
		wantErr bool
	}{
		{"string", " 26.21 ", 26.21, false},
		{"json number", json.Number("127.68"), 127.68, false},
		{"float64", 3.5, 3.5, false},
		{"negative", "-33.8", -33.8, false},
		{"nil", nil, 0, true},
		{"text", "north", 0, true},
		{"empty", "", 0, true},
		{"nan", "NaN", 0, true},
		{"inf", "+Inf", 0, true},
		{"array", []any{1.0}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Float("latitude", tt.in)
			if tt.wantErr {
				var normErr *NormalizationError
				require.True(t, errors.As(err, &normErr), "want *NormalizationError, got %v", err)
				assert.Equal(t, "latitude", normErr.Field)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestRatingsFromText(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    []float64
		wantErr bool
	}{
		{"braced", "{3.0,4.0,3.0,5.0}", []float64{3, 4, 3, 5}, false},
		{"bare", "2.5, 4.5", []float64{2.5, 4.5}, false},
		{"single", "5", []float64{5}, false},
		{"padded braces", "  {1,2}  ", []float64{1, 2}, false},
		{"empty braces", "{}", nil, true},
		{"empty", "", nil, true},
		{"bad token", "{3.0,x}", nil, true},
		{"trailing comma", "3.0,", nil, true},
		{"missing", nil, nil, true},
		{"not text", []any{"3"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RatingsFromText("ratings", tt.in)
			if tt.wantErr {
				var normErr *NormalizationError
				require.ErrorAs(t, err, &normErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRatingsFromList(t *testing.T) {
	got, err := RatingsFromList("ratings", []any{json.Number("2.0"), "3.5", 4.0})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3.5, 4}, got)

	got, err = RatingsFromList("ratings", []any{})
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = RatingsFromList("ratings", "3,4")
	assert.Error(t, err)

	_, err = RatingsFromList("ratings", []any{"bad"})
	assert.Error(t, err)
}

func TestField(t *testing.T) {
	raw := RawRecord{
		"id": json.Number("7"),
		"coordinates": map[string]any{
			"latitude":  json.Number("26.2"),
			"longitude": json.Number("127.6"),
		},
	}
	assert.Equal(t, json.Number("7"), Field(raw, "id"))
	assert.Equal(t, json.Number("26.2"), Field(raw, "coordinates.latitude"))
	assert.Nil(t, Field(raw, "coordinates.altitude"))
	assert.Nil(t, Field(raw, "id.nested"))
	assert.Nil(t, Field(raw, "missing"))
}

func TestNewPOIRecord(t *testing.T) {
	ratings := []float64{3, 4, 3, 5}
	rec, err := NewPOIRecord(" 1 ", " ちぬまん ", "", " restaurant ", 26.21, 127.68, ratings)
	require.NoError(t, err)

	assert.Equal(t, "1", rec.ExternalID)
	assert.Equal(t, "ちぬまん", rec.Name)
	assert.Equal(t, "restaurant", rec.Category)
	assert.Equal(t, Point{Longitude: 127.68, Latitude: 26.21}, rec.Location)
	assert.InDelta(t, 3.75, rec.AverageRating, 1e-9)

	// The record owns its ratings.
	ratings[0] = 100
	assert.Equal(t, 3.0, rec.Ratings[0])

	_, err = NewPOIRecord("1", "a", "", "b", 0, 0, nil)
	var normErr *NormalizationError
	require.ErrorAs(t, err, &normErr)
	assert.Equal(t, "ratings", normErr.Field)
}

func TestAverageRatingIsMean(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ratings := rapid.SliceOfN(rapid.Float64Range(0, 5), 1, 50).Draw(t, "ratings")

		rec, err := NewPOIRecord("id", "name", "", "cat", 0, 0, ratings)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var sum float64
		for _, r := range ratings {
			sum += r
		}
		want := sum / float64(len(ratings))
		if math.Abs(rec.AverageRating-want) > 1e-9 {
			t.Fatalf("average = %v, want %v", rec.AverageRating, want)
		}
		if rec.AverageRating < 0 || rec.AverageRating > 5+1e-9 {
			t.Fatalf("average %v outside rating bounds", rec.AverageRating)
		}
	})
}
