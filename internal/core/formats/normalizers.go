package formats

import (
	"fmt"

	"github.com/JonMunkholm/poi-importer/internal/core"
)

// ratingsStyle selects how the raw ratings value is decoded.
type ratingsStyle int

const (
	ratingsText ratingsStyle = iota // "3.0,4.0" or "{3.0,4.0}"
	ratingsList                     // [3.0, 4.0]
)

// fieldMap names the source keys for each canonical field. Dotted keys reach
// into nested objects. An empty description key means the format has none.
type fieldMap struct {
	externalID  string
	name        string
	category    string
	latitude    string
	longitude   string
	description string
	ratings     string
	style       ratingsStyle
}

var fieldMaps = map[core.Format]fieldMap{
	core.FormatDelimited: {
		externalID:  "poi_id",
		name:        "poi_name",
		category:    "poi_category",
		latitude:    "poi_latitude",
		longitude:   "poi_longitude",
		description: "description",
		ratings:     "poi_ratings",
		style:       ratingsText,
	},
	core.FormatDocument: {
		externalID:  "id",
		name:        "name",
		category:    "category",
		latitude:    "coordinates.latitude",
		longitude:   "coordinates.longitude",
		description: "description",
		ratings:     "ratings",
		style:       ratingsList,
	},
	core.FormatMarkup: {
		externalID:  "pid",
		name:        "pname",
		category:    "pcategory",
		latitude:    "platitude",
		longitude:   "plongitude",
		description: "pdescription",
		ratings:     "pratings",
		style:       ratingsText,
	},
}

// Normalizer returns the normalizer for format. Panics on an unknown format,
// which can only happen through a programming error at registration.
func Normalizer(format core.Format) core.NormalizeFunc {
	m, ok := fieldMaps[format]
	if !ok {
		panic(fmt.Sprintf("no field map for format %q", format))
	}
	return m.normalize
}

func (m fieldMap) normalize(raw core.RawRecord) (core.POIRecord, error) {
	externalID, err := required(raw, "external_id", m.externalID)
	if err != nil {
		return core.POIRecord{}, err
	}
	name, err := required(raw, "name", m.name)
	if err != nil {
		return core.POIRecord{}, err
	}
	category, err := required(raw, "category", m.category)
	if err != nil {
		return core.POIRecord{}, err
	}

	lat, err := core.Float("latitude", core.Field(raw, m.latitude))
	if err != nil {
		return core.POIRecord{}, err
	}
	lon, err := core.Float("longitude", core.Field(raw, m.longitude))
	if err != nil {
		return core.POIRecord{}, err
	}

	var ratings []float64
	switch m.style {
	case ratingsList:
		ratings, err = core.RatingsFromList("ratings", core.Field(raw, m.ratings))
	default:
		ratings, err = core.RatingsFromText("ratings", core.Field(raw, m.ratings))
	}
	if err != nil {
		return core.POIRecord{}, err
	}

	description, _ := core.Text(core.Field(raw, m.description))

	return core.NewPOIRecord(externalID, name, description, category, lat, lon, ratings)
}

// required returns the trimmed text at key; absent or blank is an error.
func required(raw core.RawRecord, field, key string) (string, error) {
	s, ok := core.Text(core.Field(raw, key))
	if !ok || s == "" {
		return "", &core.NormalizationError{Field: field, Reason: fmt.Sprintf("missing required field %q", key)}
	}
	return s, nil
}
