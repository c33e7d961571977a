package formats

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/JonMunkholm/poi-importer/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

// drain reads rows until the sequence ends and returns them with the final error.
func drain(t *testing.T, rows core.RowReader) ([]core.RawRecord, error) {
	t.Helper()
	var out []core.RawRecord
	for {
		row, err := rows.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, row)
		if len(out) > 1000 {
			t.Fatal("runaway row reader")
		}
	}
}

func TestRegisteredFormats(t *testing.T) {
	for ext, format := range map[string]core.Format{
		".csv":  core.FormatDelimited,
		".json": core.FormatDocument,
		".xml":  core.FormatMarkup,
	} {
		def, err := core.Lookup("file" + strings.ToUpper(ext))
		require.NoError(t, err, ext)
		assert.Equal(t, format, def.Format)
		assert.NotEmpty(t, def.Label)
	}
}

func TestParseDelimited(t *testing.T) {
	input := "poi_id, poi_name,poi_ratings\n1,Cafe,\"{3.0,4.0}\"\n\n2,Short\n"
	rows, err := drain(t, ParseDelimited(strings.NewReader(input)))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, core.RawRecord{"poi_id": "1", "poi_name": "Cafe", "poi_ratings": "{3.0,4.0}"}, rows[0])
	assert.Equal(t, core.RawRecord{"poi_id": "2", "poi_name": "Short"}, rows[1])
}

func TestParseDelimitedRowsDoNotAlias(t *testing.T) {
	rows := ParseDelimited(strings.NewReader("a\n1\n2\n"))
	first, err := rows.Next()
	require.NoError(t, err)
	_, err = rows.Next()
	require.NoError(t, err)
	assert.Equal(t, "1", first["a"])
}

func TestParseDelimitedErrors(t *testing.T) {
	_, err := drain(t, ParseDelimited(strings.NewReader("")))
	assert.NoError(t, err, "empty input is an empty sequence")

	rows := ParseDelimited(strings.NewReader("a,b\n1,2\n3,\"unterminated\n"))
	got, err := drain(t, rows)
	require.Len(t, got, 1)
	var parseErr *core.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 2, parseErr.Record)

	// The sequence stays terminated.
	_, again := rows.Next()
	assert.Equal(t, err, again)
}

func TestParseDelimitedHeaderError(t *testing.T) {
	rows := ParseDelimited(strings.NewReader("a,\"b\n1,2\n"))
	_, err := rows.Next()

	var parseErr *core.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 0, parseErr.Record)
	assert.True(t, strings.HasPrefix(err.Error(), "parse: "), err.Error())
}

func TestParseDocumentArray(t *testing.T) {
	input := ` [ {"id": 12, "coordinates": {"latitude": 1.5}}, {"id": "x"} ] `
	rows, err := drain(t, ParseDocument(strings.NewReader(input)))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, json.Number("12"), rows[0]["id"])
	assert.Equal(t, json.Number("1.5"), core.Field(rows[0], "coordinates.latitude"))
	assert.Equal(t, "x", rows[1]["id"])
}

func TestParseDocumentObjectRoot(t *testing.T) {
	rows, err := drain(t, ParseDocument(strings.NewReader("\n{\"id\": \"solo\"}\n")))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "solo", rows[0]["id"])
}

func TestParseDocumentEmptyArray(t *testing.T) {
	rows, err := drain(t, ParseDocument(strings.NewReader("[]")))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestParseDocumentErrors(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantRows   int
		wantRecord int
	}{
		{"empty", "", 0, 0},
		{"scalar root", `"just text"`, 0, 0},
		{"element not an object", `[{"id": 1}, 5]`, 1, 2},
		{"truncated", `[{"id": 1}, {"id"`, 1, 2},
		{"missing close", `[{"id": 1}`, 1, 1},
		{"trailing data", `{"id": 1} {"id": 2}`, 1, 1},
		{"bad syntax", `[{"id": 1,}]`, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := drain(t, ParseDocument(strings.NewReader(tt.input)))
			assert.Len(t, rows, tt.wantRows)
			var parseErr *core.ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, tt.wantRecord, parseErr.Record)
		})
	}
}

func TestParseMarkup(t *testing.T) {
	input := `<?xml version="1.0"?>
<RECORDS>
  <META><pid>ignored</pid></META>
  <DATA_RECORD>
    <pid> 1 </pid>
    <pname>Gate</pname>
    <pdescription></pdescription>
    <pratings>1,2</pratings>
  </DATA_RECORD>
  <DATA_RECORD><pid>2</pid></DATA_RECORD>
</RECORDS>`
	rows, err := drain(t, ParseMarkup(strings.NewReader(input)))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, core.RawRecord{"pid": "1", "pname": "Gate", "pratings": "1,2"}, rows[0])
	assert.Equal(t, core.RawRecord{"pid": "2"}, rows[1])
}

func TestParseMarkupDeclaredCharset(t *testing.T) {
	body, err := charmap.ISO8859_1.NewEncoder().String(`<?xml version="1.0" encoding="ISO-8859-1"?><R><DATA_RECORD><pname>Café</pname></DATA_RECORD></R>`)
	require.NoError(t, err)

	rows, err := drain(t, ParseMarkup(bytes.NewReader([]byte(body))))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Café", rows[0]["pname"])
}

func TestParseMarkupErrors(t *testing.T) {
	rows, err := drain(t, ParseMarkup(strings.NewReader(`<R><DATA_RECORD><pid>1</pid></DATA_RECORD><DATA_RECORD><pid>2</DATA_RECORD></R>`)))
	assert.Len(t, rows, 1)
	var parseErr *core.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 2, parseErr.Record)

	rows, err = drain(t, ParseMarkup(strings.NewReader(`<R><DATA_RECORD><pid>1</pid>`)))
	assert.Empty(t, rows)
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 1, parseErr.Record)

	for _, input := range []string{"", "not xml at all", `<?xml version="1.0"?>`} {
		rows, err = drain(t, ParseMarkup(strings.NewReader(input)))
		assert.Empty(t, rows, input)
		require.ErrorAs(t, err, &parseErr, "%q", input)
		assert.Equal(t, 0, parseErr.Record)
		assert.ErrorIs(t, err, errNoRoot)
	}
}

func TestParseMarkupEmptyRoot(t *testing.T) {
	rows, err := drain(t, ParseMarkup(strings.NewReader(`<RECORDS></RECORDS>`)))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestNormalizers(t *testing.T) {
	tests := []struct {
		name   string
		format core.Format
		raw    core.RawRecord
		want   core.POIRecord
	}{
		{
			name:   "delimited",
			format: core.FormatDelimited,
			raw: core.RawRecord{
				"poi_id": " 1 ", "poi_name": "ちぬまん", "poi_category": "restaurant",
				"poi_latitude": "26.21", "poi_longitude": "127.68", "poi_ratings": "{3.0,4.0,3.0,5.0}",
			},
			want: core.POIRecord{
				ExternalID: "1", Name: "ちぬまん", Category: "restaurant",
				Location: core.Point{Longitude: 127.68, Latitude: 26.21},
				Ratings:  []float64{3, 4, 3, 5}, AverageRating: 3.75,
			},
		},
		{
			name:   "document",
			format: core.FormatDocument,
			raw: core.RawRecord{
				"id": json.Number("77"), "name": "Mill", "category": "museum", "description": " old ",
				"coordinates": map[string]any{"latitude": json.Number("-1.5"), "longitude": json.Number("2")},
				"ratings":     []any{json.Number("2"), json.Number("4")},
			},
			want: core.POIRecord{
				ExternalID: "77", Name: "Mill", Category: "museum", Description: "old",
				Location: core.Point{Longitude: 2, Latitude: -1.5},
				Ratings:  []float64{2, 4}, AverageRating: 3,
			},
		},
		{
			name:   "markup",
			format: core.FormatMarkup,
			raw: core.RawRecord{
				"pid": "301", "pname": "Gate", "pcategory": "landmark", "pdescription": "north side",
				"platitude": "40.71", "plongitude": "-74", "pratings": "3.0,5.0",
			},
			want: core.POIRecord{
				ExternalID: "301", Name: "Gate", Category: "landmark", Description: "north side",
				Location: core.Point{Longitude: -74, Latitude: 40.71},
				Ratings:  []float64{3, 5}, AverageRating: 4,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalizer(tt.format)(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizerFailures(t *testing.T) {
	valid := func() core.RawRecord {
		return core.RawRecord{
			"poi_id": "1", "poi_name": "n", "poi_category": "c",
			"poi_latitude": "1", "poi_longitude": "2", "poi_ratings": "{1}",
		}
	}
	tests := []struct {
		name      string
		mutate    func(core.RawRecord)
		wantField string
	}{
		{"missing id", func(r core.RawRecord) { delete(r, "poi_id") }, "external_id"},
		{"blank name", func(r core.RawRecord) { r["poi_name"] = "  " }, "name"},
		{"missing category", func(r core.RawRecord) { delete(r, "poi_category") }, "category"},
		{"bad latitude", func(r core.RawRecord) { r["poi_latitude"] = "north" }, "latitude"},
		{"missing longitude", func(r core.RawRecord) { delete(r, "poi_longitude") }, "longitude"},
		{"empty ratings", func(r core.RawRecord) { r["poi_ratings"] = "{}" }, "ratings"},
		{"bad rating token", func(r core.RawRecord) { r["poi_ratings"] = "{4,five}" }, "ratings"},
		{"missing ratings", func(r core.RawRecord) { delete(r, "poi_ratings") }, "ratings"},
	}
	normalize := Normalizer(core.FormatDelimited)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := valid()
			tt.mutate(raw)
			_, err := normalize(raw)
			var normErr *core.NormalizationError
			require.ErrorAs(t, err, &normErr)
			assert.Equal(t, tt.wantField, normErr.Field)
		})
	}

	_, err := Normalizer(core.FormatDocument)(core.RawRecord{
		"id": "1", "name": "n", "category": "c",
		"coordinates": map[string]any{"latitude": json.Number("1"), "longitude": json.Number("2")},
		"ratings":     []any{},
	})
	var normErr *core.NormalizationError
	require.ErrorAs(t, err, &normErr)
	assert.Equal(t, "ratings", normErr.Field)
}

func TestNormalizerUnknownFormat(t *testing.T) {
	assert.Panics(t, func() { Normalizer("yaml") })
}
