package templates

import (
	"bytes"
	"context"
	"testing"

	"github.com/JonMunkholm/poi-importer/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, data ListData) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, POIList(data).Render(context.Background(), &buf))
	return buf.String()
}

func TestPOIListEscapesValues(t *testing.T) {
	items := []core.StoredPOI{{
		ID:        7,
		POIRecord: core.POIRecord{ExternalID: "a&b", Name: "<b>Gate</b>", Location: core.Point{Longitude: -74, Latitude: 40.5}},
	}}
	body := render(t, ListData{
		Filter:   core.POIFilter{Category: `"><script>x</script>`, Limit: 10},
		Page:     core.POIPage{Total: 1, Items: items},
		NextLink: "/?category=a%26b&offset=10",
	})

	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, `value="&#34;&gt;&lt;script&gt;x&lt;/script&gt;"`)
	assert.Contains(t, body, "<td>a&amp;b</td>")
	assert.Contains(t, body, "<td>&lt;b&gt;Gate&lt;/b&gt;</td>")
	assert.Contains(t, body, "<td>POINT(-74 40.5)</td>")
	assert.Contains(t, body, `href="/?category=a%26b&amp;offset=10"`)
	assert.Contains(t, body, "<p>1 records</p>")
}

func TestPOIListUnsafeLinkIsReplaced(t *testing.T) {
	body := render(t, ListData{PrevLink: "javascript:alert(1)"})
	assert.NotContains(t, body, "javascript:")
	assert.Contains(t, body, "No records found.")
}

func TestErrorAlertOmitsEmptyAction(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ErrorAlert("Database unavailable", "", "DB003").Render(context.Background(), &buf))

	body := buf.String()
	assert.Contains(t, body, `<div role="alert"><p><strong>Database unavailable</strong></p><p><small>Error code: DB003</small></p></div>`)
	assert.Contains(t, body, "<title>Points of Interest</title>")
}

func TestPageLink(t *testing.T) {
	tests := []struct {
		name   string
		filter core.POIFilter
		offset int
		want   string
	}{
		{"bare", core.POIFilter{}, 0, "/"},
		{"limit only", core.POIFilter{Limit: 2}, 0, "/?limit=2"},
		{"full", core.POIFilter{Category: "cafe", Search: "x y", Limit: 2}, 4, "/?category=cafe&limit=2&offset=4&search=x+y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PageLink(tt.filter, tt.offset); got != tt.want {
				t.Errorf("PageLink() = %q, want %q", got, tt.want)
			}
		})
	}
}
