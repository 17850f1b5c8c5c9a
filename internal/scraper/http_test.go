package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agridata-labs/soil-scout/internal/config"
	"agridata-labs/soil-scout/internal/models"
)

const sampleDualTableHTML = `
<html><body>
  <table id="gridMacroNutrient">
    <tr><th>Village</th><th>Nitrogen</th></tr>
    <tr><td>Village A</td><td>280</td></tr>
    <tr><td>Village B</td><td>310</td></tr>
  </table>
  <table id="gridMicroNutrient">
    <tr><th>Village</th><th>Zinc</th></tr>
    <tr><td>Village A</td><td>0.62</td></tr>
  </table>
</body></html>
`

func httpSourceConfig(url string) *config.SiteConfig {
	return &config.SiteConfig{
		FetchMode: "http",
		TableURL:  url,
		Selectors: config.Selectors{
			MacroTable: "#gridMacroNutrient",
			MicroTable: "#gridMicroNutrient",
		},
		Location: config.Location{
			Year: "2023-24", State: "Punjab", District: "Moga", Block: "Bagha Purana",
		},
	}
}

func TestHTTPSourceFetchTables(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleDualTableHTML))
	}))
	defer srv.Close()

	source := NewHTTPSource(httpSourceConfig(srv.URL))
	tables, err := source.FetchTables(context.Background())
	require.NoError(t, err)
	require.Len(t, tables, 2)

	macro := tables[0]
	assert.Equal(t, models.KindMacro, macro.Kind)
	assert.Equal(t, "Punjab", macro.Location.State)
	// Row count matches the number of data rows in the source.
	assert.Len(t, macro.Table.Rows, 2)

	micro := tables[1]
	assert.Equal(t, models.KindMicro, micro.Kind)
	assert.Len(t, micro.Table.Rows, 1)
}

func TestRunBuildsSourceFromConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleDualTableHTML))
	}))
	defer srv.Close()

	tables, err := Run(context.Background(), httpSourceConfig(srv.URL))
	require.NoError(t, err)
	assert.Len(t, tables, 2)
}

func TestRunUnknownFetchMode(t *testing.T) {
	cfg := httpSourceConfig("http://example.test")
	cfg.FetchMode = "carrier-pigeon"
	_, err := Run(context.Background(), cfg)
	require.Error(t, err)
}

func TestHTTPSourceServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	source := NewHTTPSource(httpSourceConfig(srv.URL))
	_, err := source.FetchTables(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNetwork))
}

func TestHTTPSourceUnreachable(t *testing.T) {
	source := NewHTTPSource(httpSourceConfig("http://127.0.0.1:1"))
	_, err := source.FetchTables(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNetwork))
}

func TestHTTPSourceNoTables(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><p>nothing</p></body></html>"))
	}))
	defer srv.Close()

	source := NewHTTPSource(httpSourceConfig(srv.URL))
	_, err := source.FetchTables(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))
}
