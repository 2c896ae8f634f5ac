package factorsearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseSnippet(t *testing.T) {
	cases := []struct {
		snippet string
		want    string
		unit    string
		ok      bool
	}{
		{"Diesel combustion emits 2.68 kg CO2e per liter according to DEFRA.", "2.68", "liter", true},
		{"Grid electricity: 0.42 kg CO2e/kWh on average.", "0.42", "kwh", true},
		{"The factor is 1,5 kg CO2-e per kg of product.", "1.5", "kg", true},
		{"Steel production: 1850 kg CO2eq per tonne.", "1850", "tonne", true},
		{"No factor information here.", "", "", false},
		{"Costs 5 EUR per liter.", "", "", false},
	}

	for _, tc := range cases {
		got, ok := ParseSnippet(tc.snippet)
		assert.Equal(t, tc.ok, ok, "snippet %q", tc.snippet)
		if tc.ok {
			assert.Equal(t, tc.want, got.Value.String(), "snippet %q", tc.snippet)
			assert.Equal(t, tc.unit, got.Unit, "snippet %q", tc.snippet)
		}
	}
}

func TestClassifySource(t *testing.T) {
	cases := []struct {
		url  string
		want TrustTier
	}{
		{"https://www.epa.gov/ghg/factors", TrustHigh},
		{"https://www.ipcc.ch/report", TrustHigh},
		{"https://ghgprotocol.org/calculation-tools", TrustHigh},
		{"https://env.go.jp/earth", TrustHigh},
		{"https://ec.europa.eu/cbam", TrustHigh},
		{"https://carbonfund.org/factors", TrustMedium},
		{"https://mit.edu/research", TrustMedium},
		{"https://some-blog.example.com/factors", TrustLow},
		{"://notaurl", TrustLow},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifySource(tc.url), "url %s", tc.url)
	}
}

func TestSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("ranks results by trust tier", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.NotEmpty(t, r.URL.Query().Get("q"))
			json.NewEncoder(w).Encode(map[string]interface{}{
				"results": []map[string]string{
					{"url": "https://blog.example.com", "snippet": "about 0.5 kg CO2e per kWh"},
					{"url": "https://www.epa.gov/factors", "snippet": "0.42 kg CO2e per kWh"},
					{"url": "https://carbonfund.org", "snippet": "0.45 kg CO2e per kWh"},
				},
			})
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "", 600, time.Second, zap.NewNop())
		results := c.Search(ctx, "grid electricity", "kWh")

		require.Len(t, results, 3)
		assert.Equal(t, TrustHigh, results[0].Trust)
		assert.True(t, results[0].Value.Equal(decimal.NewFromFloat(0.42)))
		assert.Equal(t, TrustMedium, results[1].Trust)
		assert.Equal(t, TrustLow, results[2].Trust)
	})

	t.Run("unparseable snippets are dropped", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"results": []map[string]string{
					{"url": "https://www.epa.gov", "snippet": "general info about emissions"},
				},
			})
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "", 600, time.Second, zap.NewNop())
		results := c.Search(ctx, "grid electricity", "kWh")

		// No parsed hits falls back to the built-in table
		require.Len(t, results, 1)
		assert.Equal(t, "built-in fallback factor", results[0].Snippet)
	})

	t.Run("server failure falls back to built-in table", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "", 600, time.Second, zap.NewNop())
		results := c.Search(ctx, "diesel", "liter")

		require.Len(t, results, 1)
		assert.True(t, results[0].Value.Equal(decimal.NewFromFloat(2.5)))
		assert.Equal(t, TrustLow, results[0].Trust)
	})

	t.Run("disabled client uses fallback", func(t *testing.T) {
		c := NewClient("", "", 600, time.Second, zap.NewNop())
		results := c.Search(ctx, "grid electricity", "kwh")
		require.Len(t, results, 1)
		assert.True(t, results[0].Value.Equal(decimal.NewFromFloat(0.42)))
	})

	t.Run("unknown unit with no search yields nothing", func(t *testing.T) {
		c := NewClient("", "", 600, time.Second, zap.NewNop())
		assert.Empty(t, c.Search(ctx, "mystery", "widgets"))
	})
}
