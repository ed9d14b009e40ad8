package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientResolvesBaseURLAndParses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ema-analysis/all", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("timeframe"))
		_ = json.NewEncoder(w).Encode(map[string]string{"timeframe": "1d"})
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL + "/"))
	var out map[string]string
	err := c.SendAndParse(context.Background(), &RequestOptions{
		Method:      MethodGet,
		URL:         "/api/ema-analysis/all",
		QueryParams: map[string][]string{"timeframe": {"1d"}},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, "1d", out["timeframe"])
}

func TestClientReturnsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "scan already running", http.StatusConflict)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	err := c.SendAndParse(context.Background(), &RequestOptions{Method: MethodPost, URL: "api/scan", Body: map[string]int{"top_n": 10}}, nil)
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusConflict))
	assert.Contains(t, err.Error(), "scan already running")
}
