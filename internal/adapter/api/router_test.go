package api

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/V4T54L/dcache-billing-exporter/internal/adapter/metrics"
)

func TestRouter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	m := metrics.NewBillingMetrics(reg, "dcache_kafka_", false)
	m.UnparsedCount.Add(3)
	m.TransferCount.WithLabelValues("pool_a", "pool_aDomain", "pool", "0", "read", "atlas:default@osm").Inc()

	srv := httptest.NewServer(NewRouter(reg, logger))
	defer srv.Close()

	t.Run("metrics", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), "dcache_kafka_unparsed_count 3")
		assert.Contains(t, string(body), `dcache_kafka_transfer_count{cell_domain="pool_aDomain",cell_name="pool_a",cell_type="pool",direction="read",status_code="0",storage_info="atlas:default@osm"} 1`)
	})

	t.Run("health", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("unknown path", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/ingest")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
