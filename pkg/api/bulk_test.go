package api_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/dataviz-pro/vizx/pkg/api"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsForDatasets(t *testing.T) {
	env := newTestEnv(t)
	env.router.HandleFunc("/datasets/{id}/stats", func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		if id == "broken" {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "boom"})
			return
		}
		writeJSON(w, http.StatusOK, api.DataStats{TotalRows: len(id), TotalColumns: 2})
	})

	got, err := env.client.StatsForDatasets(context.Background(), []string{"d1", "d22", "broken", "d333"})
	require.NoError(t, err)

	// Failures are skipped, not fatal.
	require.Len(t, got, 3)
	assert.Equal(t, 2, got["d1"].TotalRows)
	assert.Equal(t, 3, got["d22"].TotalRows)
	assert.Equal(t, 4, got["d333"].TotalRows)
	assert.NotContains(t, got, "broken")
}

func TestStatsForDatasetsEmpty(t *testing.T) {
	env := newTestEnv(t)
	got, err := env.client.StatsForDatasets(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
