package api_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/dataviz-pro/vizx/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadDatasetMultipart(t *testing.T) {
	env := newTestEnv(t)
	env.router.HandleFunc("/datasets", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "Sales 2025", r.FormValue("name"))
		assert.Equal(t, "quarterly numbers", r.FormValue("description"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "sales.csv", header.Filename)
		content, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "a,b\n1,2\n", string(content))

		writeJSON(w, http.StatusOK, api.DatasetSummary{ID: "d1", Name: "Sales 2025", Filename: "sales.csv"})
	}).Methods(http.MethodPost)

	ds, err := env.client.UploadDataset(context.Background(),
		strings.NewReader("a,b\n1,2\n"), "sales.csv", "Sales 2025", "quarterly numbers")
	require.NoError(t, err)
	assert.Equal(t, "d1", ds.ID)
}

func TestUploadValidationNeverReachesNetwork(t *testing.T) {
	env := newTestEnv(t)
	hit := false
	env.router.HandleFunc("/datasets", func(w http.ResponseWriter, r *http.Request) {
		hit = true
		w.WriteHeader(http.StatusOK)
	})

	_, err := env.client.UploadDataset(context.Background(), strings.NewReader("x"), "report.pdf", "Report", "")
	require.ErrorIs(t, err, api.ErrInvalidUpload)

	_, err = env.client.UploadDataset(context.Background(), strings.NewReader("x"), "report.csv", "   ", "")
	require.ErrorIs(t, err, api.ErrInvalidUpload)

	assert.False(t, hit)
}

func TestValidateUploadExtensions(t *testing.T) {
	assert.NoError(t, api.ValidateUpload("data.csv", "n"))
	assert.NoError(t, api.ValidateUpload("DATA.XLSX", "n"))
	assert.NoError(t, api.ValidateUpload("old.xls", "n"))
	assert.Error(t, api.ValidateUpload("data.json", "n"))
	assert.Error(t, api.ValidateUpload("csv", "n"))
}
