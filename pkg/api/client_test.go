package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dataviz-pro/vizx/pkg/api"
	"github.com/dataviz-pro/vizx/pkg/localstore"
	"github.com/dataviz-pro/vizx/pkg/query"
	"github.com/dataviz-pro/vizx/pkg/session"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testEnv wires a client against a mux-routed fake API with a real
// session manager on an in-memory store.
type testEnv struct {
	server       *httptest.Server
	router       *mux.Router
	sessions     *session.Manager
	client       *api.Client
	unauthorized int
	lastAuth     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		router:   mux.NewRouter(),
		sessions: session.NewManager(localstore.NewMemory(), zap.NewNop()),
	}
	env.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			env.lastAuth = r.Header.Get("Authorization")
			next.ServeHTTP(w, r)
		})
	})
	env.server = httptest.NewServer(env.router)
	t.Cleanup(env.server.Close)

	env.client = api.New(api.Opts{
		BaseURL:        env.server.URL,
		Sessions:       env.sessions,
		Logger:         zap.NewNop(),
		OnUnauthorized: func() { env.unauthorized++ },
	})
	return env
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func TestBearerAttachment(t *testing.T) {
	env := newTestEnv(t)
	env.router.HandleFunc("/datasets", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []api.DatasetSummary{})
	})

	// No session yet: no Authorization header.
	_, err := env.client.ListDatasets(context.Background())
	require.NoError(t, err)
	assert.Empty(t, env.lastAuth)

	require.NoError(t, env.sessions.Set(session.Session{Token: "tok-1"}))
	_, err = env.client.ListDatasets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", env.lastAuth)
}

func TestSessionExpiryClearsStateAndRedirects(t *testing.T) {
	env := newTestEnv(t)
	env.router.HandleFunc("/datasets", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
	})
	env.router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, api.HealthStatus{Status: "healthy"})
	})
	require.NoError(t, env.sessions.Set(session.Session{Token: "expired"}))

	_, err := env.client.ListDatasets(context.Background())
	require.ErrorIs(t, err, api.ErrUnauthorized)
	assert.Equal(t, 1, env.unauthorized)

	_, ok := env.sessions.Get()
	assert.False(t, ok)

	// Follow-up requests carry no bearer token until the next login.
	_, err = env.client.Health(context.Background())
	require.NoError(t, err)
	assert.Empty(t, env.lastAuth)
}

func TestLogin401IsAuthFailureNotExpiry(t *testing.T) {
	env := newTestEnv(t)
	env.router.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect email or password"})
	})
	require.NoError(t, env.sessions.Set(session.Session{Token: "still-valid"}))

	_, err := env.client.Login(context.Background(), "a@b.c", "wrong")
	require.Error(t, err)
	assert.NotErrorIs(t, err, api.ErrUnauthorized)
	assert.Contains(t, err.Error(), "Incorrect email or password")

	// The existing session is untouched and no redirect fired.
	_, ok := env.sessions.Get()
	assert.True(t, ok)
	assert.Equal(t, 0, env.unauthorized)
}

func TestLoginSuccess(t *testing.T) {
	env := newTestEnv(t)
	env.router.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.c", body["email"])
		writeJSON(w, http.StatusOK, api.AuthToken{
			AccessToken: "tok-9",
			TokenType:   "bearer",
			User:        api.User{ID: "u1", Email: "a@b.c", Role: api.RoleMember},
		})
	})

	tok, err := env.client.Login(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok-9", tok.AccessToken)
	assert.Equal(t, "u1", tok.User.ID)
}

func TestNotFoundIsNavigationFailure(t *testing.T) {
	env := newTestEnv(t)
	env.router.HandleFunc("/datasets/{id}/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Dataset not found"})
	})

	_, err := env.client.Stats(context.Background(), "missing")
	require.ErrorIs(t, err, api.ErrNotFound)
	assert.Contains(t, err.Error(), "Dataset not found")
}

func TestServerDetailPreferredOverFallback(t *testing.T) {
	env := newTestEnv(t)
	env.router.HandleFunc("/datasets/{id}/chart", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Column 'age' not found in data"})
	})

	_, err := env.client.FetchChart(context.Background(), "d1", api.DefaultChartConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Column 'age' not found in data")
}

func TestFallbackWhenNoDetail(t *testing.T) {
	env := newTestEnv(t)
	env.router.HandleFunc("/datasets", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := env.client.ListDatasets(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to load datasets")
	assert.Contains(t, err.Error(), "502")
}

func TestFetchPageRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	var gotQuery query.Query
	env.router.HandleFunc("/datasets/{id}/data", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "d1", mux.Vars(r)["id"])
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotQuery))
		writeJSON(w, http.StatusOK, api.PageResult{
			Data:       []api.Row{{"name": "alice", "age": float64(31)}},
			Pagination: api.Pagination{Page: 1, Limit: 10, Total: 1, Pages: 1},
		})
	}).Methods(http.MethodPost)

	q := query.New()
	q.AddFilter(query.Filter{Column: "age", Operator: query.OpGt, Value: "30"})
	res, err := env.client.FetchPage(context.Background(), "d1", q)
	require.NoError(t, err)

	require.Len(t, res.Data, 1)
	assert.Equal(t, "alice", res.Data[0]["name"])
	assert.Equal(t, 1, res.Pagination.Pages)

	// The wire body is the exact query snapshot.
	assert.Equal(t, 1, gotQuery.Page)
	require.Len(t, gotQuery.Filters, 1)
	assert.Equal(t, query.OpGt, gotQuery.Filters[0].Operator)
}

func TestFetchChartRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	var gotCfg api.ChartConfig
	env.router.HandleFunc("/datasets/{id}/chart", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotCfg))
		writeJSON(w, http.StatusOK, api.ChartData{
			Labels:   []any{"x", "y"},
			Datasets: []api.ChartDataset{{Data: []float64{1, 2}}},
		})
	}).Methods(http.MethodPost)

	cfg := api.ChartConfig{ChartType: api.ChartPie, XAxis: "city", Aggregate: api.AggCount}
	data, err := env.client.FetchChart(context.Background(), "d1", cfg)
	require.NoError(t, err)
	assert.Len(t, data.Labels, 2)
	assert.Equal(t, api.ChartPie, gotCfg.ChartType)
	assert.Equal(t, "city", gotCfg.XAxis)
}

func TestDeleteDataset(t *testing.T) {
	env := newTestEnv(t)
	deleted := ""
	env.router.HandleFunc("/datasets/{id}", func(w http.ResponseWriter, r *http.Request) {
		deleted = mux.Vars(r)["id"]
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodDelete)

	require.NoError(t, env.client.DeleteDataset(context.Background(), "d7"))
	assert.Equal(t, "d7", deleted)
}

func TestCanDelete(t *testing.T) {
	admin := api.User{ID: "u1", Role: api.RoleAdmin}
	owner := api.User{ID: "u2", Role: api.RoleMember}
	other := api.User{ID: "u3", Role: api.RoleMember}
	d := api.DatasetSummary{ID: "d1", UserID: "u2"}

	assert.True(t, d.CanDelete(admin))
	assert.True(t, d.CanDelete(owner))
	assert.False(t, d.CanDelete(other))
}
