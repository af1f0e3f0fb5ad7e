package api

import "fmt"

// API paths, kept in one place so the client and its tests agree.
const (
	healthPath   = "/health"
	registerPath = "/auth/register"
	loginPath    = "/auth/login"
	mePath       = "/auth/me"
	datasetsPath = "/datasets"
)

func datasetPath(id string) string         { return fmt.Sprintf("%s/%s", datasetsPath, id) }
func datasetDataPath(id string) string     { return datasetPath(id) + "/data" }
func datasetChartPath(id string) string    { return datasetPath(id) + "/chart" }
func datasetStatsPath(id string) string    { return datasetPath(id) + "/stats" }
func datasetInsightsPath(id string) string { return datasetPath(id) + "/insights" }
