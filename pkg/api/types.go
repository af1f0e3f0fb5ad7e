package api

import "time"

// Role is the access-control role carried on a user profile. Admins see
// and may delete every dataset; members only their own.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// User is the profile returned by the auth endpoints.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	IsActive  bool      `json:"is_active"`
}

// AuthToken is the login/register response: a bearer credential plus the
// authenticated profile.
type AuthToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// DatasetSummary describes one uploaded dataset.
type DatasetSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Filename    string    `json:"filename"`
	FileSize    int64     `json:"file_size"`
	Columns     []string  `json:"columns"`
	RowCount    int       `json:"row_count"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CanDelete reports whether u may delete d: admins always, members only
// when they own the dataset.
func (d DatasetSummary) CanDelete(u User) bool {
	return u.Role == RoleAdmin || d.UserID == u.ID
}

// DataStats is the column-level summary for a dataset.
type DataStats struct {
	TotalRows          int               `json:"total_rows"`
	TotalColumns       int               `json:"total_columns"`
	NumericColumns     []string          `json:"numeric_columns"`
	CategoricalColumns []string          `json:"categorical_columns"`
	MissingValues      map[string]int    `json:"missing_values"`
	DataTypes          map[string]string `json:"data_types"`
}

// DatasetInsights carries the server-detected data domain, its generated
// insight values and suggested chart configurations.
type DatasetInsights struct {
	Domain          string           `json:"domain"`
	Insights        map[string]any   `json:"insights"`
	SuggestedCharts []map[string]any `json:"suggested_charts"`
}

// Row is one record of a dataset page, column name to cell value.
type Row map[string]any

// Pagination is the server's page bookkeeping for a data query.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// PageResult is one page of dataset rows plus pagination metadata.
type PageResult struct {
	Data       []Row      `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// ChartType selects the visualization.
type ChartType string

const (
	ChartBar     ChartType = "bar"
	ChartLine    ChartType = "line"
	ChartPie     ChartType = "pie"
	ChartScatter ChartType = "scatter"
)

// ChartTypes lists the selectable chart types in display order.
var ChartTypes = []ChartType{ChartBar, ChartLine, ChartPie, ChartScatter}

// NeedsYAxis reports whether the chart type asks the user for a Y axis.
// Pie charts are driven by X-axis value counts alone; the config may still
// carry a y_axis value, the server ignores it.
func (t ChartType) NeedsYAxis() bool { return t != ChartPie }

// Aggregate is the server-side aggregation applied to the Y axis.
type Aggregate string

const (
	AggCount Aggregate = "count"
	AggSum   Aggregate = "sum"
	AggAvg   Aggregate = "avg"
	AggMin   Aggregate = "min"
	AggMax   Aggregate = "max"
)

// Aggregates lists the selectable aggregations in display order.
var Aggregates = []Aggregate{AggCount, AggSum, AggAvg, AggMin, AggMax}

// ChartConfig is the request body for chart generation. An empty YAxis
// asks the server for a count aggregate.
type ChartConfig struct {
	ChartType ChartType `json:"chart_type"`
	XAxis     string    `json:"x_axis"`
	YAxis     string    `json:"y_axis,omitempty"`
	GroupBy   string    `json:"group_by,omitempty"`
	Aggregate Aggregate `json:"aggregate"`
}

// DefaultChartConfig is the configuration a freshly mounted chart view
// starts with.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{ChartType: ChartBar, Aggregate: AggCount}
}

// ChartDataset is one series of a chart payload, shaped for the charting
// library on the display side.
type ChartDataset struct {
	Label           string    `json:"label,omitempty"`
	Data            []float64 `json:"data"`
	BackgroundColor any       `json:"backgroundColor,omitempty"`
	BorderColor     any       `json:"borderColor,omitempty"`
	BorderWidth     int       `json:"borderWidth,omitempty"`
	Fill            bool      `json:"fill,omitempty"`
}

// ChartData is the generated chart series payload.
type ChartData struct {
	Labels   []any          `json:"labels"`
	Datasets []ChartDataset `json:"datasets"`
}

// HealthStatus is the response of the health probe.
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
