// Package charting is the view model behind the configurable chart: it
// owns the chart configuration and regenerates the series immediately on
// every field or dataset change, with the same staleness guard as the
// table view. Charts have no pagination, so there is nothing to debounce.
package charting

import (
	"context"
	"sync"

	"github.com/dataviz-pro/vizx/pkg/api"
	"go.uber.org/zap"
)

// State is the lifecycle of the chart view.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Config field keys accepted by SetField, mirroring the wire names.
const (
	FieldChartType = "chart_type"
	FieldXAxis     = "x_axis"
	FieldYAxis     = "y_axis"
	FieldGroupBy   = "group_by"
	FieldAggregate = "aggregate"
)

// Gateway is the slice of the API client the chart view needs.
type Gateway interface {
	FetchChart(ctx context.Context, datasetID string, cfg api.ChartConfig) (*api.ChartData, error)
}

// View drives one chart. Safe for concurrent use.
type View struct {
	mu      sync.Mutex
	gateway Gateway
	logger  *zap.Logger

	datasetID string
	cfg       api.ChartConfig

	state   State
	data    *api.ChartData
	lastErr error

	initialized bool
	closed      bool
	ctx         context.Context

	// Same staleness discipline as the table view: only the outcome of
	// the most recently issued regenerate may reach the display.
	seq     uint64
	applied uint64

	subs    map[int]func()
	nextSub int
}

// New builds an uninitialized chart view over one dataset.
func New(gateway Gateway, datasetID string, logger *zap.Logger) *View {
	return &View{
		gateway:   gateway,
		logger:    logger,
		datasetID: datasetID,
		cfg:       api.DefaultChartConfig(),
		state:     StateUninitialized,
		subs:      map[int]func(){},
	}
}

// Init performs the first-render transition and generates the initial
// series. Subsequent calls are no-ops.
func (v *View) Init(ctx context.Context) {
	v.mu.Lock()
	if v.initialized || v.closed {
		v.mu.Unlock()
		return
	}
	v.initialized = true
	v.ctx = ctx
	v.mu.Unlock()

	v.regenerate()
}

// Close drops every later completion. In-flight requests are not aborted.
func (v *View) Close() {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
}

// SetField replaces exactly one configuration field, leaving the others
// untouched, and regenerates immediately. Unknown keys are ignored.
func (v *View) SetField(key, value string) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	switch key {
	case FieldChartType:
		v.cfg.ChartType = api.ChartType(value)
	case FieldXAxis:
		v.cfg.XAxis = value
	case FieldYAxis:
		v.cfg.YAxis = value
	case FieldGroupBy:
		v.cfg.GroupBy = value
	case FieldAggregate:
		v.cfg.Aggregate = api.Aggregate(value)
	default:
		v.mu.Unlock()
		return
	}
	v.mu.Unlock()

	v.regenerate()
}

// SetDataset points the chart at another dataset and regenerates.
func (v *View) SetDataset(id string) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.datasetID = id
	v.mu.Unlock()

	v.regenerate()
}

// regenerate snapshots the configuration and issues a sequence-numbered
// fetch; nothing happens before Init.
func (v *View) regenerate() {
	v.mu.Lock()
	if v.closed || !v.initialized {
		v.mu.Unlock()
		return
	}
	cfg := v.cfg
	id := v.datasetID
	ctx := v.ctx
	v.seq++
	n := v.seq
	v.state = StateLoading
	subs := v.subscribers()
	v.mu.Unlock()

	notify(subs)

	go func() {
		data, err := v.gateway.FetchChart(ctx, id, cfg)
		v.apply(n, data, err)
	}()
}

func (v *View) apply(n uint64, data *api.ChartData, err error) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	if n <= v.applied {
		id := v.datasetID
		v.mu.Unlock()
		v.logger.Debug("Discarding stale chart response",
			zap.String("dataset_id", id),
			zap.Uint64("seq", n))
		return
	}
	v.applied = n
	if err != nil {
		v.state = StateFailed
		v.lastErr = err
	} else {
		v.state = StateReady
		v.lastErr = nil
		v.data = data
	}
	subs := v.subscribers()
	v.mu.Unlock()

	notify(subs)
}

// Config returns the current chart configuration.
func (v *View) Config() api.ChartConfig {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cfg
}

// State returns the current lifecycle state.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Data returns the displayed chart series, nil before the first success.
func (v *View) Data() *api.ChartData {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.data
}

// Err returns the failure behind StateFailed, nil otherwise.
func (v *View) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastErr
}

// Subscribe registers fn to run after every state change and returns its
// unsubscribe function.
func (v *View) Subscribe(fn func()) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := v.nextSub
	v.nextSub++
	v.subs[id] = fn
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.subs, id)
	}
}

func (v *View) subscribers() []func() {
	out := make([]func(), 0, len(v.subs))
	for _, fn := range v.subs {
		out = append(out, fn)
	}
	return out
}

func notify(subs []func()) {
	for _, fn := range subs {
		fn()
	}
}
