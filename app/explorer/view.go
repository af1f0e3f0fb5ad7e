// Package explorer is the view model behind the paginated dataset table:
// it owns the query state, coalesces bursts of edits into single fetches
// through a debouncer, and guards the display against out-of-order
// responses.
package explorer

import (
	"context"
	"sync"

	"github.com/dataviz-pro/vizx/pkg/api"
	"github.com/dataviz-pro/vizx/pkg/debounce"
	"github.com/dataviz-pro/vizx/pkg/query"
	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"
)

// State is the lifecycle of the table view.
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

// Gateway is the slice of the API client the table view needs.
type Gateway interface {
	FetchPage(ctx context.Context, datasetID string, q query.Query) (*api.PageResult, error)
}

// View drives one dataset's table. All methods are safe for concurrent
// use; fetch completions re-enter through the same lock as mutations.
type View struct {
	mu      sync.Mutex
	gateway Gateway
	logger  *zap.Logger

	datasetID string
	q         query.Query
	draft     query.Filter

	state      State
	rows       []api.Row
	pagination api.Pagination
	lastErr    error

	deb         *debounce.Debouncer
	initialized bool
	closed      bool
	ctx         context.Context

	// seq numbers issued fetches; a completion is applied only when it is
	// newer than the last applied one, so a slow old response can never
	// overwrite a fresher page.
	seq     uint64
	applied uint64

	cache *xsync.Map[string, *api.PageResult]

	subs    map[int]func()
	nextSub int
}

// Option customizes a View.
type Option func(*View)

// WithDebounce replaces the debouncer, letting tests inject a manual
// clock or a shorter window.
func WithDebounce(opts ...debounce.Option) Option {
	return func(v *View) { v.deb = debounce.New(v.issueFetch, opts...) }
}

// New builds an uninitialized view over one dataset.
func New(gateway Gateway, datasetID string, logger *zap.Logger, opts ...Option) *View {
	v := &View{
		gateway:   gateway,
		logger:    logger,
		datasetID: datasetID,
		q:         query.New(),
		state:     StateUninitialized,
		cache:     xsync.NewMap[string, *api.PageResult](),
		subs:      map[int]func(){},
	}
	v.deb = debounce.New(v.issueFetch)
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Init performs the first-render transition: uninitialized -> loading,
// with an immediate fetch that bypasses the debounce window. Subsequent
// calls are no-ops.
func (v *View) Init(ctx context.Context) {
	v.mu.Lock()
	if v.initialized || v.closed {
		v.mu.Unlock()
		return
	}
	v.initialized = true
	v.ctx = ctx
	v.state = StateLoading
	subs := v.subscribers()
	v.mu.Unlock()

	notify(subs)
	v.issueFetch()
}

// Close tears the view down: the pending debounce timer is cancelled and
// every later completion is dropped. In-flight requests are not aborted.
func (v *View) Close() {
	v.deb.Stop()
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
}

// mutate applies fn to the query under lock and schedules a debounced
// fetch. Mutations before Init only edit state; nothing is fetched.
func (v *View) mutate(fn func(q *query.Query)) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	fn(&v.q)
	initialized := v.initialized
	var subs []func()
	if initialized {
		v.state = StateLoading
		subs = v.subscribers()
	}
	v.mu.Unlock()

	notify(subs)
	if initialized {
		v.deb.Trigger()
	}
}

// UpdateSort sorts by column, toggling direction on repeat.
func (v *View) UpdateSort(column string) {
	v.mutate(func(q *query.Query) { q.UpdateSort(column) })
}

// UpdateSearch replaces the free-text search term.
func (v *View) UpdateSearch(text string) {
	v.mutate(func(q *query.Query) { q.UpdateSearch(text) })
}

// UpdatePage moves to page n. Callers clamp n to the pagination range.
func (v *View) UpdatePage(n int) {
	v.mutate(func(q *query.Query) { q.UpdatePage(n) })
}

// UpdateLimit changes the page size.
func (v *View) UpdateLimit(n int) {
	v.mutate(func(q *query.Query) { q.UpdateLimit(n) })
}

// SetDraft stores the in-progress filter entry.
func (v *View) SetDraft(f query.Filter) {
	v.mu.Lock()
	v.draft = f
	v.mu.Unlock()
}

// Draft returns the in-progress filter entry.
func (v *View) Draft() query.Filter {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.draft
}

// AddFilter appends f to the query and clears the entry draft. A filter
// with an empty column or value is rejected outright: no fetch, and the
// draft stays put for the user to finish.
func (v *View) AddFilter(f query.Filter) {
	if f.Column == "" || f.Value == "" {
		return
	}
	v.mu.Lock()
	v.draft = query.Filter{}
	v.mu.Unlock()
	v.mutate(func(q *query.Query) { q.AddFilter(f) })
}

// CommitDraft adds the current draft as a filter.
func (v *View) CommitDraft() {
	v.AddFilter(v.Draft())
}

// RemoveFilter drops the filter at index i.
func (v *View) RemoveFilter(i int) {
	v.mutate(func(q *query.Query) { q.RemoveFilter(i) })
}

// issueFetch snapshots the query, assigns it a sequence number and
// resolves it from the page cache or the network.
func (v *View) issueFetch() {
	v.mu.Lock()
	if v.closed || !v.initialized {
		v.mu.Unlock()
		return
	}
	snap := v.q.Clone()
	v.seq++
	n := v.seq
	ctx := v.ctx
	v.mu.Unlock()

	key := snap.Fingerprint()
	if cached, ok := v.cache.Load(key); ok {
		v.apply(n, cached, nil)
		return
	}

	go func() {
		res, err := v.gateway.FetchPage(ctx, v.datasetID, snap)
		if err == nil {
			v.cache.Store(key, res)
		}
		v.apply(n, res, err)
	}()
}

// apply installs a fetch outcome unless the view has been closed or a
// newer outcome was already applied.
func (v *View) apply(n uint64, res *api.PageResult, err error) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	if n <= v.applied {
		v.mu.Unlock()
		v.logger.Debug("Discarding stale page response",
			zap.String("dataset_id", v.datasetID),
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
		v.rows = res.Data
		v.pagination = res.Pagination
	}
	subs := v.subscribers()
	v.mu.Unlock()

	notify(subs)
}

// State returns the current lifecycle state.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Rows returns the currently displayed page of records.
func (v *View) Rows() []api.Row {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.rows
}

// Pagination returns the page bookkeeping of the displayed page.
func (v *View) Pagination() api.Pagination {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pagination
}

// Err returns the failure behind StateFailed, nil otherwise.
func (v *View) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastErr
}

// Query returns a snapshot of the current view state.
func (v *View) Query() query.Query {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.q.Clone()
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

// subscribers snapshots the listener set; callers hold v.mu.
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
