package table

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

// State is the lifecycle state of a table controller.
type State string

const (
	StateIdle    State = "IDLE"
	StateLoading State = "LOADING"
	StateReady   State = "READY"
	StateError   State = "ERROR"
)

// ErrStaleResponse marks a fetch whose response arrived after a newer request
// was issued for the same controller. The response is discarded; the caller
// should not surface this to the user.
var ErrStaleResponse = errors.New("stale response discarded")

// SortSpec is a client-side display ordering over the loaded page.
type SortSpec struct {
	Column     string `json:"column"`
	Descending bool   `json:"descending"`
}

// Params are the fetch parameters for one page request.
type Params struct {
	Page     int
	PageSize int
	Search   string
	Sort     *SortSpec
}

// ParamPatch merges into the controller's current params. Nil fields are left
// untouched.
type ParamPatch struct {
	Page     *int
	PageSize *int
	Search   *string
	Sort     *SortSpec
}

// PageResult is the decoded payload of one list fetch.
type PageResult[R Record] struct {
	Records []R
	Total   int64
	Page    int
	Limit   int
}

// Fetcher issues the list request against the upstream REST collaborator.
type Fetcher[R Record] func(ctx context.Context, p Params) (*PageResult[R], error)

// Controller owns the canonical record set for one admin table: it fetches
// pages on parameter changes, discards superseded responses, and exposes
// selection, client-side sort and client-side filter over the loaded page.
//
// All methods are safe for concurrent use; the canonical set and selection
// belong to exactly one controller instance.
type Controller[R Record] struct {
	fetch       Fetcher[R]
	timeout     time.Duration
	windowDelta int
	compare     func(a, b R, column string) int
	filterText  func(R) string

	mu        sync.Mutex
	params    Params
	state     State
	lastErr   string
	seq       uint64
	records   []R
	total     int64
	index     map[string]int
	selection map[string]struct{}
	filter    string
}

// Option configures a Controller.
type Option[R Record] func(*Controller[R])

// WithTimeout bounds each fetch; on expiry the controller enters StateError.
func WithTimeout[R Record](d time.Duration) Option[R] {
	return func(c *Controller[R]) { c.timeout = d }
}

// WithWindowDelta sets how many pages around the current page the page window
// includes.
func WithWindowDelta[R Record](delta int) Option[R] {
	return func(c *Controller[R]) { c.windowDelta = delta }
}

// WithComparer enables SortBy. compare reports a negative, zero or positive
// value ordering a before, equal to, or after b for the given column.
func WithComparer[R Record](compare func(a, b R, column string) int) Option[R] {
	return func(c *Controller[R]) { c.compare = compare }
}

// WithFilterText supplies the derived string GlobalFilter matches against,
// e.g. a concatenated first+last name.
func WithFilterText[R Record](derive func(R) string) Option[R] {
	return func(c *Controller[R]) { c.filterText = derive }
}

func NewController[R Record](fetch Fetcher[R], defaults Params, opts ...Option[R]) *Controller[R] {
	c := &Controller[R]{
		fetch:       fetch,
		timeout:     20 * time.Second,
		windowDelta: 2,
		params:      defaults,
		state:       StateIdle,
		index:       make(map[string]int),
		selection:   make(map[string]struct{}),
	}
	if c.params.Page < 1 {
		c.params.Page = 1
	}
	if c.params.PageSize < 1 {
		c.params.PageSize = 20
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetParams merges the patch into the current fetch parameters, clears the
// selection (the record set is about to change, so held keys lose meaning),
// and issues a fetch. A response belonging to a superseded request is dropped
// with ErrStaleResponse: last write wins, keyed by a monotonic sequence.
func (c *Controller[R]) SetParams(ctx context.Context, patch ParamPatch) error {
	c.mu.Lock()
	if patch.Page != nil {
		c.params.Page = *patch.Page
	}
	if patch.PageSize != nil {
		c.params.PageSize = *patch.PageSize
	}
	if patch.Search != nil {
		c.params.Search = *patch.Search
	}
	if patch.Sort != nil {
		c.params.Sort = patch.Sort
	}
	c.selection = make(map[string]struct{})
	c.state = StateLoading
	c.seq++
	seq := c.seq
	p := c.params
	c.mu.Unlock()

	return c.fetchPage(ctx, seq, p)
}

// Refresh re-issues the fetch with the current parameters. This is the retry
// path out of StateError.
func (c *Controller[R]) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.state = StateLoading
	c.seq++
	seq := c.seq
	p := c.params
	c.mu.Unlock()

	return c.fetchPage(ctx, seq, p)
}

func (c *Controller[R]) fetchPage(ctx context.Context, seq uint64, p Params) error {
	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.fetch(fetchCtx, p)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq < c.seq {
		// A newer request was issued while this one was in flight.
		return ErrStaleResponse
	}

	if err != nil {
		// Keep the previous canonical set: stale-but-valid beats a blank table.
		c.state = StateError
		c.lastErr = err.Error()
		return err
	}

	c.records = res.Records
	c.total = res.Total
	c.index = make(map[string]int, len(res.Records))
	for i, r := range res.Records {
		c.index[r.Key()] = i
	}
	c.state = StateReady
	c.lastErr = ""
	return nil
}

// State returns the controller state and, in StateError, the human-readable
// failure message.
func (c *Controller[R]) State() (State, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.lastErr
}

// Params returns the current fetch parameters.
func (c *Controller[R]) Params() Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// Records returns a copy of the canonical record set in server order.
func (c *Controller[R]) Records() []R {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]R, len(c.records))
	copy(out, c.records)
	return out
}

// Total returns the server-side count across all pages.
func (c *Controller[R]) Total() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Get returns the canonical record with the given key, if loaded.
func (c *Controller[R]) Get(key string) (R, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero R
	i, ok := c.index[key]
	if !ok {
		return zero, false
	}
	return c.records[i], true
}

// Mutate applies fn to the canonical record with the given key, in place.
// Returns false if the key is not loaded. Used by the optimistic applier;
// a mutation of one record never touches any other.
func (c *Controller[R]) Mutate(key string, fn func(*R)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.index[key]
	if !ok {
		return false
	}
	fn(&c.records[i])
	return true
}

// ToggleSelect flips the selection state of one key. Keys not present in the
// loaded page are ignored.
func (c *Controller[R]) ToggleSelect(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, loaded := c.index[key]; !loaded {
		return
	}
	if _, ok := c.selection[key]; ok {
		delete(c.selection, key)
	} else {
		c.selection[key] = struct{}{}
	}
}

// ToggleSelectAll selects every key on the loaded page, or clears the
// selection if every loaded key is already selected. Select-all is
// page-scoped, never global.
func (c *Controller[R]) ToggleSelectAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.selection) == len(c.records) && len(c.records) > 0 {
		c.selection = make(map[string]struct{})
		return
	}
	c.selection = make(map[string]struct{}, len(c.records))
	for _, r := range c.records {
		c.selection[r.Key()] = struct{}{}
	}
}

// ClearSelection empties the selection set.
func (c *Controller[R]) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection = make(map[string]struct{})
}

// Selected returns the selected keys in page order.
func (c *Controller[R]) Selected() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.selection))
	for _, r := range c.records {
		if _, ok := c.selection[r.Key()]; ok {
			keys = append(keys, r.Key())
		}
	}
	return keys
}

// SortBy sets the client-side display order over the loaded page. The backend
// owns cross-page ordering; this only rearranges what is already loaded.
func (c *Controller[R]) SortBy(column string, descending bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params.Sort = &SortSpec{Column: column, Descending: descending}
}

// GlobalFilter sets a case-insensitive substring filter over the derived text
// of each loaded row. It applies only to the loaded page; unloaded pages are
// not searched.
func (c *Controller[R]) GlobalFilter(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = term
}

// View is the display-ready snapshot of a controller.
type View[R Record] struct {
	Rows       []R           `json:"rows"`
	Window     []WindowEntry `json:"pageWindow"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	Total      int64         `json:"total"`
	TotalPages int           `json:"totalPages"`
	State      State         `json:"state"`
	Error      string        `json:"error,omitempty"`
	Selected   []string      `json:"selected,omitempty"`
}

// View assembles display rows (canonical order, then stable client sort, then
// client filter) together with the page window and pagination metadata.
func (c *Controller[R]) View() View[R] {
	c.mu.Lock()
	rows := make([]R, len(c.records))
	copy(rows, c.records)
	sortSpec := c.params.Sort
	filter := c.filter
	page := c.params.Page
	limit := c.params.PageSize
	total := c.total
	state := c.state
	lastErr := c.lastErr
	selection := make(map[string]struct{}, len(c.selection))
	for k := range c.selection {
		selection[k] = struct{}{}
	}
	c.mu.Unlock()

	if sortSpec != nil && c.compare != nil {
		sort.SliceStable(rows, func(i, j int) bool {
			cmp := c.compare(rows[i], rows[j], sortSpec.Column)
			if sortSpec.Descending {
				return cmp > 0
			}
			return cmp < 0
		})
	}

	if filter != "" && c.filterText != nil {
		term := strings.ToLower(filter)
		kept := rows[:0]
		for _, r := range rows {
			if strings.Contains(strings.ToLower(c.filterText(r)), term) {
				kept = append(kept, r)
			}
		}
		rows = kept
	}

	totalPages := 0
	if limit > 0 {
		totalPages = int(total) / limit
		if int(total)%limit > 0 {
			totalPages++
		}
	}

	selected := make([]string, 0, len(selection))
	for _, r := range rows {
		if _, ok := selection[r.Key()]; ok {
			selected = append(selected, r.Key())
		}
	}

	return View[R]{
		Rows:       rows,
		Window:     ComputeWindow(totalPages, page, c.windowDelta),
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		State:      state,
		Error:      lastErr,
		Selected:   selected,
	}
}
