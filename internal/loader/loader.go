// Package loader drives paged retrieval of one video list at a time.
//
// A Loader pages through a single active source.ListQuery. It guarantees at
// most one in-flight fetch, monotonic page progression, and that results of
// a superseded query (an older generation) never touch visible state.
package loader

import (
	"context"
	"sync"
	"time"

	"github.com/timmy/vodhub/internal/domain"
	"github.com/timmy/vodhub/internal/logger"
	"github.com/timmy/vodhub/internal/source"
)

const (
	// DefaultPageSize is used when Config.PageSize is unset.
	DefaultPageSize = 20
	// DefaultFetchTimeout bounds a single gateway call.
	DefaultFetchTimeout = 10 * time.Second
)

// Status is the loader's fetch state.
type Status int

const (
	StatusIdle Status = iota
	StatusLoadingFirstPage
	StatusLoadingMore
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoadingFirstPage:
		return "loading_first_page"
	case StatusLoadingMore:
		return "loading_more"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText renders the status by name in JSON responses.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Loading reports whether a fetch is in flight.
func (s Status) Loading() bool {
	return s == StatusLoadingFirstPage || s == StatusLoadingMore
}

// Outcome describes what a LoadNext call did.
type Outcome int

const (
	// OutcomeLoaded means a page was fetched and merged.
	OutcomeLoaded Outcome = iota
	// OutcomeBusy means a fetch was already in flight; nothing happened.
	OutcomeBusy
	// OutcomeExhausted means hasMore was false; nothing happened.
	OutcomeExhausted
	// OutcomeStale means the fetch completed after a reset and was discarded.
	OutcomeStale
	// OutcomeFailed means the gateway failed; status is now StatusError.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLoaded:
		return "loaded"
	case OutcomeBusy:
		return "busy"
	case OutcomeExhausted:
		return "exhausted"
	case OutcomeStale:
		return "stale"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the outcome by name in JSON responses.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Gateway is the slice of source.Gateway the loader needs.
type Gateway interface {
	FetchPage(ctx context.Context, req source.PageRequest) (*source.PageResult, error)
}

// Config holds loader settings.
type Config struct {
	PageSize     int
	FetchTimeout time.Duration
}

// State is a point-in-time copy of the loader's state.
type State struct {
	Query      source.ListQuery     `json:"query"`
	Items      []domain.VideoRecord `json:"items"`
	NextPage   int                  `json:"next_page"`
	HasMore    bool                 `json:"has_more"`
	Status     Status               `json:"status"`
	Generation uint64               `json:"generation"`
	Error      string               `json:"error,omitempty"`
}

// Loader owns the paged-fetch state for one query at a time.
// It is safe for concurrent use; the mutex is never held across a gateway call.
type Loader struct {
	gateway  Gateway
	pageSize int
	timeout  time.Duration

	mu         sync.Mutex
	activated  bool
	query      source.ListQuery
	items      []domain.VideoRecord
	nextPage   int
	hasMore    bool
	status     Status
	generation uint64
	lastErr    error

	background sync.WaitGroup
}

// ticket is a fetch admitted by begin: the generation and page it targets.
type ticket struct {
	generation uint64
	page       int
	query      source.ListQuery
}

// New creates a loader. The loader starts with an empty query at
// generation 0; call Reset or Activate before loading.
// Parameters:
//   - gateway: upstream page fetcher.
//   - cfg: page size and per-fetch timeout; zero values use defaults.
//
// Returns:
//   - *Loader: idle loader with hasMore true and nextPage 1.
func New(gateway Gateway, cfg Config) *Loader {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > source.MaxPageSize {
		pageSize = source.MaxPageSize
	}
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Loader{
		gateway:  gateway,
		pageSize: pageSize,
		timeout:  timeout,
		nextPage: 1,
		hasMore:  true,
	}
}

// PageSize returns the page size requested from the gateway.
func (l *Loader) PageSize() int {
	return l.pageSize
}

// Reset starts a new generation for query: items are cleared, nextPage is 1,
// hasMore is true and status is idle. A fetch still in flight for the
// previous generation becomes a no-op when it lands.
// Parameters:
//   - query: the list to page through from now on.
//
// Returns: none.
func (l *Loader) Reset(query source.ListQuery) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetLocked(query)
}

// Activate resets the loader only if query differs from the active one, or
// if the loader has never been activated. It reports whether a reset happened.
func (l *Loader) Activate(query source.ListQuery) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.activated && l.query == query {
		return false
	}
	l.resetLocked(query)
	return true
}

func (l *Loader) resetLocked(query source.ListQuery) {
	l.activated = true
	l.generation++
	l.query = query
	l.items = nil
	l.nextPage = 1
	l.hasMore = true
	l.status = StatusIdle
	l.lastErr = nil
}

// LoadNext fetches the next page and blocks until it is applied, discarded
// or failed. It is a no-op while a fetch is in flight or once hasMore is
// false. Gateway errors never escape: they set StatusError and leave items,
// nextPage and hasMore untouched, so calling LoadNext again retries the
// same page.
// Parameters:
//   - ctx: context for the gateway call; the loader adds its own timeout.
//
// Returns:
//   - Outcome: what happened to the call.
func (l *Loader) LoadNext(ctx context.Context) Outcome {
	t, outcome, ok := l.begin(false)
	if !ok {
		return outcome
	}
	return l.run(ctx, t)
}

// TriggerFromScrollSignal reacts to a host "near bottom" signal. The signal
// is ignored unless the loader is idle with more data to fetch; otherwise a
// fetch is started in the background. It reports whether a fetch started.
// A loader in StatusError ignores scroll signals until LoadNext retries.
func (l *Loader) TriggerFromScrollSignal(ctx context.Context) bool {
	t, _, ok := l.begin(true)
	if !ok {
		return false
	}
	l.background.Add(1)
	go func() {
		defer l.background.Done()
		l.run(ctx, t)
	}()
	return true
}

// Wait blocks until every fetch started by TriggerFromScrollSignal has finished.
func (l *Loader) Wait() {
	l.background.Wait()
}

// State returns a snapshot; the items slice is a copy.
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()

	items := make([]domain.VideoRecord, len(l.items))
	copy(items, l.items)

	st := State{
		Query:      l.query,
		Items:      items,
		NextPage:   l.nextPage,
		HasMore:    l.hasMore,
		Status:     l.status,
		Generation: l.generation,
	}
	if l.lastErr != nil {
		st.Error = l.lastErr.Error()
	}
	return st
}

// begin admits a fetch under the lock and moves status to a loading state.
// requireIdle additionally refuses StatusError (scroll signals).
func (l *Loader) begin(requireIdle bool) (ticket, Outcome, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.status.Loading() {
		return ticket{}, OutcomeBusy, false
	}
	if requireIdle && l.status != StatusIdle {
		return ticket{}, OutcomeBusy, false
	}
	if !l.hasMore {
		return ticket{}, OutcomeExhausted, false
	}

	t := ticket{generation: l.generation, page: l.nextPage, query: l.query}
	if t.page == 1 {
		l.status = StatusLoadingFirstPage
	} else {
		l.status = StatusLoadingMore
	}
	return t, 0, true
}

// run performs the gateway round-trip for t and applies the result if t is
// still the current generation.
func (l *Loader) run(ctx context.Context, t ticket) Outcome {
	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldComponent:  "loader",
		logger.FieldSource:     t.query.SourceID,
		logger.FieldGeneration: t.generation,
		logger.FieldPage:       t.page,
	})

	fetchCtx, cancel := context.WithTimeout(ctx, l.timeout)
	start := time.Now()
	res, err := l.gateway.FetchPage(fetchCtx, source.PageRequest{
		Query:    t.query,
		Page:     t.page,
		PageSize: l.pageSize,
	})
	cancel()
	elapsed := time.Since(start).Milliseconds()

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.generation != t.generation {
		logger.CtxDebug(ctx, "Discarding stale page: current_generation=%d", l.generation)
		return OutcomeStale
	}

	if err != nil {
		l.status = StatusError
		l.lastErr = err
		logger.With(logger.Fields{logger.FieldDurationMs: elapsed}).
			Warn(ctx, "Page fetch failed: query=%s, error=%v", t.query, err)
		return OutcomeFailed
	}

	if res == nil {
		res = &source.PageResult{RequestedPage: t.page, PageSize: l.pageSize}
	}
	if t.page == 1 {
		l.items = append([]domain.VideoRecord(nil), res.Items...)
	} else {
		l.items = append(l.items, res.Items...)
	}
	l.hasMore = len(res.Items) == l.pageSize
	l.nextPage = t.page + 1
	l.status = StatusIdle
	l.lastErr = nil

	logger.With(logger.Fields{
		logger.FieldDurationMs: elapsed,
		logger.FieldCount:      len(res.Items),
	}).Debug(ctx, "Page applied: total_items=%d, has_more=%t", len(l.items), l.hasMore)

	return OutcomeLoaded
}
