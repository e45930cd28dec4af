package catalog

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"animehub/pkg/models"
)

// DefaultDebounce is how long input must stay idle before a search runs.
const DefaultDebounce = 500 * time.Millisecond

// Result is one delivered search outcome.
type Result struct {
	Generation uint64
	Query      string
	Items      []models.Anime
}

// Searcher debounces free-text input and delivers only the newest result.
//
// Every Query bumps a generation counter and cancels whatever request the
// previous generation had in flight. A response is delivered only while its
// generation is still the latest and newer than anything already delivered,
// so a slow stale response can never overwrite a fresher one.
type Searcher struct {
	catalog *Catalog
	delay   time.Duration
	deliver func(Result)
	logger  *zap.Logger

	ctx    context.Context
	stop   context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	gen    uint64
	timer  *time.Timer
	cancel context.CancelFunc // in-flight request of the latest generation
	closed bool

	deliverMu sync.Mutex
	delivered uint64
}

// NewSearcher returns a Searcher that calls deliver from its own goroutines,
// one result at a time.
func NewSearcher(c *Catalog, delay time.Duration, deliver func(Result), logger *zap.Logger) *Searcher {
	if delay < 0 {
		delay = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, stop := context.WithCancel(context.Background())
	return &Searcher{
		catalog: c,
		delay:   delay,
		deliver: deliver,
		logger:  logger.Named("search"),
		ctx:     ctx,
		stop:    stop,
	}
}

// Query schedules a search for q and returns its generation. Blank input
// cancels any pending search and loads trending right away.
func (s *Searcher) Query(q string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.gen
	}

	s.gen++
	gen := s.gen
	s.supersedeLocked()

	delay := s.delay
	if strings.TrimSpace(q) == "" {
		delay = 0
	}

	s.wg.Add(1)
	s.timer = time.AfterFunc(delay, func() { s.run(gen, q) })
	return gen
}

// supersedeLocked drops the pending timer and cancels the in-flight request.
func (s *Searcher) supersedeLocked() {
	if s.timer != nil && s.timer.Stop() {
		// the timer func will never run, so it will never call Done
		s.wg.Done()
	}
	s.timer = nil
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Searcher) run(gen uint64, q string) {
	defer s.wg.Done()

	s.mu.Lock()
	if gen != s.gen || s.closed {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	items := s.catalog.Search(ctx, q)

	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	current := gen == s.gen && !s.closed
	s.mu.Unlock()

	if !current || gen <= s.delivered {
		s.logger.Debug("stale_result_dropped", zap.Uint64("generation", gen), zap.String("query", q))
		return
	}
	s.delivered = gen
	s.deliver(Result{Generation: gen, Query: q, Items: items})
}

// Close cancels pending and in-flight searches and waits for them to finish.
// No result is delivered after Close returns.
func (s *Searcher) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.supersedeLocked()
	s.stop()
	s.mu.Unlock()

	s.wg.Wait()
}
