package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/elonfeng/reciperadar/internal/store"
	"github.com/elonfeng/reciperadar/pkg/alert"
	"github.com/elonfeng/reciperadar/pkg/capture"
	"github.com/elonfeng/reciperadar/pkg/source"
)

// notifyBatch bounds how many pending captures one pass announces.
const notifyBatch = 50

// Store is the part of the store the scheduler needs.
type Store interface {
	ListCaptures(ctx context.Context, opts store.ListOpts) ([]store.Capture, error)
	MarkNotified(ctx context.Context, id string) error
}

// Report summarises one collection pass.
type Report struct {
	Collected map[source.SourceType]int    `json:"collected"`
	Errors    map[source.SourceType]string `json:"errors,omitempty"`
	Detected  int                          `json:"detected"`
	Notified  int                          `json:"notified"`
}

// Scheduler runs periodic collection, capture and notification.
type Scheduler struct {
	store    Store
	sources  []source.Source
	engine   *capture.Engine
	alertMgr *alert.Manager
	spec     string
	loc      *time.Location

	mu sync.Mutex
}

// New creates a new scheduler. spec is a robfig/cron schedule such as
// "@every 15m".
func New(
	s Store,
	sources []source.Source,
	engine *capture.Engine,
	alertMgr *alert.Manager,
	spec string,
	loc *time.Location,
) *Scheduler {
	if spec == "" {
		spec = "@every 15m"
	}
	if loc == nil {
		loc = time.UTC
	}
	if alertMgr == nil {
		alertMgr = alert.NewManager(nil)
	}
	return &Scheduler{
		store:    s,
		sources:  sources,
		engine:   engine,
		alertMgr: alertMgr,
		spec:     spec,
		loc:      loc,
	}
}

// Run runs one pass immediately and then on schedule. Blocks until ctx is
// cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New(cron.WithLocation(s.loc))
	if _, err := c.AddFunc(s.spec, func() { s.tick(ctx) }); err != nil {
		return fmt.Errorf("schedule %q: %w", s.spec, err)
	}

	log.Info().Msg("scheduler: initial collection")
	s.tick(ctx)

	c.Start()
	log.Info().Str("schedule", s.spec).Msg("scheduler: running")

	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	log.Info().Msg("scheduler: stopped")
	return ctx.Err()
}

// tick skips a pass while the previous one is still running.
func (s *Scheduler) tick(ctx context.Context) {
	if !s.mu.TryLock() {
		log.Warn().Msg("scheduler: previous pass still running, skipping")
		return
	}
	defer s.mu.Unlock()
	s.pass(ctx, "")
}

// RunOnce collects from every source, or only from the named one, captures
// the posts and sends alerts for new recipes.
func (s *Scheduler) RunOnce(ctx context.Context, only source.SourceType) Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pass(ctx, only)
}

func (s *Scheduler) pass(ctx context.Context, only source.SourceType) Report {
	report := Report{
		Collected: make(map[source.SourceType]int),
		Errors:    make(map[source.SourceType]string),
	}

	var posts []source.Post
	for _, src := range s.sources {
		if only != "" && src.Name() != only {
			continue
		}
		collected, err := src.Collect(ctx)
		if err != nil {
			log.Error().Err(err).Str("source", string(src.Name())).Msg("collect")
			report.Errors[src.Name()] = err.Error()
			continue
		}
		log.Info().Str("source", string(src.Name())).Int("posts", len(collected)).Msg("collected")
		report.Collected[src.Name()] += len(collected)
		posts = append(posts, collected...)
	}

	detected := s.engine.Process(ctx, posts)
	report.Detected = len(detected)
	log.Info().Int("posts", len(posts)).Int("detected", len(detected)).Msg("captured")

	report.Notified = s.notify(ctx)
	return report
}

// notify announces detected captures that have not been announced yet.
// Reposts of the same recipe are sent once and all marked notified.
func (s *Scheduler) notify(ctx context.Context) int {
	if !s.alertMgr.HasNotifiers() {
		return 0
	}

	pending, err := s.store.ListCaptures(ctx, store.ListOpts{
		Detected:   true,
		Unnotified: true,
		Limit:      notifyBatch,
	})
	if err != nil {
		log.Error().Err(err).Msg("list pending captures")
		return 0
	}

	sent := 0
	for _, group := range capture.Group(pending) {
		n := alert.FromCaptures(group)
		if err := s.alertMgr.Broadcast(ctx, n); err != nil {
			log.Error().Err(err).Str("post", n.CaptureID).Msg("alert")
			continue
		}
		for _, c := range group {
			if err := s.store.MarkNotified(ctx, c.ID); err != nil {
				log.Error().Err(err).Str("post", c.ID).Msg("mark notified")
			}
		}
		sent++
		log.Info().Str("post", n.CaptureID).Float64("score", n.Score).Str("title", n.Title).Msg("alerted")
	}
	return sent
}
