package tracker

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tnicklin/nephalem/battlenet"
	"github.com/tnicklin/nephalem/logger"
	"github.com/tnicklin/nephalem/metrics"
	"github.com/tnicklin/nephalem/store"
)

var _ Poller = (*DefaultPoller)(nil)

// DefaultPoller refreshes every tracked battle tag on an interval.
type DefaultPoller struct {
	client        CareerSource
	store         store.Store
	notify        NotifyFunc
	logger        logger.Logger
	interval      time.Duration
	maxConcurrent int
	timeout       time.Duration
	rng           *rand.Rand

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Params holds configuration for creating a new Poller.
type Params struct {
	Config Config
	Client CareerSource
	Store  store.Store
	Notify NotifyFunc
	Logger logger.Logger
}

// New creates a new DefaultPoller with the given parameters.
func New(p Params) *DefaultPoller {
	p.Config.Defaults()

	log := p.Logger
	if log == nil {
		log = logger.NewNop()
	}

	return &DefaultPoller{
		client:        p.Client,
		store:         p.Store,
		notify:        p.Notify,
		logger:        log,
		interval:      p.Config.Interval,
		maxConcurrent: p.Config.MaxConcurrent,
		timeout:       p.Config.Timeout,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start runs a refresh immediately and then once per interval until ctx is done or Stop is called.
func (p *DefaultPoller) Start(ctx context.Context) error {
	if p.client == nil {
		return errors.New("tracker: client is required")
	}
	if p.store == nil {
		return errors.New("tracker: store is required")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return errors.New("tracker: already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(runCtx, p.done)
	return nil
}

// Stop cancels the loop and waits for an in-flight refresh to finish.
func (p *DefaultPoller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *DefaultPoller) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		if err := p.RefreshAll(ctx); err != nil && ctx.Err() == nil {
			p.logger.ErrorW("tracker: refresh failed", "error", err)
		}

		select {
		case <-time.After(p.nextWait()):
		case <-ctx.Done():
			return
		}
	}
}

func (p *DefaultPoller) nextWait() time.Duration {
	wait := p.interval
	if jitterWindow := p.interval / 10; jitterWindow > 0 {
		p.mu.Lock()
		wait += time.Duration(p.rng.Int63n(int64(jitterWindow)))
		p.mu.Unlock()
	}
	return wait
}

// RefreshAll refreshes every tracked battle tag with bounded concurrency.
// Per-tag failures are logged and counted; only a failure to list the tracked tags is returned.
func (p *DefaultPoller) RefreshAll(ctx context.Context) error {
	tracked, err := p.store.ListTrackedBattleTags(ctx)
	if err != nil {
		return err
	}
	if len(tracked) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxConcurrent)
	for _, t := range tracked {
		g.Go(func() error {
			p.refresh(gctx, t)
			return nil
		})
	}
	return g.Wait()
}

func (p *DefaultPoller) refresh(ctx context.Context, tracked store.TrackedBattleTag) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	tag := tracked.BattleTag
	career, err := p.client.GetCareerByBattleTag(ctx, tag)
	if err != nil {
		if errors.Is(err, battlenet.ErrNotFound) {
			p.logger.WarnW("tracker: battle tag not found", "battle_tag", tag)
			metrics.TrackerRefreshes.WithLabelValues("not_found").Inc()
			return
		}
		p.logger.ErrorW("tracker: career lookup failed", "battle_tag", tag, "error", err)
		metrics.TrackerRefreshes.WithLabelValues("error").Inc()
		return
	}

	previous, err := p.store.ListHeroSnapshots(ctx, tag)
	if err != nil {
		p.logger.ErrorW("tracker: load snapshots failed", "battle_tag", tag, "error", err)
		metrics.TrackerRefreshes.WithLabelValues("error").Inc()
		return
	}

	current := make([]store.HeroSnapshot, 0, len(career.Heroes))
	for _, h := range career.Heroes {
		current = append(current, store.SnapshotOf(h))
	}

	// The first refresh only records what exists.
	var events []Event
	if !tracked.RefreshedAt.IsZero() {
		events = Diff(tag, previous, current, FallenIDs(career))
	}

	if err = p.store.ReplaceHeroSnapshots(ctx, tag, current); err != nil {
		if errors.Is(err, store.ErrNotTracked) {
			p.logger.DebugW("tracker: battle tag untracked during refresh", "battle_tag", tag)
			return
		}
		p.logger.ErrorW("tracker: save snapshots failed", "battle_tag", tag, "error", err)
		metrics.TrackerRefreshes.WithLabelValues("error").Inc()
		return
	}

	metrics.TrackerRefreshes.WithLabelValues("ok").Inc()
	p.logger.DebugW("tracker: refreshed",
		"battle_tag", tag,
		"heroes", len(current),
		"events", len(events),
	)

	if len(events) == 0 {
		return
	}
	for _, e := range events {
		metrics.TrackerEvents.WithLabelValues(string(e.Kind)).Inc()
	}
	if p.notify != nil {
		p.notify(ctx, events)
	}
}
