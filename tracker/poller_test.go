package tracker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tnicklin/nephalem/battlenet"
	"github.com/tnicklin/nephalem/models"
	"github.com/tnicklin/nephalem/store"
)

type fakeSource struct {
	mu      sync.Mutex
	careers map[string]*models.Career
	errs    map[string]error
	calls   int
}

func newFakeSource() *fakeSource {
	return &fakeSource{careers: map[string]*models.Career{}, errs: map[string]error{}}
}

func (f *fakeSource) set(tag models.BattleTag, c *models.Career) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.careers[tag.Key()] = c
}

func (f *fakeSource) fail(tag models.BattleTag, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[tag.Key()] = err
}

func (f *fakeSource) GetCareerByBattleTag(_ context.Context, tag models.BattleTag) (*models.Career, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.errs[tag.Key()]; ok {
		return nil, err
	}
	return f.careers[tag.Key()], nil
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) notify(_ context.Context, events []Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
}

func (r *recorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventKind, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

func newTestStore(t *testing.T, tags ...models.BattleTag) store.Store {
	t.Helper()
	st := store.NewSQLiteStore(store.Params{})
	if err := st.Open(context.Background()); err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	for _, tag := range tags {
		if err := st.TrackBattleTag(context.Background(), store.TrackedBattleTag{BattleTag: tag}); err != nil {
			t.Fatalf("track %s: %v", tag, err)
		}
	}
	return st
}

func career(tag string, heroes ...models.HeroSummary) *models.Career {
	return &models.Career{BattleTag: tag, Heroes: heroes}
}

func TestFirstRefreshSeedsWithoutEvents(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t, "Name#1234")
	src := newFakeSource()
	src.set("Name#1234", career("Name#1234",
		models.HeroSummary{ID: 1, Name: "Leah", Class: "wizard", Level: 70},
		models.HeroSummary{ID: 2, Name: "Kormac", Class: "crusader", Level: 61},
	))
	rec := &recorder{}

	p := New(Params{Client: src, Store: st, Notify: rec.notify})
	if err := p.RefreshAll(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if got := rec.kinds(); len(got) != 0 {
		t.Fatalf("expected no events on first refresh, got %v", got)
	}
	snaps, err := st.ListHeroSnapshots(ctx, "Name#1234")
	if err != nil {
		t.Fatalf("list snapshots: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snaps))
	}
}

func TestRefreshEmitsChanges(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t, "Name#1234")
	src := newFakeSource()
	src.set("Name#1234", career("Name#1234",
		models.HeroSummary{ID: 1, Name: "Leah", Class: "wizard", Level: 69, ParagonLevel: 10},
		models.HeroSummary{ID: 2, Name: "Kormac", Class: "crusader", Level: 61, Hardcore: true},
	))
	rec := &recorder{}
	p := New(Params{Client: src, Store: st, Notify: rec.notify})

	if err := p.RefreshAll(ctx); err != nil {
		t.Fatalf("seed refresh: %v", err)
	}

	next := career("Name#1234",
		models.HeroSummary{ID: 1, Name: "Leah", Class: "wizard", Level: 70, ParagonLevel: 11},
		models.HeroSummary{ID: 3, Name: "Zayl", Class: "necromancer", Level: 1},
	)
	next.FallenHeroes = []models.FallenHero{{HeroID: 2, Name: "Kormac", Hardcore: true}}
	src.set("Name#1234", next)

	if err := p.RefreshAll(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	want := []EventKind{EventNewHero, EventLevelUp, EventParagonUp, EventHeroDied}
	got := rec.kinds()
	if len(got) != len(want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	// Nothing changed since the last refresh.
	if err := p.RefreshAll(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(rec.kinds()) != len(want) {
		t.Fatalf("expected no new events, got %v", rec.kinds())
	}
}

func TestRefreshSkipsNotFound(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t, "Gone#1", "Name#1234")
	src := newFakeSource()
	src.fail("Gone#1", &battlenet.APIError{Kind: battlenet.ErrNotFound, Endpoint: "career"})
	src.set("Name#1234", career("Name#1234", models.HeroSummary{ID: 1, Name: "Leah", Class: "wizard"}))

	p := New(Params{Client: src, Store: st})
	if err := p.RefreshAll(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	tracked, err := st.ListTrackedBattleTags(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, tr := range tracked {
		refreshed := !tr.RefreshedAt.IsZero()
		if tr.BattleTag == "Gone#1" && refreshed {
			t.Fatalf("expected missing tag to stay unrefreshed")
		}
		if tr.BattleTag == "Name#1234" && !refreshed {
			t.Fatalf("expected found tag to be refreshed")
		}
	}
}

func TestStartRequiresDependencies(t *testing.T) {
	p := New(Params{})
	if err := p.Start(context.Background()); err == nil {
		t.Fatalf("expected error without client and store")
	}
}

func TestStartRefreshesAndStops(t *testing.T) {
	st := newTestStore(t, "Name#1234")
	src := newFakeSource()
	src.set("Name#1234", career("Name#1234", models.HeroSummary{ID: 1, Name: "Leah", Class: "wizard"}))

	p := New(Params{Config: Config{Interval: time.Hour}, Client: src, Store: st})
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := p.Start(context.Background()); err == nil {
		t.Fatalf("expected second start to fail")
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		snaps, err := st.ListHeroSnapshots(context.Background(), "Name#1234")
		if err != nil {
			t.Fatalf("list snapshots: %v", err)
		}
		if len(snaps) == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for initial refresh")
		}
		time.Sleep(10 * time.Millisecond)
	}

	p.Stop()
	p.Stop()
}
