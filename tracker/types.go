package tracker

import (
	"context"

	"github.com/tnicklin/nephalem/models"
	"github.com/tnicklin/nephalem/store"
)

// Poller periodically refreshes tracked battle tags and reports hero changes.
type Poller interface {
	Start(ctx context.Context) error
	Stop()
	RefreshAll(ctx context.Context) error
}

// CareerSource is the lookup the tracker needs from the Battle.net client.
type CareerSource interface {
	GetCareerByBattleTag(ctx context.Context, tag models.BattleTag) (*models.Career, error)
}

type EventKind string

const (
	EventNewHero     EventKind = "new_hero"
	EventLevelUp     EventKind = "level_up"
	EventParagonUp   EventKind = "paragon_up"
	EventHeroDied    EventKind = "hero_died"
	EventHeroRemoved EventKind = "hero_removed"
)

// Event is one observed change to a tracked hero. Previous is zero for EventNewHero.
type Event struct {
	Kind      EventKind
	BattleTag models.BattleTag
	Hero      store.HeroSnapshot
	Previous  store.HeroSnapshot
}

// NotifyFunc receives the events of one refreshed battle tag.
type NotifyFunc func(ctx context.Context, events []Event)
