package tracker

import (
	"slices"

	"github.com/ErikKalkoken/go-set"

	"github.com/tnicklin/nephalem/models"
	"github.com/tnicklin/nephalem/store"
)

// Diff compares the stored snapshot of a career with a fresh one.
// fallen holds the ids of hardcore heroes listed as fallen on the fresh career.
func Diff(tag models.BattleTag, previous, current []store.HeroSnapshot, fallen set.Set[int64]) []Event {
	prevByID := byID(previous)
	currByID := byID(current)
	prevIDs := set.Of(ids(previous)...)
	currIDs := set.Of(ids(current)...)

	var events []Event
	for _, id := range slices.Sorted(set.Difference(currIDs, prevIDs).All()) {
		events = append(events, Event{Kind: EventNewHero, BattleTag: tag, Hero: currByID[id]})
	}

	for _, id := range slices.Sorted(currIDs.All()) {
		if !prevIDs.Contains(id) {
			continue
		}
		prev, curr := prevByID[id], currByID[id]
		if curr.Dead && !prev.Dead {
			events = append(events, Event{Kind: EventHeroDied, BattleTag: tag, Hero: curr, Previous: prev})
			continue
		}
		if curr.Level > prev.Level {
			events = append(events, Event{Kind: EventLevelUp, BattleTag: tag, Hero: curr, Previous: prev})
		}
		if curr.ParagonLevel > prev.ParagonLevel {
			events = append(events, Event{Kind: EventParagonUp, BattleTag: tag, Hero: curr, Previous: prev})
		}
	}

	for _, id := range slices.Sorted(set.Difference(prevIDs, currIDs).All()) {
		prev := prevByID[id]
		kind := EventHeroRemoved
		if prev.Hardcore && !prev.Dead && fallen.Contains(id) {
			kind = EventHeroDied
		}
		dead := prev
		dead.Dead = kind == EventHeroDied
		events = append(events, Event{Kind: kind, BattleTag: tag, Hero: dead, Previous: prev})
	}

	return events
}

// FallenIDs collects the hero ids of a career's fallen heroes.
func FallenIDs(c *models.Career) set.Set[int64] {
	fallen := make([]int64, 0, len(c.FallenHeroes))
	for _, f := range c.FallenHeroes {
		fallen = append(fallen, f.HeroID)
	}
	return set.Of(fallen...)
}

func byID(heroes []store.HeroSnapshot) map[int64]store.HeroSnapshot {
	out := make(map[int64]store.HeroSnapshot, len(heroes))
	for _, h := range heroes {
		out[h.HeroID] = h
	}
	return out
}

func ids(heroes []store.HeroSnapshot) []int64 {
	out := make([]int64, 0, len(heroes))
	for _, h := range heroes {
		out = append(out, h.HeroID)
	}
	return out
}
