package models

import (
	"errors"
	"fmt"
	"time"
)

// Career is the account-wide profile returned for a battle tag.
type Career struct {
	BattleTag                  string             `json:"battleTag" yaml:"battle_tag"`
	GuildName                  string             `json:"guildName,omitempty" yaml:"guild_name,omitempty"`
	ParagonLevel               int                `json:"paragonLevel" yaml:"paragon_level"`
	ParagonLevelHardcore       int                `json:"paragonLevelHardcore" yaml:"paragon_level_hardcore"`
	ParagonLevelSeason         int                `json:"paragonLevelSeason" yaml:"paragon_level_season"`
	ParagonLevelSeasonHardcore int                `json:"paragonLevelSeasonHardcore" yaml:"paragon_level_season_hardcore"`
	Heroes                     []HeroSummary      `json:"heroes" yaml:"heroes"`
	LastHeroPlayed             int64              `json:"lastHeroPlayed" yaml:"last_hero_played"`
	LastUpdated                int64              `json:"lastUpdated" yaml:"last_updated"`
	Kills                      CareerKills        `json:"kills" yaml:"kills"`
	HighestHardcoreLevel       int                `json:"highestHardcoreLevel" yaml:"highest_hardcore_level"`
	TimePlayed                 map[string]float64 `json:"timePlayed,omitempty" yaml:"time_played,omitempty"`
	Artisans                   []Artisan          `json:"artisans,omitempty" yaml:"artisans,omitempty"`
	HardcoreArtisans           []Artisan          `json:"hardcoreArtisans,omitempty" yaml:"hardcore_artisans,omitempty"`
	Progression                Progression        `json:"progression" yaml:"progression"`
	HardcoreProgression        Progression        `json:"hardcoreProgression" yaml:"hardcore_progression"`
	FallenHeroes               []FallenHero       `json:"fallenHeroes,omitempty" yaml:"fallen_heroes,omitempty"`
}

// CareerKills are account-wide kill counters.
type CareerKills struct {
	Monsters         int64 `json:"monsters" yaml:"monsters"`
	Elites           int64 `json:"elites" yaml:"elites"`
	HardcoreMonsters int64 `json:"hardcoreMonsters" yaml:"hardcore_monsters"`
}

// Artisan is a crafter's training state.
type Artisan struct {
	Slug        string `json:"slug" yaml:"slug"`
	Level       int    `json:"level" yaml:"level"`
	StepCurrent int    `json:"stepCurrent" yaml:"step_current"`
	StepMax     int    `json:"stepMax" yaml:"step_max"`
}

// Progression records act completion per difficulty.
type Progression struct {
	Normal    ActProgression `json:"normal" yaml:"normal"`
	Nightmare ActProgression `json:"nightmare" yaml:"nightmare"`
	Hell      ActProgression `json:"hell" yaml:"hell"`
	Inferno   ActProgression `json:"inferno" yaml:"inferno"`
}

// ActProgression records whether each of the four acts is complete.
type ActProgression struct {
	Act1 bool `json:"act1" yaml:"act1"`
	Act2 bool `json:"act2" yaml:"act2"`
	Act3 bool `json:"act3" yaml:"act3"`
	Act4 bool `json:"act4" yaml:"act4"`
}

// Acts returns completion flags ordered act 1 to 4.
func (a ActProgression) Acts() [4]bool {
	return [4]bool{a.Act1, a.Act2, a.Act3, a.Act4}
}

// For returns the act progression of the given difficulty.
func (p Progression) For(d Difficulty) ActProgression {
	switch d {
	case Normal:
		return p.Normal
	case Nightmare:
		return p.Nightmare
	case Hell:
		return p.Hell
	case Inferno:
		return p.Inferno
	}
	return ActProgression{}
}

// Highest returns the hardest difficulty and last act completed in it.
// ok is false when nothing has been completed.
func (p Progression) Highest() (d Difficulty, act int, ok bool) {
	for i := len(Difficulties) - 1; i >= 0; i-- {
		acts := p.For(Difficulties[i]).Acts()
		for j := len(acts) - 1; j >= 0; j-- {
			if acts[j] {
				return Difficulties[i], j + 1, true
			}
		}
	}
	return "", 0, false
}

// Hero returns the hero summary with the given id.
func (c *Career) Hero(id int64) (HeroSummary, bool) {
	for _, h := range c.Heroes {
		if h.ID == id {
			return h, true
		}
	}
	return HeroSummary{}, false
}

// LastUpdatedAt converts LastUpdated to a time. The zero time is returned when unset.
func (c *Career) LastUpdatedAt() time.Time {
	if c.LastUpdated <= 0 {
		return time.Time{}
	}
	return time.Unix(c.LastUpdated, 0)
}

// Validate checks the invariants a decoded career must satisfy.
func (c *Career) Validate() error {
	if c.BattleTag == "" {
		return errors.New("career: missing battle tag")
	}
	seen := make(map[int64]struct{}, len(c.Heroes))
	for _, h := range c.Heroes {
		if h.ID <= 0 {
			return fmt.Errorf("career: hero %q has no id", h.Name)
		}
		if _, ok := seen[h.ID]; ok {
			return fmt.Errorf("career: duplicate hero id %d", h.ID)
		}
		seen[h.ID] = struct{}{}
	}
	return nil
}
