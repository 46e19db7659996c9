package models

import "time"

// HeroSummary is the short hero record listed on a career.
type HeroSummary struct {
	ID           int64     `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	Class        string    `json:"class" yaml:"class"`
	Gender       int       `json:"gender" yaml:"gender"`
	Level        int       `json:"level" yaml:"level"`
	ParagonLevel int       `json:"paragonLevel" yaml:"paragon_level"`
	Hardcore     bool      `json:"hardcore" yaml:"hardcore"`
	Seasonal     bool      `json:"seasonal" yaml:"seasonal"`
	Dead         bool      `json:"dead" yaml:"dead"`
	Kills        HeroKills `json:"kills" yaml:"kills"`
	LastUpdated  int64     `json:"last-updated" yaml:"last_updated"`
}

// LastUpdatedAt converts LastUpdated to a time. The zero time is returned when unset.
func (h HeroSummary) LastUpdatedAt() time.Time {
	if h.LastUpdated <= 0 {
		return time.Time{}
	}
	return time.Unix(h.LastUpdated, 0)
}

// HeroKills are per-hero kill counters.
type HeroKills struct {
	Elites int64 `json:"elites" yaml:"elites"`
}

// Hero is the full hero profile.
type Hero struct {
	ID           int64        `json:"id" yaml:"id"`
	Name         string       `json:"name" yaml:"name"`
	Class        string       `json:"class" yaml:"class"`
	Gender       int          `json:"gender" yaml:"gender"`
	Level        int          `json:"level" yaml:"level"`
	ParagonLevel int          `json:"paragonLevel" yaml:"paragon_level"`
	Hardcore     bool         `json:"hardcore" yaml:"hardcore"`
	Seasonal     bool         `json:"seasonal" yaml:"seasonal"`
	Dead         bool         `json:"dead" yaml:"dead"`
	Skills       Skills       `json:"skills" yaml:"skills"`
	Items        Items        `json:"items" yaml:"items"`
	Followers    Followers    `json:"followers" yaml:"followers"`
	Stats        Stats        `json:"stats" yaml:"stats"`
	Kills        HeroKills    `json:"kills" yaml:"kills"`
	Progress     HeroProgress `json:"progress" yaml:"progress"`
	LastUpdated  int64        `json:"last-updated" yaml:"last_updated"`
}

// Skills holds the active and passive skill loadout.
type Skills struct {
	Active  []ActiveSkill  `json:"active" yaml:"active"`
	Passive []PassiveSkill `json:"passive" yaml:"passive"`
}

// ActiveSkill is an active skill with its selected rune.
type ActiveSkill struct {
	Skill Skill `json:"skill" yaml:"skill"`
	Rune  *Rune `json:"rune,omitempty" yaml:"rune,omitempty"`
}

// PassiveSkill wraps a passive skill.
type PassiveSkill struct {
	Skill Skill `json:"skill" yaml:"skill"`
}

type Skill struct {
	Slug        string `json:"slug" yaml:"slug"`
	Name        string `json:"name" yaml:"name"`
	Icon        string `json:"icon" yaml:"icon"`
	Level       int    `json:"level" yaml:"level"`
	TooltipURL  string `json:"tooltipUrl" yaml:"tooltip_url"`
	Description string `json:"description" yaml:"description"`
}

type Rune struct {
	Slug        string `json:"slug" yaml:"slug"`
	Type        string `json:"type" yaml:"type"`
	Name        string `json:"name" yaml:"name"`
	Level       int    `json:"level" yaml:"level"`
	Description string `json:"description" yaml:"description"`
}

// Item is an equipped item reference.
type Item struct {
	ID            string `json:"id" yaml:"id"`
	Name          string `json:"name" yaml:"name"`
	Icon          string `json:"icon" yaml:"icon"`
	DisplayColor  string `json:"displayColor" yaml:"display_color"`
	TooltipParams string `json:"tooltipParams" yaml:"tooltip_params"`
}

// Items are equipped items keyed by slot. Empty slots are nil.
type Items struct {
	Head        *Item `json:"head,omitempty" yaml:"head,omitempty"`
	Torso       *Item `json:"torso,omitempty" yaml:"torso,omitempty"`
	Feet        *Item `json:"feet,omitempty" yaml:"feet,omitempty"`
	Hands       *Item `json:"hands,omitempty" yaml:"hands,omitempty"`
	Shoulders   *Item `json:"shoulders,omitempty" yaml:"shoulders,omitempty"`
	Legs        *Item `json:"legs,omitempty" yaml:"legs,omitempty"`
	Bracers     *Item `json:"bracers,omitempty" yaml:"bracers,omitempty"`
	MainHand    *Item `json:"mainHand,omitempty" yaml:"main_hand,omitempty"`
	OffHand     *Item `json:"offHand,omitempty" yaml:"off_hand,omitempty"`
	Waist       *Item `json:"waist,omitempty" yaml:"waist,omitempty"`
	RightFinger *Item `json:"rightFinger,omitempty" yaml:"right_finger,omitempty"`
	LeftFinger  *Item `json:"leftFinger,omitempty" yaml:"left_finger,omitempty"`
	Neck        *Item `json:"neck,omitempty" yaml:"neck,omitempty"`
}

// Equipped returns the number of occupied slots.
func (i Items) Equipped() int {
	n := 0
	for _, it := range []*Item{
		i.Head, i.Torso, i.Feet, i.Hands, i.Shoulders, i.Legs, i.Bracers,
		i.MainHand, i.OffHand, i.Waist, i.RightFinger, i.LeftFinger, i.Neck,
	} {
		if it != nil {
			n++
		}
	}
	return n
}

type Followers struct {
	Templar     *Follower `json:"templar,omitempty" yaml:"templar,omitempty"`
	Scoundrel   *Follower `json:"scoundrel,omitempty" yaml:"scoundrel,omitempty"`
	Enchantress *Follower `json:"enchantress,omitempty" yaml:"enchantress,omitempty"`
}

type Follower struct {
	Slug   string           `json:"slug" yaml:"slug"`
	Level  int              `json:"level" yaml:"level"`
	Items  Items            `json:"items" yaml:"items"`
	Stats  map[string]int64 `json:"stats,omitempty" yaml:"stats,omitempty"`
	Skills []PassiveSkill   `json:"skills,omitempty" yaml:"skills,omitempty"`
}

// Stats are the computed character sheet values.
type Stats struct {
	Life              float64 `json:"life" yaml:"life"`
	Damage            float64 `json:"damage" yaml:"damage"`
	AttackSpeed       float64 `json:"attackSpeed" yaml:"attack_speed"`
	Armor             float64 `json:"armor" yaml:"armor"`
	Strength          float64 `json:"strength" yaml:"strength"`
	Dexterity         float64 `json:"dexterity" yaml:"dexterity"`
	Vitality          float64 `json:"vitality" yaml:"vitality"`
	Intelligence      float64 `json:"intelligence" yaml:"intelligence"`
	PhysicalResist    float64 `json:"physicalResist" yaml:"physical_resist"`
	FireResist        float64 `json:"fireResist" yaml:"fire_resist"`
	ColdResist        float64 `json:"coldResist" yaml:"cold_resist"`
	LightningResist   float64 `json:"lightningResist" yaml:"lightning_resist"`
	PoisonResist      float64 `json:"poisonResist" yaml:"poison_resist"`
	ArcaneResist      float64 `json:"arcaneResist" yaml:"arcane_resist"`
	CritDamage        float64 `json:"critDamage" yaml:"crit_damage"`
	CritChance        float64 `json:"critChance" yaml:"crit_chance"`
	BlockChance       float64 `json:"blockChance" yaml:"block_chance"`
	BlockAmountMin    float64 `json:"blockAmountMin" yaml:"block_amount_min"`
	BlockAmountMax    float64 `json:"blockAmountMax" yaml:"block_amount_max"`
	DodgeChance       float64 `json:"dodgeChance" yaml:"dodge_chance"`
	DamageIncrease    float64 `json:"damageIncrease" yaml:"damage_increase"`
	DamageReduction   float64 `json:"damageReduction" yaml:"damage_reduction"`
	Thorns            float64 `json:"thorns" yaml:"thorns"`
	LifeSteal         float64 `json:"lifeSteal" yaml:"life_steal"`
	LifePerKill       float64 `json:"lifePerKill" yaml:"life_per_kill"`
	LifeOnHit         float64 `json:"lifeOnHit" yaml:"life_on_hit"`
	GoldFind          float64 `json:"goldFind" yaml:"gold_find"`
	MagicFind         float64 `json:"magicFind" yaml:"magic_find"`
	PrimaryResource   float64 `json:"primaryResource" yaml:"primary_resource"`
	SecondaryResource float64 `json:"secondaryResource" yaml:"secondary_resource"`
}

// HeroProgress is quest-level progress per difficulty.
type HeroProgress struct {
	Normal    HeroActs `json:"normal" yaml:"normal"`
	Nightmare HeroActs `json:"nightmare" yaml:"nightmare"`
	Hell      HeroActs `json:"hell" yaml:"hell"`
	Inferno   HeroActs `json:"inferno" yaml:"inferno"`
}

type HeroActs struct {
	Act1 ActProgress `json:"act1" yaml:"act1"`
	Act2 ActProgress `json:"act2" yaml:"act2"`
	Act3 ActProgress `json:"act3" yaml:"act3"`
	Act4 ActProgress `json:"act4" yaml:"act4"`
}

type ActProgress struct {
	Completed       bool    `json:"completed" yaml:"completed"`
	CompletedQuests []Quest `json:"completedQuests" yaml:"completed_quests"`
}

type Quest struct {
	Slug string `json:"slug" yaml:"slug"`
	Name string `json:"name" yaml:"name"`
}

// Progression collapses quest-level progress to act completion flags.
func (p HeroProgress) Progression() Progression {
	acts := func(h HeroActs) ActProgression {
		return ActProgression{
			Act1: h.Act1.Completed,
			Act2: h.Act2.Completed,
			Act3: h.Act3.Completed,
			Act4: h.Act4.Completed,
		}
	}
	return Progression{
		Normal:    acts(p.Normal),
		Nightmare: acts(p.Nightmare),
		Hell:      acts(p.Hell),
		Inferno:   acts(p.Inferno),
	}
}

// FallenHero is a hardcore hero that has died.
type FallenHero struct {
	HeroID   int64     `json:"heroId" yaml:"hero_id"`
	Name     string    `json:"name" yaml:"name"`
	Class    string    `json:"class" yaml:"class"`
	Level    int       `json:"level" yaml:"level"`
	Gender   int       `json:"gender" yaml:"gender"`
	Hardcore bool      `json:"hardcore" yaml:"hardcore"`
	Elites   int64     `json:"elites" yaml:"elites"`
	Stats    Stats     `json:"stats" yaml:"stats"`
	Kills    HeroKills `json:"kills" yaml:"kills"`
	Items    Items     `json:"items" yaml:"items"`
	Death    Death     `json:"death" yaml:"death"`
}

// Death describes how and when a hardcore hero died.
type Death struct {
	Killer   int   `json:"killer" yaml:"killer"`
	Location int   `json:"location" yaml:"location"`
	Time     int64 `json:"time" yaml:"time"`
}

// At converts the death time to a time. The zero time is returned when unset.
func (d Death) At() time.Time {
	if d.Time <= 0 {
		return time.Time{}
	}
	return time.Unix(d.Time, 0)
}
