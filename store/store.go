package store

import (
	"context"
	"errors"
	"time"

	"github.com/tnicklin/nephalem/models"
)

var (
	ErrNotOpen        = errors.New("store: not open")
	ErrAlreadyTracked = errors.New("store: battle tag already tracked")
	ErrNotTracked     = errors.New("store: battle tag not tracked")
)

// TrackedBattleTag is an account the tracker refreshes.
// RefreshedAt is zero until the first successful refresh.
type TrackedBattleTag struct {
	BattleTag   models.BattleTag
	AddedBy     string
	AddedAt     time.Time
	RefreshedAt time.Time
}

// HeroSnapshot is the last observed state of one hero.
type HeroSnapshot struct {
	HeroID       int64
	Name         string
	Class        string
	Level        int
	ParagonLevel int
	Hardcore     bool
	Seasonal     bool
	Dead         bool
	LastUpdated  int64
}

// SnapshotOf captures the tracked fields of a hero summary.
func SnapshotOf(h models.HeroSummary) HeroSnapshot {
	return HeroSnapshot{
		HeroID:       h.ID,
		Name:         h.Name,
		Class:        h.Class,
		Level:        h.Level,
		ParagonLevel: h.ParagonLevel,
		Hardcore:     h.Hardcore,
		Seasonal:     h.Seasonal,
		Dead:         h.Dead,
		LastUpdated:  h.LastUpdated,
	}
}

type Store interface {
	Open(ctx context.Context) error
	Close() error
	Shutdown(ctx context.Context) error

	RestoreFromDisk(ctx context.Context, path string) error
	FlushToDisk(ctx context.Context, path string) error

	TrackBattleTag(ctx context.Context, tracked TrackedBattleTag) error
	UntrackBattleTag(ctx context.Context, tag models.BattleTag) error
	ListTrackedBattleTags(ctx context.Context) ([]TrackedBattleTag, error)

	ReplaceHeroSnapshots(ctx context.Context, tag models.BattleTag, heroes []HeroSnapshot) error
	ListHeroSnapshots(ctx context.Context, tag models.BattleTag) ([]HeroSnapshot, error)
}
