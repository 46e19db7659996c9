package battlenet

import (
	"context"

	"github.com/tnicklin/nephalem/models"
)

// Client looks up Diablo III careers and heroes in the configured region.
type Client interface {
	GetCareerByBattleTag(ctx context.Context, tag models.BattleTag) (*models.Career, error)
	GetHeroByID(ctx context.Context, tag models.BattleTag, id int64) (*models.Hero, error)
	SetRegion(region string)
	Region() string
	Close() error
}
