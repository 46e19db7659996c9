package repository

import (
	"context"

	"github.com/tnicklin/nephalem/models"
)

// Repository fetches Diablo III profile data for one region.
type Repository interface {
	GetCareerByBattleTag(ctx context.Context, tag models.BattleTag) (*models.Career, error)
	GetHeroByID(ctx context.Context, tag models.BattleTag, id int64) (*models.Hero, error)
	Close() error
}

// TokenSource supplies OAuth bearer tokens for API requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}
