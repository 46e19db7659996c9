package battlenet

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/tnicklin/nephalem/battlenet/repository"
	"github.com/tnicklin/nephalem/clock"
	"github.com/tnicklin/nephalem/logger"
	"github.com/tnicklin/nephalem/models"
)

var _ Client = (*DefaultClient)(nil)

// DefaultClient is the caller-constructed entry point for profile lookups.
// Every call builds a repository for the region current at call time and closes it before returning.
type DefaultClient struct {
	mu     sync.RWMutex
	region string

	baseURL   string
	locale    string
	userAgent string
	tokens    repository.TokenSource
	http      *http.Client
	ownsHTTP  bool
	logger    logger.Logger
	closed    atomic.Bool
}

type Params struct {
	Config Config
	Logger logger.Logger
	// Tokens overrides the client-credentials source built from Config.
	Tokens repository.TokenSource
	Clock  clock.Clock
}

// New creates a client. When Config.HTTPClient is nil a retrying, rate limited client is built
// and owned by the returned value.
func New(p Params) *DefaultClient {
	p.Config.Defaults()

	log := p.Logger
	if log == nil {
		log = logger.NewNop()
	}

	httpClient := p.Config.HTTPClient
	owns := false
	if httpClient == nil {
		httpClient = NewHTTPClient(p.Config, log)
		owns = true
	}

	tokens := p.Tokens
	if tokens == nil && p.Config.HasCredentials() {
		tokens = repository.NewClientCredentials(repository.TokenParams{
			ClientID:     p.Config.ClientID,
			ClientSecret: p.Config.ClientSecret,
			TokenURL:     p.Config.TokenURL,
			HTTPClient:   httpClient,
			Clock:        p.Clock,
		})
	}

	return &DefaultClient{
		region:    p.Config.Region,
		baseURL:   p.Config.BaseURL,
		locale:    p.Config.Locale,
		userAgent: p.Config.UserAgent,
		tokens:    tokens,
		http:      httpClient,
		ownsHTTP:  owns,
		logger:    log,
	}
}

// SetRegion changes the region used by subsequent calls. The value is not validated.
func (c *DefaultClient) SetRegion(region string) {
	c.mu.Lock()
	c.region = region
	c.mu.Unlock()
}

func (c *DefaultClient) Region() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.region
}

func (c *DefaultClient) GetCareerByBattleTag(ctx context.Context, tag models.BattleTag) (*models.Career, error) {
	repo, err := c.repository()
	if err != nil {
		return nil, err
	}
	defer repo.Close()

	normalized := models.BattleTag(tag.Normalize())
	c.logger.DebugW("battlenet: career lookup", "battle_tag", normalized, "base_url", repo.BaseURL())

	career, err := repo.GetCareerByBattleTag(ctx, normalized)
	if err != nil {
		return nil, err
	}
	return career, nil
}

func (c *DefaultClient) GetHeroByID(ctx context.Context, tag models.BattleTag, id int64) (*models.Hero, error) {
	repo, err := c.repository()
	if err != nil {
		return nil, err
	}
	defer repo.Close()

	normalized := models.BattleTag(tag.Normalize())
	c.logger.DebugW("battlenet: hero lookup", "battle_tag", normalized, "hero_id", id, "base_url", repo.BaseURL())

	hero, err := repo.GetHeroByID(ctx, normalized, id)
	if err != nil {
		return nil, err
	}
	return hero, nil
}

// Close releases idle connections of an owned HTTP client. Calls after Close fail with ErrClosed.
func (c *DefaultClient) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	if c.ownsHTTP {
		c.http.CloseIdleConnections()
	}
	return nil
}

func (c *DefaultClient) repository() (*repository.DefaultRepository, error) {
	if c.closed.Load() {
		return nil, &APIError{Kind: ErrClosed}
	}
	return repository.New(repository.Params{
		Region:     c.Region(),
		BaseURL:    c.baseURL,
		Locale:     c.locale,
		UserAgent:  c.userAgent,
		Tokens:     c.tokens,
		HTTPClient: c.http,
	}), nil
}
