package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/tnicklin/nephalem/metrics"
	"github.com/tnicklin/nephalem/models"
)

var _ Repository = (*DefaultRepository)(nil)

const (
	// RegionPlaceholder is replaced by the region code in a base URL template.
	RegionPlaceholder = "{region}"
	DefaultBaseURL    = "https://" + RegionPlaceholder + ".api.blizzard.com"

	maxBodyBytes = 8 << 20

	endpointCareer = "career"
	endpointHero   = "hero"
)

// DefaultRepository is the Battle.net Diablo III profile API client for a single region.
type DefaultRepository struct {
	baseURL   string
	locale    string
	userAgent string
	tokens    TokenSource
	http      *http.Client
	ownsHTTP  bool
	closed    atomic.Bool
}

type Params struct {
	Region     string
	BaseURL    string
	Locale     string
	UserAgent  string
	Tokens     TokenSource
	HTTPClient *http.Client
}

// New creates a repository bound to p.Region. When p.HTTPClient is nil the repository
// creates and owns its own client, and Close releases its idle connections.
func New(p Params) *DefaultRepository {
	base := p.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}

	httpClient := p.HTTPClient
	owns := false
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
		owns = true
	}

	return &DefaultRepository{
		baseURL:   ResolveBaseURL(base, p.Region),
		locale:    p.Locale,
		userAgent: p.UserAgent,
		tokens:    p.Tokens,
		http:      httpClient,
		ownsHTTP:  owns,
	}
}

// ResolveBaseURL substitutes region into a base URL template. The region is not validated.
func ResolveBaseURL(template, region string) string {
	return strings.TrimRight(strings.ReplaceAll(template, RegionPlaceholder, region), "/")
}

// BaseURL returns the region-resolved base URL.
func (r *DefaultRepository) BaseURL() string {
	return r.baseURL
}

func (r *DefaultRepository) GetCareerByBattleTag(ctx context.Context, tag models.BattleTag) (*models.Career, error) {
	account, err := accountSegment(endpointCareer, tag)
	if err != nil {
		return nil, err
	}

	var career models.Career
	path := "/d3/profile/" + account + "/"
	if err = r.get(ctx, endpointCareer, path, &career); err != nil {
		return nil, err
	}
	if err = career.Validate(); err != nil {
		return nil, &APIError{Kind: ErrDeserialization, Endpoint: endpointCareer, URL: r.baseURL + path, Err: err}
	}

	return &career, nil
}

func (r *DefaultRepository) GetHeroByID(ctx context.Context, tag models.BattleTag, id int64) (*models.Hero, error) {
	account, err := accountSegment(endpointHero, tag)
	if err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, &APIError{Kind: ErrInvalidArgument, Endpoint: endpointHero, Reason: fmt.Sprintf("hero id %d", id)}
	}

	var hero models.Hero
	path := "/d3/profile/" + account + "/hero/" + strconv.FormatInt(id, 10)
	if err = r.get(ctx, endpointHero, path, &hero); err != nil {
		return nil, err
	}
	if hero.ID != id {
		return nil, &APIError{
			Kind:     ErrDeserialization,
			Endpoint: endpointHero,
			URL:      r.baseURL + path,
			Reason:   fmt.Sprintf("expected hero %d, got %d", id, hero.ID),
		}
	}

	return &hero, nil
}

// Close releases the repository. Subsequent calls fail with ErrClosed.
func (r *DefaultRepository) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	if r.ownsHTTP {
		r.http.CloseIdleConnections()
	}
	return nil
}

func accountSegment(endpoint string, tag models.BattleTag) (string, error) {
	if !tag.Valid() {
		return "", &APIError{Kind: ErrInvalidArgument, Endpoint: endpoint, Reason: "battle tag is empty"}
	}
	return url.PathEscape(tag.Normalize()), nil
}

func (r *DefaultRepository) get(ctx context.Context, endpoint, path string, out any) error {
	if r.closed.Load() {
		return &APIError{Kind: ErrClosed, Endpoint: endpoint}
	}

	target, err := url.Parse(r.baseURL + path)
	if err != nil {
		return &APIError{Kind: ErrInvalidArgument, Endpoint: endpoint, URL: r.baseURL + path, Err: err}
	}
	if r.locale != "" {
		query := target.Query()
		query.Set("locale", r.locale)
		target.RawQuery = query.Encode()
	}
	rawURL := target.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &APIError{Kind: ErrInvalidArgument, Endpoint: endpoint, URL: rawURL, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}
	if r.tokens != nil {
		token, err := r.tokens.Token(ctx)
		if err != nil {
			return &APIError{Kind: ErrTransport, Endpoint: endpoint, URL: rawURL, Reason: "access token", Err: err}
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := r.http.Do(req)
	if err != nil {
		metrics.ObserveRequest(endpoint, 0, time.Since(start))
		return &APIError{Kind: ErrTransport, Endpoint: endpoint, URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	metrics.ObserveRequest(endpoint, resp.StatusCode, time.Since(start))
	if err != nil {
		return &APIError{Kind: ErrTransport, Endpoint: endpoint, URL: rawURL, StatusCode: resp.StatusCode, Err: err}
	}
	if len(body) > maxBodyBytes {
		return &APIError{
			Kind:       ErrDeserialization,
			Endpoint:   endpoint,
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Reason:     "response body too large",
		}
	}

	env, hasEnvelope := decodeEnvelope(body)

	if resp.StatusCode == http.StatusNotFound {
		return &APIError{
			Kind:       ErrNotFound,
			Endpoint:   endpoint,
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Code:       env.Code,
			Reason:     env.message(),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reason := env.message()
		if reason == "" {
			reason = truncate(string(body), 512)
		}
		return &APIError{
			Kind:       ErrTransport,
			Endpoint:   endpoint,
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Code:       env.Code,
			Reason:     reason,
		}
	}

	if hasEnvelope {
		kind := ErrTransport
		if strings.EqualFold(env.Code, "NOTFOUND") {
			kind = ErrNotFound
		}
		return &APIError{
			Kind:       kind,
			Endpoint:   endpoint,
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Code:       env.Code,
			Reason:     env.message(),
		}
	}

	if err = json.Unmarshal(body, out); err != nil {
		return &APIError{Kind: ErrDeserialization, Endpoint: endpoint, URL: rawURL, StatusCode: resp.StatusCode, Err: err}
	}
	return nil
}

// decodeEnvelope reports whether body is an API error envelope.
func decodeEnvelope(body []byte) (envelope, bool) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return envelope{}, false
	}
	return env, env.Code != ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
