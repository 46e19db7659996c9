package battlenet

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoHeroCareer = `{
  "battleTag": "Name#1234",
  "heroes": [
    {"id": 101, "name": "Leah", "class": "wizard", "level": 70},
    {"id": 202, "name": "Kormac", "class": "crusader", "level": 61}
  ],
  "lastHeroPlayed": 101
}`

// capturingTransport records every request and answers from a fixed table.
type capturingTransport struct {
	mu       sync.Mutex
	requests []*http.Request

	status int
	body   string
	token  string
}

func (c *capturingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()

	status, body := c.status, c.body
	if req.URL.Host == "oauth.test" {
		status, body = http.StatusOK, `{"access_token":"`+c.token+`","expires_in":3600}`
	}
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}, nil
}

func (c *capturingTransport) hosts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.requests))
	for _, r := range c.requests {
		out = append(out, r.URL.Host)
	}
	return out
}

func (c *capturingTransport) last() *http.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.requests) == 0 {
		return nil
	}
	return c.requests[len(c.requests)-1]
}

func newTestClient(t *testing.T, rt *capturingTransport, cfg Config) *DefaultClient {
	t.Helper()
	cfg.HTTPClient = &http.Client{Transport: rt}
	c := New(Params{Config: cfg})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRegionSwitchTargetsDifferentBaseURLs(t *testing.T) {
	rt := &capturingTransport{body: twoHeroCareer}
	c := newTestClient(t, rt, Config{})

	c.SetRegion("us")
	_, err := c.GetCareerByBattleTag(context.Background(), "Name#1234")
	require.NoError(t, err)

	c.SetRegion("eu")
	_, err = c.GetCareerByBattleTag(context.Background(), "Name#1234")
	require.NoError(t, err)

	assert.Equal(t, []string{"us.api.blizzard.com", "eu.api.blizzard.com"}, rt.hosts())
	assert.Equal(t, "eu", c.Region())
}

func TestRegionIsNotValidated(t *testing.T) {
	rt := &capturingTransport{body: twoHeroCareer}
	c := newTestClient(t, rt, Config{Region: "moon"})

	_, err := c.GetCareerByBattleTag(context.Background(), "Name#1234")
	require.NoError(t, err)
	assert.Equal(t, []string{"moon.api.blizzard.com"}, rt.hosts())
}

func TestGetCareerNormalizesTag(t *testing.T) {
	rt := &capturingTransport{body: twoHeroCareer}
	c := newTestClient(t, rt, Config{})

	career, err := c.GetCareerByBattleTag(context.Background(), " Name#1234 ")
	require.NoError(t, err)

	require.Len(t, career.Heroes, 2)
	assert.Equal(t, int64(101), career.Heroes[0].ID)
	assert.Equal(t, int64(202), career.Heroes[1].ID)
	assert.Equal(t, "/d3/profile/Name-1234/", rt.last().URL.Path)
}

func TestGetHeroByIDPath(t *testing.T) {
	rt := &capturingTransport{body: `{"id": 202, "name": "Kormac", "class": "crusader", "level": 61}`}
	c := newTestClient(t, rt, Config{Region: "kr", Locale: "ko_KR"})

	hero, err := c.GetHeroByID(context.Background(), "Name#1234", 202)
	require.NoError(t, err)

	assert.Equal(t, "Kormac", hero.Name)
	req := rt.last()
	assert.Equal(t, "kr.api.blizzard.com", req.URL.Host)
	assert.Equal(t, "/d3/profile/Name-1234/hero/202", req.URL.Path)
	assert.Equal(t, "ko_KR", req.URL.Query().Get("locale"))
}

func TestClientErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		call   func(c *DefaultClient) error
		want   error
	}{
		{
			name:   "hero not found",
			status: http.StatusNotFound,
			call: func(c *DefaultClient) error {
				_, err := c.GetHeroByID(context.Background(), "Name#1234", 7)
				return err
			},
			want: ErrNotFound,
		},
		{
			name: "malformed career",
			body: `{"battleTag": `,
			call: func(c *DefaultClient) error {
				_, err := c.GetCareerByBattleTag(context.Background(), "Name#1234")
				return err
			},
			want: ErrDeserialization,
		},
		{
			name:   "server error",
			status: http.StatusBadGateway,
			call: func(c *DefaultClient) error {
				_, err := c.GetCareerByBattleTag(context.Background(), "Name#1234")
				return err
			},
			want: ErrTransport,
		},
		{
			name: "blank tag",
			call: func(c *DefaultClient) error {
				_, err := c.GetCareerByBattleTag(context.Background(), "")
				return err
			},
			want: ErrInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := &capturingTransport{status: tt.status, body: tt.body}
			c := newTestClient(t, rt, Config{})
			assert.ErrorIs(t, tt.call(c), tt.want)
		})
	}
}

func TestClientUsesClientCredentials(t *testing.T) {
	rt := &capturingTransport{body: twoHeroCareer, token: "tok-123"}
	c := newTestClient(t, rt, Config{
		ClientID:     "id",
		ClientSecret: "secret",
		TokenURL:     "https://oauth.test/token",
	})

	_, err := c.GetCareerByBattleTag(context.Background(), "Name#1234")
	require.NoError(t, err)

	assert.Equal(t, []string{"oauth.test", "us.api.blizzard.com"}, rt.hosts())
	assert.Equal(t, "Bearer tok-123", rt.last().Header.Get("Authorization"))
}

func TestClosedClientRejectsCalls(t *testing.T) {
	rt := &capturingTransport{body: twoHeroCareer}
	c := newTestClient(t, rt, Config{})
	require.NoError(t, c.Close())

	_, err := c.GetCareerByBattleTag(context.Background(), "Name#1234")
	assert.ErrorIs(t, err, ErrClosed)
	assert.Empty(t, rt.hosts())
}

func TestConcurrentLookupsWithRegionChanges(t *testing.T) {
	rt := &capturingTransport{body: twoHeroCareer}
	c := newTestClient(t, rt, Config{})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%4 == 0 {
				c.SetRegion([]string{"us", "eu"}[i%8/4])
			}
			_, err := c.GetCareerByBattleTag(context.Background(), "Name#1234")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	for _, host := range rt.hosts() {
		assert.Contains(t, []string{"us.api.blizzard.com", "eu.api.blizzard.com"}, host)
	}
	assert.Len(t, rt.hosts(), 16)
}
