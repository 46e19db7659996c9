package repository

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/tnicklin/nephalem/clock"
)

var _ TokenSource = (*ClientCredentials)(nil)

const (
	DefaultTokenURL = "https://oauth.battle.net/token"

	tokenRefreshMargin = 30 * time.Second
	defaultTokenTTL    = 5 * time.Minute
)

var errMissingCredentials = errors.New("battlenet: missing client credentials")

// ClientCredentials is a TokenSource using the OAuth client-credentials grant.
// Tokens are reused until tokenRefreshMargin before they expire.
type ClientCredentials struct {
	source oauth2.TokenSource
}

type TokenParams struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	HTTPClient   *http.Client
	// Clock stamps the expiry of tokens issued without expires_in.
	Clock clock.Clock
}

func NewClientCredentials(p TokenParams) *ClientCredentials {
	if p.ClientID == "" || p.ClientSecret == "" {
		return &ClientCredentials{}
	}

	tokenURL := p.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	httpClient := p.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.System()
	}

	cfg := clientcredentials.Config{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
	fetch := &defaultExpiry{next: cfg.TokenSource(ctx), clock: clk}

	return &ClientCredentials{
		source: oauth2.ReuseTokenSourceWithExpiry(nil, fetch, tokenRefreshMargin),
	}
}

func (c *ClientCredentials) Token(ctx context.Context) (string, error) {
	if c.source == nil {
		return "", errMissingCredentials
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tok, err := c.source.Token()
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// defaultExpiry gives tokens without expires_in a finite lifetime so they are refreshed.
type defaultExpiry struct {
	next  oauth2.TokenSource
	clock clock.Clock
}

func (d *defaultExpiry) Token() (*oauth2.Token, error) {
	tok, err := d.next.Token()
	if err != nil {
		return nil, err
	}
	if tok.Expiry.IsZero() {
		tok.Expiry = d.clock.Now().Add(defaultTokenTTL)
	}
	return tok, nil
}
