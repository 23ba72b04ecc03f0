package odds

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the odds API base URL.
	DefaultBaseURL = "https://api.the-odds-api.com/v4"

	defaultRateLimit = 5.0 // requests per second
	defaultBurst     = 3
)

// Provider is the query contract consumed by the Fetcher. Implementations
// return provider-native game data for one bookmaker.
type Provider interface {
	Query(ctx context.Context, bookmaker, sportSlug string, marketKeys []string, window TimeWindow) ([]Game, error)
}

// Client is an HTTP odds API client implementing Provider.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithRateLimit sets custom rate limiting.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewClient creates a new odds API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Query fetches games for one bookmaker and sport. Regular markets come from
// the bulk odds endpoint; prop markets require one call per event, so the two
// groups are fetched separately and merged by game ID.
func (c *Client) Query(ctx context.Context, bookmaker, sportSlug string, marketKeys []string, window TimeWindow) ([]Game, error) {
	regular, props := partitionMarkets(marketKeys)

	byID := make(map[string]*Game)
	var order []string

	if len(regular) > 0 {
		games, err := c.queryRegular(ctx, bookmaker, sportSlug, regular)
		if err != nil {
			return nil, err
		}
		for i := range games {
			g := games[i]
			byID[g.ID] = &g
			order = append(order, g.ID)
		}
	}

	if len(props) > 0 {
		games, err := c.queryProps(ctx, bookmaker, sportSlug, props)
		if err != nil && len(byID) == 0 {
			return nil, err
		}
		for i := range games {
			g := games[i]
			if existing, ok := byID[g.ID]; ok {
				mergeBookmakers(existing, g.Bookmakers)
			} else {
				byID[g.ID] = &g
				order = append(order, g.ID)
			}
		}
	}

	var out []Game
	for _, id := range order {
		g := byID[id]
		if window.Contains(g.CommenceTime) {
			out = append(out, *g)
		}
	}
	return out, nil
}

// queryRegular hits the per-sport bulk odds endpoint.
func (c *Client) queryRegular(ctx context.Context, bookmaker, sportSlug string, markets []string) ([]Game, error) {
	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("regions", "us")
	params.Set("oddsFormat", "american")
	params.Set("bookmakers", bookmaker)
	params.Set("markets", strings.Join(markets, ","))

	var games []Game
	if err := c.get(ctx, "/sports/"+sportSlug+"/odds", params, &games); err != nil {
		return nil, fmt.Errorf("regular markets for %s: %w", sportSlug, err)
	}
	return games, nil
}

// eventRef is the minimal event listing used to drive prop queries.
type eventRef struct {
	ID           string    `json:"id"`
	CommenceTime time.Time `json:"commence_time"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
}

// queryProps lists events, then fetches prop odds per event. A failed
// per-event fetch skips that event rather than failing the whole query.
func (c *Client) queryProps(ctx context.Context, bookmaker, sportSlug string, markets []string) ([]Game, error) {
	params := url.Values{}
	params.Set("apiKey", c.apiKey)

	var events []eventRef
	if err := c.get(ctx, "/sports/"+sportSlug+"/events", params, &events); err != nil {
		return nil, fmt.Errorf("events for %s: %w", sportSlug, err)
	}

	var games []Game
	for _, ev := range events {
		p := url.Values{}
		p.Set("apiKey", c.apiKey)
		p.Set("regions", "us")
		p.Set("oddsFormat", "american")
		p.Set("bookmakers", bookmaker)
		p.Set("markets", strings.Join(markets, ","))

		var g Game
		if err := c.get(ctx, "/sports/"+sportSlug+"/events/"+ev.ID+"/odds", p, &g); err != nil {
			continue
		}
		games = append(games, g)
	}
	return games, nil
}

// mergeBookmakers folds additional bookmaker markets into an existing game.
func mergeBookmakers(g *Game, extra []Bookmaker) {
	for _, bk := range extra {
		merged := false
		for i := range g.Bookmakers {
			if g.Bookmakers[i].Key == bk.Key {
				g.Bookmakers[i].Markets = append(g.Bookmakers[i].Markets, bk.Markets...)
				merged = true
				break
			}
		}
		if !merged {
			g.Bookmakers = append(g.Bookmakers, bk)
		}
	}
}

// get performs a GET request with rate limiting.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("api error %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
