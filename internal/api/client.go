package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pefman/pokedex-duel/internal/models"
)

// Config holds the remote game service location.
type Config struct {
	BaseURL         string
	PokedexEndpoint string
	GameEndpoint    string
	// Timeout bounds each call. Zero leaves calls unbounded.
	Timeout time.Duration
}

// RequestError is returned for any non-2xx reply from the service.
type RequestError struct {
	StatusCode int
	Status     string // reason phrase, e.g. "Not Found"
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed: %d: %s", e.StatusCode, e.Status)
}

type Client struct {
	config     Config
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger.Named("api"),
	}
}

func (c *Client) base() string {
	return strings.TrimRight(c.config.BaseURL, "/") + "/"
}

func (c *Client) endpoint(name string) string {
	return c.base() + strings.TrimLeft(name, "/")
}

// AssetURL resolves a service-relative asset path (card photos, icons).
func (c *Client) AssetURL(path string) string {
	if path == "" {
		return ""
	}
	return c.base() + strings.TrimLeft(path, "/")
}

func (c *Client) SpriteURL(file string) string {
	return c.base() + "sprites/" + url.PathEscape(file)
}

func (c *Client) MoveIconURL(moveType string) string {
	return c.base() + "icons/" + url.PathEscape(moveType) + ".jpg"
}

// checkStatus turns a non-2xx reply into a *RequestError.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return &RequestError{StatusCode: resp.StatusCode, Status: reason}
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	c.log.Debug("service call",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", req.URL.Path, err)
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, rawURL string, query url.Values) ([]byte, error) {
	if len(query) > 0 {
		rawURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return c.do(req)
}

func (c *Client) postForm(ctx context.Context, rawURL string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	body, err := c.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}
	return nil
}

// Roster fetches the full pokedex listing.
func (c *Client) Roster(ctx context.Context) ([]models.RosterEntry, error) {
	body, err := c.get(ctx, c.endpoint(c.config.PokedexEndpoint), url.Values{"pokedex": {"all"}})
	if err != nil {
		return nil, err
	}
	return ParseRoster(string(body)), nil
}

// Pokemon fetches the detail record for one species.
func (c *Client) Pokemon(ctx context.Context, name string) (models.Pokemon, error) {
	var p models.Pokemon
	body, err := c.get(ctx, c.endpoint(c.config.PokedexEndpoint), url.Values{"pokemon": {name}})
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal(body, &p); err != nil {
		return p, fmt.Errorf("decode pokemon %q: %w", name, err)
	}
	return p, nil
}

// StartGame opens a battle for the given species.
func (c *Client) StartGame(ctx context.Context, name string) (models.GameStart, error) {
	var out models.GameStart
	form := url.Values{
		"startgame": {"true"},
		"mypokemon": {name},
	}
	err := c.postForm(ctx, c.endpoint(c.config.GameEndpoint), form, &out)
	return out, err
}

// PlayMove resolves one turn. move must already be normalized.
func (c *Client) PlayMove(ctx context.Context, guid, pid, move string) (models.TurnResult, error) {
	var out models.TurnResult
	form := url.Values{
		"guid":     {guid},
		"pid":      {pid},
		"movename": {move},
	}
	err := c.postForm(ctx, c.endpoint(c.config.GameEndpoint), form, &out)
	return out, err
}

// Sprite downloads a raw sprite image.
func (c *Client) Sprite(ctx context.Context, file string) ([]byte, error) {
	return c.get(ctx, c.SpriteURL(file), nil)
}
