package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cricket-roster/internal/config"
	"cricket-roster/internal/domain"

	"github.com/valyala/fasthttp"
)

// FeedClient fetches the roster document from the configured feed URL.
type FeedClient struct {
	url    string
	client *fasthttp.Client
}

func NewFeedClient(cfg *config.Config) *FeedClient {
	return newFeedClient(cfg.RosterFeedURL, &fasthttp.Client{
		MaxConnsPerHost:     16,
		ReadTimeout:         10 * time.Second,
		WriteTimeout:        10 * time.Second,
		MaxIdleConnDuration: 1 * time.Minute,
	})
}

func newFeedClient(url string, client *fasthttp.Client) *FeedClient {
	return &FeedClient{url: url, client: client}
}

// FeedPlayer is one record as published by the feed. Dob is Unix
// milliseconds.
type FeedPlayer struct {
	ID          string  `json:"id"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Type        string  `json:"type"`
	Points      float64 `json:"points"`
	Rank        int     `json:"rank"`
	Dob         *int64  `json:"dob"`
}

type feedEnvelope struct {
	Players []FeedPlayer `json:"players"`
}

// FetchPlayers returns the raw feed records. The feed may be a bare JSON
// array or an object with a "players" array.
func (c *FeedClient) FetchPlayers(ctx context.Context) ([]FeedPlayer, error) {
	body, err := doRequest(ctx, c, c.url)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var players []FeedPlayer
		if err := json.Unmarshal(trimmed, &players); err != nil {
			return nil, fmt.Errorf("failed to decode roster array: %w", err)
		}
		return players, nil
	}

	var env feedEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("failed to decode roster envelope: %w", err)
	}
	return env.Players, nil
}

func doRequest(ctx context.Context, client *FeedClient, url string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := client.client.Do(req, resp); err != nil {
			return nil, err
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("feed error: %d", resp.StatusCode())
	}

	// resp is released on return, so the body must be copied out.
	return bytes.Clone(resp.Body()), nil
}

// ToDomain converts a feed record. ok is false when the record has no id or
// an unknown type.
func (p FeedPlayer) ToDomain() (domain.Player, bool) {
	if p.ID == "" {
		return domain.Player{}, false
	}
	category, err := domain.ParseCategory(p.Type)
	if err != nil {
		return domain.Player{}, false
	}

	player := domain.Player{
		ID:       p.ID,
		Category: category,
		Points:   p.Points,
		Rank:     p.Rank,
	}
	if p.Name != nil {
		player.Name = *p.Name
	}
	if p.Description != nil {
		player.Description = *p.Description
	}
	if p.Dob != nil && *p.Dob != 0 {
		dob := time.UnixMilli(*p.Dob).UTC()
		player.DateOfBirth = &dob
	}
	return player, true
}
