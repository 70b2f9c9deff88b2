// Package users resolves display profiles from the user service, with a
// short-lived Redis cache in front.
package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("user not found")

type Profile struct {
	FullName        string `json:"full_name"`
	ProfilePhotoURL string `json:"profile_photo_url"`
}

type Client struct {
	base   string
	apiKey string
	http   *http.Client
	rdb    *redis.Client
	ttl    time.Duration
}

// NewClient builds a profile client. rdb may be nil to disable caching.
func NewClient(base, apiKey string, rdb *redis.Client) *Client {
	return &Client{
		base:   base,
		apiKey: apiKey,
		http:   &http.Client{Timeout: 5 * time.Second},
		rdb:    rdb,
		ttl:    5 * time.Minute,
	}
}

func cacheKey(userID string) string { return "profile:" + userID }

func (c *Client) Resolve(ctx context.Context, userID string) (*Profile, error) {
	if c.rdb != nil {
		if raw, err := c.rdb.Get(ctx, cacheKey(userID)).Result(); err == nil {
			var p Profile
			if json.Unmarshal([]byte(raw), &p) == nil {
				return &p, nil
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/users/"+userID, nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("user service returned %d", resp.StatusCode)
	}

	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, err
	}
	if c.rdb != nil {
		if b, err := json.Marshal(p); err == nil {
			_ = c.rdb.Set(ctx, cacheKey(userID), b, c.ttl).Err()
		}
	}
	return &p, nil
}
