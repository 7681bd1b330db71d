// Copyright (c) 2026 SLRHub. All rights reserved.
// Author: engineering@slrhub.io

package federation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/slrhub/slrhub/internal/search"
)

// # Envelope Cache

// cacheTTL keeps dry-query responses warm long enough for a user paging
// back and forth, while staying far below provider index refresh rates.
const cacheTTL = 5 * time.Minute

const cachePrefix = "federation:dry_query:"

// Cache stores federated envelope lists in Redis, keyed by the canonical
// query and its paging window. Persistence paths never consult it.
type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Get returns the cached envelope list for the window, if present.
func (c *Cache) Get(ctx context.Context, query *search.Query, page, pageLength int) ([]*search.Envelope, bool, error) {
	key, err := cacheKey(query, page, pageLength)
	if err != nil {
		return nil, false, err
	}

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var envelopes []*search.Envelope
	if err := json.Unmarshal(payload, &envelopes); err != nil {
		return nil, false, err
	}
	return envelopes, true, nil
}

// Set stores the envelope list for the window.
func (c *Cache) Set(ctx context.Context, query *search.Query, page, pageLength int, envelopes []*search.Envelope) error {
	key, err := cacheKey(query, page, pageLength)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(envelopes)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, payload, cacheTTL).Err()
}

// cacheKey hashes the canonical query and paging window into a stable key.
func cacheKey(query *search.Query, page, pageLength int) (string, error) {
	encoded, err := json.Marshal(query)
	if err != nil {
		return "", err
	}

	digest := sha256.Sum256(fmt.Appendf(encoded, "|%d|%d", page, pageLength))
	return cachePrefix + hex.EncodeToString(digest[:]), nil
}
