// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"strings"
	"time"
)

const (
	optionsPrefix     = "erpweb:options:"
	DefaultOptionsTTL = 60 * time.Second
)

// OptionsCache caches the option lists behind select fields. Entries are
// scoped per user so one user's visible rows never serve another.
type OptionsCache interface {
	GetOrSet(ctx context.Context, scope, resourcePath string, query url.Values, dest any, fn func() (any, error)) error
	InvalidatePath(ctx context.Context, resourcePath string) error
}

// RedisOptionsCache is the Redis-backed OptionsCache.
type RedisOptionsCache struct {
	client *Client
	ttl    time.Duration
}

// NewOptionsCache creates a Redis-backed options cache.
func NewOptionsCache(client *Client, ttl time.Duration) *RedisOptionsCache {
	if ttl <= 0 {
		ttl = DefaultOptionsTTL
	}
	return &RedisOptionsCache{client: client, ttl: ttl}
}

func pathKey(resourcePath string) string {
	return optionsPrefix + strings.Trim(resourcePath, "/") + ":"
}

func optionsKey(scope, resourcePath string, query url.Values) string {
	sum := sha256.Sum256([]byte(scope + "\x00" + query.Encode()))
	return pathKey(resourcePath) + hex.EncodeToString(sum[:12])
}

// GetOrSet returns the cached list for (scope, path, query) or loads it.
// An empty scope identifies nobody and is never cached.
func (c *RedisOptionsCache) GetOrSet(ctx context.Context, scope, resourcePath string, query url.Values, dest any, fn func() (any, error)) error {
	if scope == "" {
		return Noop{}.GetOrSet(ctx, scope, resourcePath, query, dest, fn)
	}
	return c.client.GetOrSetJSON(ctx, optionsKey(scope, resourcePath, query), dest, c.ttl, fn)
}

// InvalidatePath drops every cached list for a resource path.
func (c *RedisOptionsCache) InvalidatePath(ctx context.Context, resourcePath string) error {
	keys, err := c.client.Keys(ctx, pathKey(resourcePath)+"*")
	if err != nil {
		return err
	}
	return c.client.Delete(ctx, keys...)
}

// Noop is the OptionsCache used when Redis is not configured.
type Noop struct{}

// GetOrSet always loads.
func (Noop) GetOrSet(_ context.Context, _, _ string, _ url.Values, dest any, fn func() (any, error)) error {
	value, err := fn()
	if err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// InvalidatePath does nothing.
func (Noop) InvalidatePath(context.Context, string) error { return nil }
