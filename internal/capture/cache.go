// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultResolveCacheSize = 4096
	DefaultResolveCacheTTL  = 10 * time.Minute
)

type resolveKey struct {
	pid    int
	method uint64
	module uint64
}

// CachingResolver remembers successful resolutions. Tiered compilation
// reports the same method handle once per tier.
type CachingResolver struct {
	inner Resolver
	cache *expirable.LRU[resolveKey, Resolution]
}

// NewCachingResolver wraps inner with a bounded cache. Non-positive size or
// ttl fall back to the defaults.
func NewCachingResolver(inner Resolver, size int, ttl time.Duration) *CachingResolver {
	if size <= 0 {
		size = DefaultResolveCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultResolveCacheTTL
	}
	return &CachingResolver{
		inner: inner,
		cache: expirable.NewLRU[resolveKey, Resolution](size, nil, ttl),
	}
}

func (c *CachingResolver) Resolve(ctx context.Context, pid int, methodHandle, moduleHandle uint64) (Resolution, error) {
	key := resolveKey{pid: pid, method: methodHandle, module: moduleHandle}
	if res, ok := c.cache.Get(key); ok {
		return res, nil
	}
	res, err := c.inner.Resolve(ctx, pid, methodHandle, moduleHandle)
	if err != nil {
		return Resolution{}, err
	}
	c.cache.Add(key, res)
	return res, nil
}

// Len is the number of cached resolutions.
func (c *CachingResolver) Len() int {
	return c.cache.Len()
}
