// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachingResolver(t *testing.T) {
	calls := 0
	inner := ResolverFunc(func(_ context.Context, _ int, method, _ uint64) (Resolution, error) {
		calls++
		if method == 0 {
			return Resolution{}, ErrNotFound
		}
		return Resolution{Signature: "App.T.M()", Assembly: "App", DeclaringType: "App.T"}, nil
	})
	c := NewCachingResolver(inner, 16, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := c.Resolve(ctx, 1, 10, 20)
		require.NoError(t, err)
		assert.Equal(t, "App.T.M()", res.Signature)
	}
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, c.Len())

	// a different process with the same handles is a separate entry
	_, err := c.Resolve(ctx, 2, 10, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	// misses are not cached
	for i := 0; i < 2; i++ {
		_, err := c.Resolve(ctx, 1, 0, 20)
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, 4, calls)
	assert.Equal(t, 2, c.Len())
}

func TestCachingResolver_Defaults(t *testing.T) {
	c := NewCachingResolver(ResolverFunc(func(context.Context, int, uint64, uint64) (Resolution, error) {
		return Resolution{}, nil
	}), 0, 0)
	assert.NotNil(t, c.cache)
}
