package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/pa-broadcaster/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	_, err := repo.Get(ctx, "translation:fr:abc")
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))
	require.NoError(t, repo.Set(ctx, "translation:fr:abc", "bonjour", time.Minute))
	require.NoError(t, repo.DeleteByPattern(ctx, "translation:*"))
	require.NoError(t, repo.Ping(ctx))
	require.NoError(t, repo.Close())
}
