package cached

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/domain/entity"
	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/ports"
	"github.com/jcmexdev/ecommerce-storefront/internal/pkg/cache"
)

type countingCatalogue struct {
	ports.CatalogueRepository
	calls int
}

func (c *countingCatalogue) GetProduct(ctx context.Context, id int64) (*entity.Product, error) {
	c.calls++
	if id != 7 {
		return nil, entity.ErrNotFound
	}
	return &entity.Product{
		ID:    7,
		Title: "The Go Programming Language",
		Class: &entity.ProductClass{ID: 1, Name: "Books", RequiresShipping: true, TrackStock: true},
	}, nil
}

func TestCatalogueGetProduct(t *testing.T) {
	ctx := context.Background()
	next := &countingCatalogue{}
	c := NewCatalogue(next, cache.NewMemoryCache("test"), time.Minute)

	first, err := c.GetProduct(ctx, 7)
	require.NoError(t, err)
	second, err := c.GetProduct(ctx, 7)
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, first.Title, second.Title)
	require.NotNil(t, second.Class)
	assert.True(t, second.TracksStock())

	_, err = c.GetProduct(ctx, 8)
	assert.ErrorIs(t, err, entity.ErrNotFound)
	_, err = c.GetProduct(ctx, 8)
	assert.ErrorIs(t, err, entity.ErrNotFound)
	assert.Equal(t, 3, next.calls, "misses are not cached")
}
