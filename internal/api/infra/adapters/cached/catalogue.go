// Package cached decorates repositories with a read-through cache.
package cached

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/domain/entity"
	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/ports"
	"github.com/jcmexdev/ecommerce-storefront/internal/pkg/cache"
)

// Catalogue caches product details. Every other lookup goes straight to
// the wrapped repository. Stock and prices are never cached.
type Catalogue struct {
	ports.CatalogueRepository
	cache cache.Cache
	ttl   time.Duration
}

func NewCatalogue(next ports.CatalogueRepository, c cache.Cache, ttl time.Duration) *Catalogue {
	return &Catalogue{CatalogueRepository: next, cache: c, ttl: ttl}
}

// GetProduct serves from the cache when it can. Cache failures fall back to
// the repository.
func (c *Catalogue) GetProduct(ctx context.Context, id int64) (*entity.Product, error) {
	key := c.cache.GenerateKey("product", strconv.FormatInt(id, 10))

	raw, err := c.cache.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "product cache read failed", "product_id", id, "error", err)
	} else if raw != "" {
		var p entity.Product
		if err := json.Unmarshal([]byte(raw), &p); err == nil {
			return &p, nil
		}
		slog.WarnContext(ctx, "discarding corrupt product cache entry", "product_id", id)
	}

	p, err := c.CatalogueRepository.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(p); err == nil {
		if err := c.cache.Set(ctx, key, string(b), c.ttl); err != nil {
			slog.WarnContext(ctx, "product cache write failed", "product_id", id, "error", err)
		}
	}
	return p, nil
}
