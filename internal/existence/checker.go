// Package existence answers the user and product existence predicates the
// API consults before mutating containers or orders. Positive answers are
// cached in Redis when a store is configured; cache errors fall through to
// the database.
package existence

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

const (
	kindUser    = "user"
	kindProduct = "product"
)

type Checker struct {
	db    *gorm.DB
	cache redis.ExistenceStore
	ttl   time.Duration
	logg  *logger.Logger
}

// NewChecker builds a checker. cache may be nil, which disables caching.
func NewChecker(db *gorm.DB, cache redis.ExistenceStore, ttl time.Duration, logg *logger.Logger) *Checker {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Checker{db: db, cache: cache, ttl: ttl, logg: logg}
}

func (c *Checker) UserExists(ctx context.Context, id int64) (bool, error) {
	return c.exists(ctx, kindUser, id, &models.User{})
}

func (c *Checker) ProductExists(ctx context.Context, id int64) (bool, error) {
	return c.exists(ctx, kindProduct, id, &models.Product{})
}

// ForgetProduct drops the cached answer after the product is removed.
func (c *Checker) ForgetProduct(ctx context.Context, id int64) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Del(ctx, c.cache.ExistsKey(kindProduct, id)); err != nil {
		c.logg.Error(c.logg.WithProductID(ctx, id), "existence.cache_delete_failed", err)
	}
}

func (c *Checker) exists(ctx context.Context, kind string, id int64, model any) (bool, error) {
	if id <= 0 {
		return false, nil
	}

	var key string
	if c.cache != nil {
		key = c.cache.ExistsKey(kind, id)
		if _, err := c.cache.Get(ctx, key); err == nil {
			return true, nil
		} else if !redis.IsNil(err) {
			c.logg.Error(c.logg.WithField(ctx, "cache_key", key), "existence.cache_read_failed", err)
		}
	}

	var count int64
	if err := c.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check "+kind)
	}
	found := count > 0

	if found && c.cache != nil {
		if err := c.cache.Set(ctx, key, "1", c.ttl); err != nil {
			c.logg.Error(c.logg.WithField(ctx, "cache_key", key), "existence.cache_write_failed", err)
		}
	}
	return found, nil
}
